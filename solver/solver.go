// SPDX-License-Identifier: MIT
// Package solver abstracts the integer-arithmetic SMT decision procedure
// behind the capability set of spec §4.1: declare a named integer
// variable, assert atoms and disjunctions of atoms over quantifier-free
// linear integer arithmetic, check satisfiability, and read back integer
// values from a model.
//
// The constraint generator (package constraints) depends only on the
// Backend interface here, never on a concrete SMT library. Two
// implementations ship with this module: solver/z3backend (cgo bindings
// to Z3, the production backend) and solver/memsolver (a pure-Go
// enumerative backend used by tests and for small bounded problems that
// need a real, runnable decision procedure without linking against Z3).
package solver

import (
	"context"
	"errors"
)

// ErrUndeclared is returned by a Backend when an Atom references a Var
// that was never passed to DeclareInt.
var ErrUndeclared = errors.New("solver: variable not declared")

// Var names a single declared integer variable. Names follow spec §4.2:
// "O_<frameId>_<instance>_<replica>_<linkId>", and must be unique within
// one Backend's lifetime.
type Var string

// Op is a linear-arithmetic comparison operator.
type Op int

const (
	LE Op = iota // <=
	LT           // <
	GE           // >=
	GT           // >
	EQ           // =
)

// String renders Op for diagnostics and backend adapters.
func (o Op) String() string {
	switch o {
	case LE:
		return "<="
	case LT:
		return "<"
	case GE:
		return ">="
	case GT:
		return ">"
	case EQ:
		return "="
	default:
		return "?"
	}
}

// negate returns the operator obtained by flipping both operand order and
// comparison direction, i.e. the operator satisfying "a OP b" iff
// "b negate(OP) a". Used by backend adapters that need a sign-flipped
// encoding (spec §4.1's sign convention) without the generator knowing.
func (o Op) negate() Op {
	switch o {
	case LE:
		return GE
	case LT:
		return GT
	case GE:
		return LE
	case GT:
		return LT
	default:
		return EQ
	}
}

// Negate exposes negate to backend adapters in other packages.
func (o Op) Negate() Op { return o.negate() }

// Atom is one linear-arithmetic assertion. When Y == "" the atom reads
// "X OP K"; when Y != "" it reads "X - Y OP K" (spec §4.1's "x - y" form).
type Atom struct {
	X  Var
	Y  Var
	Op Op
	K  int64
}

// HasDiff reports whether this Atom is the two-variable "x - y" form.
func (a Atom) HasDiff() bool { return a.Y != "" }

// AtomVar builds "X OP K".
func AtomVar(x Var, op Op, k int64) Atom { return Atom{X: x, Op: op, K: k} }

// AtomDiff builds "X - Y OP K".
func AtomDiff(x, y Var, op Op, k int64) Atom { return Atom{X: x, Y: y, Op: op, K: k} }

// Backend is the capability set spec §4.1 requires of a concrete SMT
// decision procedure. Implementations own their context and, after a
// successful CheckSAT, their model; Close releases both.
type Backend interface {
	// DeclareInt declares a new unbounded integer variable named v. Must
	// be called exactly once per Var before it is referenced by Assert,
	// AssertOr or Value.
	DeclareInt(v Var) error

	// Assert adds a as a hard constraint.
	Assert(a Atom) error

	// AssertOr adds the disjunction "a OR b" as a hard constraint.
	AssertOr(a, b Atom) error

	// CheckSAT decides satisfiability of every assertion made so far under
	// quantifier-free linear integer arithmetic. ctx may carry a deadline;
	// implementations are not required to preserve partial progress on
	// cancellation (spec §5).
	CheckSAT(ctx context.Context) (bool, error)

	// Value returns the integer assigned to v in the current model.
	// Only valid after CheckSAT returned (true, nil). ok is false if v
	// was never declared or the backend's model has no entry for it.
	Value(v Var) (value int64, ok bool, err error)

	// Close releases the backend's context and any model it holds.
	Close() error
}
