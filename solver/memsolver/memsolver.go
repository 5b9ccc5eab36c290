// SPDX-License-Identifier: MIT
// Package memsolver is a small, pure-Go enumerative implementation of
// solver.Backend. It has no external dependency and is used by
// constraint-generator and driver tests that need a real, runnable
// decision procedure without linking against Z3 (package
// solver/z3backend). It is sound and complete on the bounded problems
// this module's test scenarios exercise, but it is not a general SMT
// solver: do not use it to schedule production-sized networks.
package memsolver

import (
	"context"
	"fmt"

	"github.com/FPozo/tsnsched/solver"
)

// binding is a single binary ("x - y OP k") or disjunctive constraint
// that memsolver cannot fold into a per-variable bound and must check
// against a candidate assignment during search.
type binding struct {
	atoms []solver.Atom // one atom: hard constraint; two atoms: disjunction
}

// Backend is a solver.Backend implementation backed by bounded
// backtracking search.
type Backend struct {
	order   []solver.Var
	lo, hi  map[solver.Var]int64
	binding []binding
	model   map[solver.Var]int64
}

// New returns an empty Backend.
func New() *Backend {
	return &Backend{
		lo: make(map[solver.Var]int64),
		hi: make(map[solver.Var]int64),
	}
}

// DeclareInt implements solver.Backend.
func (b *Backend) DeclareInt(v solver.Var) error {
	if _, exists := b.lo[v]; exists {
		return fmt.Errorf("memsolver: %q already declared", v)
	}
	b.order = append(b.order, v)
	b.lo[v] = -(1 << 40)
	b.hi[v] = 1 << 40
	return nil
}

// Assert implements solver.Backend.
func (b *Backend) Assert(a solver.Atom) error {
	if !a.HasDiff() {
		return b.narrow(a)
	}
	// An equality difference atom ("X - Y = K", as emitted by the (P)
	// periodicity family) pins X's domain to Y's domain shifted by K.
	// Propagating this at assert time keeps every non-base instance
	// variable's search domain bounded without a general-purpose
	// difference-constraint solver.
	if a.Op == solver.EQ {
		if ylo, ok := b.lo[a.Y]; ok {
			if v := ylo + a.K; v > b.lo[a.X] {
				b.lo[a.X] = v
			}
		}
		if yhi, ok := b.hi[a.Y]; ok {
			if v := yhi + a.K; v < b.hi[a.X] {
				b.hi[a.X] = v
			}
		}
	}
	b.binding = append(b.binding, binding{atoms: []solver.Atom{a}})
	return nil
}

// AssertOr implements solver.Backend.
func (b *Backend) AssertOr(a, c solver.Atom) error {
	b.binding = append(b.binding, binding{atoms: []solver.Atom{a, c}})
	return nil
}

// narrow tightens the per-variable [lo, hi] bound for a single-variable
// unary atom "X OP K".
func (b *Backend) narrow(a solver.Atom) error {
	if _, ok := b.lo[a.X]; !ok {
		return fmt.Errorf("memsolver: %q not declared", a.X)
	}
	switch a.Op {
	case solver.LE:
		if a.K < b.hi[a.X] {
			b.hi[a.X] = a.K
		}
	case solver.LT:
		if a.K-1 < b.hi[a.X] {
			b.hi[a.X] = a.K - 1
		}
	case solver.GE:
		if a.K > b.lo[a.X] {
			b.lo[a.X] = a.K
		}
	case solver.GT:
		if a.K+1 > b.lo[a.X] {
			b.lo[a.X] = a.K + 1
		}
	case solver.EQ:
		b.lo[a.X], b.hi[a.X] = a.K, a.K
	}
	return nil
}

// CheckSAT implements solver.Backend via bounded backtracking search in
// declaration order. ctx cancellation is checked between variable
// assignments.
func (b *Backend) CheckSAT(ctx context.Context) (bool, error) {
	assignment := make(map[solver.Var]int64, len(b.order))
	ok, err := b.search(ctx, 0, assignment)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	b.model = assignment
	return true, nil
}

func (b *Backend) search(ctx context.Context, idx int, assignment map[solver.Var]int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if idx == len(b.order) {
		return b.satisfiesAll(assignment), nil
	}
	v := b.order[idx]
	lo, hi := b.lo[v], b.hi[v]
	if hi-lo > (1 << 20) {
		return false, fmt.Errorf("memsolver: domain for %q too wide for enumerative search (%d..%d)", v, lo, hi)
	}
	for val := lo; val <= hi; val++ {
		assignment[v] = val
		if b.partialConsistent(assignment) {
			if ok, err := b.search(ctx, idx+1, assignment); err != nil || ok {
				return ok, err
			}
		}
		delete(assignment, v)
	}
	return false, nil
}

// partialConsistent checks every binding whose variables are already
// assigned; unassigned-variable bindings are assumed satisfiable until
// proven otherwise at the leaf.
func (b *Backend) partialConsistent(assignment map[solver.Var]int64) bool {
	for _, bd := range b.binding {
		if !bindingReady(bd, assignment) {
			continue
		}
		if !evalBinding(bd, assignment) {
			return false
		}
	}
	return true
}

func (b *Backend) satisfiesAll(assignment map[solver.Var]int64) bool {
	for _, bd := range b.binding {
		if !evalBinding(bd, assignment) {
			return false
		}
	}
	return true
}

func bindingReady(bd binding, assignment map[solver.Var]int64) bool {
	for _, a := range bd.atoms {
		if _, ok := assignment[a.X]; !ok {
			return false
		}
		if a.HasDiff() {
			if _, ok := assignment[a.Y]; !ok {
				return false
			}
		}
	}
	return true
}

func evalBinding(bd binding, assignment map[solver.Var]int64) bool {
	for _, a := range bd.atoms {
		if evalAtom(a, assignment) {
			return true
		}
	}
	return false
}

func evalAtom(a solver.Atom, assignment map[solver.Var]int64) bool {
	left := assignment[a.X]
	if a.HasDiff() {
		left -= assignment[a.Y]
	}
	switch a.Op {
	case solver.LE:
		return left <= a.K
	case solver.LT:
		return left < a.K
	case solver.GE:
		return left >= a.K
	case solver.GT:
		return left > a.K
	case solver.EQ:
		return left == a.K
	default:
		return false
	}
}

// Value implements solver.Backend.
func (b *Backend) Value(v solver.Var) (int64, bool, error) {
	if b.model == nil {
		return 0, false, fmt.Errorf("memsolver: no model (CheckSAT not called or returned false)")
	}
	val, ok := b.model[v]
	return val, ok, nil
}

// Close implements solver.Backend; memsolver holds no external resources.
func (b *Backend) Close() error { return nil }

var _ solver.Backend = (*Backend)(nil)
