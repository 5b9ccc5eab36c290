// SPDX-License-Identifier: MIT
// Package z3backend adapts github.com/mitchellh/go-z3's cgo bindings to
// the solver.Backend capability set (spec §4.1). It is the production
// decision procedure: quantifier-free linear integer arithmetic over an
// opaque Z3 context and, on SAT, an opaque Z3 model.
//
// Sign convention (spec §4.1): Z3's native comparison direction matches
// the scheduler's, so this adapter does NOT flip signs; flip is isolated
// here and would only be needed for a backend whose native ordering runs
// the other way.
package z3backend

import (
	"context"
	"fmt"

	z3 "github.com/mitchellh/go-z3"

	"github.com/FPozo/tsnsched/solver"
)

// Backend implements solver.Backend over a single Z3 context and solver
// instance. Not safe for concurrent use; the Synthesizer Driver owns one
// Backend exclusively for its lifetime (spec §5).
type Backend struct {
	cfg     *z3.Config
	ctx     *z3.Context
	z3sol   *z3.Solver
	intSort *z3.Sort
	vars    map[solver.Var]*z3.AST
	model   *z3.Model
}

// New creates a Backend with model generation enabled.
func New() *Backend {
	cfg := z3.NewConfig()
	cfg.SetParamValue("model", "true")
	ctx := z3.NewContext(cfg)
	return &Backend{
		cfg:     cfg,
		ctx:     ctx,
		z3sol:   ctx.NewSolver(),
		intSort: ctx.IntSort(),
		vars:    make(map[solver.Var]*z3.AST),
	}
}

// DeclareInt implements solver.Backend.
func (b *Backend) DeclareInt(v solver.Var) error {
	if _, exists := b.vars[v]; exists {
		return fmt.Errorf("z3backend: %q already declared", v)
	}
	b.vars[v] = b.ctx.Const(b.ctx.Symbol(string(v)), b.intSort)
	return nil
}

// Assert implements solver.Backend.
func (b *Backend) Assert(a solver.Atom) error {
	ast, err := b.buildAtom(a)
	if err != nil {
		return err
	}
	b.z3sol.Assert(ast)
	return nil
}

// AssertOr implements solver.Backend.
func (b *Backend) AssertOr(a, c solver.Atom) error {
	left, err := b.buildAtom(a)
	if err != nil {
		return err
	}
	right, err := b.buildAtom(c)
	if err != nil {
		return err
	}
	b.z3sol.Assert(left.Or(right))
	return nil
}

// buildAtom translates a solver.Atom into a Z3 boolean AST.
func (b *Backend) buildAtom(a solver.Atom) (*z3.AST, error) {
	x, ok := b.vars[a.X]
	if !ok {
		return nil, fmt.Errorf("z3backend: %w: %q", solver.ErrUndeclared, a.X)
	}
	left := x
	if a.HasDiff() {
		y, ok := b.vars[a.Y]
		if !ok {
			return nil, fmt.Errorf("z3backend: %w: %q", solver.ErrUndeclared, a.Y)
		}
		left = x.Sub(y)
	}
	k := b.ctx.Int(int(a.K), b.intSort)
	switch a.Op {
	case solver.LE:
		return left.Le(k), nil
	case solver.LT:
		return left.Lt(k), nil
	case solver.GE:
		return left.Ge(k), nil
	case solver.GT:
		return left.Gt(k), nil
	case solver.EQ:
		return left.Eq(k), nil
	default:
		return nil, fmt.Errorf("z3backend: unknown operator %v", a.Op)
	}
}

// CheckSAT implements solver.Backend. Z3's Check() call is synchronous
// and not natively cancellable from Go; ctx is honored on a best-effort
// basis by bailing out before the call if it is already done (spec §5:
// the Driver may expose a cancellation signal but need not preserve
// partial progress).
func (b *Backend) CheckSAT(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	switch b.z3sol.Check() {
	case z3.True:
		b.model = b.z3sol.Model()
		return true, nil
	case z3.False:
		return false, nil
	default:
		return false, fmt.Errorf("z3backend: solver returned unknown")
	}
}

// Value implements solver.Backend.
func (b *Backend) Value(v solver.Var) (int64, bool, error) {
	if b.model == nil {
		return 0, false, fmt.Errorf("z3backend: no model (CheckSAT not called or returned false)")
	}
	ast, ok := b.vars[v]
	if !ok {
		return 0, false, nil
	}
	assignment := b.model.Eval(ast)
	if assignment == nil {
		return 0, false, nil
	}
	value, isLiteral := assignment.Int64()
	if !isLiteral {
		return 0, false, nil
	}
	return value, true, nil
}

// Close implements solver.Backend.
func (b *Backend) Close() error {
	if b.model != nil {
		b.model.Close()
	}
	b.z3sol.Close()
	b.ctx.Close()
	b.cfg.Close()
	return nil
}

var _ solver.Backend = (*Backend)(nil)
