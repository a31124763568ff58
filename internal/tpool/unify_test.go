package tpool

import "testing"

func TestUnifyPrimitivesSucceed(t *testing.T) {
	p := New()
	if err := p.Unify(p.INT, p.INT); err != nil {
		t.Fatalf("unify(int, int) failed: %v", err)
	}
}

func TestUnifyMismatchFails(t *testing.T) {
	p := New()
	if err := p.Unify(p.INT, p.BOOL); err == nil {
		t.Fatalf("expected mismatch error")
	} else if err.Kind != ErrTypeMismatch {
		t.Fatalf("expected ErrTypeMismatch, got %v", err.Kind)
	}
}

func TestUnifySymmetry(t *testing.T) {
	p1 := New()
	v1 := p1.FreshVar()
	err1 := p1.Unify(v1, p1.INT)
	p2 := New()
	v2 := p2.FreshVar()
	err2 := p2.Unify(p2.INT, v2)
	if (err1 == nil) != (err2 == nil) {
		t.Fatalf("unify not symmetric: %v vs %v", err1, err2)
	}
	if p1.Resolve(v1) != p1.INT || p2.Resolve(v2) != p2.INT {
		t.Fatalf("both should resolve to INT")
	}
}

func TestOccursCheckDetectsInfiniteType(t *testing.T) {
	p := New()
	v := p.FreshVar()
	list := p.List(v)
	err := p.Unify(v, list)
	if err == nil {
		t.Fatalf("expected InfiniteType error")
	}
	if err.Kind != ErrInfiniteType {
		t.Fatalf("expected ErrInfiniteType, got %v", err.Kind)
	}
}

func TestUnifyFunctionArity(t *testing.T) {
	p := New()
	f1 := p.Function([]Idx{p.INT}, p.BOOL)
	f2 := p.Function([]Idx{p.INT, p.INT}, p.BOOL)
	err := p.Unify(f1, f2)
	if err == nil || err.Kind != ErrArgCountMismatch {
		t.Fatalf("expected ArgCountMismatch, got %v", err)
	}
}

func TestInterningIdempotent(t *testing.T) {
	p := New()
	a := p.List(p.INT)
	b := p.List(p.INT)
	if a != b {
		t.Fatalf("List(INT) not interned idempotently: %v != %v", a, b)
	}
}

func TestGeneralizeAndInstantiate(t *testing.T) {
	p := New()
	p.EnterLet()
	v := p.FreshVar()
	fn := p.Function([]Idx{v}, v)
	scheme, quantified := p.Generalize(fn, 0)
	if len(quantified) != 1 {
		t.Fatalf("expected 1 quantified var, got %d", len(quantified))
	}
	p.ExitLet()

	inst1 := p.Instantiate(scheme)
	inst2 := p.Instantiate(scheme)
	params1, ret1 := p.FunctionParts(inst1)
	params2, ret2 := p.FunctionParts(inst2)
	if params1[0] == params2[0] {
		t.Fatalf("two instantiations should allocate distinct fresh variables")
	}
	if p.Resolve(params1[0]) != p.Resolve(ret1) {
		t.Fatalf("instantiated scheme lost param/return sharing")
	}
	_ = ret2
}

func TestRigidVarMismatch(t *testing.T) {
	p := New()
	names := newTestInterner()
	r := p.RigidVar(names.Intern("T"))
	err := p.Unify(r, p.INT)
	if err == nil || err.Kind != ErrRigidMismatch {
		t.Fatalf("expected RigidMismatch, got %v", err)
	}
}
