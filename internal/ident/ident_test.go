package ident

import "testing"

func TestInternEmptyIsEMPTY(t *testing.T) {
	in := New()
	if got := in.Intern(""); got != EMPTY {
		t.Fatalf("Intern(\"\") = %v, want EMPTY", got)
	}
}

func TestInternIdempotent(t *testing.T) {
	in := New()
	a := in.Intern("fib")
	b := in.Intern("fib")
	if a != b {
		t.Fatalf("Intern not idempotent: %v != %v", a, b)
	}
	if in.Lookup(a) != "fib" {
		t.Fatalf("Lookup(%v) = %q, want fib", a, in.Lookup(a))
	}
}

func TestInternDistinctStringsDistinctNames(t *testing.T) {
	in := New()
	a := in.Intern("foo")
	b := in.Intern("bar")
	if a == b {
		t.Fatalf("distinct strings produced equal names")
	}
}

func TestArenaAllocAndGet(t *testing.T) {
	a := NewArena[int](4)
	id0 := a.Alloc(10)
	id1 := a.Alloc(20)
	if *a.Get(id0) != 10 || *a.Get(id1) != 20 {
		t.Fatalf("arena values mismatch")
	}
}

func TestArenaAllocRange(t *testing.T) {
	a := NewArena[string](4)
	r := a.AllocRange([]string{"x", "y", "z"})
	got := a.Slice(r)
	if len(got) != 3 || got[0] != "x" || got[2] != "z" {
		t.Fatalf("AllocRange/Slice mismatch: %v", got)
	}
}

func TestArenaGetOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on out-of-range Get")
		}
	}()
	a := NewArena[int](1)
	a.Get(Id(5))
}
