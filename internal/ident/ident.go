// Package ident provides name interning and arena allocation, the
// foundational layer every later stage of the pipeline builds on.
//
// Two names are equal iff their underlying strings are equal; equality and
// hashing of a Name are both constant time since a Name is just a 32-bit
// handle into the interner's table.
package ident

// Name is an opaque handle to an interned identifier string.
type Name uint32

// EMPTY is the distinguished Name the empty string always interns to.
const EMPTY Name = 0

// Interner deduplicates identifier strings behind stable 32-bit handles.
//
// The interner is owned by a single compilation context and is not safe for
// concurrent use from multiple goroutines; callers that parallelize across
// modules must give each module its own Interner (see spec.md §5).
type Interner struct {
	strs []string
	ids  map[string]Name
}

// New returns an Interner pre-seeded so that intern("") == EMPTY.
func New() *Interner {
	in := &Interner{
		strs: make([]string, 0, 256),
		ids:  make(map[string]Name, 256),
	}
	in.strs = append(in.strs, "")
	in.ids[""] = EMPTY
	return in
}

// Intern returns the Name for s, interning it if this is the first
// occurrence. Equal strings always yield equal Names (invariant 2 of
// spec.md §3: interning is idempotent).
func (in *Interner) Intern(s string) Name {
	if n, ok := in.ids[s]; ok {
		return n
	}
	n := Name(len(in.strs))
	in.strs = append(in.strs, s)
	in.ids[s] = n
	return n
}

// Lookup returns the string a Name was interned from. Lookup on a Name not
// produced by this Interner is a programmer error; a Name beyond the
// interned range panics, in every build.
func (in *Interner) Lookup(n Name) string {
	if int(n) >= len(in.strs) {
		panic("ident: lookup of name not produced by this interner")
	}
	return in.strs[n]
}

// Len reports how many distinct names have been interned so far, including
// EMPTY.
func (in *Interner) Len() int { return len(in.strs) }

// Id is a generic opaque handle into an Arena[T].
type Id uint32

// NONE is the invalid-handle sentinel shared by every arena.
const NONE Id = 0xFFFFFFFF

// Range is a (start, length) handle into an arena's side table, used for
// variable-length children (argument lists, struct fields, match arms, …).
type Range struct {
	Start  uint32
	Length uint32
}

// Empty reports whether the range has no elements.
func (r Range) Empty() bool { return r.Length == 0 }

// Arena is a bump-allocated, never-relocating store of homogeneous values
// addressed by 32-bit Id. Arenas never shrink or reuse an Id once issued,
// so an Id is stable for the lifetime of the arena (spec.md §4.1).
type Arena[T any] struct {
	items []T
}

// NewArena returns an empty arena with capacity hinted by cap.
func NewArena[T any](cap int) *Arena[T] {
	return &Arena[T]{items: make([]T, 0, cap)}
}

// Alloc appends value to the arena and returns its stable Id.
func (a *Arena[T]) Alloc(value T) Id {
	id := Id(len(a.items))
	a.items = append(a.items, value)
	return id
}

// AllocRange appends every value in values, in order, and returns the Range
// spanning them. An empty values slice yields a zero-length Range whose
// Start is the arena's current length (a valid, if unused, handle).
func (a *Arena[T]) AllocRange(values []T) Range {
	start := uint32(len(a.items))
	a.items = append(a.items, values...)
	return Range{Start: start, Length: uint32(len(values))}
}

// Get returns a pointer to the value at id. An out-of-range id traps,
// matching the contract that invalid handles are a programmer error.
func (a *Arena[T]) Get(id Id) *T {
	if int(id) >= len(a.items) {
		panic("ident: arena access out of range")
	}
	return &a.items[id]
}

// Slice returns the values covered by r. The returned slice aliases the
// arena's backing storage and must not be retained past further Alloc calls.
func (a *Arena[T]) Slice(r Range) []T {
	if r.Length == 0 {
		return nil
	}
	end := r.Start + r.Length
	if int(end) > len(a.items) {
		panic("ident: arena range out of bounds")
	}
	return a.items[r.Start:end]
}

// Len reports the number of values allocated in the arena.
func (a *Arena[T]) Len() int { return len(a.items) }
