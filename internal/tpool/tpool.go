// Package tpool implements the structurally-interned type pool described in
// spec.md §4.2: every distinct type payload is assigned exactly one Idx, and
// two payloads with the same tag and same word sequence always resolve to
// the same Idx (invariant 2, spec.md §3).
package tpool

import (
	"fmt"
	"strings"

	"github.com/ori-lang/oric/internal/ident"
)

// Idx is an opaque handle into the type pool.
type Idx uint32

// NONE is the invalid-Idx sentinel.
const NONE Idx = 0xFFFFFFFF

// Tag is the discriminant of a type pool entry.
type Tag uint8

const (
	TagInt Tag = iota
	TagFloat
	TagBool
	TagStr
	TagChar
	TagByte
	TagUnit
	TagNever
	TagDuration
	TagSize
	TagOrdering
	TagError
	TagInfer
	TagSelfType
	TagList
	TagOption
	TagSet
	TagChannel
	TagRange
	TagIterator
	TagDoubleEndedIterator
	TagMap
	TagResult
	TagBorrowed
	TagFunction
	TagTuple
	TagScheme
	TagVar
	TagRigidVar
	TagApplied
	TagNamed
	TagStruct
	TagEnum
)

// Field is a single (name, type) pair used by Struct entries.
type Field struct {
	Name ident.Name
	Type Idx
}

// Variant is one alternative of an Enum entry; Fields is empty for a unit
// variant and holds the tuple/record field types otherwise.
type Variant struct {
	Name   ident.Name
	Fields []Idx
}

// entry is the dense, tag-discriminated payload for one pool slot. Only the
// fields relevant to Tag are meaningful; this mirrors the "tagged union with
// payload laid out by tag" idiom described in spec.md §9, expressed in Go as
// a single struct rather than a real union.
type entry struct {
	tag Tag

	// single-child variants: List/Option/Set/Channel/Range/Iterator/
	// DoubleEndedIterator store their element in `a`; Borrowed stores its
	// referent in `a` and its lifetime name in `name`.
	a, b Idx

	// children holds Function params, Tuple elems, Scheme quantified vars,
	// and Applied type arguments.
	children []Idx

	name ident.Name

	fields   []Field
	variants []Variant
}

// VarKind distinguishes the three states a type variable can be in
// (spec.md §3, "Type variable state").
type VarKind uint8

const (
	VarUnbound VarKind = iota
	VarBound
	VarRigid
)

// varState is the union-find node backing a TagVar/TagRigidVar entry.
type varState struct {
	kind VarKind
	id   uint32       // stable variable id, used for occurs-check and display
	rank int          // let-generalization rank; see Pool.Generalize
	name ident.Name    // optional user-written name, EMPTY if synthesized
	to   Idx          // VarBound: the representative this variable is bound to
}

// Pool is the structural type interner. A Pool is owned by one compilation
// context (spec.md §5); it grows monotonically within a single compilation
// (invariant 7, spec.md §3).
type Pool struct {
	entries []entry
	key2idx map[string]Idx

	vars []varState // indexed by the `a` field of TagVar/TagRigidVar entries
	rank int         // current let-nesting rank, see Pool.EnterLet/ExitLet

	// Reserved constants, computed once in New.
	INT, FLOAT, BOOL, STR, CHAR, BYTE, UNIT, NEVER Idx
	DURATION, SIZE, ORDERING                       Idx
	ERROR, INFER, SELF_TYPE                        Idx
}

// New returns a Pool with the reserved primitive constants pre-interned.
func New() *Pool {
	p := &Pool{
		key2idx: make(map[string]Idx, 1024),
		entries: make([]entry, 0, 1024),
	}
	p.INT = p.internSimple(TagInt)
	p.FLOAT = p.internSimple(TagFloat)
	p.BOOL = p.internSimple(TagBool)
	p.STR = p.internSimple(TagStr)
	p.CHAR = p.internSimple(TagChar)
	p.BYTE = p.internSimple(TagByte)
	p.UNIT = p.internSimple(TagUnit)
	p.NEVER = p.internSimple(TagNever)
	p.DURATION = p.internSimple(TagDuration)
	p.SIZE = p.internSimple(TagSize)
	p.ORDERING = p.internSimple(TagOrdering)
	p.ERROR = p.internSimple(TagError)
	p.INFER = p.internSimple(TagInfer)
	p.SELF_TYPE = p.internSimple(TagSelfType)
	return p
}

func (p *Pool) internSimple(tag Tag) Idx {
	return p.intern(entry{tag: tag})
}

// keyOf produces a structural key for an entry; two entries with the same
// key are guaranteed to describe the same type.
func keyOf(e entry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d|%d|%d|", e.tag, e.a, e.b)
	for _, c := range e.children {
		fmt.Fprintf(&sb, "%d,", c)
	}
	sb.WriteByte('|')
	fmt.Fprintf(&sb, "%d|", e.name)
	for _, f := range e.fields {
		fmt.Fprintf(&sb, "%d:%d,", f.Name, f.Type)
	}
	sb.WriteByte('|')
	for _, v := range e.variants {
		fmt.Fprintf(&sb, "%d(", v.Name)
		for _, f := range v.Fields {
			fmt.Fprintf(&sb, "%d,", f)
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// intern structurally deduplicates e and returns its Idx, allocating a new
// slot only on first occurrence.
func (p *Pool) intern(e entry) Idx {
	k := keyOf(e)
	if idx, ok := p.key2idx[k]; ok {
		return idx
	}
	idx := Idx(len(p.entries))
	p.entries = append(p.entries, e)
	p.key2idx[k] = idx
	return idx
}

// --- Constructors (spec.md §4.2) ---

func (p *Pool) List(elem Idx) Idx     { return p.intern(entry{tag: TagList, a: elem}) }
func (p *Pool) Option(inner Idx) Idx  { return p.intern(entry{tag: TagOption, a: inner}) }
func (p *Pool) Set(elem Idx) Idx      { return p.intern(entry{tag: TagSet, a: elem}) }
func (p *Pool) Channel(elem Idx) Idx  { return p.intern(entry{tag: TagChannel, a: elem}) }
func (p *Pool) RangeT(elem Idx) Idx   { return p.intern(entry{tag: TagRange, a: elem}) }
func (p *Pool) Iterator(elem Idx) Idx { return p.intern(entry{tag: TagIterator, a: elem}) }
func (p *Pool) DoubleEndedIterator(elem Idx) Idx {
	return p.intern(entry{tag: TagDoubleEndedIterator, a: elem})
}
func (p *Pool) Map(k, v Idx) Idx    { return p.intern(entry{tag: TagMap, a: k, b: v}) }
func (p *Pool) Result(ok, err Idx) Idx { return p.intern(entry{tag: TagResult, a: ok, b: err}) }

func (p *Pool) Borrowed(inner Idx, lifetime ident.Name) Idx {
	return p.intern(entry{tag: TagBorrowed, a: inner, name: lifetime})
}

func (p *Pool) Function(params []Idx, ret Idx) Idx {
	cp := append([]Idx(nil), params...)
	return p.intern(entry{tag: TagFunction, b: ret, children: cp})
}

func (p *Pool) Tuple(elems []Idx) Idx {
	cp := append([]Idx(nil), elems...)
	return p.intern(entry{tag: TagTuple, children: cp})
}

func (p *Pool) Applied(name ident.Name, args []Idx) Idx {
	cp := append([]Idx(nil), args...)
	return p.intern(entry{tag: TagApplied, name: name, children: cp})
}

func (p *Pool) Named(name ident.Name) Idx {
	return p.intern(entry{tag: TagNamed, name: name})
}

func (p *Pool) StructType(name ident.Name, fields []Field) Idx {
	cp := append([]Field(nil), fields...)
	return p.intern(entry{tag: TagStruct, name: name, fields: cp})
}

func (p *Pool) EnumType(name ident.Name, variants []Variant) Idx {
	cp := append([]Variant(nil), variants...)
	return p.intern(entry{tag: TagEnum, name: name, variants: cp})
}

// Scheme quantifies body over the given Var indices, representing a
// polymorphic value (spec.md GLOSSARY: "Scheme").
func (p *Pool) Scheme(vars []Idx, body Idx) Idx {
	cp := append([]Idx(nil), vars...)
	return p.intern(entry{tag: TagScheme, b: body, children: cp})
}

// FreshVar allocates a new unbound type variable at the pool's current rank.
// Unlike the other constructors, each call to FreshVar (and FreshVarWithRank)
// produces a new, distinct Idx even if called repeatedly: two freshly
// allocated variables are never equal, by design.
func (p *Pool) FreshVar() Idx { return p.FreshVarWithRank(p.rank) }

// FreshVarWithRank allocates a fresh unbound variable at an explicit rank,
// used when inferring under a nested let (spec.md §4.4).
func (p *Pool) FreshVarWithRank(rank int) Idx {
	id := uint32(len(p.vars))
	p.vars = append(p.vars, varState{kind: VarUnbound, id: id, rank: rank})
	idx := Idx(len(p.entries))
	p.entries = append(p.entries, entry{tag: TagVar, a: Idx(id)})
	// Var entries are never structurally deduped: each FreshVar call must
	// yield a distinct identity even though the key would otherwise collide.
	return idx
}

// RigidVar allocates a skolem constant that may only unify with itself or
// another variable (used for generic type parameters bound by a signature).
func (p *Pool) RigidVar(name ident.Name) Idx {
	id := uint32(len(p.vars))
	p.vars = append(p.vars, varState{kind: VarRigid, id: id, name: name})
	idx := Idx(len(p.entries))
	p.entries = append(p.entries, entry{tag: TagRigidVar, a: Idx(id), name: name})
	return idx
}

// EnterLet increments the generalization rank on entering a let-binding's
// initializer (spec.md §4.4 step 1).
func (p *Pool) EnterLet() { p.rank++ }

// ExitLet decrements the generalization rank on leaving a let's initializer.
func (p *Pool) ExitLet() { p.rank-- }

// Rank returns the pool's current generalization rank.
func (p *Pool) Rank() int { return p.rank }

// Resolve follows bound type variables to their representative, per
// spec.md §4.2. Concrete types resolve to themselves.
func (p *Pool) Resolve(idx Idx) Idx {
	for {
		e := p.entries[idx]
		if e.tag != TagVar {
			return idx
		}
		vs := &p.vars[e.a]
		if vs.kind != VarBound {
			return idx
		}
		// path compression
		target := p.Resolve(vs.to)
		vs.to = target
		idx = target
	}
}

// Tag returns the discriminant of idx after resolution.
func (p *Pool) Tag(idx Idx) Tag {
	return p.entries[p.Resolve(idx)].tag
}

// VarID returns the stable variable id backing a TagVar/TagRigidVar entry.
func (p *Pool) VarID(idx Idx) uint32 { return uint32(p.entries[idx].a) }

// VarRank returns the rank of an unbound variable.
func (p *Pool) VarRank(idx Idx) int {
	e := p.entries[idx]
	return p.vars[e.a].rank
}

// IsUnbound reports whether idx (before resolution) is an unbound variable.
func (p *Pool) IsUnbound(idx Idx) bool {
	e := p.entries[idx]
	if e.tag != TagVar {
		return false
	}
	return p.vars[e.a].kind == VarUnbound
}

// Bind binds the unbound variable at idx to target. Callers must have
// already performed an occurs-check; Bind itself does not re-check.
func (p *Pool) Bind(idx, target Idx) {
	e := p.entries[idx]
	vs := &p.vars[e.a]
	vs.kind = VarBound
	vs.to = target
}

// Elem returns the single child of a single-argument type constructor
// (List/Option/Set/Channel/Range/Iterator/DoubleEndedIterator/Borrowed).
func (p *Pool) Elem(idx Idx) Idx { return p.entries[p.Resolve(idx)].a }

// MapKV returns the (key, value) children of a Map.
func (p *Pool) MapKV(idx Idx) (Idx, Idx) {
	e := p.entries[p.Resolve(idx)]
	return e.a, e.b
}

// ResultOkErr returns the (ok, err) children of a Result.
func (p *Pool) ResultOkErr(idx Idx) (Idx, Idx) {
	e := p.entries[p.Resolve(idx)]
	return e.a, e.b
}

// FunctionParts returns a Function entry's parameter types and return type.
func (p *Pool) FunctionParts(idx Idx) ([]Idx, Idx) {
	e := p.entries[p.Resolve(idx)]
	return e.children, e.b
}

// TupleElems returns a Tuple entry's element types.
func (p *Pool) TupleElems(idx Idx) []Idx { return p.entries[p.Resolve(idx)].children }

// AppliedParts returns an Applied entry's name and type arguments.
func (p *Pool) AppliedParts(idx Idx) (ident.Name, []Idx) {
	e := p.entries[p.Resolve(idx)]
	return e.name, e.children
}

// NamedName returns a Named entry's name.
func (p *Pool) NamedName(idx Idx) ident.Name { return p.entries[p.Resolve(idx)].name }

// StructParts returns a Struct entry's name and fields.
func (p *Pool) StructParts(idx Idx) (ident.Name, []Field) {
	e := p.entries[p.Resolve(idx)]
	return e.name, e.fields
}

// EnumParts returns an Enum entry's name and variants.
func (p *Pool) EnumParts(idx Idx) (ident.Name, []Variant) {
	e := p.entries[p.Resolve(idx)]
	return e.name, e.variants
}

// SchemeParts returns a Scheme entry's quantified variables and body.
func (p *Pool) SchemeParts(idx Idx) ([]Idx, Idx) {
	e := p.entries[p.Resolve(idx)]
	return e.children, e.b
}

// BorrowedParts returns a Borrowed entry's referent and lifetime name.
func (p *Pool) BorrowedParts(idx Idx) (Idx, ident.Name) {
	e := p.entries[p.Resolve(idx)]
	return e.a, e.name
}

// String renders idx for diagnostics and debugging. It never panics on an
// ERROR or unresolved variable, producing "<error>" or "?<n>" respectively.
func (p *Pool) String(idx Idx, names *ident.Interner) string {
	r := p.Resolve(idx)
	e := p.entries[r]
	switch e.tag {
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagBool:
		return "bool"
	case TagStr:
		return "str"
	case TagChar:
		return "char"
	case TagByte:
		return "byte"
	case TagUnit:
		return "()"
	case TagNever:
		return "never"
	case TagDuration:
		return "duration"
	case TagSize:
		return "size"
	case TagOrdering:
		return "ordering"
	case TagError:
		return "<error>"
	case TagInfer:
		return "_"
	case TagSelfType:
		return "Self"
	case TagList:
		return "[" + p.String(e.a, names) + "]"
	case TagOption:
		return "Option<" + p.String(e.a, names) + ">"
	case TagSet:
		return "Set<" + p.String(e.a, names) + ">"
	case TagChannel:
		return "Channel<" + p.String(e.a, names) + ">"
	case TagRange:
		return "Range<" + p.String(e.a, names) + ">"
	case TagIterator:
		return "Iterator<" + p.String(e.a, names) + ">"
	case TagDoubleEndedIterator:
		return "DoubleEndedIterator<" + p.String(e.a, names) + ">"
	case TagMap:
		return "Map<" + p.String(e.a, names) + ", " + p.String(e.b, names) + ">"
	case TagResult:
		return "Result<" + p.String(e.a, names) + ", " + p.String(e.b, names) + ">"
	case TagBorrowed:
		return "&" + p.String(e.a, names)
	case TagFunction:
		parts := make([]string, len(e.children))
		for i, c := range e.children {
			parts[i] = p.String(c, names)
		}
		return "(" + strings.Join(parts, ", ") + ") -> " + p.String(e.b, names)
	case TagTuple:
		parts := make([]string, len(e.children))
		for i, c := range e.children {
			parts[i] = p.String(c, names)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case TagScheme:
		return "forall. " + p.String(e.b, names)
	case TagVar:
		vs := p.vars[e.a]
		if vs.name != ident.EMPTY {
			return names.Lookup(vs.name)
		}
		return fmt.Sprintf("?%d", vs.id)
	case TagRigidVar:
		return names.Lookup(e.name)
	case TagApplied:
		parts := make([]string, len(e.children))
		for i, c := range e.children {
			parts[i] = p.String(c, names)
		}
		return names.Lookup(e.name) + "<" + strings.Join(parts, ", ") + ">"
	case TagNamed:
		return names.Lookup(e.name)
	case TagStruct, TagEnum:
		return names.Lookup(e.name)
	default:
		return "<unknown>"
	}
}
