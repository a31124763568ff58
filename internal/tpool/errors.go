package tpool

import "github.com/ori-lang/oric/internal/ident"

// UnifyError is the sealed set of failure modes unification can report,
// matching spec.md §4.2 "Failure modes".
type UnifyError struct {
	Kind     UnifyErrorKind
	Expected Idx
	Found    Idx
	Rigid    ident.Name
	Var      Idx
	Wanted   int
	Got      int
	Escaping ident.Name
}

// UnifyErrorKind distinguishes the UnifyError variants.
type UnifyErrorKind uint8

const (
	ErrTypeMismatch UnifyErrorKind = iota
	ErrRigidMismatch
	ErrInfiniteType
	ErrArgCountMismatch
	ErrEscapingVariable
)

func (e *UnifyError) Error() string {
	switch e.Kind {
	case ErrTypeMismatch:
		return "type mismatch"
	case ErrRigidMismatch:
		return "rigid type variable mismatch"
	case ErrInfiniteType:
		return "infinite type"
	case ErrArgCountMismatch:
		return "argument count mismatch"
	case ErrEscapingVariable:
		return "type variable escapes its scope"
	default:
		return "type error"
	}
}
