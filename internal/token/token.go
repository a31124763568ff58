// Package token defines the contract types the external lexer hands to the
// parser (spec.md §6, "Tokens from the lexer"). The lexer's byte-level
// scanning itself is out of scope for the core (spec.md §1); this package
// only fixes the shape of its output so canonicalization's upstream
// contract is concrete.
package token

import "github.com/ori-lang/oric/internal/ident"

// Span is a pair of byte offsets into the source file.
type Span struct {
	Start, End int
}

// Kind is the closed set of token kinds the lexer may produce.
type Kind uint8

const (
	KindEOF Kind = iota

	// Literals
	KindInt      // u64 value, base-10 parsed form
	KindFloat    // bit pattern of the parsed float64
	KindString   // Name of the interned (escape-processed) string body
	KindChar     // parsed rune value
	KindBool     // true/false
	KindDuration // (u64 value, unit name)
	KindSize     // (u64 value, unit name)

	KindIdent

	// Keywords
	KindIf
	KindElse
	KindLet
	KindDef
	KindTrait
	KindImpl
	KindPub
	KindMut
	KindTrue
	KindFalse
	KindVoid
	KindSelfKw
	KindMatch
	KindFor
	KindIn
	KindLoop
	KindBreak
	KindContinue
	KindReturn
	KindWith

	// Punctuation (representative subset; the lexer's full grammar is an
	// external collaborator, spec.md §1)
	KindLParen
	KindRParen
	KindLBrace
	KindRBrace
	KindLBracket
	KindRBracket
	KindComma
	KindColon
	KindDoubleColon
	KindArrow
	KindFatArrow
	KindDot
	KindQuestion
	KindEquals
	KindPlus
	KindMinus
	KindStar
	KindSlash
	KindPercent
	KindAmpAmp
	KindPipePipe
	KindBang
	KindEqEq
	KindNotEq
	KindLt
	KindLtEq
	KindGt
	KindGtEq
)

// Token is a single lexed unit: a kind, its span, and (for literals and
// identifiers) an interned or decoded payload.
type Token struct {
	Kind  Kind
	Span  Span
	IVal  uint64     // KindInt, KindDuration/KindSize magnitude, KindFloat bit pattern
	SVal  ident.Name // KindString body, KindIdent name, KindDuration/KindSize unit
	RVal  rune       // KindChar
	BVal  bool       // KindBool
}

// LexErrorKind is the taxonomy of problems the external lexer may report
// (spec.md §6). They surface as diagnostics but never block
// canonicalization of the rest of the file.
type LexErrorKind uint8

const (
	LexUnterminatedString LexErrorKind = iota
	LexUnterminatedChar
	LexUnterminatedTemplate
	LexInvalidEscape
	LexNumericOverflow
	LexInvalidDigitForRadix
	LexEmptyExponent
	LexLeadingZero
	LexConsecutiveUnderscores
	LexBOMDetected
	LexConfusableSemicolon
	LexConfusableTripleEquals
	LexConfusableSingleQuoteString
	LexConfusableIncDec
	LexConfusableTernary
	LexReservedFutureKeyword
)

// LexError is one problem the lexer reports alongside its token stream.
type LexError struct {
	What LexErrorKind
	Span Span
}
