package diag

import (
	"fmt"
	"sort"

	"github.com/ori-lang/oric/internal/token"
)

// SuggestUnwrap attaches the three ranked suggestions the NeedsUnwrap
// diagnostic carries (spec.md §7): try-operator first (always marked
// machine applicable; the enclosing function's return type is not
// checked), then a full match, then a panicking unwrap.
func (d *Diagnostic) SuggestUnwrap(span token.Span) *Diagnostic {
	return d.
		WithSuggestion(Suggestion{Priority: 0, Applicability: MachineApplicable, Message: "propagate with `?`", Span: span, Replacement: "?"}).
		WithSuggestion(Suggestion{Priority: 1, Applicability: HasPlaceholders, Message: "handle both cases with `match`", Span: span}).
		WithSuggestion(Suggestion{Priority: 2, Applicability: MaybeIncorrect, Message: "unwrap and panic on failure", Span: span, Replacement: ".unwrap()"})
}

// SuggestIntFloat attaches the `.to_float()`/`.to_int()` conversion
// suggestions for a numeric-kind mismatch.
func (d *Diagnostic) SuggestIntFloat(span token.Span, wantFloat bool) *Diagnostic {
	if wantFloat {
		return d.WithSuggestion(Suggestion{Priority: 0, Applicability: MachineApplicable, Message: "convert to float with `.to_float()`", Span: span, Replacement: ".to_float()"})
	}
	return d.WithSuggestion(Suggestion{Priority: 0, Applicability: MachineApplicable, Message: "convert to int with `.to_int()`", Span: span, Replacement: ".to_int()"})
}

// SuggestMissingField enumerates up to 5 available fields when a struct
// literal is missing a required field (spec.md §7 caps enumeration at 5).
func (d *Diagnostic) SuggestMissingField(available []string) *Diagnostic {
	shown := available
	if len(shown) > 5 {
		shown = shown[:5]
	}
	msg := fmt.Sprintf("available fields: %v", shown)
	return d.WithNote(msg)
}

// SuggestFieldTypo adds a "did you mean `x`" suggestion for the closest
// candidate field/identifier name, if any is within edit distance 2.
func (d *Diagnostic) SuggestFieldTypo(span token.Span, typed string, candidates []string) *Diagnostic {
	close := ClosestNames(typed, candidates)
	if len(close) == 0 {
		return d
	}
	return d.WithSuggestion(Suggestion{
		Priority:      0,
		Applicability: MaybeIncorrect,
		Message:       fmt.Sprintf("did you mean `%s`?", close[0]),
		Span:          span,
		Replacement:   close[0],
	})
}

// SuggestNonExhaustive enumerates the missing patterns of a non-exhaustive
// match and suggests a catch-all arm (spec.md §7, §8 Scenario C).
func (d *Diagnostic) SuggestNonExhaustive(span token.Span, missing []string) *Diagnostic {
	sorted := append([]string(nil), missing...)
	sort.Strings(sorted)
	d.WithNote(fmt.Sprintf("missing patterns: %s", joinComma(sorted)))
	return d.WithSuggestion(Suggestion{
		Priority:      0,
		Applicability: HasPlaceholders,
		Message:       "add a catch-all arm",
		Span:          span,
		Replacement:   "_ => …",
	})
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}
