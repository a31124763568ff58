// Package diag implements the diagnostic taxonomy, rendering, and ordering
// contract described in spec.md §7. It generalizes the teacher's
// internal/errors package (Report/ReportError, sorted-key JSON, the
// "oric.diagnostic/v1" schema) to the full taxonomy every pipeline stage
// needs, with the deterministic queue ordering spec.md §7 mandates.
package diag

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ori-lang/oric/internal/srcmap"
	"github.com/ori-lang/oric/internal/token"
)

// Severity is the urgency of a diagnostic.
type Severity uint8

const (
	SeverityNote Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityNote:
		return "note"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Applicability is how safe a suggestion is to apply automatically.
type Applicability uint8

const (
	MachineApplicable Applicability = iota
	MaybeIncorrect
	HasPlaceholders
	Unspecified
)

// Suggestion is a machine-checkable fix, ranked by Priority (lower is more
// relevant, spec.md §7).
type Suggestion struct {
	Priority      int
	Applicability Applicability
	Message       string
	Span          token.Span
	Replacement   string
}

// Label attaches explanatory text to a span within a diagnostic.
type Label struct {
	Span token.Span
	Text string
}

// Diagnostic is the user-visible rendering of a problem (spec.md §7).
type Diagnostic struct {
	Schema      string       `json:"schema"`
	Severity    Severity     `json:"severity"`
	Code        string       `json:"code"`
	Phase       string       `json:"phase"`
	FilePath    string       `json:"file_path"`
	Message     string       `json:"message"`
	Labels      []Label      `json:"labels,omitempty"`
	Notes       []string     `json:"notes,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`

	primarySpan token.Span
	line, col   int
}

// SchemaVersion is the stable schema tag every Diagnostic carries.
const SchemaVersion = "oric.diagnostic/v1"

// New starts building a Diagnostic for the given phase and code; the
// primary span determines sort order and is kept apart from Labels: it is
// not added as a label.
func New(phase, code string, severity Severity, primarySpan token.Span, message string) *Diagnostic {
	return &Diagnostic{
		Schema:      SchemaVersion,
		Severity:    severity,
		Code:        code,
		Phase:       phase,
		Message:     message,
		primarySpan: primarySpan,
	}
}

// WithLabel appends a label and returns the diagnostic for chaining.
func (d *Diagnostic) WithLabel(span token.Span, text string) *Diagnostic {
	d.Labels = append(d.Labels, Label{Span: span, Text: text})
	return d
}

// WithNote appends a free-form note.
func (d *Diagnostic) WithNote(note string) *Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithSuggestion appends a ranked suggestion.
func (d *Diagnostic) WithSuggestion(s Suggestion) *Diagnostic {
	d.Suggestions = append(d.Suggestions, s)
	sort.SliceStable(d.Suggestions, func(i, j int) bool {
		return d.Suggestions[i].Priority < d.Suggestions[j].Priority
	})
	return d
}

// ResolvePositions fills in the (file, line, column) sort key for d using
// the given table; it must be called before the diagnostic enters a Queue
// if stable (file, line, col, severity) ordering is required.
func (d *Diagnostic) ResolvePositions(file string, tbl *srcmap.Table) {
	d.FilePath = file
	pos := tbl.Offset(d.primarySpan.Start)
	d.line, d.col = pos.Line, pos.Column
}

// PrimarySpan returns the span this diagnostic anchors on.
func (d *Diagnostic) PrimarySpan() token.Span { return d.primarySpan }

// ToJSON renders d as JSON with deterministic (sorted) key order, matching
// the teacher's Report.ToJSON contract.
func (d *Diagnostic) ToJSON(compact bool) (string, error) {
	var b []byte
	var err error
	if compact {
		b, err = json.Marshal(d)
	} else {
		b, err = json.MarshalIndent(d, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Queue is the shared, deterministically ordered problem stream every
// pipeline stage appends to (spec.md §5, §7).
type Queue struct {
	items []*Diagnostic
}

// NewQueue returns an empty diagnostic queue.
func NewQueue() *Queue { return &Queue{} }

// Push appends d to the queue in generation order. Stages must call
// ResolvePositions on d before Push, or before Sort, so the final ordering
// is deterministic.
func (q *Queue) Push(d *Diagnostic) { q.items = append(q.items, d) }

// HasErrors reports whether any pushed diagnostic has Error or Fatal
// severity — the compilation-failed predicate of spec.md §7.
func (q *Queue) HasErrors() bool {
	for _, d := range q.items {
		if d.Severity >= SeverityError {
			return true
		}
	}
	return false
}

// Sort orders the queue by (file_path, start_line, start_col, severity)
// and deduplicates identical (code, primary_span) pairs, per spec.md §7.
// Among duplicates, the first occurrence (generation order) is kept,
// preserving the "appended in generation order" guarantee for ties.
func (q *Queue) Sort() {
	sort.SliceStable(q.items, func(i, j int) bool {
		a, b := q.items[i], q.items[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.line != b.line {
			return a.line < b.line
		}
		if a.col != b.col {
			return a.col < b.col
		}
		return a.Severity > b.Severity
	})
	seen := make(map[string]bool, len(q.items))
	out := q.items[:0]
	for _, d := range q.items {
		key := fmt.Sprintf("%s@%d-%d", d.Code, d.primarySpan.Start, d.primarySpan.End)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	q.items = out
}

// Items returns the queue's diagnostics in their current order.
func (q *Queue) Items() []*Diagnostic { return q.items }

// Len reports the number of diagnostics currently queued.
func (q *Queue) Len() int { return len(q.items) }
