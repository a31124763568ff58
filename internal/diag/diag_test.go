package diag

import (
	"testing"

	"github.com/ori-lang/oric/internal/srcmap"
	"github.com/ori-lang/oric/internal/token"
)

func TestQueueSortAndDedup(t *testing.T) {
	tbl := srcmap.Build([]byte("line one\nline two\nline three\n"))
	q := NewQueue()

	d1 := New("typecheck", TypeMismatch, SeverityError, token.Span{Start: 20, End: 24}, "mismatch on line 3")
	d1.ResolvePositions("a.ori", tbl)
	d2 := New("typecheck", TypeMismatch, SeverityError, token.Span{Start: 0, End: 4}, "mismatch on line 1")
	d2.ResolvePositions("a.ori", tbl)
	d3 := New("typecheck", TypeMismatch, SeverityError, token.Span{Start: 20, End: 24}, "duplicate of d1")
	d3.ResolvePositions("a.ori", tbl)

	q.Push(d1)
	q.Push(d2)
	q.Push(d3)
	q.Sort()

	items := q.Items()
	if len(items) != 2 {
		t.Fatalf("expected dedup to 2 items, got %d", len(items))
	}
	if items[0].Message != "mismatch on line 1" {
		t.Fatalf("expected line-1 diagnostic first, got %q", items[0].Message)
	}
}

func TestHasErrors(t *testing.T) {
	q := NewQueue()
	q.Push(New("p", "E0", SeverityWarning, token.Span{}, "warn"))
	if q.HasErrors() {
		t.Fatalf("warning alone should not fail compilation")
	}
	q.Push(New("p", "E1", SeverityError, token.Span{}, "err"))
	if !q.HasErrors() {
		t.Fatalf("error should fail compilation")
	}
}

func TestEditDistanceAndClosestNames(t *testing.T) {
	if EditDistance("kitten", "sitting") != 3 {
		t.Fatalf("expected edit distance 3")
	}
	close := ClosestNames("lenght", []string{"length", "width", "height"})
	if len(close) == 0 || close[0] != "length" {
		t.Fatalf("expected 'length' to be the closest match, got %v", close)
	}
}
