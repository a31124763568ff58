package srcmap

import "testing"

func TestOffsetMatchesLinearScan(t *testing.T) {
	src := []byte("let x = 1\nlet y = 2\n\nfn main() {\n  x + y\n}\n")
	tbl := Build(src)
	for o := 0; o <= len(src); o++ {
		got := tbl.Offset(o)
		want := ScanOffset(src, o)
		if got != want {
			t.Fatalf("offset %d: table=%v scan=%v", o, got, want)
		}
	}
}

func TestLineStartRoundTrip(t *testing.T) {
	src := []byte("a\nbb\nccc\n")
	tbl := Build(src)
	if tbl.LineStart(1) != 0 {
		t.Fatalf("line 1 should start at 0")
	}
	if tbl.LineStart(2) != 2 {
		t.Fatalf("line 2 should start at 2, got %d", tbl.LineStart(2))
	}
	if tbl.LineStart(3) != 5 {
		t.Fatalf("line 3 should start at 5, got %d", tbl.LineStart(3))
	}
}
