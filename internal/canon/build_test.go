package canon

import (
	"testing"

	"github.com/ori-lang/oric/internal/diag"
	"github.com/ori-lang/oric/internal/ident"
	"github.com/ori-lang/oric/internal/ptree"
)

func newBuilder() (*Builder, *ident.Interner) {
	names := ident.New()
	return NewBuilder(names, diag.NewQueue()), names
}

func TestLowerIntLiteralInternsConstant(t *testing.T) {
	b, _ := newBuilder()
	id1 := b.LowerExpr(&ptree.IntLit{Value: 42})
	id2 := b.LowerExpr(&ptree.IntLit{Value: 42})
	n1, n2 := b.Arena.Get(id1), b.Arena.Get(id2)
	if n1.ConstRef != n2.ConstRef {
		t.Fatalf("equal literals should share a ConstId: %v != %v", n1.ConstRef, n2.ConstRef)
	}
	if b.Arena.ConstLen() != 1 {
		t.Fatalf("expected 1 interned constant, got %d", b.Arena.ConstLen())
	}
}

func TestLowerIfLetDesugarsToMatch(t *testing.T) {
	b, names := newBuilder()
	some := names.Intern("Some")
	x := names.Intern("x")
	ifLet := &ptree.IfLet{
		Pattern: ptree.VariantPattern{VariantName: some, Sub: []ptree.Pattern{ptree.NamePattern{Name: x}}},
		Init:    &ptree.Ident{Name: names.Intern("opt")},
		Then:    &ptree.Ident{Name: x},
		Else:    &ptree.IntLit{Value: 0},
	}
	id := b.LowerExpr(ifLet)
	node := b.Arena.Get(id)
	if node.Kind != KMatch {
		t.Fatalf("if-let should desugar to KMatch, got %v", node.Kind)
	}
	if len(node.MatchArms) != 2 {
		t.Fatalf("expected 2 arms, got %d", len(node.MatchArms))
	}
}

func TestLowerForInProducesForNode(t *testing.T) {
	b, names := newBuilder()
	forIn := &ptree.ForIn{
		Pattern: ptree.NamePattern{Name: names.Intern("x")},
		Iter:    &ptree.Ident{Name: names.Intern("xs")},
		Body:    &ptree.Block{},
	}
	id := b.LowerExpr(forIn)
	node := b.Arena.Get(id)
	if node.Kind != KFor {
		t.Fatalf("for-in should lower to KFor, got %v", node.Kind)
	}
}

func TestLowerCoalesceDesugarsToMatch(t *testing.T) {
	b, names := newBuilder()
	c := &ptree.CoalesceExpr{
		Left:  &ptree.Ident{Name: names.Intern("maybe")},
		Right: &ptree.IntLit{Value: 0},
	}
	id := b.LowerExpr(c)
	node := b.Arena.Get(id)
	if node.Kind != KMatch || len(node.MatchArms) != 2 {
		t.Fatalf("coalesce should desugar to a 2-arm match, got %v", node)
	}
}

func TestLowerModuleRecordsFunctionRoots(t *testing.T) {
	b, names := newBuilder()
	fnName := names.Intern("main")
	m := &ptree.Module{
		Items: []ptree.Item{
			&ptree.FuncDecl{Name: fnName, Body: &ptree.IntLit{Value: 42}},
		},
	}
	b.LowerModule(m)
	root, ok := b.Arena.FnRoots[fnName]
	if !ok {
		t.Fatalf("expected main's root to be recorded")
	}
	if b.Arena.Get(root).Kind != KInt {
		t.Fatalf("expected root to be KInt")
	}
}
