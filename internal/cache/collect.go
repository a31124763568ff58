package cache

import (
	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/ident"
)

// collected accumulates the raw material CalleesHash and GlobalsHash hash:
// every call target name (in call order, duplicates kept — call order and
// count both matter for a side-effecting callee) and every referenced
// constant-pool id, walked in the same recursive style as
// internal/borrow's collectEscapes.
type collected struct {
	callees []ident.Name
	globals []canon.ConstId
}

// Collect walks body and returns every function it calls (by name, in call
// order) and every module-level constant it references, the inputs
// CalleesHash and GlobalsHash fold into a FunctionHash (spec.md §4.12).
func Collect(a *canon.Arena, body canon.Id) (callees []ident.Name, globals []canon.ConstId) {
	c := &collected{}
	c.walk(a, body)
	return c.callees, c.globals
}

func (c *collected) walk(a *canon.Arena, id canon.Id) {
	if id == canon.NONE {
		return
	}
	n := a.Get(id)

	if n.Kind == canon.KConst {
		c.globals = append(c.globals, n.ConstRef)
	}
	if n.Kind == canon.KCall {
		if callee := a.Get(n.A); callee.Kind == canon.KIdent {
			c.callees = append(c.callees, callee.Ref)
		}
	}
	if n.Kind == canon.KMethodCall {
		c.callees = append(c.callees, n.Name)
	}

	if n.Kind == canon.KBlock {
		for _, st := range a.Stmts(n.Children) {
			c.walk(a, st.Expr)
			c.walk(a, st.Target)
			c.walk(a, st.Let.Init)
		}
	} else {
		for _, ch := range a.Children(n.Children) {
			c.walk(a, ch)
		}
	}
	for _, e := range n.MapEntries {
		c.walk(a, e.Key)
		c.walk(a, e.Value)
	}
	for _, f := range n.StructFields {
		c.walk(a, f.Value)
	}
	for _, arm := range n.MatchArms {
		c.walk(a, arm.Guard)
		c.walk(a, arm.Body)
	}
	for _, fp := range n.FuncExpProps {
		c.walk(a, fp.Value)
	}

	c.walk(a, n.A)
	c.walk(a, n.B)
	c.walk(a, n.C)
}
