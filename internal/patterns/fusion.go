package patterns

import (
	"github.com/ori-lang/oric/internal/canon"
	"github.com/ori-lang/oric/internal/ident"
)

// FusionCandidate names the pair of chained patterns a rewrite recognizes
// and the fused Kind it produces (spec.md §4.5, "Fusion").
type FusionCandidate struct {
	Outer, Inner Kind
	Fused        Kind
}

var fusionTable = []FusionCandidate{
	{Outer: KindFilter, Inner: KindMap, Fused: KindMapFilter},
	{Outer: KindMap, Inner: KindFilter, Fused: KindFilterMap},
	{Outer: KindFold, Inner: KindMap, Fused: KindMapFold},
	{Outer: KindFold, Inner: KindFilter, Fused: KindFilterFold},
	{Outer: KindFind, Inner: KindMap, Fused: KindMapFind},
	{Outer: KindFind, Inner: KindFilter, Fused: KindFilterFind},
}

// Fused describes one detected fusion opportunity: the outer invocation's
// node id, the inner invocation it consumes via `.over`, and the Kind the
// pair should rewrite to.
type Fused struct {
	OuterID canon.Id
	InnerID canon.Id
	Kind    Kind
}

// Detect walks the subtree rooted at id looking for `.over` chains
// matching fusionTable and returns every fusable pair found. It only
// reports: it does not mutate the arena, and no stage in this module
// rewrites a reported pair, so both the canonical tree and the ARC IR keep
// the unfused chain.
//
// Deeper chains (three or more patterns) are reported as adjacent pairs,
// each independently; no three-pattern kind such as KindMapFilterFold is
// produced, since fusionTable has no entry for one.
func Detect(names *ident.Interner, arena *canon.Arena, id canon.Id) []Fused {
	var out []Fused
	visited := make(map[canon.Id]bool)
	var walk func(canon.Id)
	walk = func(id canon.Id) {
		if id == canon.NONE || visited[id] {
			return
		}
		visited[id] = true
		n := arena.Get(id)
		if n.Kind == canon.KFunctionExp {
			if outerKind, ok := KindFromName(names, n.Name); ok {
				if overID, ok := overProp(names, n); ok {
					inner := arena.Get(overID)
					if inner.Kind == canon.KFunctionExp {
						if innerKind, ok := KindFromName(names, inner.Name); ok {
							if fused, ok := lookupFusion(outerKind, innerKind); ok {
								out = append(out, Fused{OuterID: id, InnerID: overID, Kind: fused})
							}
						}
					}
				}
			}
			for _, prop := range n.FuncExpProps {
				walk(prop.Value)
			}
			return
		}
		walk(n.A)
		walk(n.B)
		walk(n.C)
		if n.Kind == canon.KBlock {
			for _, s := range arena.Stmts(n.Children) {
				walk(s.Expr)
				walk(s.Target)
				walk(s.Let.Init)
			}
		} else {
			for _, c := range arena.Children(n.Children) {
				walk(c)
			}
		}
	}
	walk(id)
	return out
}

func overProp(names *ident.Interner, n *canon.Node) (canon.Id, bool) {
	for _, p := range n.FuncExpProps {
		if names.Lookup(p.Name) == "over" {
			return p.Value, true
		}
	}
	return canon.NONE, false
}

func lookupFusion(outer, inner Kind) (Kind, bool) {
	for _, c := range fusionTable {
		if c.Outer == outer && c.Inner == inner {
			return c.Fused, true
		}
	}
	return 0, false
}
