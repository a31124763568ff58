package canon

import "fmt"

// InternConst structurally deduplicates c and returns its ConstId,
// allocating a new slot only on first occurrence (spec.md §3, "Constant
// pool": "Deduplication is structural").
func (a *Arena) InternConst(c Const) ConstId {
	key := constKey(c)
	if id, ok := a.constKey[key]; ok {
		return id
	}
	id := ConstId(len(a.consts))
	a.consts = append(a.consts, c)
	a.constKey[key] = id
	return id
}

// Const returns the constant pool entry at id.
func (a *Arena) Const(id ConstId) Const { return a.consts[id] }

// ConstLen reports how many distinct constants have been interned.
func (a *Arena) ConstLen() int { return len(a.consts) }

func constKey(c Const) string {
	return fmt.Sprintf("%d|%d|%d|%v|%d|%d", c.Kind, c.IVal, c.SVal, c.BVal, c.RVal, c.UnitName)
}
