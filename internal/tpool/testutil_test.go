package tpool

import "github.com/ori-lang/oric/internal/ident"

func newTestInterner() *ident.Interner { return ident.New() }
