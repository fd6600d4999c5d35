package infer

import (
	"context"

	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/vfs"
)

// inferIndexExpr types `base.name` / `base["name"]` by inferring base and
// looking the key up through MembersOf, the same lookup completion and hover
// use (spec §4.6, §4.7 bullet 5).
func (e *Engine) inferIndexExpr(ctx context.Context, file vfs.FileId, tree *syntax.Tree, n syntax.Node, depth int) ltypes.Type {
	prefix, ok := syntax.IndexExprBase(n)
	if !ok {
		return ltypes.Unknown()
	}
	baseType := e.infer(ctx, file, tree, prefix, depth+1)

	key, keyIsInt, intKey, ok := indexKey(n)
	if !ok {
		return ltypes.Unknown()
	}

	for _, m := range e.db.MembersOf(baseType) {
		if m.KeyIsInt != keyIsInt {
			continue
		}
		if keyIsInt {
			if m.IntKey == intKey {
				return m.Type
			}
			continue
		}
		if m.Key == key {
			return m.Type
		}
	}

	return ltypes.Unknown()
}

// indexKey extracts the literal string or integer key an index expression
// addresses, when it's statically known: `.name` always is, `["lit"]` and
// `[1]` are, anything else (a computed bracket key) isn't.
func indexKey(n syntax.Node) (name string, isInt bool, intVal int64, ok bool) {
	if tok, found := syntax.DotIndexName(n); found {
		return string(tok.Bytes(n.Tree.Source)), false, 0, true
	}

	children := n.Children()
	if len(children) < 2 {
		return "", false, 0, false
	}
	return literalFieldKey(children[1])
}
