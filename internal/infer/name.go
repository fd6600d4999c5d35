package infer

import (
	"context"

	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/vfs"
)

// inferName resolves a NameExpr to its declaration's type (or Unknown for
// an unresolved global), then applies whatever narrowing chain applies at
// this use site (spec §4.7 "Flow narrowing").
func (e *Engine) inferName(ctx context.Context, file vfs.FileId, tree *syntax.Tree, n syntax.Node, depth int) ltypes.Type {
	declID, global, ok := e.db.ResolveNameRef(file, n.ID)
	if !ok {
		return ltypes.Unknown()
	}
	if global != "" {
		// Undeclared globals carry no static type information; diagnostics
		// (C9) is responsible for flagging the undefined-global case, not
		// inference, which degrades to Unknown per spec §7's propagation
		// policy ("missing decl -> return None -> checker skips the site").
		return ltypes.Unknown()
	}

	decl, ok := e.db.Decl(declID)
	if !ok {
		return ltypes.Unknown()
	}

	base := decl.DeclaredType
	if base.Kind == ltypes.KindNever {
		base = ltypes.Unknown()
	}

	return e.applyNarrowing(ctx, file, tree, decl, n, base, depth)
}
