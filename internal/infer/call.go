package infer

import (
	"context"

	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/semindex"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/vfs"
)

// inferCallExpr types a call's first return value: require() calls resolve
// through the RequireResolver to the required module's own return-statement
// expression, a colon call looks its method up through MembersOf, and
// everything else falls back to the plain callee-type's first return (spec
// §4.7 bullets 2 and 4).
func (e *Engine) inferCallExpr(ctx context.Context, file vfs.FileId, tree *syntax.Tree, n syntax.Node, depth int) ltypes.Type {
	if n.Kind() == syntax.KindMethodCallExpr {
		return e.inferMethodCallExpr(ctx, file, tree, n, depth)
	}

	children := n.Children()
	if len(children) == 0 {
		return ltypes.Unknown()
	}
	callee := children[0]

	if callee.Kind() == syntax.KindNameExpr {
		if tok, ok := callee.NameToken(); ok {
			name := string(tok.Bytes(callee.Tree.Source))
			if semindex.RequireNames[name] {
				if t, ok := e.inferRequireCall(ctx, file, n, depth); ok {
					return t
				}
			}
		}
	}

	calleeType := e.infer(ctx, file, tree, callee, depth+1)
	return firstReturn(calleeType)
}

func (e *Engine) inferMethodCallExpr(ctx context.Context, file vfs.FileId, tree *syntax.Tree, n syntax.Node, depth int) ltypes.Type {
	children := n.Children()
	if len(children) == 0 {
		return ltypes.Unknown()
	}
	objType := e.infer(ctx, file, tree, children[0], depth+1)
	tok, ok := syntax.MethodCallName(n)
	if !ok {
		return ltypes.Unknown()
	}
	name := string(tok.Bytes(n.Tree.Source))

	for _, m := range e.db.MembersOf(objType) {
		if !m.KeyIsInt && m.Key == name {
			return firstReturn(m.Type)
		}
	}
	return ltypes.Unknown()
}

// inferRequireCall resolves a `require("path")` literal path through the
// engine's RequireResolver and types the call as the required module's
// top-level `return` expression, tracing at most maxSetmetatableChainDepth
// requires deep to bound require cycles (A requires B requires A).
func (e *Engine) inferRequireCall(ctx context.Context, file vfs.FileId, n syntax.Node, depth int) (ltypes.Type, bool) {
	if e.resolver == nil || depth > maxSetmetatableChainDepth {
		return ltypes.Type{}, false
	}
	args, ok := syntax.CallArgs(n)
	if !ok {
		return ltypes.Type{}, false
	}
	path, ok := requirePathLiteral(args)
	if !ok {
		return ltypes.Type{}, false
	}
	targetFile, targetTree, ok := e.resolver.ResolveRequire(file, path)
	if !ok {
		return ltypes.Type{}, false
	}
	exprNode, ok := moduleReturnExpr(targetTree)
	if !ok {
		return ltypes.Nil(), true
	}
	return e.infer(ctx, targetFile, targetTree, exprNode, depth+1), true
}

func requirePathLiteral(args syntax.Node) (string, bool) {
	strExpr := args
	if args.Kind() == syntax.KindExprList {
		children := args.Children()
		if len(children) != 1 {
			return "", false
		}
		strExpr = children[0]
	}
	if strExpr.Kind() != syntax.KindStringExpr {
		return "", false
	}
	return syntax.DecodeString(string(strExpr.Text()))
}

// moduleReturnExpr finds the expression named by a module's top-level
// `return <expr>` statement (Lua modules conventionally end with exactly
// one), ignoring nested returns inside functions.
func moduleReturnExpr(tree *syntax.Tree) (syntax.Node, bool) {
	for _, stmt := range syntax.Root(tree).Children() {
		if stmt.Kind() != syntax.KindReturnStat {
			continue
		}
		exprList, ok := stmt.ChildOfKind(syntax.KindExprList)
		if !ok {
			return syntax.Node{}, false
		}
		children := exprList.Children()
		if len(children) == 0 {
			return syntax.Node{}, false
		}
		return children[0], true
	}
	return syntax.Node{}, false
}

func firstReturn(t ltypes.Type) ltypes.Type {
	switch t.Kind {
	case ltypes.KindSignature, ltypes.KindDocFunction:
		if len(t.Returns) == 0 {
			return ltypes.Unknown()
		}
		return t.Returns[0]
	default:
		return ltypes.Unknown()
	}
}
