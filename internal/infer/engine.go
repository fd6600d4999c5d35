package infer

import (
	"context"

	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/semindex"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/vfs"
)

// maxSetmetatableChainDepth is the inference depth past which
// inferRequireCall stops following require() calls into other modules. It
// is its only use: InferExpr has no special case for
// `setmetatable(t, {__index = T})` calls. This is a documented limit, not a
// correctness guarantee (SPEC_FULL.md Open Question #2).
const maxSetmetatableChainDepth = 50

// maxInferDepth bounds recursive InferExpr calls against pathological
// self-referential expressions (`local t = {} ; t.x = t`).
const maxInferDepth = 128

// Version selects which Lua dialect's operator table applies (spec §4.1,
// "gates integer/bitop tokens").
type Version uint8

// Version values.
const (
	VersionLua51 Version = iota
	VersionLua52
	VersionLua53
	VersionLua54
	VersionLua55
	VersionJIT
	VersionLatest
)

// Engine computes types for expressions in a snapshot, backed by a
// semindex.Database for declaration/member/require lookups and a per-file
// cache for memoization (spec §4.7).
type Engine struct {
	db      *semindex.Database
	caches  *Caches
	version Version
	// requireNames/export resolution needs a way to find a required
	// module's FileId from its literal path; Resolver supplies that since
	// path -> FileId mapping is a workspace concern, not semindex's.
	resolver RequireResolver
}

// RequireResolver maps a require() literal path to the FileId of the module
// it names, and back to that module's parsed Tree, if the module is known.
type RequireResolver interface {
	ResolveRequire(fromFile vfs.FileId, path string) (vfs.FileId, *syntax.Tree, bool)
}

// NewEngine creates an inference engine over db. resolver may be nil; in
// that case require() calls always infer to Unknown.
func NewEngine(db *semindex.Database, version Version, resolver RequireResolver) *Engine {
	return &Engine{db: db, caches: NewCaches(), version: version, resolver: resolver}
}

// InvalidateFile drops the memoized results for file; called whenever the
// query layer re-indexes that file.
func (e *Engine) InvalidateFile(file vfs.FileId) {
	e.caches.Invalidate(file)
}

// InferExpr computes n's type within file/tree, consulting and populating
// the per-file cache.
func (e *Engine) InferExpr(ctx context.Context, file vfs.FileId, tree *syntax.Tree, n syntax.Node) ltypes.Type {
	if n.ID == syntax.NoNode {
		return ltypes.Unknown()
	}
	cache := e.caches.forFile(file)
	if t, ok := cache.get(n.ID); ok {
		return t
	}
	t := e.infer(ctx, file, tree, n, 0)
	cache.put(n.ID, t)
	return t
}

func (e *Engine) infer(ctx context.Context, file vfs.FileId, tree *syntax.Tree, n syntax.Node, depth int) ltypes.Type {
	if depth > maxInferDepth {
		return ltypes.Unknown()
	}
	select {
	case <-ctx.Done():
		return ltypes.Unknown()
	default:
	}

	switch n.Kind() {
	case syntax.KindNilExpr:
		return ltypes.Nil()
	case syntax.KindTrueExpr:
		return ltypes.BooleanConst(true)
	case syntax.KindFalseExpr:
		return ltypes.BooleanConst(false)
	case syntax.KindVarargExpr:
		return ltypes.Variadic(ltypes.Unknown())
	case syntax.KindNumberExpr:
		return numberLiteralType(n)
	case syntax.KindStringExpr:
		if s, ok := syntax.DecodeString(string(n.Text())); ok {
			return ltypes.StringConst(s)
		}
		return ltypes.String()
	case syntax.KindFunctionExpr:
		return e.inferFunctionExpr(n)
	case syntax.KindParenExpr:
		children := n.Children()
		if len(children) == 0 {
			return ltypes.Unknown()
		}
		return e.infer(ctx, file, tree, children[0], depth+1)
	case syntax.KindNameExpr:
		return e.inferName(ctx, file, tree, n, depth)
	case syntax.KindDotIndexExpr, syntax.KindBracketIndexExpr:
		return e.inferIndexExpr(ctx, file, tree, n, depth)
	case syntax.KindBinaryExpr:
		return e.inferBinaryExpr(ctx, file, tree, n, depth)
	case syntax.KindUnaryExpr:
		return e.inferUnaryExpr(ctx, file, tree, n, depth)
	case syntax.KindCallExpr, syntax.KindMethodCallExpr:
		return e.inferCallExpr(ctx, file, tree, n, depth)
	case syntax.KindTableExpr:
		return e.inferTableExpr(ctx, file, tree, n, depth)
	default:
		return ltypes.Unknown()
	}
}

func numberLiteralType(n syntax.Node) ltypes.Type {
	nv := syntax.DecodeNumber(string(n.Text()))
	if !nv.Valid {
		return ltypes.Number()
	}
	if nv.IsFloat {
		return ltypes.Number()
	}
	return ltypes.IntegerConst(nv.Int)
}

func (e *Engine) inferFunctionExpr(n syntax.Node) ltypes.Type {
	body, ok := n.ChildOfKind(syntax.KindFuncBody)
	if !ok {
		return ltypes.Signature(nil)
	}
	params, _ := syntax.FuncBodyParams(body)
	var sigParams []ltypes.SignatureParam
	for _, tok := range syntax.ParamListNames(params) {
		sigParams = append(sigParams, ltypes.SignatureParam{Name: string(tok.Bytes(n.Tree.Source)), Type: ltypes.Unknown()})
	}
	if syntax.ParamListHasVararg(params) {
		sigParams = append(sigParams, ltypes.SignatureParam{Name: "...", Vararg: true, Type: ltypes.Unknown()})
	}
	return ltypes.Signature(sigParams)
}
