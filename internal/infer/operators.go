package infer

import (
	"context"

	"github.com/luaowl/luacore/internal/lexer"
	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/vfs"
)

// inferBinaryExpr types a binary operator by operand types and the active
// Lua version, which gates `//` (5.3+) and the bitwise operators (5.3+):
// on an older version they stay Unknown rather than guessing a Number
// result for syntax the dialect doesn't actually support (spec §4.7,
// "operator tables parameterized by Lua version").
func (e *Engine) inferBinaryExpr(ctx context.Context, file vfs.FileId, tree *syntax.Tree, n syntax.Node, depth int) ltypes.Type {
	left, op, right, ok := syntax.BinaryExprParts(n)
	if !ok {
		return ltypes.Unknown()
	}

	switch op.Kind {
	case lexer.TokenKwAnd:
		return ltypes.Union(e.infer(ctx, file, tree, left, depth+1), e.infer(ctx, file, tree, right, depth+1))
	case lexer.TokenKwOr:
		lt := e.infer(ctx, file, tree, left, depth+1)
		return ltypes.Union(ltypes.Remove(lt, ltypes.Nil()), e.infer(ctx, file, tree, right, depth+1))
	case lexer.TokenEq, lexer.TokenNe, lexer.TokenLt, lexer.TokenGt, lexer.TokenLe, lexer.TokenGe:
		return ltypes.Boolean()
	case lexer.TokenConcat:
		return ltypes.String()
	case lexer.TokenPlus, lexer.TokenMinus, lexer.TokenStar, lexer.TokenPercent, lexer.TokenCaret:
		lt := e.infer(ctx, file, tree, left, depth+1)
		rt := e.infer(ctx, file, tree, right, depth+1)
		if op.Kind == lexer.TokenCaret {
			return ltypes.Number()
		}
		if isIntegerish(lt) && isIntegerish(rt) {
			return ltypes.Integer()
		}
		return ltypes.Number()
	case lexer.TokenSlash:
		return ltypes.Number()
	case lexer.TokenDSlash:
		if !e.supportsFloorDiv() {
			return ltypes.Unknown()
		}
		lt := e.infer(ctx, file, tree, left, depth+1)
		rt := e.infer(ctx, file, tree, right, depth+1)
		if isIntegerish(lt) && isIntegerish(rt) {
			return ltypes.Integer()
		}
		return ltypes.Number()
	case lexer.TokenAmp, lexer.TokenPipe, lexer.TokenTilde, lexer.TokenLShift, lexer.TokenRShift:
		if !e.supportsBitwise() {
			return ltypes.Unknown()
		}
		return ltypes.Integer()
	default:
		return ltypes.Unknown()
	}
}

func (e *Engine) inferUnaryExpr(ctx context.Context, file vfs.FileId, tree *syntax.Tree, n syntax.Node, depth int) ltypes.Type {
	op, operand, ok := syntax.UnaryExprParts(n)
	if !ok {
		return ltypes.Unknown()
	}
	switch op.Kind {
	case lexer.TokenKwNot:
		return ltypes.Boolean()
	case lexer.TokenHash:
		return ltypes.Integer()
	case lexer.TokenMinus:
		t := e.infer(ctx, file, tree, operand, depth+1)
		if isIntegerish(t) {
			return ltypes.Integer()
		}
		return ltypes.Number()
	case lexer.TokenTilde:
		if !e.supportsBitwise() {
			return ltypes.Unknown()
		}
		return ltypes.Integer()
	default:
		return ltypes.Unknown()
	}
}

func isIntegerish(t ltypes.Type) bool {
	switch t.Kind {
	case ltypes.KindInteger, ltypes.KindIntegerConst:
		return true
	default:
		return false
	}
}

func (e *Engine) supportsFloorDiv() bool {
	return e.version >= VersionLua53 || e.version == VersionJIT || e.version == VersionLatest
}

func (e *Engine) supportsBitwise() bool {
	return e.version >= VersionLua53 || e.version == VersionLatest
}
