package infer

import (
	"context"

	"github.com/luaowl/luacore/internal/lexer"
	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/semindex"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/vfs"
)

// applyNarrowing reads the chain of TypeAsserts in effect at use (produced
// by enclosing `if` truthy tests and `@cast` comments) and applies each to
// base in source order, per spec §4.7.
func (e *Engine) applyNarrowing(ctx context.Context, file vfs.FileId, tree *syntax.Tree, decl *semindex.Decl, use syntax.Node, base ltypes.Type, depth int) ltypes.Type {
	asserts := collectAsserts(tree, decl, use)
	t := base
	for _, a := range asserts {
		t = a.apply(t)
	}
	return t
}

// typeAssert is one narrowing step: either a full replacement (a @cast with
// no leading sign) or an add/remove against the running type.
type typeAssert struct {
	target ltypes.Type
	mode   assertMode
}

type assertMode uint8

const (
	assertReplace assertMode = iota
	assertAdd
	assertRemove
)

func (a typeAssert) apply(t ltypes.Type) ltypes.Type {
	switch a.mode {
	case assertAdd:
		return ltypes.Union(t, a.target)
	case assertRemove:
		return ltypes.Remove(t, a.target)
	default:
		return a.target
	}
}

// collectAsserts walks from the declaration's enclosing statement down to
// use, gathering: (1) @cast comments on any statement of the file that starts
// between the decl and the use, whatever block it is in, and (2) truthy/nil-check
// narrowing from an `if <name> then`/`if <name> == nil then ... else`
// ancestor that contains use. This is a best-effort, statement-order
// approximation of full flow narrowing, not a CFG: it is sufficient for the
// common "declare, cast, use" and "if x then use(x) end" shapes the doc
// comments and conditionals actually produce.
func collectAsserts(tree *syntax.Tree, decl *semindex.Decl, use syntax.Node) []typeAssert {
	name := decl.Name
	var asserts []typeAssert

	// @cast comments: scan every statement in the file whose span starts
	// after the declaration and before use, in source order, looking for a
	// preceding doc comment with a @cast tag naming this declaration.
	declEnd := decl.NameSpan.End
	useStart := use.FirstToken().Span.Start
	syntax.Root(tree).Descendants(func(stmt syntax.Node) bool {
		if !isStatementKind(stmt.Kind()) {
			return true
		}
		span := stmt.FirstToken().Span
		if span.Start < declEnd || span.Start > useStart {
			return true
		}
		doc := syntax.PrecedingDocComment(stmt)
		if doc == nil {
			return true
		}
		for _, castTag := range syntax.Root(doc).ChildrenOfKind(syntax.KindDocCastTag) {
			if castTargetName(castTag) != name {
				continue
			}
			asserts = append(asserts, castOperands(castTag)...)
		}
		return true
	})

	// `if name then ... end` / `if name == nil then ... else ... end`
	// truthiness narrowing for whichever branch contains use.
	for anc := range use.Ancestors {
		if anc.Kind() != syntax.KindIfStat {
			continue
		}
		if a, ok := truthyNarrow(anc, use, name); ok {
			asserts = append(asserts, a)
		}
	}

	return asserts
}

func isStatementKind(k syntax.NodeKind) bool {
	switch k {
	case syntax.KindLocalStat, syntax.KindAssignStat, syntax.KindCallStat,
		syntax.KindIfStat, syntax.KindWhileStat, syntax.KindRepeatStat,
		syntax.KindNumericForStat, syntax.KindGenericForStat,
		syntax.KindFunctionStat, syntax.KindLocalFunctionStat,
		syntax.KindReturnStat, syntax.KindDoStat:
		return true
	default:
		return false
	}
}

func castTargetName(castTag syntax.Node) string {
	nd := castTag.Tree.NodeByID(castTag.ID)
	if nd == nil {
		return ""
	}
	for _, c := range nd.Children {
		if c.IsToken {
			if tok := castTag.Tree.TokenAt(c.Index); tok.Kind == lexer.TokenDocName {
				return string(tok.Bytes(castTag.Tree.Source))
			}
		}
	}
	return ""
}

// castOperands reads the raw (token, node) child sequence of a @cast tag,
// producing one assert per type operand: a leading `+`/`-` token makes the
// operand additive/subtractive, otherwise it fully replaces the type.
func castOperands(castTag syntax.Node) []typeAssert {
	nd := castTag.Tree.NodeByID(castTag.ID)
	if nd == nil {
		return nil
	}
	var out []typeAssert
	mode := assertReplace
	for _, c := range nd.Children {
		if c.IsToken {
			switch castTag.Tree.TokenAt(c.Index).Kind {
			case lexer.TokenPlus:
				mode = assertAdd
			case lexer.TokenMinus:
				mode = assertRemove
			}
			continue
		}
		typeNode := syntax.Node{Tree: castTag.Tree, ID: syntax.NodeID(c.Index)}
		out = append(out, typeAssert{target: semindex.ConvertTypeExpr(typeNode), mode: mode})
		mode = assertReplace
	}
	return out
}

// truthyNarrow reports the narrowing assertion, if any, that the branch of
// ifStat containing use implies for name, when ifStat's condition is a bare
// `name` truthiness test or a `name == nil`/`name ~= nil` comparison.
func truthyNarrow(ifStat, use syntax.Node, name string) (typeAssert, bool) {
	children := ifStat.Children()
	if len(children) < 2 {
		return typeAssert{}, false
	}
	cond := children[0]
	thenBlock := children[1]

	nonNilName, isEqNil, isNeNil, ok := conditionShape(cond, name)
	if !ok {
		return typeAssert{}, false
	}

	inThen := nodeContains(thenBlock, use)
	switch {
	case nonNilName && inThen:
		return typeAssert{target: ltypes.Nil(), mode: assertRemove}, true
	case isNeNil && inThen:
		return typeAssert{target: ltypes.Nil(), mode: assertRemove}, true
	case isEqNil && !inThen:
		return typeAssert{target: ltypes.Nil(), mode: assertRemove}, true
	}
	return typeAssert{}, false
}

func conditionShape(cond syntax.Node, name string) (nonNilName, isEqNil, isNeNil, ok bool) {
	if cond.Kind() == syntax.KindNameExpr {
		if tok, found := cond.NameToken(); found && string(tok.Bytes(cond.Tree.Source)) == name {
			return true, false, false, true
		}
		return false, false, false, false
	}
	if cond.Kind() != syntax.KindBinaryExpr {
		return false, false, false, false
	}
	left, op, right, bOk := syntax.BinaryExprParts(cond)
	if !bOk {
		return false, false, false, false
	}
	var nameSide, otherSide syntax.Node
	switch {
	case left.Kind() == syntax.KindNameExpr:
		nameSide, otherSide = left, right
	case right.Kind() == syntax.KindNameExpr:
		nameSide, otherSide = right, left
	default:
		return false, false, false, false
	}
	tok, found := nameSide.NameToken()
	if !found || string(tok.Bytes(cond.Tree.Source)) != name {
		return false, false, false, false
	}
	if otherSide.Kind() != syntax.KindNilExpr {
		return false, false, false, false
	}
	switch op.Kind {
	case lexer.TokenEq:
		return false, true, false, true
	case lexer.TokenNe:
		return false, false, true, true
	default:
		return false, false, false, false
	}
}

func nodeContains(container, n syntax.Node) bool {
	found := false
	container.Descendants(func(d syntax.Node) bool {
		if d.ID == n.ID {
			found = true
			return false
		}
		return true
	})
	return found
}
