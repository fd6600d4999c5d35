package diagnostic

import (
	"context"

	"github.com/luaowl/luacore/internal/lexer"
	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/semindex"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/text"
)

// CastTypeMismatchChecker flags a `@cast name Type` whose target type has no
// plausible overlap with the variable's own declared type, per the table↔
// custom-type looseness rule in ltypes.CastCompatible (spec §8 scenario 5).
// Only full-replacement casts (no leading `+`/`-`) are checked: an add/
// remove cast narrows or widens an existing type rather than asserting an
// unrelated one, so there's no mismatch to report.
type CastTypeMismatchChecker struct{}

func (CastTypeMismatchChecker) ID() string    { return "cast_type_mismatch" }
func (CastTypeMismatchChecker) Codes() []Code { return []Code{CodeCastTypeMismatch} }

func (CastTypeMismatchChecker) Check(ctx context.Context, m *Model) ([]Diagnostic, error) {
	var out []Diagnostic

	syntax.Root(m.Tree).Descendants(func(stmt syntax.Node) bool {
		if err := ctx.Err(); err != nil {
			return false
		}
		doc := syntax.PrecedingDocComment(stmt)
		if doc == nil {
			return true
		}
		pos := stmt.FirstToken().Span.Start
		for _, castTag := range syntax.Root(doc).ChildrenOfKind(syntax.KindDocCastTag) {
			name, target, span, ok := replacementCast(castTag)
			if !ok {
				continue
			}
			decl := declBefore(m.Index, name, pos)
			if decl == nil {
				continue
			}
			base := decl.DeclaredType
			if base.Kind == ltypes.KindNever {
				continue // no declared type to check against
			}
			if ltypes.CastCompatible(base, target) {
				continue
			}
			out = append(out, Diagnostic{
				Code:    CodeCastTypeMismatch,
				Span:    span,
				Message: "cast target type is not compatible with `" + name + "`'s declared type",
			})
		}
		return true
	})

	return out, ctx.Err()
}

// replacementCast reads a @cast tag with exactly one type operand and no
// leading sign, returning the target name, the parsed type, and the span of
// the type operand itself.
func replacementCast(castTag syntax.Node) (name string, target ltypes.Type, span text.Span, ok bool) {
	nd := castTag.Tree.NodeByID(castTag.ID)
	if nd == nil {
		return "", ltypes.Type{}, text.Span{}, false
	}

	var typeNodes []syntax.Node
	sawSign := false
	for _, c := range nd.Children {
		if c.IsToken {
			switch castTag.Tree.TokenAt(c.Index).Kind {
			case lexer.TokenDocName:
				if name == "" {
					name = string(castTag.Tree.TokenAt(c.Index).Bytes(castTag.Tree.Source))
				}
			case lexer.TokenPlus, lexer.TokenMinus:
				sawSign = true
			}
			continue
		}
		typeNodes = append(typeNodes, syntax.Node{Tree: castTag.Tree, ID: syntax.NodeID(c.Index)})
	}

	if sawSign || name == "" || len(typeNodes) != 1 {
		return "", ltypes.Type{}, text.Span{}, false
	}
	return name, semindex.ConvertTypeExpr(typeNodes[0]), typeNodes[0].FirstToken().Span, true
}

// declBefore returns the declaration of name with the greatest NameSpan
// start at or before pos, approximating "the binding in scope at this use"
// without a full scope-resolution pass.
func declBefore(index *semindex.FileIndex, name string, pos text.ByteOffset) *semindex.Decl {
	var best *semindex.Decl
	for _, d := range index.Decls {
		if d.Name != name || d.NameSpan.Start > pos {
			continue
		}
		if best == nil || d.NameSpan.Start > best.NameSpan.Start {
			best = d
		}
	}
	return best
}
