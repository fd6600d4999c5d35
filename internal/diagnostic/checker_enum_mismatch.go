package diagnostic

import (
	"context"

	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/semindex"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/text"
)

// EnumValueMismatchChecker flags a literal assigned to an enum-typed local
// whose value matches none of the enum's members (spec §8 scenario 6).
type EnumValueMismatchChecker struct{}

func (EnumValueMismatchChecker) ID() string    { return "enum_value_mismatch" }
func (EnumValueMismatchChecker) Codes() []Code { return []Code{CodeEnumValueMismatch} }

func (c EnumValueMismatchChecker) Check(ctx context.Context, m *Model) ([]Diagnostic, error) {
	var out []Diagnostic

	syntax.Root(m.Tree).Descendants(func(n syntax.Node) bool {
		if err := ctx.Err(); err != nil {
			return false
		}
		switch n.Kind() {
		case syntax.KindLocalStat:
			c.checkLocalStat(m, n, &out)
		case syntax.KindAssignStat:
			c.checkAssignStat(m, n, &out)
		}
		return true
	})

	return out, ctx.Err()
}

func (c EnumValueMismatchChecker) checkLocalStat(m *Model, n syntax.Node, out *[]Diagnostic) {
	names := syntax.LocalStatNames(n)
	exprList, ok := syntax.LocalStatInitExprs(n)
	if !ok {
		return
	}
	exprs := exprList.Children()

	for i, tok := range names {
		if i >= len(exprs) {
			break
		}
		decl := findDeclByNameSpan(m.Index, tok.Span)
		if decl == nil {
			continue
		}
		c.checkValueAgainstDecl(m, decl, exprs[i], out)
	}
}

func (c EnumValueMismatchChecker) checkAssignStat(m *Model, n syntax.Node, out *[]Diagnostic) {
	targets := syntax.AssignStatTargets(n)
	exprList, ok := syntax.AssignStatValues(n)
	if !ok {
		return
	}
	exprs := exprList.Children()

	for i, target := range targets {
		if i >= len(exprs) || target.Kind() != syntax.KindNameExpr {
			continue
		}
		declID, global, ok := m.DB.ResolveNameRef(m.File, target.ID)
		if !ok || global != "" {
			continue
		}
		decl, ok := m.DB.Decl(declID)
		if !ok {
			continue
		}
		c.checkValueAgainstDecl(m, decl, exprs[i], out)
	}
}

func (EnumValueMismatchChecker) checkValueAgainstDecl(m *Model, decl *semindex.Decl, value syntax.Node, out *[]Diagnostic) {
	base := ltypes.Unwrap(decl.DeclaredType)
	if base.Kind != ltypes.KindRef && base.Kind != ltypes.KindDef && base.Kind != ltypes.KindInstance {
		return
	}
	td, ok := m.DB.TypeDecl(base.Decl)
	if !ok || td.Kind != semindex.TypeDeclEnum || td.Enum == nil {
		return
	}

	isInt, intVal, strVal, ok := literalValue(value)
	if !ok {
		return
	}
	if enumAllows(td.Enum, isInt, intVal, strVal) {
		return
	}

	*out = append(*out, Diagnostic{
		Code:    CodeEnumValueMismatch,
		Span:    value.FirstToken().Span,
		Message: "value does not match any member of enum `" + td.Name + "`",
	})
}

func literalValue(n syntax.Node) (isInt bool, intVal int64, strVal string, ok bool) {
	switch n.Kind() {
	case syntax.KindNumberExpr:
		nv := syntax.DecodeNumber(string(n.Text()))
		if !nv.Valid || nv.IsFloat {
			return false, 0, "", false
		}
		return true, nv.Int, "", true
	case syntax.KindStringExpr:
		s, decoded := syntax.DecodeString(string(n.Text()))
		if !decoded {
			return false, 0, "", false
		}
		return false, 0, s, true
	default:
		return false, 0, "", false
	}
}

func enumAllows(enum *ltypes.EnumOrigin, isInt bool, intVal int64, strVal string) bool {
	for _, mem := range enum.Members {
		if mem.IsInt != isInt {
			continue
		}
		if isInt && mem.IntVal == intVal {
			return true
		}
		if !isInt && mem.StrVal == strVal {
			return true
		}
	}
	return false
}

func findDeclByNameSpan(index *semindex.FileIndex, span text.Span) *semindex.Decl {
	for _, d := range index.Decls {
		if d.NameSpan == span {
			return d
		}
	}
	return nil
}
