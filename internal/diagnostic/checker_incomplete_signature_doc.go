package diagnostic

import (
	"context"

	"github.com/luaowl/luacore/internal/syntax"
)

// IncompleteSignatureDocChecker flags a function whose doc comment has at
// least one @param tag but a different number of @param tags than the
// function has named parameters, grounded on the original's
// incomplete_signature_doc.rs. @return tags are not checked.
type IncompleteSignatureDocChecker struct{}

func (IncompleteSignatureDocChecker) ID() string    { return "incomplete_signature_doc" }
func (IncompleteSignatureDocChecker) Codes() []Code { return []Code{CodeIncompleteSignatureDoc} }

func (IncompleteSignatureDocChecker) Check(ctx context.Context, m *Model) ([]Diagnostic, error) {
	var out []Diagnostic

	syntax.Root(m.Tree).Descendants(func(n syntax.Node) bool {
		if err := ctx.Err(); err != nil {
			return false
		}
		switch n.Kind() {
		case syntax.KindFunctionStat, syntax.KindLocalFunctionStat:
			checkFunctionDoc(n, &out)
		}
		return true
	})

	return out, ctx.Err()
}

func checkFunctionDoc(n syntax.Node, out *[]Diagnostic) {
	body, ok := n.ChildOfKind(syntax.KindFuncBody)
	if !ok {
		return
	}
	doc := syntax.PrecedingDocComment(n)
	if doc == nil {
		return
	}
	paramTags := syntax.Root(doc).ChildrenOfKind(syntax.KindDocParamTag)
	if len(paramTags) == 0 {
		return // undocumented entirely isn't "incomplete"
	}

	params, _ := syntax.FuncBodyParams(body)
	actual := len(syntax.ParamListNames(params))
	if len(paramTags) == actual {
		return
	}

	*out = append(*out, Diagnostic{
		Code:    CodeIncompleteSignatureDoc,
		Span:    n.FirstToken().Span,
		Message: "function documents some but not all parameters",
	})
}
