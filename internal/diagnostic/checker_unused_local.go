package diagnostic

import (
	"context"
	"strings"

	"github.com/luaowl/luacore/internal/semindex"
)

// UnusedLocalChecker flags a local or local function that is never read
// after its declaration. Names starting with `_` are exempt, the
// conventional Lua way to mark an intentionally unused binding (e.g. a
// `for _, v in ipairs(t)` loop index).
type UnusedLocalChecker struct{}

func (UnusedLocalChecker) ID() string    { return "unused_local" }
func (UnusedLocalChecker) Codes() []Code { return []Code{CodeUnusedLocal} }

func (UnusedLocalChecker) Check(ctx context.Context, m *Model) ([]Diagnostic, error) {
	var out []Diagnostic
	for _, decl := range m.Index.Decls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if decl.Kind != semindex.DeclLocal && decl.Kind != semindex.DeclLocalFunction {
			continue
		}
		if strings.HasPrefix(decl.Name, "_") {
			continue
		}
		if hasRead(m.DB.ReferencesTo(decl.ID)) {
			continue
		}
		out = append(out, Diagnostic{
			Code:    CodeUnusedLocal,
			Span:    decl.NameSpan,
			Message: "local `" + decl.Name + "` is never used",
		})
	}
	return out, nil
}

func hasRead(refs []semindex.Reference) bool {
	for _, r := range refs {
		if r.Kind == semindex.RefRead {
			return true
		}
	}
	return false
}
