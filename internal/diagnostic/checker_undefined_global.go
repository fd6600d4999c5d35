package diagnostic

import (
	"context"

	"github.com/luaowl/luacore/internal/semindex"
)

// UndefinedGlobalChecker flags a read of a global name that is never
// assigned anywhere in the workspace (spec §8 scenario 3).
type UndefinedGlobalChecker struct{}

func (UndefinedGlobalChecker) ID() string    { return "undefined_global" }
func (UndefinedGlobalChecker) Codes() []Code { return []Code{CodeUndefinedGlobal} }

func (UndefinedGlobalChecker) Check(ctx context.Context, m *Model) ([]Diagnostic, error) {
	var out []Diagnostic
	for _, fr := range m.Index.References {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if fr.Global == "" || fr.Ref.Kind != semindex.RefRead {
			continue
		}
		if len(m.DB.Globals(fr.Global)) > 0 {
			continue
		}
		out = append(out, Diagnostic{
			Code:    CodeUndefinedGlobal,
			Span:    fr.Ref.Span,
			Message: "undefined global `" + fr.Global + "`",
		})
	}
	return out, nil
}
