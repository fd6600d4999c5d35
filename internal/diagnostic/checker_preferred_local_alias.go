package diagnostic

import (
	"context"
	"strconv"
	"strings"

	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/text"
)

// preferredLocalAliasThreshold is how many times a dotted access must repeat
// in one file before it's worth hoisting into a local, grounded on
// preferred_local_alias.rs's style check.
const preferredLocalAliasThreshold = 3

// PreferredLocalAliasChecker suggests replacing a long dotted access
// (`a.b.c`) repeated many times with a local alias (`local c = a.b.c`).
type PreferredLocalAliasChecker struct{}

func (PreferredLocalAliasChecker) ID() string    { return "preferred_local_alias" }
func (PreferredLocalAliasChecker) Codes() []Code { return []Code{CodePreferredLocalAlias} }

func (PreferredLocalAliasChecker) Check(ctx context.Context, m *Model) ([]Diagnostic, error) {
	occurrences := make(map[string][]text.Span)

	syntax.Root(m.Tree).Descendants(func(n syntax.Node) bool {
		if err := ctx.Err(); err != nil {
			return false
		}
		if n.Kind() != syntax.KindDotIndexExpr {
			return true
		}
		// Only consider the outermost DotIndexExpr of a chain, so `a.b.c`
		// counts once instead of once for `a.b` and once for `a.b.c`.
		if n.Parent().Kind() == syntax.KindDotIndexExpr {
			return true
		}
		path, depth, ok := dottedPath(n)
		if !ok || depth < 3 {
			return true
		}
		occurrences[path] = append(occurrences[path], n.FirstToken().Span)
		return true
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Diagnostic
	for path, spans := range occurrences {
		if len(spans) < preferredLocalAliasThreshold {
			continue
		}
		for _, span := range spans {
			out = append(out, Diagnostic{
				Code:    CodePreferredLocalAlias,
				Span:    span,
				Message: "`" + path + "` is repeated " + strconv.Itoa(len(spans)) + " times; consider a local alias",
			})
		}
	}
	return out, nil
}

// dottedPath flattens a chain of DotIndexExpr nodes rooted at a NameExpr
// into its textual path ("a.b.c") and its segment count.
func dottedPath(n syntax.Node) (string, int, bool) {
	var segments []string
	cur := n
	for {
		tok, ok := syntax.DotIndexName(cur)
		if !ok {
			return "", 0, false
		}
		segments = append([]string{string(tok.Bytes(cur.Tree.Source))}, segments...)

		base, ok := syntax.IndexExprBase(cur)
		if !ok {
			return "", 0, false
		}
		if base.Kind() == syntax.KindNameExpr {
			nameTok, ok := base.NameToken()
			if !ok {
				return "", 0, false
			}
			segments = append([]string{string(nameTok.Bytes(base.Tree.Source))}, segments...)
			return strings.Join(segments, "."), len(segments), true
		}
		if base.Kind() != syntax.KindDotIndexExpr {
			return "", 0, false
		}
		cur = base
	}
}
