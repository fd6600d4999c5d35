package diagnostic

import (
	"context"

	"github.com/luaowl/luacore/internal/syntax"
)

// DuplicatePrimaryKeyChecker flags a table constructor that assigns the same
// key more than once, grounded on duplicate_primary_key.rs's luaconfig
// validator generalized to any table literal (the original scopes this to
// config beans; ConfigTable ownership isn't populated by the declaration
// indexer yet, so this runs over every table constructor instead — see
// DESIGN.md).
type DuplicatePrimaryKeyChecker struct{}

func (DuplicatePrimaryKeyChecker) ID() string    { return "duplicate_primary_key" }
func (DuplicatePrimaryKeyChecker) Codes() []Code { return []Code{CodeDuplicatePrimaryKey} }

func (DuplicatePrimaryKeyChecker) Check(ctx context.Context, m *Model) ([]Diagnostic, error) {
	var out []Diagnostic

	syntax.Root(m.Tree).Descendants(func(n syntax.Node) bool {
		if err := ctx.Err(); err != nil {
			return false
		}
		if n.Kind() != syntax.KindTableExpr {
			return true
		}

		type seenKey struct {
			isInt bool
			i     int64
			s     string
		}
		seen := make(map[seenKey]bool)

		for _, field := range n.Children() {
			var key seenKey
			switch field.Kind() {
			case syntax.KindTableFieldNamed:
				tok, ok := syntax.TableFieldName(field)
				if !ok {
					continue
				}
				key = seenKey{s: string(tok.Bytes(field.Tree.Source))}
			case syntax.KindTableFieldIndexed:
				children := field.Children()
				if len(children) == 0 {
					continue
				}
				name, isInt, intVal, ok := literalFieldKey(children[0])
				if !ok {
					continue
				}
				key = seenKey{isInt: isInt, i: intVal, s: name}
			default:
				continue
			}
			if seen[key] {
				out = append(out, Diagnostic{
					Code:    CodeDuplicatePrimaryKey,
					Span:    field.FirstToken().Span,
					Message: "table constructor repeats this key",
				})
				continue
			}
			seen[key] = true
		}
		return true
	})

	return out, ctx.Err()
}

// literalFieldKey reports the string or integer value of a statically known
// table-field key expression; a computed key reports ok=false.
func literalFieldKey(keyNode syntax.Node) (name string, isInt bool, intVal int64, ok bool) {
	switch keyNode.Kind() {
	case syntax.KindStringExpr:
		if s, decoded := syntax.DecodeString(string(keyNode.Text())); decoded {
			return s, false, 0, true
		}
		return "", false, 0, false
	case syntax.KindNumberExpr:
		nv := syntax.DecodeNumber(string(keyNode.Text()))
		if nv.Valid && !nv.IsFloat {
			return "", true, nv.Int, true
		}
		return "", false, 0, false
	default:
		return "", false, 0, false
	}
}

// InvalidIndexFieldChecker flags a bracketed table-constructor key that
// isn't a literal string or integer, grounded on invalid_index_field.rs.
type InvalidIndexFieldChecker struct{}

func (InvalidIndexFieldChecker) ID() string    { return "invalid_index_field" }
func (InvalidIndexFieldChecker) Codes() []Code { return []Code{CodeInvalidIndexField} }

func (InvalidIndexFieldChecker) Check(ctx context.Context, m *Model) ([]Diagnostic, error) {
	var out []Diagnostic

	syntax.Root(m.Tree).Descendants(func(n syntax.Node) bool {
		if err := ctx.Err(); err != nil {
			return false
		}
		if n.Kind() != syntax.KindTableFieldIndexed {
			return true
		}
		children := n.Children()
		if len(children) == 0 {
			return true
		}
		if _, _, _, ok := literalFieldKey(children[0]); ok {
			return true
		}
		out = append(out, Diagnostic{
			Code:    CodeInvalidIndexField,
			Span:    children[0].FirstToken().Span,
			Message: "table index field is not a literal string or integer",
		})
		return true
	})

	return out, ctx.Err()
}
