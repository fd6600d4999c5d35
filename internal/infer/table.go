package infer

import (
	"context"

	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/vfs"
)

// inferTableExpr synthesizes an Object type from a table constructor's
// fields: `{1, 2}` gets integer keys 1, 2; `{x = 1}` gets a string key;
// `{[k] = v}` gets whichever key literalFieldKey can resolve statically, and is
// dropped when the key is computed (spec §4.7, table-constructor typing).
func (e *Engine) inferTableExpr(ctx context.Context, file vfs.FileId, tree *syntax.Tree, n syntax.Node, depth int) ltypes.Type {
	var fields []ltypes.ObjectField
	positional := int64(1)

	for _, field := range n.Children() {
		switch field.Kind() {
		case syntax.KindTableFieldPositional:
			children := field.Children()
			if len(children) == 0 {
				continue
			}
			fields = append(fields, ltypes.ObjectField{
				KeyIsInt: true,
				IntKey:   positional,
				Type:     e.infer(ctx, file, tree, children[0], depth+1),
			})
			positional++

		case syntax.KindTableFieldNamed:
			tok, ok := syntax.TableFieldName(field)
			children := field.Children()
			if !ok || len(children) == 0 {
				continue
			}
			fields = append(fields, ltypes.ObjectField{
				Key:  string(tok.Bytes(field.Tree.Source)),
				Type: e.infer(ctx, file, tree, children[0], depth+1),
			})

		case syntax.KindTableFieldIndexed:
			children := field.Children()
			if len(children) < 2 {
				continue
			}
			name, isInt, intVal, ok := literalFieldKey(children[0])
			valueType := e.infer(ctx, file, tree, children[1], depth+1)
			if !ok {
				continue
			}
			fields = append(fields, ltypes.ObjectField{
				Key:      name,
				KeyIsInt: isInt,
				IntKey:   intVal,
				Type:     valueType,
			})
		}
	}

	return ltypes.Object(fields...)
}

// literalFieldKey reports the string or integer value of a statically known
// key expression (a string or integer literal); anything else isn't a key
// Object can represent precisely.
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
