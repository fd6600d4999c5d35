package semindex

import (
	"hash/fnv"
	"strconv"

	"github.com/luaowl/luacore/internal/lexer"
	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/syntax"
)

// DeclIdForName derives a TypeDeclId deterministically from a declared
// name's text. Using a content-addressed id instead of an allocated,
// registry-tracked sequence number means a forward reference (an alias
// naming a class declared later in the same file, or in a file not yet
// indexed) resolves to the same id the class itself will eventually claim,
// with no fixup pass needed once that file is indexed.
func DeclIdForName(name string) ltypes.TypeDeclId {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return ltypes.TypeDeclId(h.Sum64())
}

// ConvertTypeExpr renders a parsed doc type-expression node (rooted at one
// of the KindType* kinds in internal/syntax) into an ltypes.Type.
// Unrecognized or malformed shapes degrade to ltypes.Unknown rather than
// failing, matching the "errors are data" style used throughout the doc
// parser itself.
func ConvertTypeExpr(n syntax.Node) ltypes.Type {
	switch n.Kind() {
	case syntax.KindTypeName:
		return convertTypeName(n)
	case syntax.KindTypeUnion:
		return ltypes.FromVec(convertAll(n.Children()))
	case syntax.KindTypeIntersection:
		parts := convertAll(n.Children())
		if len(parts) == 0 {
			return ltypes.Never()
		}
		acc := parts[0]
		for _, p := range parts[1:] {
			acc = ltypes.Intersection(acc, p)
		}
		return acc
	case syntax.KindTypeArray:
		children := n.Children()
		if len(children) == 0 {
			return ltypes.Array(ltypes.Unknown())
		}
		return ltypes.Array(ConvertTypeExpr(children[0]))
	case syntax.KindTypeOptional:
		children := n.Children()
		if len(children) == 0 {
			return ltypes.Nil()
		}
		return ltypes.Union(ConvertTypeExpr(children[0]), ltypes.Nil())
	case syntax.KindTypeTuple:
		return ltypes.Tuple(convertAll(n.Children())...)
	case syntax.KindTypeParen:
		children := n.Children()
		if len(children) == 0 {
			return ltypes.Unknown()
		}
		return ConvertTypeExpr(children[0])
	case syntax.KindTypeGeneric:
		children := n.Children()
		if len(children) == 0 {
			return ltypes.Unknown()
		}
		base := ConvertTypeExpr(children[0])
		return ltypes.Generic(base, convertAll(children[1:])...)
	case syntax.KindTypeFunction:
		return convertTypeFunction(n)
	case syntax.KindTypeVariadic:
		return ltypes.Variadic(ltypes.AnyType())
	case syntax.KindTypeLiteral:
		return convertTypeLiteral(n)
	default:
		return ltypes.Unknown()
	}
}

func convertAll(nodes []syntax.Node) []ltypes.Type {
	out := make([]ltypes.Type, len(nodes))
	for i, c := range nodes {
		out[i] = ConvertTypeExpr(c)
	}
	return out
}

func convertTypeName(n syntax.Node) ltypes.Type {
	tok, ok := n.NameToken()
	if !ok {
		return ltypes.Unknown()
	}
	name := string(tok.Bytes(n.Tree.Source))
	if len(name) >= 2 && (name[0] == '"' || name[0] == '\'') && name[len(name)-1] == name[0] {
		if s, ok := syntax.DecodeString(name); ok {
			return ltypes.StringConst(s)
		}
	}
	switch name {
	case "any":
		return ltypes.AnyType()
	case "unknown":
		return ltypes.Unknown()
	case "nil":
		return ltypes.Nil()
	case "boolean", "bool":
		return ltypes.Boolean()
	case "integer":
		return ltypes.Integer()
	case "number":
		return ltypes.Number()
	case "string":
		return ltypes.String()
	case "table":
		return ltypes.Table()
	case "never":
		return ltypes.Never()
	case "":
		return ltypes.Unknown()
	default:
		return ltypes.Ref(name, DeclIdForName(name))
	}
}

func convertTypeFunction(n syntax.Node) ltypes.Type {
	var params []ltypes.SignatureParam
	var returns []ltypes.Type
	for _, c := range n.Children() {
		if c.Kind() == syntax.KindTypeFunctionParam {
			params = append(params, convertTypeFunctionParam(c))
			continue
		}
		returns = append(returns, ConvertTypeExpr(c))
	}
	return ltypes.DocFunction(params, returns...)
}

func convertTypeFunctionParam(n syntax.Node) ltypes.SignatureParam {
	nd := n.Tree.NodeByID(n.ID)
	p := ltypes.SignatureParam{Type: ltypes.AnyType()}
	if nd == nil {
		return p
	}
	sawOptional := false
	for _, c := range nd.Children {
		if c.IsToken {
			tok := n.Tree.TokenAt(c.Index)
			switch tok.Kind {
			case lexer.TokenName:
				p.Name = string(tok.Bytes(n.Tree.Source))
			case lexer.TokenDocName:
				p.Name = string(tok.Bytes(n.Tree.Source))
			case lexer.TokenDocVariadic:
				p.Vararg = true
			case lexer.TokenDocOptional:
				sawOptional = true
			}
			continue
		}
		p.Type = ConvertTypeExpr(syntax.Node{Tree: n.Tree, ID: syntax.NodeID(c.Index)})
	}
	p.Optional = sawOptional
	return p
}

// convertTypeLiteral handles the fallback single-token type spellings the
// doc parser stashes as KindTypeLiteral: quoted string-const types
// (`"ok"`), bare numeric-const types, and `true`/`false` const types.
func convertTypeLiteral(n syntax.Node) ltypes.Type {
	nd := n.Tree.NodeByID(n.ID)
	if nd == nil || len(nd.Children) == 0 {
		return ltypes.Unknown()
	}
	tok := n.Tree.TokenAt(nd.Children[0].Index)
	text := string(tok.Bytes(n.Tree.Source))
	switch tok.Kind {
	case lexer.TokenStringLiteral:
		if s, ok := syntax.DecodeString(text); ok {
			return ltypes.StringConst(s)
		}
		return ltypes.String()
	case lexer.TokenIntLiteral:
		if v, err := strconv.ParseInt(text, 0, 64); err == nil {
			return ltypes.IntegerConst(v)
		}
		return ltypes.Integer()
	case lexer.TokenKwTrue:
		return ltypes.BooleanConst(true)
	case lexer.TokenKwFalse:
		return ltypes.BooleanConst(false)
	case lexer.TokenKwNil:
		return ltypes.Nil()
	default:
		if text == "true" {
			return ltypes.BooleanConst(true)
		}
		if text == "false" {
			return ltypes.BooleanConst(false)
		}
		return ltypes.Unknown()
	}
}
