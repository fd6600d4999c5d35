package semindex

import (
	"github.com/luaowl/luacore/internal/lexer"
	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/syntax"
)

// findDocTag returns the first direct child of doc's root with the given
// kind. doc is nil-safe: callers pass whatever syntax.PrecedingDocComment
// returned, which is nil when a statement has no preceding doc comment.
func findDocTag(doc *syntax.Tree, kind syntax.NodeKind) syntax.Node {
	if doc == nil {
		return syntax.Node{}
	}
	if n, ok := syntax.Root(doc).ChildOfKind(kind); ok {
		return n
	}
	return syntax.Node{}
}

func findDocTags(doc *syntax.Tree, kind syntax.NodeKind) []syntax.Node {
	if doc == nil {
		return nil
	}
	return syntax.Root(doc).ChildrenOfKind(kind)
}

// docNameToken finds a tag's Name token. Doc-comment names lex as
// TokenDocName rather than TokenName, so this can't reuse Node.NameToken.
func docNameToken(n syntax.Node) (lexer.Token, bool) {
	nd := n.Tree.NodeByID(n.ID)
	if nd == nil {
		return lexer.Token{}, false
	}
	for _, c := range nd.Children {
		if c.IsToken && n.Tree.TokenAt(c.Index).Kind == lexer.TokenDocName {
			return n.Tree.TokenAt(c.Index), true
		}
	}
	return lexer.Token{}, false
}

func docTagNameText(n syntax.Node) string {
	tok, ok := docNameToken(n)
	if !ok {
		return ""
	}
	return string(tok.Bytes(n.Tree.Source))
}

func docOptional(n syntax.Node) bool {
	nd := n.Tree.NodeByID(n.ID)
	if nd == nil {
		return false
	}
	for _, c := range nd.Children {
		if c.IsToken && n.Tree.TokenAt(c.Index).Kind == lexer.TokenDocOptional {
			return true
		}
	}
	return false
}

// docParamTags reads every @param tag attached to doc into a SignatureParam,
// in source order, matching the order FuncBodyParams declares them.
func docParamTags(doc *syntax.Tree) []ltypes.SignatureParam {
	var out []ltypes.SignatureParam
	for _, tag := range findDocTags(doc, syntax.KindDocParamTag) {
		p := ltypes.SignatureParam{Type: ltypes.Unknown()}
		nd := tag.Tree.NodeByID(tag.ID)
		for _, c := range nd.Children {
			if !c.IsToken {
				continue
			}
			switch tag.Tree.TokenAt(c.Index).Kind {
			case lexer.TokenDocName:
				p.Name = string(tag.Tree.TokenAt(c.Index).Bytes(tag.Tree.Source))
			case lexer.TokenDocVariadic:
				p.Name = "..."
				p.Vararg = true
			case lexer.TokenDocOptional:
				p.Optional = true
			}
		}
		if children := tag.Children(); len(children) > 0 {
			p.Type = ConvertTypeExpr(children[0])
		}
		out = append(out, p)
	}
	return out
}

// docReturnTypes flattens every @return tag's type list into one sequence.
func docReturnTypes(doc *syntax.Tree) []ltypes.Type {
	var out []ltypes.Type
	for _, tag := range findDocTags(doc, syntax.KindDocReturnTag) {
		for _, c := range tag.Children() {
			out = append(out, ConvertTypeExpr(c))
		}
	}
	return out
}

// docFunctionSignature builds the DocFunction type that @param/@return tags
// describe for the function the comment precedes, or Unknown if neither tag
// is present.
func docFunctionSignature(doc *syntax.Tree) ltypes.Type {
	if doc == nil {
		return ltypes.Unknown()
	}
	params := docParamTags(doc)
	returns := docReturnTypes(doc)
	if len(params) == 0 && len(returns) == 0 {
		return ltypes.Unknown()
	}
	return ltypes.DocFunction(params, returns...)
}

// docParamReturnTypes is docFunctionSignature's data split apart for
// walkFuncBody, which needs per-parameter types keyed by name rather than a
// single Signature value.
func docParamReturnTypes(doc *syntax.Tree) (map[string]ltypes.Type, []ltypes.Type) {
	if doc == nil {
		return nil, nil
	}
	params := docParamTags(doc)
	byName := make(map[string]ltypes.Type, len(params))
	for _, p := range params {
		byName[p.Name] = p.Type
	}
	return byName, docReturnTypes(doc)
}

// docTypeAnnotationsFor reads a preceding @type tag's type list for a local
// declaration with count names, repeating the last type across any names
// left over the way EmmyLua treats a short @type list.
func docTypeAnnotationsFor(doc *syntax.Tree, count int) []ltypes.Type {
	tag := findDocTag(doc, syntax.KindDocTypeTag)
	if tag.ID == syntax.NoNode {
		return nil
	}
	types := convertAll(tag.Children())
	if len(types) == 0 {
		return nil
	}
	out := make([]ltypes.Type, count)
	for i := range out {
		if i < len(types) {
			out[i] = types[i]
		} else {
			out[i] = types[len(types)-1]
		}
	}
	return out
}

// registerTypeDeclTags builds or merges the TypeDecl a @class, @alias, or
// @enum tag on doc names, attaching @field members for a @class. Enum
// members aren't carried by doc tags at all (EmmyLua spells them as the
// table literal the @enum-tagged local is initialized with), so the @enum
// branch here only establishes the TypeDecl head; maybeAttachTableLiteralMembers
// fills in its Members once the local's initializer is in view.
func (ix *indexer) registerTypeDeclTags(doc *syntax.Tree, n syntax.Node) {
	if doc == nil {
		return
	}
	if classTag := findDocTag(doc, syntax.KindDocClassTag); classTag.ID != syntax.NoNode {
		ix.registerClassTag(doc, classTag, n)
		return
	}
	if aliasTag := findDocTag(doc, syntax.KindDocAliasTag); aliasTag.ID != syntax.NoNode {
		ix.registerAliasTag(aliasTag, n)
		return
	}
	if enumTag := findDocTag(doc, syntax.KindDocEnumTag); enumTag.ID != syntax.NoNode {
		ix.registerEnumTag(enumTag, n)
	}
}

func (ix *indexer) typeDeclFor(id ltypes.TypeDeclId, name string, kind TypeDeclKind) *TypeDecl {
	if td, ok := ix.typeDecls[name]; ok {
		return td
	}
	td := &TypeDecl{ID: id, Name: name, Kind: kind}
	ix.typeDecls[name] = td
	return td
}

func (ix *indexer) registerClassTag(doc *syntax.Tree, classTag syntax.Node, n syntax.Node) {
	name := docTagNameText(classTag)
	if name == "" {
		return
	}
	id := DeclIdForName(name)
	td := ix.typeDeclFor(id, name, TypeDeclClass)
	td.Supers = append(td.Supers, convertAll(classTag.Children())...)
	td.Locations = append(td.Locations, Location{File: ix.file, Span: n2span(n)})

	for _, field := range findDocTags(doc, syntax.KindDocFieldTag) {
		key := docTagNameText(field)
		if key == "" {
			continue
		}
		ft := ltypes.Unknown()
		if children := field.Children(); len(children) > 0 {
			ft = ConvertTypeExpr(children[0])
		}
		features := FeatureFileDecl
		if docOptional(field) {
			features |= FeatureOptional
		}
		ix.fi.Members = append(ix.fi.Members, &Member{
			Key:      key,
			Type:     ft,
			Kind:     MemberField,
			Owner:    MemberOwner{Kind: OwnerTypeDecl, Decl: id},
			Location: Location{File: ix.file, Span: n2span(field)},
			Features: features,
		})
	}
}

func (ix *indexer) registerAliasTag(aliasTag syntax.Node, n syntax.Node) {
	name := docTagNameText(aliasTag)
	if name == "" {
		return
	}
	id := DeclIdForName(name)
	aliasType := ltypes.Unknown()
	if children := aliasTag.Children(); len(children) > 0 {
		aliasType = ConvertTypeExpr(children[0])
	}
	td := ix.typeDeclFor(id, name, TypeDeclAlias)
	td.Alias = &ltypes.AliasOrigin{Decl: id, Name: name, Type: aliasType}
	td.Locations = append(td.Locations, Location{File: ix.file, Span: n2span(n)})
}

func (ix *indexer) registerEnumTag(enumTag syntax.Node, n syntax.Node) {
	name := docTagNameText(enumTag)
	if name == "" {
		return
	}
	id := DeclIdForName(name)
	td := ix.typeDeclFor(id, name, TypeDeclEnum)
	if td.Enum == nil {
		td.Enum = &ltypes.EnumOrigin{Decl: id, Name: name}
	}
	td.Locations = append(td.Locations, Location{File: ix.file, Span: n2span(n)})
}

// maybeAttachTableLiteralMembers fills in a @enum TypeDecl's Members from
// the table literal a `local Foo = { A = 1, B = 2 }` initializes, the only
// place EmmyLua actually spells enum member data.
func (ix *indexer) maybeAttachTableLiteralMembers(n syntax.Node, names []lexer.Token, doc *syntax.Tree) {
	if doc == nil || len(names) == 0 {
		return
	}
	enumTag := findDocTag(doc, syntax.KindDocEnumTag)
	if enumTag.ID == syntax.NoNode {
		return
	}
	exprs, ok := syntax.LocalStatInitExprs(n)
	if !ok {
		return
	}
	initExprs := exprs.Children()
	if len(initExprs) == 0 || initExprs[0].Kind() != syntax.KindTableExpr {
		return
	}

	name := docTagNameText(enumTag)
	if name == "" {
		name = string(names[0].Bytes(ix.tree.Source))
	}
	if name == "" {
		return
	}
	id := DeclIdForName(name)
	td := ix.typeDeclFor(id, name, TypeDeclEnum)
	if td.Enum == nil {
		td.Enum = &ltypes.EnumOrigin{Decl: id, Name: name}
	}
	td.Enum.Members = append(td.Enum.Members, enumMembersFromTable(ix.tree, initExprs[0])...)
}

func enumMembersFromTable(tree *syntax.Tree, tableExpr syntax.Node) []ltypes.EnumMember {
	var out []ltypes.EnumMember
	for _, field := range tableExpr.Children() {
		if field.Kind() != syntax.KindTableFieldNamed {
			continue
		}
		tok, ok := syntax.TableFieldName(field)
		if !ok {
			continue
		}
		children := field.Children()
		if len(children) == 0 {
			continue
		}
		value := children[len(children)-1]
		member := ltypes.EnumMember{Name: string(tok.Bytes(tree.Source))}
		switch value.Kind() {
		case syntax.KindNumberExpr:
			nv := syntax.DecodeNumber(string(value.Text()))
			if nv.Valid && !nv.IsFloat {
				member.IsInt = true
				member.IntVal = nv.Int
			}
		case syntax.KindStringExpr:
			if s, ok := stringExprValue(tree, value); ok {
				member.StrVal = s
			}
		}
		out = append(out, member)
	}
	return out
}
