package semindex

import (
	"github.com/luaowl/luacore/internal/lexer"
	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/text"
	"github.com/luaowl/luacore/internal/vfs"
)

// RequireNames lists the call-expression callee names treated as module
// imports; configurable per spec.md §4.4 item 6 ("require-like call
// (configurable names)").
var RequireNames = map[string]bool{"require": true}

// FileIndex is everything the declaration indexer produces for one file. It
// is the unit of eviction: Database.RemoveFile discards a FileIndex wholesale
// and subtracts its TypeDecl/Member contributions from the merged registry.
type FileIndex struct {
	File        vfs.FileId
	Scopes      map[ScopeId]*Scope
	RootScope   ScopeId
	Decls       []*Decl
	Globals     []*Decl
	TypeDecls   []*TypeDecl
	Members     []*Member
	Requires    []RequireEdge
	References  []fileReference
	MemberRefs  []MemberKeyRef
}

// fileReference pairs a Reference with the Decl or global name it resolved
// to, used to build the per-declaration reference lists in reference_index.go.
type fileReference struct {
	Decl   DeclId // zero value (File: 0) means "see Global"
	Global string
	Ref    Reference
}

// MemberKeyRef is one occurrence of a dotted/bracket/method key, feeding the
// reference index's inverted "member-key name -> occurrences" map.
type MemberKeyRef struct {
	Key  string
	Span text.Span
	Node syntax.Ptr
}

// IndexFile runs the declaration indexer over tree, producing a FileIndex.
// It never fails: malformed syntax simply yields fewer declarations, mirroring
// the parser's own error-tolerant philosophy.
func IndexFile(file vfs.FileId, tree *syntax.Tree) *FileIndex {
	ix := &indexer{
		file:    file,
		tree:    tree,
		fi:      &FileIndex{File: file, Scopes: make(map[ScopeId]*Scope)},
		globals: make(map[string]*Decl),
		typeDecls: make(map[string]*TypeDecl),
	}
	root := ix.pushScope(ScopeChunk, tree.RootNode().Span, false, ScopeId{})
	ix.fi.RootScope = root.ID
	ix.walkStatements(syntax.Root(tree).Children(), root)
	ix.popScope()

	for _, d := range ix.globals {
		ix.fi.Globals = append(ix.fi.Globals, d)
	}
	for _, td := range ix.typeDecls {
		ix.fi.TypeDecls = append(ix.fi.TypeDecls, td)
	}
	return ix.fi
}

type indexer struct {
	file      vfs.FileId
	tree      *syntax.Tree
	fi        *FileIndex
	nextSeq   uint32
	stack     []*scopeFrame
	globals   map[string]*Decl
	typeDecls map[string]*TypeDecl
}

type scopeFrame struct {
	scope  *Scope
	symtab map[string]DeclId
	byId   map[DeclId]*Decl
}

func (ix *indexer) pushScope(kind ScopeKind, span text.Span, hasParent bool, parent ScopeId) *Scope {
	id := ScopeId{File: ix.file, Seq: ix.nextSeq}
	ix.nextSeq++
	sc := &Scope{ID: id, Kind: kind, Parent: parent, HasParent: hasParent, Span: span}
	ix.fi.Scopes[id] = sc
	ix.stack = append(ix.stack, &scopeFrame{scope: sc, symtab: map[string]DeclId{}, byId: map[DeclId]*Decl{}})
	return sc
}

func (ix *indexer) popScope() {
	ix.stack = ix.stack[:len(ix.stack)-1]
}

func (ix *indexer) top() *scopeFrame { return ix.stack[len(ix.stack)-1] }

func (ix *indexer) declId() DeclId {
	id := DeclId{File: ix.file, Seq: ix.nextSeq}
	ix.nextSeq++
	return id
}

// declare binds name in the current scope, shadowing any outer binding of
// the same name, and records the Decl.
func (ix *indexer) declare(kind DeclKind, name string, nameSpan text.Span, node syntax.Node, declaredType ltypes.Type) *Decl {
	d := &Decl{
		ID:           ix.declId(),
		Kind:         kind,
		Name:         name,
		Scope:        ix.top().scope.ID,
		NameSpan:     nameSpan,
		Node:         syntax.Ptr{Tree: ix.tree, ID: node.ID},
		DeclaredType: declaredType,
	}
	ix.top().scope.Decls = append(ix.top().scope.Decls, d.ID)
	ix.top().symtab[name] = d.ID
	ix.top().byId[d.ID] = d
	ix.fi.Decls = append(ix.fi.Decls, d)
	return d
}

// resolve looks up name through the scope chain, innermost first.
func (ix *indexer) resolve(name string) *Decl {
	for i := len(ix.stack) - 1; i >= 0; i-- {
		frame := ix.stack[i]
		if id, ok := frame.symtab[name]; ok {
			return frame.byId[id]
		}
	}
	return nil
}

func (ix *indexer) recordRef(d *Decl, global string, span text.Span, node syntax.Node, kind RefKind) {
	fr := fileReference{Ref: Reference{Span: span, Node: syntax.Ptr{Tree: ix.tree, ID: node.ID}, Kind: kind}}
	if d != nil {
		fr.Decl = d.ID
		if kind == RefWrite || kind == RefCompoundAssign {
			d.Mutable = true
		}
	} else {
		fr.Global = global
	}
	ix.fi.References = append(ix.fi.References, fr)
}

func (ix *indexer) recordMemberKeyRef(key string, span text.Span, node syntax.Node) {
	ix.fi.MemberRefs = append(ix.fi.MemberRefs, MemberKeyRef{
		Key: key, Span: span, Node: syntax.Ptr{Tree: ix.tree, ID: node.ID},
	})
}

func tokenText(tree *syntax.Tree, tok lexer.Token) string {
	return string(tok.Bytes(tree.Source))
}

// --- Statement walking -----------------------------------------------

func (ix *indexer) walkStatements(stmts []syntax.Node, scope *Scope) {
	for _, s := range stmts {
		ix.walkStatement(s)
	}
}

func (ix *indexer) walkStatement(n syntax.Node) {
	switch n.Kind() {
	case syntax.KindLocalStat:
		ix.walkLocalStat(n)
	case syntax.KindLocalFunctionStat:
		ix.walkLocalFunctionStat(n)
	case syntax.KindAssignStat:
		ix.walkAssignStat(n)
	case syntax.KindCallStat:
		if call, ok := syntax.CallStatCall(n); ok {
			ix.walkExpr(call, RefRead)
		}
	case syntax.KindFunctionStat:
		ix.walkFunctionStat(n)
	case syntax.KindDoStat:
		ix.withBlockScope(n, func() { ix.walkStatements(soleBlock(n).Children(), nil) })
	case syntax.KindWhileStat:
		ix.walkExprChild(n, 0, RefRead)
		ix.withBlockScope(n, func() { ix.walkStatements(soleBlock(n).Children(), nil) })
	case syntax.KindRepeatStat:
		// repeat's until-condition sees locals declared in the body, so the
		// block scope must still be open while it is walked.
		ix.withBlockScope(n, func() {
			ix.walkStatements(soleBlock(n).Children(), nil)
			if until, ok := lastNonBlockChild(n); ok {
				ix.walkExpr(until, RefRead)
			}
		})
	case syntax.KindIfStat:
		ix.walkIfStat(n)
	case syntax.KindNumericForStat:
		ix.walkNumericForStat(n)
	case syntax.KindGenericForStat:
		ix.walkGenericForStat(n)
	case syntax.KindReturnStat:
		if list, ok := n.ChildOfKind(syntax.KindExprList); ok {
			for _, e := range list.Children() {
				ix.walkExpr(e, RefRead)
			}
		}
	case syntax.KindLabelStat:
		if tok, ok := n.NameToken(); ok {
			ix.declare(DeclLabel, tokenText(ix.tree, tok), tok.Span, n, ltypes.Unknown())
		}
	case syntax.KindGotoStat, syntax.KindBreakStat, syntax.KindContinueStat, syntax.KindEmptyStat, syntax.KindErrorStat:
		// nothing to index
	}
}

func soleBlock(n syntax.Node) syntax.Node {
	if b, ok := n.ChildOfKind(syntax.KindBlock); ok {
		return b
	}
	return syntax.Node{}
}

func lastNonBlockChild(n syntax.Node) (syntax.Node, bool) {
	children := n.Children()
	for i := len(children) - 1; i >= 0; i-- {
		if children[i].Kind() != syntax.KindBlock {
			return children[i], true
		}
	}
	return syntax.Node{}, false
}

func (ix *indexer) withBlockScope(n syntax.Node, body func()) {
	parent := ix.top().scope
	sc := ix.pushScope(ScopeBlock, n.Tree.NodeByID(n.ID).Span, true, parent.ID)
	_ = sc
	body()
	ix.popScope()
}

func (ix *indexer) walkExprChild(n syntax.Node, index int, kind RefKind) {
	children := n.Children()
	if index < len(children) {
		ix.walkExpr(children[index], kind)
	}
}

func (ix *indexer) walkLocalStat(n syntax.Node) {
	names := syntax.LocalStatNames(n)
	if exprs, ok := syntax.LocalStatInitExprs(n); ok {
		for _, e := range exprs.Children() {
			ix.walkExpr(e, RefRead)
		}
	}

	doc := syntax.PrecedingDocComment(n)
	declaredTypes := docTypeAnnotationsFor(doc, len(names))
	ix.registerTypeDeclTags(doc, n)

	for i, tok := range names {
		dt := ltypes.Unknown()
		if i < len(declaredTypes) {
			dt = declaredTypes[i]
		}
		ix.declare(DeclLocal, tokenText(ix.tree, tok), tok.Span, n, dt)
	}

	ix.maybeAttachTableLiteralMembers(n, names, doc)
}

func (ix *indexer) walkLocalFunctionStat(n syntax.Node) {
	tok, ok := n.NameToken()
	if !ok {
		return
	}
	doc := syntax.PrecedingDocComment(n)
	sigType := docFunctionSignature(doc)
	d := ix.declare(DeclLocalFunction, tokenText(ix.tree, tok), tok.Span, n, sigType)
	_ = d
	if body, ok := n.ChildOfKind(syntax.KindFuncBody); ok {
		ix.walkFuncBody(body, false, doc)
	}
}

func (ix *indexer) walkFunctionStat(n syntax.Node) {
	funcName, ok := n.ChildOfKind(syntax.KindFuncName)
	if !ok {
		return
	}
	isMethod := resolveFuncName(ix, funcName)
	doc := syntax.PrecedingDocComment(n)
	if body, ok := n.ChildOfKind(syntax.KindFuncBody); ok {
		ix.walkFuncBody(body, isMethod, doc)
	}
}

// resolveFuncName reads the dotted/method FuncName token chain directly
// (FuncName has no intermediate nodes: `Name ('.' Name)* (':' Name)?`),
// treating the leading Name as a read reference and recording a member-key
// reference for each following segment. It reports whether the final
// segment is a method definition (`:`), which implies an implicit `self`.
func resolveFuncName(ix *indexer, funcName syntax.Node) bool {
	nd := funcName.Tree.NodeByID(funcName.ID)
	if nd == nil {
		return false
	}
	isMethod := false
	first := true
	var sawColon bool
	for _, c := range nd.Children {
		if !c.IsToken {
			continue
		}
		tok := funcName.Tree.TokenAt(c.Index)
		switch tok.Kind {
		case lexer.TokenName:
			name := tokenText(ix.tree, tok)
			if first {
				d := ix.resolve(name)
				var global string
				if d == nil {
					global = name
				}
				ix.recordRef(d, global, tok.Span, funcName, RefRead)
				first = false
			} else {
				if sawColon {
					isMethod = true
				}
				ix.recordMemberKeyRef(name, tok.Span, funcName)
			}
		case lexer.TokenColon:
			sawColon = true
		}
	}
	return isMethod
}

func (ix *indexer) walkFuncBody(body syntax.Node, isMethod bool, doc *syntax.Tree) {
	parent := ix.top().scope
	sc := ix.pushScope(ScopeFunction, body.Tree.NodeByID(body.ID).Span, true, parent.ID)
	_ = sc

	paramTypes, returnTypes := docParamReturnTypes(doc)

	if isMethod {
		ix.declare(DeclParam, "self", body.Tree.NodeByID(body.ID).Span, body, ltypes.Unknown())
	}

	if pl, ok := syntax.FuncBodyParams(body); ok {
		names := syntax.ParamListNames(pl)
		for _, tok := range names {
			dt := ltypes.Unknown()
			if t, ok := paramTypes[tokenText(ix.tree, tok)]; ok {
				dt = t
			}
			ix.declare(DeclParam, tokenText(ix.tree, tok), tok.Span, body, dt)
		}
		if syntax.ParamListHasVararg(pl) {
			ix.declare(DeclParam, "...", body.Tree.NodeByID(pl.ID).Span, body, ltypes.Variadic(ltypes.AnyType()))
		}
	}
	_ = returnTypes

	if block, ok := body.ChildOfKind(syntax.KindBlock); ok {
		ix.walkStatements(block.Children(), nil)
	}
	ix.popScope()
}

func (ix *indexer) walkAssignStat(n syntax.Node) {
	targets := syntax.AssignStatTargets(n)
	if values, ok := syntax.AssignStatValues(n); ok {
		for _, e := range values.Children() {
			ix.walkExpr(e, RefRead)
		}
	}
	for _, t := range targets {
		ix.walkAssignTarget(t)
	}
}

func (ix *indexer) walkAssignTarget(t syntax.Node) {
	switch t.Kind() {
	case syntax.KindNameExpr:
		tok, _ := t.NameToken()
		name := tokenText(ix.tree, tok)
		d := ix.resolve(name)
		if d == nil {
			d = ix.globals[name]
		}
		if d == nil {
			d = ix.declareGlobal(name, tok.Span, t)
		}
		ix.recordRef(d, "", tok.Span, t, RefWrite)
	case syntax.KindDotIndexExpr:
		base, ok := syntax.IndexExprBase(t)
		if ok {
			ix.walkExpr(base, RefRead)
		}
		if nameTok, ok := syntax.DotIndexName(t); ok {
			ix.recordMemberKeyRef(tokenText(ix.tree, nameTok), nameTok.Span, t)
		}
	case syntax.KindBracketIndexExpr:
		children := t.Children()
		if len(children) > 0 {
			ix.walkExpr(children[0], RefRead)
		}
		if len(children) > 1 {
			ix.walkExpr(children[1], RefRead)
			if children[1].Kind() == syntax.KindStringExpr {
				if s, ok := stringExprValue(ix.tree, children[1]); ok {
					ix.recordMemberKeyRef(s, n2span(children[1]), t)
				}
			}
		}
	default:
		ix.walkExpr(t, RefRead)
	}
}

func n2span(n syntax.Node) text.Span {
	if nd := n.Tree.NodeByID(n.ID); nd != nil {
		return nd.Span
	}
	return text.Span{}
}

func (ix *indexer) declareGlobal(name string, span text.Span, node syntax.Node) *Decl {
	d := &Decl{
		ID:           ix.declId(),
		Kind:         DeclGlobal,
		Name:         name,
		Scope:        ix.fi.RootScope,
		NameSpan:     span,
		Node:         syntax.Ptr{Tree: ix.tree, ID: node.ID},
		DeclaredType: ltypes.Unknown(),
	}
	ix.globals[name] = d
	ix.fi.Decls = append(ix.fi.Decls, d)
	return d
}

func (ix *indexer) walkIfStat(n syntax.Node) {
	children := n.Children()
	idx := 0
	// condition, then-block pair for the primary `if`
	if idx < len(children) {
		ix.walkExpr(children[idx], RefRead)
		idx++
	}
	if idx < len(children) && children[idx].Kind() == syntax.KindBlock {
		ix.withBlockScope(n, func() { ix.walkStatements(children[idx].Children(), nil) })
		idx++
	}
	for idx < len(children) {
		switch children[idx].Kind() {
		case syntax.KindElseifClause:
			ix.walkElseifClause(children[idx])
		case syntax.KindElseClause:
			ix.walkElseClause(children[idx])
		}
		idx++
	}
}

func (ix *indexer) walkElseifClause(n syntax.Node) {
	children := n.Children()
	if len(children) > 0 {
		ix.walkExpr(children[0], RefRead)
	}
	if len(children) > 1 && children[1].Kind() == syntax.KindBlock {
		ix.withBlockScope(n, func() { ix.walkStatements(children[1].Children(), nil) })
	}
}

func (ix *indexer) walkElseClause(n syntax.Node) {
	if block, ok := n.ChildOfKind(syntax.KindBlock); ok {
		ix.withBlockScope(n, func() { ix.walkStatements(block.Children(), nil) })
	}
}

func (ix *indexer) walkNumericForStat(n syntax.Node) {
	nd := n.Tree.NodeByID(n.ID)
	var nameTok lexer.Token
	haveName := false
	var exprs []syntax.Node
	for _, c := range nd.Children {
		if c.IsToken {
			tok := n.Tree.TokenAt(c.Index)
			if tok.Kind == lexer.TokenName && !haveName {
				nameTok = tok
				haveName = true
			}
			continue
		}
		child := syntax.Node{Tree: n.Tree, ID: syntax.NodeID(c.Index)}
		if child.Kind() == syntax.KindBlock {
			continue
		}
		exprs = append(exprs, child)
	}
	for _, e := range exprs {
		ix.walkExpr(e, RefRead)
	}
	parent := ix.top().scope
	ix.pushScope(ScopeBlock, nd.Span, true, parent.ID)
	if haveName {
		ix.declare(DeclForIterator, tokenText(ix.tree, nameTok), nameTok.Span, n, ltypes.Number())
	}
	if block, ok := n.ChildOfKind(syntax.KindBlock); ok {
		ix.walkStatements(block.Children(), nil)
	}
	ix.popScope()
}

func (ix *indexer) walkGenericForStat(n syntax.Node) {
	nameList, _ := n.ChildOfKind(syntax.KindNameList)
	exprList, _ := n.ChildOfKind(syntax.KindExprList)
	if exprList.ID != syntax.NoNode {
		for _, e := range exprList.Children() {
			ix.walkExpr(e, RefRead)
		}
	}
	parent := ix.top().scope
	ix.pushScope(ScopeBlock, n.Tree.NodeByID(n.ID).Span, true, parent.ID)
	if nameList.ID != syntax.NoNode {
		nd := nameList.Tree.NodeByID(nameList.ID)
		for _, c := range nd.Children {
			if c.IsToken {
				tok := nameList.Tree.TokenAt(c.Index)
				if tok.Kind == lexer.TokenName {
					ix.declare(DeclForIterator, tokenText(ix.tree, tok), tok.Span, n, ltypes.Unknown())
				}
			}
		}
	}
	if block, ok := n.ChildOfKind(syntax.KindBlock); ok {
		ix.walkStatements(block.Children(), nil)
	}
	ix.popScope()
}

// --- Expression walking ------------------------------------------------

func (ix *indexer) walkExpr(n syntax.Node, kind RefKind) {
	switch n.Kind() {
	case syntax.KindNameExpr:
		tok, _ := n.NameToken()
		name := tokenText(ix.tree, tok)
		d := ix.resolve(name)
		var global string
		if d == nil {
			if g, ok := ix.globals[name]; ok {
				d = g
			} else {
				global = name
			}
		}
		ix.recordRef(d, global, tok.Span, n, kind)
	case syntax.KindDotIndexExpr:
		if base, ok := syntax.IndexExprBase(n); ok {
			ix.walkExpr(base, RefRead)
		}
		if tok, ok := syntax.DotIndexName(n); ok {
			ix.recordMemberKeyRef(tokenText(ix.tree, tok), tok.Span, n)
		}
	case syntax.KindBracketIndexExpr:
		children := n.Children()
		for _, c := range children {
			ix.walkExpr(c, RefRead)
		}
		if len(children) > 1 && children[1].Kind() == syntax.KindStringExpr {
			if s, ok := stringExprValue(ix.tree, children[1]); ok {
				ix.recordMemberKeyRef(s, n2span(children[1]), n)
			}
		}
	case syntax.KindCallExpr:
		ix.walkCallExpr(n)
	case syntax.KindMethodCallExpr:
		children := n.Children()
		if len(children) > 0 {
			ix.walkExpr(children[0], RefRead)
		}
		if tok, ok := syntax.MethodCallName(n); ok {
			ix.recordMemberKeyRef(tokenText(ix.tree, tok), tok.Span, n)
		}
		if args, ok := syntax.CallArgs(n); ok {
			ix.walkArgs(args)
		}
	case syntax.KindBinaryExpr:
		left, _, right, ok := syntax.BinaryExprParts(n)
		if ok {
			ix.walkExpr(left, RefRead)
			ix.walkExpr(right, RefRead)
		}
	case syntax.KindUnaryExpr:
		_, operand, ok := syntax.UnaryExprParts(n)
		if ok {
			ix.walkExpr(operand, RefRead)
		}
	case syntax.KindParenExpr:
		for _, c := range n.Children() {
			ix.walkExpr(c, RefRead)
		}
	case syntax.KindTableExpr:
		ix.walkTableExpr(n, MemberOwner{Kind: OwnerLocalTableConst, File: ix.file, Span: n2span(n)})
	case syntax.KindFunctionExpr:
		if body, ok := n.ChildOfKind(syntax.KindFuncBody); ok {
			ix.walkFuncBody(body, false, nil)
		}
	case syntax.KindExprList:
		for _, c := range n.Children() {
			ix.walkExpr(c, RefRead)
		}
	default:
		// literals (nil/true/false/number/string/vararg) and error nodes
		// carry no references.
	}
}

func (ix *indexer) walkArgs(args syntax.Node) {
	switch args.Kind() {
	case syntax.KindExprList:
		for _, c := range args.Children() {
			ix.walkExpr(c, RefRead)
		}
	case syntax.KindTableExpr:
		ix.walkExpr(args, RefRead)
	case syntax.KindStringExpr:
		// nothing to resolve
	}
}

func (ix *indexer) walkCallExpr(n syntax.Node) {
	children := n.Children()
	if len(children) == 0 {
		return
	}
	callee := children[0]
	ix.walkExpr(callee, RefRead)
	args, hasArgs := syntax.CallArgs(n)
	if hasArgs {
		ix.walkArgs(args)
	}

	if callee.Kind() != syntax.KindNameExpr {
		return
	}
	tok, _ := callee.NameToken()
	name := tokenText(ix.tree, tok)
	if !RequireNames[name] || !hasArgs {
		return
	}
	var strExpr syntax.Node
	switch args.Kind() {
	case syntax.KindStringExpr:
		strExpr = args
	case syntax.KindExprList:
		exprs := args.Children()
		if len(exprs) != 1 || exprs[0].Kind() != syntax.KindStringExpr {
			return
		}
		strExpr = exprs[0]
	default:
		return
	}
	if s, ok := stringExprValue(ix.tree, strExpr); ok {
		ix.fi.Requires = append(ix.fi.Requires, RequireEdge{
			Path: s,
			Span: n2span(strExpr),
			Node: syntax.Ptr{Tree: ix.tree, ID: n.ID},
		})
	}
}

func (ix *indexer) walkTableExpr(n syntax.Node, owner MemberOwner) {
	for _, field := range n.Children() {
		switch field.Kind() {
		case syntax.KindTableFieldPositional:
			for _, c := range field.Children() {
				ix.walkExpr(c, RefRead)
			}
		case syntax.KindTableFieldNamed:
			tok, _ := syntax.TableFieldName(field)
			valueChildren := field.Children()
			var value syntax.Node
			if len(valueChildren) > 0 {
				value = valueChildren[len(valueChildren)-1]
				ix.walkExpr(value, RefRead)
			}
			ix.fi.Members = append(ix.fi.Members, &Member{
				Key:      tokenText(ix.tree, tok),
				Type:     inferLiteralType(ix.tree, value),
				Kind:     MemberField,
				Owner:    owner,
				Location: Location{File: ix.file, Span: n2span(field)},
				Features: FeatureFileDecl,
			})
			ix.recordMemberKeyRef(tokenText(ix.tree, tok), tok.Span, field)
		case syntax.KindTableFieldIndexed:
			children := field.Children()
			if len(children) > 0 {
				ix.walkExpr(children[0], RefRead)
			}
			if len(children) > 1 {
				ix.walkExpr(children[1], RefRead)
			}
			if len(children) > 1 && children[0].Kind() == syntax.KindStringExpr {
				if s, ok := stringExprValue(ix.tree, children[0]); ok {
					ix.fi.Members = append(ix.fi.Members, &Member{
						Key:      s,
						Type:     inferLiteralType(ix.tree, children[1]),
						Kind:     MemberField,
						Owner:    owner,
						Location: Location{File: ix.file, Span: n2span(field)},
						Features: FeatureFileDecl,
					})
				}
			}
		}
	}
}

func stringExprValue(tree *syntax.Tree, n syntax.Node) (string, bool) {
	if n.Kind() != syntax.KindStringExpr {
		return "", false
	}
	return syntax.DecodeString(string(n.Text()))
}

// inferLiteralType gives a cheap, syntax-only type to a table field's
// initializer without involving the full inference engine, so member
// entries always carry some type even before C7 runs over the file.
func inferLiteralType(tree *syntax.Tree, n syntax.Node) ltypes.Type {
	if n.ID == syntax.NoNode {
		return ltypes.Unknown()
	}
	switch n.Kind() {
	case syntax.KindNilExpr:
		return ltypes.Nil()
	case syntax.KindTrueExpr:
		return ltypes.BooleanConst(true)
	case syntax.KindFalseExpr:
		return ltypes.BooleanConst(false)
	case syntax.KindStringExpr:
		if s, ok := stringExprValue(tree, n); ok {
			return ltypes.StringConst(s)
		}
		return ltypes.String()
	case syntax.KindNumberExpr:
		nv := syntax.DecodeNumber(string(n.Text()))
		if !nv.Valid {
			return ltypes.Number()
		}
		if nv.IsFloat {
			return ltypes.Number()
		}
		return ltypes.IntegerConst(nv.Int)
	case syntax.KindFunctionExpr:
		return ltypes.DocFunction(nil)
	case syntax.KindTableExpr:
		return ltypes.Table()
	default:
		return ltypes.Unknown()
	}
}
