package syntax

import (
	"github.com/luaowl/luacore/internal/lexer"
	"github.com/luaowl/luacore/internal/text"
)

// Ptr is a stable pointer to a node within a specific Tree: a (tree, id)
// pair cheap enough to store in indexes built over many files.
type Ptr struct {
	Tree *Tree
	ID   NodeID
}

// Kind returns the pointed-to node's kind, or KindNone if the pointer is nil.
func (p Ptr) Kind() NodeKind {
	if n := p.Tree.NodeByID(p.ID); n != nil {
		return n.Kind
	}
	return KindNone
}

// Node is a typed, read-only view over a tree node. Accessors for specific
// statement and expression kinds are the free functions below
// (LocalStatNames, CallArgs, FuncBodyParams, ...), which take a Node; Cast
// checks a node's kind.
type Node struct {
	Tree *Tree
	ID   NodeID
}

// Kind returns the node's kind.
func (n Node) Kind() NodeKind {
	if nd := n.Tree.NodeByID(n.ID); nd != nil {
		return nd.Kind
	}
	return KindNone
}

// Text returns the exact source text of the node.
func (n Node) Text() []byte { return n.Tree.NodeText(n.ID) }

// Parent returns the node's parent, or the zero Node if it has none.
func (n Node) Parent() Node {
	nd := n.Tree.NodeByID(n.ID)
	if nd == nil {
		return Node{}
	}
	return Node{Tree: n.Tree, ID: nd.Parent}
}

// Children returns the node's direct child nodes (token children are
// omitted).
func (n Node) Children() []Node {
	ids := n.Tree.ChildNodes(n.ID)
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{Tree: n.Tree, ID: id}
	}
	return out
}

// ChildOfKind returns the first direct child with the given kind.
func (n Node) ChildOfKind(kind NodeKind) (Node, bool) {
	for _, c := range n.Children() {
		if c.Kind() == kind {
			return c, true
		}
	}
	return Node{}, false
}

// ChildrenOfKind returns all direct children with the given kind.
func (n Node) ChildrenOfKind(kind NodeKind) []Node {
	var out []Node
	for _, c := range n.Children() {
		if c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out
}

// Descendants walks the subtree rooted at n in pre-order, including n
// itself.
func (n Node) Descendants(yield func(Node) bool) {
	if !yield(n) {
		return
	}
	for _, c := range n.Children() {
		done := false
		c.Descendants(func(d Node) bool {
			if !yield(d) {
				done = true
				return false
			}
			return true
		})
		if done {
			return
		}
	}
}

// Ancestors walks from n.Parent() up to the root.
func (n Node) Ancestors(yield func(Node) bool) {
	p := n.Parent()
	for p.ID != NoNode {
		if !yield(p) {
			return
		}
		p = p.Parent()
	}
}

// FirstToken returns the first token the node spans.
func (n Node) FirstToken() lexer.Token {
	nd := n.Tree.NodeByID(n.ID)
	if nd == nil {
		return lexer.Token{Kind: lexer.TokenEOF}
	}
	return n.Tree.TokenAt(nd.FirstToken)
}

// Span returns the byte range the node covers.
func (n Node) Span() text.Span {
	nd := n.Tree.NodeByID(n.ID)
	if nd == nil {
		return text.Span{}
	}
	return nd.Span
}

// NameToken returns the first direct Name token, used by nodes whose
// grammar consists of `Name` immediately following a keyword (labels, goto
// targets, for-loop variables).
func (n Node) NameToken() (lexer.Token, bool) {
	nd := n.Tree.NodeByID(n.ID)
	if nd == nil {
		return lexer.Token{}, false
	}
	for _, c := range nd.Children {
		if c.IsToken {
			tok := n.Tree.TokenAt(c.Index)
			if tok.Kind == lexer.TokenName {
				return tok, true
			}
		}
	}
	return lexer.Token{}, false
}

// Root returns a typed view of the tree's root chunk node.
func Root(t *Tree) Node {
	return Node{Tree: t, ID: t.Root}
}

// Cast narrows n to kind, returning the zero Node and false on mismatch.
func Cast(n Node, kind NodeKind) (Node, bool) {
	if n.Kind() != kind {
		return Node{}, false
	}
	return n, true
}

// LocalStatNames returns the Name tokens declared by a LocalStat or
// LocalFunctionStat node (for LocalFunctionStat, the single function name).
func LocalStatNames(n Node) []lexer.Token {
	if n.Kind() == KindLocalFunctionStat {
		if tok, ok := n.NameToken(); ok {
			return []lexer.Token{tok}
		}
		return nil
	}
	nd := n.Tree.NodeByID(n.ID)
	if nd == nil {
		return nil
	}
	var names []lexer.Token
	for _, c := range nd.Children {
		if !c.IsToken {
			continue
		}
		tok := n.Tree.TokenAt(c.Index)
		if tok.Kind == lexer.TokenName {
			names = append(names, tok)
		}
	}
	return names
}

// LocalStatInitExprs returns the ExprList child of a LocalStat, if present.
func LocalStatInitExprs(n Node) (Node, bool) {
	return n.ChildOfKind(KindExprList)
}

// AssignStatTargets returns the suffixed-expression targets of an assignment
// (everything before the `=`): all direct children that aren't the trailing
// ExprList.
func AssignStatTargets(n Node) []Node {
	children := n.Children()
	if len(children) == 0 {
		return nil
	}
	if last := children[len(children)-1]; last.Kind() == KindExprList {
		return children[:len(children)-1]
	}
	return children
}

// AssignStatValues returns the right-hand-side ExprList of an assignment.
func AssignStatValues(n Node) (Node, bool) {
	return n.ChildOfKind(KindExprList)
}

// CallStatCall returns the single call expression inside a CallStat.
func CallStatCall(n Node) (Node, bool) {
	children := n.Children()
	if len(children) != 1 {
		return Node{}, false
	}
	k := children[0].Kind()
	if k == KindCallExpr || k == KindMethodCallExpr {
		return children[0], true
	}
	return Node{}, false
}

// BinaryExprParts returns the left operand, operator token, and right
// operand of a BinaryExpr node.
func BinaryExprParts(n Node) (left Node, op lexer.Token, right Node, ok bool) {
	nd := n.Tree.NodeByID(n.ID)
	if nd == nil || len(nd.Children) != 3 {
		return Node{}, lexer.Token{}, Node{}, false
	}
	if nd.Children[0].IsToken || !nd.Children[1].IsToken || nd.Children[2].IsToken {
		return Node{}, lexer.Token{}, Node{}, false
	}
	left = Node{Tree: n.Tree, ID: NodeID(nd.Children[0].Index)}
	op = n.Tree.TokenAt(nd.Children[1].Index)
	right = Node{Tree: n.Tree, ID: NodeID(nd.Children[2].Index)}
	return left, op, right, true
}

// UnaryExprParts returns the operator token and operand of a UnaryExpr node.
func UnaryExprParts(n Node) (op lexer.Token, operand Node, ok bool) {
	nd := n.Tree.NodeByID(n.ID)
	if nd == nil || len(nd.Children) != 2 || !nd.Children[0].IsToken || nd.Children[1].IsToken {
		return lexer.Token{}, Node{}, false
	}
	op = n.Tree.TokenAt(nd.Children[0].Index)
	operand = Node{Tree: n.Tree, ID: NodeID(nd.Children[1].Index)}
	return op, operand, true
}

// IndexExprBase returns the object being indexed by a DotIndexExpr or
// BracketIndexExpr.
func IndexExprBase(n Node) (Node, bool) {
	children := n.Children()
	if len(children) == 0 {
		return Node{}, false
	}
	return children[0], true
}

// DotIndexName returns the field-name token of a DotIndexExpr.
func DotIndexName(n Node) (lexer.Token, bool) {
	return n.NameToken()
}

// CallArgs returns the argument list (ExprList, TableExpr, or StringExpr) of
// a CallExpr or MethodCallExpr, if any positional args were given.
func CallArgs(n Node) (Node, bool) {
	children := n.Children()
	for i := len(children) - 1; i >= 1; i-- {
		k := children[i].Kind()
		if k == KindExprList || k == KindTableExpr || k == KindStringExpr {
			return children[i], true
		}
	}
	return Node{}, false
}

// MethodCallName returns the method-name token of a MethodCallExpr.
func MethodCallName(n Node) (lexer.Token, bool) {
	return n.NameToken()
}

// FuncBodyParams returns the ParamList child of a FuncBody node.
func FuncBodyParams(n Node) (Node, bool) {
	return n.ChildOfKind(KindParamList)
}

// ParamListNames returns the parameter Name tokens; a trailing `...` is
// reported separately via ParamListHasVararg.
func ParamListNames(n Node) []lexer.Token {
	nd := n.Tree.NodeByID(n.ID)
	if nd == nil {
		return nil
	}
	var names []lexer.Token
	for _, c := range nd.Children {
		if !c.IsToken {
			continue
		}
		tok := n.Tree.TokenAt(c.Index)
		if tok.Kind == lexer.TokenName {
			names = append(names, tok)
		}
	}
	return names
}

// ParamListHasVararg reports whether the parameter list ends with `...`.
func ParamListHasVararg(n Node) bool {
	nd := n.Tree.NodeByID(n.ID)
	if nd == nil {
		return false
	}
	for _, c := range nd.Children {
		if c.IsToken && n.Tree.TokenAt(c.Index).Kind == lexer.TokenEllipsis {
			return true
		}
	}
	return false
}

// TableFieldName returns the key token of a TableFieldNamed node.
func TableFieldName(n Node) (lexer.Token, bool) {
	return n.NameToken()
}
