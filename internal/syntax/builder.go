package syntax

import (
	"github.com/luaowl/luacore/internal/lexer"
	"github.com/luaowl/luacore/internal/text"
)

// treeBuilder assembles a Node arena bottom-up: open pushes a pending node
// whose first token is the next token to be consumed; tokens and finished
// child nodes are appended to the innermost pending node; close pops it,
// appends it to the arena, and records it as a child of its new parent.
//
// Parent links are not known until a node's parent itself closes, so they
// are filled in by a single walk from the root once parsing finishes
// (fixupParents below), rather than threaded through eagerly.
type treeBuilder struct {
	arena []nodeData
	stack []pending
}

type pending struct {
	kind       NodeKind
	firstToken uint32
	lastToken  uint32
	hasToken   bool
	children   []ChildRef
	flags      NodeFlags
}

func newTreeBuilder() *treeBuilder {
	return &treeBuilder{arena: []nodeData{{}}} // index 0 sentinel
}

// open starts a new node of kind at the given next-token index.
func (b *treeBuilder) open(kind NodeKind, nextTok uint32) {
	b.stack = append(b.stack, pending{kind: kind, firstToken: nextTok, lastToken: nextTok})
}

// token records consumption of the token at idx as a child of the current
// pending node.
func (b *treeBuilder) token(idx uint32) {
	top := len(b.stack) - 1
	if top < 0 {
		return
	}
	p := &b.stack[top]
	p.children = append(p.children, ChildRef{IsToken: true, Index: idx})
	p.lastToken = idx
	p.hasToken = true
}

// markFlag ORs extra flags into the current pending node.
func (b *treeBuilder) markFlag(f NodeFlags) {
	top := len(b.stack) - 1
	if top < 0 {
		return
	}
	b.stack[top].flags |= f
}

// close finishes the current pending node, appends it to the arena, and
// records it as a child of the new current top (if any). It returns the new
// node's id.
func (b *treeBuilder) close(tokens []lexer.Token) NodeID {
	top := len(b.stack) - 1
	p := b.stack[top]
	b.stack = b.stack[:top]

	id := NodeID(len(b.arena))
	n := nodeData{
		ID:         id,
		Kind:       p.kind,
		FirstToken: p.firstToken,
		LastToken:  p.lastToken,
		Children:   p.children,
		Flags:      p.flags,
	}
	n.Span = spanOfTokenRange(tokens, p.firstToken, p.lastToken)
	b.arena = append(b.arena, n)

	if newTop := len(b.stack) - 1; newTop >= 0 {
		parent := &b.stack[newTop]
		parent.children = append(parent.children, ChildRef{IsToken: false, Index: uint32(id)})
		if p.hasToken {
			parent.lastToken = p.lastToken
			parent.hasToken = true
		}
	}
	return id
}

func spanOfTokenRange(tokens []lexer.Token, first, last uint32) text.Span {
	if int(first) >= len(tokens) {
		if len(tokens) == 0 {
			return text.Span{}
		}
		last := tokens[len(tokens)-1]
		return text.Span{Start: last.Span.End, End: last.Span.End}
	}
	start := tokens[first].Span.Start
	endIdx := last
	if int(endIdx) >= len(tokens) {
		endIdx = uint32(len(tokens) - 1)
	}
	end := tokens[endIdx].Span.End
	if end < start {
		end = start
	}
	return text.Span{Start: start, End: end}
}

// fixupParents walks the arena from root and sets each child's Parent field.
func fixupParents(arena []nodeData, root NodeID) {
	var walk func(id NodeID)
	walk = func(id NodeID) {
		n := &arena[id]
		for _, c := range n.Children {
			if c.IsToken {
				continue
			}
			child := NodeID(c.Index)
			arena[child].Parent = id
			walk(child)
		}
	}
	if root != NoNode {
		walk(root)
	}
}
