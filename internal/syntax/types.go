// Package syntax builds a lossless, arena-backed syntax tree from Lua source
// via a hand-written recursive-descent parser. Nodes form an immutable
// "green" layer addressed by NodeID; red (parent-pointing) views are
// constructed on demand in ast.go so concurrent readers never contend on
// shared mutable state.
package syntax

import (
	"fmt"

	"github.com/luaowl/luacore/internal/lexer"
	"github.com/luaowl/luacore/internal/text"
)

// NodeID identifies a node in Tree.Nodes. Index 0 is the unused sentinel;
// real node ids are 1-based so the zero value means "no node".
type NodeID uint32

// NoNode is the sentinel value for the absence of a node.
const NoNode NodeID = 0

// ChildRef references either a token or a child node, in source order.
type ChildRef struct {
	IsToken bool
	Index   uint32 // token index into Tree.Tokens, or NodeID
}

// NodeFlags carry parser recovery metadata.
type NodeFlags uint8

const (
	// NodeFlagError marks a node synthesized to hold a recovery region.
	NodeFlagError NodeFlags = 1 << iota
	// NodeFlagMissing marks a node for which the parser inserted a
	// synthesized token to continue parsing past a missing piece of syntax.
	NodeFlagMissing
	// NodeFlagRecovered marks a subtree that contains parser error recovery.
	NodeFlagRecovered
)

// Has reports whether all bits in mask are set.
func (f NodeFlags) Has(mask NodeFlags) bool {
	return f&mask == mask
}

// nodeData is a CST node in source order with token coverage: the immutable
// "green" record stored in Tree.Nodes. Callers outside the package work with
// the [Node] view (Tree + ID) defined in ast.go instead of this type.
type nodeData struct {
	ID         NodeID
	Kind       NodeKind
	Span       text.Span
	FirstToken uint32 // inclusive index into Tree.Tokens
	LastToken  uint32 // inclusive index into Tree.Tokens
	Parent     NodeID
	Children   []ChildRef
	Flags      NodeFlags
}

func (n nodeData) String() string {
	return fmt.Sprintf("nodeData{id=%d kind=%s span=%s tokens=%d..%d}", n.ID, KindName(n.Kind), n.Span, n.FirstToken, n.LastToken)
}

// Severity is a diagnostic severity level.
type Severity uint8

// Severity values.
const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInfo
	SeverityHint
)

// DiagnosticCode identifies a syntax-layer diagnostic kind.
type DiagnosticCode string

// DiagnosticCode values produced by the parser (lexer diagnostics are
// reported with their own lexer.DiagnosticCode values and merged in by
// Parse).
const (
	DiagnosticUnexpectedToken  DiagnosticCode = "PARSE_UNEXPECTED_TOKEN"
	DiagnosticMissingToken     DiagnosticCode = "PARSE_MISSING_TOKEN"
	DiagnosticMalformedDocTag  DiagnosticCode = "PARSE_MALFORMED_DOC_TAG"
	DiagnosticInvalidNumber    DiagnosticCode = "PARSE_INVALID_NUMBER_LITERAL"
	DiagnosticInvalidEscape    DiagnosticCode = "PARSE_INVALID_STRING_ESCAPE"
)

// RelatedDiagnostic adds context to a diagnostic.
type RelatedDiagnostic struct {
	Message string
	Span    text.Span
}

// Diagnostic is a unified syntax diagnostic, covering both lexer and parser
// issues found while building a Tree.
type Diagnostic struct {
	Code     DiagnosticCode
	Message  string
	Severity Severity
	Span     text.Span
	Related  []RelatedDiagnostic
	Source   string // "lexer" | "parser" | "doc-parser"
}

// ParseOptions control parsing behavior.
type ParseOptions struct {
	URI         string
	LexerOpts   lexer.Options
	ParseDocTags bool // not read by Parse: doc comments always stay in token trivia and ParseDocComment parses them on demand
}

// DefaultParseOptions returns the options used when none are supplied.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{LexerOpts: lexer.DefaultOptions(), ParseDocTags: true}
}

// Tree is the immutable syntax parse result for one file.
type Tree struct {
	URI         string
	Source      []byte
	Tokens      []lexer.Token
	Nodes       []nodeData // index 0 is unused sentinel; real NodeIDs are 1-based
	Root        NodeID
	Diagnostics []Diagnostic
	LineIndex   *text.LineIndex
}

// NodeByID returns the raw node record for id or nil if not present.
func (t *Tree) NodeByID(id NodeID) *nodeData {
	if t == nil || id == NoNode {
		return nil
	}
	idx := int(id)
	if idx <= 0 || idx >= len(t.Nodes) {
		return nil
	}
	return &t.Nodes[idx]
}

// RootNode returns the root node's raw record, or nil.
func (t *Tree) RootNode() *nodeData {
	return t.NodeByID(t.Root)
}

// TokenAt returns the token at idx, or a Token of kind TokenEOF if out of
// range.
func (t *Tree) TokenAt(idx uint32) lexer.Token {
	if int(idx) >= len(t.Tokens) {
		return lexer.Token{Kind: lexer.TokenEOF}
	}
	return t.Tokens[idx]
}

// NodeText returns the exact source text spanned by id.
func (t *Tree) NodeText(id NodeID) []byte {
	n := t.NodeByID(id)
	if n == nil {
		return nil
	}
	if !n.Span.IsValid() || int(n.Span.End) > len(t.Source) {
		return nil
	}
	return t.Source[n.Span.Start:n.Span.End]
}

// ChildNodes returns the direct child node ids of id, in source order,
// skipping token children.
func (t *Tree) ChildNodes(id NodeID) []NodeID {
	n := t.NodeByID(id)
	if n == nil {
		return nil
	}
	out := make([]NodeID, 0, len(n.Children))
	for _, c := range n.Children {
		if !c.IsToken {
			out = append(out, NodeID(c.Index))
		}
	}
	return out
}

// HasErrors reports whether the tree contains any error-severity diagnostic.
func (t *Tree) HasErrors() bool {
	for _, d := range t.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
