package diagnostic

import (
	"strings"

	"github.com/luaowl/luacore/internal/lexer"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/text"
)

// suppressionMode is the directive word following `@diagnostic`.
type suppressionMode uint8

const (
	modeDisable suppressionMode = iota
	modeEnable
	modeDisableNextLine
	modeDisableLine
)

type directive struct {
	mode  suppressionMode
	codes []Code // nil means "every code"
	pos   text.ByteOffset
	line  int // owning statement's first line, for the *-line modes
}

// Suppressions answers whether a diagnostic at a given code/span is covered
// by a `---@diagnostic ...` comment collected from a file, per spec §4.9.
type Suppressions struct {
	standing   []directive // disable/enable, sorted by pos
	lineScoped map[int][]directive
}

// CollectSuppressions scans tree for every `@diagnostic` doc tag attached to
// a statement and builds the lookup Covers uses.
func CollectSuppressions(tree *syntax.Tree) *Suppressions {
	s := &Suppressions{lineScoped: make(map[int][]directive)}

	syntax.Root(tree).Descendants(func(stmt syntax.Node) bool {
		if !isStatementKind(stmt.Kind()) {
			return true
		}
		doc := syntax.PrecedingDocComment(stmt)
		if doc == nil {
			return true
		}
		line := lineOf(tree, stmt.FirstToken().Span.Start)
		pos := stmt.FirstToken().Span.Start
		for _, tag := range syntax.Root(doc).ChildrenOfKind(syntax.KindDocDiagnosticTag) {
			d, ok := parseDiagnosticDirective(tag, pos, line)
			if !ok {
				continue
			}
			switch d.mode {
			case modeDisableNextLine, modeDisableLine:
				s.lineScoped[line] = append(s.lineScoped[line], d)
			default:
				s.standing = append(s.standing, d)
			}
		}
		return true
	})

	return s
}

func isStatementKind(k syntax.NodeKind) bool {
	switch k {
	case syntax.KindLocalStat, syntax.KindAssignStat, syntax.KindCallStat,
		syntax.KindIfStat, syntax.KindWhileStat, syntax.KindRepeatStat,
		syntax.KindNumericForStat, syntax.KindGenericForStat,
		syntax.KindFunctionStat, syntax.KindLocalFunctionStat,
		syntax.KindReturnStat, syntax.KindDoStat:
		return true
	default:
		return false
	}
}

func lineOf(tree *syntax.Tree, off text.ByteOffset) int {
	if tree.LineIndex == nil {
		return 0
	}
	p, err := tree.LineIndex.OffsetToPoint(off)
	if err != nil {
		return 0
	}
	return p.Line
}

// parseDiagnosticDirective reads the raw token children of a DocDiagnosticTag:
// a mode name, then an optional `: code, code, ...` list (doc_parser.go's
// parseDiagnosticTag grammar).
func parseDiagnosticDirective(tag syntax.Node, pos text.ByteOffset, line int) (directive, bool) {
	nd := tag.Tree.NodeByID(tag.ID)
	if nd == nil {
		return directive{}, false
	}

	var names []string
	for _, c := range nd.Children {
		if !c.IsToken {
			continue
		}
		if tok := tag.Tree.TokenAt(c.Index); tok.Kind == lexer.TokenDocName {
			names = append(names, strings.ToLower(string(tok.Bytes(tag.Tree.Source))))
		}
	}
	if len(names) == 0 {
		return directive{}, false
	}

	var mode suppressionMode
	switch names[0] {
	case "disable":
		mode = modeDisable
	case "enable":
		mode = modeEnable
	case "disable-next-line":
		mode = modeDisableNextLine
	case "disable-line":
		mode = modeDisableLine
	default:
		return directive{}, false
	}

	var codes []Code
	for _, n := range names[1:] {
		codes = append(codes, Code(n))
	}

	return directive{mode: mode, codes: codes, pos: pos, line: line}, true
}

func (d directive) covers(code Code) bool {
	if len(d.codes) == 0 {
		return true
	}
	for _, c := range d.codes {
		if c == code {
			return true
		}
	}
	return false
}

// Covers reports whether a diagnostic of code at span is suppressed.
func (s *Suppressions) Covers(tree *syntax.Tree, code Code, span text.Span) bool {
	if s == nil {
		return false
	}
	line := lineOf(tree, span.Start)

	for _, d := range s.lineScoped[line] {
		if d.covers(code) {
			return true
		}
	}

	suppressed := false
	for _, d := range s.standing {
		if d.pos > span.Start {
			break
		}
		if !d.covers(code) {
			continue
		}
		suppressed = d.mode == modeDisable
	}
	return suppressed
}
