package syntax

import "github.com/luaowl/luacore/internal/lexer"

// PrecedingDocComment returns the parsed doc-comment tree immediately
// preceding n's first token, or nil if none is attached. "Immediately
// preceding" allows only whitespace and at most one newline between the
// comment and n's first token, matching EmmyLua's doc-to-declaration
// association rule: a doc comment separated from its target by a blank line
// does not attach to it.
func PrecedingDocComment(n Node) *Tree {
	nd := n.Tree.NodeByID(n.ID)
	if nd == nil {
		return nil
	}
	tok := n.Tree.TokenAt(nd.FirstToken)
	return precedingDocCommentForLeading(n.Tree, tok.Leading)
}

func precedingDocCommentForLeading(t *Tree, leading []lexer.Trivia) *Tree {
	docIdx := -1
	newlineCount := 0
	for i := len(leading) - 1; i >= 0; i-- {
		switch leading[i].Kind {
		case lexer.TriviaDocComment:
			docIdx = i
		case lexer.TriviaNewline:
			newlineCount++
			if newlineCount > 1 {
				docIdx = -1
			}
		case lexer.TriviaWhitespace:
			// ignored
		default:
		}
		if docIdx >= 0 {
			break
		}
		if newlineCount > 1 {
			break
		}
	}
	if docIdx < 0 {
		return nil
	}

	// Walk backward from docIdx to find the start of the contiguous `---`
	// run (each pair of doc-comment + single newline, per mergeDocCommentRun).
	start := docIdx
	for start-2 >= 0 && leading[start-2].Kind == lexer.TriviaDocComment && leading[start-1].Kind == lexer.TriviaNewline {
		start -= 2
	}

	body, _ := mergeDocCommentRun(leading, start)
	return ParseDocComment(t.Source, body)
}
