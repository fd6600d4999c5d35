package lexer

import (
	"fmt"

	"github.com/luaowl/luacore/internal/text"
)

// TriviaKind identifies non-token source segments attached as leading trivia.
type TriviaKind uint8

// TriviaKind values describe trivia categories.
const (
	TriviaWhitespace TriviaKind = iota
	TriviaNewline
	TriviaShebang     // #! on the first line
	TriviaLineComment // -- ... (not a doc comment)
	TriviaBlockComment
	TriviaDocComment // --- ... (line form only; long-bracket comments are TriviaBlockComment)
)

func (k TriviaKind) String() string {
	switch k {
	case TriviaWhitespace:
		return "Whitespace"
	case TriviaNewline:
		return "Newline"
	case TriviaShebang:
		return "Shebang"
	case TriviaLineComment:
		return "LineComment"
	case TriviaBlockComment:
		return "BlockComment"
	case TriviaDocComment:
		return "DocComment"
	default:
		return fmt.Sprintf("TriviaKind(%d)", k)
	}
}

// Trivia represents a non-token source span (whitespace/comments/newlines).
//
// DocComment trivia additionally records the byte span of its body (the text
// after the comment opener and before the trailing newline/closer) so the
// doc lexer in doc_lexer.go can be run over just that slice.
type Trivia struct {
	Kind TriviaKind
	Span text.Span // full comment span, including the opener/closer
	Body text.Span // body span; zero value for non-comment trivia
}

// Bytes returns the trivia bytes referenced by Span or nil if Span is invalid for src.
func (t Trivia) Bytes(src []byte) []byte {
	return bytesForSpan(src, t.Span)
}

// BodyBytes returns the comment body bytes, or nil if Body is invalid.
func (t Trivia) BodyBytes(src []byte) []byte {
	return bytesForSpan(src, t.Body)
}
