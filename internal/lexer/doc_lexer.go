package lexer

import (
	"github.com/luaowl/luacore/internal/text"
)

// DocLexState names a lexer mode for scanning a doc-comment body. The parser
// drives the doc lexer by calling SetState before requesting each token,
// matching the nested-state-machine design in spec.md §4.1: the grammar for
// the text following a tag (a type expression, a bare description, a dotted
// path) differs enough from tag to tag that a single flat token stream can't
// express it, so the parser pushes the mode it expects next.
type DocLexState uint8

// DocLexState values.
const (
	DocStateInit DocLexState = iota
	DocStateNormal
	DocStateDescription
	DocStateVersion
	DocStateFieldStart
	DocStateSee
	DocStateSource
	DocStateAttributeUse
	DocStateCastExpr
	DocStateMapped
	DocStateExtends
	DocStateTrivia
)

var docTagKinds = map[string]TokenKind{
	"class":       TokenDocTagClass,
	"field":       TokenDocTagField,
	"type":        TokenDocTagType,
	"param":       TokenDocTagParam,
	"return":      TokenDocTagReturn,
	"alias":       TokenDocTagAlias,
	"enum":        TokenDocTagEnum,
	"cast":        TokenDocTagCast,
	"generic":     TokenDocTagGeneric,
	"overload":    TokenDocTagOverload,
	"see":         TokenDocTagSee,
	"export":      TokenDocTagExport,
	"meta":        TokenDocTagMeta,
	"diagnostic":  TokenDocTagDiagnostic,
	"source":      TokenDocTagSource,
	"version":     TokenDocTagVersion,
	"deprecated":  TokenDocTagDeprecated,
	"attribute":   TokenDocTagAttribute,
}

// DocLexer scans a single doc-comment body (the Body span of a TriviaDocComment)
// under external state control. Unlike the main scanner, it operates on a byte
// slice directly rather than producing leading trivia: doc comments have no
// nested whitespace-only trivia of their own, except in DocStateTrivia mode
// where free text runs (e.g. inside @see descriptions) are skipped verbatim.
type DocLexer struct {
	src   []byte // full file source
	i     int    // current byte offset, absolute into src
	end   int    // exclusive end of the comment body
	state DocLexState
}

// NewDocLexer creates a doc lexer over one comment's body span.
func NewDocLexer(src []byte, body text.Span) *DocLexer {
	return &DocLexer{src: src, i: int(body.Start), end: int(body.End), state: DocStateInit}
}

// SetState switches the lexer's mode before the next Next call. The parser
// calls this immediately after consuming a tag token, choosing the mode that
// matches the tag's grammar (e.g. DocStateCastExpr after @cast's name).
func (d *DocLexer) SetState(s DocLexState) {
	d.state = s
}

func (d *DocLexer) eof() bool { return d.i >= d.end }

func (d *DocLexer) peekByte(delta int) byte {
	j := d.i + delta
	if j < 0 || j >= d.end {
		return 0
	}
	return d.src[j]
}

func (d *DocLexer) skipHSpace() {
	for !d.eof() && isHorizontalSpace(d.src[d.i]) {
		d.i++
	}
}

// Next returns the next doc token. At end of body it returns TokenDocEOF
// repeatedly.
func (d *DocLexer) Next() Token {
	d.skipHSpace()
	if d.eof() {
		return Token{Kind: TokenDocEOF, Span: span(d.end, d.end)}
	}

	switch d.state {
	case DocStateDescription, DocStateSee, DocStateTrivia:
		return d.scanFreeText()
	case DocStateVersion:
		return d.scanVersion()
	case DocStateSource:
		return d.scanSourcePath()
	default:
		return d.scanStructured()
	}
}

// scanStructured tokenizes the structured grammar shared by tag heads, type
// expressions, parameter lists, and attribute/cast targets: @name, dotted
// Names, punctuation, and `?`.
func (d *DocLexer) scanStructured() Token {
	start := d.i
	b := d.src[d.i]

	switch {
	case b == '@':
		d.i++
		nameStart := d.i
		for !d.eof() && isIdentPart(d.src[d.i]) {
			d.i++
		}
		if d.i == nameStart {
			return Token{Kind: TokenDocAt, Span: span(start, d.i)}
		}
		tagText := string(d.src[nameStart:d.i])
		if kind, ok := docTagKinds[tagText]; ok {
			return Token{Kind: kind, Span: span(start, d.i)}
		}
		return Token{Kind: TokenDocName, Span: span(start, d.i), Flags: TokenFlagMalformed}
	case isIdentStart(b):
		d.i++
		for !d.eof() && (isIdentPart(d.src[d.i]) || d.src[d.i] == '.' || d.src[d.i] == ':') {
			if d.src[d.i] == '.' || d.src[d.i] == ':' {
				if !isIdentStart(d.peekByte(1)) {
					break
				}
			}
			d.i++
		}
		return Token{Kind: TokenDocName, Span: span(start, d.i)}
	case b == '.' && d.peekByte(1) == '.' && d.peekByte(2) == '.':
		d.i += 3
		return Token{Kind: TokenDocVariadic, Span: span(start, d.i)}
	case b == '?':
		d.i++
		return Token{Kind: TokenDocOptional, Span: span(start, d.i)}
	case b == ',':
		d.i++
		return Token{Kind: TokenDocComma, Span: span(start, d.i)}
	case b == ':':
		d.i++
		return Token{Kind: TokenDocColon, Span: span(start, d.i)}
	case b == '|':
		d.i++
		return Token{Kind: TokenDocPipe, Span: span(start, d.i)}
	case b == '&':
		d.i++
		return Token{Kind: TokenDocAmp, Span: span(start, d.i)}
	case b == '(':
		d.i++
		return Token{Kind: TokenDocLParen, Span: span(start, d.i)}
	case b == ')':
		d.i++
		return Token{Kind: TokenDocRParen, Span: span(start, d.i)}
	case b == '[':
		d.i++
		return Token{Kind: TokenDocLBracket, Span: span(start, d.i)}
	case b == ']':
		d.i++
		return Token{Kind: TokenDocRBracket, Span: span(start, d.i)}
	case b == '<':
		d.i++
		return Token{Kind: TokenDocLAngle, Span: span(start, d.i)}
	case b == '>':
		d.i++
		return Token{Kind: TokenDocRAngle, Span: span(start, d.i)}
	case b == '"' || b == '\'':
		return d.scanQuotedInStructured(b)
	case isDigit(b) || (b == '-' && isDigit(d.peekByte(1))):
		return d.scanDocNumber()
	default:
		d.i++
		return Token{Kind: TokenError, Span: span(start, d.i), Flags: TokenFlagMalformed}
	}
}

// scanDocNumber handles the small subset of Lua number syntax that shows up
// in doc-type literal constants (`1`, `-1`, `3.14`); it does not attempt hex
// or exponent forms, which don't occur in EmmyLua literal-type tags.
func (d *DocLexer) scanDocNumber() Token {
	start := d.i
	if d.src[d.i] == '-' {
		d.i++
	}
	isFloat := false
	for !d.eof() && isDigit(d.src[d.i]) {
		d.i++
	}
	if !d.eof() && d.src[d.i] == '.' && isDigit(d.peekByte(1)) {
		isFloat = true
		d.i++
		for !d.eof() && isDigit(d.src[d.i]) {
			d.i++
		}
	}
	if isFloat {
		return Token{Kind: TokenFloatLiteral, Span: span(start, d.i)}
	}
	return Token{Kind: TokenIntLiteral, Span: span(start, d.i)}
}

func (d *DocLexer) scanQuotedInStructured(quote byte) Token {
	start := d.i
	d.i++
	for !d.eof() && d.src[d.i] != quote {
		d.i++
	}
	if !d.eof() {
		d.i++
	}
	return Token{Kind: TokenDocName, Span: span(start, d.i)}
}

// scanFreeText consumes the remainder of the line (the body never spans
// multiple lines for a single token) as an opaque description run.
func (d *DocLexer) scanFreeText() Token {
	start := d.i
	for !d.eof() && d.src[d.i] != '\n' && d.src[d.i] != '\r' {
		d.i++
	}
	return Token{Kind: TokenDocText, Span: span(start, d.i)}
}

// scanVersion consumes a dotted version token, e.g. "5.1", ">5.2", "JIT".
func (d *DocLexer) scanVersion() Token {
	start := d.i
	for !d.eof() && d.src[d.i] != ',' && d.src[d.i] != '\n' && d.src[d.i] != '\r' &&
		!isHorizontalSpace(d.src[d.i]) {
		d.i++
	}
	return Token{Kind: TokenDocText, Span: span(start, d.i)}
}

// scanSourcePath consumes a `file:line` style @source path, left opaque for
// the parser to split on the trailing colon-number.
func (d *DocLexer) scanSourcePath() Token {
	start := d.i
	for !d.eof() && d.src[d.i] != '\n' && d.src[d.i] != '\r' {
		d.i++
	}
	return Token{Kind: TokenDocText, Span: span(start, d.i)}
}
