package syntax

import (
	"github.com/luaowl/luacore/internal/lexer"
	"github.com/luaowl/luacore/internal/text"
)

// ParseDocComment parses the body of a single doc-comment trivia span into a
// DocComment node tree, attached as a standalone root (callers attach it to
// the owning declaration by position, per spec.md §4.6's "nearest preceding
// doc comment" rule rather than by parse-time linkage).
//
// Consecutive `---` line-comment trivia are expected to have already been
// merged into one Body span by the caller (mergeDocCommentRun below) so a
// multi-line doc block parses as a single comment.
func ParseDocComment(src []byte, body text.Span) *Tree {
	dl := lexer.NewDocLexer(src, body)
	dp := &docParser{lex: dl, src: src}
	dp.b = newTreeBuilder()
	dp.refillFrom(lexer.DocStateNormal)

	root := dp.parseComment()
	fixupParents(dp.b.arena, root)

	return &Tree{
		Source:      src,
		Tokens:      dp.toks,
		Nodes:       dp.b.arena,
		Root:        root,
		Diagnostics: dp.diags,
	}
}

// mergeDocCommentRun finds the full run of consecutive `---` line trivia
// starting at index i in leading (no blank line or non-trivia gap between
// them) and returns the union span of their bodies, EmmyLua-style: a
// paragraph of doc lines is one logical comment.
func mergeDocCommentRun(trivia []lexer.Trivia, i int) (text.Span, int) {
	if i < 0 || i >= len(trivia) || trivia[i].Kind != lexer.TriviaDocComment {
		return text.Span{}, i
	}
	start := trivia[i].Body.Start
	end := trivia[i].Body.End
	j := i + 1
	for j+1 < len(trivia) {
		nl, doc := trivia[j], trivia[j+1]
		if nl.Kind != lexer.TriviaNewline || doc.Kind != lexer.TriviaDocComment {
			break
		}
		end = doc.Body.End
		j += 2
	}
	return text.Span{Start: start, End: end}, j
}

type docParser struct {
	lex   *lexer.DocLexer
	src   []byte
	b     *treeBuilder
	toks  []lexer.Token
	pos   int
	diags []Diagnostic
}

// refillFrom discards any buffered tokens from the current position onward
// and resumes lexing in a new state: parse methods call this whenever a
// tag's grammar for the remainder of the line differs from the structured
// token set (free-form descriptions, version lists, source paths).
func (dp *docParser) refillFrom(state lexer.DocLexState) {
	dp.toks = dp.toks[:dp.pos]
	dp.lex.SetState(state)
	for {
		tok := dp.lex.Next()
		dp.toks = append(dp.toks, tok)
		if tok.Kind == lexer.TokenDocEOF {
			return
		}
	}
}

func (dp *docParser) cur() lexer.Token {
	if dp.pos >= len(dp.toks) {
		return lexer.Token{Kind: lexer.TokenDocEOF}
	}
	return dp.toks[dp.pos]
}

func (dp *docParser) at(k lexer.TokenKind) bool { return dp.cur().Kind == k }

func (dp *docParser) bump() uint32 {
	idx := uint32(dp.pos)
	dp.b.token(idx)
	if dp.pos < len(dp.toks) {
		dp.pos++
	}
	return idx
}

func (dp *docParser) atEOF() bool { return dp.cur().Kind == lexer.TokenDocEOF }

func (dp *docParser) errorf(span text.Span, msg string) {
	dp.diags = append(dp.diags, Diagnostic{
		Code:     DiagnosticMalformedDocTag,
		Message:  msg,
		Severity: SeverityWarning,
		Span:     span,
		Source:   "doc-parser",
	})
}

// parseComment parses the sequence: leading free-form description lines,
// followed by any number of `@tag ...` entries.
func (dp *docParser) parseComment() NodeID {
	dp.b.open(KindDocComment, 0)

	for !dp.atEOF() && !isDocTagStart(dp.cur().Kind) {
		dp.refillFrom(lexer.DocStateDescription)
		dp.parseDescriptionLine()
	}

	for !dp.atEOF() {
		dp.parseTag()
	}

	return dp.b.close(dp.toks)
}

func (dp *docParser) parseDescriptionLine() {
	dp.b.open(KindDocDescription, uint32(dp.pos))
	if dp.at(lexer.TokenDocText) {
		dp.bump()
	}
	dp.b.close(dp.toks)
	dp.refillFrom(lexer.DocStateNormal)
}

func isDocTagStart(k lexer.TokenKind) bool {
	switch k {
	case lexer.TokenDocTagClass, lexer.TokenDocTagField, lexer.TokenDocTagType,
		lexer.TokenDocTagParam, lexer.TokenDocTagReturn, lexer.TokenDocTagAlias,
		lexer.TokenDocTagEnum, lexer.TokenDocTagCast, lexer.TokenDocTagGeneric,
		lexer.TokenDocTagOverload, lexer.TokenDocTagSee, lexer.TokenDocTagExport,
		lexer.TokenDocTagMeta, lexer.TokenDocTagDiagnostic, lexer.TokenDocTagSource,
		lexer.TokenDocTagVersion, lexer.TokenDocTagDeprecated, lexer.TokenDocTagAttribute:
		return true
	default:
		return false
	}
}

func (dp *docParser) parseTag() {
	switch dp.cur().Kind {
	case lexer.TokenDocTagClass:
		dp.parseClassTag()
	case lexer.TokenDocTagField:
		dp.parseFieldTag()
	case lexer.TokenDocTagType:
		dp.parseTypeTag()
	case lexer.TokenDocTagParam:
		dp.parseParamTag()
	case lexer.TokenDocTagReturn:
		dp.parseReturnTag()
	case lexer.TokenDocTagAlias:
		dp.parseAliasTag()
	case lexer.TokenDocTagEnum:
		dp.parseEnumTag()
	case lexer.TokenDocTagCast:
		dp.parseCastTag()
	case lexer.TokenDocTagGeneric:
		dp.parseGenericTag()
	case lexer.TokenDocTagOverload:
		dp.parseOverloadTag()
	case lexer.TokenDocTagSee:
		dp.parseSeeTag()
	case lexer.TokenDocTagExport:
		dp.parseSimpleTag(KindDocExportTag)
	case lexer.TokenDocTagMeta:
		dp.parseSimpleTag(KindDocMetaTag)
	case lexer.TokenDocTagDiagnostic:
		dp.parseDiagnosticTag()
	case lexer.TokenDocTagSource:
		dp.parseSourceTag()
	case lexer.TokenDocTagVersion:
		dp.parseVersionTag()
	case lexer.TokenDocTagDeprecated:
		dp.parseSimpleTag(KindDocDeprecatedTag)
	case lexer.TokenDocTagAttribute:
		dp.parseAttributeTag()
	default:
		dp.errorf(dp.cur().Span, "unrecognized doc tag")
		dp.bump()
	}
}

func (dp *docParser) parseSimpleTag(kind NodeKind) {
	dp.b.open(kind, uint32(dp.pos))
	dp.bump() // @tag
	dp.b.close(dp.toks)
}

func (dp *docParser) parseClassTag() {
	dp.b.open(KindDocClassTag, uint32(dp.pos))
	dp.bump() // @class
	if dp.at(lexer.TokenDocName) {
		dp.bump()
	}
	if dp.at(lexer.TokenDocColon) {
		dp.bump()
		dp.parseTypeExpr()
	}
	for dp.at(lexer.TokenDocComma) {
		dp.bump()
		dp.parseTypeExpr()
	}
	dp.b.close(dp.toks)
}

func (dp *docParser) parseFieldTag() {
	dp.b.open(KindDocFieldTag, uint32(dp.pos))
	dp.bump() // @field
	if dp.at(lexer.TokenDocName) {
		dp.bump()
	}
	if dp.at(lexer.TokenDocOptional) {
		dp.bump()
	}
	dp.parseTypeExpr()
	dp.b.close(dp.toks)
}

func (dp *docParser) parseTypeTag() {
	dp.b.open(KindDocTypeTag, uint32(dp.pos))
	dp.bump() // @type
	dp.parseTypeExpr()
	for dp.at(lexer.TokenDocPipe) {
		dp.bump()
		dp.parseTypeExpr()
	}
	dp.b.close(dp.toks)
}

func (dp *docParser) parseParamTag() {
	dp.b.open(KindDocParamTag, uint32(dp.pos))
	dp.bump() // @param
	if dp.at(lexer.TokenDocName) || dp.at(lexer.TokenDocVariadic) {
		dp.bump()
	}
	if dp.at(lexer.TokenDocOptional) {
		dp.bump()
	}
	dp.parseTypeExpr()
	dp.b.close(dp.toks)
}

func (dp *docParser) parseReturnTag() {
	dp.b.open(KindDocReturnTag, uint32(dp.pos))
	dp.bump() // @return
	dp.parseTypeExpr()
	for dp.at(lexer.TokenDocComma) {
		dp.bump()
		dp.parseTypeExpr()
	}
	if dp.at(lexer.TokenDocName) {
		dp.bump() // optional return-value name
	}
	dp.b.close(dp.toks)
}

func (dp *docParser) parseAliasTag() {
	dp.b.open(KindDocAliasTag, uint32(dp.pos))
	dp.bump() // @alias
	if dp.at(lexer.TokenDocName) {
		dp.bump()
	}
	if !dp.at(lexer.TokenDocEOF) {
		dp.parseTypeExpr()
	}
	dp.b.close(dp.toks)
}

func (dp *docParser) parseEnumTag() {
	dp.b.open(KindDocEnumTag, uint32(dp.pos))
	dp.bump() // @enum
	if dp.at(lexer.TokenDocName) {
		dp.bump()
	}
	if dp.at(lexer.TokenDocColon) {
		dp.bump()
		dp.parseTypeExpr()
	}
	dp.b.close(dp.toks)
}

func (dp *docParser) parseCastTag() {
	dp.b.open(KindDocCastTag, uint32(dp.pos))
	dp.bump() // @cast
	if dp.at(lexer.TokenDocName) {
		dp.bump()
	}
	for !dp.atEOF() {
		if dp.at(lexer.TokenPlus) || dp.at(lexer.TokenMinus) {
			dp.bump()
		}
		dp.parseTypeExpr()
		if dp.at(lexer.TokenDocComma) {
			dp.bump()
			continue
		}
		break
	}
	dp.b.close(dp.toks)
}

func (dp *docParser) parseGenericTag() {
	dp.b.open(KindDocGenericTag, uint32(dp.pos))
	dp.bump() // @generic
	for {
		dp.b.open(KindDocGenericParam, uint32(dp.pos))
		if dp.at(lexer.TokenDocName) {
			dp.bump()
		}
		if dp.at(lexer.TokenDocColon) {
			dp.bump()
			dp.parseTypeExpr()
		}
		dp.b.close(dp.toks)
		if dp.at(lexer.TokenDocComma) {
			dp.bump()
			continue
		}
		break
	}
	dp.b.close(dp.toks)
}

func (dp *docParser) parseOverloadTag() {
	dp.b.open(KindDocOverloadTag, uint32(dp.pos))
	dp.bump() // @overload
	dp.parseTypeExpr()
	dp.b.close(dp.toks)
}

func (dp *docParser) parseSeeTag() {
	dp.b.open(KindDocSeeTag, uint32(dp.pos))
	dp.bump() // @see
	dp.refillFrom(lexer.DocStateSee)
	if dp.at(lexer.TokenDocText) {
		dp.bump()
	}
	dp.b.close(dp.toks)
}

func (dp *docParser) parseDiagnosticTag() {
	dp.b.open(KindDocDiagnosticTag, uint32(dp.pos))
	dp.bump() // @diagnostic
	if dp.at(lexer.TokenDocName) {
		dp.bump() // disable / enable / disable-next-line / disable-line
	}
	if dp.at(lexer.TokenDocColon) {
		dp.bump()
		if dp.at(lexer.TokenDocName) {
			dp.bump()
		}
		for dp.at(lexer.TokenDocComma) {
			dp.bump()
			if dp.at(lexer.TokenDocName) {
				dp.bump()
			}
		}
	}
	dp.b.close(dp.toks)
}

func (dp *docParser) parseSourceTag() {
	dp.b.open(KindDocSourceTag, uint32(dp.pos))
	dp.bump() // @source
	dp.refillFrom(lexer.DocStateSource)
	if dp.at(lexer.TokenDocText) {
		dp.bump()
	}
	dp.b.close(dp.toks)
}

func (dp *docParser) parseVersionTag() {
	dp.b.open(KindDocVersionTag, uint32(dp.pos))
	dp.bump() // @version
	dp.refillFrom(lexer.DocStateVersion)
	for dp.at(lexer.TokenDocText) {
		dp.bump()
		if dp.at(lexer.TokenDocComma) {
			dp.bump()
			continue
		}
		break
	}
	dp.b.close(dp.toks)
}

func (dp *docParser) parseAttributeTag() {
	dp.b.open(KindDocAttributeTag, uint32(dp.pos))
	dp.bump() // @attribute
	dp.refillFrom(lexer.DocStateAttributeUse)
	if dp.at(lexer.TokenDocName) {
		dp.bump()
	}
	if dp.at(lexer.TokenDocLParen) {
		dp.bump()
		for !dp.at(lexer.TokenDocRParen) && !dp.atEOF() {
			dp.bump()
		}
		if dp.at(lexer.TokenDocRParen) {
			dp.bump()
		}
	}
	dp.b.close(dp.toks)
}

// --- Type expressions ------------------------------------------------

// parseTypeExpr parses a union of intersections of primary type terms,
// binding `|` looser than `&`.
func (dp *docParser) parseTypeExpr() NodeID {
	start := uint32(dp.pos)
	lhs := dp.parseTypeIntersection()
	if !dp.at(lexer.TokenDocPipe) {
		return lhs
	}
	dp.reopenAroundDoc(lhs, start, KindTypeUnion)
	for dp.at(lexer.TokenDocPipe) {
		dp.bump()
		dp.parseTypeIntersection()
	}
	return dp.b.close(dp.toks)
}

func (dp *docParser) parseTypeIntersection() NodeID {
	start := uint32(dp.pos)
	lhs := dp.parseTypePostfix()
	if !dp.at(lexer.TokenDocAmp) {
		return lhs
	}
	dp.reopenAroundDoc(lhs, start, KindTypeIntersection)
	for dp.at(lexer.TokenDocAmp) {
		dp.bump()
		dp.parseTypePostfix()
	}
	return dp.b.close(dp.toks)
}

// parseTypePostfix parses a primary type term followed by `[]` (array) and
// `?` (optional) postfix markers, which may stack (`string[]?`).
func (dp *docParser) parseTypePostfix() NodeID {
	start := uint32(dp.pos)
	id := dp.parseTypePrimary()
	for {
		switch {
		case dp.at(lexer.TokenDocLBracket):
			dp.reopenAroundDoc(id, start, KindTypeArray)
			dp.bump()
			if dp.at(lexer.TokenDocRBracket) {
				dp.bump()
			}
			id = dp.b.close(dp.toks)
		case dp.at(lexer.TokenDocOptional):
			dp.reopenAroundDoc(id, start, KindTypeOptional)
			dp.bump()
			id = dp.b.close(dp.toks)
		default:
			return id
		}
	}
}

func (dp *docParser) parseTypePrimary() NodeID {
	switch dp.cur().Kind {
	case lexer.TokenDocName:
		if dp.isFunKeyword() && dp.peekKind(1) == lexer.TokenDocLParen {
			return dp.parseTypeFunction()
		}
		start := uint32(dp.pos)
		dp.b.open(KindTypeName, start)
		dp.bump()
		if dp.at(lexer.TokenDocLAngle) {
			dp.reopenAroundDoc(dp.b.close(dp.toks), start, KindTypeGeneric)
			dp.bump()
			dp.parseTypeExpr()
			for dp.at(lexer.TokenDocComma) {
				dp.bump()
				dp.parseTypeExpr()
			}
			if dp.at(lexer.TokenDocRAngle) {
				dp.bump()
			}
			return dp.b.close(dp.toks)
		}
		return dp.b.close(dp.toks)
	case lexer.TokenDocLParen:
		return dp.parseTypeParenOrFunction()
	case lexer.TokenDocLBracket:
		return dp.parseTypeTuple()
	case lexer.TokenDocVariadic:
		dp.b.open(KindTypeVariadic, uint32(dp.pos))
		dp.bump()
		return dp.b.close(dp.toks)
	default:
		if dp.atEOF() {
			dp.b.open(KindTypeName, uint32(dp.pos))
			return dp.b.close(dp.toks)
		}
		dp.b.open(KindTypeLiteral, uint32(dp.pos))
		dp.bump()
		return dp.b.close(dp.toks)
	}
}

// parseTypeFunction parses EmmyLua's `fun(a: T, b?: U, ...: V): R, R2`
// function-type syntax, entered once parseTypePrimary sees a `fun` name
// immediately followed by `(`. Parameters are recorded as
// KindTypeFunctionParam children; any type expressions parsed afterward
// (following an optional `:`) are the return types, distinguished from
// params by position rather than by a separate wrapper node.
func (dp *docParser) parseTypeFunction() NodeID {
	dp.b.open(KindTypeFunction, uint32(dp.pos))
	dp.bump() // fun
	dp.bump() // (
	for !dp.at(lexer.TokenDocRParen) && !dp.atEOF() {
		dp.b.open(KindTypeFunctionParam, uint32(dp.pos))
		switch {
		case dp.at(lexer.TokenDocVariadic):
			dp.bump()
		case dp.at(lexer.TokenDocName):
			dp.bump()
		}
		if dp.at(lexer.TokenDocOptional) {
			dp.bump()
		}
		if dp.at(lexer.TokenDocColon) {
			dp.bump()
			dp.parseTypeExpr()
		}
		dp.b.close(dp.toks)
		if dp.at(lexer.TokenDocComma) {
			dp.bump()
			continue
		}
		break
	}
	if dp.at(lexer.TokenDocRParen) {
		dp.bump()
	}
	if dp.at(lexer.TokenDocColon) {
		dp.bump()
		dp.parseTypeExpr()
		for dp.at(lexer.TokenDocComma) {
			dp.bump()
			dp.parseTypeExpr()
		}
	}
	return dp.b.close(dp.toks)
}

// isFunKeyword reports whether the current token is the Name "fun", the
// spelling EmmyLua reserves for inline function-type annotations.
func (dp *docParser) isFunKeyword() bool {
	return string(dp.tokenText(dp.pos)) == "fun"
}

func (dp *docParser) peekKind(delta int) lexer.TokenKind {
	j := dp.pos + delta
	if j < 0 || j >= len(dp.toks) {
		return lexer.TokenDocEOF
	}
	return dp.toks[j].Kind
}

func (dp *docParser) tokenText(idx int) []byte {
	if idx < 0 || idx >= len(dp.toks) {
		return nil
	}
	sp := dp.toks[idx].Span
	if !sp.IsValid() || int(sp.End) > len(dp.src) {
		return nil
	}
	return dp.src[sp.Start:sp.End]
}

// parseTypeParenOrFunction parses a `(Type)` grouping. EmmyLua's function-type
// syntax is spelled `fun(...)` and is handled by parseTypeFunction instead,
// so a bare `(` here is always a grouping paren.
func (dp *docParser) parseTypeParenOrFunction() NodeID {
	start := uint32(dp.pos)
	dp.b.open(KindTypeParen, start)
	dp.bump() // (
	if !dp.at(lexer.TokenDocRParen) {
		dp.parseTypeExpr()
	}
	if dp.at(lexer.TokenDocRParen) {
		dp.bump()
	}
	return dp.b.close(dp.toks)
}

func (dp *docParser) parseTypeTuple() NodeID {
	dp.b.open(KindTypeTuple, uint32(dp.pos))
	dp.bump() // [
	for !dp.at(lexer.TokenDocRBracket) && !dp.atEOF() {
		dp.parseTypeExpr()
		if dp.at(lexer.TokenDocComma) {
			dp.bump()
			continue
		}
		break
	}
	if dp.at(lexer.TokenDocRBracket) {
		dp.bump()
	}
	return dp.b.close(dp.toks)
}

func (dp *docParser) reopenAroundDoc(inner NodeID, firstTok uint32, kind NodeKind) {
	dp.b.open(kind, firstTok)
	top := len(dp.b.stack) - 1
	pnode := &dp.b.stack[top]
	pnode.children = append(pnode.children, ChildRef{IsToken: false, Index: uint32(inner)})
	innerNode := dp.b.arena[inner]
	pnode.lastToken = innerNode.LastToken
	pnode.hasToken = true
}
