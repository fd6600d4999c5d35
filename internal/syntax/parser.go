package syntax

import (
	"context"
	"fmt"

	"github.com/luaowl/luacore/internal/lexer"
	"github.com/luaowl/luacore/internal/text"
)

// Parse tokenizes and parses src into a lossless syntax tree using a
// hand-written recursive-descent parser. Its only error is a cancelled ctx
// (checked once before lexing), which returns a nil tree; malformed input
// produces error nodes and diagnostics rather than a nil tree, so callers
// can always render an outline and keep editing responsive.
func Parse(ctx context.Context, src []byte, opts ParseOptions) (*Tree, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lexRes := lexer.Lex(src, opts.LexerOpts)

	p := &parser{
		src:     src,
		tokens:  lexRes.Tokens,
		b:       newTreeBuilder(),
		options: opts,
	}
	root := p.parseChunk()
	fixupParents(p.b.arena, root)

	diags := make([]Diagnostic, 0, len(lexRes.Diagnostics)+len(p.diags))
	for _, d := range lexRes.Diagnostics {
		diags = append(diags, Diagnostic{
			Code:     DiagnosticCode(d.Code),
			Message:  d.Message,
			Severity: SeverityError,
			Span:     d.Span,
			Source:   "lexer",
		})
	}
	diags = append(diags, p.diags...)

	tree := &Tree{
		URI:         opts.URI,
		Source:      src,
		Tokens:      p.tokens,
		Nodes:       p.b.arena,
		Root:        root,
		Diagnostics: diags,
		LineIndex:   text.NewLineIndex(src),
	}
	return tree, nil
}

// parser drives the treeBuilder over a flat token stream. It never consumes
// leading trivia directly: trivia travels with its token and is rendered
// transparently by NodeText/Token.Bytes.
type parser struct {
	src     []byte
	tokens  []lexer.Token
	pos     int
	b       *treeBuilder
	options ParseOptions
	diags   []Diagnostic
}

func (p *parser) cur() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *parser) curKind() lexer.TokenKind { return p.cur().Kind }

func (p *parser) at(k lexer.TokenKind) bool { return p.curKind() == k }

func (p *parser) atAny(ks ...lexer.TokenKind) bool {
	c := p.curKind()
	for _, k := range ks {
		if c == k {
			return true
		}
	}
	return false
}

func (p *parser) bump() uint32 {
	idx := uint32(p.pos)
	p.b.token(idx)
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return idx
}

// expect consumes k if present; otherwise it records a diagnostic and leaves
// the cursor in place (error recovery happens at the statement level).
func (p *parser) expect(k lexer.TokenKind) bool {
	if p.at(k) {
		p.bump()
		return true
	}
	p.errorf(DiagnosticMissingToken, p.cur().Span, "expected %s, found %s", k, p.curKind())
	return false
}

func (p *parser) errorf(code DiagnosticCode, span text.Span, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
		Span:     span,
		Source:   "parser",
	})
}

// bumpAsError consumes the current token into an ErrorExpr/ErrorStat-flagged
// node so malformed input still advances instead of looping forever.
func (p *parser) bumpAsError(kind NodeKind) NodeID {
	p.b.open(kind, uint32(p.pos))
	if !p.atEOF() {
		p.bump()
	}
	p.b.markFlag(NodeFlagError)
	return p.b.close(p.tokens)
}

func (p *parser) atEOF() bool { return p.curKind() == lexer.TokenEOF }

// --- Chunk / Block ---------------------------------------------------

func (p *parser) parseChunk() NodeID {
	p.b.open(KindChunk, uint32(p.pos))
	p.parseStatList(nil)
	// A `return` ends a block's statement list early per Lua grammar; any
	// further top-level tokens (a syntax error) are still captured as error
	// statements so the tree accounts for every token instead of silently
	// dropping a tail.
	for !p.atEOF() {
		before := p.pos
		p.parseStatement()
		if p.pos == before {
			p.bumpAsError(KindErrorStat)
		}
	}
	return p.b.close(p.tokens)
}

// blockEnders lists tokens that terminate a statement list when encountered.
var blockEnders = []lexer.TokenKind{
	lexer.TokenEOF, lexer.TokenKwEnd, lexer.TokenKwElse, lexer.TokenKwElseif,
	lexer.TokenKwUntil,
}

func (p *parser) parseBlock() NodeID {
	p.b.open(KindBlock, uint32(p.pos))
	p.parseStatList(nil)
	return p.b.close(p.tokens)
}

func (p *parser) parseStatList(extraEnders []lexer.TokenKind) {
	for {
		if p.atAny(blockEnders...) || p.atAny(extraEnders...) {
			return
		}
		before := p.pos
		wasReturn := p.curKind() == lexer.TokenKwReturn
		p.parseStatement()
		if p.pos == before {
			// Parser made no progress; consume one token as an error to
			// guarantee termination.
			p.bumpAsError(KindErrorStat)
		}
		if wasReturn {
			// return must be the last statement in a block.
			return
		}
	}
}

// --- Statements --------------------------------------------------------

func (p *parser) parseStatement() {
	switch p.curKind() {
	case lexer.TokenSemi:
		p.b.open(KindEmptyStat, uint32(p.pos))
		p.bump()
		p.b.close(p.tokens)
	case lexer.TokenDColon:
		p.parseLabelStat()
	case lexer.TokenKwBreak:
		p.b.open(KindBreakStat, uint32(p.pos))
		p.bump()
		p.b.close(p.tokens)
	case lexer.TokenKwContinue:
		p.b.open(KindContinueStat, uint32(p.pos))
		p.bump()
		p.b.close(p.tokens)
	case lexer.TokenKwGoto:
		p.b.open(KindGotoStat, uint32(p.pos))
		p.bump()
		p.expect(lexer.TokenName)
		p.b.close(p.tokens)
	case lexer.TokenKwDo:
		p.b.open(KindDoStat, uint32(p.pos))
		p.bump()
		p.parseBlock()
		p.expect(lexer.TokenKwEnd)
		p.b.close(p.tokens)
	case lexer.TokenKwWhile:
		p.parseWhileStat()
	case lexer.TokenKwRepeat:
		p.parseRepeatStat()
	case lexer.TokenKwIf:
		p.parseIfStat()
	case lexer.TokenKwFor:
		p.parseForStat()
	case lexer.TokenKwFunction:
		p.parseFunctionStat()
	case lexer.TokenKwLocal:
		p.parseLocalStat()
	case lexer.TokenKwReturn:
		p.parseReturnStat()
	default:
		p.parseExprStat()
	}
}

func (p *parser) parseLabelStat() {
	p.b.open(KindLabelStat, uint32(p.pos))
	p.bump() // ::
	p.expect(lexer.TokenName)
	p.expect(lexer.TokenDColon)
	p.b.close(p.tokens)
}

func (p *parser) parseWhileStat() {
	p.b.open(KindWhileStat, uint32(p.pos))
	p.bump() // while
	p.parseExpr()
	p.expect(lexer.TokenKwDo)
	p.parseBlock()
	p.expect(lexer.TokenKwEnd)
	p.b.close(p.tokens)
}

func (p *parser) parseRepeatStat() {
	p.b.open(KindRepeatStat, uint32(p.pos))
	p.bump() // repeat
	p.parseBlock()
	p.expect(lexer.TokenKwUntil)
	p.parseExpr()
	p.b.close(p.tokens)
}

func (p *parser) parseIfStat() {
	p.b.open(KindIfStat, uint32(p.pos))
	p.bump() // if
	p.parseExpr()
	p.expect(lexer.TokenKwThen)
	p.parseBlock()

	for p.at(lexer.TokenKwElseif) {
		p.b.open(KindElseifClause, uint32(p.pos))
		p.bump()
		p.parseExpr()
		p.expect(lexer.TokenKwThen)
		p.parseBlock()
		p.b.close(p.tokens)
	}

	if p.at(lexer.TokenKwElse) {
		p.b.open(KindElseClause, uint32(p.pos))
		p.bump()
		p.parseBlock()
		p.b.close(p.tokens)
	}

	p.expect(lexer.TokenKwEnd)
	p.b.close(p.tokens)
}

func (p *parser) parseForStat() {
	start := p.pos
	// Lookahead: `for Name =` is numeric; `for NameList in` is generic.
	if p.tokens[minInt(start+1, len(p.tokens)-1)].Kind == lexer.TokenName {
		j := start + 2
		if j < len(p.tokens) && p.tokens[j].Kind == lexer.TokenAssign {
			p.parseNumericForStat()
			return
		}
	}
	p.parseGenericForStat()
}

func (p *parser) parseNumericForStat() {
	p.b.open(KindNumericForStat, uint32(p.pos))
	p.bump() // for
	p.expect(lexer.TokenName)
	p.expect(lexer.TokenAssign)
	p.parseExpr()
	p.expect(lexer.TokenComma)
	p.parseExpr()
	if p.at(lexer.TokenComma) {
		p.bump()
		p.parseExpr()
	}
	p.expect(lexer.TokenKwDo)
	p.parseBlock()
	p.expect(lexer.TokenKwEnd)
	p.b.close(p.tokens)
}

func (p *parser) parseGenericForStat() {
	p.b.open(KindGenericForStat, uint32(p.pos))
	p.bump() // for
	p.parseNameList()
	p.expect(lexer.TokenKwIn)
	p.parseExprList()
	p.expect(lexer.TokenKwDo)
	p.parseBlock()
	p.expect(lexer.TokenKwEnd)
	p.b.close(p.tokens)
}

func (p *parser) parseFunctionStat() {
	p.b.open(KindFunctionStat, uint32(p.pos))
	p.bump() // function
	p.parseFuncName()
	p.parseFuncBody(false)
	p.b.close(p.tokens)
}

func (p *parser) parseFuncName() {
	p.b.open(KindFuncName, uint32(p.pos))
	p.expect(lexer.TokenName)
	for p.at(lexer.TokenDot) {
		p.bump()
		p.expect(lexer.TokenName)
	}
	if p.at(lexer.TokenColon) {
		p.bump()
		p.expect(lexer.TokenName)
	}
	p.b.close(p.tokens)
}

func (p *parser) parseLocalStat() {
	p.b.open(KindLocalStat, uint32(p.pos))
	p.bump() // local
	if p.at(lexer.TokenKwFunction) {
		p.bumpLocalFunctionTail()
		return
	}

	p.expect(lexer.TokenName)
	p.maybeParseAttrib()
	for p.at(lexer.TokenComma) {
		p.bump()
		p.expect(lexer.TokenName)
		p.maybeParseAttrib()
	}
	if p.at(lexer.TokenAssign) {
		p.bump()
		p.parseExprList()
	}
	p.b.close(p.tokens)
}

// bumpLocalFunctionTail reopens the current LocalStat as a LocalFunctionStat
// once `local function` is recognized: the KindLocalStat node already opened
// by parseLocalStat is retagged by changing its kind in place, since its only
// child so far is the `local` keyword token.
func (p *parser) bumpLocalFunctionTail() {
	top := len(p.b.stack) - 1
	p.b.stack[top].kind = KindLocalFunctionStat
	p.bump() // function
	p.expect(lexer.TokenName)
	p.parseFuncBody(false)
	p.b.close(p.tokens)
}

func (p *parser) maybeParseAttrib() {
	if !p.at(lexer.TokenLt) {
		return
	}
	p.b.open(KindAttrib, uint32(p.pos))
	p.bump() // <
	p.expect(lexer.TokenName)
	p.expect(lexer.TokenGt)
	p.b.close(p.tokens)
}

func (p *parser) parseReturnStat() {
	p.b.open(KindReturnStat, uint32(p.pos))
	p.bump() // return
	if !p.atAny(blockEnders...) && !p.at(lexer.TokenSemi) {
		p.parseExprList()
	}
	if p.at(lexer.TokenSemi) {
		p.bump()
	}
	p.b.close(p.tokens)
}

func (p *parser) parseExprStat() {
	start := p.pos
	p.b.open(KindAssignStat, uint32(p.pos))
	p.parseSuffixedExpr()

	if p.atAny(lexer.TokenAssign, lexer.TokenComma) {
		for p.at(lexer.TokenComma) {
			p.bump()
			p.parseSuffixedExpr()
		}
		p.expect(lexer.TokenAssign)
		p.parseExprList()
		p.b.close(p.tokens)
		return
	}

	// Not an assignment: must have been a call expression statement. Retag
	// the node kind in place (no separate children were added besides the
	// single suffixed-expr subtree).
	top := len(p.b.stack) - 1
	if top >= 0 {
		p.b.stack[top].kind = KindCallStat
	}
	if p.pos == start {
		p.bumpAsError(KindErrorStat)
		p.b.close(p.tokens)
		return
	}
	p.b.close(p.tokens)
}

// --- Lists ---------------------------------------------------------------

func (p *parser) parseNameList() {
	p.b.open(KindNameList, uint32(p.pos))
	p.expect(lexer.TokenName)
	for p.at(lexer.TokenComma) {
		p.bump()
		p.expect(lexer.TokenName)
	}
	p.b.close(p.tokens)
}

func (p *parser) parseExprList() {
	p.b.open(KindExprList, uint32(p.pos))
	p.parseExpr()
	for p.at(lexer.TokenComma) {
		p.bump()
		p.parseExpr()
	}
	p.b.close(p.tokens)
}

// --- Expressions -----------------------------------------------------

// binaryPrec implements Lua's standard precedence table (higher binds
// tighter); `..` and `^` are right-associative.
type opInfo struct {
	left, right int
}

var binaryPrec = map[lexer.TokenKind]opInfo{
	lexer.TokenKwOr:  {1, 1},
	lexer.TokenKwAnd: {2, 2},
	lexer.TokenPipePipe: {1, 1},
	lexer.TokenAmpAmp:   {2, 2},
	lexer.TokenLt: {3, 3}, lexer.TokenGt: {3, 3}, lexer.TokenLe: {3, 3},
	lexer.TokenGe: {3, 3}, lexer.TokenNe: {3, 3}, lexer.TokenEq: {3, 3},
	lexer.TokenBangEq: {3, 3},
	lexer.TokenPipe:    {4, 4},
	lexer.TokenTilde:   {5, 5},
	lexer.TokenAmp:     {6, 6},
	lexer.TokenLShift:  {7, 7},
	lexer.TokenRShift:  {7, 7},
	lexer.TokenConcat:  {9, 8}, // right-assoc
	lexer.TokenPlus:    {10, 10},
	lexer.TokenMinus:   {10, 10},
	lexer.TokenStar:    {11, 11},
	lexer.TokenSlash:   {11, 11},
	lexer.TokenDSlash:  {11, 11},
	lexer.TokenPercent: {11, 11},
	lexer.TokenCaret:   {14, 13}, // right-assoc, binds tighter than unary
}

const unaryPrec = 12

func (p *parser) parseExpr() NodeID { return p.parseBinExpr(0) }

// parseBinExpr implements precedence climbing. A BinaryExpr node is only
// opened once an operator is actually seen, so a bare literal or name never
// picks up a redundant wrapper.
func (p *parser) parseBinExpr(minPrec int) NodeID {
	start := uint32(p.pos)
	lhs := p.parseUnaryExpr()

	for {
		info, ok := binaryPrec[p.curKind()]
		if !ok || info.left <= minPrec {
			return lhs
		}
		p.reopenAround(lhs, start, KindBinaryExpr)
		p.bump() // operator
		p.parseBinExpr(info.right)
		lhs = p.b.close(p.tokens)
	}
}

func (p *parser) parseUnaryExpr() NodeID {
	switch p.curKind() {
	case lexer.TokenKwNot, lexer.TokenMinus, lexer.TokenHash, lexer.TokenTilde, lexer.TokenBang:
		p.b.open(KindUnaryExpr, uint32(p.pos))
		p.bump()
		p.parseBinExpr(unaryPrec)
		return p.b.close(p.tokens)
	default:
		return p.parseSimpleExpr()
	}
}

func (p *parser) parseSimpleExpr() NodeID {
	switch p.curKind() {
	case lexer.TokenKwNil:
		return p.leafExpr(KindNilExpr)
	case lexer.TokenKwTrue:
		return p.leafExpr(KindTrueExpr)
	case lexer.TokenKwFalse:
		return p.leafExpr(KindFalseExpr)
	case lexer.TokenIntLiteral, lexer.TokenFloatLiteral:
		return p.leafExpr(KindNumberExpr)
	case lexer.TokenStringLiteral:
		return p.leafExpr(KindStringExpr)
	case lexer.TokenEllipsis:
		return p.leafExpr(KindVarargExpr)
	case lexer.TokenKwFunction:
		p.b.open(KindFunctionExpr, uint32(p.pos))
		p.bump()
		p.parseFuncBody(false)
		return p.b.close(p.tokens)
	case lexer.TokenLBrace:
		return p.parseTableExpr()
	default:
		return p.parseSuffixedExpr()
	}
}

func (p *parser) leafExpr(kind NodeKind) NodeID {
	p.b.open(kind, uint32(p.pos))
	p.bump()
	return p.b.close(p.tokens)
}

// parsePrimaryExpr parses a Name or parenthesized expression, the base of a
// suffix chain.
func (p *parser) parsePrimaryExpr() NodeID {
	switch p.curKind() {
	case lexer.TokenName:
		return p.leafExpr(KindNameExpr)
	case lexer.TokenLParen:
		p.b.open(KindParenExpr, uint32(p.pos))
		p.bump()
		p.parseExpr()
		p.expect(lexer.TokenRParen)
		return p.b.close(p.tokens)
	default:
		return p.bumpAsError(KindErrorExpr)
	}
}

// parseSuffixedExpr parses a primary expression followed by any number of
// `.name`, `[expr]`, `:name(args)`, and `(args)`/`{table}`/string-literal
// call suffixes.
func (p *parser) parseSuffixedExpr() NodeID {
	start := uint32(p.pos)
	id := p.parsePrimaryExpr()

	for {
		switch p.curKind() {
		case lexer.TokenDot:
			p.reopenAround(id, start, KindDotIndexExpr)
			p.bump()
			p.expect(lexer.TokenName)
			id = p.b.close(p.tokens)
		case lexer.TokenLBracket:
			p.reopenAround(id, start, KindBracketIndexExpr)
			p.bump()
			p.parseExpr()
			p.expect(lexer.TokenRBracket)
			id = p.b.close(p.tokens)
		case lexer.TokenColon:
			p.reopenAround(id, start, KindMethodCallExpr)
			p.bump()
			p.expect(lexer.TokenName)
			p.parseCallArgs()
			id = p.b.close(p.tokens)
		case lexer.TokenLParen, lexer.TokenLBrace, lexer.TokenStringLiteral:
			p.reopenAround(id, start, KindCallExpr)
			p.parseCallArgs()
			id = p.b.close(p.tokens)
		default:
			return id
		}
	}
}

// reopenAround re-opens a node of kind that will contain the
// already-closed node `inner` as its first child, by pushing a new pending
// node and immediately attaching inner.
func (p *parser) reopenAround(inner NodeID, firstTok uint32, kind NodeKind) {
	// close already attached inner to the enclosing pending node; detach it
	// there so it ends up with the new node as its only parent.
	if top := len(p.b.stack) - 1; top >= 0 {
		outer := &p.b.stack[top]
		if n := len(outer.children); n > 0 && !outer.children[n-1].IsToken && NodeID(outer.children[n-1].Index) == inner {
			outer.children = outer.children[:n-1]
		}
	}
	p.b.open(kind, firstTok)
	top := len(p.b.stack) - 1
	pnode := &p.b.stack[top]
	pnode.children = append(pnode.children, ChildRef{IsToken: false, Index: uint32(inner)})
	innerNode := p.b.arena[inner]
	pnode.lastToken = innerNode.LastToken
	pnode.hasToken = true
}

func (p *parser) parseCallArgs() {
	switch p.curKind() {
	case lexer.TokenLParen:
		p.bump()
		if !p.at(lexer.TokenRParen) {
			p.parseExprList()
		}
		p.expect(lexer.TokenRParen)
	case lexer.TokenLBrace:
		p.parseTableExpr()
	case lexer.TokenStringLiteral:
		p.leafExpr(KindStringExpr)
	}
}

func (p *parser) parseTableExpr() NodeID {
	p.b.open(KindTableExpr, uint32(p.pos))
	p.expect(lexer.TokenLBrace)
	for !p.at(lexer.TokenRBrace) && !p.atEOF() {
		p.parseTableField()
		if p.atAny(lexer.TokenComma, lexer.TokenSemi) {
			p.bump()
		} else {
			break
		}
	}
	p.expect(lexer.TokenRBrace)
	return p.b.close(p.tokens)
}

func (p *parser) parseTableField() {
	switch {
	case p.at(lexer.TokenLBracket):
		p.b.open(KindTableFieldIndexed, uint32(p.pos))
		p.bump()
		p.parseExpr()
		p.expect(lexer.TokenRBracket)
		p.expect(lexer.TokenAssign)
		p.parseExpr()
		p.b.close(p.tokens)
	case p.at(lexer.TokenName) && p.peekKind(1) == lexer.TokenAssign:
		p.b.open(KindTableFieldNamed, uint32(p.pos))
		p.bump()
		p.bump() // =
		p.parseExpr()
		p.b.close(p.tokens)
	default:
		p.b.open(KindTableFieldPositional, uint32(p.pos))
		p.parseExpr()
		p.b.close(p.tokens)
	}
}

func (p *parser) peekKind(delta int) lexer.TokenKind {
	j := p.pos + delta
	if j < 0 || j >= len(p.tokens) {
		return lexer.TokenEOF
	}
	return p.tokens[j].Kind
}

// --- Function bodies -----------------------------------------------------

func (p *parser) parseFuncBody(isMethod bool) {
	p.b.open(KindFuncBody, uint32(p.pos))
	p.expect(lexer.TokenLParen)
	p.parseParamList(isMethod)
	p.expect(lexer.TokenRParen)
	p.parseBlock()
	p.expect(lexer.TokenKwEnd)
	p.b.close(p.tokens)
}

func (p *parser) parseParamList(isMethod bool) {
	p.b.open(KindParamList, uint32(p.pos))
	if isMethod {
		// `self` is implicit for method-form definitions; nothing to consume.
	}
	if !p.at(lexer.TokenRParen) {
		p.parseParam()
		for p.at(lexer.TokenComma) {
			p.bump()
			p.parseParam()
		}
	}
	p.b.close(p.tokens)
}

func (p *parser) parseParam() {
	if p.at(lexer.TokenEllipsis) {
		p.bump()
		return
	}
	p.expect(lexer.TokenName)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
