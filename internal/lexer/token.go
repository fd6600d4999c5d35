// Package lexer provides a lossless token/trivia lexer for Lua source and a
// nested doc-comment lexer for EmmyLua-style annotations.
package lexer

import (
	"fmt"

	"github.com/luaowl/luacore/internal/text"
)

// TokenKind identifies the syntactic category of a token.
type TokenKind uint16

// TokenKind values used by the Lua lexer.
const (
	TokenError TokenKind = iota
	TokenEOF

	TokenName
	TokenIntLiteral
	TokenFloatLiteral
	TokenStringLiteral

	// Keywords, Lua 5.1+ core plus 5.2's goto.
	TokenKwAnd
	TokenKwBreak
	TokenKwDo
	TokenKwElse
	TokenKwElseif
	TokenKwEnd
	TokenKwFalse
	TokenKwFor
	TokenKwFunction
	TokenKwGoto
	TokenKwIf
	TokenKwIn
	TokenKwLocal
	TokenKwNil
	TokenKwNot
	TokenKwOr
	TokenKwRepeat
	TokenKwReturn
	TokenKwThen
	TokenKwTrue
	TokenKwUntil
	TokenKwWhile
	TokenKwContinue // non-standard symbol

	// Punctuation / operators.
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenDSlash // // integer division, 5.3+
	TokenPercent
	TokenCaret
	TokenHash
	TokenAmp    // &
	TokenTilde  // ~ (unary not / binary xor)
	TokenPipe   // |
	TokenLShift // <<
	TokenRShift // >>
	TokenEq     // ==
	TokenNe     // ~=
	TokenLe     // <=
	TokenGe     // >=
	TokenLt     // <
	TokenGt     // >
	TokenAssign // =
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenDColon   // ::
	TokenSemi     // ;
	TokenColon    // :
	TokenComma    // ,
	TokenDot      // .
	TokenConcat   // ..
	TokenEllipsis // ...

	// Non-standard symbols (runtime.nonstandardSymbol).
	TokenPipePipe  // ||
	TokenAmpAmp    // &&
	TokenBang      // !
	TokenBangEq    // !=
	TokenPlusEq    // +=
	TokenMinusEq   // -=
	TokenStarEq    // *=
	TokenSlashEq   // /=
	TokenPercentEq // %=

	// Doc-mode tokens, produced by the nested doc lexer over comment trivia.
	TokenDocAt
	TokenDocName
	TokenDocTagClass
	TokenDocTagField
	TokenDocTagType
	TokenDocTagParam
	TokenDocTagReturn
	TokenDocTagAlias
	TokenDocTagEnum
	TokenDocTagCast
	TokenDocTagGeneric
	TokenDocTagOverload
	TokenDocTagSee
	TokenDocTagExport
	TokenDocTagMeta
	TokenDocTagDiagnostic
	TokenDocTagSource
	TokenDocTagVersion
	TokenDocTagDeprecated
	TokenDocTagAttribute
	TokenDocText      // free-form description text
	TokenDocTypeStart // marks the beginning of a type expression span
	TokenDocOptional  // ? suffix in a doc type
	TokenDocComma
	TokenDocColon
	TokenDocPipe // union
	TokenDocAmp  // intersection
	TokenDocLParen
	TokenDocRParen
	TokenDocLBracket
	TokenDocRBracket
	TokenDocLAngle
	TokenDocRAngle
	TokenDocVariadic // ...
	TokenDocEOF
)

func (k TokenKind) String() string {
	if s, ok := tokenKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TokenKind(%d)", k)
}

var tokenKindNames = map[TokenKind]string{
	TokenError:            "Error",
	TokenEOF:              "EOF",
	TokenName:             "Name",
	TokenIntLiteral:       "IntLiteral",
	TokenFloatLiteral:     "FloatLiteral",
	TokenStringLiteral:    "StringLiteral",
	TokenKwAnd:            "KwAnd",
	TokenKwBreak:          "KwBreak",
	TokenKwDo:             "KwDo",
	TokenKwElse:           "KwElse",
	TokenKwElseif:         "KwElseif",
	TokenKwEnd:            "KwEnd",
	TokenKwFalse:          "KwFalse",
	TokenKwFor:            "KwFor",
	TokenKwFunction:       "KwFunction",
	TokenKwGoto:           "KwGoto",
	TokenKwIf:             "KwIf",
	TokenKwIn:             "KwIn",
	TokenKwLocal:          "KwLocal",
	TokenKwNil:            "KwNil",
	TokenKwNot:            "KwNot",
	TokenKwOr:             "KwOr",
	TokenKwRepeat:         "KwRepeat",
	TokenKwReturn:         "KwReturn",
	TokenKwThen:           "KwThen",
	TokenKwTrue:           "KwTrue",
	TokenKwUntil:          "KwUntil",
	TokenKwWhile:          "KwWhile",
	TokenKwContinue:       "KwContinue",
	TokenPlus:             "Plus",
	TokenMinus:            "Minus",
	TokenStar:             "Star",
	TokenSlash:            "Slash",
	TokenDSlash:           "DSlash",
	TokenPercent:          "Percent",
	TokenCaret:            "Caret",
	TokenHash:             "Hash",
	TokenAmp:              "Amp",
	TokenTilde:            "Tilde",
	TokenPipe:             "Pipe",
	TokenLShift:           "LShift",
	TokenRShift:           "RShift",
	TokenEq:               "Eq",
	TokenNe:               "Ne",
	TokenLe:               "Le",
	TokenGe:               "Ge",
	TokenLt:               "Lt",
	TokenGt:               "Gt",
	TokenAssign:           "Assign",
	TokenLParen:           "LParen",
	TokenRParen:           "RParen",
	TokenLBrace:           "LBrace",
	TokenRBrace:           "RBrace",
	TokenLBracket:         "LBracket",
	TokenRBracket:         "RBracket",
	TokenDColon:           "DColon",
	TokenSemi:             "Semi",
	TokenColon:            "Colon",
	TokenComma:            "Comma",
	TokenDot:              "Dot",
	TokenConcat:           "Concat",
	TokenEllipsis:         "Ellipsis",
	TokenPipePipe:         "PipePipe",
	TokenAmpAmp:           "AmpAmp",
	TokenBang:             "Bang",
	TokenBangEq:           "BangEq",
	TokenPlusEq:           "PlusEq",
	TokenMinusEq:          "MinusEq",
	TokenStarEq:           "StarEq",
	TokenSlashEq:          "SlashEq",
	TokenPercentEq:        "PercentEq",
	TokenDocAt:            "DocAt",
	TokenDocName:          "DocName",
	TokenDocTagClass:      "DocTagClass",
	TokenDocTagField:      "DocTagField",
	TokenDocTagType:       "DocTagType",
	TokenDocTagParam:      "DocTagParam",
	TokenDocTagReturn:     "DocTagReturn",
	TokenDocTagAlias:      "DocTagAlias",
	TokenDocTagEnum:       "DocTagEnum",
	TokenDocTagCast:       "DocTagCast",
	TokenDocTagGeneric:    "DocTagGeneric",
	TokenDocTagOverload:   "DocTagOverload",
	TokenDocTagSee:        "DocTagSee",
	TokenDocTagExport:     "DocTagExport",
	TokenDocTagMeta:       "DocTagMeta",
	TokenDocTagDiagnostic: "DocTagDiagnostic",
	TokenDocTagSource:     "DocTagSource",
	TokenDocTagVersion:    "DocTagVersion",
	TokenDocTagDeprecated: "DocTagDeprecated",
	TokenDocTagAttribute:  "DocTagAttribute",
	TokenDocText:          "DocText",
	TokenDocTypeStart:     "DocTypeStart",
	TokenDocOptional:      "DocOptional",
	TokenDocComma:         "DocComma",
	TokenDocColon:         "DocColon",
	TokenDocPipe:          "DocPipe",
	TokenDocAmp:           "DocAmp",
	TokenDocLParen:        "DocLParen",
	TokenDocRParen:        "DocRParen",
	TokenDocLBracket:      "DocLBracket",
	TokenDocRBracket:      "DocRBracket",
	TokenDocLAngle:        "DocLAngle",
	TokenDocRAngle:        "DocRAngle",
	TokenDocVariadic:      "DocVariadic",
	TokenDocEOF:           "DocEOF",
}

// TokenFlags carry metadata about the token source or origin.
type TokenFlags uint8

const (
	TokenFlagMalformed TokenFlags = 1 << iota
	TokenFlagSynthesized
	TokenFlagRecovered
)

// Has reports whether all bits in mask are set.
func (f TokenFlags) Has(mask TokenFlags) bool {
	return f&mask == mask
}

// Token is a lexed token with a source span and leading trivia.
type Token struct {
	Kind    TokenKind
	Span    text.Span
	Leading []Trivia
	Flags   TokenFlags
}

// Bytes returns the token bytes referenced by Span or nil if Span is invalid for src.
func (t Token) Bytes(src []byte) []byte {
	return bytesForSpan(src, t.Span)
}

var keywordKinds = map[string]TokenKind{
	"and":      TokenKwAnd,
	"break":    TokenKwBreak,
	"do":       TokenKwDo,
	"else":     TokenKwElse,
	"elseif":   TokenKwElseif,
	"end":      TokenKwEnd,
	"false":    TokenKwFalse,
	"for":      TokenKwFor,
	"function": TokenKwFunction,
	"goto":     TokenKwGoto,
	"if":       TokenKwIf,
	"in":       TokenKwIn,
	"local":    TokenKwLocal,
	"nil":      TokenKwNil,
	"not":      TokenKwNot,
	"or":       TokenKwOr,
	"repeat":   TokenKwRepeat,
	"return":   TokenKwReturn,
	"then":     TokenKwThen,
	"true":     TokenKwTrue,
	"until":    TokenKwUntil,
	"while":    TokenKwWhile,
}

func bytesForSpan(src []byte, sp text.Span) []byte {
	if !sp.IsValid() {
		return nil
	}
	if sp.End > text.ByteOffset(len(src)) {
		return nil
	}
	return src[sp.Start:sp.End]
}
