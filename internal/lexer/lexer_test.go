package lexer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/luaowl/luacore/internal/text"
)

func TestTokenAndTriviaBytesUseRawSpans(t *testing.T) {
	t.Parallel()

	src := []byte("  abc")
	tr := Trivia{Kind: TriviaWhitespace, Span: text.Span{Start: 0, End: 2}}
	tok := Token{Kind: TokenName, Span: text.Span{Start: 2, End: 5}}

	if got := string(tr.Bytes(src)); got != "  " {
		t.Fatalf("Trivia.Bytes() = %q, want %q", got, "  ")
	}
	if got := string(tok.Bytes(src)); got != "abc" {
		t.Fatalf("Token.Bytes() = %q, want %q", got, "abc")
	}
}

func TestLexGoldenRepresentativeValidInput(t *testing.T) {
	t.Parallel()

	src := []byte(`--- Adds two numbers.
local function add(a, b)
  return a + b -- inline note
end
`)

	res := Lex(src, DefaultOptions())
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}

	got := renderTokens(src, res.Tokens)
	want := strings.TrimSpace(`
KwLocal("local") lead=[DocComment("--- Adds two numbers."),Newline("\n")]
KwFunction("function") lead=[Whitespace(" ")]
Name("add") lead=[Whitespace(" ")]
LParen("(") lead=[]
Name("a") lead=[]
Comma(",") lead=[]
Name("b") lead=[Whitespace(" ")]
RParen(")") lead=[]
KwReturn("return") lead=[Newline("\n"),Whitespace("  ")]
Name("a") lead=[Whitespace(" ")]
Plus("+") lead=[Whitespace(" ")]
Name("b") lead=[Whitespace(" ")]
KwEnd("end") lead=[Whitespace(" "),LineComment("-- inline note"),Newline("\n")]
EOF("") lead=[Newline("\n")]
`)
	if got != want {
		t.Fatalf("golden mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestLexMalformedInputsEmitErrorTokensAndDiagnostics(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		src          []byte
		wantDiagCode DiagnosticCode
	}{
		"unterminated string": {
			src:          []byte(`"abc`),
			wantDiagCode: DiagnosticUnterminatedString,
		},
		"unterminated long bracket comment": {
			src:          []byte("--[[ abc"),
			wantDiagCode: DiagnosticUnterminatedLongBracket,
		},
		"unterminated long string": {
			src:          []byte("[[ abc"),
			wantDiagCode: DiagnosticUnterminatedLongBracket,
		},
		"invalid byte": {
			src:          []byte{0xff},
			wantDiagCode: DiagnosticInvalidByte,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res := Lex(tc.src, DefaultOptions())
			if len(res.Diagnostics) == 0 {
				t.Fatalf("expected diagnostics for %q", tc.src)
			}
			if res.Diagnostics[0].Code != tc.wantDiagCode {
				t.Fatalf("diagnostic code = %s, want %s", res.Diagnostics[0].Code, tc.wantDiagCode)
			}
			if len(res.Tokens) == 0 || res.Tokens[0].Kind != TokenError {
				t.Fatalf("expected first token to be TokenError, got %+v", res.Tokens)
			}
			if !res.Tokens[0].Flags.Has(TokenFlagMalformed) {
				t.Fatalf("expected malformed flag on error token, got %v", res.Tokens[0].Flags)
			}
			if got := res.Tokens[len(res.Tokens)-1].Kind; got != TokenEOF {
				t.Fatalf("expected EOF token at end, got %s", got)
			}
		})
	}
}

func TestLexLongBracketStringsWithLevels(t *testing.T) {
	t.Parallel()

	src := []byte(`local s = [==[ raw ]] text ]==]`)
	res := Lex(src, DefaultOptions())
	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}

	var str Token
	found := false
	for _, tok := range res.Tokens {
		if tok.Kind == TokenStringLiteral {
			str = tok
			found = true
		}
	}
	if !found {
		t.Fatalf("no string literal token found")
	}
	want := `[==[ raw ]] text ]==]`
	if got := string(str.Bytes(src)); got != want {
		t.Fatalf("long string = %q, want %q", got, want)
	}
}

func TestLexNonStandardSymbolsRequireOptIn(t *testing.T) {
	t.Parallel()

	src := []byte(`x += 1`)

	res := Lex(src, DefaultOptions())
	foundCompound := false
	for _, tok := range res.Tokens {
		if tok.Kind == TokenPlusEq {
			foundCompound = true
		}
	}
	if foundCompound {
		t.Fatalf("did not expect += without NSSCompoundAssign")
	}

	res = Lex(src, Options{Version: Latest, Symbols: NSSCompoundAssign})
	foundCompound = false
	for _, tok := range res.Tokens {
		if tok.Kind == TokenPlusEq {
			foundCompound = true
		}
	}
	if !foundCompound {
		t.Fatalf("expected += with NSSCompoundAssign enabled")
	}
}

func TestLexFloorDivVsLineCommentAmbiguity(t *testing.T) {
	t.Parallel()

	src := []byte(`local x = 10 // 3`)

	res := Lex(src, Options{Version: Lua53})
	var sawDSlash bool
	for _, tok := range res.Tokens {
		if tok.Kind == TokenDSlash {
			sawDSlash = true
		}
	}
	if !sawDSlash {
		t.Fatalf("expected // to lex as floor division under Lua53")
	}

	res = Lex(src, Options{Version: Lua51, Symbols: NSSLineComment})
	for _, tok := range res.Tokens {
		if tok.Kind == TokenDSlash {
			t.Fatalf("did not expect // as floor division under Lua51 with NSSLineComment")
		}
	}
}

func TestLexTriviaAndLiteralFidelity(t *testing.T) {
	t.Parallel()

	src := []byte("  -- c1\r\nlocal x = 0XBeEf\n\"a\\\"b\" 'bee'")
	res := Lex(src, DefaultOptions())

	if len(res.Diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", res.Diagnostics)
	}

	var gotComments []string
	var gotLiterals []string
	for _, tok := range res.Tokens {
		for _, tr := range tok.Leading {
			if tr.Kind == TriviaLineComment {
				gotComments = append(gotComments, string(tr.Bytes(src)))
			}
		}
		if tok.Kind == TokenIntLiteral || tok.Kind == TokenStringLiteral {
			gotLiterals = append(gotLiterals, string(tok.Bytes(src)))
		}
	}

	wantComments := []string{"-- c1"}
	if fmt.Sprint(gotComments) != fmt.Sprint(wantComments) {
		t.Fatalf("comments = %v, want %v", gotComments, wantComments)
	}

	wantLiterals := []string{"0XBeEf", "\"a\\\"b\"", "'bee'"}
	if fmt.Sprint(gotLiterals) != fmt.Sprint(wantLiterals) {
		t.Fatalf("literals = %v, want %v", gotLiterals, wantLiterals)
	}
}

func TestLexNoPanicsOnMalformedCorpusSamples(t *testing.T) {
	t.Parallel()

	inputs := [][]byte{
		[]byte(`"`),
		[]byte(`--[[`),
		[]byte(`0x`),
		{0xff, '{', 0xfe},
		[]byte("local x = \"a\nend\n"),
		[]byte(`[==[`),
		[]byte(`[=]`),
	}

	for _, src := range inputs {
		t.Run(fmt.Sprintf("%q", src), func(t *testing.T) {
			t.Parallel()
			_ = Lex(src, DefaultOptions())
		})
	}
}

func renderTokens(src []byte, tokens []Token) string {
	lines := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		lines = append(lines, fmt.Sprintf("%s(%q) lead=%s", tok.Kind, tok.Bytes(src), renderLeading(src, tok.Leading)))
	}
	return strings.Join(lines, "\n")
}

func renderLeading(src []byte, trivia []Trivia) string {
	if len(trivia) == 0 {
		return "[]"
	}

	parts := make([]string, 0, len(trivia))
	for _, tr := range trivia {
		parts = append(parts, fmt.Sprintf("%s(%q)", tr.Kind, tr.Bytes(src)))
	}
	return "[" + strings.Join(parts, ",") + "]"
}
