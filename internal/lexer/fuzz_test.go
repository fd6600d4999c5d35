package lexer

import "testing"

func FuzzLex(f *testing.F) {
	addCommonSeeds(f)

	f.Fuzz(func(t *testing.T, src []byte) {
		t.Helper()

		// Keep the target responsive; fuzzing should explore shape, not spend cycles on huge blobs.
		if len(src) > 512*1024 {
			t.Skip()
		}

		res := Lex(src, DefaultOptions())
		if len(res.Tokens) == 0 {
			t.Fatal("lexer returned no tokens")
		}
		last := res.Tokens[len(res.Tokens)-1]
		if last.Kind != TokenEOF {
			t.Fatalf("last token kind = %v, want EOF", last.Kind)
		}

		prevEnd := -1
		for i, tok := range res.Tokens {
			if err := tok.Span.Validate(); err != nil {
				t.Fatalf("token[%d] invalid span %s: %v", i, tok.Span, err)
			}
			if int(tok.Span.End) > len(src) {
				t.Fatalf("token[%d] span %s out of bounds (len=%d)", i, tok.Span, len(src))
			}
			if prevEnd > int(tok.Span.Start) {
				t.Fatalf("token spans out of order: prevEnd=%d curStart=%d", prevEnd, tok.Span.Start)
			}
			prevEnd = int(tok.Span.End)

			for j, tr := range tok.Leading {
				if err := tr.Span.Validate(); err != nil {
					t.Fatalf("token[%d].leading[%d] invalid span %s: %v", i, j, tr.Span, err)
				}
				if int(tr.Span.End) > len(src) {
					t.Fatalf("token[%d].leading[%d] span %s out of bounds (len=%d)", i, j, tr.Span, len(src))
				}
			}
		}
	})
}

func FuzzLexNonStandardSymbols(f *testing.F) {
	f.Add([]byte("local x = 1 += 2 || true && !false != 3"))
	f.Add([]byte("x = `backtick` // comment"))

	opts := Options{Version: Latest, Symbols: NSSBlockComment | NSSLineComment | NSSBacktickString | NSSCompoundAssign | NSSLogicalOps | NSSContinue}

	f.Fuzz(func(t *testing.T, src []byte) {
		t.Helper()
		if len(src) > 512*1024 {
			t.Skip()
		}
		res := Lex(src, opts)
		if len(res.Tokens) == 0 || res.Tokens[len(res.Tokens)-1].Kind != TokenEOF {
			t.Fatalf("expected trailing EOF token")
		}
	})
}

func addCommonSeeds(f *testing.F) {
	f.Helper()

	for _, s := range [][]byte{
		nil,
		[]byte(""),
		[]byte("local function f(a, b)\n  return a + b\nend\n"),
		[]byte("--- @class Foo\nlocal Foo = {}\n"),
		[]byte("local s = 'unterminated\n"), // malformed string
		[]byte("--[[ unterminated long comment"),
		{0xff, 0xfe, 0xfd}, // invalid UTF-8 bytes
		[]byte("local t = [==[ raw ]] text ]==]\n"),
		[]byte("#!/usr/bin/env lua\nprint('hi')\n"),
		[]byte("local x = 0x1p10 + .5e-3\n"),
	} {
		f.Add(s)
	}
}
