package syntax

import (
	"context"
	"testing"

	"github.com/luaowl/luacore/internal/lexer"
)

func TestParseSimpleChunkHasNoDiagnostics(t *testing.T) {
	t.Parallel()

	src := []byte(`local function add(a, b)
  return a + b
end

local t = { 1, 2, x = 3, [4] = "four" }
print(add(t.x, #t))
`)
	tree, err := Parse(context.Background(), src, DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tree.HasErrors() {
		t.Fatalf("unexpected errors: %+v", tree.Diagnostics)
	}

	root := Root(tree)
	if root.Kind() != KindChunk {
		t.Fatalf("root kind = %s, want Chunk", KindName(root.Kind()))
	}

	var fnCount, callCount int
	root.Descendants(func(n Node) bool {
		switch n.Kind() {
		case KindLocalFunctionStat:
			fnCount++
		case KindCallExpr:
			callCount++
		}
		return true
	})
	if fnCount != 1 {
		t.Fatalf("fnCount = %d, want 1", fnCount)
	}
	if callCount == 0 {
		t.Fatalf("expected at least one call expression")
	}
}

func TestParseIfWhileForNestAndClose(t *testing.T) {
	t.Parallel()

	src := []byte(`
if x then
  while y do
    for i = 1, 10 do
      print(i)
    end
  end
elseif z then
  return
else
  do end
end
`)
	tree, err := Parse(context.Background(), src, DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tree.HasErrors() {
		t.Fatalf("unexpected errors: %+v", tree.Diagnostics)
	}

	root := Root(tree)
	ifStat, ok := root.ChildOfKind(KindIfStat)
	if !ok {
		t.Fatalf("expected an IfStat")
	}
	if _, ok := ifStat.ChildOfKind(KindElseifClause); !ok {
		t.Fatalf("expected an ElseifClause")
	}
	if _, ok := ifStat.ChildOfKind(KindElseClause); !ok {
		t.Fatalf("expected an ElseClause")
	}
}

func TestParseBinaryPrecedenceAndAssociativity(t *testing.T) {
	t.Parallel()

	src := []byte(`local x = 1 + 2 * 3 ^ 2 ^ 2 .. "a" .. "b"`)
	tree, err := Parse(context.Background(), src, DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tree.HasErrors() {
		t.Fatalf("unexpected errors: %+v", tree.Diagnostics)
	}

	root := Root(tree)
	local, ok := root.ChildOfKind(KindLocalStat)
	if !ok {
		t.Fatalf("expected LocalStat")
	}
	exprList, ok := LocalStatInitExprs(local)
	if !ok {
		t.Fatalf("expected init expr list")
	}
	top := exprList.Children()[0]
	if top.Kind() != KindBinaryExpr {
		t.Fatalf("top expr kind = %s, want BinaryExpr", KindName(top.Kind()))
	}
	_, op, _, ok := BinaryExprParts(top)
	if !ok || op.Kind != lexer.TokenConcat {
		t.Fatalf("expected top-level .. as the loosest-binding operator, got %+v", op)
	}
}

func TestParseMalformedInputRecoversWithDiagnostics(t *testing.T) {
	t.Parallel()

	src := []byte(`local x = )(( end end`)
	tree, err := Parse(context.Background(), src, DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !tree.HasErrors() {
		t.Fatalf("expected diagnostics for malformed input")
	}
	if tree.Root == NoNode {
		t.Fatalf("expected a root node even for malformed input")
	}
}

func TestParseDocCommentAttachesToLocalFunction(t *testing.T) {
	t.Parallel()

	src := []byte(`--- Adds two numbers.
---@param a number
---@param b number
---@return number
local function add(a, b)
  return a + b
end
`)
	tree, err := Parse(context.Background(), src, DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tree.HasErrors() {
		t.Fatalf("unexpected errors: %+v", tree.Diagnostics)
	}

	root := Root(tree)
	fn, ok := root.ChildOfKind(KindLocalFunctionStat)
	if !ok {
		t.Fatalf("expected LocalFunctionStat")
	}
	docTree := PrecedingDocComment(fn)
	if docTree == nil {
		t.Fatalf("expected a preceding doc comment")
	}
	docRoot := Root(docTree)
	params := docRoot.ChildrenOfKind(KindDocParamTag)
	if len(params) != 2 {
		t.Fatalf("param tags = %d, want 2", len(params))
	}
	if len(docRoot.ChildrenOfKind(KindDocReturnTag)) != 1 {
		t.Fatalf("expected one return tag")
	}
}

func TestParseNeverPanicsOnFuzzSeeds(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"local",
		"function",
		"end end end",
		"((((((",
		"local x = [==[ unterminated",
		"return return return",
		"for do end",
		"local t = { [1] = }",
	}
	for _, src := range inputs {
		src := src
		t.Run(src, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(context.Background(), []byte(src), DefaultParseOptions())
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
		})
	}
}
