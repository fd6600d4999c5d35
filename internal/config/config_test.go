package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/luaowl/luacore/internal/diagnostic"
	"github.com/luaowl/luacore/internal/infer"
	"github.com/luaowl/luacore/internal/lexer"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	got := Default()
	want := &Config{
		Runtime:    Runtime{Version: "Lua 5.4"},
		Workspace:  Workspace{Encoding: "UTF-8", EnableReindex: true},
		Completion: Completion{AutoRequireFunction: "require", AutoRequireSeparator: "."},
		Doc:        Doc{Syntax: DocSyntaxMd},
		Hint:       Hint{ParamHint: true, OverrideHint: true},
		CodeAction: CodeAction{InsertSpace: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Default() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMergesOverDefaults(t *testing.T) {
	t.Parallel()

	src := []byte(`{
		// trailing commas and comments are fine, this is JSONC
		"runtime": { "version": "Lua 5.1", "requireLikeFunction": ["import"] },
		"diagnostics": { "disable": ["unused-local"], "severity": { "undefined-global": "Error" } },
		"extension": { "anything": true },
	}`)

	got, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := Default()
	want.Runtime.Version = "Lua 5.1"
	want.Runtime.RequireLikeFunction = []string{"import"}
	want.Diagnostics.Disable = []string{"unused-local"}
	want.Diagnostics.Severity = map[string]diagnostic.Severity{"undefined-global": diagnostic.SeverityError}

	ignoreUnknown := cmp.FilterPath(
		func(p cmp.Path) bool { return p.String() == "Unknown" },
		cmp.Ignore(),
	)
	if diff := cmp.Diff(want, got, ignoreUnknown); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
	if _, ok := got.Unknown["extension"]; !ok {
		t.Errorf("Unknown: expected \"extension\" to round-trip, got %v", got.Unknown)
	}
}

func TestLexerVersionAndInferVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version  string
		wantLex  lexer.Version
		wantInfer infer.Version
	}{
		{"Lua 5.1", lexer.Lua51, infer.VersionLua51},
		{"Lua 5.4", lexer.Lua54, infer.VersionLua54},
		{"LuaJIT", lexer.LuaJIT, infer.VersionJIT},
		{"", lexer.Latest, infer.VersionLatest},
	}
	for _, test := range tests {
		cfg := &Config{Runtime: Runtime{Version: test.version}}
		if got := cfg.LexerVersion(); got != test.wantLex {
			t.Errorf("LexerVersion(%q) = %v, want %v", test.version, got, test.wantLex)
		}
		if got := cfg.InferVersion(); got != test.wantInfer {
			t.Errorf("InferVersion(%q) = %v, want %v", test.version, got, test.wantInfer)
		}
	}
}

func TestRequireNamesIncludesBuiltin(t *testing.T) {
	t.Parallel()

	cfg := &Config{Runtime: Runtime{RequireLikeFunction: []string{"import", "dofile"}}}
	want := map[string]bool{"require": true, "import": true, "dofile": true}
	if diff := cmp.Diff(want, cfg.RequireNames()); diff != "" {
		t.Errorf("RequireNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestDisabledCodesAndSeverityOverride(t *testing.T) {
	t.Parallel()

	cfg := &Config{Diagnostics: Diagnostics{
		Disable:  []string{"unused-local"},
		Severity: map[string]diagnostic.Severity{"undefined-global": diagnostic.SeverityWarning},
	}}

	if !cfg.DisabledCodes()[diagnostic.CodeUnusedLocal] {
		t.Error("expected unused-local to be disabled")
	}
	if cfg.DisabledCodes()[diagnostic.CodeUndefinedGlobal] {
		t.Error("did not expect undefined-global to be disabled")
	}

	sev, ok := cfg.SeverityOverride(diagnostic.CodeUndefinedGlobal)
	if !ok || sev != diagnostic.SeverityWarning {
		t.Errorf("SeverityOverride(undefined-global) = (%v, %v), want (Warning, true)", sev, ok)
	}
	if _, ok := cfg.SeverityOverride(diagnostic.CodeUnusedLocal); ok {
		t.Error("did not expect an override for unused-local")
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	t.Parallel()

	got, err := Load("/nonexistent/.luarc.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Errorf("Load(missing) mismatch (-want +got):\n%s", diff)
	}
}
