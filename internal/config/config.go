// Package config loads the JSON/JSONC workspace configuration document
// (spec §6's configuration table) the same way the teacher stack's CLI
// tooling loads its own global config: hujson.Standardize strips comments
// and trailing commas before handing the result to encoding/json, and
// unknown keys are tolerated rather than rejected.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/luaowl/luacore/internal/diagnostic"
	"github.com/luaowl/luacore/internal/infer"
	"github.com/luaowl/luacore/internal/lexer"
)

// Runtime selects the Lua dialect and the set of names treated as require.
type Runtime struct {
	Version             string   `json:"version"`
	RequireLikeFunction []string `json:"requireLikeFunction"`
	NonstandardSymbol   []string `json:"nonstandardSymbol"`
}

// Workspace controls file discovery roots and save-triggered reindexing.
type Workspace struct {
	Library        []string `json:"library"`
	WorkspaceRoots []string `json:"workspaceRoots"`
	PackageDirs    []string `json:"packageDirs"`
	Encoding       string   `json:"encoding"`
	EnableReindex  bool     `json:"enableReindex"`
}

// Diagnostics controls checker selection, extra globals, and severity
// overrides.
type Diagnostics struct {
	Disable  []string                    `json:"disable"`
	Globals  []string                    `json:"globals"`
	Severity map[string]diagnostic.Severity `json:"severity"`
}

// Completion controls auto-require and postfix-snippet behavior.
type Completion struct {
	AutoRequireFunction  string   `json:"autoRequireFunction"`
	AutoRequireSeparator string   `json:"autoRequireSeparator"`
	Postfix              []string `json:"postfix"`
}

// Strict tightens resolution rules beyond the permissive default.
type Strict struct {
	RequirePath           bool `json:"requirePath"`
	MetaOverrideFileDefine bool `json:"metaOverrideFileDefine"`
}

// DocSyntax selects the description-comment markup dialect.
type DocSyntax string

// DocSyntax values.
const (
	DocSyntaxNone  DocSyntax = "None"
	DocSyntaxMd    DocSyntax = "Md"
	DocSyntaxMyst  DocSyntax = "MySt"
	DocSyntaxRst   DocSyntax = "Rst"
)

// Doc controls how description comments are parsed for rendering.
type Doc struct {
	Syntax DocSyntax `json:"syntax"`
}

// Hint toggles inlay hint categories.
type Hint struct {
	ParamHint    bool `json:"paramHint"`
	OverrideHint bool `json:"overrideHint"`
}

// CodeAction controls fix-it formatting.
type CodeAction struct {
	InsertSpace bool `json:"insertSpace"`
}

// Config is the merged, validated workspace configuration document.
type Config struct {
	Runtime     Runtime     `json:"runtime"`
	Workspace   Workspace   `json:"workspace"`
	Diagnostics Diagnostics `json:"diagnostics"`
	Completion  Completion  `json:"completion"`
	Strict      Strict      `json:"strict"`
	Doc         Doc         `json:"doc"`
	Hint        Hint        `json:"hint"`
	CodeAction  CodeAction  `json:"codeAction"`

	// Unknown holds any top-level keys this version doesn't recognize, so a
	// newer config document loaded by an older build round-trips without
	// data loss and without failing to load altogether.
	Unknown map[string]json.RawMessage `json:"-"`
}

// Default returns the configuration used when no document is supplied.
func Default() *Config {
	return &Config{
		Runtime: Runtime{
			Version: "Lua 5.4",
		},
		Workspace: Workspace{
			Encoding:      "UTF-8",
			EnableReindex: true,
		},
		Completion: Completion{
			AutoRequireFunction:  "require",
			AutoRequireSeparator: ".",
		},
		Doc: Doc{Syntax: DocSyntaxMd},
		Hint: Hint{
			ParamHint:    true,
			OverrideHint: true,
		},
		CodeAction: CodeAction{InsertSpace: true},
	}
}

// Load reads a JSON or JSONC (hujson) document from path, standardizes it,
// and merges it over Default(). A missing file is not an error; Default()
// is returned unchanged.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse standardizes JSONC source and merges it over Default().
func Parse(src []byte) (*Config, error) {
	std, err := hujson.Standardize(src)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(std, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(std, &asMap); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for _, known := range []string{"runtime", "workspace", "diagnostics", "completion", "strict", "doc", "hint", "codeAction"} {
		delete(asMap, known)
	}
	if len(asMap) > 0 {
		cfg.Unknown = asMap
	}

	return cfg, nil
}

// LexerVersion maps runtime.version to the lexer dialect it selects.
func (c *Config) LexerVersion() lexer.Version {
	switch c.Runtime.Version {
	case "Lua 5.1":
		return lexer.Lua51
	case "Lua 5.2":
		return lexer.Lua52
	case "Lua 5.3":
		return lexer.Lua53
	case "Lua 5.4":
		return lexer.Lua54
	case "Lua 5.5":
		return lexer.Lua55
	case "LuaJIT":
		return lexer.LuaJIT
	default:
		return lexer.Latest
	}
}

// InferVersion maps runtime.version to the operator-typing dialect infer
// gates floor-division and bitwise operators on.
func (c *Config) InferVersion() infer.Version {
	switch c.Runtime.Version {
	case "Lua 5.1":
		return infer.VersionLua51
	case "Lua 5.2":
		return infer.VersionLua52
	case "Lua 5.3":
		return infer.VersionLua53
	case "Lua 5.4":
		return infer.VersionLua54
	case "Lua 5.5":
		return infer.VersionLua55
	case "LuaJIT":
		return infer.VersionJIT
	default:
		return infer.VersionLatest
	}
}

// RequireNames returns the builtin require alongside any configured
// requireLikeFunction names.
func (c *Config) RequireNames() map[string]bool {
	names := map[string]bool{"require": true}
	for _, n := range c.Runtime.RequireLikeFunction {
		names[n] = true
	}
	return names
}

// DisabledCodes returns the set of diagnostic codes disabled entirely.
func (c *Config) DisabledCodes() map[diagnostic.Code]bool {
	out := make(map[diagnostic.Code]bool, len(c.Diagnostics.Disable))
	for _, name := range c.Diagnostics.Disable {
		out[diagnostic.Code(name)] = true
	}
	return out
}

// SeverityOverride reports the configured override for code, if any.
func (c *Config) SeverityOverride(code diagnostic.Code) (diagnostic.Severity, bool) {
	sev, ok := c.Diagnostics.Severity[string(code)]
	return sev, ok
}
