package diagnostic

import (
	"github.com/luaowl/luacore/internal/infer"
	"github.com/luaowl/luacore/internal/semindex"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/text"
	"github.com/luaowl/luacore/internal/vfs"
)

// Diagnostic is one reported finding: a code, where it applies, how severe
// it is, and a human-readable message (spec §4.9, "(code, range, message,
// data?)").
type Diagnostic struct {
	Code     Code
	Severity Severity
	Span     text.Span
	Message  string
	Data     any
}

// Model is the immutable per-file view a Checker runs against: the parsed
// tree, this file's own index, and the cross-file database/inference engine
// for anything that needs to look outside the file (e.g. undefined-global,
// which must check every file's globals before concluding a name is
// undefined).
type Model struct {
	File   vfs.FileId
	Tree   *syntax.Tree
	Index  *semindex.FileIndex
	DB     *semindex.Database
	Engine *infer.Engine
}
