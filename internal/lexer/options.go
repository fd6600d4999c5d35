package lexer

// Version selects the Lua dialect, gating keywords and operator tokens.
type Version uint8

const (
	Lua51 Version = iota
	Lua52
	Lua53
	Lua54
	Lua55
	LuaJIT
	// Latest tracks the newest dialect this package understands.
	Latest = Lua55
)

// NSS is a bitmask of non-standard symbols the lexer should additionally
// recognize, per spec.md §4.1 / §6 runtime.nonstandardSymbol.
type NSS uint16

const (
	NSSBlockComment NSS = 1 << iota // /* */
	NSSLineComment                  // // (pre-5.3 dialects only; see Options.supportsFloorDiv)
	NSSBacktickString               // `...` as a string literal
	NSSCompoundAssign                // += -= *= /= %=
	NSSLogicalOps                    // || && ! !=
	NSSContinue                      // continue keyword
)

// Options configures dialect-sensitive lexing.
type Options struct {
	Version Version
	Symbols NSS
}

// DefaultOptions returns the Options used when none are supplied: the latest
// dialect with no non-standard symbols enabled.
func DefaultOptions() Options {
	return Options{Version: Latest}
}

func (o Options) has(flag NSS) bool {
	return o.Symbols&flag != 0
}

// supportsFloorDiv reports whether // is the floor-division operator in this
// dialect (5.3+, including LuaJIT's 5.2-compatible-but-extended runtime,
// which this package treats as supporting it when the symbol isn't claimed
// by NSSLineComment).
func (o Options) supportsFloorDiv() bool {
	return o.Version == Lua53 || o.Version == Lua54 || o.Version == Lua55
}

func (o Options) supportsGoto() bool {
	return o.Version != Lua51
}

func (o Options) supportsBitops() bool {
	return o.Version == Lua53 || o.Version == Lua54 || o.Version == Lua55 || o.Version == LuaJIT
}
