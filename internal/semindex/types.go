// Package semindex builds and maintains the cross-file semantic indices
// derived from parsed syntax trees: declarations and their owning scopes,
// the type-declaration/member map, and the reference index. Each index is
// populated per file and can be subtracted file-by-file, so the aggregate
// Database stays consistent as files are updated or removed.
package semindex

import (
	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/text"
	"github.com/luaowl/luacore/internal/vfs"
)

// DeclId identifies a declaration within a specific file. It is stable for
// the lifetime of that file's current index entry. IndexFile numbers
// declarations and scopes from zero on every run, so after a file-update an
// old id may name a different declaration.
type DeclId struct {
	File vfs.FileId
	Seq  uint32
}

// ScopeId identifies a lexical scope within a specific file.
type ScopeId struct {
	File vfs.FileId
	Seq  uint32
}

// NoScope is the sentinel for "no enclosing scope" (used only for the
// degenerate empty-file case).
var NoScope = ScopeId{}

// DeclKind classifies a declaration.
type DeclKind uint8

// DeclKind values.
const (
	DeclLocal DeclKind = iota
	DeclLocalFunction
	DeclParam
	DeclForIterator
	DeclLabel
	DeclGlobal
)

func (k DeclKind) String() string {
	switch k {
	case DeclLocal:
		return "local"
	case DeclLocalFunction:
		return "local-function"
	case DeclParam:
		return "param"
	case DeclForIterator:
		return "for-iterator"
	case DeclLabel:
		return "label"
	case DeclGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Decl is one declared name: a local variable, parameter, for-loop
// iterator variable, goto label, or a global write.
type Decl struct {
	ID           DeclId
	Kind         DeclKind
	Name         string
	Scope        ScopeId
	NameSpan     text.Span
	Node         syntax.Ptr
	DeclaredType ltypes.Type
	Mutable      bool
}

// ScopeKind classifies a lexical scope.
type ScopeKind uint8

// ScopeKind values.
const (
	ScopeChunk ScopeKind = iota
	ScopeFunction
	ScopeBlock
)

// Scope is one lexical scope: the chunk, a function body, or a nested
// block (if/while/for/do/repeat).
type Scope struct {
	ID     ScopeId
	Kind   ScopeKind
	Parent ScopeId
	HasParent bool
	Span   text.Span
	Decls  []DeclId
}

// TypeDeclKind classifies a TypeDecl.
type TypeDeclKind uint8

// TypeDeclKind values.
const (
	TypeDeclClass TypeDeclKind = iota
	TypeDeclAlias
	TypeDeclEnum
)

// Location records where one contribution to a (possibly partial)
// declaration came from.
type Location struct {
	File vfs.FileId
	Span text.Span
	Meta bool
}

// TypeDecl is a `@class`/`@alias`/`@enum` declaration, possibly assembled
// from contributions across multiple files (partial classes).
type TypeDecl struct {
	ID        ltypes.TypeDeclId
	Name      string
	Kind      TypeDeclKind
	Supers    []ltypes.Type
	Locations []Location

	Alias *ltypes.AliasOrigin
	Enum  *ltypes.EnumOrigin
}

// MemberKind classifies a Member.
type MemberKind uint8

// MemberKind values.
const (
	MemberField MemberKind = iota
	MemberMethod
)

// FeatureBits mark provenance and shape details of a Member, consulted by
// the meta/file precedence rule and by diagnostics.
type FeatureBits uint8

// FeatureBits values.
const (
	FeatureMeta FeatureBits = 1 << iota
	FeatureFileDecl
	FeatureOptional
)

// Has reports whether all bits in mask are set.
func (f FeatureBits) Has(mask FeatureBits) bool { return f&mask == mask }

// MemberOwnerKind discriminates the MemberOwner union.
type MemberOwnerKind uint8

// MemberOwnerKind values.
const (
	OwnerTypeDecl MemberOwnerKind = iota
	OwnerLocalTableConst
	OwnerConfigTable
)

// MemberOwner identifies what a Member belongs to: a named type
// declaration, an anonymous in-file table constructor, or (the
// luaconfig-validator supplement) a ConfigTable bean.
type MemberOwner struct {
	Kind MemberOwnerKind
	Decl ltypes.TypeDeclId // OwnerTypeDecl / OwnerConfigTable
	File vfs.FileId        // OwnerLocalTableConst
	Span text.Span         // OwnerLocalTableConst: the table-constructor's range
}

// Member is one field or method contributed to an owner.
type Member struct {
	Key      string
	KeyIsInt bool
	IntKey   int64
	Type     ltypes.Type
	Kind     MemberKind
	Owner    MemberOwner
	Location Location
	Features FeatureBits
}

// RefKind classifies one occurrence of a name.
type RefKind uint8

// RefKind values.
const (
	RefRead RefKind = iota
	RefWrite
	RefCompoundAssign
)

// Reference is one occurrence of a name bound to a Decl or a member key.
type Reference struct {
	Span text.Span
	Node syntax.Ptr
	Kind RefKind
}

// RequireEdge records a `require`-like call's literal argument.
type RequireEdge struct {
	Path string
	Span text.Span
	Node syntax.Ptr
}
