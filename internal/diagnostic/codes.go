// Package diagnostic runs named Checkers over a per-file semantic model and
// produces the suppression-filtered diagnostic stream the query layer
// publishes to editors.
package diagnostic

import "github.com/luaowl/luacore/internal/syntax"

// Code identifies a diagnostic kind. Unlike syntax.DiagnosticCode (which
// only ever names parser-layer problems), Code spans the full taxonomy a
// Checker can report.
type Code string

// Severity mirrors syntax.Severity so a Diagnostic can be sorted and
// rendered the same way regardless of which layer produced it.
type Severity = syntax.Severity

// Severity values, re-exported for callers that only import this package.
const (
	SeverityError   = syntax.SeverityError
	SeverityWarning = syntax.SeverityWarning
	SeverityInfo    = syntax.SeverityInfo
	SeverityHint    = syntax.SeverityHint
)

// Diagnostic codes. Names match spec.md §4.9's taxonomy entries where one
// exists; the luaconfig and style checks are named after the SUPPLEMENTED
// FEATURES they implement.
const (
	CodeSyntaxError            Code = "syntax-error"
	CodeUndefinedGlobal        Code = "undefined-global"
	CodeUnusedLocal            Code = "unused-local"
	CodeCastTypeMismatch       Code = "cast-type-mismatch"
	CodeEnumValueMismatch      Code = "enum-value-mismatch"
	CodeIncompleteSignatureDoc Code = "incomplete-signature-doc"
	CodeDuplicatePrimaryKey    Code = "duplicate-primary-key"
	CodeInvalidIndexField      Code = "invalid-index-field"
	CodePreferredLocalAlias    Code = "preferred-local-alias"
)

// CodeInfo is the registry entry for one diagnostic code: its default
// severity and a short description, grounded on the original's
// lua_diagnostic_code.rs ("a single source of truth enumerating every
// diagnostic code, its default severity, and its description").
type CodeInfo struct {
	Severity    Severity
	Description string
}

// defaultRegistry is the built-in severity/description table. A
// configuration map may override severities at the query-layer boundary;
// this package only ever supplies the defaults.
var defaultRegistry = map[Code]CodeInfo{
	CodeSyntaxError:            {SeverityError, "the source failed to parse"},
	CodeUndefinedGlobal:        {SeverityWarning, "reference to a global that is never assigned anywhere in the workspace"},
	CodeUnusedLocal:            {SeverityHint, "local variable is declared but never read"},
	CodeCastTypeMismatch:       {SeverityError, "@cast target type is not compatible with the narrowed variable's declared type"},
	CodeEnumValueMismatch:      {SeverityError, "value does not match any member of the enum it's assigned to"},
	CodeIncompleteSignatureDoc: {SeverityHint, "function has @param tags but not exactly one per parameter"},
	CodeDuplicatePrimaryKey:    {SeverityError, "table constructor repeats the same key"},
	CodeInvalidIndexField:      {SeverityWarning, "table constructor's bracketed key is not a literal string or integer"},
	CodePreferredLocalAlias:    {SeverityInfo, "repeated long dotted access could be a local alias"},
}

// DefaultSeverity returns code's built-in severity, or SeverityWarning if
// code isn't in the registry (the "None variant is the unrecognized /
// do-nothing sentinel" case from spec.md §4.9, loosened to a safe default
// rather than silently dropping an unknown code).
func DefaultSeverity(code Code) Severity {
	if info, ok := defaultRegistry[code]; ok {
		return info.Severity
	}
	return SeverityWarning
}

// Describe returns code's registry description, if any.
func Describe(code Code) (string, bool) {
	info, ok := defaultRegistry[code]
	return info.Description, ok
}
