package diagnostic

import "context"

// Checker is a named diagnostic rule: a static list of the Codes it can
// produce, and a Check entry point run once per file against an immutable
// Model (spec §4.9, "Each declares a static list of DiagnosticCodes it
// produces and a check(ctx, semantic_model) entry point").
type Checker interface {
	ID() string
	Codes() []Code
	Check(ctx context.Context, m *Model) ([]Diagnostic, error)
}
