package diagnostic

import (
	"context"
	"fmt"
	"sort"
)

// Engine runs a fixed set of Checkers over a Model and returns the
// suppression-filtered, sorted diagnostic list, per spec §4.9's "The engine
// runs all enabled checkers against a per-file immutable model".
type Engine struct {
	checkers []Checker
}

// NewEngine builds an engine from an explicit checker set, letting the query
// layer apply `diagnostics.disable`/checker-selection config before
// construction.
func NewEngine(checkers ...Checker) *Engine {
	return &Engine{checkers: append([]Checker(nil), checkers...)}
}

// NewDefaultEngine builds the engine with every built-in checker enabled.
func NewDefaultEngine() *Engine {
	return NewEngine(
		UndefinedGlobalChecker{},
		UnusedLocalChecker{},
		CastTypeMismatchChecker{},
		EnumValueMismatchChecker{},
		IncompleteSignatureDocChecker{},
		DuplicatePrimaryKeyChecker{},
		InvalidIndexFieldChecker{},
		PreferredLocalAliasChecker{},
	)
}

// Run executes every checker against m, applies each diagnostic's registry
// default severity when the checker left Severity unset, drops anything
// covered by a suppression directive, and returns the result in a stable
// order: by range, then severity, then code.
func (e *Engine) Run(ctx context.Context, m *Model) ([]Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []Diagnostic
	for _, c := range e.checkers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		diags, err := c.Check(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("checker %s: %w", c.ID(), err)
		}
		out = append(out, diags...)
	}

	suppressions := CollectSuppressions(m.Tree)
	filtered := out[:0]
	for _, d := range out {
		if d.Severity == 0 {
			d.Severity = DefaultSeverity(d.Code)
		}
		if suppressions.Covers(m.Tree, d.Code, d.Span) {
			continue
		}
		filtered = append(filtered, d)
	}

	sortDiagnostics(filtered)
	return filtered, nil
}

func sortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		if a.Span.End != b.Span.End {
			return a.Span.End < b.Span.End
		}
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		return a.Code < b.Code
	})
}
