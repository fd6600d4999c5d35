package ltypes

import "fmt"

// FailReason enumerates why a subtype test failed, matching the taxonomy
// diagnostics report against: bare mismatches get TypeNotMatch, mismatches
// worth explaining get a reason string, DonotCheck marks pairs the checker
// should treat as always compatible (e.g. one side is Unknown because
// inference gave up), and TypeRecursion marks a bounded-depth bailout.
type FailReason uint8

// FailReason values.
const (
	ReasonNone FailReason = iota
	ReasonTypeNotMatch
	ReasonTypeNotMatchWithMessage
	ReasonDonotCheck
	ReasonTypeRecursion
)

// CheckResult is the outcome of a subtype test.
type CheckResult struct {
	Reason  FailReason
	Message string
}

// IsOK reports whether the check succeeded.
func (r CheckResult) IsOK() bool { return r.Reason == ReasonNone }

func ok() CheckResult { return CheckResult{} }

func fail(msg string) CheckResult {
	if msg == "" {
		return CheckResult{Reason: ReasonTypeNotMatch}
	}
	return CheckResult{Reason: ReasonTypeNotMatchWithMessage, Message: msg}
}

func donotCheck() CheckResult { return CheckResult{Reason: ReasonDonotCheck} }

// maxSubtypeDepth bounds recursive subtype checks over recursive type
// graphs (a class referencing itself through a field). This is a limit, not
// a guarantee of termination for pathological inputs beyond this depth: a
// TypeRecursion failure is reported instead of looping forever.
const maxSubtypeDepth = 64

// IsSubtype reports whether sub is assignable to super.
func IsSubtype(sub, super Type) CheckResult {
	return isSubtypeDepth(sub, super, 0)
}

func isSubtypeDepth(sub, super Type, depth int) CheckResult {
	if depth > maxSubtypeDepth {
		return CheckResult{Reason: ReasonTypeRecursion}
	}

	sub = Unwrap(sub)
	super = Unwrap(super)

	if super.Kind == KindAny || sub.Kind == KindNever {
		return ok()
	}
	if sub.Kind == KindAny {
		return ok()
	}
	if sub.Kind == KindUnknown || super.Kind == KindUnknown {
		return donotCheck()
	}

	if super.Kind == KindUnion {
		for _, e := range super.Elems {
			if isSubtypeDepth(sub, e, depth+1).IsOK() {
				return ok()
			}
		}
		return fail(fmt.Sprintf("%s is not assignable to %s", sub, super))
	}

	if sub.Kind == KindUnion {
		for _, e := range sub.Elems {
			if res := isSubtypeDepth(e, super, depth+1); !res.IsOK() {
				return res
			}
		}
		return ok()
	}

	if super.Kind == KindIntersection {
		for _, e := range super.Elems {
			if res := isSubtypeDepth(sub, e, depth+1); !res.IsOK() {
				return res
			}
		}
		return ok()
	}
	if sub.Kind == KindIntersection {
		for _, e := range sub.Elems {
			if isSubtypeDepth(e, super, depth+1).IsOK() {
				return ok()
			}
		}
		return fail(fmt.Sprintf("%s is not assignable to %s", sub, super))
	}

	switch super.Kind {
	case KindInteger:
		if sub.Kind == KindInteger || sub.Kind == KindIntegerConst {
			return ok()
		}
	case KindIntegerConst:
		if sub.Kind == KindIntegerConst && sub.IntVal == super.IntVal {
			return ok()
		}
	case KindNumber:
		if sub.Kind == KindNumber || sub.Kind == KindInteger || sub.Kind == KindIntegerConst {
			return ok()
		}
	case KindString:
		if sub.Kind == KindString || sub.Kind == KindStringConst {
			return ok()
		}
	case KindStringConst:
		if sub.Kind == KindStringConst && sub.StringVal == super.StringVal {
			return ok()
		}
	case KindBoolean:
		if sub.Kind == KindBoolean || sub.Kind == KindBooleanConst {
			return ok()
		}
	case KindBooleanConst:
		if sub.Kind == KindBooleanConst && sub.BoolVal == super.BoolVal {
			return ok()
		}
	case KindNil:
		if sub.Kind == KindNil {
			return ok()
		}
	case KindTable:
		if sub.Kind == KindTable || sub.Kind == KindObject || sub.Kind == KindArray ||
			sub.Kind == KindInstance || sub.Kind == KindRef {
			return ok()
		}
	case KindArray:
		if sub.Kind == KindArray && super.Elem != nil && sub.Elem != nil {
			return isSubtypeDepth(*sub.Elem, *super.Elem, depth+1)
		}
	case KindObject:
		if sub.Kind == KindObject {
			return objectSubtype(sub, super, depth)
		}
	case KindRef, KindInstance, KindDef:
		if sub.Kind == KindRef || sub.Kind == KindInstance || sub.Kind == KindDef {
			if sub.Decl == super.Decl {
				return ok()
			}
			return fail("")
		}
	case KindGeneric:
		if sub.Kind == KindGeneric && sub.Base != nil && super.Base != nil {
			if res := isSubtypeDepth(*sub.Base, *super.Base, depth+1); !res.IsOK() {
				return res
			}
			if len(sub.Params2) != len(super.Params2) {
				return fail("generic argument count mismatch")
			}
			for i := range sub.Params2 {
				if res := isSubtypeDepth(sub.Params2[i], super.Params2[i], depth+1); !res.IsOK() {
					return res
				}
			}
			return ok()
		}
	case KindSignature, KindDocFunction:
		if sub.Kind == KindSignature || sub.Kind == KindDocFunction {
			return signatureSubtype(sub, super, depth)
		}
	case KindTuple:
		if sub.Kind == KindTuple {
			if len(sub.Elems) != len(super.Elems) {
				return fail("tuple length mismatch")
			}
			for i := range sub.Elems {
				if res := isSubtypeDepth(sub.Elems[i], super.Elems[i], depth+1); !res.IsOK() {
					return res
				}
			}
			return ok()
		}
	}

	if structuralKey(sub) == structuralKey(super) {
		return ok()
	}

	return fail(fmt.Sprintf("%s is not assignable to %s", sub, super))
}

func objectSubtype(sub, super Type, depth int) CheckResult {
	for _, sf := range super.Fields {
		found := false
		for _, f := range sub.Fields {
			if f.Key != sf.Key {
				continue
			}
			found = true
			if f.Optional && !sf.Optional {
				return fail(fmt.Sprintf("field %q is optional", sf.Key))
			}
			if res := isSubtypeDepth(f.Type, sf.Type, depth+1); !res.IsOK() {
				return res
			}
			break
		}
		if !found && !sf.Optional {
			return fail(fmt.Sprintf("missing field %q", sf.Key))
		}
	}
	return ok()
}

// signatureSubtype checks return types covariantly: sub must have at least
// as many returns as super, and each of super's returns must accept the
// matching return of sub. Parameters are not compared (contravariant
// parameter checking is skipped: Lua call sites are rarely variance-strict, and the original
// analyzer treats function-type assignment leniently outside of @overload
// resolution, which uses argument-type matching instead of this path).
func signatureSubtype(sub, super Type, depth int) CheckResult {
	if len(sub.Returns) < len(super.Returns) {
		return fail("return count mismatch")
	}
	for i := range super.Returns {
		if res := isSubtypeDepth(sub.Returns[i], super.Returns[i], depth+1); !res.IsOK() {
			return res
		}
	}
	return ok()
}
