package ltypes

// CastCompatible implements the `---@cast` narrowing operator. It is
// deliberately looser than IsSubtype: EmmyLua-style cast annotations are an
// explicit assertion from the author, so a plain Table is accepted as
// cast-compatible with any Object/Ref/Instance target (and vice versa)
// even though Table is not a subtype of a specific shape. Primitive kinds
// still have to agree (casting a string to an integer is rejected) since
// that is almost always a typo rather than an intentional narrowing.
func CastCompatible(from, to Type) bool {
	from, to = Unwrap(from), Unwrap(to)

	if from.Kind == KindAny || to.Kind == KindAny {
		return true
	}
	if from.Kind == KindUnknown || to.Kind == KindUnknown {
		return true
	}
	if IsSubtype(from, to).IsOK() || IsSubtype(to, from).IsOK() {
		return true
	}

	if isTableLike(from) && isTableLike(to) {
		return true
	}

	if from.Kind == KindUnion {
		for _, e := range from.Elems {
			if CastCompatible(e, to) {
				return true
			}
		}
		return false
	}
	if to.Kind == KindUnion {
		for _, e := range to.Elems {
			if CastCompatible(from, e) {
				return true
			}
		}
		return false
	}

	return false
}

func isTableLike(t Type) bool {
	switch t.Kind {
	case KindTable, KindObject, KindArray, KindRef, KindInstance, KindDef, KindGeneric:
		return true
	default:
		return false
	}
}

// Cast applies a `---@cast name Type` or `---@cast name +Type`/`-Type`
// narrowing to the statically-known type of a local. add/remove select
// between replacing the type outright (no sign) and widening/narrowing an
// existing union (+ adds a union member, - removes one via Remove).
func Cast(current Type, target Type, add, remove bool) Type {
	switch {
	case add:
		return Union(current, target)
	case remove:
		return Remove(current, target)
	default:
		return target
	}
}
