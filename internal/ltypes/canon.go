package ltypes

// FromVec canonicalizes a set of types into a single Type: it flattens
// nested unions, dedups by structural equality, drops Never members, and
// short-circuits to Any if Any is present. An empty input canonicalizes to
// Never; a singleton canonicalizes to that element unwrapped from its
// one-element union.
func FromVec(types []Type) Type {
	flat := make([]Type, 0, len(types))
	flatten(types, &flat)

	seen := make(map[string]bool, len(flat))
	out := make([]Type, 0, len(flat))
	for _, t := range flat {
		if t.Kind == KindNever {
			continue
		}
		if t.Kind == KindAny {
			return AnyType()
		}
		key := structuralKey(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}

	switch len(out) {
	case 0:
		return Never()
	case 1:
		return out[0]
	default:
		return Type{Kind: KindUnion, Elems: out}
	}
}

func flatten(types []Type, out *[]Type) {
	for _, t := range types {
		if t.Kind == KindUnion {
			flatten(t.Elems, out)
			continue
		}
		*out = append(*out, t)
	}
}

// Union returns the canonical union of a and b.
func Union(a, b Type) Type {
	return FromVec([]Type{a, b})
}

// Remove subtracts any member of t that is a subtype of target, using the
// subtype test; Remove(T?, nil) strips the optional member, matching the
// common narrowing idiom `if x ~= nil then ... end`.
func Remove(t, target Type) Type {
	if t.Kind != KindUnion {
		if IsSubtype(t, target).IsOK() {
			return Never()
		}
		return t
	}
	kept := make([]Type, 0, len(t.Elems))
	for _, e := range t.Elems {
		if IsSubtype(e, target).IsOK() {
			continue
		}
		kept = append(kept, e)
	}
	return FromVec(kept)
}

// Intersection computes the pairwise intersection of a and b per Lua
// semantics: narrowing a constant against its base type keeps the constant;
// distinct concrete refs intersect to Never; unions distribute over the
// other operand.
func Intersection(a, b Type) Type {
	a, b = Unwrap(a), Unwrap(b)

	if a.Kind == KindAny {
		return b
	}
	if b.Kind == KindAny {
		return a
	}
	if a.Kind == KindUnion {
		parts := make([]Type, len(a.Elems))
		for i, e := range a.Elems {
			parts[i] = Intersection(e, b)
		}
		return FromVec(parts)
	}
	if b.Kind == KindUnion {
		return Intersection(b, a)
	}

	if a.Kind == KindInteger && b.Kind == KindIntegerConst {
		return b
	}
	if b.Kind == KindInteger && a.Kind == KindIntegerConst {
		return a
	}
	if a.Kind == KindString && b.Kind == KindStringConst {
		return b
	}
	if b.Kind == KindString && a.Kind == KindStringConst {
		return a
	}
	if a.Kind == KindBoolean && b.Kind == KindBooleanConst {
		return b
	}
	if b.Kind == KindBoolean && a.Kind == KindBooleanConst {
		return a
	}

	if structuralKey(a) == structuralKey(b) {
		return a
	}

	if (a.Kind == KindRef || a.Kind == KindInstance) && (b.Kind == KindRef || b.Kind == KindInstance) {
		if a.Decl != b.Decl {
			return Never()
		}
		return a
	}

	if IsSubtype(a, b).IsOK() {
		return a
	}
	if IsSubtype(b, a).IsOK() {
		return b
	}

	return Never()
}
