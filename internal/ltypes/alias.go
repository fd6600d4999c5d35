package ltypes

// AliasOrigin is the right-hand side of an `@alias Name <type>` declaration,
// stored by the declaration index and expanded here on demand rather than
// eagerly, so that mutually-recursive aliases don't need resolution order.
type AliasOrigin struct {
	Decl TypeDeclId
	Name string
	// Params are alias-level template parameters (`@alias Box<T> { v: T }`).
	Params []string
	// Type is the unexpanded right-hand side; TplRef nodes inside it refer to
	// Params by name.
	Type Type
}

// ExpandAlias substitutes args for origin.Params through origin.Type. A
// non-generic alias (no Params) ignores args and returns origin.Type as-is.
func ExpandAlias(origin AliasOrigin, args []Type) Type {
	if len(origin.Params) == 0 {
		return origin.Type
	}
	bindings := make(map[string]Type, len(origin.Params))
	for i, p := range origin.Params {
		if i < len(args) {
			bindings[p] = args[i]
		} else {
			bindings[p] = Unknown()
		}
	}
	return Instantiate(origin.Type, NewSubstitutor(bindings))
}

// EnumMember is one member of an `@enum` declaration.
type EnumMember struct {
	Name string
	// IsInt reports whether the member's value is the integer IntVal;
	// otherwise StrVal holds its string value.
	IsInt   bool
	IntVal  int64
	StrVal  string
}

// EnumOrigin is the full member list of an `@enum Name` declaration.
type EnumOrigin struct {
	Decl    TypeDeclId
	Name    string
	Members []EnumMember
	// Key marks whether bare member references resolve to the member's
	// own value (true "key" enums, the EmmyLua default) or to the
	// declaration's backing type (explicit `@enum Name: T`).
	Key bool
}

// ExpandEnum returns the union of an enum's member literal types: each
// member contributes an IntegerConst or StringConst, matching how the type
// checker treats an enum value as "one of these constants".
func ExpandEnum(origin EnumOrigin) Type {
	parts := make([]Type, 0, len(origin.Members))
	for _, m := range origin.Members {
		if m.IsInt {
			parts = append(parts, IntegerConst(m.IntVal))
		} else {
			parts = append(parts, StringConst(m.StrVal))
		}
	}
	return FromVec(parts)
}
