package ltypes

import "testing"

func TestFromVecDropsNeverAndDedups(t *testing.T) {
	got := FromVec([]Type{Never(), Integer(), Integer(), Never()})
	if got.Kind != KindInteger {
		t.Fatalf("got %s, want integer", got)
	}
}

func TestFromVecShortCircuitsOnAny(t *testing.T) {
	got := FromVec([]Type{String(), AnyType(), Integer()})
	if got.Kind != KindAny {
		t.Fatalf("got %s, want any", got)
	}
}

func TestFromVecFlattensNestedUnions(t *testing.T) {
	inner := FromVec([]Type{String(), Integer()})
	got := FromVec([]Type{inner, Boolean()})
	if got.Kind != KindUnion || len(got.Elems) != 3 {
		t.Fatalf("got %s, want flattened 3-way union", got)
	}
}

func TestIsSubtypeConstWidening(t *testing.T) {
	if !IsSubtype(IntegerConst(5), Integer()).IsOK() {
		t.Fatal("IntegerConst(5) should be a subtype of integer")
	}
	if IsSubtype(Integer(), IntegerConst(5)).IsOK() {
		t.Fatal("integer should not be a subtype of IntegerConst(5)")
	}
}

func TestIsSubtypeUnionDistributesOnSubSide(t *testing.T) {
	u := FromVec([]Type{StringConst("a"), StringConst("b")})
	if !IsSubtype(u, String()).IsOK() {
		t.Fatal("union of string consts should be a subtype of string")
	}
}

func TestIsSubtypeAnyAcceptsEverything(t *testing.T) {
	if !IsSubtype(Table(), AnyType()).IsOK() {
		t.Fatal("anything should be a subtype of any")
	}
}

func TestIsSubtypeDistinctRefsFail(t *testing.T) {
	a := Ref("Foo", 1)
	b := Ref("Bar", 2)
	res := IsSubtype(a, b)
	if res.IsOK() {
		t.Fatal("distinct named refs should not be subtypes of each other")
	}
	if res.Reason != ReasonTypeNotMatch {
		t.Fatalf("got reason %v, want ReasonTypeNotMatch", res.Reason)
	}
}

func TestIsSubtypeObjectStructural(t *testing.T) {
	sub := Object(
		ObjectField{Key: "x", Type: Integer()},
		ObjectField{Key: "y", Type: String()},
	)
	super := Object(ObjectField{Key: "x", Type: Integer()})
	if !IsSubtype(sub, super).IsOK() {
		t.Fatal("object with extra fields should satisfy a narrower object shape")
	}

	missing := Object(ObjectField{Key: "z", Type: Integer(), Optional: true})
	superWithRequired := Object(ObjectField{Key: "z", Type: Integer()})
	if IsSubtype(missing, superWithRequired).IsOK() {
		t.Fatal("optional field should not satisfy a required one when absent")
	}
}

func TestIsSubtypeRecursionBailsOutBounded(t *testing.T) {
	self := Ref("Self", 1)
	wrapped := self
	for i := 0; i < maxSubtypeDepth+5; i++ {
		wrapped = Generic(wrapped, self)
	}
	res := IsSubtype(wrapped, Ref("Other", 2))
	if res.IsOK() {
		t.Fatal("deeply nested mismatched generics should fail")
	}
}

func TestIntersectionNarrowsConstant(t *testing.T) {
	got := Intersection(Integer(), IntegerConst(3))
	if got.Kind != KindIntegerConst || got.IntVal != 3 {
		t.Fatalf("got %s, want IntegerConst(3)", got)
	}
}

func TestIntersectionDistinctRefsNever(t *testing.T) {
	got := Intersection(Ref("Foo", 1), Ref("Bar", 2))
	if got.Kind != KindNever {
		t.Fatalf("got %s, want never", got)
	}
}

func TestRemoveStripsOptionalNil(t *testing.T) {
	optional := FromVec([]Type{String(), Nil()})
	got := Remove(optional, Nil())
	if got.Kind != KindString {
		t.Fatalf("got %s, want string", got)
	}
}

func TestInstantiateSubstitutesTemplateParam(t *testing.T) {
	arrayOfT := Array(TplRef("T"))
	got := Instantiate(arrayOfT, NewSubstitutor(map[string]Type{"T": String()}))
	if got.Kind != KindArray || got.Elem == nil || got.Elem.Kind != KindString {
		t.Fatalf("got %s, want string[]", got)
	}
}

func TestInstantiatePreservesIdentityWhenNoFreeParams(t *testing.T) {
	closed := Array(Integer())
	got := Instantiate(closed, NewSubstitutor(map[string]Type{"T": String()}))
	if got.Kind != KindArray || got.Elem.Kind != KindInteger {
		t.Fatalf("got %s, want unchanged integer[]", got)
	}
}

func TestExpandAliasSubstitutesParams(t *testing.T) {
	origin := AliasOrigin{
		Name:   "Box",
		Params: []string{"T"},
		Type:   Object(ObjectField{Key: "value", Type: TplRef("T")}),
	}
	got := ExpandAlias(origin, []Type{Integer()})
	if got.Kind != KindObject || got.Fields[0].Type.Kind != KindInteger {
		t.Fatalf("got %s, want { value: integer }", got)
	}
}

func TestExpandEnumBuildsConstUnion(t *testing.T) {
	origin := EnumOrigin{
		Name: "Color",
		Key:  true,
		Members: []EnumMember{
			{Name: "Red", StrVal: "Red"},
			{Name: "Blue", StrVal: "Blue"},
		},
	}
	got := ExpandEnum(origin)
	if got.Kind != KindUnion || len(got.Elems) != 2 {
		t.Fatalf("got %s, want 2-way string-const union", got)
	}
}

func TestCastCompatibleAllowsTableToObject(t *testing.T) {
	if !CastCompatible(Table(), Object(ObjectField{Key: "x", Type: Integer()})) {
		t.Fatal("table should be cast-compatible with an object shape")
	}
}

func TestCastCompatibleRejectsPrimitiveMismatch(t *testing.T) {
	if CastCompatible(String(), Integer()) {
		t.Fatal("string should not be cast-compatible with integer")
	}
}

func TestCastAddUnionsMember(t *testing.T) {
	got := Cast(String(), Nil(), true, false)
	if got.Kind != KindUnion || len(got.Elems) != 2 {
		t.Fatalf("got %s, want string|nil", got)
	}
}
