// Package ltypes implements a purely functional type algebra for the Lua
// type system: canonicalization, intersection/union, subtype checking,
// instantiation, and narrowing, independent of any particular file's syntax
// tree or declaration index.
package ltypes

import (
	"fmt"
	"sort"
	"strings"
)

// TypeDeclId identifies a class/alias/enum declaration, owned by the
// semantic index; ltypes treats it as an opaque key.
type TypeDeclId uint64

// Kind discriminates the Type sum type's variants.
type Kind uint8

// Kind values.
const (
	KindNever Kind = iota
	KindAny
	KindUnknown
	KindNil
	KindBoolean
	KindBooleanConst
	KindInteger
	KindIntegerConst
	KindNumber
	KindString
	KindStringConst
	KindFunction
	KindTable
	KindUnion
	KindIntersection
	KindArray
	KindTuple
	KindObject
	KindGeneric
	KindRef
	KindDef
	KindSignature
	KindDocFunction
	KindInstance
	KindTypeGuard
	KindAttributed
	KindVariadic
	KindTplRef
	KindMultiReturn
)

// ObjectField is one declared field of an Object/TableConst type.
type ObjectField struct {
	Key      string
	KeyIsInt bool
	IntKey   int64
	Type     Type
	Optional bool
}

// SignatureParam is one parameter of a Function/Signature/DocFunction type.
type SignatureParam struct {
	Name     string
	Type     Type
	Optional bool
	Vararg   bool
}

// AttributeUse records one `@attribute`-style annotation on an Attributed
// type (`v.ref`, `v.size(1)`, `v.index("k")`, `t.index(...)`).
type AttributeUse struct {
	Name string
	Args []string
}

// Type is an immutable value describing a Lua value's static type. Its zero
// value is KindNever's Type (the Never() constructor should be preferred for
// clarity at call sites).
type Type struct {
	Kind Kind

	// KindBooleanConst / KindIntegerConst / KindStringConst.
	BoolVal   bool
	IntVal    int64
	StringVal string

	// KindUnion / KindIntersection / KindTuple / KindMultiReturn.
	Elems []Type

	// KindArray.
	Elem *Type

	// KindObject.
	Fields []ObjectField

	// KindFunction / KindSignature / KindDocFunction.
	Params  []SignatureParam
	Returns []Type

	// KindGeneric; KindAttributed and KindVariadic also keep their wrapped
	// type in Base.
	Base   *Type
	Params2 []Type // generic type arguments, kept distinct from Params (func params)

	// KindRef / KindDef / KindInstance.
	Decl TypeDeclId
	Name string // declaration name, for display and Ref-before-resolution use

	// KindAttributed.
	Attrs []AttributeUse

	// KindTplRef.
	Param string

	// KindTypeGuard: `fun(v): v is T`-style narrowing function return.
	GuardParam string
	GuardType  *Type
}

func prim(k Kind) Type { return Type{Kind: k} }

// Never returns the bottom type.
func Never() Type { return prim(KindNever) }

// AnyType returns the top "escape hatch" type.
func AnyType() Type { return prim(KindAny) }

// Unknown returns the type assigned before any inference has run.
func Unknown() Type { return prim(KindUnknown) }

// Nil returns the nil type.
func Nil() Type { return prim(KindNil) }

// Boolean returns the unconstrained boolean type.
func Boolean() Type { return prim(KindBoolean) }

// BooleanConst returns a literal true/false type.
func BooleanConst(v bool) Type { return Type{Kind: KindBooleanConst, BoolVal: v} }

// Integer returns the unconstrained integer type.
func Integer() Type { return prim(KindInteger) }

// IntegerConst returns a literal integer type.
func IntegerConst(v int64) Type { return Type{Kind: KindIntegerConst, IntVal: v} }

// Number returns the unconstrained number (float) type.
func Number() Type { return prim(KindNumber) }

// String returns the unconstrained string type.
func String() Type { return prim(KindString) }

// StringConst returns a literal string type.
func StringConst(v string) Type { return Type{Kind: KindStringConst, StringVal: v} }

// Table returns the unconstrained table type (no declared shape).
func Table() Type { return prim(KindTable) }

// Ref returns an unresolved reference to a named declaration (class, alias,
// or enum) by name; resolution to a TypeDeclId happens via the member/decl
// index, not here.
func Ref(name string, decl TypeDeclId) Type {
	return Type{Kind: KindRef, Name: name, Decl: decl}
}

// Def constructs the defining-occurrence type of a declaration (used at the
// declaration site itself, e.g. inside a class body for `self`).
func Def(name string, decl TypeDeclId) Type {
	return Type{Kind: KindDef, Name: name, Decl: decl}
}

// Array returns T[].
func Array(elem Type) Type { return Type{Kind: KindArray, Elem: &elem} }

// Tuple returns a fixed-length [T1, T2, ...] type.
func Tuple(elems ...Type) Type { return Type{Kind: KindTuple, Elems: elems} }

// MultiReturn returns a call's full return-type list, used before it is
// narrowed to a single value by assignment context.
func MultiReturn(elems ...Type) Type { return Type{Kind: KindMultiReturn, Elems: elems} }

// Object returns an anonymous structural type with the given fields.
func Object(fields ...ObjectField) Type { return Type{Kind: KindObject, Fields: fields} }

// Generic returns base<args...>.
func Generic(base Type, args ...Type) Type {
	return Type{Kind: KindGeneric, Base: &base, Params2: args}
}

// Signature returns a concrete call signature (used for a specific overload
// candidate, as opposed to DocFunction's free-standing annotation form).
func Signature(params []SignatureParam, returns ...Type) Type {
	return Type{Kind: KindSignature, Params: params, Returns: returns}
}

// DocFunction returns a `fun(...)`-annotated function type.
func DocFunction(params []SignatureParam, returns ...Type) Type {
	return Type{Kind: KindDocFunction, Params: params, Returns: returns}
}

// Instance returns the runtime instance type of a class declaration (as
// opposed to Ref, which may denote the class value itself in some
// contexts — e.g. a static member access).
func Instance(name string, decl TypeDeclId) Type {
	return Type{Kind: KindInstance, Name: name, Decl: decl}
}

// Attributed wraps base with attribute-use metadata. It is transparent to
// subtyping; callers that need the raw base call Unwrap.
func Attributed(base Type, attrs ...AttributeUse) Type {
	return Type{Kind: KindAttributed, Base: &base, Attrs: attrs}
}

// Variadic returns the `...: T` parameter type.
func Variadic(elem Type) Type { return Type{Kind: KindVariadic, Base: &elem} }

// TplRef returns an unresolved generic-template parameter reference by name.
func TplRef(param string) Type { return Type{Kind: KindTplRef, Param: param} }

// TypeGuard returns a `fun(v: any): v is T` narrowing-function return type.
func TypeGuard(param string, target Type) Type {
	return Type{Kind: KindTypeGuard, GuardParam: param, GuardType: &target}
}

// Unwrap strips an Attributed wrapper, returning base unchanged for any
// other kind.
func Unwrap(t Type) Type {
	if t.Kind == KindAttributed && t.Base != nil {
		return *t.Base
	}
	return t
}

// IsOptional reports whether t is (or unions with) nil.
func IsOptional(t Type) bool {
	t = Unwrap(t)
	if t.Kind == KindNil {
		return true
	}
	if t.Kind == KindUnion {
		for _, e := range t.Elems {
			if IsOptional(e) {
				return true
			}
		}
	}
	return false
}

// String renders t for diagnostics and hover text.
func (t Type) String() string {
	switch t.Kind {
	case KindNever:
		return "never"
	case KindAny:
		return "any"
	case KindUnknown:
		return "unknown"
	case KindNil:
		return "nil"
	case KindBoolean:
		return "boolean"
	case KindBooleanConst:
		return fmt.Sprintf("%t", t.BoolVal)
	case KindInteger:
		return "integer"
	case KindIntegerConst:
		return fmt.Sprintf("%d", t.IntVal)
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindStringConst:
		return fmt.Sprintf("%q", t.StringVal)
	case KindTable:
		return "table"
	case KindUnion:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return strings.Join(parts, "|")
	case KindIntersection:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return strings.Join(parts, "&")
	case KindArray:
		if t.Elem == nil {
			return "unknown[]"
		}
		return t.Elem.String() + "[]"
	case KindTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			opt := ""
			if f.Optional {
				opt = "?"
			}
			parts[i] = fmt.Sprintf("%s%s: %s", f.Key, opt, f.Type.String())
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case KindGeneric:
		parts := make([]string, len(t.Params2))
		for i, p := range t.Params2 {
			parts[i] = p.String()
		}
		base := ""
		if t.Base != nil {
			base = t.Base.String()
		}
		return fmt.Sprintf("%s<%s>", base, strings.Join(parts, ", "))
	case KindRef:
		return t.Name
	case KindDef:
		return t.Name
	case KindInstance:
		return t.Name
	case KindSignature, KindDocFunction:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.Name + ": " + p.Type.String()
		}
		rets := make([]string, len(t.Returns))
		for i, r := range t.Returns {
			rets[i] = r.String()
		}
		return fmt.Sprintf("fun(%s): %s", strings.Join(parts, ", "), strings.Join(rets, ", "))
	case KindAttributed:
		base := ""
		if t.Base != nil {
			base = t.Base.String()
		}
		return base
	case KindVariadic:
		base := ""
		if t.Base != nil {
			base = t.Base.String()
		}
		return "..." + base
	case KindTplRef:
		return t.Param
	case KindMultiReturn:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return strings.Join(parts, ", ")
	case KindTypeGuard:
		target := ""
		if t.GuardType != nil {
			target = t.GuardType.String()
		}
		return fmt.Sprintf("fun(%s): %s is %s", t.GuardParam, t.GuardParam, target)
	default:
		return fmt.Sprintf("Type(%d)", t.Kind)
	}
}

// structuralKey produces a comparable key used for dedup by structural
// equality in canonicalization; it is not meant to be human-readable.
func structuralKey(t Type) string {
	var b strings.Builder
	writeStructuralKey(&b, t)
	return b.String()
}

func writeStructuralKey(b *strings.Builder, t Type) {
	fmt.Fprintf(b, "%d(", t.Kind)
	switch t.Kind {
	case KindBooleanConst:
		fmt.Fprintf(b, "%t", t.BoolVal)
	case KindIntegerConst:
		fmt.Fprintf(b, "%d", t.IntVal)
	case KindStringConst:
		b.WriteString(t.StringVal)
	case KindRef, KindDef, KindInstance:
		fmt.Fprintf(b, "%s#%d", t.Name, t.Decl)
	case KindArray:
		if t.Elem != nil {
			writeStructuralKey(b, *t.Elem)
		}
	case KindUnion, KindIntersection, KindTuple, KindMultiReturn:
		for _, e := range t.Elems {
			writeStructuralKey(b, e)
			b.WriteByte(';')
		}
	case KindGeneric:
		if t.Base != nil {
			writeStructuralKey(b, *t.Base)
		}
		for _, p := range t.Params2 {
			writeStructuralKey(b, p)
		}
	case KindObject:
		sorted := append([]ObjectField(nil), t.Fields...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
		for _, f := range sorted {
			b.WriteString(f.Key)
			b.WriteByte(':')
			writeStructuralKey(b, f.Type)
			b.WriteByte(';')
		}
	case KindAttributed, KindVariadic:
		if t.Base != nil {
			writeStructuralKey(b, *t.Base)
		}
	case KindTplRef:
		b.WriteString(t.Param)
	}
	b.WriteByte(')')
}
