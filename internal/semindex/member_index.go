package semindex

import (
	"github.com/luaowl/luacore/internal/ltypes"
)

// maxSuperDepth bounds the super-type breadth-first walk against `@class A :
// B` / `@class B : A` cycles (spec §9, "cycles in the type graph").
const maxSuperDepth = 64

// MembersOf resolves the members visible on t, following the six-step
// algorithm: strip attributes, resolve Ref/Def to a (possibly partial)
// TypeDecl, walk supers breadth-first with child members shadowing parent
// members of the same key, substitute generic params, combine
// Intersection/Union branches, and read Object/table-const fields directly.
func (db *Database) MembersOf(t ltypes.Type) []*Member {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.membersOf(t)
}

func (db *Database) membersOf(t ltypes.Type) []*Member {
	return db.membersOfVisiting(t, map[ltypes.TypeDeclId]bool{})
}

// membersOfVisiting is membersOf with the super-walk cycle guard threaded
// through explicitly, so every recursive branch reached from a single
// top-level MembersOf call (supers, generic bases, union/intersection
// elements) shares one visiting set instead of resetting it.
func (db *Database) membersOfVisiting(t ltypes.Type, visiting map[ltypes.TypeDeclId]bool) []*Member {
	t = ltypes.Unwrap(t)

	switch t.Kind {
	case ltypes.KindRef, ltypes.KindDef, ltypes.KindInstance:
		return db.membersOfDecl(t.Decl, nil, visiting)

	case ltypes.KindGeneric:
		if t.Base == nil {
			return nil
		}
		base := ltypes.Unwrap(*t.Base)
		if base.Kind != ltypes.KindRef && base.Kind != ltypes.KindDef && base.Kind != ltypes.KindInstance {
			return nil
		}
		td, ok := db.typeDecls[base.Decl]
		if !ok {
			return nil
		}
		sub := genericSubstitutor(td, t.Params2)
		return db.membersOfDecl(base.Decl, sub, visiting)

	case ltypes.KindIntersection:
		var out []*Member
		for _, e := range t.Elems {
			out = append(out, db.membersOfVisiting(e, visiting)...)
		}
		return out

	case ltypes.KindUnion:
		return db.membersOfUnion(t.Elems, visiting)

	case ltypes.KindObject:
		out := make([]*Member, 0, len(t.Fields))
		for _, f := range t.Fields {
			out = append(out, &Member{
				Key:      f.Key,
				KeyIsInt: f.KeyIsInt,
				IntKey:   f.IntKey,
				Type:     f.Type,
				Kind:     MemberField,
				Features: featureFromOptional(f.Optional),
			})
		}
		return out

	default:
		return nil
	}
}

func featureFromOptional(opt bool) FeatureBits {
	if opt {
		return FeatureOptional
	}
	return 0
}

// genericSubstitutor builds the TypeSubstitutor a @generic class's template
// params bind to when instantiating base's members for Generic(base, params).
// Classes don't carry their own generic-parameter list in this index (only
// aliases do, via AliasOrigin.Params); absent that the type arguments simply
// have nothing to bind to and instantiation is a no-op, so this returns nil
// unless td is backed by an alias with declared Params.
func genericSubstitutor(td *TypeDecl, args []ltypes.Type) *ltypes.TypeSubstitutor {
	if td.Alias == nil || len(td.Alias.Params) == 0 {
		return nil
	}
	bindings := make(map[string]ltypes.Type, len(td.Alias.Params))
	for i, p := range td.Alias.Params {
		if i < len(args) {
			bindings[p] = args[i]
		} else {
			bindings[p] = ltypes.Unknown()
		}
	}
	return ltypes.NewSubstitutor(bindings)
}

// membersOfDecl resolves the TypeDecl for id, walking its Supers
// breadth-first: members declared directly on id shadow a same-keyed member
// inherited from a super, and each super level is visited once thanks to
// visiting. An alias decl expands to its underlying type's members instead
// of walking Supers (aliases have no member list of their own).
func (db *Database) membersOfDecl(id ltypes.TypeDeclId, sub *ltypes.TypeSubstitutor, visiting map[ltypes.TypeDeclId]bool) []*Member {
	if visiting[id] || len(visiting) > maxSuperDepth {
		return nil
	}
	visiting[id] = true

	td, ok := db.typeDecls[id]
	if !ok {
		return nil
	}

	if td.Kind == TypeDeclAlias && td.Alias != nil {
		return db.membersOfVisiting(ltypes.ExpandAlias(*td.Alias, nil), visiting)
	}
	if td.Kind == TypeDeclEnum && td.Enum != nil {
		return db.membersOfVisiting(ltypes.ExpandEnum(*td.Enum), visiting)
	}

	own := db.resolveMeta(td, db.membersByType[id])
	if sub != nil {
		own = substituteMembers(own, sub)
	}

	byKey := make(map[MemberKey]*Member, len(own))
	order := make([]MemberKey, 0, len(own))
	for _, m := range own {
		k := memberKeyOf(m)
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = m
	}

	for _, super := range td.Supers {
		for _, m := range db.membersOfVisiting(super, visiting) {
			k := memberKeyOf(m)
			if _, seen := byKey[k]; seen {
				continue // child shadows parent
			}
			byKey[k] = m
			order = append(order, k)
		}
	}

	out := make([]*Member, len(order))
	for i, k := range order {
		out[i] = byKey[k]
	}
	return out
}

type MemberKey struct {
	IsInt bool
	Int   int64
	Name  string
}

func memberKeyOf(m *Member) MemberKey {
	if m.KeyIsInt {
		return MemberKey{IsInt: true, Int: m.IntKey}
	}
	return MemberKey{Name: m.Key}
}

func substituteMembers(members []*Member, sub *ltypes.TypeSubstitutor) []*Member {
	out := make([]*Member, len(members))
	for i, m := range members {
		cp := *m
		cp.Type = ltypes.Instantiate(m.Type, sub)
		out[i] = &cp
	}
	return out
}

// resolveMeta applies the "strict.meta_override_file_define" precedence
// rule: when both meta-sourced and file-declared members exist for the same
// owner, pick one subset as a whole rather than merging key-by-key, per the
// Open Question decision in SPEC_FULL.md. db.preferMeta defaults to false
// (file-declared wins), matching EmmyLua's default editing experience where
// hand-written annotations should win over bundled meta stubs.
func (db *Database) resolveMeta(td *TypeDecl, members []*Member) []*Member {
	var meta, file []*Member
	for _, m := range members {
		if m.Features.Has(FeatureMeta) {
			meta = append(meta, m)
		} else {
			file = append(file, m)
		}
	}
	if len(meta) == 0 || len(file) == 0 {
		return members
	}
	if db.preferMeta {
		return meta
	}
	return file
}

// membersOfUnion computes the intersection of the key sets across every
// union branch: a member must exist in all branches to be visible on the
// union as a whole (spec §4.6 step 5).
func (db *Database) membersOfUnion(elems []ltypes.Type, visiting map[ltypes.TypeDeclId]bool) []*Member {
	if len(elems) == 0 {
		return nil
	}
	sets := make([]map[MemberKey]*Member, len(elems))
	for i, e := range elems {
		m := make(map[MemberKey]*Member)
		for _, mem := range db.membersOfVisiting(e, visiting) {
			m[memberKeyOf(mem)] = mem
		}
		sets[i] = m
	}
	var out []*Member
	for k, m := range sets[0] {
		inAll := true
		for _, s := range sets[1:] {
			if _, ok := s[k]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, m)
		}
	}
	return out
}

// OverrideOf walks owner's super chain looking for a member with the same
// key as key, stopping at the first hit, per §4.6's override-resolution
// contract consumed by diagnostics and gutter UI. The key for a string
// member is MemberKey{Name: "fieldName"}; for an integer key use
// MemberKey{IsInt: true, Int: n}.
func (db *Database) OverrideOf(owner ltypes.TypeDeclId, key MemberKey) (*Member, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	td, ok := db.typeDecls[owner]
	if !ok {
		return nil, false
	}
	visiting := map[ltypes.TypeDeclId]bool{owner: true}
	return db.overrideOf(td, key, visiting)
}

func (db *Database) overrideOf(td *TypeDecl, key MemberKey, visiting map[ltypes.TypeDeclId]bool) (*Member, bool) {
	for _, super := range td.Supers {
		base := ltypes.Unwrap(super)
		if base.Kind != ltypes.KindRef && base.Kind != ltypes.KindDef && base.Kind != ltypes.KindInstance {
			continue
		}
		if visiting[base.Decl] || len(visiting) > maxSuperDepth {
			continue
		}
		visiting[base.Decl] = true
		superTD, ok := db.typeDecls[base.Decl]
		if !ok {
			continue
		}
		for _, m := range db.membersByType[base.Decl] {
			if memberKeyOf(m) == key {
				return m, true
			}
		}
		if m, ok := db.overrideOf(superTD, key, visiting); ok {
			return m, true
		}
	}
	return nil, false
}

// MembersOfTable returns the members attached to an anonymous local table
// constructor by its owning file and byte span.
func (db *Database) MembersOfTable(owner MemberOwner) []*Member {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.tableMembers[tableKeyOf(owner)]
}
