package semindex

// ReferencesTo returns every recorded reference to decl, in source order as
// the indexer emitted them. The binding site of a local, parameter,
// for-iterator or label is not a reference (spec §8, "Reference
// semantics"); a global's Decl is created by its first write, and that
// write is recorded as a RefWrite reference like any later one.
func (db *Database) ReferencesTo(decl DeclId) []Reference {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.refsByDecl[decl]
}

// ReferencesToGlobal returns every reference to the global name.
func (db *Database) ReferencesToGlobal(name string) []Reference {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.refsByGlobal[name]
}

// IsMutable reports whether decl was ever the target of a write or
// compound-assign reference anywhere in the program; decl_indexer.go already
// flags this at declare-time on the *Decl itself (recordRef sets Mutable on
// write/compound-assign), so this just forwards that flag through the
// merged view.
func (db *Database) IsMutable(decl DeclId) bool {
	d, ok := db.Decl(decl)
	return ok && d.Mutable
}

// ReferencesToMemberKey returns every occurrence of a dotted/bracket/method
// key named name, across every file, regardless of which owner it resolves
// to. IsReferenceTo compares keys only, so it does not narrow these hits to
// one owner.
func (db *Database) ReferencesToMemberKey(name string) []MemberKeyRef {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.memberKeyRefs[name]
}

// IsReferenceTo reports whether ref's key equals owner's key. It does not
// resolve the type of the expression being indexed at ref, so an occurrence
// of the same key on an unrelated owner also matches.
func (db *Database) IsReferenceTo(ref MemberKeyRef, owner *Member) bool {
	if owner == nil {
		return false
	}
	return ref.Key == owner.Key
}

// MemberReferenceKeyName is the lookup key ReferencesToMemberKey and
// IsReferenceTo both use: a bare member name, independent of which type(s)
// declare it. Exported for callers in internal/diagnostic and internal/query
// that need to go from a Member back to the member-key reference list.
func MemberReferenceKeyName(m *Member) string {
	return m.Key
}
