package semindex

import (
	"sync"

	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/text"
	"github.com/luaowl/luacore/internal/vfs"
)

// Database is the merged, cross-file view of every FileIndex currently
// tracked. A file's contributions live only as long as its FileIndex is
// present in files; UpdateFile/RemoveFile keep the derived maps (typeDecls,
// members, references, globals) consistent by recomputing them from the
// surviving FileIndexes, so removing a file's entry is sufficient to
// subtract everything it contributed per spec's eviction contract (§4.4).
type Database struct {
	mu    sync.RWMutex
	files map[vfs.FileId]*FileIndex

	// preferMeta implements "strict.meta_override_file_define": when both a
	// meta-sourced and a file-declared member exist for the same owner,
	// this picks which subset wins. Defaults to false (file wins).
	preferMeta bool

	typeDecls     map[ltypes.TypeDeclId]*TypeDecl
	membersByType map[ltypes.TypeDeclId][]*Member
	tableMembers  map[tableKey][]*Member
	declsByID     map[DeclId]*Decl
	refsByDecl    map[DeclId][]Reference
	refsByGlobal  map[string][]Reference
	memberKeyRefs map[string][]MemberKeyRef
	globalsByName map[string][]*Decl
	requires      map[vfs.FileId][]RequireEdge
	refsByNode    map[vfs.FileId]map[syntax.NodeID]fileReference
}

// tableKey identifies an anonymous local-table-constant owner.
type tableKey struct {
	File vfs.FileId
	Lo   text.ByteOffset
	Hi   text.ByteOffset
}

func tableKeyOf(o MemberOwner) tableKey {
	return tableKey{File: o.File, Lo: o.Span.Start, Hi: o.Span.End}
}

// NewDatabase creates an empty analysis database.
func NewDatabase() *Database {
	return &Database{files: make(map[vfs.FileId]*FileIndex)}
}

// SetPreferMeta sets the strict.meta_override_file_define policy.
func (db *Database) SetPreferMeta(prefer bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.preferMeta = prefer
}

// UpdateFile reindexes file's current tree, replacing any previous
// contribution from the same FileId, and rebuilds the derived indices.
func (db *Database) UpdateFile(file vfs.FileId, tree *syntax.Tree) {
	fi := IndexFile(file, tree)
	db.mu.Lock()
	defer db.mu.Unlock()
	db.files[file] = fi
	db.rebuild()
}

// RemoveFile discards file's contribution and rebuilds the derived indices,
// which is all "subtract every entry keyed by that FileId" amounts to once
// the indices are recomputed from the surviving FileIndexes.
func (db *Database) RemoveFile(file vfs.FileId) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.files[file]; !ok {
		return
	}
	delete(db.files, file)
	db.rebuild()
}

// FileIndex returns the currently installed index for file, if any.
func (db *Database) FileIndex(file vfs.FileId) (*FileIndex, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	fi, ok := db.files[file]
	return fi, ok
}

// rebuild recomputes every derived map from db.files. Called with db.mu held
// for writing.
func (db *Database) rebuild() {
	typeDecls := make(map[ltypes.TypeDeclId]*TypeDecl)
	membersByType := make(map[ltypes.TypeDeclId][]*Member)
	tableMembers := make(map[tableKey][]*Member)
	declsByID := make(map[DeclId]*Decl)
	refsByDecl := make(map[DeclId][]Reference)
	refsByGlobal := make(map[string][]Reference)
	memberKeyRefs := make(map[string][]MemberKeyRef)
	globalsByName := make(map[string][]*Decl)
	requires := make(map[vfs.FileId][]RequireEdge)
	refsByNode := make(map[vfs.FileId]map[syntax.NodeID]fileReference)

	for fid, fi := range db.files {
		requires[fid] = fi.Requires
		byNode := make(map[syntax.NodeID]fileReference, len(fi.References))
		for _, fr := range fi.References {
			byNode[fr.Ref.Node.ID] = fr
		}
		refsByNode[fid] = byNode

		for _, td := range fi.TypeDecls {
			mergeTypeDecl(typeDecls, td)
		}
		for _, d := range fi.Decls {
			declsByID[d.ID] = d
		}
		for _, g := range fi.Globals {
			globalsByName[g.Name] = append(globalsByName[g.Name], g)
		}
		for _, m := range fi.Members {
			switch m.Owner.Kind {
			case OwnerTypeDecl, OwnerConfigTable:
				membersByType[m.Owner.Decl] = append(membersByType[m.Owner.Decl], m)
			case OwnerLocalTableConst:
				k := tableKeyOf(m.Owner)
				tableMembers[k] = append(tableMembers[k], m)
			}
		}
		for _, fr := range fi.References {
			if fr.Global != "" {
				refsByGlobal[fr.Global] = append(refsByGlobal[fr.Global], fr.Ref)
			} else {
				refsByDecl[fr.Decl] = append(refsByDecl[fr.Decl], fr.Ref)
			}
		}
		for _, mr := range fi.MemberRefs {
			memberKeyRefs[mr.Key] = append(memberKeyRefs[mr.Key], mr)
		}
	}

	db.typeDecls = typeDecls
	db.membersByType = membersByType
	db.tableMembers = tableMembers
	db.declsByID = declsByID
	db.refsByDecl = refsByDecl
	db.refsByGlobal = refsByGlobal
	db.memberKeyRefs = memberKeyRefs
	db.globalsByName = globalsByName
	db.requires = requires
	db.refsByNode = refsByNode
}

// ResolveNameRef looks up what the NameExpr (or doc-name) node identified by
// id resolved to at index time: either a DeclId (local/param/for-iterator/
// function/global-with-a-known-Decl) or a bare global name string when no
// Decl was ever recorded for it.
func (db *Database) ResolveNameRef(file vfs.FileId, id syntax.NodeID) (decl DeclId, global string, ok bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	byNode, ok := db.refsByNode[file]
	if !ok {
		return DeclId{}, "", false
	}
	fr, ok := byNode[id]
	if !ok {
		return DeclId{}, "", false
	}
	if fr.Global != "" {
		return DeclId{}, fr.Global, true
	}
	return fr.Decl, "", true
}

// mergeTypeDecl folds one file's partial contribution into the merged
// TypeDecl for its id, implementing "partial decls union all location
// contributions" (spec §4.6 step 2). Locations are appended in the order
// files are visited, which for a single rebuild pass is map iteration order;
// nothing re-sorts them, or the member lists built in the same pass, by
// Location.Span, so the order across files is not fixed.
func mergeTypeDecl(into map[ltypes.TypeDeclId]*TypeDecl, contrib *TypeDecl) {
	existing, ok := into[contrib.ID]
	if !ok {
		merged := *contrib
		merged.Supers = append([]ltypes.Type(nil), contrib.Supers...)
		merged.Locations = append([]Location(nil), contrib.Locations...)
		into[contrib.ID] = &merged
		return
	}
	existing.Supers = append(existing.Supers, contrib.Supers...)
	existing.Locations = append(existing.Locations, contrib.Locations...)
	if contrib.Alias != nil {
		existing.Alias = contrib.Alias
	}
	if contrib.Enum != nil {
		if existing.Enum == nil {
			existing.Enum = contrib.Enum
		} else {
			existing.Enum.Members = append(existing.Enum.Members, contrib.Enum.Members...)
		}
	}
}

// TypeDecl returns the merged declaration for id, if any file contributed one.
func (db *Database) TypeDecl(id ltypes.TypeDeclId) (*TypeDecl, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	td, ok := db.typeDecls[id]
	return td, ok
}

// Decl returns the declaration recorded for id.
func (db *Database) Decl(id DeclId) (*Decl, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	d, ok := db.declsByID[id]
	return d, ok
}

// Globals returns every global write recorded under name, across all files.
func (db *Database) Globals(name string) []*Decl {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.globalsByName[name]
}

// RequireEdges returns the module-dependency edges recorded for file.
func (db *Database) RequireEdges(file vfs.FileId) []RequireEdge {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.requires[file]
}
