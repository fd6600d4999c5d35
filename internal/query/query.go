// Package query is the thread-safe read model sitting on top of semindex and
// infer: a single logical database guarded by a reader-writer discipline
// (file-update/file-remove write, everything else reads a Snapshot). The LSP
// surface and the `check` CLI command are both thin callers of this package.
package query

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/luaowl/luacore/internal/infer"
	"github.com/luaowl/luacore/internal/ltypes"
	"github.com/luaowl/luacore/internal/semindex"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/text"
	"github.com/luaowl/luacore/internal/vfs"
)

// Workspace is the workspace-manager: the outermost lock in the fixed
// acquisition order workspace-manager -> analysis-db -> per-file infer-cache.
// Its own mutex only ever guards the file registry and the published
// Snapshot pointer; the heavier semindex.Database and infer.Engine keep
// their own locks and are safe to use concurrently once published.
type Workspace struct {
	mu      sync.Mutex // guards files and publishing new snapshots
	files   *vfs.Files
	db      *semindex.Database
	engine  *infer.Engine
	version atomic.Uint64

	current atomic.Pointer[Snapshot]

	resolveMu sync.RWMutex
	roots     []string // workspace.workspaceRoots, longest-prefix-first
}

// New creates an empty workspace for the given Lua dialect.
func New(version infer.Version) *Workspace {
	w := &Workspace{
		files: vfs.NewFiles(),
		db:    semindex.NewDatabase(),
	}
	w.engine = infer.NewEngine(w.db, version, w)
	w.current.Store(&Snapshot{version: 0, files: w.files, db: w.db, engine: w.engine, trees: map[vfs.FileId]*syntax.Tree{}})
	return w
}

// SetWorkspaceRoots replaces the search roots consulted by ResolveRequire,
// ordered longest-path-first so the most specific root wins.
func (w *Workspace) SetWorkspaceRoots(roots []string) {
	w.resolveMu.Lock()
	defer w.resolveMu.Unlock()
	w.roots = append([]string(nil), roots...)
}

// SetPreferMeta forwards to the underlying Database (strict.metaOverrideFileDefine).
func (w *Workspace) SetPreferMeta(prefer bool) {
	w.db.SetPreferMeta(prefer)
}

// FileUpdate parses src, re-indexes the file, and publishes a new snapshot.
// tag classifies the file per vfs.Tag (main / library / std); it is stored
// with the file's entry and does not change the visibility of its
// declarations.
func (w *Workspace) FileUpdate(ctx context.Context, path string, src []byte, tag vfs.Tag, opts syntax.ParseOptions) (vfs.FileId, *syntax.Tree, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	file := w.files.Intern(path, tag)
	opts.URI = path
	tree, err := syntax.Parse(ctx, src, opts)
	if err != nil {
		return file, nil, err
	}

	w.db.UpdateFile(file, tree)
	w.engine.InvalidateFile(file)
	w.publishLocked(file, tree)
	return file, tree, nil
}

// FileRemove subtracts path's contribution from every index and publishes a
// new snapshot with the file absent.
func (w *Workspace) FileRemove(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	file, ok := w.files.Remove(path)
	if !ok {
		return
	}
	w.db.RemoveFile(file)
	w.engine.InvalidateFile(file)
	w.publishLocked(file, nil)
}

// publishLocked builds the next snapshot's tree map from the previous one
// plus the single changed file, and atomically swaps it in. Called with
// w.mu held.
func (w *Workspace) publishLocked(changed vfs.FileId, tree *syntax.Tree) {
	prev := w.current.Load()
	next := make(map[vfs.FileId]*syntax.Tree, len(prev.trees)+1)
	for id, t := range prev.trees {
		if id == changed {
			continue
		}
		next[id] = t
	}
	if tree != nil {
		next[changed] = tree
	}
	v := w.version.Add(1)
	w.current.Store(&Snapshot{version: v, files: w.files, db: w.db, engine: w.engine, trees: next})
}

// Snapshot publishes and returns the current consistent view. Concurrent
// snapshots taken at different times are independent: an older snapshot's
// trees map is never mutated by a later write.
func (w *Workspace) Snapshot() *Snapshot {
	return w.current.Load()
}

// ResolveRequire implements infer.RequireResolver by resolving path against
// the registered workspace roots and the set of files the workspace already
// knows about (require targets must already have been opened/indexed; this
// package does no filesystem IO of its own).
func (w *Workspace) ResolveRequire(fromFile vfs.FileId, path string) (vfs.FileId, *syntax.Tree, bool) {
	w.resolveMu.RLock()
	roots := w.roots
	w.resolveMu.RUnlock()

	snap := w.Snapshot()
	for _, candidate := range candidatePaths(roots, path) {
		id, ok := w.files.Lookup(candidate)
		if !ok {
			continue
		}
		tree, ok := snap.trees[id]
		if !ok {
			continue
		}
		return id, tree, true
	}
	return vfs.NoFile, nil, false
}

// candidatePaths enumerates filesystem paths a dotted require path ("a.b")
// could map to under each root, both as a plain module file and as a
// directory init module.
func candidatePaths(roots []string, modPath string) []string {
	rel := dottedToSlash(modPath)
	var out []string
	for _, root := range roots {
		out = append(out, joinPath(root, rel+".lua"))
		out = append(out, joinPath(root, rel, "init.lua"))
	}
	out = append(out, rel+".lua")
	return out
}

func dottedToSlash(modPath string) string {
	out := make([]byte, 0, len(modPath))
	for i := 0; i < len(modPath); i++ {
		c := modPath[i]
		if c == '.' {
			out = append(out, '/')
		} else {
			out = append(out, c)
		}
	}
	return string(out)
}

func joinPath(root, rest string) string {
	if root == "" {
		return rest
	}
	if root[len(root)-1] == '/' {
		return root + rest
	}
	return root + "/" + rest
}

// Snapshot is an immutable, consistent view over the workspace's indices at
// one point in the write log. Holding a Snapshot across a suspension point
// is safe: nothing it points to is mutated in place.
type Snapshot struct {
	version uint64
	files   *vfs.Files
	db      *semindex.Database
	engine  *infer.Engine
	trees   map[vfs.FileId]*syntax.Tree
}

// Version returns the monotonic write counter this snapshot witnessed.
func (s *Snapshot) Version() uint64 { return s.version }

// File resolves path to its FileId and current tree, if tracked.
func (s *Snapshot) File(path string) (vfs.FileId, *syntax.Tree, bool) {
	id, ok := s.files.Lookup(path)
	if !ok {
		return vfs.NoFile, nil, false
	}
	tree, ok := s.trees[id]
	return id, tree, ok
}

// Tree returns the parsed tree for file, if tracked by this snapshot.
func (s *Snapshot) Tree(file vfs.FileId) (*syntax.Tree, bool) {
	t, ok := s.trees[file]
	return t, ok
}

// Path returns the registered path for file.
func (s *Snapshot) Path(file vfs.FileId) string { return s.files.Path(file) }

// Database returns the cross-file semantic database backing this snapshot.
// Callers that only read (no UpdateFile/RemoveFile) may use it directly;
// the database itself has its own lock so this is safe from any goroutine.
func (s *Snapshot) Database() *semindex.Database { return s.db }

// Engine returns the type-inference engine backing this snapshot.
func (s *Snapshot) Engine() *infer.Engine { return s.engine }

// SemanticKind discriminates the SemanticID union.
type SemanticKind uint8

// SemanticKind values.
const (
	SemanticNone SemanticKind = iota
	SemanticDecl
	SemanticGlobal
	SemanticType
)

// SemanticID names "the thing a token resolved to": a local/param/label
// declaration, a bare global name, or a class/alias/enum declaration.
type SemanticID struct {
	Kind   SemanticKind
	Decl   semindex.DeclId
	Global string
	Type   ltypes.TypeDeclId
}

// SemanticInfo is the result of a hover/definition-style point query.
type SemanticInfo struct {
	Node syntax.Node
	Type ltypes.Type
	ID   SemanticID
}

// SemanticAt resolves the narrowest name-bearing node covering offset in
// file and reports its inferred type and declaring semantic id.
func (s *Snapshot) SemanticAt(ctx context.Context, file vfs.FileId, offset text.ByteOffset) (SemanticInfo, bool) {
	tree, ok := s.trees[file]
	if !ok {
		return SemanticInfo{}, false
	}
	n, ok := nodeAtOffset(tree, offset)
	if !ok {
		return SemanticInfo{}, false
	}

	id := SemanticID{}
	if declID, global, ok := s.db.ResolveNameRef(file, n.ID); ok {
		if global != "" {
			id = SemanticID{Kind: SemanticGlobal, Global: global}
		} else {
			id = SemanticID{Kind: SemanticDecl, Decl: declID}
		}
	}

	t := s.engine.InferExpr(ctx, file, tree, exprAncestor(n))
	return SemanticInfo{Node: n, Type: t, ID: id}, true
}

// exprAncestor walks up from a name token's node to the nearest ancestor
// that infer.Engine actually knows how to type (NameExpr, index/call/binary
// expressions and so on); doc-only nodes have no inferable type.
func exprAncestor(n syntax.Node) syntax.Node {
	cur := n
	for cur.ID != syntax.NoNode {
		switch cur.Kind() {
		case syntax.KindNameExpr, syntax.KindDotIndexExpr, syntax.KindBracketIndexExpr,
			syntax.KindCallExpr, syntax.KindMethodCallExpr, syntax.KindBinaryExpr,
			syntax.KindUnaryExpr, syntax.KindTableExpr, syntax.KindParenExpr,
			syntax.KindStringExpr, syntax.KindNumberExpr, syntax.KindNilExpr,
			syntax.KindTrueExpr, syntax.KindFalseExpr, syntax.KindVarargExpr,
			syntax.KindFunctionExpr:
			return cur
		}
		cur = cur.Parent()
	}
	return n
}

// nodeAtOffset returns the smallest node whose span contains offset.
func nodeAtOffset(tree *syntax.Tree, offset text.ByteOffset) (syntax.Node, bool) {
	root := syntax.Root(tree)
	if !root.Span().Contains(offset) {
		return syntax.Node{}, false
	}
	best := root
	for {
		next, ok := childContaining(best, offset)
		if !ok {
			return best, true
		}
		best = next
	}
}

func childContaining(n syntax.Node, offset text.ByteOffset) (syntax.Node, bool) {
	for _, c := range n.Children() {
		if c.Span().Contains(offset) {
			return c, true
		}
	}
	return syntax.Node{}, false
}

// MembersOf returns the member map for t honoring §4.6's precedence rules.
func (s *Snapshot) MembersOf(t ltypes.Type) []*semindex.Member {
	return s.db.MembersOf(t)
}

// ReferencesTo returns every reference to decl across all tracked files.
func (s *Snapshot) ReferencesTo(decl semindex.DeclId) []semindex.Reference {
	return s.db.ReferencesTo(decl)
}

// ReferencesToGlobal returns every reference to a bare global name.
func (s *Snapshot) ReferencesToGlobal(name string) []semindex.Reference {
	return s.db.ReferencesToGlobal(name)
}

// ReferencesToID resolves a SemanticID's references, dispatching on its kind.
func (s *Snapshot) ReferencesToID(id SemanticID) []semindex.Reference {
	switch id.Kind {
	case SemanticDecl:
		return s.db.ReferencesTo(id.Decl)
	case SemanticGlobal:
		return s.db.ReferencesToGlobal(id.Global)
	default:
		return nil
	}
}

// Files returns every FileId this snapshot has a parsed tree for.
func (s *Snapshot) Files() []vfs.FileId {
	out := make([]vfs.FileId, 0, len(s.trees))
	for id := range s.trees {
		out = append(out, id)
	}
	return out
}

// ForEachFile runs fn for every file this snapshot knows about, each on its
// own goroutine from a bounded pool, per spec §5's "parallelism comes from
// running independent file queries on a thread pool, each holding an
// independent snapshot." The first error cancels the remaining work and is
// returned; fn should treat ctx cancellation as non-fatal where possible.
func (s *Snapshot) ForEachFile(ctx context.Context, fn func(ctx context.Context, file vfs.FileId, tree *syntax.Tree) error) error {
	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(max(1, runtime.GOMAXPROCS(0)))
	for file, tree := range s.trees {
		file, tree := file, tree
		grp.Go(func() error {
			return fn(grpCtx, file, tree)
		})
	}
	return grp.Wait()
}
