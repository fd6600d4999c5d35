package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/luaowl/luacore/internal/diagnostic"
	"github.com/luaowl/luacore/internal/lexer"
	"github.com/luaowl/luacore/internal/query"
	"github.com/luaowl/luacore/internal/syntax"
	itext "github.com/luaowl/luacore/internal/text"
	"github.com/luaowl/luacore/internal/vfs"
)

// Server is a Lua analysis LSP server backed by a query.Workspace.
type Server struct {
	ws     *query.Workspace
	engine *diagnostic.Engine
	lexVer lexer.Version

	mu            sync.Mutex
	shutdown      bool
	exitRequested bool

	docsMu      sync.Mutex
	docVersions map[string]int32

	reqMu            sync.Mutex
	requestCancels   map[string]context.CancelFunc
	pendingCancelled map[string]struct{}
}

// NewServer creates an LSP server over ws, running engine's checkers to
// produce published diagnostics and lexVer to parse newly opened documents.
func NewServer(ws *query.Workspace, engine *diagnostic.Engine, lexVer lexer.Version) *Server {
	return &Server{
		ws:               ws,
		engine:           engine,
		lexVer:           lexVer,
		docVersions:      make(map[string]int32),
		requestCancels:   make(map[string]context.CancelFunc),
		pendingCancelled: make(map[string]struct{}),
	}
}

// Run serves JSON-RPC/LSP messages using Content-Length framing.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	if s == nil {
		return errors.New("nil Server")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	br := bufio.NewReader(in)
	bw := bufio.NewWriter(out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := readFramedMessage(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			_ = s.writeErrorResponse(bw, nil, jsonRPCParseError, err.Error())
			_ = bw.Flush()
			continue
		}
		if len(body) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			_ = s.writeErrorResponse(bw, nil, jsonRPCParseError, err.Error())
			_ = bw.Flush()
			continue
		}
		if req.JSONRPC != "" && req.JSONRPC != JSONRPCVersion {
			_ = s.writeErrorResponse(bw, req.ID, jsonRPCInvalidRequest, "unsupported jsonrpc version")
			_ = bw.Flush()
			continue
		}
		if req.Method == "" {
			continue
		}

		if err := s.dispatch(ctx, bw, req); err != nil {
			if errors.Is(err, ErrShutdownRequested) {
				return nil
			}
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}
	}
}

func (s *Server) dispatch(ctx context.Context, w *bufio.Writer, req Request) error {
	isRequest := len(req.ID) != 0
	if isRequest {
		var cancel context.CancelFunc
		ctx, cancel = s.beginRequestContext(ctx, req.ID)
		defer cancel()
		defer s.endRequestContext(req.ID)
	}

	writeResp := func(result any) error {
		if !isRequest {
			return nil
		}
		return s.writeResponse(w, Response{JSONRPC: JSONRPCVersion, ID: req.ID, Result: result})
	}
	writeErr := func(code int, msg string) error {
		if !isRequest {
			return nil
		}
		return s.writeErrorResponse(w, req.ID, code, msg)
	}

	switch req.Method {
	case "initialize":
		var p InitializeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return writeErr(jsonRPCInvalidParams, err.Error())
			}
		}
		res, err := s.Initialize(ctx, p)
		if err != nil {
			return writeErr(jsonRPCInternalError, err.Error())
		}
		return writeResp(res)
	case "shutdown":
		if err := s.Shutdown(ctx); err != nil {
			return writeErr(jsonRPCInternalError, err.Error())
		}
		return writeResp(struct{}{})
	case "exit":
		s.Exit()
		return ErrShutdownRequested
	case "$/cancelRequest":
		var p CancelParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		s.cancelRequest(p)
		return nil
	case "textDocument/didOpen":
		var p DidOpenParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		if err := s.DidOpen(ctx, p); err != nil {
			return writeErr(jsonRPCInternalError, err.Error())
		}
		if err := s.publishDiagnosticsForURI(ctx, w, p.TextDocument.URI); err != nil {
			return writeErr(jsonRPCInternalError, err.Error())
		}
		return nil
	case "textDocument/didChange":
		var p DidChangeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		if err := s.DidChange(ctx, p); err != nil {
			code := jsonRPCInternalError
			switch {
			case errors.Is(err, ErrStaleVersion):
				code = lspErrorContentModified
			case errors.Is(err, context.Canceled):
				code = lspErrorRequestCancelled
			case errors.Is(err, ErrDocumentNotOpen):
				code = jsonRPCInvalidParams
			}
			return writeErr(code, err.Error())
		}
		if err := s.publishDiagnosticsForURI(ctx, w, p.TextDocument.URI); err != nil {
			return writeErr(jsonRPCInternalError, err.Error())
		}
		return nil
	case "textDocument/didSave":
		var p DidSaveParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		if err := s.publishDiagnosticsForURI(ctx, w, p.TextDocument.URI); err != nil {
			return writeErr(jsonRPCInternalError, err.Error())
		}
		return nil
	case "textDocument/didClose":
		var p DidCloseParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		s.DidClose(p)
		if err := s.publishClearedDiagnostics(w, p.TextDocument.URI); err != nil {
			return writeErr(jsonRPCInternalError, err.Error())
		}
		return nil
	case "textDocument/hover":
		var p HoverParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		res, err := s.Hover(ctx, p)
		if err != nil {
			return writeErr(lspErrorCodeForQuery(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/definition":
		var p DefinitionParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		res, err := s.Definition(ctx, p)
		if err != nil {
			return writeErr(lspErrorCodeForQuery(err), err.Error())
		}
		return writeResp(res)
	case "textDocument/references":
		var p ReferenceParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		res, err := s.References(ctx, p)
		if err != nil {
			return writeErr(lspErrorCodeForQuery(err), err.Error())
		}
		return writeResp(res)
	default:
		return writeErr(jsonRPCMethodNotFound, "method not found")
	}
}

// Initialize handles the LSP initialize request.
func (s *Server) Initialize(ctx context.Context, p InitializeParams) (InitializeResult, error) {
	_ = ctx
	_ = p
	return InitializeResult{Capabilities: DefaultServerCapabilities()}, nil
}

// Shutdown handles the LSP shutdown request. It is idempotent.
func (s *Server) Shutdown(ctx context.Context) error {
	_ = ctx
	if s == nil {
		return errors.New("nil Server")
	}
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	return nil
}

// Exit handles the LSP exit notification.
func (s *Server) Exit() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.exitRequested = true
	s.mu.Unlock()
}

// DidOpen parses and indexes the opened document.
func (s *Server) DidOpen(ctx context.Context, p DidOpenParams) error {
	uri := p.TextDocument.URI
	opts := syntax.ParseOptions{LexerOpts: lexer.Options{Version: s.lexVer}, ParseDocTags: true}
	if _, _, err := s.ws.FileUpdate(ctx, uri, []byte(p.TextDocument.Text), vfs.TagMain, opts); err != nil {
		return err
	}
	s.docsMu.Lock()
	s.docVersions[uri] = p.TextDocument.Version
	s.docsMu.Unlock()
	return nil
}

// DidChange applies the content changes, reparses, and re-indexes the document.
func (s *Server) DidChange(ctx context.Context, p DidChangeParams) error {
	uri := p.TextDocument.URI

	s.docsMu.Lock()
	curVersion, open := s.docVersions[uri]
	s.docsMu.Unlock()
	if !open {
		return ErrDocumentNotOpen
	}
	if p.TextDocument.Version <= curVersion {
		return ErrStaleVersion
	}

	_, tree, ok := s.ws.Snapshot().File(uri)
	if !ok {
		return ErrDocumentNotOpen
	}
	nextSrc, err := applyContentChanges(tree.Source, p.ContentChanges)
	if err != nil {
		return err
	}

	opts := syntax.ParseOptions{LexerOpts: lexer.Options{Version: s.lexVer}, ParseDocTags: true}
	if _, _, err := s.ws.FileUpdate(ctx, uri, nextSrc, vfs.TagMain, opts); err != nil {
		return err
	}
	s.docsMu.Lock()
	s.docVersions[uri] = p.TextDocument.Version
	s.docsMu.Unlock()
	return nil
}

// DidClose removes the document from the workspace.
func (s *Server) DidClose(p DidCloseParams) {
	uri := p.TextDocument.URI
	s.ws.FileRemove(uri)
	s.docsMu.Lock()
	delete(s.docVersions, uri)
	s.docsMu.Unlock()
}

// Hover handles textDocument/hover, reporting the inferred type of the name
// under the cursor.
func (s *Server) Hover(ctx context.Context, p HoverParams) (*Hover, error) {
	snap := s.ws.Snapshot()
	file, tree, ok := snap.File(p.TextDocument.URI)
	if !ok {
		return nil, ErrDocumentNotOpen
	}
	off, err := offsetForPosition(tree, p.Position)
	if err != nil {
		return nil, err
	}
	info, ok := snap.SemanticAt(ctx, file, off)
	if !ok {
		return nil, nil
	}
	rng, err := lspRangeFromSpan(lineIndexOf(tree), info.Node.Span())
	if err != nil {
		return nil, err
	}
	return &Hover{
		Contents: MarkupContent{Kind: "plaintext", Value: info.Type.String()},
		Range:    &rng,
	}, nil
}

// Definition handles textDocument/definition.
func (s *Server) Definition(ctx context.Context, p DefinitionParams) ([]Location, error) {
	snap := s.ws.Snapshot()
	file, tree, ok := snap.File(p.TextDocument.URI)
	if !ok {
		return nil, ErrDocumentNotOpen
	}
	off, err := offsetForPosition(tree, p.Position)
	if err != nil {
		return nil, err
	}
	info, ok := snap.SemanticAt(ctx, file, off)
	if !ok {
		return nil, nil
	}

	switch info.ID.Kind {
	case query.SemanticDecl:
		decl, ok := snap.Database().Decl(info.ID.Decl)
		if !ok {
			return nil, nil
		}
		loc, err := locationForPtr(decl.Node)
		if err != nil {
			return nil, err
		}
		return []Location{loc}, nil
	case query.SemanticGlobal:
		var out []Location
		for _, decl := range snap.Database().Globals(info.ID.Global) {
			loc, err := locationForPtr(decl.Node)
			if err != nil {
				return nil, err
			}
			out = append(out, loc)
		}
		return out, nil
	default:
		return nil, nil
	}
}

// References handles textDocument/references.
func (s *Server) References(ctx context.Context, p ReferenceParams) ([]Location, error) {
	snap := s.ws.Snapshot()
	file, tree, ok := snap.File(p.TextDocument.URI)
	if !ok {
		return nil, ErrDocumentNotOpen
	}
	off, err := offsetForPosition(tree, p.Position)
	if err != nil {
		return nil, err
	}
	info, ok := snap.SemanticAt(ctx, file, off)
	if !ok {
		return nil, nil
	}

	refs := snap.ReferencesToID(info.ID)
	out := make([]Location, 0, len(refs))
	for _, ref := range refs {
		loc, err := locationForPtr(ref.Node)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	if p.Context.IncludeDeclaration && info.ID.Kind == query.SemanticDecl {
		if decl, ok := snap.Database().Decl(info.ID.Decl); ok {
			loc, err := locationForPtr(decl.Node)
			if err != nil {
				return nil, err
			}
			out = append(out, loc)
		}
	}
	return out, nil
}

func locationForPtr(ptr syntax.Ptr) (Location, error) {
	if ptr.Tree == nil {
		return Location{}, errors.New("reference has no source tree")
	}
	n := ptr.Tree.NodeByID(ptr.ID)
	if n == nil {
		return Location{}, errors.New("reference node not found")
	}
	rng, err := lspRangeFromSpan(lineIndexOf(ptr.Tree), n.Span)
	if err != nil {
		return Location{}, err
	}
	return Location{URI: ptr.Tree.URI, Range: rng}, nil
}

func offsetForPosition(tree *syntax.Tree, pos Position) (itext.ByteOffset, error) {
	li := lineIndexOf(tree)
	return li.UTF16PositionToOffset(itext.UTF16Position{Line: pos.Line, Character: pos.Character})
}

func lineIndexOf(tree *syntax.Tree) *itext.LineIndex {
	if tree.LineIndex != nil {
		return tree.LineIndex
	}
	return itext.NewLineIndex(tree.Source)
}

func (s *Server) writeResponse(w *bufio.Writer, resp Response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return writeFramedMessage(w, body)
}

func (s *Server) writeErrorResponse(w *bufio.Writer, id json.RawMessage, code int, msg string) error {
	return s.writeResponse(w, Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &ResponseError{Code: code, Message: msg},
	})
}

func (s *Server) publishDiagnosticsForURI(ctx context.Context, w *bufio.Writer, uri string) error {
	snap := s.ws.Snapshot()
	file, tree, ok := snap.File(uri)
	if !ok {
		return nil
	}
	diags, err := s.collectLSPDiagnostics(ctx, file, tree, snap)
	if err != nil {
		return err
	}
	version := s.currentVersion(uri)
	return s.writeNotification(w, "textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: diags,
	})
}

func (s *Server) currentVersion(uri string) *int32 {
	s.docsMu.Lock()
	defer s.docsMu.Unlock()
	v, ok := s.docVersions[uri]
	if !ok {
		return nil
	}
	return &v
}

func (s *Server) collectLSPDiagnostics(ctx context.Context, file vfs.FileId, tree *syntax.Tree, snap *query.Snapshot) ([]Diagnostic, error) {
	if tree == nil {
		return nil, errors.New("nil syntax tree")
	}
	li := lineIndexOf(tree)
	out := make([]Diagnostic, 0, len(tree.Diagnostics))
	for _, d := range tree.Diagnostics {
		rng, err := lspRangeFromSpan(li, d.Span)
		if err != nil {
			return nil, err
		}
		out = append(out, Diagnostic{
			Range:    rng,
			Severity: lspSeverity(d.Severity),
			Code:     string(d.Code),
			Source:   d.Source,
			Message:  d.Message,
		})
	}

	index, _ := snap.Database().FileIndex(file)
	model := &diagnostic.Model{File: file, Tree: tree, Index: index, DB: snap.Database(), Engine: snap.Engine()}
	semDiags, err := s.engine.Run(ctx, model)
	if err != nil {
		return nil, err
	}
	for _, d := range semDiags {
		rng, err := lspRangeFromSpan(li, d.Span)
		if err != nil {
			return nil, err
		}
		out = append(out, Diagnostic{
			Range:    rng,
			Severity: int(d.Severity),
			Code:     string(d.Code),
			Source:   "luals",
			Message:  d.Message,
		})
	}
	return out, nil
}

func (s *Server) publishClearedDiagnostics(w *bufio.Writer, uri string) error {
	return s.writeNotification(w, "textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []Diagnostic{},
	})
}

func (s *Server) writeNotification(w *bufio.Writer, method string, params any) error {
	body, err := json.Marshal(struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitempty"`
	}{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}
	return writeFramedMessage(w, body)
}

// cancelRequest records or triggers cancellation for a request id.
//
// The server processes messages sequentially, so $/cancelRequest can only
// cancel a request before dispatch begins (or a future concurrent handler).
func (s *Server) cancelRequest(p CancelParams) {
	if s == nil {
		return
	}
	key := requestIDKey(p.ID)
	if key == "" {
		return
	}
	s.reqMu.Lock()
	cancel := s.requestCancels[key]
	if cancel != nil {
		delete(s.requestCancels, key)
	}
	s.pendingCancelled[key] = struct{}{}
	s.reqMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Server) beginRequestContext(parent context.Context, id json.RawMessage) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	key := requestIDKey(id)
	if s == nil || key == "" {
		return context.WithCancel(parent)
	}
	ctx, cancel := context.WithCancel(parent)
	s.reqMu.Lock()
	s.requestCancels[key] = cancel
	if _, ok := s.pendingCancelled[key]; ok {
		delete(s.pendingCancelled, key)
		cancel()
	}
	s.reqMu.Unlock()
	return ctx, cancel
}

func (s *Server) endRequestContext(id json.RawMessage) {
	if s == nil {
		return
	}
	key := requestIDKey(id)
	if key == "" {
		return
	}
	s.reqMu.Lock()
	delete(s.requestCancels, key)
	delete(s.pendingCancelled, key)
	s.reqMu.Unlock()
}

func requestIDKey(id json.RawMessage) string {
	if len(id) == 0 {
		return ""
	}
	return string(id)
}

func lspRangeFromSpan(li *itext.LineIndex, sp itext.Span) (Range, error) {
	if li == nil {
		return Range{}, errors.New("nil line index")
	}
	clamped := clampSpanToSource(sp, li.SourceLen())
	start, err := li.OffsetToUTF16Position(clamped.Start)
	if err != nil {
		return Range{}, err
	}
	end, err := li.OffsetToUTF16Position(clamped.End)
	if err != nil {
		return Range{}, err
	}
	return Range{
		Start: Position{Line: start.Line, Character: start.Character},
		End:   Position{Line: end.Line, Character: end.Character},
	}, nil
}

func clampSpanToSource(sp itext.Span, srcLen itext.ByteOffset) itext.Span {
	if !sp.Start.IsValid() {
		sp.Start = 0
	}
	if !sp.End.IsValid() {
		sp.End = sp.Start
	}
	if sp.Start > srcLen {
		sp.Start = srcLen
	}
	if sp.End > srcLen {
		sp.End = srcLen
	}
	if sp.End < sp.Start {
		sp.End = sp.Start
	}
	return sp
}

func lspSeverity(sev syntax.Severity) int {
	switch sev {
	case syntax.SeverityError:
		return 1
	case syntax.SeverityWarning:
		return 2
	case syntax.SeverityInfo:
		return 3
	default:
		return 1
	}
}

func lspErrorCodeForQuery(err error) int {
	if errors.Is(err, context.Canceled) {
		return lspErrorRequestCancelled
	}
	return jsonRPCInternalError
}

func readFramedMessage(r *bufio.Reader) ([]byte, error) {
	contentLen := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		if line == "\r\n" || line == "\n" {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header line %q", line)
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			var n int
			if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d", &n); err != nil || n < 0 {
				return nil, fmt.Errorf("invalid Content-Length %q", value)
			}
			contentLen = n
		}
	}
	if contentLen < 0 {
		return nil, errors.New("missing Content-Length")
	}
	body := make([]byte, contentLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

func writeFramedMessage(w io.Writer, body []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}
