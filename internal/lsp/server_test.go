package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/luaowl/luacore/internal/diagnostic"
	"github.com/luaowl/luacore/internal/infer"
	"github.com/luaowl/luacore/internal/query"
)

func newTestServer() *Server {
	ws := query.New(infer.VersionLatest)
	return NewServer(ws, diagnostic.NewDefaultEngine(), 0)
}

func TestInitializeAdvertisesCapabilities(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	res, err := s.Initialize(context.Background(), InitializeParams{})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	got := res.Capabilities
	if !got.TextDocumentSync.OpenClose || got.TextDocumentSync.Change != TextDocumentSyncKindIncremental {
		t.Fatalf("unexpected textDocumentSync: %+v", got.TextDocumentSync)
	}
	if !got.HoverProvider || !got.DefinitionProvider || !got.ReferencesProvider {
		t.Fatalf("unexpected capabilities: %+v", got)
	}
}

func TestServerRunInitializeShutdownExit(t *testing.T) {
	t.Parallel()

	var in bytes.Buffer
	writeReqFrame(t, &in, Request{JSONRPC: JSONRPCVersion, ID: json.RawMessage(`1`), Method: "initialize", Params: json.RawMessage(`{}`)})
	writeReqFrame(t, &in, Request{JSONRPC: JSONRPCVersion, ID: json.RawMessage(`2`), Method: "shutdown"})
	writeReqFrame(t, &in, Request{JSONRPC: JSONRPCVersion, Method: "exit"})

	var out bytes.Buffer
	s := newTestServer()
	if err := s.Run(context.Background(), &in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	br := bufio.NewReader(bytes.NewReader(out.Bytes()))
	resp1 := readRespFrame(t, br)
	resp2 := readRespFrame(t, br)
	if _, err := readFramedMessage(br); err == nil {
		t.Fatal("expected exactly two responses")
	}
	if resp1.Error != nil || string(resp1.ID) != "1" {
		t.Fatalf("unexpected initialize response: %+v", resp1)
	}
	var initRes InitializeResult
	marshalRoundtrip(t, resp1.Result, &initRes)
	if initRes.Capabilities.TextDocumentSync.Change != TextDocumentSyncKindIncremental {
		t.Fatalf("unexpected initialize capabilities: %+v", initRes.Capabilities)
	}
	if resp2.Error != nil || string(resp2.ID) != "2" {
		t.Fatalf("unexpected shutdown response: %+v", resp2)
	}
}

func TestServerUnknownMethodReturnsMethodNotFound(t *testing.T) {
	t.Parallel()

	var in bytes.Buffer
	writeReqFrame(t, &in, Request{JSONRPC: JSONRPCVersion, ID: json.RawMessage(`99`), Method: "lua/unknown"})
	var out bytes.Buffer
	if err := newTestServer().Run(context.Background(), &in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	resp := readRespFrame(t, bufio.NewReader(bytes.NewReader(out.Bytes())))
	if resp.Error == nil || resp.Error.Code != jsonRPCMethodNotFound {
		t.Fatalf("expected method-not-found, got %+v", resp)
	}
}

func TestDidOpenPublishesSyntaxDiagnostics(t *testing.T) {
	t.Parallel()

	var in bytes.Buffer
	writeReqFrame(t, &in, Request{
		JSONRPC: JSONRPCVersion,
		Method:  "textDocument/didOpen",
		Params: mustJSON(t, DidOpenParams{TextDocument: TextDocumentItem{
			URI:     "file:///broken.lua",
			Version: 1,
			Text:    "local x = (",
		}}),
	})
	var out bytes.Buffer
	s := newTestServer()
	if err := s.Run(context.Background(), &in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	br := bufio.NewReader(bytes.NewReader(out.Bytes()))
	body, err := readFramedMessage(br)
	if err != nil {
		t.Fatalf("readFramedMessage: %v", err)
	}
	var note struct {
		Method string                    `json:"method"`
		Params PublishDiagnosticsParams `json:"params"`
	}
	if err := json.Unmarshal(body, &note); err != nil {
		t.Fatalf("json.Unmarshal notification: %v", err)
	}
	if note.Method != "textDocument/publishDiagnostics" {
		t.Fatalf("unexpected notification method %q", note.Method)
	}
	if len(note.Params.Diagnostics) == 0 {
		t.Fatal("expected at least one diagnostic for unclosed paren")
	}
}

func TestDidChangeRejectsStaleVersion(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	ctx := context.Background()
	if err := s.DidOpen(ctx, DidOpenParams{TextDocument: TextDocumentItem{URI: "file:///a.lua", Version: 2, Text: "local x = 1"}}); err != nil {
		t.Fatalf("DidOpen: %v", err)
	}
	err := s.DidChange(ctx, DidChangeParams{
		TextDocument:   VersionedTextDocumentIdentifier{URI: "file:///a.lua", Version: 1},
		ContentChanges: []TextDocumentContentChangeEvent{{Text: "local x = 2"}},
	})
	if err != ErrStaleVersion {
		t.Fatalf("DidChange: got %v, want ErrStaleVersion", err)
	}
}

func TestHoverReportsInferredType(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	ctx := context.Background()
	src := "local x = 1\nprint(x)\n"
	if err := s.DidOpen(ctx, DidOpenParams{TextDocument: TextDocumentItem{URI: "file:///h.lua", Version: 1, Text: src}}); err != nil {
		t.Fatalf("DidOpen: %v", err)
	}
	hover, err := s.Hover(ctx, HoverParams{TextDocumentPositionParams: TextDocumentPositionParams{
		TextDocument: TextDocumentIdentifier{URI: "file:///h.lua"},
		Position:     Position{Line: 1, Character: 6},
	}})
	if err != nil {
		t.Fatalf("Hover: %v", err)
	}
	if hover == nil {
		t.Fatal("expected a hover result for a local reference")
	}
}

func writeReqFrame(t *testing.T, w *bytes.Buffer, req Request) {
	t.Helper()
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	if err := writeFramedMessage(w, b); err != nil {
		t.Fatalf("writeFramedMessage: %v", err)
	}
}

func readRespFrame(t *testing.T, r *bufio.Reader) Response {
	t.Helper()
	b, err := readFramedMessage(r)
	if err != nil {
		t.Fatalf("readFramedMessage: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(b, &resp); err != nil {
		t.Fatalf("json.Unmarshal response: %v", err)
	}
	return resp
}

func marshalRoundtrip(t *testing.T, in any, out any) {
	t.Helper()
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("json.Marshal roundtrip: %v", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		t.Fatalf("json.Unmarshal roundtrip: %v", err)
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal params: %v", err)
	}
	return b
}
