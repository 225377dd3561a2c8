package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/xonecas/stree/internal/jsonrpc"
)

// helperClient builds a client whose "analysis server" is this test binary
// re-executed as a scripted peer (see TestHelperServer).
func helperClient(t *testing.T, extraEnv ...string) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		Command: os.Args[0],
		Args:    []string{"-test.run=TestHelperServer", "--"},
		RootDir: t.TempDir(),
		Env:     append([]string{"STREE_HELPER_SERVER=1"}, extraEnv...),
		Timeout: 5 * time.Second,
	})
}

func TestStartHandshakeAndShutdown(t *testing.T) {
	c := helperClient(t)
	if c.State() != StateNotStarted {
		t.Fatalf("fresh client state = %s", c.State())
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.State() != StateReady {
		t.Fatalf("state after start = %s, want ready", c.State())
	}

	c.Shutdown()
	if c.State() != StateTerminated {
		t.Fatalf("state after shutdown = %s, want terminated", c.State())
	}

	// Second shutdown is a no-op.
	c.Shutdown()
	if c.State() != StateTerminated {
		t.Fatalf("state after double shutdown = %s", c.State())
	}
}

func TestStartupFailureWhenServerDiesSilently(t *testing.T) {
	c := helperClient(t, "STREE_HELPER_MUTE=1")
	err := c.Start(context.Background())
	if !errors.Is(err, ErrStartup) {
		t.Fatalf("expected ErrStartup, got %v", err)
	}
	if c.State() != StateTerminated {
		t.Fatalf("state after failed start = %s, want terminated", c.State())
	}
}

func TestDocumentSymbolsNested(t *testing.T) {
	symbols := `[{"name":"foo","kind":12,"detail":"(x)","children":[
		{"name":"inner","kind":13,"children":[]}
	]}]`
	c := helperClient(t, "STREE_HELPER_SYMBOLS="+symbols)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Shutdown()

	file := writeTempFile(t, "a.py", "def foo(x):\n    inner = 1\n")
	nodes, err := c.DocumentSymbols(file)
	if err != nil {
		t.Fatalf("DocumentSymbols: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Name != "foo (x)" || nodes[0].Kind != "fn:" {
		t.Fatalf("unexpected symbols: %+v", nodes)
	}
	if len(nodes[0].Children) != 1 || nodes[0].Children[0].Name != "inner" {
		t.Fatalf("missing nested child: %+v", nodes[0])
	}
}

func TestDocumentSymbolsEmptyResult(t *testing.T) {
	c := helperClient(t, "STREE_HELPER_SYMBOLS=[]")
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Shutdown()

	nodes, err := c.DocumentSymbols(writeTempFile(t, "b.py", ""))
	if err != nil {
		t.Fatalf("DocumentSymbols: %v", err)
	}
	if len(nodes) != 0 {
		t.Fatalf("expected zero symbols, got %+v", nodes)
	}
}

func TestWorkspaceSymbols(t *testing.T) {
	c := helperClient(t)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer c.Shutdown()

	nodes, err := c.WorkspaceSymbols("foo")
	if err != nil {
		t.Fatalf("WorkspaceSymbols: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Name != "foo" || nodes[0].Kind != "fn:" {
		t.Fatalf("unexpected symbols: %+v", nodes)
	}
}

func TestQueriesRejectedBeforeReady(t *testing.T) {
	c := helperClient(t)
	if _, err := c.DocumentSymbols("whatever.py"); err == nil {
		t.Error("expected error querying an unstarted client")
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := t.TempDir() + "/" + name
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

// TestHelperServer is not a real test. When this binary is re-executed with
// STREE_HELPER_SERVER set it speaks the framed protocol on stdio as a
// scripted analysis server, then exits before the test framework can print
// to stdout.
func TestHelperServer(t *testing.T) {
	if os.Getenv("STREE_HELPER_SERVER") != "1" {
		return
	}
	defer os.Exit(0)
	if os.Getenv("STREE_HELPER_MUTE") == "1" {
		return // die without ever answering
	}
	serveScripted()
}

func serveScripted() {
	symbols := os.Getenv("STREE_HELPER_SYMBOLS")
	if symbols == "" {
		symbols = "[]"
	}

	r := bufio.NewReader(os.Stdin)
	for {
		body, err := jsonrpc.ReadFrame(r)
		if err != nil {
			return
		}
		var msg jsonrpc.Message
		if err := json.Unmarshal(body, &msg); err != nil {
			return
		}
		switch msg.Method {
		case "initialize":
			respond(msg.ID, `{"capabilities":{}}`)
		case "textDocument/documentSymbol":
			respond(msg.ID, symbols)
		case "workspace/symbol":
			respond(msg.ID, `[{"name":"foo","kind":12}]`)
		case "shutdown":
			respond(msg.ID, "null")
		case "exit":
			return
		default:
			// Notifications (initialized, didOpen) need no reply.
		}
	}
}

func respond(id *int64, result string) {
	resp := jsonrpc.Message{
		ProtocolVersion: jsonrpc.Version,
		ID:              id,
		Result:          json.RawMessage(result),
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return
	}
	jsonrpc.WriteFrame(os.Stdout, body) //nolint:errcheck // scripted peer
}
