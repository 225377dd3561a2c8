// Package lsp manages the external symbol-analysis process: spawning it,
// driving the initialize and shutdown handshakes, and issuing symbol
// queries over the framed protocol.
package lsp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/stree/internal/jsonrpc"
)

// ErrStartup reports that the process never reached Ready. It is fatal:
// no tree work happens after it.
var ErrStartup = errors.New("lsp: startup failure")

// State tracks the connection lifecycle.
type State int

const (
	StateNotStarted State = iota
	StateStarting
	StateReady
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting-down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ClientConfig configures the spawned analysis process.
type ClientConfig struct {
	Command    string
	Args       []string
	RootDir    string
	Env        []string      // extra environment entries, appended to os.Environ
	LanguageID string        // language id sent with didOpen
	OpenFiles  bool          // send didOpen before querying symbols
	Timeout    time.Duration // per-call wait bound; 0 waits forever
}

// Client owns one analysis process and the connection to it. The process is
// a singleton resource for one tree build: calls are strictly sequential,
// one request in flight at a time.
type Client struct {
	cfg   ClientConfig
	cmd   *exec.Cmd
	stdin io.WriteCloser
	conn  *jsonrpc.Conn
	state State
}

// NewClient returns an unstarted client.
func NewClient(cfg ClientConfig) *Client {
	return &Client{cfg: cfg}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	return c.state
}

type initializeParams struct {
	ProcessID    int              `json:"processId"`
	RootURI      string           `json:"rootUri"`
	Capabilities clientCapability `json:"capabilities"`
}

type clientCapability struct {
	TextDocument textDocumentCapability `json:"textDocument"`
}

type textDocumentCapability struct {
	DocumentSymbol documentSymbolCapability `json:"documentSymbol"`
}

type documentSymbolCapability struct {
	HierarchicalDocumentSymbolSupport bool `json:"hierarchicalDocumentSymbolSupport"`
}

type textDocumentIdentifier struct {
	URI string `json:"uri"`
}

type documentSymbolParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

type workspaceSymbolParams struct {
	Query string `json:"query"`
}

type didOpenParams struct {
	TextDocument textDocumentItem `json:"textDocument"`
}

type textDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

func fileURI(absPath string) string {
	return "file://" + absPath
}

// Start spawns the process and drives the startup handshake: an initialize
// call declaring hierarchical symbol support, a wait for its response, then
// the initialized notification. The client is Ready only after all three.
// A process that dies before responding surfaces ErrStartup.
func (c *Client) Start(ctx context.Context) error {
	if c.state != StateNotStarted {
		return fmt.Errorf("lsp: start in state %s", c.state)
	}
	c.state = StateStarting

	cmd := exec.CommandContext(ctx, c.cfg.Command, c.cfg.Args...)
	if len(c.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), c.cfg.Env...)
	}
	cmd.Stderr = os.Stderr // pass through uninterpreted

	stdin, err := cmd.StdinPipe()
	if err != nil {
		c.state = StateTerminated
		return fmt.Errorf("lsp: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.state = StateTerminated
		return fmt.Errorf("lsp: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		c.state = StateTerminated
		return fmt.Errorf("%w: spawn %s: %v", ErrStartup, c.cfg.Command, err)
	}
	c.cmd = cmd
	c.stdin = stdin
	c.conn = jsonrpc.NewConn(stdout, stdin, c.cfg.Timeout)

	rootDir := c.cfg.RootDir
	if rootDir == "" {
		rootDir, _ = os.Getwd()
	}
	params := initializeParams{
		ProcessID: os.Getpid(),
		RootURI:   fileURI(rootDir),
		Capabilities: clientCapability{
			TextDocument: textDocumentCapability{
				DocumentSymbol: documentSymbolCapability{
					HierarchicalDocumentSymbolSupport: true,
				},
			},
		},
	}

	id, err := c.conn.Call("initialize", params)
	if err != nil {
		c.kill()
		return fmt.Errorf("%w: %v", ErrStartup, err)
	}
	if _, err := c.conn.WaitFor(id); err != nil {
		c.kill()
		return fmt.Errorf("%w: %v", ErrStartup, err)
	}
	if err := c.conn.Notify("initialized", struct{}{}); err != nil {
		c.kill()
		return fmt.Errorf("%w: %v", ErrStartup, err)
	}

	c.state = StateReady
	log.Info().Str("cmd", c.cfg.Command).Msg("lsp: server ready")
	return nil
}

// DocumentSymbols issues a documentSymbol call scoped to one file and
// blocks until its matching response arrives, normalizing either response
// shape. An empty or shapeless result is zero symbols, not an error.
func (c *Client) DocumentSymbols(path string) ([]SymbolNode, error) {
	if c.state != StateReady {
		return nil, fmt.Errorf("lsp: documentSymbol in state %s", c.state)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lsp: resolve %s: %w", path, err)
	}

	if c.cfg.OpenFiles {
		if err := c.openFile(abs); err != nil {
			log.Warn().Err(err).Str("file", abs).Msg("lsp: didOpen failed")
		}
	}

	id, err := c.conn.Call("textDocument/documentSymbol", documentSymbolParams{
		TextDocument: textDocumentIdentifier{URI: fileURI(abs)},
	})
	if err != nil {
		return nil, err
	}
	msg, err := c.conn.WaitFor(id)
	if err != nil {
		return nil, err
	}
	if msg.Error != nil {
		return nil, fmt.Errorf("lsp: documentSymbol %s: %w", abs, msg.Error)
	}

	res, err := decodeSymbolResult(msg.Result)
	if err != nil {
		return nil, err
	}
	return res.normalize(), nil
}

// WorkspaceSymbols issues a workspace-wide symbol query. Servers answer
// this method with the flat shape; normalization handles either.
func (c *Client) WorkspaceSymbols(query string) ([]SymbolNode, error) {
	if c.state != StateReady {
		return nil, fmt.Errorf("lsp: workspace/symbol in state %s", c.state)
	}

	id, err := c.conn.Call("workspace/symbol", workspaceSymbolParams{Query: query})
	if err != nil {
		return nil, err
	}
	msg, err := c.conn.WaitFor(id)
	if err != nil {
		return nil, err
	}
	if msg.Error != nil {
		return nil, fmt.Errorf("lsp: workspace/symbol %q: %w", query, msg.Error)
	}

	res, err := decodeSymbolResult(msg.Result)
	if err != nil {
		return nil, err
	}
	return res.normalize(), nil
}

// openFile reads the file from disk and sends textDocument/didOpen.
func (c *Client) openFile(absPath string) error {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("lsp: read %s: %w", absPath, err)
	}
	return c.conn.Notify("textDocument/didOpen", didOpenParams{
		TextDocument: textDocumentItem{
			URI:        fileURI(absPath),
			LanguageID: c.cfg.LanguageID,
			Version:    1,
			Text:       string(data),
		},
	})
}

// Shutdown drives the shutdown handshake - a shutdown call, its response or
// stream end, an exit notification - then unconditionally terminates the
// process and waits for it. Handshake failures are swallowed: shutdown
// always completes from the caller's perspective, and calling it again is a
// no-op.
func (c *Client) Shutdown() {
	switch c.state {
	case StateNotStarted, StateShuttingDown, StateTerminated:
		return
	}
	c.state = StateShuttingDown

	if id, err := c.conn.Call("shutdown", nil); err == nil {
		if _, err := c.conn.WaitFor(id); err != nil {
			log.Debug().Err(err).Msg("lsp: no shutdown response")
		}
	}
	if err := c.conn.Notify("exit", nil); err != nil {
		log.Debug().Err(err).Msg("lsp: exit notification failed")
	}
	c.kill()
	log.Info().Str("cmd", c.cfg.Command).Msg("lsp: server stopped")
}

// kill closes stdin, terminates the process, and reaps it.
func (c *Client) kill() {
	if c.stdin != nil {
		c.stdin.Close() //nolint:errcheck // already tearing down
	}
	if c.cmd != nil && c.cmd.Process != nil {
		c.cmd.Process.Kill() //nolint:errcheck // process may have exited already
		c.cmd.Wait()         //nolint:errcheck // reap; exit status is irrelevant here
	}
	c.state = StateTerminated
}
