package lsp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/proofpane/internal/verdict"
)

// Wire methods of the proof checker's protocol extension.
const (
	methodCheckStep   = "tlapm/checkStep"
	methodProofStates = "tlapm/proofStates"
)

// LanguageID is the language identifier the connection is restricted
// to; documents of other kinds are never sent to the checker.
const LanguageID = "tlaplus"

const initializeTimeout = 15 * time.Second

// BatchFunc consumes inbound verdict batches in arrival order.
type BatchFunc func(batch verdict.Batch)

// Client is one checker process and its protocol session.
type Client struct {
	id        string
	cmd       *exec.Cmd
	transport *Transport
	onBatch   BatchFunc
}

// Dial spawns the checker from the launch command (executable followed
// by arguments), performs the initialize handshake, and registers the
// proof-state consumer. A spawn failure is returned as-is; the caller
// decides whether to surface or retry it.
func Dial(command []string, onBatch BatchFunc) (*Client, error) {
	if len(command) == 0 {
		return nil, ErrEmptyCommand
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("start %s: %w", command[0], err)
	}

	c := &Client{
		id:        uuid.New().String(),
		cmd:       cmd,
		transport: NewTransport(stdout, stdin, stdin),
		onBatch:   onBatch,
	}

	c.transport.OnNotification(methodProofStates, c.handleProofStates)
	c.transport.Start()

	if err := c.initialize(); err != nil {
		c.transport.Close()
		go cmd.Wait()
		return nil, err
	}

	log.Printf("checker %s started: pid %d (conn %s)", command[0], cmd.Process.Pid, c.id)
	return c, nil
}

// ID returns the connection identifier, for log correlation.
func (c *Client) ID() string {
	return c.id
}

// initialize performs the initialize/initialized handshake.
func (c *Client) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), initializeTimeout)
	defer cancel()

	cwd, _ := os.Getwd()
	params := map[string]any{
		"processId": os.Getpid(),
		"rootUri":   "file://" + cwd,
		"capabilities": map[string]any{
			"textDocument": map[string]any{},
		},
		"initializationOptions": map[string]any{
			"languageId": LanguageID,
		},
	}
	if err := c.transport.Call(ctx, "initialize", params, nil); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if err := c.transport.Notify("initialized", map[string]any{}); err != nil {
		return fmt.Errorf("initialized: %w", err)
	}
	return nil
}

// handleProofStates decodes a proof-state notification and hands it to
// the consumer. Malformed payloads are dropped with a log line; one
// bad batch must not take down the session.
func (c *Client) handleProofStates(params json.RawMessage) {
	batch, err := verdict.DecodeBatch(params)
	if err != nil {
		log.Printf("conn %s: dropping proof states: %v", c.id, err)
		return
	}
	if c.onBatch != nil {
		c.onBatch(batch)
	}
}

// CheckStep asks the checker to verify the proof step covering the
// selection, addressed by the exact document version at invocation
// time. Fire-and-forget: a stale version is the checker's to reject.
func (c *Client) CheckStep(uri string, version int, sel verdict.Range) error {
	params := map[string]any{
		"textDocument": map[string]any{
			"uri":     uri,
			"version": version,
		},
		"range": sel,
	}
	return c.transport.Post(methodCheckStep, params)
}

// OpenDocument announces an opened TLA+ document to the checker.
func (c *Client) OpenDocument(uri string, version int, content string) error {
	return c.transport.Notify("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{
			"uri":        uri,
			"languageId": LanguageID,
			"version":    version,
			"text":       content,
		},
	})
}

// ChangeDocument sends a whole-content document update.
func (c *Client) ChangeDocument(uri string, version int, content string) error {
	return c.transport.Notify("textDocument/didChange", map[string]any{
		"textDocument": map[string]any{
			"uri":     uri,
			"version": version,
		},
		"contentChanges": []map[string]any{
			{"text": content},
		},
	})
}

// CloseDocument announces a closed document.
func (c *Client) CloseDocument(uri string) error {
	return c.transport.Notify("textDocument/didClose", map[string]any{
		"textDocument": map[string]any{"uri": uri},
	})
}

// Close tears the session down: shutdown request, exit notification,
// transport close. The process wait is fire-and-forget; the caller
// never blocks on checker exit.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Best effort. The checker may already be gone.
	if err := c.transport.Call(ctx, "shutdown", nil, nil); err != nil && err != ErrShutdown {
		log.Printf("conn %s: shutdown: %v", c.id, err)
	}
	if err := c.transport.Notify("exit", nil); err != nil && err != ErrShutdown {
		log.Printf("conn %s: exit: %v", c.id, err)
	}

	err := c.transport.Close()
	if c.cmd != nil {
		go c.cmd.Wait()
	}
	return err
}
