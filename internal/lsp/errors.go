package lsp

import (
	"errors"
	"fmt"
)

// Standard errors returned by the checker connection.
var (
	// ErrShutdown indicates the transport has been closed.
	ErrShutdown = errors.New("checker connection shut down")

	// ErrEmptyCommand indicates the launch command has no executable.
	ErrEmptyCommand = errors.New("empty checker command")
)

// RPCError represents a JSON-RPC error from the checker.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error %d: %s (data: %v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// JSON-RPC error codes the transport acts on.
const (
	// CodeMethodNotFound rejects server-to-client requests, none of
	// which are supported.
	CodeMethodNotFound = -32601

	// CodeContentModified is how a checker rejects a check that raced
	// a document edit. Expected churn, not worth logging.
	CodeContentModified = -32801
)
