package mcprpc

import (
	"errors"
	"fmt"
)

// JSON-RPC 2.0 error codes, plus the server-defined codes used by this
// protocol. The negative -320xx range is reserved by JSON-RPC for
// implementation-defined server errors.
const (
	// CodeParse indicates the envelope could not be parsed as JSON.
	CodeParse = -32700
	// CodeInvalidRequest indicates a structurally invalid envelope.
	CodeInvalidRequest = -32600
	// CodeMethodNotFound indicates an unknown method or tool name.
	CodeMethodNotFound = -32601
	// CodeInvalidParams indicates structurally invalid call arguments.
	CodeInvalidParams = -32602
	// CodeInternal indicates an unexpected server-side fault.
	CodeInternal = -32603

	// CodeNotInitialized indicates a call arrived before the initialize
	// handshake completed on the session.
	CodeNotInitialized = -32002
	// CodeUpstream indicates a tool handler failed, typically because a
	// remote database was unreachable or returned malformed data.
	CodeUpstream = -32010
	// CodeTimeout indicates a tool handler exceeded its configured
	// execution timeout.
	CodeTimeout = -32011
	// CodeBusy indicates the worker pool queue was full and the call was
	// rejected without executing.
	CodeBusy = -32012
)

// ErrProtocol is a sentinel for use with errors.Is to check whether any
// error in a chain is an *Error.
var ErrProtocol = &Error{}

// Error is a JSON-RPC error object. Tool handlers may return an *Error
// directly to control the code reported to the client; any other error
// is surfaced as CodeUpstream.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Is supports errors.Is by matching any *Error target.
func (e *Error) Is(target error) bool {
	_, ok := target.(*Error)
	return ok
}

// Errorf builds an *Error with a formatted message.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// asError maps an arbitrary handler failure onto the wire error taxonomy.
// Typed protocol errors pass through unchanged so handlers can return
// e.g. an invalid-params error for semantic argument violations.
func asError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return &Error{Code: CodeUpstream, Message: err.Error()}
}
