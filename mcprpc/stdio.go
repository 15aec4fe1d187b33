// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package mcprpc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
)

// maxLineBytes bounds a single newline-delimited envelope.
const maxLineBytes = 16 * 1024 * 1024

// RunStdio runs the server loop reading from stdin and writing to
// stdout. If stdin or stdout is connected to a terminal, a warning is
// printed to stderr.
func (s *Server) RunStdio() {
	// Ignore SIGPIPE so writes to closed pipes (stderr logging, stdout
	// framing) return errors instead of killing the process.
	signal.Ignore(syscall.SIGPIPE)

	if isTerminal(os.Stdin) || isTerminal(os.Stdout) {
		fmt.Fprintln(os.Stderr,
			"WARNING: This process communicates via newline-delimited JSON-RPC "+
				"on stdin/stdout and is not intended to be run interactively.\n"+
				"It should be launched as a subprocess by an MCP client.")
	}
	s.Serve(os.Stdin, os.Stdout)
}

// isTerminal reports whether f is connected to a terminal.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// Serve runs the connection loop on the given reader/writer pair.
func (s *Server) Serve(r io.Reader, w io.Writer) {
	s.ServeWithContext(context.Background(), r, w)
}

// ServeWithContext runs the connection loop until end-of-stream or
// context cancellation. One session spans the whole connection: calls
// other than initialize and ping fail until the handshake completes.
// tools/call dispatches run off the intake path so the loop keeps
// receiving while earlier calls are still in flight; responses are
// framed in completion order.
func (s *Server) ServeWithContext(ctx context.Context, r io.Reader, w io.Writer) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn := &stdioConn{w: w}
	sess := newSession(TransportStdio, conn.notify)
	calls := newInflightCalls()
	var wg sync.WaitGroup

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if connCtx.Err() != nil {
			break
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			// Malformed line: report with a null id and keep the
			// connection alive.
			conn.write(errorResponse(nil, Errorf(CodeParse, "parse error: %v", err)))
			continue
		}
		if req.Method == "" {
			id := req.ID
			if req.HasInvalidID() {
				id = nil
			}
			conn.write(errorResponse(id, Errorf(CodeInvalidRequest, "missing method")))
			continue
		}

		switch req.Method {
		case methodCancelled:
			s.cancelInflight(calls, &req)
		case methodToolsCall:
			s.dispatchCall(connCtx, sess, conn, calls, &wg, req)
		default:
			if resp := s.Handle(connCtx, sess, &req); resp != nil {
				conn.write(resp)
			}
		}
	}
	if err := scanner.Err(); err != nil && !isTransportClosed(err) {
		slog.Error("connection read error", "err", err)
	}

	// End-of-stream cancels any calls this connection originated.
	cancel()
	wg.Wait()
}

// dispatchCall runs one tools/call off the intake loop. The call is
// cancellable via notifications/cancelled and by connection teardown.
func (s *Server) dispatchCall(connCtx context.Context, sess *session, conn *stdioConn, calls *inflightCalls, wg *sync.WaitGroup, req Request) {
	callCtx, cancelCall := context.WithCancel(connCtx)
	key := ""
	if !req.IsNotification() && !req.HasInvalidID() {
		key = idKey(req.ID)
		calls.add(key, cancelCall)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancelCall()
		resp := s.Handle(callCtx, sess, &req)
		if key != "" {
			calls.remove(key)
		}
		// A nil response means the call was a notification or was
		// cancelled; cancelled calls get no reply per protocol.
		if resp != nil {
			conn.write(resp)
		}
	}()
}

// cancelInflight handles a notifications/cancelled envelope.
func (s *Server) cancelInflight(calls *inflightCalls, req *Request) {
	var params cancelledParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		slog.Debug("malformed cancelled notification", "err", err)
		return
	}
	if calls.cancel(idKey(params.RequestID)) {
		slog.Debug("cancelled in-flight call", "requestId", params.RequestID, "reason", params.Reason)
	}
}

// inflightCalls tracks the cancellation token of each dispatched call
// for the lifetime of the dispatch.
type inflightCalls struct {
	mu    sync.Mutex
	calls map[string]context.CancelFunc
}

func newInflightCalls() *inflightCalls {
	return &inflightCalls{calls: make(map[string]context.CancelFunc)}
}

func (c *inflightCalls) add(key string, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[key] = cancel
}

func (c *inflightCalls) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.calls, key)
}

// cancel fires the token for key, if one is in flight.
func (c *inflightCalls) cancel(key string) bool {
	c.mu.Lock()
	cancel, ok := c.calls[key]
	delete(c.calls, key)
	c.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// idKey maps a request id to a tracking key. The type prefix keeps the
// string "1" distinct from the number 1.
func idKey(id any) string {
	return fmt.Sprintf("%T:%v", id, id)
}

// stdioConn frames envelopes as single lines on the output stream. The
// mutex serializes concurrent completions; a write failure marks the
// connection broken and later writes become no-ops.
type stdioConn struct {
	mu     sync.Mutex
	w      io.Writer
	broken bool
}

func (c *stdioConn) write(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("response marshal failed", "err", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return
	}
	data = append(data, '\n')
	if _, err := c.w.Write(data); err != nil {
		if !isTransportClosed(err) {
			slog.Error("connection write error", "err", err)
		}
		c.broken = true
	}
}

// notify frames a server-to-client notification.
func (c *stdioConn) notify(method string, params any) {
	c.write(struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitempty"`
	}{JSONRPC: jsonRPCVersion, Method: method, Params: params})
}

// isTransportClosed returns true for errors that indicate the transport
// was closed normally.
func isTransportClosed(err error) bool {
	if err == io.EOF {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "file already closed") ||
		strings.Contains(msg, "EOF")
}
