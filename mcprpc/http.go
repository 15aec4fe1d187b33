// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package mcprpc

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

const (
	jsonContentType = "application/json"
	sseContentType  = "text/event-stream"

	// maxBodyBytes bounds a single HTTP request body.
	maxBodyBytes = 16 * 1024 * 1024
)

// HTTPServer serves MCP requests over stateless HTTP. Each POST carries
// one envelope (or a batch) and the response carries the replies.
// Sessions are implicit: every request behaves as already initialized,
// so clients may skip the handshake entirely.
type HTTPServer struct {
	server           *Server
	prefix           string
	mux              *http.ServeMux
	compressionLevel int
}

// NewHTTPServer creates an HTTP server wrapping an MCP server, mounted
// at the /mcp prefix.
func NewHTTPServer(server *Server) *HTTPServer {
	h := &HTTPServer{
		server:           server,
		prefix:           "/mcp",
		compressionLevel: gzip.DefaultCompression,
	}
	h.mux = http.NewServeMux()
	h.mux.HandleFunc(fmt.Sprintf("POST %s", h.prefix), h.handleRPC)
	h.mux.HandleFunc(fmt.Sprintf("GET %s", h.prefix), h.handleGetStream)
	h.mux.HandleFunc("GET /{$}", h.handleLandingPage)
	h.mux.HandleFunc("/", h.handleNotFound)
	return h
}

// SetCompressionLevel sets the gzip level used when the client sends
// Accept-Encoding: gzip. Zero disables compression.
func (h *HTTPServer) SetCompressionLevel(level int) {
	h.compressionLevel = level
}

// Handle mounts an additional handler on the server mux, for side
// endpoints living next to the RPC endpoint.
func (h *HTTPServer) Handle(pattern string, handler http.Handler) {
	h.mux.Handle(pattern, handler)
}

// HandleFunc mounts an additional handler function on the server mux.
func (h *HTTPServer) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	h.mux.HandleFunc(pattern, handler)
}

// ServeHTTP implements http.Handler.
func (h *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handleGetStream rejects GET on the RPC endpoint. The stateless
// transport has no server-initiated stream to offer.
func (h *HTTPServer) handleGetStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "POST")
	http.Error(w, "server-initiated streams are not supported", http.StatusMethodNotAllowed)
}

// handleRPC dispatches one POST: a single envelope or a batch.
func (h *HTTPServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); !hasMediaType(ct, jsonContentType) {
		http.Error(w, fmt.Sprintf("unsupported content type: %s", ct),
			http.StatusUnsupportedMediaType)
		return
	}
	wantSSE, ok := negotiateAccept(r.Header.Get("Accept"))
	if !ok {
		http.Error(w, "acceptable media types are application/json and text/event-stream",
			http.StatusNotAcceptable)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		http.Error(w, "body read failed", http.StatusBadRequest)
		return
	}
	if len(body) > maxBodyBytes {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	// Notifications emitted mid-call (client log messages) ride along in
	// SSE mode and are dropped otherwise. The mutex guards against a
	// timed-out handler still logging after its reply was written.
	pending := &notificationBuffer{}
	sess := newStatelessSession(requestMetadata(r), pending.add)

	if isBatch(body) {
		h.dispatchBatch(w, r, sess, body, wantSSE, pending)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeResponses(w, r, wantSSE, nil,
			[]*Response{errorResponse(nil, Errorf(CodeParse, "parse error: %v", err))},
			http.StatusBadRequest)
		return
	}
	resp := h.server.Handle(r.Context(), sess, &req)
	if resp == nil {
		// Notification: acknowledged, no body.
		w.WriteHeader(http.StatusAccepted)
		return
	}
	h.writeResponses(w, r, wantSSE, pending.drain(), []*Response{resp}, http.StatusOK)
}

// dispatchBatch handles a JSON array of envelopes. Responses keep the
// order of the requests that produced them; notifications produce none.
func (h *HTTPServer) dispatchBatch(w http.ResponseWriter, r *http.Request, sess *session, body []byte, wantSSE bool, pending *notificationBuffer) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		h.writeResponses(w, r, wantSSE, nil,
			[]*Response{errorResponse(nil, Errorf(CodeParse, "parse error: %v", err))},
			http.StatusBadRequest)
		return
	}
	if len(raw) == 0 {
		h.writeResponses(w, r, wantSSE, nil,
			[]*Response{errorResponse(nil, Errorf(CodeInvalidRequest, "empty batch"))},
			http.StatusBadRequest)
		return
	}

	responses := make([]*Response, 0, len(raw))
	for _, item := range raw {
		var req Request
		if err := json.Unmarshal(item, &req); err != nil {
			responses = append(responses,
				errorResponse(nil, Errorf(CodeParse, "parse error: %v", err)))
			continue
		}
		if resp := h.server.Handle(r.Context(), sess, &req); resp != nil {
			responses = append(responses, resp)
		}
	}
	if len(responses) == 0 {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	h.writeBatch(w, r, wantSSE, pending.drain(), responses)
}

// --- Response framing ---

func (h *HTTPServer) writeResponses(w http.ResponseWriter, r *http.Request, wantSSE bool, pending []any, responses []*Response, status int) {
	if wantSSE {
		h.writeSSE(w, r, pending, responses)
		return
	}
	h.writeJSON(w, r, status, responses[0])
}

func (h *HTTPServer) writeBatch(w http.ResponseWriter, r *http.Request, wantSSE bool, pending []any, responses []*Response) {
	if wantSSE {
		h.writeSSE(w, r, pending, responses)
		return
	}
	h.writeJSON(w, r, http.StatusOK, responses)
}

func (h *HTTPServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("response marshal failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", jsonContentType)
	out := h.maybeCompress(w, r)
	w.WriteHeader(status)
	_, _ = out.Write(data)
	h.finish(out)
}

// writeSSE frames each envelope as one event on a text/event-stream
// body. Pending notifications precede the responses so a client sees
// log messages before the result they accompany.
func (h *HTTPServer) writeSSE(w http.ResponseWriter, r *http.Request, pending []any, responses []*Response) {
	w.Header().Set("Content-Type", sseContentType)
	w.Header().Set("Cache-Control", "no-store")
	out := h.maybeCompress(w, r)
	w.WriteHeader(http.StatusOK)

	writeEvent := func(v any) {
		data, err := json.Marshal(v)
		if err != nil {
			slog.Error("event marshal failed", "err", err)
			return
		}
		fmt.Fprintf(out, "event: message\ndata: %s\n\n", data)
	}
	for _, n := range pending {
		writeEvent(n)
	}
	for _, resp := range responses {
		writeEvent(resp)
	}
	h.finish(out)
}

// maybeCompress wraps the response writer in a gzip encoder when the
// client accepts it and compression is enabled.
func (h *HTTPServer) maybeCompress(w http.ResponseWriter, r *http.Request) io.Writer {
	if h.compressionLevel == 0 ||
		!strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
		return w
	}
	gz, err := gzip.NewWriterLevel(w, h.compressionLevel)
	if err != nil {
		return w
	}
	w.Header().Set("Content-Encoding", "gzip")
	return gz
}

func (h *HTTPServer) finish(out io.Writer) {
	if gz, ok := out.(*gzip.Writer); ok {
		_ = gz.Close()
	}
}

// notificationBuffer collects server-to-client notifications produced
// while a request is being handled.
type notificationBuffer struct {
	mu    sync.Mutex
	items []any
}

func (b *notificationBuffer) add(method string, params any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, struct {
		JSONRPC string `json:"jsonrpc"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitempty"`
	}{JSONRPC: jsonRPCVersion, Method: method, Params: params})
}

func (b *notificationBuffer) drain() []any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = nil
	return out
}

// --- Negotiation helpers ---

// negotiateAccept inspects the Accept header. It returns wantSSE=true
// when the client prefers text/event-stream, and ok=false when neither
// supported media type is acceptable.
func negotiateAccept(accept string) (wantSSE, ok bool) {
	if accept == "" {
		return false, true
	}
	acceptsJSON := false
	acceptsSSE := false
	for _, part := range strings.Split(accept, ",") {
		mt := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		switch {
		case mt == "*/*" || mt == "application/*":
			acceptsJSON = true
		case mt == jsonContentType:
			acceptsJSON = true
		case mt == sseContentType || mt == "text/*":
			acceptsSSE = true
		}
	}
	if acceptsSSE && !acceptsJSON {
		return true, true
	}
	return false, acceptsJSON || acceptsSSE
}

// hasMediaType reports whether header names the given media type,
// ignoring parameters such as charset.
func hasMediaType(header, mediaType string) bool {
	mt := strings.TrimSpace(strings.SplitN(header, ";", 2)[0])
	return strings.EqualFold(mt, mediaType)
}

// requestMetadata extracts transport-level metadata passed to dispatch
// hooks.
func requestMetadata(r *http.Request) map[string]string {
	md := map[string]string{
		"remoteAddr": r.RemoteAddr,
	}
	if ua := r.Header.Get("User-Agent"); ua != "" {
		md["userAgent"] = ua
	}
	if pv := r.Header.Get("MCP-Protocol-Version"); pv != "" {
		md["protocolVersion"] = pv
	}
	for name, values := range r.Header {
		if strings.HasPrefix(strings.ToLower(name), "traceparent") ||
			strings.HasPrefix(strings.ToLower(name), "tracestate") {
			md[strings.ToLower(name)] = values[0]
		}
	}
	return md
}
