// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package mcprpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// DefaultToolTimeout bounds tool execution when no per-tool timeout is
// configured.
const DefaultToolTimeout = 30 * time.Second

// toolInfo stores the registration details for one tool.
type toolInfo struct {
	Name        string
	Description string
	InputSchema map[string]any
	ParamsType  reflect.Type  // Go struct type for arguments
	Handler     reflect.Value // func(context.Context, *CallContext, P) (*ToolResult, error)
	Timeout     time.Duration // per-call execution budget on the pool
}

// Server owns the tool registry, the handshake state machine, and
// request dispatch. It is transport-neutral: transports feed it parsed
// envelopes and frame the responses it produces. The registry is built
// before serving and immutable afterwards, so dispatch needs no
// synchronization.
type Server struct {
	name         string
	version      string
	instructions string
	tools        map[string]*toolInfo
	order        []string // registry insertion order, the tools/list order
	pool         *Pool
	poolOnce     sync.Once
	hook         DispatchHook
}

// NewServer creates a server with the given identity. The identity is
// reported to clients in the initialize response.
func NewServer(name, version string) *Server {
	return &Server{
		name:    name,
		version: version,
		tools:   make(map[string]*toolInfo),
	}
}

// SetInstructions sets the usage guidance sent once per session in the
// initialize response.
func (s *Server) SetInstructions(text string) {
	s.instructions = text
}

// SetPool installs the worker pool used for tool execution, and must be
// called before serving. If no pool is set, a default-sized one is
// created lazily on first dispatch.
func (s *Server) SetPool(p *Pool) {
	s.pool = p
}

// Pool returns the worker pool, creating a default one exactly once if
// none was installed. Other request surfaces (e.g. a REST binding) share
// it so that every upstream call in the process is bounded by the same
// workers.
func (s *Server) Pool() *Pool {
	s.poolOnce.Do(func() {
		if s.pool == nil {
			s.pool = NewPool(DefaultPoolWorkers, DefaultPoolQueueDepth)
		}
	})
	return s.pool
}

// SetDispatchHook registers a hook called around each tools/call dispatch.
func (s *Server) SetDispatchHook(hook DispatchHook) {
	s.hook = hook
}

// ServerName returns the server identity, as used by observability hooks.
func (s *Server) ServerName() string {
	return s.name
}

// ToolOption adjusts a tool registration.
type ToolOption func(*toolInfo)

// WithTimeout sets the per-call execution budget for a tool. Remote-query
// tools need materially longer budgets than metadata tools.
func WithTimeout(d time.Duration) ToolOption {
	return func(t *toolInfo) { t.Timeout = d }
}

// Tool registers a tool with typed arguments. P must be a struct with
// `mcprpc` tags; its JSON Schema is derived by reflection and advertised
// in tools/list. Registration happens once at startup; registering a
// duplicate or invalid tool is a programming error and panics.
func Tool[P any](s *Server, name, description string, handler func(context.Context, *CallContext, P) (*ToolResult, error), opts ...ToolOption) {
	var p P
	paramsType := reflect.TypeOf(p)

	schema, err := structToSchema(paramsType)
	if err != nil {
		panic(fmt.Sprintf("mcprpc: registering %q: invalid params type %T: %v", name, p, err))
	}
	if _, dup := s.tools[name]; dup {
		panic(fmt.Sprintf("mcprpc: tool %q registered twice", name))
	}

	info := &toolInfo{
		Name:        name,
		Description: description,
		InputSchema: schema,
		ParamsType:  paramsType,
		Handler:     reflect.ValueOf(handler),
		Timeout:     DefaultToolTimeout,
	}
	for _, opt := range opts {
		opt(info)
	}
	s.tools[name] = info
	s.order = append(s.order, name)
}

// Descriptors returns the registered tools in insertion order.
func (s *Server) Descriptors() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(s.order))
	for _, name := range s.order {
		info := s.tools[name]
		out = append(out, ToolDescriptor{
			Name:        info.Name,
			Description: info.Description,
			InputSchema: info.InputSchema,
		})
	}
	return out
}

// Handle processes one parsed envelope against a session and returns
// the response to frame, or nil when the envelope was a notification.
// tools/call blocks until the pool produces an outcome, so transports
// that must keep an intake loop live call Handle on a separate
// goroutine for tool calls.
func (s *Server) Handle(ctx context.Context, sess *session, req *Request) *Response {
	if req.JSONRPC != jsonRPCVersion {
		return s.replyError(req, Errorf(CodeInvalidRequest, "unsupported jsonrpc version %q", req.JSONRPC))
	}
	if req.HasInvalidID() {
		return errorResponse(nil, Errorf(CodeInvalidRequest, "request id must be a string or a number"))
	}

	switch req.Method {
	case methodInitialize:
		return s.handleInitialize(sess, req)
	case methodInitialized:
		if !sess.initialized() {
			slog.Debug("initialized notification before handshake completed")
		}
		return nil
	case methodPing:
		// Pings are answered in any session state.
		return s.reply(req, struct{}{})
	case methodSetLogLevel:
		return s.handleSetLogLevel(sess, req)
	case methodToolsList:
		if resp, ok := s.requireInitialized(sess, req); !ok {
			return resp
		}
		return s.reply(req, toolsListResult{Tools: s.Descriptors()})
	case methodToolsCall:
		if resp, ok := s.requireInitialized(sess, req); !ok {
			return resp
		}
		return s.handleToolCall(ctx, sess, req)
	case methodCancelled:
		// Cancellation is connection-scoped and handled by the stdio
		// transport before dispatch; reaching here means the transport
		// has no in-flight tracking (HTTP), so there is nothing to do.
		return nil
	default:
		if req.IsNotification() {
			slog.Debug("ignoring unknown notification", "method", req.Method)
			return nil
		}
		return s.replyError(req, Errorf(CodeMethodNotFound, "unknown method %q", req.Method))
	}
}

// requireInitialized gates dispatch on the completed handshake. When
// the session is not initialized, requests get a "not initialized"
// error response and notifications are dropped without dispatching, so
// no handler runs before the handshake either way.
func (s *Server) requireInitialized(sess *session, req *Request) (*Response, bool) {
	if sess.initialized() {
		return nil, true
	}
	if req.IsNotification() {
		slog.Debug("dropping notification before handshake completed", "method", req.Method)
		return nil, false
	}
	return errorResponse(req.ID, Errorf(CodeNotInitialized,
		"session not initialized: send initialize before %q", req.Method)), false
}

func (s *Server) handleInitialize(sess *session, req *Request) *Response {
	if req.IsNotification() {
		slog.Warn("initialize sent as a notification, ignoring")
		return nil
	}

	var params initializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return s.replyError(req, Errorf(CodeInvalidParams, "initialize params: %v", err))
		}
	}

	negotiated, ok := negotiateProtocolVersion(params.ProtocolVersion)
	if !ok {
		return errorResponse(req.ID, &Error{
			Code:    CodeInvalidParams,
			Message: fmt.Sprintf("unsupported protocol version %q", params.ProtocolVersion),
			Data:    map[string]any{"supported": supportedProtocolVersions},
		})
	}

	already, version := sess.initialize(negotiated)
	if already {
		// Idempotent: repeat the result for the version negotiated first.
		slog.Warn("repeated initialize on an initialized session",
			"client", params.ClientInfo.Name)
	}

	return s.reply(req, initializeResult{
		ProtocolVersion: version,
		Capabilities:    serverCapabilities{Tools: toolsCapability{}},
		ServerInfo:      implementationInfo{Name: s.name, Version: s.version},
		Instructions:    s.instructions,
	})
}

func (s *Server) handleSetLogLevel(sess *session, req *Request) *Response {
	if resp, ok := s.requireInitialized(sess, req); !ok {
		return resp
	}
	var params setLevelParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.replyError(req, Errorf(CodeInvalidParams, "setLevel params: %v", err))
	}
	if !validLogLevel(params.Level) {
		return s.replyError(req, Errorf(CodeInvalidParams, "unknown log level %q", params.Level))
	}
	sess.setLogLevel(params.Level)
	return s.reply(req, struct{}{})
}

// handleToolCall validates a tools/call request and runs the handler on
// the pool. Protocol-level failures (unknown tool, invalid arguments)
// never reach the handler; execution-level failures are call-scoped and
// leave the session usable.
func (s *Server) handleToolCall(ctx context.Context, sess *session, req *Request) *Response {
	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.replyError(req, Errorf(CodeInvalidParams, "tools/call params: %v", err))
	}

	info, ok := s.tools[params.Name]
	if !ok {
		return s.replyError(req, Errorf(CodeMethodNotFound, "unknown tool %q", params.Name))
	}

	args, decodeErr := decodeParams(params.Arguments, info.ParamsType)
	if decodeErr != nil {
		return s.replyError(req, decodeErr)
	}

	dispatchInfo := DispatchInfo{
		Method:     methodToolsCall,
		Tool:       info.Name,
		ServerName: s.name,
		Transport:  sess.transport,
		Metadata:   sess.metadata,
	}
	if !req.IsNotification() {
		dispatchInfo.RequestID = fmt.Sprint(req.ID)
	}

	stats := &CallStatistics{}
	stats.RecordInput(int64(len(params.Arguments)))

	var hookToken HookToken
	hookActive := false
	if s.hook != nil {
		func() {
			defer func() {
				if rv := recover(); rv != nil {
					slog.Error("dispatch hook start panic", "err", rv)
				}
			}()
			var hookCtx context.Context
			hookCtx, hookToken = s.hook.OnDispatchStart(ctx, dispatchInfo)
			if hookCtx != nil {
				ctx = hookCtx
			}
			hookActive = true
		}()
	}

	callCtx := &CallContext{
		RequestID: req.ID,
		Tool:      info.Name,
		session:   sess,
	}

	value, err := s.Pool().Submit(ctx, info.Timeout, func(taskCtx context.Context) (any, error) {
		callCtx.Ctx = taskCtx
		results := info.Handler.Call([]reflect.Value{
			reflect.ValueOf(taskCtx),
			reflect.ValueOf(callCtx),
			args,
		})
		var callErr error
		if !results[1].IsNil() {
			callErr = results[1].Interface().(error)
		}
		return results[0].Interface(), callErr
	})

	var resp *Response
	if err != nil {
		switch ctx.Err() {
		case context.Canceled:
			// Cancelled by the client or connection teardown; the
			// transport suppresses any reply.
			resp = nil
			err = ctx.Err()
		default:
			resp = s.replyError(req, asError(err))
		}
	} else {
		result := value.(*ToolResult)
		if result == nil {
			result = &ToolResult{Content: []ContentBlock{}}
		}
		if s.hook != nil {
			if encoded, mErr := json.Marshal(result); mErr == nil {
				stats.RecordOutput(int64(len(encoded)))
			}
		}
		resp = s.reply(req, result)
	}

	if hookActive {
		func() {
			defer func() {
				if rv := recover(); rv != nil {
					slog.Error("dispatch hook end panic", "err", rv)
				}
			}()
			s.hook.OnDispatchEnd(ctx, hookToken, dispatchInfo, stats, err)
		}()
	}

	return resp
}

// reply builds a success response, or nil for notifications.
func (s *Server) reply(req *Request, result any) *Response {
	if req.IsNotification() {
		return nil
	}
	return resultResponse(req.ID, result)
}

// replyError builds an error response attributed to the request id, or
// nil for notifications (errors for notifications are logged only).
func (s *Server) replyError(req *Request, err *Error) *Response {
	if req.IsNotification() {
		slog.Debug("error handling notification", "method", req.Method, "err", err)
		return nil
	}
	return errorResponse(req.ID, err)
}
