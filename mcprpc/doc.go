// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

// Package mcprpc implements a Go server for the Model Context Protocol
// (MCP), a JSON-RPC 2.0 based request/response protocol used by AI
// assistant clients to discover and invoke server-side tools.
//
// The package is transport-agnostic: a [Server] owns the tool registry,
// the initialize handshake state machine, and request dispatch, while two
// interchangeable transports frame envelopes on the wire. Tool handlers
// run on a bounded worker [Pool] so a slow upstream call can never stall
// a transport's intake loop.
//
// # Tools
//
// Tools are registered with the generic [Tool] function. Parameters are
// declared as Go structs annotated with `mcprpc` struct tags; the JSON
// Schema advertised in tools/list is derived from the struct by
// reflection. The tag format is:
//
//	`mcprpc:"wire_name[,required][,default=VALUE]"`
//
// An optional `desc` tag supplies the per-parameter description. Pointer
// and slice fields are optional unless tagged required. Incoming
// arguments are validated against the schema before the handler runs;
// structurally invalid arguments produce an "invalid params" error
// without invoking the handler.
//
// # Transports
//
// The stdio transport ([Server.RunStdio], [Server.Serve]) reads and
// writes newline-delimited JSON-RPC envelopes on an io.Reader/io.Writer
// pair. It keeps per-connection handshake state: any call other than
// initialize or ping before the handshake completes fails with a
// "not initialized" error. Multiple tools/call requests may be in flight
// concurrently on one connection and responses may be written out of
// order; exactly one response is produced per request id.
//
// [HTTPServer] exposes the same server over a single stateless POST
// endpoint. Each HTTP request is treated as implicitly pre-initialized
// (no session persists across requests, matching the stateless mode of
// the Python reference server); initialize is still answered normally so
// conforming clients work unchanged. Responses are negotiated between
// application/json and text/event-stream via the Accept header, and
// notification-only requests yield 202 with an empty body.
//
// # Errors
//
// All failures map onto the JSON-RPC error object. Protocol-level codes
// (parse, invalid request, method not found, invalid params, not
// initialized) never invoke a tool handler. Execution-level codes
// (upstream failure, timeout, server busy) are call-scoped: the session
// survives and may keep issuing calls. See [Error].
//
// # Observability
//
// A [DispatchHook] can be installed to observe every dispatch; the
// mcprpc/otel subpackage provides an OpenTelemetry implementation with
// traces and metrics.
package mcprpc
