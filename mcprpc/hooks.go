// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package mcprpc

import "context"

// Transport name constants for DispatchInfo.Transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// DispatchHook provides observability callpoints around request
// dispatch. Implementations must be safe for concurrent use (both
// transports dispatch concurrently).
type DispatchHook interface {
	OnDispatchStart(ctx context.Context, info DispatchInfo) (context.Context, HookToken)
	OnDispatchEnd(ctx context.Context, token HookToken, info DispatchInfo, stats *CallStatistics, err error)
}

// HookToken is an opaque value returned by OnDispatchStart and passed
// back to OnDispatchEnd. Only meaningful to the DispatchHook that
// created it.
type HookToken interface{}

// DispatchInfo carries request metadata passed to hooks.
type DispatchInfo struct {
	Method     string            // protocol method, e.g. "tools/call"
	Tool       string            // tool name for tools/call, else empty
	ServerName string            // server identity from NewServer
	RequestID  string            // stringified request id, empty for notifications
	Transport  string            // TransportStdio or TransportHTTP
	Metadata   map[string]string // transport-level metadata (HTTP headers)
}

// CallStatistics holds per-dispatch I/O counters.
type CallStatistics struct {
	InputBytes  int64
	OutputBytes int64
}

// RecordInput records the encoded size of the request parameters.
func (s *CallStatistics) RecordInput(n int64) {
	s.InputBytes += n
}

// RecordOutput records the encoded size of the response payload.
func (s *CallStatistics) RecordOutput(n int64) {
	s.OutputBytes += n
}
