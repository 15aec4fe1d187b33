// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package mcprpc

import "context"

// CallContext provides request-scoped information and client-directed
// logging to tool handlers.
type CallContext struct {
	// Ctx is the request-scoped context, carrying cancellation and the
	// per-call execution deadline enforced by the pool.
	Ctx context.Context
	// RequestID is the client-supplied identifier for this call.
	RequestID any
	// Tool is the name of the tool being invoked.
	Tool string

	session *session
}

// ClientLog sends a log message to the client as a notifications/message
// envelope. Messages below the session's configured level, or on a
// transport with no notification channel, are discarded.
func (c *CallContext) ClientLog(level LogLevel, data any) {
	if c.session == nil {
		return
	}
	c.session.clientLog(level, c.Tool, data)
}
