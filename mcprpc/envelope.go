// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package mcprpc

import (
	"bytes"
	"encoding/json"
)

// jsonRPCVersion is the only protocol version accepted in envelopes.
const jsonRPCVersion = "2.0"

// Request is an incoming JSON-RPC 2.0 envelope. A request without an id
// is a notification: the sender expects no reply. The id may be a string
// or a number and is echoed verbatim in the response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`

	idPresent bool
	idNull    bool
	idInvalid bool
}

// UnmarshalJSON records whether the id field was present, explicitly
// null, or of an invalid type, since id absence is the sole discriminator
// between a call and a notification.
func (r *Request) UnmarshalJSON(data []byte) error {
	type raw struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}
	var rr raw
	if err := json.Unmarshal(data, &rr); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = Request{JSONRPC: rr.JSONRPC, Method: rr.Method, Params: rr.Params}

	rawID, ok := fields["id"]
	if !ok {
		return nil
	}
	r.idPresent = true

	rawID = bytes.TrimSpace(rawID)
	if bytes.Equal(rawID, []byte("null")) {
		r.idNull = true
		return nil
	}

	var id any
	if err := json.Unmarshal(rawID, &id); err != nil {
		return err
	}
	switch id.(type) {
	case string, float64:
		r.ID = id
	default:
		r.idInvalid = true
	}
	return nil
}

// IsNotification reports whether the request carries no id.
func (r *Request) IsNotification() bool {
	return !r.idPresent
}

// HasInvalidID reports whether the id was present but null or of a type
// the protocol does not allow.
func (r *Request) HasInvalidID() bool {
	return r.idNull || r.idInvalid
}

// Response is an outgoing JSON-RPC 2.0 envelope. Exactly one of Result
// and Error is set. A nil *Response means no reply is written (the
// request was a notification).
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// resultResponse builds a success response echoing the request id.
func resultResponse(id, result any) *Response {
	return &Response{JSONRPC: jsonRPCVersion, ID: id, Result: result}
}

// errorResponse builds an error response. Per protocol convention an
// error with no determinable id is reported with a null identifier.
func errorResponse(id any, err *Error) *Response {
	return &Response{JSONRPC: jsonRPCVersion, ID: id, Error: err}
}

// isBatch reports whether a raw body is a JSON-RPC batch (an array of
// envelopes) rather than a single envelope.
func isBatch(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
