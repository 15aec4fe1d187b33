// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package mcprpc

import "encoding/json"

// Protocol method names.
const (
	methodInitialize  = "initialize"
	methodInitialized = "notifications/initialized"
	methodPing        = "ping"
	methodToolsList   = "tools/list"
	methodToolsCall   = "tools/call"
	methodSetLogLevel = "logging/setLevel"
	methodCancelled   = "notifications/cancelled"
	methodLogMessage  = "notifications/message"
)

// implementationInfo identifies one side of the handshake.
type implementationInfo struct {
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version"`
}

// initializeParams is the payload of an initialize call.
type initializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    json.RawMessage    `json:"capabilities,omitempty"`
	ClientInfo      implementationInfo `json:"clientInfo"`
}

// initializeResult is the payload of a successful initialize response.
type initializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    serverCapabilities `json:"capabilities"`
	ServerInfo      implementationInfo `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// serverCapabilities declares what this server supports.
type serverCapabilities struct {
	Tools   toolsCapability `json:"tools"`
	Logging struct{}        `json:"logging"`
}

// toolsCapability declares tool support.
type toolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ToolDescriptor is one entry of a tools/list result: the tool name,
// description, and the JSON Schema its arguments must satisfy.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// toolsListResult is the payload of a tools/list response.
type toolsListResult struct {
	Tools []ToolDescriptor `json:"tools"`
}

// toolsCallParams is the payload of a tools/call request.
type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ContentBlock is a single content item in a tool result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the result payload of a successful tools/call.
type ToolResult struct {
	Content           []ContentBlock `json:"content"`
	StructuredContent any            `json:"structuredContent,omitempty"`
	IsError           bool           `json:"isError,omitempty"`
}

// TextResult wraps plain text (e.g. a rendered markdown table) as a
// tool result.
func TextResult(text string) *ToolResult {
	return &ToolResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

// JSONResult encodes v as JSON text content and carries it as
// structured content alongside.
func JSONResult(v any) (*ToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &ToolResult{
		Content:           []ContentBlock{{Type: "text", Text: string(data)}},
		StructuredContent: v,
	}, nil
}

// setLevelParams is the payload of a logging/setLevel request.
type setLevelParams struct {
	Level LogLevel `json:"level"`
}

// cancelledParams is the payload of a notifications/cancelled envelope.
type cancelledParams struct {
	RequestID any    `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}
