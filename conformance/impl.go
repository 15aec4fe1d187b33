// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package conformance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/VAMDC/vamdc-mcp/mcprpc"
)

// --- Parameter structs for each tool ---

type EchoStringParams struct {
	Value string `mcprpc:"value,required"`
}
type EchoIntParams struct {
	Value int64 `mcprpc:"value,required"`
}
type EchoFloatParams struct {
	Value float64 `mcprpc:"value,required"`
}
type EchoBoolParams struct {
	Value bool `mcprpc:"value,required"`
}
type EchoListParams struct {
	Values []string `mcprpc:"values,required"`
}
type EchoDictParams struct {
	Mapping map[string]int64 `mcprpc:"mapping,required"`
}
type EchoOptionalStringParams struct {
	Value *string `mcprpc:"value"`
}
type AddFloatsParams struct {
	A float64 `mcprpc:"a,required"`
	B float64 `mcprpc:"b,required"`
}
type ConcatenateParams struct {
	Prefix    string `mcprpc:"prefix,required"`
	Suffix    string `mcprpc:"suffix,required"`
	Separator string `mcprpc:"separator,default=-"`
}
type WithDefaultsParams struct {
	Required    int64  `mcprpc:"required,required"`
	OptionalStr string `mcprpc:"optional_str,default=default"`
	OptionalInt int64  `mcprpc:"optional_int,default=42"`
}
type RaiseErrorParams struct {
	Message string `mcprpc:"message,required"`
}
type RaiseCodedErrorParams struct {
	Code    int    `mcprpc:"code,required"`
	Message string `mcprpc:"message,required"`
}
type EchoWithLogParams struct {
	Value string `mcprpc:"value,required"`
}
type SleepParams struct {
	Millis int64 `mcprpc:"millis,required"`
}

// RegisterTools registers all conformance tools on the server.
func RegisterTools(server *mcprpc.Server) {
	// Scalar echo tools
	mcprpc.Tool(server, "echo_string", "Echoes a string value.", echoString)
	mcprpc.Tool(server, "echo_int", "Echoes an integer value.", echoInt)
	mcprpc.Tool(server, "echo_float", "Echoes a floating point value.", echoFloat)
	mcprpc.Tool(server, "echo_bool", "Echoes a boolean value.", echoBool)

	// Collections and optionals
	mcprpc.Tool(server, "echo_list", "Echoes a list of strings.", echoList)
	mcprpc.Tool(server, "echo_dict", "Echoes a string-to-integer mapping.", echoDict)
	mcprpc.Tool(server, "echo_optional_string", "Echoes an optional string, reporting absence.", echoOptionalString)

	// Multi-param & defaults
	mcprpc.Tool(server, "add_floats", "Adds two numbers.", addFloats)
	mcprpc.Tool(server, "concatenate", "Joins prefix and suffix with a separator.", concatenate)
	mcprpc.Tool(server, "with_defaults", "Reports which parameters took their defaults.", withDefaults)

	// Error propagation
	mcprpc.Tool(server, "raise_error", "Fails with a plain error carrying the given message.", raiseError)
	mcprpc.Tool(server, "raise_coded_error", "Fails with a JSON-RPC error of the given code.", raiseCodedError)
	mcprpc.Tool(server, "raise_panic", "Panics with the given message.", raisePanic)

	// Client-directed logging
	mcprpc.Tool(server, "echo_with_info_log", "Echoes a value after sending one info log message.", echoWithInfoLog)
	mcprpc.Tool(server, "echo_with_multi_logs", "Echoes a value after logging at several levels.", echoWithMultiLogs)

	// Execution behavior
	mcprpc.Tool(server, "sleep", "Sleeps for the given number of milliseconds.", sleep,
		mcprpc.WithTimeout(2*time.Second))
	mcprpc.Tool(server, "call_info", "Reports the request id and tool name seen by the handler.", callInfo)
}

// --- Handler implementations ---

func echoString(_ context.Context, _ *mcprpc.CallContext, p EchoStringParams) (*mcprpc.ToolResult, error) {
	return mcprpc.TextResult(p.Value), nil
}

func echoInt(_ context.Context, _ *mcprpc.CallContext, p EchoIntParams) (*mcprpc.ToolResult, error) {
	return mcprpc.JSONResult(map[string]int64{"value": p.Value})
}

func echoFloat(_ context.Context, _ *mcprpc.CallContext, p EchoFloatParams) (*mcprpc.ToolResult, error) {
	return mcprpc.JSONResult(map[string]float64{"value": p.Value})
}

func echoBool(_ context.Context, _ *mcprpc.CallContext, p EchoBoolParams) (*mcprpc.ToolResult, error) {
	return mcprpc.JSONResult(map[string]bool{"value": p.Value})
}

func echoList(_ context.Context, _ *mcprpc.CallContext, p EchoListParams) (*mcprpc.ToolResult, error) {
	return mcprpc.JSONResult(p.Values)
}

func echoDict(_ context.Context, _ *mcprpc.CallContext, p EchoDictParams) (*mcprpc.ToolResult, error) {
	// Rendered deterministically so clients can compare verbatim.
	keys := make([]string, 0, len(p.Mapping))
	for k := range p.Mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, p.Mapping[k])
	}
	return mcprpc.TextResult(strings.Join(parts, ",")), nil
}

func echoOptionalString(_ context.Context, _ *mcprpc.CallContext, p EchoOptionalStringParams) (*mcprpc.ToolResult, error) {
	if p.Value == nil {
		return mcprpc.TextResult("<absent>"), nil
	}
	return mcprpc.TextResult(*p.Value), nil
}

func addFloats(_ context.Context, _ *mcprpc.CallContext, p AddFloatsParams) (*mcprpc.ToolResult, error) {
	return mcprpc.JSONResult(map[string]float64{"sum": p.A + p.B})
}

func concatenate(_ context.Context, _ *mcprpc.CallContext, p ConcatenateParams) (*mcprpc.ToolResult, error) {
	return mcprpc.TextResult(p.Prefix + p.Separator + p.Suffix), nil
}

func withDefaults(_ context.Context, _ *mcprpc.CallContext, p WithDefaultsParams) (*mcprpc.ToolResult, error) {
	return mcprpc.JSONResult(map[string]any{
		"required":     p.Required,
		"optional_str": p.OptionalStr,
		"optional_int": p.OptionalInt,
	})
}

func raiseError(_ context.Context, _ *mcprpc.CallContext, p RaiseErrorParams) (*mcprpc.ToolResult, error) {
	return nil, errors.New(p.Message)
}

func raiseCodedError(_ context.Context, _ *mcprpc.CallContext, p RaiseCodedErrorParams) (*mcprpc.ToolResult, error) {
	return nil, mcprpc.Errorf(p.Code, "%s", p.Message)
}

func raisePanic(_ context.Context, _ *mcprpc.CallContext, p RaiseErrorParams) (*mcprpc.ToolResult, error) {
	panic(p.Message)
}

func echoWithInfoLog(_ context.Context, cc *mcprpc.CallContext, p EchoWithLogParams) (*mcprpc.ToolResult, error) {
	cc.ClientLog(mcprpc.LogInfo, "processing "+p.Value)
	return mcprpc.TextResult(p.Value), nil
}

func echoWithMultiLogs(_ context.Context, cc *mcprpc.CallContext, p EchoWithLogParams) (*mcprpc.ToolResult, error) {
	cc.ClientLog(mcprpc.LogDebug, "debug message")
	cc.ClientLog(mcprpc.LogInfo, "info message")
	cc.ClientLog(mcprpc.LogWarning, "warning message")
	cc.ClientLog(mcprpc.LogError, "error message")
	return mcprpc.TextResult(p.Value), nil
}

func sleep(ctx context.Context, _ *mcprpc.CallContext, p SleepParams) (*mcprpc.ToolResult, error) {
	select {
	case <-time.After(time.Duration(p.Millis) * time.Millisecond):
		return mcprpc.TextResult("slept"), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func callInfo(_ context.Context, cc *mcprpc.CallContext, _ struct{}) (*mcprpc.ToolResult, error) {
	return mcprpc.JSONResult(map[string]any{
		"requestId": fmt.Sprintf("%v", cc.RequestID),
		"tool":      cc.Tool,
	})
}
