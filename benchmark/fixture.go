// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

// Package benchmark provides fixture tools for measuring protocol
// dispatch overhead independently of the VAMDC data layer.
package benchmark

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/VAMDC/vamdc-mcp/mcprpc"
)

// Parameter structs

type NoopParams struct{}

type AddParams struct {
	A float64 `mcprpc:"a,required"`
	B float64 `mcprpc:"b,required"`
}

type GreetParams struct {
	Name string `mcprpc:"name,required"`
}

type RoundtripTypesParams struct {
	Color   string           `mcprpc:"color,required"`
	Mapping map[string]int64 `mcprpc:"mapping,required"`
	Tags    []int64          `mcprpc:"tags,required"`
}

// RegisterTools registers the benchmark fixture tools on the server.
func RegisterTools(server *mcprpc.Server) {
	mcprpc.Tool(server, "noop", "Does nothing.", noop)
	mcprpc.Tool(server, "add", "Adds two numbers.", add)
	mcprpc.Tool(server, "greet", "Greets by name.", greet)
	mcprpc.Tool(server, "roundtrip_types", "Round-trips a mix of collection types.", roundtripTypes)
}

// Handler implementations

func noop(_ context.Context, _ *mcprpc.CallContext, _ NoopParams) (*mcprpc.ToolResult, error) {
	return mcprpc.TextResult("ok"), nil
}

func add(_ context.Context, _ *mcprpc.CallContext, p AddParams) (*mcprpc.ToolResult, error) {
	return mcprpc.JSONResult(map[string]float64{"sum": p.A + p.B})
}

func greet(_ context.Context, _ *mcprpc.CallContext, p GreetParams) (*mcprpc.ToolResult, error) {
	return mcprpc.TextResult("Hello, " + p.Name + "!"), nil
}

func roundtripTypes(_ context.Context, _ *mcprpc.CallContext, p RoundtripTypesParams) (*mcprpc.ToolResult, error) {
	keys := make([]string, 0, len(p.Mapping))
	for k := range p.Mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mappingParts []string
	for _, k := range keys {
		mappingParts = append(mappingParts, fmt.Sprintf("'%s': %d", k, p.Mapping[k]))
	}
	mappingStr := "{" + strings.Join(mappingParts, ", ") + "}"

	sortedTags := make([]int64, len(p.Tags))
	copy(sortedTags, p.Tags)
	sort.Slice(sortedTags, func(i, j int) bool { return sortedTags[i] < sortedTags[j] })

	var tagParts []string
	for _, t := range sortedTags {
		tagParts = append(tagParts, fmt.Sprintf("%d", t))
	}
	tagsStr := "[" + strings.Join(tagParts, ", ") + "]"

	return mcprpc.TextResult(fmt.Sprintf("%s:%s:%s", p.Color, mappingStr, tagsStr)), nil
}
