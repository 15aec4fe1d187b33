// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

// Package service wires the VAMDC capabilities onto an mcprpc server:
// the five MCP tools, the plain REST surface, and the OpenAPI document.
package service

import (
	"context"
	"time"

	"github.com/VAMDC/vamdc-mcp/mcprpc"
	"github.com/VAMDC/vamdc-mcp/spectral"
)

const (
	// ServerName and Version identify this server to MCP clients.
	ServerName  = "VAMDC MCP Server"
	Version     = "1.0.0"
	description = "Server for accessing VAMDC spectroscopic databases"

	// Metadata tools answer from the species database; line queries fan
	// out to every node in scope and can run for minutes.
	metadataTimeout = 30 * time.Second
	queryTimeout    = 120 * time.Second
)

var toolNames = []string{
	"get_server_info", "get_nodes", "get_species", "get_species_by_node", "get_lines",
}

type speciesParams struct {
	// Accepted for compatibility with existing clients; the species
	// listing is not filtered by it.
	State string `mcprpc:"state" desc:"Unused. Present for backwards compatibility."`
}

type speciesByNodeParams struct {
	NodeURL string `mcprpc:"node_url,required" desc:"TAP endpoint URL of the database node to query, e.g. http://vald.astro.uu.se/atoms-12.07/tap/"`
}

type linesParams struct {
	LambdaMin   float64  `mcprpc:"lambda_min,required" desc:"Lower wavelength bound in Angstrom"`
	LambdaMax   float64  `mcprpc:"lambda_max,required" desc:"Upper wavelength bound in Angstrom"`
	ListNodes   []string `mcprpc:"listNodes" desc:"TAP endpoints (URLs) restricting the search to specific database nodes; see get_nodes"`
	ListSpecies []string `mcprpc:"listSpecies" desc:"InChIKeys restricting the search to specific species; see get_species"`
}

// Register installs the five VAMDC tools on the server. The client is
// the only collaborator; every tool that touches it runs on the offload
// pool under its timeout class.
func Register(s *mcprpc.Server, client spectral.Client) {
	mcprpc.Tool(s, "get_server_info",
		"Get information about the VAMDC MCP server and available capabilities.",
		func(ctx context.Context, cc *mcprpc.CallContext, _ struct{}) (*mcprpc.ToolResult, error) {
			return mcprpc.JSONResult(serverInfo())
		},
		mcprpc.WithTimeout(metadataTimeout))

	mcprpc.Tool(s, "get_nodes",
		"Gets all the Nodes available on the Species Database. Returns a markdown table with all node information.",
		func(ctx context.Context, cc *mcprpc.CallContext, _ struct{}) (*mcprpc.ToolResult, error) {
			nodes, err := client.Nodes(ctx)
			if err != nil {
				return nil, err
			}
			return mcprpc.TextResult(nodesTable(nodes)), nil
		},
		mcprpc.WithTimeout(metadataTimeout))

	mcprpc.Tool(s, "get_species",
		"Gets all the chemical information available on the Species Database. Returns a markdown table with species information.",
		func(ctx context.Context, cc *mcprpc.CallContext, _ speciesParams) (*mcprpc.ToolResult, error) {
			species, err := client.Species(ctx)
			if err != nil {
				return nil, err
			}
			return mcprpc.TextResult(speciesTable(species)), nil
		},
		mcprpc.WithTimeout(metadataTimeout))

	mcprpc.Tool(s, "get_species_by_node",
		"Gets chemical species data from a specific VAMDC database node. Returns a markdown table with species information.",
		func(ctx context.Context, cc *mcprpc.CallContext, p speciesByNodeParams) (*mcprpc.ToolResult, error) {
			species, err := client.SpeciesByNode(ctx, p.NodeURL)
			if err != nil {
				return nil, err
			}
			return mcprpc.TextResult(speciesTable(species)), nil
		},
		mcprpc.WithTimeout(metadataTimeout))

	mcprpc.Tool(s, "get_lines",
		"Gets spectral lines data within a specified wavelength range, in Angstrom.",
		func(ctx context.Context, cc *mcprpc.CallContext, p linesParams) (*mcprpc.ToolResult, error) {
			if p.LambdaMin > p.LambdaMax {
				return nil, mcprpc.Errorf(mcprpc.CodeInvalidParams,
					"lambda_min (%g) must not exceed lambda_max (%g)", p.LambdaMin, p.LambdaMax)
			}
			lines, err := client.Lines(ctx, spectral.LineQuery{
				LambdaMin: p.LambdaMin,
				LambdaMax: p.LambdaMax,
				Nodes:     p.ListNodes,
				Species:   p.ListSpecies,
			})
			if err != nil {
				return nil, err
			}
			if lines == nil {
				lines = []spectral.Line{}
			}
			return mcprpc.JSONResult(lines)
		},
		mcprpc.WithTimeout(queryTimeout))
}

func serverInfo() spectral.ServerInfo {
	return spectral.ServerInfo{
		ServerName:     ServerName,
		Version:        Version,
		AvailableTools: toolNames,
		Description:    description,
		Endpoints: map[string]string{
			"server_info":     "Get server information and capabilities",
			"species":         "Get all available chemical species",
			"nodes":           "Get all available database nodes",
			"species_by_node": "Get chemical species from a specific database node",
			"lines":           "Get spectral lines within wavelength range",
		},
	}
}
