// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package service

// openAPIDocument describes the REST surface. Kept as plain nested maps
// so the document marshals exactly as authored.
func openAPIDocument() map[string]any {
	numberParam := func(name, desc string) map[string]any {
		return map[string]any{
			"name": name, "in": "query", "required": true,
			"schema":      map[string]any{"type": "number"},
			"description": desc,
		}
	}
	stringListParam := func(name, desc string) map[string]any {
		return map[string]any{
			"name": name, "in": "query", "required": false,
			"schema": map[string]any{
				"type": "array", "items": map[string]any{"type": "string"},
			},
			"description": desc,
		}
	}
	jsonArrayOf := func(items map[string]any, desc string) map[string]any {
		return map[string]any{
			"description": desc,
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"type": "array", "items": items},
				},
			},
		}
	}

	lineSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"inchiKey":                      prop("string", "InChI Key chemical unique identifier for the species"),
			"inchi":                         prop("string", "InChI chemical unique identifier for the species"),
			"chemicalName":                  prop("string", "Human readable name of the chemical species"),
			"stoichiometricFormula":         prop("string", "Stoichiometric formula of the species"),
			"structuralFormula":             prop("string", "Structural formula of the species"),
			"wavelength":                    prop("number", "Wavelength of the spectral line in Angstrom"),
			"frequency":                     prop("number", "Frequency of the spectral line"),
			"einsteinA":                     prop("number", "Einstein A coefficient for the transition"),
			"lowerEnergy":                   prop("number", "Lower state energy in wavenumbers"),
			"lowerTotalStatisticalWeight":   prop("integer", "Total statistical weight of the lower state"),
			"lowerNuclearStatisticalWeight": prop("integer", "Nuclear statistical weight of the lower state"),
			"lowerQNs":                      prop("string", "Quantum numbers of the lower state"),
			"upperEnergy":                   prop("number", "Upper state energy in wavenumbers"),
			"upperTotalStatisticalWeight":   prop("integer", "Total statistical weight of the upper state"),
			"upperNuclearStatisticalWeight": prop("integer", "Nuclear statistical weight of the upper state"),
			"upperQNs":                      prop("string", "Quantum numbers of the upper state"),
			"queryToken":                    prop("string", "Token identifying the query that produced this line"),
			"sourceDatabase":                prop("string", "Name of the database that provided this line data"),
		},
	}

	speciesSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"shortName":             prop("string", "Human readable name for the database containing the species"),
			"ivoIdentifier":         prop("string", "Unique identifier for the database containing the species"),
			"inchi":                 prop("string", "InChI chemical unique identifier"),
			"inchiKey":              prop("string", "InChIKey derived from the InChI"),
			"stoichiometricFormula": prop("string", "Stoichiometric formula"),
			"massNumber":            prop("integer", "Mass number"),
			"charge":                prop("integer", "Electric charge"),
			"speciesType":           prop("string", "Type: molecule, atom, or particle"),
			"structuralFormula":     prop("string", "Structural formula"),
			"name":                  prop("string", "Human readable species name"),
			"did":                   prop("string", "Alternative unique identifier"),
			"tapEndpoint":           prop("string", "TAP endpoint URL of the database containing the species"),
			"uniqueAtoms":           prop("integer", "Number of unique atoms in the species"),
			"totalAtoms":            prop("integer", "Total number of atoms in the species"),
			"computedCharge":        prop("integer", "Computed charge"),
			"computedMassNumber":    prop("number", "Computed mass number"),
		},
	}

	nodeSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"shortName":     prop("string", "Short name identifier for the database node"),
			"description":   prop("string", "Descriptive text about the database node"),
			"contactEmail":  prop("string", "Email address for contacting the node maintainer"),
			"ivoIdentifier": prop("string", "Unique IVO identifier for the node"),
			"tapEndpoint":   prop("string", "TAP endpoint URL for the database node"),
			"referenceUrl":  prop("string", "Reference URL with additional information"),
			"lastUpdate":    prop("string", "Date when the node was last updated"),
			"lastSeen":      prop("string", "Date when the node was last seen"),
			"topics": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Scientific topics covered by the node",
			},
		},
	}

	return map[string]any{
		"openapi": "3.0.0",
		"info": map[string]any{
			"title":       ServerName,
			"version":     Version,
			"description": "HTTP surface of the VAMDC MCP server, exposing spectral lines, species, and nodes.",
		},
		"paths": map[string]any{
			"/mcp/lines": map[string]any{
				"get": map[string]any{
					"summary":     "Get spectral lines within a wavelength range",
					"description": "Gets spectral lines data within a specified wavelength range.",
					"parameters": []any{
						numberParam("lambda_min", "Lower wavelength bound in Angstrom (mandatory)"),
						numberParam("lambda_max", "Upper wavelength bound in Angstrom (mandatory)"),
						stringListParam("listNodes", "TAP endpoints (URLs) restricting the search to specific database nodes."),
						stringListParam("listSpecies", "InChIKeys restricting the search to specific species."),
					},
					"responses": map[string]any{
						"200": jsonArrayOf(lineSchema, "Spectral line records."),
					},
				},
			},
			"/mcp/species": map[string]any{
				"get": map[string]any{
					"summary":     "Get all chemical species",
					"description": "Gets all the chemical information available on the Species Database.",
					"responses": map[string]any{
						"200": jsonArrayOf(speciesSchema, "Chemical species records."),
					},
				},
			},
			"/mcp/nodes": map[string]any{
				"get": map[string]any{
					"summary":     "Get all database nodes",
					"description": "Gets all the Nodes available on the Species Database.",
					"responses": map[string]any{
						"200": jsonArrayOf(nodeSchema, "Database node records."),
					},
				},
			},
			"/mcp/server_info": map[string]any{
				"get": map[string]any{
					"summary":     "Get server info",
					"description": "Get information about the VAMDC MCP server and available capabilities.",
					"responses": map[string]any{
						"200": map[string]any{
							"description": "Server info",
							"content": map[string]any{
								"application/json": map[string]any{
									"schema": map[string]any{"type": "object"},
								},
							},
						},
					},
				},
			},
			"/mcp/openapi.json": map[string]any{
				"get": map[string]any{
					"summary":     "OpenAPI specification",
					"description": "Returns the OpenAPI JSON specification for this server.",
					"responses": map[string]any{
						"200": map[string]any{
							"description": "OpenAPI JSON",
							"content": map[string]any{
								"application/json": map[string]any{
									"schema": map[string]any{"type": "object"},
								},
							},
						},
					},
				},
			},
		},
	}
}

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}
