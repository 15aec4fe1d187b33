// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

// Package conformance provides internal test fixtures for the MCP
// protocol conformance test suite. It registers a set of tools that
// exercise every feature of the protocol layer: scalar types,
// collections, optional and defaulted parameters, error propagation,
// client-directed logging, slow execution, and panic recovery.
//
// The only entry point intended for external use is [RegisterTools],
// which registers all conformance tools on an [mcprpc.Server]. The
// accompanying command serves them over stdio, HTTP, or a unix socket
// so client implementations in any language can be tested against it.
package conformance
