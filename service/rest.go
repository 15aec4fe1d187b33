// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/VAMDC/vamdc-mcp/mcprpc"
	"github.com/VAMDC/vamdc-mcp/spectral"
)

// MountREST mounts the plain GET surface next to the MCP endpoint:
// /mcp/lines, /mcp/species, /mcp/nodes, /mcp/server_info, and
// /mcp/openapi.json. The data endpoints run through the same offload
// pool as tool calls, so REST traffic competes for the same workers.
func MountREST(h *mcprpc.HTTPServer, s *mcprpc.Server, client spectral.Client) {
	rest := &restHandlers{server: s, client: client}
	h.HandleFunc("GET /mcp/lines", rest.lines)
	h.HandleFunc("GET /mcp/species", rest.species)
	h.HandleFunc("GET /mcp/nodes", rest.nodes)
	h.HandleFunc("GET /mcp/server_info", rest.serverInfo)
	h.HandleFunc("GET /mcp/openapi.json", rest.openapi)
}

type restHandlers struct {
	server *mcprpc.Server
	client spectral.Client
}

func (h *restHandlers) lines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lambdaMin, err := strconv.ParseFloat(q.Get("lambda_min"), 64)
	if err != nil {
		writeRESTError(w, http.StatusBadRequest, "lambda_min must be a number")
		return
	}
	lambdaMax, err := strconv.ParseFloat(q.Get("lambda_max"), 64)
	if err != nil {
		writeRESTError(w, http.StatusBadRequest, "lambda_max must be a number")
		return
	}
	if lambdaMin > lambdaMax {
		writeRESTError(w, http.StatusBadRequest, "lambda_min must not exceed lambda_max")
		return
	}

	query := spectral.LineQuery{
		LambdaMin: lambdaMin,
		LambdaMax: lambdaMax,
		Nodes:     q["listNodes"],
		Species:   q["listSpecies"],
	}
	result, err := h.server.Pool().Submit(r.Context(), queryTimeout, func(ctx context.Context) (any, error) {
		lines, err := h.client.Lines(ctx, query)
		if err != nil {
			return nil, err
		}
		if lines == nil {
			lines = []spectral.Line{}
		}
		return lines, nil
	})
	if err != nil {
		writePoolError(w, err)
		return
	}
	writeRESTJSON(w, result)
}

func (h *restHandlers) species(w http.ResponseWriter, r *http.Request) {
	result, err := h.server.Pool().Submit(r.Context(), metadataTimeout, func(ctx context.Context) (any, error) {
		return h.client.Species(ctx)
	})
	if err != nil {
		writePoolError(w, err)
		return
	}
	writeRESTJSON(w, result)
}

func (h *restHandlers) nodes(w http.ResponseWriter, r *http.Request) {
	result, err := h.server.Pool().Submit(r.Context(), metadataTimeout, func(ctx context.Context) (any, error) {
		return h.client.Nodes(ctx)
	})
	if err != nil {
		writePoolError(w, err)
		return
	}
	writeRESTJSON(w, result)
}

func (h *restHandlers) serverInfo(w http.ResponseWriter, _ *http.Request) {
	writeRESTJSON(w, serverInfo())
}

func (h *restHandlers) openapi(w http.ResponseWriter, _ *http.Request) {
	writeRESTJSON(w, openAPIDocument())
}

// writePoolError maps the offload error taxonomy onto HTTP statuses.
func writePoolError(w http.ResponseWriter, err error) {
	var rpcErr *mcprpc.Error
	status := http.StatusBadGateway
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case mcprpc.CodeBusy:
			status = http.StatusServiceUnavailable
		case mcprpc.CodeTimeout:
			status = http.StatusGatewayTimeout
		case mcprpc.CodeInvalidParams:
			status = http.StatusBadRequest
		}
	}
	writeRESTError(w, status, err.Error())
}

func writeRESTError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeRESTJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("rest response encode failed", "err", err)
	}
}
