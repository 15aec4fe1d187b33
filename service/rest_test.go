// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VAMDC/vamdc-mcp/mcprpc"
	"github.com/VAMDC/vamdc-mcp/spectral"
)

func newRESTTestServer(t *testing.T, client spectral.Client) *mcprpc.HTTPServer {
	t.Helper()
	s := mcprpc.NewServer(ServerName, Version)
	pool := mcprpc.NewPool(2, 8)
	t.Cleanup(pool.Close)
	s.SetPool(pool)
	Register(s, client)

	h := mcprpc.NewHTTPServer(s)
	MountREST(h, s, client)
	return h
}

func getREST(t *testing.T, h *mcprpc.HTTPServer, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRESTNodes(t *testing.T) {
	client := &fakeClient{nodes: []spectral.Node{
		{ShortName: "CDMS", TapEndpoint: "http://cdms.example/tap"},
	}}
	rec := getREST(t, newRESTTestServer(t, client), "/mcp/nodes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var nodes []spectral.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nodes))
	require.Len(t, nodes, 1)
	assert.Equal(t, "CDMS", nodes[0].ShortName)
}

func TestRESTSpecies(t *testing.T) {
	client := &fakeClient{species: []spectral.Species{
		{ShortName: "CO", InChIKey: "UGFAIRIUMAVXCW-UHFFFAOYSA-N"},
	}}
	rec := getREST(t, newRESTTestServer(t, client), "/mcp/species")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "UGFAIRIUMAVXCW-UHFFFAOYSA-N")
}

func TestRESTLinesValidation(t *testing.T) {
	h := newRESTTestServer(t, &fakeClient{})
	cases := []struct {
		name string
		path string
	}{
		{"missing bounds", "/mcp/lines"},
		{"non-numeric", "/mcp/lines?lambda_min=abc&lambda_max=2"},
		{"inverted range", "/mcp/lines?lambda_min=2&lambda_max=1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := getREST(t, h, tc.path)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], "lambda_m")
		})
	}
}

func TestRESTLines(t *testing.T) {
	client := &fakeClient{lines: []spectral.Line{
		{InChIKey: "UGFAIRIUMAVXCW-UHFFFAOYSA-N", Wavelength: 5007.1},
	}}
	h := newRESTTestServer(t, client)
	rec := getREST(t, h, "/mcp/lines?lambda_min=5000&lambda_max=5100&listNodes=cdms&listSpecies=UGFAIRIUMAVXCW-UHFFFAOYSA-N")
	require.Equal(t, http.StatusOK, rec.Code)

	var lines []spectral.Line
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lines))
	require.Len(t, lines, 1)

	assert.Equal(t, 5000.0, client.lastQuery.LambdaMin)
	assert.Equal(t, []string{"cdms"}, client.lastQuery.Nodes)
	assert.Equal(t, []string{"UGFAIRIUMAVXCW-UHFFFAOYSA-N"}, client.lastQuery.Species)
}

func TestRESTLinesEmptyResultIsEmptyArray(t *testing.T) {
	rec := getREST(t, newRESTTestServer(t, &fakeClient{}), "/mcp/lines?lambda_min=1&lambda_max=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRESTServerInfo(t *testing.T) {
	rec := getREST(t, newRESTTestServer(t, &fakeClient{}), "/mcp/server_info")
	require.Equal(t, http.StatusOK, rec.Code)

	var info spectral.ServerInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, ServerName, info.ServerName)
	assert.Equal(t, toolNames, info.AvailableTools)
}

func TestRESTOpenAPI(t *testing.T) {
	rec := getREST(t, newRESTTestServer(t, &fakeClient{}), "/mcp/openapi.json")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		OpenAPI string         `json:"openapi"`
		Info    map[string]any `json:"info"`
		Paths   map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.0", doc.OpenAPI)
	assert.Equal(t, ServerName, doc.Info["title"])
	for _, path := range []string{"/mcp/lines", "/mcp/species", "/mcp/nodes", "/mcp/server_info", "/mcp/openapi.json"} {
		assert.Contains(t, doc.Paths, path)
	}
}

func TestWritePoolErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{mcprpc.Errorf(mcprpc.CodeBusy, "queue full"), http.StatusServiceUnavailable},
		{mcprpc.Errorf(mcprpc.CodeTimeout, "too slow"), http.StatusGatewayTimeout},
		{mcprpc.Errorf(mcprpc.CodeInvalidParams, "bad input"), http.StatusBadRequest},
		{mcprpc.Errorf(mcprpc.CodeInternal, "boom"), http.StatusBadGateway},
		{errors.New("plain failure"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writePoolError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code, "err=%v", tc.err)
	}
}
