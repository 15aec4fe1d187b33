// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package spectral

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSpeciesDB serves the species database endpoints for the given
// nodes and species.
func newSpeciesDB(t *testing.T, nodes []Node, species []Species) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/nodes", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(nodes)
	})
	mux.HandleFunc("/species", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(species)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newTAPNode serves a /sync endpoint returning the canned XSAMS body.
func newTAPNode(t *testing.T, body string, sawQuery *string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		if sawQuery != nil {
			*sawQuery = r.URL.Query().Get("QUERY")
		}
		w.Header().Set("Content-Type", "application/x.vamdc-xsams+xml")
		_, _ = w.Write([]byte(body))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNodesAndSpecies(t *testing.T) {
	nodes := []Node{{ShortName: "CDMS", TapEndpoint: "http://cdms.example/tap", IvoIdentifier: "ivo://vamdc/cdms"}}
	species := []Species{{ShortName: "CO", InChIKey: "UGFAIRIUMAVXCW-UHFFFAOYSA-N", TapEndpoint: "http://cdms.example/tap"}}
	db := newSpeciesDB(t, nodes, species)

	c := NewHTTPClient(WithBaseURL(db.URL))
	got, err := c.Nodes(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CDMS", got[0].ShortName)

	sp, err := c.Species(context.Background())
	require.NoError(t, err)
	require.Len(t, sp, 1)
	assert.Equal(t, "UGFAIRIUMAVXCW-UHFFFAOYSA-N", sp[0].InChIKey)
}

func TestNodesHandlesGzipResponses(t *testing.T) {
	nodes := []Node{{ShortName: "VALD", TapEndpoint: "http://vald.example/tap"}}
	mux := http.NewServeMux()
	mux.HandleFunc("/nodes", func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.Header.Get("Accept-Encoding"), "gzip")
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_ = json.NewEncoder(gz).Encode(nodes)
		_ = gz.Close()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewHTTPClient(WithBaseURL(srv.URL))
	got, err := c.Nodes(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "VALD", got[0].ShortName)
}

func TestNodesNonOKStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/nodes", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewHTTPClient(WithBaseURL(srv.URL))
	_, err := c.Nodes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestSpeciesByNode(t *testing.T) {
	nodes := []Node{
		{ShortName: "CDMS", TapEndpoint: "http://cdms.example/tap/"},
		{ShortName: "VALD", TapEndpoint: "http://vald.example/tap"},
	}
	species := []Species{
		{ShortName: "CO", TapEndpoint: "http://cdms.example/tap"},
		{ShortName: "Fe", TapEndpoint: "http://vald.example/tap"},
	}
	db := newSpeciesDB(t, nodes, species)
	c := NewHTTPClient(WithBaseURL(db.URL))

	// Trailing slashes on either side do not matter.
	got, err := c.SpeciesByNode(context.Background(), "http://cdms.example/tap")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CO", got[0].ShortName)

	_, err = c.SpeciesByNode(context.Background(), "http://unknown.example/tap")
	require.ErrorIs(t, err, ErrUnknownNode)
}

func TestLinesQueriesMatchingNodes(t *testing.T) {
	var sawQuery string
	tap := newTAPNode(t, sampleXSAMS, &sawQuery)

	nodes := []Node{
		{ShortName: "CDMS", TapEndpoint: tap.URL},
		{ShortName: "Other", TapEndpoint: "http://other.example/tap"},
	}
	db := newSpeciesDB(t, nodes, nil)
	c := NewHTTPClient(WithBaseURL(db.URL))

	lines, err := c.Lines(context.Background(), LineQuery{
		LambdaMin: 3000,
		LambdaMax: 4000,
		Nodes:     []string{tap.URL},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "SELECT * WHERE RadTransWavelength >= 3000 AND RadTransWavelength <= 4000", sawQuery)
	assert.NotEmpty(t, lines[0].QueryToken)
	assert.Equal(t, lines[0].QueryToken, lines[1].QueryToken, "one token per invocation")
	assert.Equal(t, "CDMS", lines[0].SourceDatabase)
}

func TestLinesSkipsFailingNodes(t *testing.T) {
	tap := newTAPNode(t, sampleXSAMS, nil)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(broken.Close)

	nodes := []Node{
		{ShortName: "Broken", TapEndpoint: broken.URL},
		{ShortName: "CDMS", TapEndpoint: tap.URL},
	}
	db := newSpeciesDB(t, nodes, nil)
	c := NewHTTPClient(WithBaseURL(db.URL))

	lines, err := c.Lines(context.Background(), LineQuery{LambdaMin: 1, LambdaMax: 1e9})
	require.NoError(t, err, "one broken node must not sink the query")
	assert.Len(t, lines, 2)
}

func TestLinesHonorsCancellation(t *testing.T) {
	tap := newTAPNode(t, sampleXSAMS, nil)
	nodes := []Node{{ShortName: "CDMS", TapEndpoint: tap.URL}}
	db := newSpeciesDB(t, nodes, nil)
	c := NewHTTPClient(WithBaseURL(db.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Lines(ctx, LineQuery{LambdaMin: 1, LambdaMax: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildVSS2Query(t *testing.T) {
	q := LineQuery{LambdaMin: 5000, LambdaMax: 5100.5}
	assert.Equal(t,
		"SELECT * WHERE RadTransWavelength >= 5000 AND RadTransWavelength <= 5100.5",
		buildVSS2Query(q))

	q.Species = []string{"UGFAIRIUMAVXCW-UHFFFAOYSA-N", "XEEYBQQBJWHFJM-UHFFFAOYSA-N"}
	assert.Equal(t,
		"SELECT * WHERE RadTransWavelength >= 5000 AND RadTransWavelength <= 5100.5"+
			" AND InchiKey IN ('UGFAIRIUMAVXCW-UHFFFAOYSA-N','XEEYBQQBJWHFJM-UHFFFAOYSA-N')",
		buildVSS2Query(q))

	// Single quotes cannot smuggle extra VSS2 syntax in.
	q.Species = []string{"evil'key"}
	assert.Equal(t,
		"SELECT * WHERE RadTransWavelength >= 5000 AND RadTransWavelength <= 5100.5"+
			" AND InchiKey IN ('evilkey')",
		buildVSS2Query(q))
}

func TestFilterNodes(t *testing.T) {
	nodes := []Node{
		{ShortName: "CDMS", TapEndpoint: "http://cdms.example/tap"},
		{ShortName: "VALD", TapEndpoint: "http://vald.example/tap"},
	}
	assert.Len(t, filterNodes(nodes, nil), 2)
	assert.Len(t, filterNodes(nodes, []string{"cdms"}), 1)
	assert.Empty(t, filterNodes(nodes, []string{"hitran"}))
	assert.Len(t, filterNodes(nodes, []string{"cdms", "vald"}), 2)
}
