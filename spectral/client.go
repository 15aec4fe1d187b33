// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package spectral

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// DefaultBaseURL is the production VAMDC species database.
const DefaultBaseURL = "https://species.vamdc.eu/web-service/api/v12.07"

// ErrUnknownNode is returned when a TAP endpoint does not match any
// node listed by the species database.
var ErrUnknownNode = errors.New("spectral: unknown node")

// Client is the data-access surface the tools are built on. Every call
// may block on the network and is expected to run on the offload pool.
type Client interface {
	// Nodes lists all database nodes known to the species database.
	Nodes(ctx context.Context) ([]Node, error)
	// Species lists all chemical species across all nodes.
	Species(ctx context.Context) ([]Species, error)
	// SpeciesByNode lists the species served by one node, identified
	// by its TAP endpoint URL. Returns ErrUnknownNode when no node has
	// that endpoint.
	SpeciesByNode(ctx context.Context, tapEndpoint string) ([]Species, error)
	// Lines queries the matching nodes for radiative transitions in
	// the given wavelength window.
	Lines(ctx context.Context, q LineQuery) ([]Line, error)
}

// HTTPClient talks to the species database for metadata and to the
// individual node TAP endpoints for line queries.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithBaseURL overrides the species database base URL.
func WithBaseURL(u string) Option {
	return func(c *HTTPClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) { c.http = h }
}

// NewHTTPClient creates a client against the production species
// database unless overridden.
func NewHTTPClient(opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				// Negotiated manually so zstd can be offered too.
				DisableCompression: true,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Nodes implements Client.
func (c *HTTPClient) Nodes(ctx context.Context) ([]Node, error) {
	var nodes []Node
	if err := c.getJSON(ctx, c.baseURL+"/nodes", &nodes); err != nil {
		return nil, fmt.Errorf("fetch nodes: %w", err)
	}
	return nodes, nil
}

// Species implements Client.
func (c *HTTPClient) Species(ctx context.Context) ([]Species, error) {
	var species []Species
	if err := c.getJSON(ctx, c.baseURL+"/species", &species); err != nil {
		return nil, fmt.Errorf("fetch species: %w", err)
	}
	return species, nil
}

// SpeciesByNode implements Client.
func (c *HTTPClient) SpeciesByNode(ctx context.Context, tapEndpoint string) ([]Species, error) {
	nodes, err := c.Nodes(ctx)
	if err != nil {
		return nil, err
	}
	known := false
	for _, n := range nodes {
		if sameEndpoint(n.TapEndpoint, tapEndpoint) {
			known = true
			break
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, tapEndpoint)
	}

	all, err := c.Species(ctx)
	if err != nil {
		return nil, err
	}
	var out []Species
	for _, s := range all {
		if sameEndpoint(s.TapEndpoint, tapEndpoint) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Lines implements Client. Every node in scope is queried with a VSS2
// sync request; nodes that fail are skipped with a warning so one slow
// or broken node does not sink the whole query. Each returned line is
// stamped with a query token identifying this invocation.
func (c *HTTPClient) Lines(ctx context.Context, q LineQuery) ([]Line, error) {
	nodes, err := c.Nodes(ctx)
	if err != nil {
		return nil, err
	}
	nodes = filterNodes(nodes, q.Nodes)

	token := uuid.NewString()
	var lines []Line
	for _, node := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		nodeLines, err := c.queryNode(ctx, node, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("node query failed", "node", node.ShortName, "err", err)
			continue
		}
		for i := range nodeLines {
			nodeLines[i].QueryToken = token
			nodeLines[i].SourceDatabase = node.ShortName
		}
		lines = append(lines, nodeLines...)
	}
	return lines, nil
}

// queryNode issues one TAP sync request and parses the XSAMS payload.
func (c *HTTPClient) queryNode(ctx context.Context, node Node, q LineQuery) ([]Line, error) {
	endpoint := strings.TrimRight(node.TapEndpoint, "/") + "/sync"
	vss2 := buildVSS2Query(q)

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("tap endpoint: %w", err)
	}
	values := url.Values{
		"LANG":    {"VSS2"},
		"REQUEST": {"doQuery"},
		"FORMAT":  {"XSAMS"},
		"QUERY":   {vss2},
	}
	u.RawQuery = values.Encode()

	body, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return readXSAMSLines(body)
}

// buildVSS2Query renders the wavelength window and species filter as a
// VSS2 select statement. Wavelengths are in Angstrom per the standard.
func buildVSS2Query(q LineQuery) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * WHERE RadTransWavelength >= %g AND RadTransWavelength <= %g",
		q.LambdaMin, q.LambdaMax)
	if len(q.Species) > 0 {
		quoted := make([]string, len(q.Species))
		for i, s := range q.Species {
			quoted[i] = "'" + strings.ReplaceAll(s, "'", "") + "'"
		}
		fmt.Fprintf(&b, " AND InchiKey IN (%s)", strings.Join(quoted, ","))
	}
	return b.String()
}

// filterNodes keeps nodes whose TAP endpoint contains one of the given
// fragments, matching the substring semantics of the species database
// tooling. Empty filter keeps everything.
func filterNodes(nodes []Node, fragments []string) []Node {
	if len(fragments) == 0 {
		return nodes
	}
	var out []Node
	for _, n := range nodes {
		for _, f := range fragments {
			if f != "" && strings.Contains(n.TapEndpoint, f) {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

func sameEndpoint(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}

// --- HTTP plumbing ---

func (c *HTTPClient) getJSON(ctx context.Context, url string, v any) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// get performs a GET offering gzip and zstd encodings and returns the
// decompressed body.
func (c *HTTPClient) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Encoding", "gzip, zstd")
	req.Header.Set("User-Agent", "vamdc-mcp")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return decompressBody(resp)
}

// decompressBody wraps the response body according to Content-Encoding.
func decompressBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "", "identity":
		return resp.Body, nil
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return &wrappedBody{Reader: gz, closers: []io.Closer{gz, resp.Body}}, nil
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		zrc := zr.IOReadCloser()
		return &wrappedBody{Reader: zrc, closers: []io.Closer{zrc, resp.Body}}, nil
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("unsupported content encoding: %s", resp.Header.Get("Content-Encoding"))
	}
}

// wrappedBody closes both the decompressor and the network body.
type wrappedBody struct {
	io.Reader
	closers []io.Closer
}

func (w *wrappedBody) Close() error {
	var first error
	for _, c := range w.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
