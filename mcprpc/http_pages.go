// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package mcprpc

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"
)

// --- HTML templates ---

const notFoundHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>404 &mdash; %s</title>
<style>
  body { font-family: system-ui, -apple-system, sans-serif; max-width: 600px;
         margin: 60px auto; padding: 0 20px; color: #333; text-align: center; }
  h1 { color: #555; }
  code { background: #f4f4f4; padding: 2px 6px; border-radius: 3px; font-size: 0.95em; }
  a { color: #0066cc; }
  p { line-height: 1.6; }
</style>
</head>
<body>
<h1>404 &mdash; Not Found</h1>
<p>This is the <strong>%s</strong> MCP endpoint.</p>
<p>Clients POST JSON-RPC envelopes to <code>%s</code>.</p>
<p>Learn more at <a href="https://vamdc.org">vamdc.org</a>.</p>
</body>
</html>`

const landingHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
  body { font-family: system-ui, -apple-system, sans-serif; max-width: 700px;
         margin: 0 auto; padding: 60px 20px 0; color: #23303a; background: #f7fafc; }
  .header { text-align: center; margin-bottom: 36px; }
  h1 { color: #18456b; margin-bottom: 4px; }
  .meta { color: #62707c; font-size: 0.9em; }
  code { font-family: ui-monospace, monospace; background: #e8eef4;
          padding: 2px 6px; border-radius: 3px; font-size: 0.9em; }
  a { color: #18456b; }
  p { line-height: 1.7; color: #46525c; }
  .card { border: 1px solid #dde6ee; border-radius: 8px; padding: 16px 20px;
           margin-bottom: 14px; background: #fff; }
  .tool-name { font-family: ui-monospace, monospace; font-weight: 600;
                color: #18456b; font-size: 1.05em; }
  table { width: 100%%; border-collapse: collapse; font-size: 0.9em; margin-top: 10px; }
  th { text-align: left; padding: 6px 10px; background: #e8eef4; font-weight: 600; }
  td { padding: 6px 10px; border-bottom: 1px solid #eef3f8; }
  footer { text-align: center; margin-top: 48px; padding: 20px 0;
            border-top: 1px solid #dde6ee; color: #62707c; font-size: 0.85em; }
</style>
</head>
<body>
<div class="header">
<h1>%s</h1>
<p class="meta">version <code>%s</code> &middot; MCP endpoint at <code>%s</code></p>
</div>
<p>This server exposes the Virtual Atomic and Molecular Data Centre
infrastructure as tools over the Model Context Protocol. Point an MCP
client at the endpoint above.</p>
%s
<footer>&copy; 2026 <a href="https://vamdc.org">VAMDC Consortium</a></footer>
</body>
</html>`

// --- Page builders ---

func (h *HTTPServer) buildNotFoundHTML() []byte {
	name := h.server.ServerName()
	return []byte(fmt.Sprintf(notFoundHTMLTemplate,
		html.EscapeString(name),
		html.EscapeString(name),
		html.EscapeString(h.prefix),
	))
}

func (h *HTTPServer) buildLandingHTML() []byte {
	name := h.server.ServerName()

	var cards strings.Builder
	for _, d := range h.server.Descriptors() {
		buildToolCard(&cards, d)
	}

	return []byte(fmt.Sprintf(landingHTMLTemplate,
		html.EscapeString(name), // <title>
		html.EscapeString(name), // <h1>
		html.EscapeString(h.server.version),
		html.EscapeString(h.prefix),
		cards.String(),
	))
}

func buildToolCard(w *strings.Builder, d ToolDescriptor) {
	w.WriteString(`<div class="card">`)
	fmt.Fprintf(w, `<span class="tool-name">%s</span>`, html.EscapeString(d.Name))
	if d.Description != "" {
		fmt.Fprintf(w, `<p>%s</p>`, html.EscapeString(d.Description))
	}

	props, _ := d.InputSchema["properties"].(map[string]any)
	if len(props) > 0 {
		required := map[string]bool{}
		if rs, ok := d.InputSchema["required"].([]string); ok {
			for _, r := range rs {
				required[r] = true
			}
		}
		w.WriteString(`<table><tr><th>Parameter</th><th>Type</th><th>Required</th></tr>`)
		for _, name := range sortedKeys(props) {
			prop, _ := props[name].(map[string]any)
			typ, _ := prop["type"].(string)
			req := "&mdash;"
			if required[name] {
				req = "yes"
			}
			fmt.Fprintf(w, `<tr><td><code>%s</code></td><td><code>%s</code></td><td>%s</td></tr>`,
				html.EscapeString(name), html.EscapeString(typ), req)
		}
		w.WriteString(`</table>`)
	}
	w.WriteString("</div>\n")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- HTTP handlers ---

func (h *HTTPServer) handleLandingPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.buildLandingHTML())
}

func (h *HTTPServer) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), jsonContentType) {
		w.Header().Set("Content-Type", jsonContentType)
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(h.buildNotFoundHTML())
}
