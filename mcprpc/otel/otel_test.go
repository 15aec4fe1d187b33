// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package mcpotel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/VAMDC/vamdc-mcp/mcprpc"
)

type echoParams struct {
	Value string `mcprpc:"value,required"`
}

// newInstrumentedServer wires a server with in-memory trace and metric
// collection and returns the HTTP binding alongside the recorders.
func newInstrumentedServer(t *testing.T) (*mcprpc.HTTPServer, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	s := mcprpc.NewServer("vamdc-mcp-test", "0.0.1")
	pool := mcprpc.NewPool(2, 8)
	t.Cleanup(pool.Close)
	s.SetPool(pool)

	mcprpc.Tool(s, "echo", "Echoes its input.",
		func(_ context.Context, _ *mcprpc.CallContext, p echoParams) (*mcprpc.ToolResult, error) {
			return mcprpc.TextResult(p.Value), nil
		})
	mcprpc.Tool(s, "unreachable", "Always fails upstream.",
		func(context.Context, *mcprpc.CallContext, struct{}) (*mcprpc.ToolResult, error) {
			return nil, mcprpc.Errorf(mcprpc.CodeUpstream, "node is down")
		})

	cfg := DefaultConfig()
	cfg.TracerProvider = tp
	cfg.MeterProvider = mp
	cfg.Propagator = propagation.TraceContext{}
	InstrumentServer(s, cfg)

	return mcprpc.NewHTTPServer(s), sr, reader
}

func callOverHTTP(t *testing.T, h *mcprpc.HTTPServer, tool string, args map[string]any, header http.Header) {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": tool, "arguments": args},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func attrValue(attrs []attribute.KeyValue, key string) string {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.AsString()
		}
	}
	return ""
}

func TestInstrumentedCallRecordsSpan(t *testing.T) {
	h, sr, _ := newInstrumentedServer(t)

	callOverHTTP(t, h, "echo", map[string]any{"value": "CO"}, nil)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "mcp/echo", span.Name())
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())
	assert.Equal(t, codes.Ok, span.Status().Code)

	attrs := span.Attributes()
	assert.Equal(t, "mcp", attrValue(attrs, "rpc.system"))
	assert.Equal(t, "vamdc-mcp-test", attrValue(attrs, "rpc.service"))
	assert.Equal(t, "echo", attrValue(attrs, "mcp.tool"))
	assert.Equal(t, "http", attrValue(attrs, "mcp.transport"))
}

func TestInstrumentedFailureMarksSpanError(t *testing.T) {
	h, sr, _ := newInstrumentedServer(t)

	callOverHTTP(t, h, "unreachable", nil, nil)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "mcp/unreachable", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Status().Description, "node is down")
	assert.Equal(t, fmt.Sprintf("jsonrpc:%d", mcprpc.CodeUpstream),
		attrValue(span.Attributes(), "mcp.error_type"))

	// RecordExceptions turns the failure into an exception event.
	var sawException bool
	for _, ev := range span.Events() {
		if ev.Name == "exception" {
			sawException = true
		}
	}
	assert.True(t, sawException, "expected an exception event on the span")
}

func TestInstrumentedCallJoinsClientTrace(t *testing.T) {
	h, sr, _ := newInstrumentedServer(t)

	const traceID = "0af7651916cd43dd8448eb211c80319c"
	header := http.Header{}
	header.Set("traceparent", fmt.Sprintf("00-%s-b7ad6b7169203331-01", traceID))
	callOverHTTP(t, h, "echo", map[string]any{"value": "x"}, header)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, traceID, spans[0].SpanContext().TraceID().String())
	assert.True(t, spans[0].Parent().IsRemote())
}

func TestInstrumentedCallRecordsMetrics(t *testing.T) {
	h, _, reader := newInstrumentedServer(t)

	callOverHTTP(t, h, "echo", map[string]any{"value": "x"}, nil)
	callOverHTTP(t, h, "unreachable", nil, nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	byStatus := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "mcp.server.requests" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				status, _ := dp.Attributes.Value("status")
				byStatus[status.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), byStatus["ok"])
	assert.Equal(t, int64(1), byStatus["error"])
}
