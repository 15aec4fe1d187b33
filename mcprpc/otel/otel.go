// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

// Package mcpotel wires OpenTelemetry tracing and metrics into an
// mcprpc server through its dispatch hook. Each tools/call dispatch
// becomes a server span named "mcp/<tool>" plus a request counter and a
// duration histogram sample.
//
// Usage:
//
//	server := mcprpc.NewServer("vamdc-mcp", version)
//	// ... register tools ...
//	mcpotel.InstrumentServer(server, mcpotel.DefaultConfig())
package mcpotel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VAMDC/vamdc-mcp/mcprpc"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "mcprpc"

// OtelConfig configures the instrumentation. The zero value disables
// everything; start from DefaultConfig.
type OtelConfig struct {
	// TracerProvider supplies the tracer. Defaults to otel.GetTracerProvider().
	TracerProvider trace.TracerProvider
	// MeterProvider supplies the meter. Defaults to otel.GetMeterProvider().
	MeterProvider metric.MeterProvider
	// Propagator extracts parent trace context (traceparent/tracestate)
	// from transport metadata. Defaults to otel.GetTextMapPropagator().
	Propagator propagation.TextMapPropagator
	// EnableTracing enables span creation. Default true.
	EnableTracing bool
	// EnableMetrics enables counter and histogram recording. Default true.
	EnableMetrics bool
	// RecordExceptions calls RecordError on the span for failed dispatches.
	// Default true.
	RecordExceptions bool
	// ServiceName is the rpc.service attribute value.
	// Defaults to Server.ServerName().
	ServiceName string
	// CustomAttributes are added to every span.
	CustomAttributes []attribute.KeyValue
}

// DefaultConfig enables tracing, metrics, and exception recording, with
// providers resolved from the global OTel SDK at instrumentation time.
func DefaultConfig() OtelConfig {
	return OtelConfig{
		EnableTracing:    true,
		EnableMetrics:    true,
		RecordExceptions: true,
	}
}

// InstrumentServer installs the OpenTelemetry dispatch hook on server.
func InstrumentServer(server *mcprpc.Server, cfg OtelConfig) {
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}
	if cfg.Propagator == nil {
		cfg.Propagator = otel.GetTextMapPropagator()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = server.ServerName()
	}

	h := &dispatchHook{
		cfg:    cfg,
		tracer: cfg.TracerProvider.Tracer(instrumentationName),
	}
	if cfg.EnableMetrics {
		meter := cfg.MeterProvider.Meter(instrumentationName)
		h.requests, _ = meter.Int64Counter("mcp.server.requests",
			metric.WithUnit("{request}"),
			metric.WithDescription("Number of MCP requests"))
		h.duration, _ = meter.Float64Histogram("mcp.server.duration",
			metric.WithUnit("s"),
			metric.WithDescription("Duration of MCP requests"))
	}

	server.SetDispatchHook(h)
}

type dispatchHook struct {
	cfg      OtelConfig
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// callSpan is the HookToken threaded from OnDispatchStart to
// OnDispatchEnd. span is nil when tracing is disabled.
type callSpan struct {
	span  trace.Span
	start time.Time
}

// spanName derives the span name from the dispatch. Tool calls are the
// interesting case; protocol methods fall back to the method name.
func spanName(info mcprpc.DispatchInfo) string {
	if info.Tool != "" {
		return fmt.Sprintf("mcp/%s", info.Tool)
	}
	return fmt.Sprintf("mcp/%s", info.Method)
}

func (h *dispatchHook) attrs(info mcprpc.DispatchInfo) []attribute.KeyValue {
	out := []attribute.KeyValue{
		attribute.String("rpc.system", "mcp"),
		attribute.String("rpc.service", h.cfg.ServiceName),
		attribute.String("rpc.method", info.Method),
		attribute.String("mcp.tool", info.Tool),
		attribute.String("mcp.transport", info.Transport),
	}
	out = append(out, h.cfg.CustomAttributes...)

	// Peer attributes are only available on the HTTP transport.
	if v := info.Metadata["remoteAddr"]; v != "" {
		out = append(out, attribute.String("net.peer.ip", v))
	}
	if v := info.Metadata["userAgent"]; v != "" {
		out = append(out, attribute.String("user_agent.original", v))
	}
	return out
}

func (h *dispatchHook) OnDispatchStart(ctx context.Context, info mcprpc.DispatchInfo) (context.Context, mcprpc.HookToken) {
	if h.cfg.Propagator != nil && info.Metadata != nil {
		ctx = h.cfg.Propagator.Extract(ctx, propagation.MapCarrier(info.Metadata))
	}
	if !h.cfg.EnableTracing {
		return ctx, &callSpan{start: time.Now()}
	}

	ctx, span := h.tracer.Start(ctx, spanName(info),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(h.attrs(info)...))
	return ctx, &callSpan{span: span, start: time.Now()}
}

func (h *dispatchHook) OnDispatchEnd(ctx context.Context, token mcprpc.HookToken, info mcprpc.DispatchInfo, stats *mcprpc.CallStatistics, err error) {
	cs, ok := token.(*callSpan)
	if !ok {
		return
	}

	if h.cfg.EnableMetrics {
		h.record(ctx, info, time.Since(cs.start), err)
	}
	if cs.span == nil || !cs.span.IsRecording() {
		return
	}

	if stats != nil {
		cs.span.SetAttributes(
			attribute.Int64("mcp.input_bytes", stats.InputBytes),
			attribute.Int64("mcp.output_bytes", stats.OutputBytes))
	}
	if err != nil {
		cs.span.SetStatus(codes.Error, err.Error())
		if h.cfg.RecordExceptions {
			cs.span.RecordError(err)
		}
		cs.span.SetAttributes(attribute.String("mcp.error_type", errorType(err)))
	} else {
		cs.span.SetStatus(codes.Ok, "")
	}
	cs.span.End()
}

// record updates the request counter and duration histogram for one
// finished dispatch.
func (h *dispatchHook) record(ctx context.Context, info mcprpc.DispatchInfo, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	opt := metric.WithAttributes(
		attribute.String("rpc.system", "mcp"),
		attribute.String("rpc.service", h.cfg.ServiceName),
		attribute.String("mcp.tool", info.Tool),
		attribute.String("mcp.transport", info.Transport),
		attribute.String("status", status))
	if h.requests != nil {
		h.requests.Add(ctx, 1, opt)
	}
	if h.duration != nil {
		h.duration.Record(ctx, d.Seconds(), opt)
	}
}

// errorType classifies a dispatch failure. Protocol errors carry their
// JSON-RPC code; anything else is reported by Go type.
func errorType(err error) string {
	var rpcErr *mcprpc.Error
	if errors.As(err, &rpcErr) {
		return fmt.Sprintf("jsonrpc:%d", rpcErr.Code)
	}
	return fmt.Sprintf("%T", err)
}
