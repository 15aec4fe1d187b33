// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	require.NoError(t, err)
	assert.Equal(t, "stdio", cfg.Transport)
	assert.Equal(t, "localhost:8888", cfg.HTTPAddr)
	assert.Empty(t, cfg.SpeciesDB)
	assert.Equal(t, 4, cfg.PoolWorkers)
	assert.Equal(t, 32, cfg.PoolQueue)
	assert.Equal(t, 3, cfg.Compression)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Telemetry)
}

func TestParseConfigEnvironment(t *testing.T) {
	t.Setenv("VAMDC_MCP_TRANSPORT", "http")
	t.Setenv("VAMDC_MCP_HTTP_ADDR", "0.0.0.0:9000")
	t.Setenv("VAMDC_MCP_POOL_WORKERS", "8")
	t.Setenv("VAMDC_MCP_TELEMETRY", "true")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Transport)
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTPAddr)
	assert.Equal(t, 8, cfg.PoolWorkers)
	assert.True(t, cfg.Telemetry)
}

func TestParseConfigFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("VAMDC_MCP_TRANSPORT", "http")
	t.Setenv("VAMDC_MCP_COMPRESSION", "5")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-transport", "stdio", "-species-db", "http://db.example/api"})
	require.NoError(t, err)
	assert.Equal(t, "stdio", cfg.Transport)
	assert.Equal(t, "http://db.example/api", cfg.SpeciesDB)
	assert.Equal(t, 5, cfg.Compression, "env stays when no flag overrides it")
}

func TestParseConfigRejectsBadFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := ParseConfig(fs, []string{"-pool-workers", "many"})
	assert.Error(t, err)
}
