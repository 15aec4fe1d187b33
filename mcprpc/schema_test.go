// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package mcprpc

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleParams struct {
	Min     float64  `mcprpc:"lambda_min,required" desc:"lower bound"`
	Max     float64  `mcprpc:"lambda_max,required"`
	Nodes   []string `mcprpc:"listNodes"`
	Format  string   `mcprpc:"format,default=table"`
	Verbose bool     `mcprpc:"verbose"`
	skipped int
}

func TestStructToSchema(t *testing.T) {
	schema, err := structToSchema(reflect.TypeOf(sampleParams{}))
	require.NoError(t, err)

	assert.Equal(t, "object", schema["type"])
	props := schema["properties"].(map[string]any)
	assert.Len(t, props, 5, "untagged fields are not advertised")

	min := props["lambda_min"].(map[string]any)
	assert.Equal(t, "number", min["type"])
	assert.Equal(t, "lower bound", min["description"])

	nodes := props["listNodes"].(map[string]any)
	assert.Equal(t, "array", nodes["type"])
	assert.Equal(t, map[string]any{"type": "string"}, nodes["items"])

	format := props["format"].(map[string]any)
	assert.Equal(t, "table", format["default"])

	assert.ElementsMatch(t, []string{"lambda_min", "lambda_max"}, schema["required"])
}

func TestStructToSchemaRejectsNonStruct(t *testing.T) {
	_, err := structToSchema(reflect.TypeOf(42))
	assert.Error(t, err)
}

func TestDecodeParams(t *testing.T) {
	raw := json.RawMessage(`{"lambda_min":4000,"lambda_max":5000,"listNodes":["a","b"]}`)
	v, rpcErr := decodeParams(raw, reflect.TypeOf(sampleParams{}))
	require.Nil(t, rpcErr)

	p := v.Interface().(sampleParams)
	assert.Equal(t, 4000.0, p.Min)
	assert.Equal(t, 5000.0, p.Max)
	assert.Equal(t, []string{"a", "b"}, p.Nodes)
	assert.Equal(t, "table", p.Format, "default applies when the field is absent")
}

func TestDecodeParamsMissingRequired(t *testing.T) {
	_, rpcErr := decodeParams(json.RawMessage(`{"lambda_min":4000}`), reflect.TypeOf(sampleParams{}))
	require.NotNil(t, rpcErr)
	assert.Equal(t, CodeInvalidParams, rpcErr.Code)
	assert.Contains(t, rpcErr.Message, "lambda_max")
}

func TestDecodeParamsWrongType(t *testing.T) {
	_, rpcErr := decodeParams(json.RawMessage(`{"lambda_min":"low","lambda_max":5000}`), reflect.TypeOf(sampleParams{}))
	require.NotNil(t, rpcErr)
	assert.Equal(t, CodeInvalidParams, rpcErr.Code)
}

func TestDecodeParamsIgnoresUnknownFields(t *testing.T) {
	raw := json.RawMessage(`{"lambda_min":1,"lambda_max":2,"extra":true}`)
	_, rpcErr := decodeParams(raw, reflect.TypeOf(sampleParams{}))
	assert.Nil(t, rpcErr)
}

func TestDecodeParamsNonObject(t *testing.T) {
	_, rpcErr := decodeParams(json.RawMessage(`[1,2]`), reflect.TypeOf(sampleParams{}))
	require.NotNil(t, rpcErr)
	assert.Equal(t, CodeInvalidParams, rpcErr.Code)
}
