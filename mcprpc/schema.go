// © Copyright 2025-2026, VAMDC Consortium - https://vamdc.org
// SPDX-License-Identifier: Apache-2.0

package mcprpc

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// tagInfo holds parsed information from an `mcprpc` struct tag.
type tagInfo struct {
	Name     string
	Required bool
	Default  *string // nil if no default
}

// parseTag parses an mcprpc struct tag like "name", "name,required",
// "name,default=foo".
func parseTag(tag string) tagInfo {
	parts := strings.Split(tag, ",")
	info := tagInfo{Name: parts[0]}
	for _, part := range parts[1:] {
		switch {
		case part == "required":
			info.Required = true
		case strings.HasPrefix(part, "default="):
			val := strings.TrimPrefix(part, "default=")
			info.Default = &val
		}
	}
	return info
}

// goTypeToSchema maps a Go reflect.Type to a JSON Schema fragment.
func goTypeToSchema(t reflect.Type) (map[string]any, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Int, reflect.Int32, reflect.Int64:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Slice:
		items, err := goTypeToSchema(t.Elem())
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		return map[string]any{"type": "array", "items": items}, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map key must be string, got %v", t.Key())
		}
		return map[string]any{"type": "object"}, nil
	default:
		return nil, fmt.Errorf("unsupported Go type: %v (kind: %v)", t, t.Kind())
	}
}

// structToSchema builds a JSON Schema object from a Go struct type using
// mcprpc tags. The schema is what tools/list advertises for the tool.
func structToSchema(t reflect.Type) (map[string]any, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected struct type, got %v", t.Kind())
	}
	properties := map[string]any{}
	var required []string
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("mcprpc")
		if tag == "" || tag == "-" {
			continue
		}
		info := parseTag(tag)

		prop, err := goTypeToSchema(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		if desc := f.Tag.Get("desc"); desc != "" {
			prop["description"] = desc
		}
		if info.Default != nil {
			prop["default"] = *info.Default
		}
		properties[info.Name] = prop
		if info.Required {
			required = append(required, info.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema, nil
}

// decodeParams validates raw call arguments against the parameter struct
// type and returns a populated value. Validation is structural: required
// fields must be present and every supplied field must unmarshal into
// its declared type. Unknown fields are ignored.
func decodeParams(raw json.RawMessage, t reflect.Type) (reflect.Value, *Error) {
	ptr := t.Kind() == reflect.Ptr
	if ptr {
		t = t.Elem()
	}
	out := reflect.New(t)

	fields := map[string]json.RawMessage{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return reflect.Value{}, Errorf(CodeInvalidParams, "arguments must be a JSON object: %v", err)
		}
	}

	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("mcprpc")
		if tag == "" || tag == "-" {
			continue
		}
		info := parseTag(tag)
		target := out.Elem().Field(i).Addr().Interface()

		rawVal, ok := fields[info.Name]
		if !ok {
			if info.Required {
				return reflect.Value{}, Errorf(CodeInvalidParams, "missing required parameter %q", info.Name)
			}
			if info.Default != nil {
				if err := applyDefault(out.Elem().Field(i), *info.Default); err != nil {
					return reflect.Value{}, Errorf(CodeInvalidParams, "parameter %q: %v", info.Name, err)
				}
			}
			continue
		}
		if err := json.Unmarshal(rawVal, target); err != nil {
			return reflect.Value{}, Errorf(CodeInvalidParams, "parameter %q: %v", info.Name, err)
		}
	}

	if ptr {
		return out, nil
	}
	return out.Elem(), nil
}

// applyDefault parses a tag default into a struct field. String fields
// take the literal text; everything else goes through the JSON decoder.
func applyDefault(field reflect.Value, def string) error {
	if field.Kind() == reflect.String {
		field.SetString(def)
		return nil
	}
	return json.Unmarshal([]byte(def), field.Addr().Interface())
}
