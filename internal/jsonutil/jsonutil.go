// Package jsonutil centralizes the json-iterator/go configuration used
// for every on-disk JSON artifact the engine writes: registry index
// files, delta payloads, and MCP tool manifests. A single shared config
// keeps their encoding (field ordering, map key sorting) consistent.
package jsonutil

import jsoniter "github.com/json-iterator/go"

// API is configured to be a drop-in, faster replacement for
// encoding/json, with map keys sorted on Marshal so that content hashing
// and diffing over encoded JSON stay deterministic.
var API = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

func Marshal(v any) ([]byte, error) {
	return API.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return API.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return API.Unmarshal(data, v)
}
