package codegen

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/webcortex/sitemap-engine/internal/compiler"
)

// OpenAPI renders schema as an OpenAPI 3.0.3 document: list/detail paths
// per model plus one path per instance action, and a components/schemas
// entry per model with a required array listing its non-nullable fields.
// Building the document as plain maps and letting a real YAML encoder
// (rather than hand-built string concatenation) render it is what keeps
// quoting and indentation correct; yaml.v3 sorts map keys on encode, which
// is what gives the output its run-to-run determinism.
func OpenAPI(schema *compiler.CompiledSchema) (string, error) {
	doc := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   schema.Domain + " API",
			"version": schema.CompiledAt.Format("20060102"),
		},
		"paths": buildPaths(schema),
		"components": map[string]any{
			"schemas": buildSchemas(schema),
		},
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("codegen: marshaling openapi yaml: %w", err)
	}
	return string(out), nil
}

func buildPaths(schema *compiler.CompiledSchema) map[string]any {
	paths := map[string]any{}
	for _, m := range orderedModels(schema) {
		plural := pluralPath(m.Name)

		paths["/"+plural] = map[string]any{
			"get": map[string]any{
				"operationId": "list" + m.Name,
				"responses":   okArrayResponse(m.Name),
			},
		}
		paths["/"+plural+"/{nodeId}"] = map[string]any{
			"get": map[string]any{
				"operationId": "get" + m.Name,
				"parameters":  []any{nodeIDParam()},
				"responses":   okRefResponse(m.Name),
			},
		}

		for _, a := range actionsForModel(schema, m.Name) {
			p, item := actionPath(a)
			paths[p] = item
		}
	}
	return paths
}

func actionPath(a compiler.CompiledAction) (string, map[string]any) {
	var params []any
	if a.IsInstanceMethod {
		params = append(params, nodeIDParam())
	}
	for _, p := range a.Params {
		params = append(params, map[string]any{
			"name":     p.Name,
			"in":       "query",
			"required": p.Required,
			"schema":   map[string]any{"type": openAPIType(p.Type)},
		})
	}
	method := strings.ToLower(a.HTTPMethod)
	return a.Endpoint, map[string]any{
		method: map[string]any{
			"operationId": a.Name,
			"parameters":  params,
			"responses":   map[string]any{"200": map[string]any{"description": "ok"}},
		},
	}
}

func nodeIDParam() map[string]any {
	return map[string]any{
		"name":     "nodeId",
		"in":       "path",
		"required": true,
		"schema":   map[string]any{"type": "integer"},
	}
}

func okArrayResponse(modelName string) map[string]any {
	return map[string]any{
		"200": map[string]any{
			"description": "ok",
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{
						"type":  "array",
						"items": map[string]any{"$ref": "#/components/schemas/" + modelName},
					},
				},
			},
		},
	}
}

func okRefResponse(modelName string) map[string]any {
	return map[string]any{
		"200": map[string]any{
			"description": "ok",
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": "#/components/schemas/" + modelName},
				},
			},
		},
	}
}

func buildSchemas(schema *compiler.CompiledSchema) map[string]any {
	out := map[string]any{}
	for _, m := range orderedModels(schema) {
		var required []string
		props := map[string]any{}
		for _, f := range m.Fields {
			props[f.Name] = openAPIFieldSchema(f)
			if !f.Nullable {
				required = append(required, f.Name)
			}
		}
		entry := map[string]any{
			"type":       "object",
			"properties": props,
		}
		if len(required) > 0 {
			entry["required"] = required
		}
		out[m.Name] = entry
	}
	return out
}

func openAPIFieldSchema(f compiler.ModelField) map[string]any {
	switch f.Type.Kind {
	case compiler.TypeEnum:
		return map[string]any{"type": "string", "enum": f.Type.Variants}
	case compiler.TypeURL:
		return map[string]any{"type": "string", "format": "uri"}
	case compiler.TypeDateTime:
		return map[string]any{"type": "string", "format": "date-time"}
	case compiler.TypeArray:
		inner := map[string]any{"type": "string"}
		if f.Type.Inner != nil {
			inner = openAPIFieldSchema(compiler.ModelField{Type: *f.Type.Inner})
		}
		return map[string]any{"type": "array", "items": inner}
	default:
		return map[string]any{"type": openAPITypeFromKind(f.Type.Kind)}
	}
}

func openAPITypeFromKind(k compiler.FieldTypeKind) string {
	switch k {
	case compiler.TypeFloat:
		return "number"
	case compiler.TypeInteger:
		return "integer"
	case compiler.TypeBool:
		return "boolean"
	case compiler.TypeObject:
		return "object"
	default:
		return "string"
	}
}

func openAPIType(t string) string {
	switch t {
	case "int":
		return "integer"
	case "float":
		return "number"
	case "bool":
		return "boolean"
	default:
		return "string"
	}
}

func pluralPath(name string) string {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, "s") {
		return lower
	}
	return lower + "s"
}
