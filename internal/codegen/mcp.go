package codegen

import (
	"fmt"

	"github.com/webcortex/sitemap-engine/internal/compiler"
	"github.com/webcortex/sitemap-engine/internal/jsonutil"
)

type mcpTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema mcpInputSchema `json:"inputSchema"`
}

type mcpInputSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]mcpPropSchema  `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

type mcpPropSchema struct {
	Type string `json:"type"`
}

type mcpManifest struct {
	Tools []mcpTool `json:"tools"`
}

// MCPTools renders schema's site-level actions (the ones not bound to a
// specific instance) as an MCP tools manifest: a JSON object with one
// tool per action, each carrying a JSON-Schema inputSchema built from the
// action's parameter list.
func MCPTools(schema *compiler.CompiledSchema) ([]byte, error) {
	manifest := mcpManifest{}
	for _, a := range siteActions(schema) {
		props := make(map[string]mcpPropSchema, len(a.Params))
		var required []string
		for _, p := range a.Params {
			props[p.Name] = mcpPropSchema{Type: jsonSchemaType(p.Type)}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		manifest.Tools = append(manifest.Tools, mcpTool{
			Name:        a.Name,
			Description: fmt.Sprintf("%s %s on %s (%s)", a.HTTPMethod, a.Endpoint, schema.Domain, a.Model),
			InputSchema: mcpInputSchema{Type: "object", Properties: props, Required: required},
		})
	}
	out, err := jsonutil.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("codegen: marshaling mcp tools json: %w", err)
	}
	return out, nil
}

func jsonSchemaType(t string) string {
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
