package codegen

import (
	"fmt"
	"strings"

	"github.com/webcortex/sitemap-engine/internal/compiler"
)

// TypeScript renders schema as a single-file TypeScript module: one
// interface per model, plus async function helpers for search and
// instance/site actions.
func TypeScript(schema *compiler.CompiledSchema) string {
	var b strings.Builder
	b.WriteString("// Generated client bindings for " + schema.Domain + ". Do not edit by hand.\n\n")

	for _, m := range orderedModels(schema) {
		writeTSInterface(&b, m)
	}
	for _, m := range orderedModels(schema) {
		writeTSHelpers(&b, schema, m)
	}

	return b.String()
}

func writeTSInterface(b *strings.Builder, m compiler.DataModel) {
	fmt.Fprintf(b, "export interface %s {\n", m.Name)
	for _, f := range m.Fields {
		opt := ""
		if f.Nullable {
			opt = "?"
		}
		fmt.Fprintf(b, "  %s%s: %s;\n", f.Name, opt, tsType(f.Type))
	}
	b.WriteString("}\n\n")
}

func writeTSHelpers(b *strings.Builder, schema *compiler.CompiledSchema, m compiler.DataModel) {
	if m.SearchAction != nil {
		fmt.Fprintf(b, "export async function search%s(query: string): Promise<%s[]> {\n", m.Name, m.Name)
		fmt.Fprintf(b, "  return fetchJSON(`/search?q=${encodeURIComponent(query)}`);\n}\n\n")
	}
	for _, a := range actionsForModel(schema, m.Name) {
		writeTSAction(b, m, a)
	}
}

func writeTSAction(b *strings.Builder, m compiler.DataModel, a compiler.CompiledAction) {
	params := []string{}
	if a.IsInstanceMethod {
		params = append(params, "nodeId: number")
	}
	for _, p := range a.Params {
		opt := ""
		if !p.Required {
			opt = "?"
		}
		params = append(params, fmt.Sprintf("%s%s: %s", p.Name, opt, tsParamType(p.Type)))
	}
	fnName := a.Name
	fmt.Fprintf(b, "export async function %s(%s): Promise<any> {\n", fnName, strings.Join(params, ", "))
	fmt.Fprintf(b, "  return fetchJSON(%q, { method: %q });\n}\n\n", a.Endpoint, a.HTTPMethod)
}

func tsType(t compiler.FieldType) string {
	switch t.Kind {
	case compiler.TypeString, compiler.TypeURL, compiler.TypeDateTime:
		return "string"
	case compiler.TypeEnum:
		if len(t.Variants) == 0 {
			return "string"
		}
		quoted := make([]string, len(t.Variants))
		for i, v := range t.Variants {
			quoted[i] = fmt.Sprintf("%q", v)
		}
		return strings.Join(quoted, " | ")
	case compiler.TypeFloat, compiler.TypeInteger:
		return "number"
	case compiler.TypeBool:
		return "boolean"
	case compiler.TypeObject:
		return t.ObjectName
	case compiler.TypeArray:
		if t.Inner != nil {
			return tsType(*t.Inner) + "[]"
		}
		return "any[]"
	default:
		return "any"
	}
}

func tsParamType(t string) string {
	switch t {
	case "int", "float":
		return "number"
	case "bool":
		return "boolean"
	default:
		return "string"
	}
}
