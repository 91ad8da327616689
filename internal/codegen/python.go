package codegen

import (
	"fmt"
	"strings"

	"github.com/webcortex/sitemap-engine/internal/compiler"
)

// Python renders schema as a single-file Python module: one @dataclass
// per model (Optional[T] for nullable fields), a _field_to_dim mapping
// table per model, a _from_node constructor, and search/action helpers
// that call through to a shared HTTP client.
func Python(schema *compiler.CompiledSchema) string {
	var b strings.Builder
	b.WriteString("\"\"\"Generated client bindings for " + schema.Domain + ". Do not edit by hand.\"\"\"\n\n")
	b.WriteString("from dataclasses import dataclass, field\n")
	b.WriteString("from typing import Optional, List, Any\n")
	b.WriteString("from datetime import datetime\n\n")
	b.WriteString("from . import _client\n\n\n")

	for _, m := range orderedModels(schema) {
		writePythonModel(&b, schema, m)
	}

	return b.String()
}

func writePythonModel(b *strings.Builder, schema *compiler.CompiledSchema, m compiler.DataModel) {
	fmt.Fprintf(b, "@dataclass\nclass %s:\n", m.Name)
	for _, f := range m.Fields {
		pyType := pythonType(f.Type)
		if f.Nullable {
			fmt.Fprintf(b, "    %s: Optional[%s] = None\n", f.Name, pyType)
		} else {
			fmt.Fprintf(b, "    %s: %s = None\n", f.Name, pyType)
		}
	}
	b.WriteString("\n")

	b.WriteString("    _field_to_dim = {\n")
	for _, f := range m.Fields {
		if f.FeatureDim >= 0 {
			fmt.Fprintf(b, "        %q: %d,\n", f.Name, f.FeatureDim)
		}
	}
	b.WriteString("    }\n\n")

	fmt.Fprintf(b, "    @staticmethod\n    def _from_node(node_id: int, url: str, features: List[float]) -> \"%s\":\n", m.Name)
	fmt.Fprintf(b, "        return %s(\n", m.Name)
	for _, f := range m.Fields {
		switch {
		case f.Name == "url":
			b.WriteString("            url=url,\n")
		case f.Name == "node_id":
			b.WriteString("            node_id=node_id,\n")
		case f.FeatureDim >= 0:
			fmt.Fprintf(b, "            %s=features[%d] if features[%d] else None,\n", f.Name, f.FeatureDim, f.FeatureDim)
		default:
			fmt.Fprintf(b, "            %s=None,\n", f.Name)
		}
	}
	b.WriteString("        )\n\n")

	if m.SearchAction != nil {
		fmt.Fprintf(b, "    @classmethod\n    def search(cls, query: str) -> List[\"%s\"]:\n", m.Name)
		fmt.Fprintf(b, "        rows = _client.get(\"/search\", params={\"q\": query})\n")
		fmt.Fprintf(b, "        return [cls._from_node(r[\"node_id\"], r[\"url\"], r[\"features\"]) for r in rows]\n\n")
	}

	for _, a := range actionsForModel(schema, m.Name) {
		writePythonAction(b, a)
	}

	for _, rel := range schema.Relationships {
		if rel.FromModel != m.Name {
			continue
		}
		writePythonRelationAccessor(b, rel)
	}

	b.WriteString("\n")
}

func writePythonAction(b *strings.Builder, a compiler.CompiledAction) {
	params := []string{}
	if a.IsInstanceMethod {
		params = append(params, "self")
	}
	for _, p := range a.Params {
		if p.Required {
			params = append(params, fmt.Sprintf("%s: %s", p.Name, pyParamType(p.Type)))
		} else {
			def := p.Default
			if def == "" {
				def = "None"
			}
			params = append(params, fmt.Sprintf("%s: %s = %s", p.Name, pyParamType(p.Type), def))
		}
	}
	fmt.Fprintf(b, "    def %s(%s) -> Any:\n", a.Name, strings.Join(params, ", "))
	fmt.Fprintf(b, "        return _client.request(%q, %q)\n\n", a.HTTPMethod, a.Endpoint)
}

func writePythonRelationAccessor(b *strings.Builder, rel compiler.ModelRelationship) {
	switch rel.Cardinality {
	case compiler.CardinalityBelongsTo, compiler.CardinalityHasOne:
		fmt.Fprintf(b, "    def %s(self) -> Optional[\"%s\"]:\n", rel.Name, rel.ToModel)
		fmt.Fprintf(b, "        return _client.fetch_related(self.node_id, %q)\n\n", rel.ToModel)
	default:
		fmt.Fprintf(b, "    def %s(self) -> List[\"%s\"]:\n", rel.Name, rel.ToModel)
		fmt.Fprintf(b, "        return _client.fetch_related_many(self.node_id, %q)\n\n", rel.ToModel)
	}
}

func pythonType(t compiler.FieldType) string {
	switch t.Kind {
	case compiler.TypeString, compiler.TypeEnum, compiler.TypeURL:
		return "str"
	case compiler.TypeFloat:
		return "float"
	case compiler.TypeInteger:
		return "int"
	case compiler.TypeBool:
		return "bool"
	case compiler.TypeDateTime:
		return "datetime"
	case compiler.TypeObject:
		return t.ObjectName
	case compiler.TypeArray:
		if t.Inner != nil {
			return "List[" + pythonType(*t.Inner) + "]"
		}
		return "List[Any]"
	default:
		return "Any"
	}
}

func pyParamType(t string) string {
	switch t {
	case "int":
		return "int"
	case "float":
		return "float"
	case "bool":
		return "bool"
	default:
		return "str"
	}
}
