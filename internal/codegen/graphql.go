package codegen

import (
	"fmt"
	"strings"

	"github.com/webcortex/sitemap-engine/internal/compiler"
)

// GraphQL renders schema as a GraphQL SDL document: one `type` per model
// plus a `Query` root exposing list/detail/search fields.
func GraphQL(schema *compiler.CompiledSchema) string {
	var b strings.Builder
	b.WriteString("# Generated client bindings for " + schema.Domain + ". Do not edit by hand.\n\n")

	models := orderedModels(schema)
	for _, m := range models {
		writeGraphQLType(&b, m)
	}

	b.WriteString("type Query {\n")
	for _, m := range models {
		plural := pluralPath(m.Name)
		fmt.Fprintf(&b, "  %s: [%s!]!\n", plural, m.Name)
		fmt.Fprintf(&b, "  %s(nodeId: Int!): %s\n", strings.ToLower(m.Name), m.Name)
		if m.SearchAction != nil {
			fmt.Fprintf(&b, "  search%s(query: String!): [%s!]!\n", m.Name, m.Name)
		}
	}
	b.WriteString("}\n")

	return b.String()
}

func writeGraphQLType(b *strings.Builder, m compiler.DataModel) {
	fmt.Fprintf(b, "type %s {\n", m.Name)
	for _, f := range m.Fields {
		gqlType := graphQLType(f.Type)
		if !f.Nullable {
			gqlType += "!"
		}
		fmt.Fprintf(b, "  %s: %s\n", f.Name, gqlType)
	}
	b.WriteString("}\n\n")
}

func graphQLType(t compiler.FieldType) string {
	switch t.Kind {
	case compiler.TypeString, compiler.TypeEnum, compiler.TypeURL, compiler.TypeDateTime:
		return "String"
	case compiler.TypeFloat:
		return "Float"
	case compiler.TypeInteger:
		return "Int"
	case compiler.TypeBool:
		return "Boolean"
	case compiler.TypeObject:
		return t.ObjectName
	case compiler.TypeArray:
		if t.Inner != nil {
			return "[" + graphQLType(*t.Inner) + "]"
		}
		return "[String]"
	default:
		return "String"
	}
}
