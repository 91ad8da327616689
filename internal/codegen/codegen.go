// Package codegen renders a compiled schema (component C9) into client
// bindings for several target ecosystems (component C10): Python
// dataclasses, TypeScript interfaces, an OpenAPI 3.0.3 document, a
// GraphQL schema, and an MCP tools manifest. Each renderer is a pure
// function of the CompiledSchema, so output is deterministic across runs
// given the same input and the same model iteration order.
package codegen

import (
	"sort"

	"github.com/webcortex/sitemap-engine/internal/compiler"
)

// orderedModels returns schema.Models sorted by instance count descending,
// with a stable name tie-break — the deterministic iteration order every
// renderer in this package relies on.
func orderedModels(schema *compiler.CompiledSchema) []compiler.DataModel {
	models := make([]compiler.DataModel, len(schema.Models))
	copy(models, schema.Models)
	sort.SliceStable(models, func(i, j int) bool {
		if models[i].InstanceCount != models[j].InstanceCount {
			return models[i].InstanceCount > models[j].InstanceCount
		}
		return models[i].Name < models[j].Name
	})
	return models
}

// actionsForModel returns every CompiledAction belonging to model, in the
// schema's existing deterministic (model, name) sorted order.
func actionsForModel(schema *compiler.CompiledSchema, modelName string) []compiler.CompiledAction {
	var out []compiler.CompiledAction
	for _, a := range schema.Actions {
		if a.Model == modelName {
			out = append(out, a)
		}
	}
	return out
}

// siteActions returns every CompiledAction not bound to a specific
// instance-method receiver, i.e. the ones a generated client exposes as
// free functions (search, and any other catalog/global action).
func siteActions(schema *compiler.CompiledSchema) []compiler.CompiledAction {
	var out []compiler.CompiledAction
	for _, a := range schema.Actions {
		if !a.IsInstanceMethod {
			out = append(out, a)
		}
	}
	return out
}
