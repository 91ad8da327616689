package compiler

import (
	"sort"

	"github.com/webcortex/sitemap-engine/internal/feature"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
)

// compileActions implements §4.9 step 9 (classify every ActionRecord into
// a CompiledAction, deduplicated by (model, name)) plus step 10's
// well-known fill-ins.
func compileActions(m *sitemap.SiteMap, nodeModel []string, models []DataModel) []CompiledAction {
	byKey := make(map[[2]string]*CompiledAction)
	order := make([]([2]string), 0)

	for i := 0; i < m.NodeCount(); i++ {
		for _, rec := range m.OutActions(i) {
			def, ok := actionTable[rec.OpCode]
			if !ok {
				continue
			}
			model := def.Model
			if model == "" {
				model = nodeModel[i]
			}
			if model == "" {
				continue
			}
			key := [2]string{model, def.Name}
			confidence := 0.6
			if rec.HTTPExecutable {
				confidence = 0.9
			}
			requiresAuth := rec.Risk >= feature.RiskCautious || rec.OpCode.Category == feature.OpcodeAuth

			existing, found := byKey[key]
			if !found {
				ca := &CompiledAction{
					Name:             def.Name,
					Model:            model,
					IsInstanceMethod: def.IsInstanceMethod,
					HTTPMethod:       def.HTTPMethod,
					Endpoint:         def.Endpoint,
					Params:           def.Params,
					ExecutionPath:    executionPath(rec),
					RequiresAuth:     requiresAuth,
					Confidence:       confidence,
				}
				byKey[key] = ca
				order = append(order, key)
				continue
			}
			existing.RequiresAuth = existing.RequiresAuth || requiresAuth
			if confidence > existing.Confidence {
				existing.Confidence = confidence
			}
		}
	}

	hasSchemaType := make(map[string]bool, len(models))
	for _, mo := range models {
		hasSchemaType[mo.SchemaOrgType] = true
	}

	hasAction := func(name string) bool {
		for _, k := range order {
			if k[1] == name {
				return true
			}
		}
		return false
	}

	if hasSchemaType["SearchResultsPage"] && !hasAction(siteSearchAction.Name) {
		key := [2]string{siteSearchAction.Model, siteSearchAction.Name}
		byKey[key] = &CompiledAction{
			Name: siteSearchAction.Name, Model: siteSearchAction.Model,
			IsInstanceMethod: siteSearchAction.IsInstanceMethod,
			HTTPMethod:       siteSearchAction.HTTPMethod,
			Endpoint:         siteSearchAction.Endpoint,
			Params:           siteSearchAction.Params,
			ExecutionPath:    "http",
			Confidence:       0.8,
		}
		order = append(order, key)
	}
	if hasSchemaType["Cart"] && !hasAction(siteCartViewAction.Name) {
		key := [2]string{siteCartViewAction.Model, siteCartViewAction.Name}
		byKey[key] = &CompiledAction{
			Name: siteCartViewAction.Name, Model: siteCartViewAction.Model,
			IsInstanceMethod: siteCartViewAction.IsInstanceMethod,
			HTTPMethod:       siteCartViewAction.HTTPMethod,
			Endpoint:         siteCartViewAction.Endpoint,
			Params:           siteCartViewAction.Params,
			ExecutionPath:    "http",
			Confidence:       0.8,
		}
		order = append(order, key)
	}

	out := make([]CompiledAction, 0, len(byKey))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Model != out[j].Model {
			return out[i].Model < out[j].Model
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func executionPath(rec sitemap.ActionRecord) string {
	if rec.HTTPExecutable {
		return "http"
	}
	return "browser"
}
