package wql

// Step is one stage of a lowered WQL plan, a closed sum type mirroring
// §4.13's linear plan shape.
type Step interface{ isStep() }

// ScanModel is always the first step: translate Model to a page type via
// the closed table and walk matching nodes across Domains (empty means
// every cached domain).
type ScanModel struct {
	Model   string
	Domains []string
}

// Filter keeps rows whose Expr evaluates true. OR sub-trees are lowered
// into a single compound Filter rather than many steps, per §4.13.2.
type Filter struct {
	Expr *Expr
}

// TemporalEnrich attaches one temporal-function value to every row.
type TemporalEnrich struct {
	Field    string
	Function TemporalFn
	Days     int
	Output   string // column name the enriched value is stored under
}

// Sort stably orders rows by Field.
type Sort struct {
	Field     string
	Ascending bool
}

// Limit truncates the row set to N.
type Limit struct{ N int }

// Project retains only the named fields (plus url/node_id/domain, which
// always survive).
type Project struct{ Fields []string }

func (ScanModel) isStep()      {}
func (Filter) isStep()         {}
func (TemporalEnrich) isStep() {}
func (Sort) isStep()           {}
func (Limit) isStep()          {}
func (Project) isStep()        {}

// Plan is the ordered list of steps the executor runs.
type Plan struct {
	Steps []Step
}

// SchemaLookup resolves a model name's known field set. PlanQuery accepts
// one but does not consult it: field references in WHERE, ORDER BY and
// SELECT are not type-checked, whether a SchemaLookup is given or nil.
type SchemaLookup func(model string) (fields map[string]int, ok bool)

// Plan lowers q into an ordered Plan. schema may be nil.
func PlanQuery(q *Query, schema SchemaLookup) *Plan {
	var steps []Step
	steps = append(steps, ScanModel{Model: q.From, Domains: q.Across})

	if q.Where != nil {
		for _, f := range flattenAnd(q.Where) {
			steps = append(steps, Filter{Expr: f})
		}
	}

	if !q.Star {
		for _, f := range q.Fields {
			if f.Temporal != TemporalNone {
				steps = append(steps, TemporalEnrich{
					Field:    f.Name,
					Function: f.Temporal,
					Days:     f.Days,
					Output:   f.OutputName(),
				})
			}
		}
	}

	for _, ord := range q.OrderBy {
		steps = append(steps, Sort{Field: ord.Field, Ascending: ord.Ascending})
	}

	if q.HasLimit {
		steps = append(steps, Limit{N: q.Limit})
	}

	if !q.Star && len(q.Fields) > 0 {
		names := make([]string, len(q.Fields))
		for i, f := range q.Fields {
			names[i] = f.OutputName()
		}
		steps = append(steps, Project{Fields: names})
	}

	return &Plan{Steps: steps}
}

// flattenAnd splits a WHERE tree into independent Filter steps at every
// top-level AND, per §4.13.2; an OR node (or a tree rooted in one) stays
// a single compound expression so short-circuiting across OR branches is
// preserved.
func flattenAnd(e *Expr) []*Expr {
	if e.IsLeaf() {
		return []*Expr{e}
	}
	if e.Bool == BoolAnd {
		return append(flattenAnd(e.Left), flattenAnd(e.Right)...)
	}
	return []*Expr{e}
}
