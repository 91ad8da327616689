package wql

import (
	"fmt"
	"sort"
	"time"

	"github.com/webcortex/sitemap-engine/internal/compiler"
	"github.com/webcortex/sitemap-engine/internal/core/observability"
	"github.com/webcortex/sitemap-engine/internal/sitemap"
	"github.com/webcortex/sitemap-engine/internal/temporal"
)

// Row is one materialized query result (§4.14).
type Row struct {
	Domain string
	URL    string
	NodeID int
	Fields map[string]Value
}

// ExecConfig supplies the executor's only data sources: the currently
// cached SiteMap per domain, and (optionally) a Temporal Store for
// TemporalEnrich steps. Now anchors temporal windowing so the executor
// stays deterministic for a fixed input rather than reading the clock
// itself.
type ExecConfig struct {
	DomainMaps map[string]*sitemap.SiteMap
	Temporal   *temporal.Store
	Since      time.Duration // lookback window for TemporalEnrich; defaults to 30 days
	Now        time.Time
}

// Execute runs plan against cfg's domain maps, returning materialized
// rows. Execution is single-threaded and deterministic given a fixed
// ExecConfig, per §4.14.
func Execute(plan *Plan, cfg ExecConfig) ([]Row, error) {
	var rows []Row
	var err error
	var model string

	for _, step := range plan.Steps {
		switch s := step.(type) {
		case ScanModel:
			model = s.Model
			rows, err = scan(s, cfg)
		case Filter:
			rows = applyFilter(rows, s.Expr)
		case TemporalEnrich:
			rows = enrichTemporal(rows, s, model, cfg)
		case Sort:
			rows = sortRows(rows, s)
		case Limit:
			rows = limitRows(rows, s.N)
		case Project:
			rows = projectRows(rows, s.Fields)
		}
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// ExecuteQuery is the convenience entry point tying parse, plan, and
// execute together, observing the result via the engine's metrics
// collector regardless of outcome.
func ExecuteQuery(src string, cfg ExecConfig, schema SchemaLookup) ([]Row, error) {
	start := time.Now()
	q, err := Parse(src)
	if err != nil {
		observability.ObserveWQLQuery("unknown", 0, time.Since(start), err)
		return nil, err
	}
	plan := PlanQuery(q, schema)
	rows, err := Execute(plan, cfg)
	observability.ObserveWQLQuery(q.From, len(rows), time.Since(start), err)
	return rows, err
}

func scan(s ScanModel, cfg ExecConfig) ([]Row, error) {
	pageType, ok := compiler.PageTypeForModel(s.Model)
	if !ok {
		return nil, fmt.Errorf("wql: unknown model %q", s.Model)
	}
	specs := compiler.FieldSpecs(s.Model)

	domains := s.Domains
	if len(domains) == 0 {
		domains = make([]string, 0, len(cfg.DomainMaps))
		for d := range cfg.DomainMaps {
			domains = append(domains, d)
		}
		sort.Strings(domains)
	}

	var rows []Row
	for _, domain := range domains {
		m, ok := cfg.DomainMaps[domain]
		if !ok || m == nil {
			continue
		}
		for i := 0; i < m.NodeCount(); i++ {
			if m.Nodes[i].PageType != pageType {
				continue
			}
			fields := make(map[string]Value, len(specs))
			for _, spec := range specs {
				fields[spec.Name] = decodeValue(s.Model, spec.Name, m.Features[i][spec.Dim], spec.Type.Kind)
			}
			rows = append(rows, Row{Domain: domain, URL: m.URLs[i], NodeID: i, Fields: fields})
		}
	}
	return rows, nil
}

func applyFilter(rows []Row, expr *Expr) []Row {
	out := rows[:0:0]
	for _, r := range rows {
		if evalExpr(r, expr) {
			out = append(out, r)
		}
	}
	return out
}

func evalExpr(r Row, e *Expr) bool {
	if e == nil {
		return true
	}
	if !e.IsLeaf() {
		left := evalExpr(r, e.Left)
		if e.Bool == BoolAnd {
			return left && evalExpr(r, e.Right)
		}
		return left || evalExpr(r, e.Right)
	}

	v, ok := r.Fields[e.Field]
	if !ok || v.IsNull() {
		return false
	}
	return compareValue(v, e.Cmp, e.Value)
}

const numericTolerance = 1e-3

func compareValue(v Value, op CmpOp, lit Literal) bool {
	if lit.IsString || v.Kind == ValueString {
		a := v.Str
		if v.Kind != ValueString {
			a = fmt.Sprintf("%v", v.Num)
		}
		b := lit.Str
		switch op {
		case OpEq:
			return a == b
		case OpNe:
			return a != b
		default:
			return false // ordering comparisons on strings aren't defined by §4.14
		}
	}

	a, b := v.Num, lit.Num
	switch op {
	case OpEq:
		return diffAbs(a, b) < numericTolerance
	case OpNe:
		return diffAbs(a, b) >= numericTolerance
	case OpLt:
		return a < b
	case OpGt:
		return a > b
	case OpLe:
		return a <= b || diffAbs(a, b) < numericTolerance
	case OpGe:
		return a >= b || diffAbs(a, b) < numericTolerance
	default:
		return false
	}
}

func diffAbs(a, b float64) float64 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}

func enrichTemporal(rows []Row, step TemporalEnrich, model string, cfg ExecConfig) []Row {
	if cfg.Temporal == nil {
		for i := range rows {
			rows[i].Fields[step.Output] = nullValue()
		}
		return rows
	}

	since := cfg.Since
	if since <= 0 {
		since = 30 * 24 * time.Hour
	}
	windowStart := cfg.Now.Add(-since)

	dim := -1
	for _, spec := range compiler.FieldSpecs(model) {
		if spec.Name == step.Field {
			dim = spec.Dim
			break
		}
	}
	if dim < 0 {
		for i := range rows {
			rows[i].Fields[step.Output] = nullValue()
		}
		return rows
	}

	for i := range rows {
		r := rows[i]
		m, ok := cfg.DomainMaps[r.Domain]
		if !ok {
			rows[i].Fields[step.Output] = nullValue()
			continue
		}

		samples, err := cfg.Temporal.History(r.Domain, m, r.URL, dim, windowStart)
		if err != nil || len(samples) == 0 {
			rows[i].Fields[step.Output] = nullValue()
			continue
		}

		rows[i].Fields[step.Output] = temporalValue(step, samples, cfg.Now)
	}
	return rows
}

func temporalValue(step TemporalEnrich, samples []temporal.Sample, now time.Time) Value {
	switch step.Function {
	case TemporalValueAgo:
		target := now.AddDate(0, 0, -step.Days)
		best := samples[0]
		bestDiff := diffAbs(float64(best.At.Unix()), float64(target.Unix()))
		for _, s := range samples[1:] {
			d := diffAbs(float64(s.At.Unix()), float64(target.Unix()))
			if d < bestDiff {
				best, bestDiff = s, d
			}
		}
		return Value{Kind: ValueFloat, Num: float64(best.Value)}
	case TemporalTrend:
		pattern, ok := temporal.DetectTrend(samples)
		if !ok {
			return nullValue()
		}
		return Value{Kind: ValueString, Str: pattern.Direction.String()}
	case TemporalPredicted:
		v, ok := temporal.Predict(samples, step.Days)
		if !ok {
			return nullValue()
		}
		return Value{Kind: ValueFloat, Num: float64(v)}
	case TemporalBestHistoric:
		best := samples[0].Value
		for _, s := range samples[1:] {
			if s.Value < best {
				best = s.Value
			}
		}
		return Value{Kind: ValueFloat, Num: float64(best)}
	default:
		return nullValue()
	}
}

func sortRows(rows []Row, s Sort) []Row {
	sort.SliceStable(rows, func(i, j int) bool {
		a, aok := rows[i].Fields[s.Field]
		b, bok := rows[j].Fields[s.Field]
		if !aok || !bok || a.IsNull() || b.IsNull() {
			return false
		}
		if a.Kind == ValueString || b.Kind == ValueString {
			if s.Ascending {
				return a.Str < b.Str
			}
			return a.Str > b.Str
		}
		if s.Ascending {
			return a.Num < b.Num
		}
		return a.Num > b.Num
	})
	return rows
}

func limitRows(rows []Row, n int) []Row {
	if n < 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

func projectRows(rows []Row, fields []string) []Row {
	keep := make(map[string]bool, len(fields))
	for _, f := range fields {
		keep[f] = true
	}
	for i := range rows {
		trimmed := make(map[string]Value, len(fields))
		for k, v := range rows[i].Fields {
			if keep[k] {
				trimmed[k] = v
			}
		}
		rows[i].Fields = trimmed
	}
	return rows
}
