// Package watch implements rule-driven alerting over a domain's feature
// dimensions (component C15): a caller registers WatchRules, then feeds
// (current, previous) value pairs through Evaluate as new data arrives.
package watch

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webcortex/sitemap-engine/internal/core/observability"
)

// ConditionKind is the closed tag for a WatchRule's trigger condition.
type ConditionKind uint8

const (
	ConditionValueAbove ConditionKind = iota
	ConditionValueBelow
	ConditionChangeByPercent
	ConditionAvailable
	ConditionNewInstance
)

func (k ConditionKind) String() string {
	switch k {
	case ConditionValueAbove:
		return "value_above"
	case ConditionValueBelow:
		return "value_below"
	case ConditionChangeByPercent:
		return "change_by_percent"
	case ConditionAvailable:
		return "available"
	case ConditionNewInstance:
		return "new_instance"
	default:
		return "unknown"
	}
}

// WatchCondition is a rule's trigger: a kind plus the threshold it needs,
// where applicable.
type WatchCondition struct {
	Kind      ConditionKind
	Threshold float64 // ValueAbove/ValueBelow's t, or ChangeByPercent's p
}

// WatchRule is one registered alert definition, scoped to a domain and
// feature dimension.
type WatchRule struct {
	ID            string
	Domain        string
	FeatureDim    int
	Condition     WatchCondition
	LastTriggered time.Time
}

// WatchAlert is one fired alert, appended to the Engine's history.
type WatchAlert struct {
	RuleID     string
	Domain     string
	FeatureDim int
	Condition  ConditionKind
	Threshold  float64
	Previous   float64
	Current    float64
	FiredAt    time.Time
	Message    string
}

// String renders a human-readable summary of the alert, naming the
// condition and the threshold that triggered it, e.g. "value_below
// threshold 80.00 crossed: 100.00 -> 75.00".
func (a WatchAlert) String() string {
	switch a.Condition {
	case ConditionValueAbove, ConditionValueBelow, ConditionChangeByPercent:
		return fmt.Sprintf("%s threshold %.2f crossed: %.2f -> %.2f",
			a.Condition, a.Threshold, a.Previous, a.Current)
	default:
		return fmt.Sprintf("%s fired: %.2f -> %.2f", a.Condition, a.Previous, a.Current)
	}
}

// Engine holds registered rules and the append-only alert log (§4.15).
// Every method holds the Engine's internal mutex while it reads or changes
// the rule map and alert log, so an Engine is safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	rules  map[string]*WatchRule
	alerts []WatchAlert
}

// NewEngine returns an empty watch Engine.
func NewEngine() *Engine {
	return &Engine{rules: make(map[string]*WatchRule)}
}

// AddRule registers rule, assigning it a fresh ID if one wasn't given,
// and returns the ID under which it was stored.
func (e *Engine) AddRule(rule WatchRule) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	r := rule
	e.rules[r.ID] = &r
	return r.ID
}

// RemoveRule deletes the rule with the given id, reporting whether one
// was found.
func (e *Engine) RemoveRule(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rules[id]; !ok {
		return false
	}
	delete(e.rules, id)
	return true
}

// ListRules returns every registered rule, in no particular order.
func (e *Engine) ListRules() []WatchRule {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]WatchRule, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, *r)
	}
	return out
}

// Evaluate checks every active rule scoped to (domain, featureDim)
// against the transition from previous to current, firing and recording
// an alert for every rule whose condition matches, per §4.15's
// edge-triggered semantics (a rule fires on the transition, not on
// every sample that happens to already satisfy it).
func (e *Engine) Evaluate(domain string, featureDim int, current, previous float64) []WatchAlert {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now().UTC()
	var fired []WatchAlert
	for _, r := range e.rules {
		if r.Domain != domain || r.FeatureDim != featureDim {
			continue
		}
		if !conditionFires(r.Condition, current, previous) {
			observability.ObserveWatchEvaluation(r.ID, "no_fire")
			continue
		}
		observability.ObserveWatchEvaluation(r.ID, "fire")
		r.LastTriggered = now
		alert := WatchAlert{
			RuleID:     r.ID,
			Domain:     domain,
			FeatureDim: featureDim,
			Condition:  r.Condition.Kind,
			Threshold:  r.Condition.Threshold,
			Previous:   previous,
			Current:    current,
			FiredAt:    now,
		}
		alert.Message = alert.String()
		e.alerts = append(e.alerts, alert)
		fired = append(fired, alert)
		observability.IncWatchAlert(domain, r.Condition.Kind.String())
		observability.ObserveWatchConditionSample(r.ID, current)
	}
	return fired
}

// conditionFires implements §4.15's per-condition firing rule.
// NewInstance is never evaluated here; the caller fires it directly when
// a Builder discovers a node with no prior counterpart (see FireNewInstance).
func conditionFires(c WatchCondition, current, previous float64) bool {
	switch c.Kind {
	case ConditionValueAbove:
		return current > c.Threshold && previous <= c.Threshold
	case ConditionValueBelow:
		return current < c.Threshold && previous >= c.Threshold
	case ConditionChangeByPercent:
		if previous == 0 {
			return false
		}
		change := (current - previous) / previous
		if change < 0 {
			change = -change
		}
		return change > c.Threshold
	case ConditionAvailable:
		return previous <= 0 && current > 0
	default:
		return false
	}
}

// FireNewInstance records an alert for rules watching ConditionNewInstance
// in domain, called by the embedder when the Builder discovers a node
// with no prior counterpart — the one condition Evaluate never checks
// itself, per §4.15.
func (e *Engine) FireNewInstance(domain string, featureDim int) []WatchAlert {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now().UTC()
	var fired []WatchAlert
	for _, r := range e.rules {
		if r.Domain != domain || r.FeatureDim != featureDim || r.Condition.Kind != ConditionNewInstance {
			continue
		}
		r.LastTriggered = now
		alert := WatchAlert{
			RuleID:     r.ID,
			Domain:     domain,
			FeatureDim: featureDim,
			Condition:  ConditionNewInstance,
			FiredAt:    now,
		}
		alert.Message = alert.String()
		e.alerts = append(e.alerts, alert)
		fired = append(fired, alert)
		observability.IncWatchAlert(domain, ConditionNewInstance.String())
		observability.ObserveWatchEvaluation(r.ID, "fire")
	}
	return fired
}

// RecentAlerts returns the last limit fired alerts, most recent last
// (matching the append order of the underlying log), or every alert if
// fewer than limit have fired.
func (e *Engine) RecentAlerts(limit int) []WatchAlert {
	e.mu.Lock()
	defer e.mu.Unlock()
	if limit <= 0 || limit >= len(e.alerts) {
		out := make([]WatchAlert, len(e.alerts))
		copy(out, e.alerts)
		return out
	}
	start := len(e.alerts) - limit
	out := make([]WatchAlert, limit)
	copy(out, e.alerts[start:])
	return out
}

// RuleByID returns the rule with id, or an error if it isn't registered
// — useful for embedders that need to confirm a rule survived a restart.
func (e *Engine) RuleByID(id string) (WatchRule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rules[id]
	if !ok {
		return WatchRule{}, fmt.Errorf("watch: rule %q not found", id)
	}
	return *r, nil
}
