package rules

import (
	"fmt"
)

// Registry holds rules in the order they were registered.
type Registry struct {
	rules []Rule
	byID  map[string]Rule
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Rule)}
}

// Register adds a rule. Rule ids are unique within a registry.
func (r *Registry) Register(rule Rule) error {
	if rule == nil {
		return fmt.Errorf("rules: register nil rule")
	}
	id := rule.ID()
	if id == "" {
		return fmt.Errorf("rules: register rule with empty id")
	}
	if _, ok := r.byID[id]; ok {
		return fmt.Errorf("rules: duplicate rule id %q", id)
	}
	r.rules = append(r.rules, rule)
	r.byID[id] = rule
	return nil
}

func (r *Registry) MustRegister(rules ...Rule) {
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
}

// Get returns a rule by its id.
func (r *Registry) Get(id string) (Rule, bool) {
	rule, ok := r.byID[id]
	return rule, ok
}

// Rules returns every rule in registration order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

func (r *Registry) Len() int { return len(r.rules) }

// Select returns the named subset, still in registration order. An empty id
// list selects everything.
func (r *Registry) Select(ids ...string) ([]Rule, error) {
	if len(ids) == 0 {
		return r.Rules(), nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.byID[id]; !ok {
			return nil, fmt.Errorf("rules: unknown rule id %q", id)
		}
		want[id] = true
	}
	out := make([]Rule, 0, len(want))
	for _, rule := range r.rules {
		if want[rule.ID()] {
			out = append(out, rule)
		}
	}
	return out, nil
}
