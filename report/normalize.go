package report

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Transform is one step of a normalization chain as written in a rule-set
// file. Arg is the prefix, suffix, separator or pattern; With is the
// replacement text for "replace".
type Transform struct {
	Kind string `yaml:"kind"`
	Arg  string `yaml:"arg,omitempty"`
	With string `yaml:"with,omitempty"`
}

// Normalizer rewrites extracted values before they are compared across rooms.
// The zero value leaves values unchanged.
type Normalizer struct {
	steps []func(string) string
}

var transformKinds = map[string]func(Transform) (func(string) string, error){
	"trim-prefix": func(t Transform) (func(string) string, error) {
		if t.Arg == "" {
			return nil, fmt.Errorf("trim-prefix needs arg")
		}
		return func(s string) string { return strings.TrimPrefix(s, t.Arg) }, nil
	},
	"trim-suffix": func(t Transform) (func(string) string, error) {
		if t.Arg == "" {
			return nil, fmt.Errorf("trim-suffix needs arg")
		}
		return func(s string) string { return strings.TrimSuffix(s, t.Arg) }, nil
	},
	"cut-after": func(t Transform) (func(string) string, error) {
		if t.Arg == "" {
			return nil, fmt.Errorf("cut-after needs arg")
		}
		return func(s string) string {
			before, _, _ := strings.Cut(s, t.Arg)
			return before
		}, nil
	},
	"cut-before": func(t Transform) (func(string) string, error) {
		if t.Arg == "" {
			return nil, fmt.Errorf("cut-before needs arg")
		}
		return func(s string) string {
			if i := strings.LastIndex(s, t.Arg); i >= 0 {
				return s[i+len(t.Arg):]
			}
			return s
		}, nil
	},
	"replace": func(t Transform) (func(string) string, error) {
		re, err := regexp.Compile(t.Arg)
		if err != nil {
			return nil, fmt.Errorf("replace: %w", err)
		}
		return func(s string) string { return re.ReplaceAllString(s, t.With) }, nil
	},
	"fold": func(Transform) (func(string) string, error) {
		return func(s string) string { return cases.Fold().String(s) }, nil
	},
	"trim-space": func(Transform) (func(string) string, error) {
		return strings.TrimSpace, nil
	},
}

// NewNormalizer compiles a transform chain. Steps run in order.
func NewNormalizer(chain ...Transform) (Normalizer, error) {
	var n Normalizer
	for i, t := range chain {
		build, ok := transformKinds[t.Kind]
		if !ok {
			return Normalizer{}, fmt.Errorf("report: normalize step %d: unknown transform kind %q", i, t.Kind)
		}
		step, err := build(t)
		if err != nil {
			return Normalizer{}, fmt.Errorf("report: normalize step %d: %w", i, err)
		}
		n.steps = append(n.steps, step)
	}
	return n, nil
}

func (n Normalizer) Apply(s string) string {
	for _, step := range n.steps {
		s = step(s)
	}
	return s
}
