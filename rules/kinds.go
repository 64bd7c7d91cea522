package rules

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Spec describes one rule in a rule-set file. Which fields matter depends on
// Kind.
type Spec struct {
	Kind        string             `yaml:"kind"`
	Description string             `yaml:"description,omitempty"`
	Name        string             `yaml:"name,omitempty"`
	Layer       string             `yaml:"layer,omitempty"`
	Path        string             `yaml:"path,omitempty"`
	Prefix      string             `yaml:"prefix,omitempty"`
	Triggers    []string           `yaml:"triggers,omitempty"`
	Required    string             `yaml:"required,omitempty"`
	Visible     *bool              `yaml:"visible,omitempty"`
	Parallax    map[string]float64 `yaml:"parallax,omitempty"`
	Locked      []string           `yaml:"locked,omitempty"`
	File        string             `yaml:"file,omitempty"`
	Exclude     []string           `yaml:"exclude,omitempty"`

	// BaseDir resolves a relative File. It is set by the config loader.
	BaseDir string `yaml:"-"`
}

// Factory builds a rule from its spec.
type Factory func(Spec) (Rule, error)

var kindRegistry = map[string]Factory{
	"has-layer": func(s Spec) (Rule, error) {
		if s.Name == "" {
			return nil, fmt.Errorf("has-layer needs name")
		}
		return HasLayer(s.Name), nil
	},
	"has-layer-path": func(s Spec) (Rule, error) {
		if s.Path == "" {
			return nil, fmt.Errorf("has-layer-path needs path")
		}
		return HasLayerPath(s.Path), nil
	},
	"layer-nonempty": func(s Spec) (Rule, error) {
		name := firstNonEmpty(s.Name, s.Layer)
		if name == "" {
			return nil, fmt.Errorf("layer-nonempty needs name")
		}
		return LayerNonEmpty(name), nil
	},
	"objects-with-prefix": func(s Spec) (Rule, error) {
		if s.Layer == "" || s.Prefix == "" {
			return nil, fmt.Errorf("objects-with-prefix needs layer and prefix")
		}
		return ObjectsWithPrefix(s.Layer, s.Prefix), nil
	},
	"conditional-requirement": func(s Spec) (Rule, error) {
		if len(s.Triggers) == 0 || s.Required == "" {
			return nil, fmt.Errorf("conditional-requirement needs triggers and required")
		}
		return ConditionalRequirement(s.Triggers, s.Required), nil
	},
	"layer-visibility": func(s Spec) (Rule, error) {
		if s.Name == "" {
			return nil, fmt.Errorf("layer-visibility needs name")
		}
		want := true
		if s.Visible != nil {
			want = *s.Visible
		}
		return LayerVisibility(s.Name, want), nil
	},
	"layer-defaults": func(s Spec) (Rule, error) {
		parallax, locked := s.Parallax, s.Locked
		if parallax == nil {
			parallax = DefaultParallax
		}
		if locked == nil {
			locked = DefaultLocked
		}
		return LayerDefaults(parallax, locked), nil
	},
	"zero-size-objects": func(s Spec) (Rule, error) {
		return ZeroSizeObjects(s.Layer), nil
	},
	"objects-in-bounds": func(s Spec) (Rule, error) {
		return ObjectsInBounds(s.Layer), nil
	},
	"script": func(s Spec) (Rule, error) {
		if s.File == "" {
			return nil, fmt.Errorf("script needs file")
		}
		path := s.File
		if !filepath.IsAbs(path) && s.BaseDir != "" {
			path = filepath.Join(s.BaseDir, path)
		}
		return LoadScript(path, s.Description)
	},
}

// RegisterKind makes a new rule kind available to Build.
func RegisterKind(kind string, f Factory) {
	kindRegistry[kind] = f
}

// Kinds lists the known rule kinds, sorted.
func Kinds() []string {
	out := make([]string, 0, len(kindRegistry))
	for k := range kindRegistry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Build constructs the rule a spec describes, wrapped in an exclusion list
// when the spec names exclusions.
func Build(s Spec) (Rule, error) {
	f, ok := kindRegistry[s.Kind]
	if !ok {
		return nil, fmt.Errorf("rules: unknown rule kind %q", s.Kind)
	}
	rule, err := f(s)
	if err != nil {
		return nil, fmt.Errorf("rules: %s: %w", s.Kind, err)
	}
	if s.Description != "" && s.Kind != "script" {
		rule = &described{Rule: rule, desc: s.Description}
	}
	if len(s.Exclude) > 0 {
		rule = Exclude(rule, s.Exclude...)
	}
	return rule, nil
}

type described struct {
	Rule
	desc string
}

func (d *described) Description() string { return d.desc }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
