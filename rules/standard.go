package rules

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/milk9111/roomcheck/rooms"
)

// HasLayer passes when a layer with exactly this name exists anywhere in the
// layer tree.
func HasLayer(name string) Rule {
	return &Func{
		RuleID: "has-layer:" + name,
		Desc:   fmt.Sprintf("room has a %q layer", name),
		Fn: func(room *rooms.Room) Result {
			l, path := room.FindLayerPath(name)
			if l == nil {
				return Fail("no %q layer", name)
			}
			return Result{Status: StatusPass, Detail: &Detail{Values: []string{strings.Join(path, "/")}}}
		},
	}
}

// HasLayerPath passes when the slash separated path resolves, one group per
// segment.
func HasLayerPath(path string) Rule {
	return &Func{
		RuleID: "has-layer-path:" + path,
		Desc:   fmt.Sprintf("room has a layer at %q", path),
		Fn: func(room *rooms.Room) Result {
			if room.LayerAt(path) == nil {
				return Fail("no layer at %q", path)
			}
			return Pass()
		},
	}
}

// LayerNonEmpty passes when the named object group has objects or the named
// tile layer has at least one non-zero cell.
func LayerNonEmpty(name string) Rule {
	return &Func{
		RuleID: "layer-nonempty:" + name,
		Desc:   fmt.Sprintf("%q layer is not empty", name),
		Fn: func(room *rooms.Room) Result {
			l := room.FindLayer(name)
			if l == nil {
				return NA()
			}
			var n int
			switch l.Type {
			case rooms.ObjectGroup:
				if !l.HasObjects {
					return Errored(missing("object group %q has no objects field", name))
				}
				n = len(l.Objects)
			case rooms.TileLayer:
				if l.DataErr != nil {
					return Errored(l.DataErr)
				}
				if !l.HasData {
					return Errored(missing("tile layer %q has no data", name))
				}
				n = l.NonZeroCells()
			default:
				return NA()
			}
			if n == 0 {
				return Result{Status: StatusFail, Detail: &Detail{Note: fmt.Sprintf("%q layer is empty", name)}}
			}
			return Result{Status: StatusPass, Detail: &Detail{Count: n}}
		},
	}
}

// ObjectsWithPrefix extracts the names of objects on the named object group
// that start with prefix. The extracted names feed the cross-room aggregates.
func ObjectsWithPrefix(layer, prefix string) Rule {
	return &Func{
		RuleID: "objects-with-prefix:" + layer + ":" + prefix,
		Desc:   fmt.Sprintf("%q layer has objects named %q...", layer, prefix),
		Fn: func(room *rooms.Room) Result {
			l := room.FindLayer(layer)
			if l == nil {
				return NA()
			}
			if l.Type != rooms.ObjectGroup {
				return NA()
			}
			if !l.HasObjects {
				return Errored(missing("object group %q has no objects field", layer))
			}
			var names []string
			for _, o := range l.Objects {
				if strings.HasPrefix(o.Name, prefix) {
					names = append(names, o.Name)
				}
			}
			if len(names) == 0 {
				return Fail("no objects named %q... on %q", prefix, layer)
			}
			return Result{Status: StatusPass, Detail: &Detail{Values: names, Count: len(names)}}
		},
	}
}

// ConditionalRequirement fails when any trigger layer is present but the
// required layer is not, e.g. rooms with hazards must have a respawn layer.
func ConditionalRequirement(triggers []string, required string) Rule {
	trig := append([]string(nil), triggers...)
	return &Func{
		RuleID: "conditional-requirement:" + strings.Join(trig, ",") + "->" + required,
		Desc:   fmt.Sprintf("rooms with %s need a %q layer", strings.Join(trig, " or "), required),
		Fn: func(room *rooms.Room) Result {
			var present []string
			for _, t := range trig {
				if room.FindLayer(t) != nil {
					present = append(present, t)
				}
			}
			if len(present) == 0 {
				return NA()
			}
			if room.FindLayer(required) != nil {
				return Pass()
			}
			return Result{
				Status: StatusFail,
				Detail: &Detail{
					Values: present,
					Note:   fmt.Sprintf("has %s but no %q", strings.Join(present, ", "), required),
				},
			}
		},
	}
}

// LayerVisibility fails when the named layer exists with a different
// visibility than want.
func LayerVisibility(name string, want bool) Rule {
	state := "hidden"
	if want {
		state = "visible"
	}
	return &Func{
		RuleID: "layer-visibility:" + name,
		Desc:   fmt.Sprintf("%q layer is %s", name, state),
		Fn: func(room *rooms.Room) Result {
			l := room.FindLayer(name)
			if l == nil {
				return NA()
			}
			if l.Visible != want {
				return Fail("%q layer should be %s", name, state)
			}
			return Pass()
		},
	}
}

type exclusion struct {
	rule     Rule
	patterns []string
}

// Exclude wraps rule so that rooms matching any of the patterns always pass.
// Patterns are filenames or doublestar globs. Every other room gets the
// wrapped rule's result unchanged.
func Exclude(rule Rule, patterns ...string) Rule {
	return &exclusion{rule: rule, patterns: append([]string(nil), patterns...)}
}

func (e *exclusion) ID() string { return e.rule.ID() }

func (e *exclusion) Description() string { return e.rule.Description() }

func (e *exclusion) Check(room *rooms.Room) Result {
	if !e.excluded(room.Filename) {
		return e.rule.Check(room)
	}
	// Extracted values still count towards aggregates.
	d := &Detail{Note: "excluded"}
	if inner := guarded(e.rule, room); inner.Detail != nil {
		d.Values = inner.Detail.Values
		d.Count = inner.Detail.Count
	}
	return Result{Status: StatusPass, Detail: d}
}

func (e *exclusion) excluded(filename string) bool {
	for _, p := range e.patterns {
		if p == filename {
			return true
		}
		if ok, err := doublestar.Match(p, filename); err == nil && ok {
			return true
		}
	}
	return false
}

// Unwrap returns the rule behind exclusion lists and description overrides.
func Unwrap(rule Rule) Rule {
	for {
		switch r := rule.(type) {
		case *exclusion:
			rule = r.rule
		case *described:
			rule = r.Rule
		default:
			return rule
		}
	}
}
