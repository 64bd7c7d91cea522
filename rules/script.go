package rules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/roomcheck/rooms"
)

// Modules available to rule scripts. "os" is left out so scripts stay
// read-only.
var scriptModules = []string{"text", "math", "fmt", "enum", "json"}

const scriptTimeout = 2 * time.Second

type scriptRule struct {
	id       string
	desc     string
	compiled *tengo.Compiled
}

// LoadScript compiles a tengo rule script from disk. See NewScript.
func LoadScript(path, desc string) (Rule, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: load script %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return NewScript(name, desc, src)
}

// NewScript compiles src into a rule with id "script:<name>". The script sees
// the room as the immutable map `room` plus the helpers find_layer(name) and
// has_layer(name), and reports by assigning `status` ("pass", "fail" or "na"),
// optionally `values` (array of strings) and `note`.
func NewScript(name, desc string, src []byte) (Rule, error) {
	script := tengo.NewScript(src)
	_ = script.Add("room", map[string]any{})
	_ = script.Add("find_layer", &tengo.UserFunction{Name: "find_layer", Value: undefinedFunc})
	_ = script.Add("has_layer", &tengo.UserFunction{Name: "has_layer", Value: undefinedFunc})
	_ = script.Add("status", "")
	_ = script.Add("values", []any{})
	_ = script.Add("note", "")
	script.SetImports(stdlib.GetModuleMap(scriptModules...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("rules: compile script %s: %w", name, err)
	}
	if desc == "" {
		desc = "script " + name
	}
	return &scriptRule{id: "script:" + name, desc: desc, compiled: compiled}, nil
}

func undefinedFunc(args ...tengo.Object) (tengo.Object, error) {
	return tengo.UndefinedValue, nil
}

func (s *scriptRule) ID() string { return s.id }

func (s *scriptRule) Description() string { return s.desc }

func (s *scriptRule) Check(room *rooms.Room) Result {
	c := s.compiled.Clone()
	if err := c.Set("room", roomObject(room)); err != nil {
		return Errored(err)
	}
	if err := c.Set("find_layer", &tengo.UserFunction{Name: "find_layer", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return tengo.UndefinedValue, nil
		}
		l := room.FindLayer(objectAsString(args[0]))
		if l == nil {
			return tengo.UndefinedValue, nil
		}
		return layerObject(l), nil
	}}); err != nil {
		return Errored(err)
	}
	if err := c.Set("has_layer", &tengo.UserFunction{Name: "has_layer", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 || room.FindLayer(objectAsString(args[0])) == nil {
			return tengo.FalseValue, nil
		}
		return tengo.TrueValue, nil
	}}); err != nil {
		return Errored(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), scriptTimeout)
	defer cancel()
	if err := c.RunContext(ctx); err != nil {
		return Errored(fmt.Errorf("script: %w", err))
	}

	res := Result{Detail: &Detail{Note: c.Get("note").String()}}
	for _, v := range c.Get("values").Array() {
		res.Detail.Values = append(res.Detail.Values, fmt.Sprint(v))
	}
	res.Detail.Count = len(res.Detail.Values)

	switch status := strings.TrimSpace(c.Get("status").String()); status {
	case "pass":
		res.Status = StatusPass
	case "fail":
		res.Status = StatusFail
	case "na":
		res.Status = StatusNA
	case "":
		return Errored(fmt.Errorf("script did not set status"))
	default:
		return Errored(fmt.Errorf("script set unknown status %q", status))
	}
	return res
}

func roomObject(r *rooms.Room) tengo.Object {
	layers := make([]tengo.Object, 0, len(r.Layers))
	for _, l := range r.Layers {
		layers = append(layers, layerObject(l))
	}
	return &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"filename":    &tengo.String{Value: r.Filename},
		"width":       &tengo.Int{Value: int64(r.Width)},
		"height":      &tengo.Int{Value: int64(r.Height)},
		"tile_width":  &tengo.Int{Value: int64(r.TileWidth)},
		"tile_height": &tengo.Int{Value: int64(r.TileHeight)},
		"properties":  anyObject(r.Properties),
		"layers":      &tengo.ImmutableArray{Value: layers},
	}}
}

func layerObject(l *rooms.Layer) tengo.Object {
	m := map[string]tengo.Object{
		"name":       &tengo.String{Value: l.Name},
		"type":       &tengo.String{Value: l.Type.String()},
		"raw_type":   &tengo.String{Value: l.RawType},
		"visible":    boolObject(l.Visible),
		"locked":     boolObject(l.Locked),
		"parallax_x": &tengo.Float{Value: l.ParallaxX},
		"parallax_y": &tengo.Float{Value: l.ParallaxY},
		"properties": anyObject(l.Properties),
	}
	switch l.Type {
	case rooms.TileLayer:
		m["non_zero_cells"] = &tengo.Int{Value: int64(l.NonZeroCells())}
		m["cells"] = &tengo.Int{Value: int64(len(l.Data))}
	case rooms.ObjectGroup:
		objs := make([]tengo.Object, 0, len(l.Objects))
		for _, o := range l.Objects {
			objs = append(objs, &tengo.ImmutableMap{Value: map[string]tengo.Object{
				"id":         &tengo.Int{Value: int64(o.ID)},
				"name":       &tengo.String{Value: o.Name},
				"type":       &tengo.String{Value: o.Type},
				"x":          &tengo.Float{Value: o.X},
				"y":          &tengo.Float{Value: o.Y},
				"width":      &tengo.Float{Value: o.Width},
				"height":     &tengo.Float{Value: o.Height},
				"point":      boolObject(o.Shape == rooms.ShapePoint),
				"shape":      &tengo.String{Value: o.Shape.String()},
				"properties": anyObject(o.Properties),
			}})
		}
		m["objects"] = &tengo.ImmutableArray{Value: objs}
	case rooms.GroupLayer:
		children := make([]tengo.Object, 0, len(l.Children))
		for _, c := range l.Children {
			children = append(children, layerObject(c))
		}
		m["layers"] = &tengo.ImmutableArray{Value: children}
	}
	return &tengo.ImmutableMap{Value: m}
}

func boolObject(b bool) tengo.Object {
	if b {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}

// anyObject converts decoded JSON values into immutable tengo objects.
func anyObject(v any) tengo.Object {
	switch v := v.(type) {
	case nil:
		return tengo.UndefinedValue
	case string:
		return &tengo.String{Value: v}
	case bool:
		return boolObject(v)
	case float64:
		return &tengo.Float{Value: v}
	case int:
		return &tengo.Int{Value: int64(v)}
	case []any:
		out := make([]tengo.Object, 0, len(v))
		for _, item := range v {
			out = append(out, anyObject(item))
		}
		return &tengo.ImmutableArray{Value: out}
	case map[string]any:
		out := make(map[string]tengo.Object, len(v))
		for k, item := range v {
			out[k] = anyObject(item)
		}
		return &tengo.ImmutableMap{Value: out}
	default:
		return &tengo.String{Value: fmt.Sprint(v)}
	}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
