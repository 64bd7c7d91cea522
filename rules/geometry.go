package rules

import (
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/roomcheck/rooms"
)

// objectBB returns the pixel box an object covers. Polygons and polylines
// span their vertices. Tile objects are anchored at their bottom-left corner.
func objectBB(o rooms.Object) cp.BB {
	origin := cp.Vector{X: o.X, Y: o.Y}
	switch o.Shape {
	case rooms.ShapePoint:
		return cp.NewBBForCircle(origin, 0)
	case rooms.ShapePolygon, rooms.ShapePolyline:
		if len(o.Points) == 0 {
			return cp.NewBBForCircle(origin, 0)
		}
		first := o.Points[0]
		bb := cp.NewBBForCircle(origin.Add(cp.Vector{X: first.X, Y: first.Y}), 0)
		for _, p := range o.Points[1:] {
			bb = bb.Expand(origin.Add(cp.Vector{X: p.X, Y: p.Y}))
		}
		return bb
	case rooms.ShapeTile:
		return cp.BB{L: o.X, B: o.Y - o.Height, R: o.X + o.Width, T: o.Y}
	}
	return cp.BB{L: o.X, B: o.Y, R: o.X + o.Width, T: o.Y + o.Height}
}

func objectLabel(o rooms.Object) string {
	if o.Name != "" {
		return fmt.Sprintf("%s#%d", o.Name, o.ID)
	}
	return fmt.Sprintf("#%d", o.ID)
}

// objectGroups returns the named object group, or every object group in the
// room when layer is empty.
func objectGroups(room *rooms.Room, layer string) []*rooms.Layer {
	if layer != "" {
		if l := room.FindLayer(layer); l != nil && l.Type == rooms.ObjectGroup {
			return []*rooms.Layer{l}
		}
		return nil
	}
	var out []*rooms.Layer
	room.Walk(func(l *rooms.Layer, _ int) bool {
		if l.Type == rooms.ObjectGroup {
			out = append(out, l)
		}
		return true
	})
	return out
}

func geometryID(kind, layer string) string {
	if layer == "" {
		return kind
	}
	return kind + ":" + layer
}

// ZeroSizeObjects fails for objects with no area. A polygon is measured by
// the box around its vertices. Points and polylines are exempt.
func ZeroSizeObjects(layer string) Rule {
	return &Func{
		RuleID: geometryID("zero-size-objects", layer),
		Desc:   "objects have a positive size",
		Fn: func(room *rooms.Room) Result {
			groups := objectGroups(room, layer)
			if len(groups) == 0 {
				return NA()
			}
			var bad []string
			for _, g := range groups {
				for _, o := range g.Objects {
					if o.Shape == rooms.ShapePoint || o.Shape == rooms.ShapePolyline {
						continue
					}
					bb := objectBB(o)
					if bb.R <= bb.L || bb.T <= bb.B || bb.Area() <= 0 {
						bad = append(bad, g.Name+"/"+objectLabel(o))
					}
				}
			}
			if len(bad) > 0 {
				return Result{Status: StatusFail, Detail: &Detail{Values: bad, Count: len(bad)}}
			}
			return Pass()
		},
	}
}

// ObjectsInBounds fails for objects lying entirely outside the room's pixel
// bounds. Rooms without a size are not applicable.
func ObjectsInBounds(layer string) Rule {
	return &Func{
		RuleID: geometryID("objects-in-bounds", layer),
		Desc:   "objects overlap the room bounds",
		Fn: func(room *rooms.Room) Result {
			if room.Width <= 0 || room.Height <= 0 || room.TileWidth <= 0 || room.TileHeight <= 0 {
				return NA()
			}
			groups := objectGroups(room, layer)
			if len(groups) == 0 {
				return NA()
			}
			bounds := cp.BB{
				L: 0,
				B: 0,
				R: float64(room.Width * room.TileWidth),
				T: float64(room.Height * room.TileHeight),
			}
			var out []string
			for _, g := range groups {
				for _, o := range g.Objects {
					inside := bounds.Intersects(objectBB(o))
					if o.Shape == rooms.ShapePoint {
						inside = bounds.ContainsVect(cp.Vector{X: o.X, Y: o.Y})
					}
					if !inside {
						out = append(out, g.Name+"/"+objectLabel(o))
					}
				}
			}
			if len(out) > 0 {
				return Result{Status: StatusFail, Detail: &Detail{Values: out, Count: len(out)}}
			}
			return Pass()
		},
	}
}
