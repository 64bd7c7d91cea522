package rooms

import "strings"

// LayerType is the normalized kind of a layer.
type LayerType int

const (
	LayerOther LayerType = iota
	TileLayer
	ObjectGroup
	GroupLayer
)

func (t LayerType) String() string {
	switch t {
	case TileLayer:
		return "tilelayer"
	case ObjectGroup:
		return "objectgroup"
	case GroupLayer:
		return "group"
	default:
		return "other"
	}
}

func parseLayerType(s string) LayerType {
	switch s {
	case "tilelayer":
		return TileLayer
	case "objectgroup":
		return ObjectGroup
	case "group":
		return GroupLayer
	default:
		return LayerOther
	}
}

// Room is one parsed map document.
type Room struct {
	Filename   string
	Width      int
	Height     int
	TileWidth  int
	TileHeight int
	Properties map[string]any
	Layers     []*Layer

	// Raw is the whole parsed document for rules that need fields the model
	// does not promote.
	Raw map[string]any
}

// Layer is a node in a room's layer tree. A group owns its Children.
type Layer struct {
	ID         int
	Name       string
	Type       LayerType
	RawType    string
	Visible    bool
	Locked     bool
	ParallaxX  float64
	ParallaxY  float64
	Properties map[string]any

	// Data holds decoded cells for tile layers. HasData is false when the
	// layer carried no data or it could not be decoded (see DataErr).
	Data    []uint32
	HasData bool
	DataErr error

	// Objects is set for object groups; HasObjects is false when the source
	// layer had no objects field at all.
	Objects    []Object
	HasObjects bool

	Children []*Layer
}

// Object is a placed object on an object group.
type Object struct {
	ID     int
	Name   string
	Type   string
	Shape  Shape
	X      float64
	Y      float64
	Width  float64
	Height float64

	// Points are the vertices of a polygon or polyline, relative to X, Y.
	// Those shapes are exported with a zero Width and Height.
	Points []Point

	// GID is the tile of a tile object. Its X, Y is the bottom-left corner.
	GID uint32

	Visible    bool
	Properties map[string]any
}

// Point is an object vertex.
type Point struct {
	X, Y float64
}

// Shape is the kind of an object.
type Shape int

const (
	ShapeRect Shape = iota
	ShapeEllipse
	ShapePoint
	ShapePolygon
	ShapePolyline
	ShapeTile
)

func (s Shape) String() string {
	switch s {
	case ShapeEllipse:
		return "ellipse"
	case ShapePoint:
		return "point"
	case ShapePolygon:
		return "polygon"
	case ShapePolyline:
		return "polyline"
	case ShapeTile:
		return "tile"
	default:
		return "rect"
	}
}

// NonZeroCells counts cells with a tile assigned.
func (l *Layer) NonZeroCells() int {
	n := 0
	for _, c := range l.Data {
		if c != 0 {
			n++
		}
	}
	return n
}

// FindLayer searches the tree depth first, last declared layer first at each
// level, and returns the first layer named name.
func (r *Room) FindLayer(name string) *Layer {
	if r == nil {
		return nil
	}
	l, _ := findLayer(r.Layers, name, nil)
	return l
}

// FindLayerPath is FindLayer but also returns the names of the groups leading
// to the match, ending with the layer itself.
func (r *Room) FindLayerPath(name string) (*Layer, []string) {
	if r == nil {
		return nil, nil
	}
	return findLayer(r.Layers, name, nil)
}

func findLayer(layers []*Layer, name string, path []string) (*Layer, []string) {
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		here := append(path[:len(path):len(path)], l.Name)
		if l.Name == name {
			return l, here
		}
		if l.Type == GroupLayer {
			if found, p := findLayer(l.Children, name, here); found != nil {
				return found, p
			}
		}
	}
	return nil, nil
}

// LayerAt resolves a slash separated path of layer names, one segment per
// nesting depth. Within a depth the last declared match wins, like FindLayer.
func (r *Room) LayerAt(path string) *Layer {
	if r == nil || path == "" {
		return nil
	}
	layers := r.Layers
	var cur *Layer
	for _, seg := range strings.Split(path, "/") {
		cur = nil
		for i := len(layers) - 1; i >= 0; i-- {
			if layers[i].Name == seg {
				cur = layers[i]
				break
			}
		}
		if cur == nil {
			return nil
		}
		layers = cur.Children
	}
	return cur
}

// Walk visits every layer in FindLayer order. Returning false stops the walk.
func (r *Room) Walk(fn func(l *Layer, depth int) bool) {
	if r == nil {
		return
	}
	walk(r.Layers, 0, fn)
}

func walk(layers []*Layer, depth int, fn func(*Layer, int) bool) bool {
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if !fn(l, depth) {
			return false
		}
		if l.Type == GroupLayer && !walk(l.Children, depth+1, fn) {
			return false
		}
	}
	return true
}

// Collection is the set of rooms loaded for one run, sorted by Filename.
type Collection struct {
	Dir      string
	Rooms    []*Room
	Failures []*LoadError
}

// Len reports the number of rooms that loaded.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Rooms)
}

// Room returns the room with the given filename.
func (c *Collection) Room(filename string) (*Room, bool) {
	if c == nil {
		return nil, false
	}
	for _, r := range c.Rooms {
		if r.Filename == filename {
			return r, true
		}
	}
	return nil, false
}
