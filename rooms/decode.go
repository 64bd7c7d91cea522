package rooms

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errNoLayers = errors.New("document has no layers array")

type roomDoc struct {
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	TileWidth  int           `json:"tilewidth"`
	TileHeight int           `json:"tileheight"`
	Layers     []layerDoc    `json:"layers"`
	Properties []propertyDoc `json:"properties"`
}

type layerDoc struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Visible     *bool           `json:"visible"`
	Locked      bool            `json:"locked"`
	ParallaxX   *float64        `json:"parallaxx"`
	ParallaxY   *float64        `json:"parallaxy"`
	Data        json.RawMessage `json:"data"`
	Encoding    string          `json:"encoding"`
	Compression string          `json:"compression"`
	Chunks      *[]chunkDoc     `json:"chunks"`
	Objects     *[]objectDoc    `json:"objects"`
	Layers      []layerDoc      `json:"layers"`
	Properties  []propertyDoc   `json:"properties"`
}

type chunkDoc struct {
	X      int             `json:"x"`
	Y      int             `json:"y"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Data   json.RawMessage `json:"data"`
}

type objectDoc struct {
	ID         int           `json:"id"`
	Name       string        `json:"name"`
	Type       string        `json:"type"`
	Class      string        `json:"class"`
	X          float64       `json:"x"`
	Y          float64       `json:"y"`
	Width      float64       `json:"width"`
	Height     float64       `json:"height"`
	Point      bool          `json:"point"`
	Ellipse    bool          `json:"ellipse"`
	Polygon    []pointDoc    `json:"polygon"`
	Polyline   []pointDoc    `json:"polyline"`
	GID        uint32        `json:"gid"`
	Visible    *bool         `json:"visible"`
	Properties []propertyDoc `json:"properties"`
}

type pointDoc struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type propertyDoc struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Parse decodes one room document. filename becomes the room's identifier.
func Parse(filename string, b []byte) (*Room, error) {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	if _, ok := raw["layers"].([]any); !ok {
		return nil, errNoLayers
	}

	var doc roomDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}

	room := &Room{
		Filename:   filename,
		Width:      doc.Width,
		Height:     doc.Height,
		TileWidth:  doc.TileWidth,
		TileHeight: doc.TileHeight,
		Properties: properties(doc.Properties),
		Layers:     make([]*Layer, 0, len(doc.Layers)),
		Raw:        raw,
	}
	for i := range doc.Layers {
		room.Layers = append(room.Layers, promoteLayer(&doc.Layers[i]))
	}
	return room, nil
}

func promoteLayer(d *layerDoc) *Layer {
	l := &Layer{
		ID:         d.ID,
		Name:       d.Name,
		Type:       parseLayerType(d.Type),
		RawType:    d.Type,
		Visible:    d.Visible == nil || *d.Visible,
		Locked:     d.Locked,
		ParallaxX:  1,
		ParallaxY:  1,
		Properties: properties(d.Properties),
	}
	if d.ParallaxX != nil {
		l.ParallaxX = *d.ParallaxX
	}
	if d.ParallaxY != nil {
		l.ParallaxY = *d.ParallaxY
	}

	switch l.Type {
	case TileLayer:
		data, ok, err := decodeLayerData(d)
		if err != nil {
			l.DataErr = fmt.Errorf("layer %q: %w", d.Name, err)
		}
		l.Data, l.HasData = data, ok
	case ObjectGroup:
		if d.Objects != nil {
			l.HasObjects = true
			l.Objects = make([]Object, 0, len(*d.Objects))
			for _, o := range *d.Objects {
				l.Objects = append(l.Objects, promoteObject(o))
			}
		}
	case GroupLayer:
		l.Children = make([]*Layer, 0, len(d.Layers))
		for i := range d.Layers {
			l.Children = append(l.Children, promoteLayer(&d.Layers[i]))
		}
	}
	return l
}

func promoteObject(d objectDoc) Object {
	typ := d.Type
	if typ == "" {
		typ = d.Class
	}
	o := Object{
		ID:         d.ID,
		Name:       d.Name,
		Type:       typ,
		X:          d.X,
		Y:          d.Y,
		Width:      d.Width,
		Height:     d.Height,
		GID:        d.GID,
		Visible:    d.Visible == nil || *d.Visible,
		Properties: properties(d.Properties),
	}
	switch {
	case d.Point:
		o.Shape = ShapePoint
	case d.Ellipse:
		o.Shape = ShapeEllipse
	case d.Polygon != nil:
		o.Shape = ShapePolygon
		o.Points = points(d.Polygon)
	case d.Polyline != nil:
		o.Shape = ShapePolyline
		o.Points = points(d.Polyline)
	case d.GID != 0:
		o.Shape = ShapeTile
	}
	return o
}

func points(ps []pointDoc) []Point {
	out := make([]Point, len(ps))
	for i, p := range ps {
		out[i] = Point{X: p.X, Y: p.Y}
	}
	return out
}

func properties(props []propertyDoc) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for _, p := range props {
		out[p.Name] = p.Value
	}
	return out
}
