package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/milk9111/roomcheck/rooms"
)

// Match is where a layer name resolved in one room. Path is empty when the
// room has no such layer.
type Match struct {
	Filename string
	Path     []string
}

// FindLayers resolves name in every room using the same search as has-layer.
func FindLayers(c *rooms.Collection, name string) []Match {
	out := make([]Match, 0, len(c.Rooms))
	for _, room := range c.Rooms {
		_, path := room.FindLayerPath(name)
		out = append(out, Match{Filename: room.Filename, Path: path})
	}
	return out
}

func WriteMatches(w io.Writer, matches []Match) error {
	for _, m := range matches {
		path := "-"
		if len(m.Path) > 0 {
			path = strings.Join(m.Path, "/")
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", m.Filename, path); err != nil {
			return err
		}
	}
	return nil
}

// Stat is the size of one room's layer: objects for an object group, non-zero
// cells for a tile layer.
type Stat struct {
	Filename string
	Type     rooms.LayerType
	Count    int
}

// LayerStats measures the named layer in every room that has it, smallest
// first. Ties keep collection order.
func LayerStats(c *rooms.Collection, name string) []Stat {
	var out []Stat
	for _, room := range c.Rooms {
		l := room.FindLayer(name)
		if l == nil {
			continue
		}
		s := Stat{Filename: room.Filename, Type: l.Type}
		switch l.Type {
		case rooms.ObjectGroup:
			s.Count = len(l.Objects)
		case rooms.TileLayer:
			s.Count = l.NonZeroCells()
		case rooms.GroupLayer:
			s.Count = len(l.Children)
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count < out[j].Count })
	return out
}

func WriteStats(w io.Writer, stats []Stat) error {
	for _, s := range stats {
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n", s.Count, s.Type, s.Filename); err != nil {
			return err
		}
	}
	return nil
}
