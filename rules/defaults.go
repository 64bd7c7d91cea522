package rules

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/milk9111/roomcheck/rooms"
)

// DefaultParallax is the parallax factor each well-known layer name is
// expected to carry. Numbered copies ("bg2") share the entry of their base name.
var DefaultParallax = map[string]float64{
	"ref:camera":   0.0,
	"auto:walls":   0.9,
	"auto:iso":     0.9,
	"bg-walls":     0.9,
	"bg":           0.9,
	"bg-iso":       0.9,
	"bg-iso-walls": 0.9,
}

// DefaultLocked lists layer names that are expected to be locked.
var DefaultLocked = []string{"ref:camera"}

var trailingDigit = regexp.MustCompile(`\d$`)

// BaseLayerName strips one trailing digit, so "bg2" and "bg" share defaults.
func BaseLayerName(name string) string {
	return trailingDigit.ReplaceAllString(name, "")
}

const parallaxEpsilon = 1e-9

// LayerDefaults checks the top-level layers of a room against a parallax
// table and a lock list. Layers whose base name is in neither are ignored, and
// rooms with no such layers are not applicable.
func LayerDefaults(parallax map[string]float64, locked []string) Rule {
	table := make(map[string]float64, len(parallax))
	for k, v := range parallax {
		table[k] = v
	}
	lock := make(map[string]bool, len(locked))
	for _, n := range locked {
		lock[n] = true
	}

	return &Func{
		RuleID: "layer-defaults",
		Desc:   "well-known layers carry their default parallax and lock state",
		Fn: func(room *rooms.Room) Result {
			var problems []string
			seen := false
			for i := len(room.Layers) - 1; i >= 0; i-- {
				l := room.Layers[i]
				base := BaseLayerName(l.Name)
				if want, ok := table[base]; ok {
					seen = true
					if math.Abs(l.ParallaxX-want) > parallaxEpsilon || math.Abs(l.ParallaxY-want) > parallaxEpsilon {
						problems = append(problems, fmt.Sprintf("%s: parallax %g,%g want %g", l.Name, l.ParallaxX, l.ParallaxY, want))
					}
				}
				if lock[base] {
					seen = true
					if !l.Locked {
						problems = append(problems, fmt.Sprintf("%s: not locked", l.Name))
					}
				}
			}
			if !seen {
				return NA()
			}
			if len(problems) == 0 {
				return Pass()
			}
			sort.Strings(problems)
			return Result{Status: StatusFail, Detail: &Detail{Values: problems, Count: len(problems)}}
		},
	}
}
