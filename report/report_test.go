package report

import (
	"errors"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/milk9111/roomcheck/rooms"
	"github.com/milk9111/roomcheck/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collection(t *testing.T, docs map[string]string) *rooms.Collection {
	t.Helper()
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)
	c := &rooms.Collection{}
	for _, name := range names {
		r, err := rooms.Parse(name, []byte(docs[name]))
		require.NoError(t, err)
		c.Rooms = append(c.Rooms, r)
	}
	return c
}

func run(c *rooms.Collection, rs ...rules.Rule) *Report {
	return Summarize(c, rules.Evaluate(c, rs))
}

func TestEmptyCollection(t *testing.T) {
	rep := run(&rooms.Collection{}, rules.HasLayer("auto:walls"), rules.LayerNonEmpty("floors"))
	assert.Empty(t, rep.Sections)
	assert.Equal(t, "0 rooms loaded.\n", rep.String())
	assert.Zero(t, rep.Findings())
}

func TestLayerNonEmptyReport(t *testing.T) {
	c := collection(t, map[string]string{
		"a.json": `{"layers":[{"name":"floors","type":"objectgroup","objects":[{"name":"obj1"},{"name":"obj2"}]}]}`,
		"b.json": `{"layers":[{"name":"floors","type":"objectgroup","objects":[]}]}`,
	})
	rep := run(c, rules.LayerNonEmpty("floors"))

	sec := rep.Section("layer-nonempty:floors")
	require.NotNil(t, sec)
	assert.Equal(t, []string{"b.json"}, sec.Failed())
	assert.Equal(t, 1, sec.Counts[rules.StatusPass])
	assert.Equal(t, 1, sec.Counts[rules.StatusFail])

	want := "2 rooms loaded.\n" +
		"layer-nonempty:floors: 1 need attention\n" +
		"  b.json\n"
	if diff := cmp.Diff(want, rep.String()); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderQuietAndErrors(t *testing.T) {
	c := collection(t, map[string]string{
		"a.json": `{"layers":[{"name":"floors","type":"objectgroup","objects":[{"name":"x"}]},{"name":"auto:walls","type":"tilelayer","data":[1]}]}`,
		"b.json": `{"layers":[{"name":"floors","type":"objectgroup"}]}`,
		"c.json": `{"layers":[{"name":"walls","type":"tilelayer","data":[1]}]}`,
	})
	c.Failures = []*rooms.LoadError{{Path: "broken.json", Err: errors.New("unexpected end of JSON input")}}

	rep := run(c,
		rules.HasLayer("walls"),
		rules.LayerNonEmpty("floors"),
		rules.HasLayer("auto:walls"),
	)

	want := "3 rooms loaded.\n" +
		"  broken.json: unexpected end of JSON input\n" +
		"has-layer:walls: 2 need attention\n" +
		"  a.json\n" +
		"  b.json\n" +
		"layer-nonempty:floors: 1 need attention\n" +
		"  b.json: required field missing: object group \"floors\" has no objects field\n" +
		"has-layer:auto:walls: 2 need attention\n" +
		"  b.json\n" +
		"  c.json\n"
	if diff := cmp.Diff(want, rep.String()); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, rep.Findings())

	// na is neutral: c.json has no floors layer.
	assert.Equal(t, 1, rep.Section("layer-nonempty:floors").Counts[rules.StatusNA])
}

func TestAllPassIsQuiet(t *testing.T) {
	c := collection(t, map[string]string{
		"a.json": `{"layers":[{"name":"floors","type":"objectgroup","objects":[{"name":"x"}]}]}`,
	})
	rep := run(c, rules.HasLayer("floors"), rules.LayerNonEmpty("respawn"))
	assert.Equal(t, "1 rooms loaded.\n", rep.String())

	// The respawn rule is na in every room and still prints nothing.
	sec := rep.Section("layer-nonempty:respawn")
	require.NotNil(t, sec)
	assert.Equal(t, 1, sec.Counts[rules.StatusNA])
	assert.Empty(t, sec.Failed())
	assert.Zero(t, rep.Findings())
}

func TestRenderColor(t *testing.T) {
	c := collection(t, map[string]string{
		"b.json": `{"layers":[{"name":"floors","type":"objectgroup","objects":[]}]}`,
	})
	rep := run(c, rules.LayerNonEmpty("floors"))

	var sb strings.Builder
	require.NoError(t, rep.Render(&sb, RenderOptions{Color: true}))
	out := sb.String()
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "layer-nonempty:floors: 1 need attention")
	assert.Contains(t, out, "  b.json\n")
}

const tagged = `{"layers":[{"name":"tags","type":"objectgroup","objects":[%s]}]}`

func tags(names ...string) string {
	var objs []string
	for _, n := range names {
		objs = append(objs, `{"name":"`+n+`"}`)
	}
	return strings.Replace(tagged, "%s", strings.Join(objs, ","), 1)
}

func TestDuplicates(t *testing.T) {
	c := collection(t, map[string]string{
		"a.json": tags("purple-pen:torch", "purple-pen:key"),
		"b.json": tags("purple-pen:torch+increase-health"),
		"c.json": tags("purple-pen:lever", "purple-pen:lever/variant"),
		"d.json": tags("door"),
	})
	source := rules.ObjectsWithPrefix("tags", "purple-pen:")
	rep := run(c, source)

	norm, err := NewNormalizer(
		Transform{Kind: "trim-prefix", Arg: "purple-pen:"},
		Transform{Kind: "cut-after", Arg: "+"},
		Transform{Kind: "cut-after", Arg: "/"},
	)
	require.NoError(t, err)
	res := rep.AddAggregate(&Duplicates{Source: source.ID(), Normalize: norm})

	want := []Finding{
		{Value: "lever", Filenames: []string{"c.json"}},
		{Value: "torch", Filenames: []string{"a.json", "b.json"}},
	}
	if diff := cmp.Diff(want, res.Findings); diff != "" {
		t.Fatalf("findings mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "duplicates:objects-with-prefix:tags:purple-pen:", res.ID)
	assert.Contains(t, rep.String(),
		"duplicates:objects-with-prefix:tags:purple-pen:: 2 need attention\n"+
			"  lever: c.json\n"+
			"  torch: a.json, b.json\n")
}

func TestDuplicatesTorchScenario(t *testing.T) {
	c := collection(t, map[string]string{
		"a.json": tags("purple-pen:torch"),
		"b.json": tags("purple-pen:torch"),
	})
	source := rules.ObjectsWithPrefix("tags", "purple-pen:")
	rep := run(c, source)
	norm, err := NewNormalizer(Transform{Kind: "trim-prefix", Arg: "purple-pen:"})
	require.NoError(t, err)

	res := rep.AddAggregate(&Duplicates{Source: source.ID(), Normalize: norm})
	assert.Equal(t, []Finding{{Value: "torch", Filenames: []string{"a.json", "b.json"}}}, res.Findings)
}

func TestDuplicatesOrderIndependent(t *testing.T) {
	docs := map[string]string{
		"a.json": tags("purple-pen:torch", "purple-pen:gate"),
		"b.json": tags("purple-pen:torch"),
		"c.json": tags("purple-pen:gate+open"),
		"d.json": tags("purple-pen:well"),
		"e.json": tags("purple-pen:well", "purple-pen:torch"),
	}
	source := rules.ObjectsWithPrefix("tags", "purple-pen:")
	norm, err := NewNormalizer(
		Transform{Kind: "trim-prefix", Arg: "purple-pen:"},
		Transform{Kind: "cut-after", Arg: "+"},
	)
	require.NoError(t, err)

	base := collection(t, docs)
	want := run(base, source).AddAggregate(&Duplicates{Source: source.ID(), Normalize: norm}).Findings

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := &rooms.Collection{Rooms: append([]*rooms.Room(nil), base.Rooms...)}
		rng.Shuffle(len(shuffled.Rooms), func(a, b int) {
			shuffled.Rooms[a], shuffled.Rooms[b] = shuffled.Rooms[b], shuffled.Rooms[a]
		})
		got := run(shuffled, source).AddAggregate(&Duplicates{Source: source.ID(), Normalize: norm}).Findings
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("permutation %d changed findings (-want +got):\n%s", i, diff)
		}
	}
}

func TestUnused(t *testing.T) {
	c := collection(t, map[string]string{
		"a.json": tags("lore:1.01.1"),
	})
	source := rules.ObjectsWithPrefix("tags", "lore:")
	norm, err := NewNormalizer(Transform{Kind: "trim-prefix", Arg: "lore:"})
	require.NoError(t, err)

	t.Run("skip_marker", func(t *testing.T) {
		rep := run(c, source)
		res := rep.AddAggregate(&Unused{
			Name:      "lore",
			Source:    source.ID(),
			Normalize: norm,
			Catalog: func() (map[string]string, error) {
				return map[string]string{"1.01.1": "Some Lore", "1.02.1": "-skip"}, nil
			},
		})
		require.NoError(t, res.Err)
		assert.Empty(t, res.Findings)
		assert.Equal(t, "1 rooms loaded.\n", rep.String())
	})

	t.Run("unreferenced", func(t *testing.T) {
		rep := run(c, source)
		res := rep.AddAggregate(&Unused{
			Name:      "lore",
			Source:    source.ID(),
			Normalize: norm,
			Catalog: func() (map[string]string, error) {
				return map[string]string{"1.01.1": "a", "2.01.1": "b", "1.03.1": "c", "9.9": "#hidden"}, nil
			},
			SkipMarker: "#",
		})
		assert.Equal(t, []Finding{{Value: "1.03.1"}, {Value: "2.01.1"}}, res.Findings)
		assert.Contains(t, rep.String(), "unused:lore: 2 need attention\n  1.03.1\n  2.01.1\n")
	})

	t.Run("missing_catalog", func(t *testing.T) {
		rep := run(c, source, rules.HasLayer("respawn"))
		missing := errors.New("open lore.json: no such file or directory")
		res := rep.AddAggregate(&Unused{
			Name:    "lore",
			Source:  source.ID(),
			Catalog: func() (map[string]string, error) { return nil, missing },
		})
		assert.ErrorIs(t, res.Err, missing)

		want := "1 rooms loaded.\n" +
			"has-layer:respawn: 1 need attention\n" +
			"  a.json\n" +
			"unused:lore: configuration error: open lore.json: no such file or directory\n"
		if diff := cmp.Diff(want, rep.String()); diff != "" {
			t.Fatalf("render mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestExcludedRoomsStillFeedAggregates(t *testing.T) {
	c := collection(t, map[string]string{
		"a.json":          tags("purple-pen:torch"),
		"outlands_1.json": tags("purple-pen:torch"),
	})
	source := rules.Exclude(rules.ObjectsWithPrefix("tags", "purple-pen:"), "outlands_*.json")
	rep := run(c, source)
	res := rep.AddAggregate(&Duplicates{Source: source.ID()})
	assert.Equal(t, []Finding{{Value: "purple-pen:torch", Filenames: []string{"a.json", "outlands_1.json"}}}, res.Findings)
}

func TestDeterministic(t *testing.T) {
	docs := map[string]string{
		"a.json": tags("purple-pen:torch"),
		"b.json": `{"layers":[{"name":"floors","type":"objectgroup","objects":[]}]}`,
		"c.json": `{"layers":[{"name":"hazards","type":"objectgroup","objects":[]}]}`,
	}
	rs := []rules.Rule{
		rules.HasLayer("tags"),
		rules.LayerNonEmpty("floors"),
		rules.ConditionalRequirement([]string{"hazards"}, "respawn"),
		rules.ObjectsWithPrefix("tags", "purple-pen:"),
	}
	first := run(collection(t, docs), rs...).String()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, run(collection(t, docs), rs...).String())
	}
}
