package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const torchScript = `
text := import("text")

tags := find_layer("tags")
if is_undefined(tags) {
	status = "na"
} else {
	for o in tags.objects {
		if text.has_prefix(o.name, "purple-pen:") {
			values = append(values, o.name)
		}
	}
	if len(values) > 0 {
		status = "pass"
	} else {
		status = "fail"
		note = "no purple pen marks in " + room.filename
	}
}
`

func TestScriptRule(t *testing.T) {
	rule, err := NewScript("torches", "", []byte(torchScript))
	require.NoError(t, err)
	assert.Equal(t, "script:torches", rule.ID())
	assert.Equal(t, "script torches", rule.Description())

	tests := []struct {
		name   string
		doc    string
		want   Status
		values []string
		note   string
	}{
		{
			name:   "marked",
			doc:    `{"layers":[{"name":"tags","type":"objectgroup","objects":[{"name":"purple-pen:torch"},{"name":"door"}]}]}`,
			want:   StatusPass,
			values: []string{"purple-pen:torch"},
		},
		{
			name: "unmarked",
			doc:  `{"layers":[{"name":"tags","type":"objectgroup","objects":[{"name":"door"}]}]}`,
			want: StatusFail,
			note: "no purple pen marks in unmarked.json",
		},
		{
			name: "no_tags",
			doc:  `{"layers":[]}`,
			want: StatusNA,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := rule.Check(mustRoom(t, tc.name+".json", tc.doc))
			require.Equal(t, tc.want, got.Status, "err: %v", got.Err)
			assert.Equal(t, tc.values, got.Values())
			assert.Equal(t, tc.note, got.Note())
		})
	}
}

func TestScriptRuleIsReentrant(t *testing.T) {
	rule, err := NewScript("torches", "", []byte(torchScript))
	require.NoError(t, err)

	marked := mustRoom(t, "a.json", `{"layers":[{"name":"tags","type":"objectgroup","objects":[{"name":"purple-pen:a"}]}]}`)
	unmarked := mustRoom(t, "b.json", `{"layers":[{"name":"tags","type":"objectgroup","objects":[]}]}`)

	for i := 0; i < 3; i++ {
		assert.Equal(t, StatusPass, rule.Check(marked).Status)
		assert.Equal(t, []string{"purple-pen:a"}, rule.Check(marked).Values())
		assert.Equal(t, StatusFail, rule.Check(unmarked).Status)
	}
}

func TestScriptRuleErrors(t *testing.T) {
	room := mustRoom(t, "a.json", `{"layers":[{"name":"floors","type":"objectgroup","objects":[]}]}`)

	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{name: "no_status", src: `x := 1`, msg: "did not set status"},
		{name: "bad_status", src: `status = "maybe"`, msg: `unknown status "maybe"`},
		{name: "runtime", src: `f := room.filename; f()`, msg: "script:"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rule, err := NewScript(tc.name, "", []byte(tc.src))
			require.NoError(t, err)
			got := rule.Check(room)
			require.Equal(t, StatusError, got.Status)
			assert.Contains(t, got.Err.Error(), tc.msg)
		})
	}

	_, err := NewScript("broken", "", []byte(`status = `))
	assert.Error(t, err)

	_, err = NewScript("no_os", "", []byte(`os := import("os")`))
	assert.Error(t, err)
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "has_floors.tengo")
	src := `if has_layer("floors") { status = "pass" } else { status = "fail" }`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	rule, err := LoadScript(path, "rooms have floors")
	require.NoError(t, err)
	assert.Equal(t, "script:has_floors", rule.ID())
	assert.Equal(t, "rooms have floors", rule.Description())

	assert.Equal(t, StatusPass, rule.Check(mustRoom(t, "a.json", `{"layers":[{"name":"floors","type":"tilelayer","data":[1]}]}`)).Status)
	assert.Equal(t, StatusFail, rule.Check(mustRoom(t, "b.json", `{"layers":[]}`)).Status)

	_, err = LoadScript(filepath.Join(dir, "missing.tengo"), "")
	assert.Error(t, err)
}
