package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizer(t *testing.T) {
	tests := []struct {
		name  string
		chain []Transform
		in    string
		want  string
	}{
		{"empty_chain", nil, "purple-pen:torch", "purple-pen:torch"},
		{"trim_prefix", []Transform{{Kind: "trim-prefix", Arg: "purple-pen:"}}, "purple-pen:torch", "torch"},
		{"trim_suffix", []Transform{{Kind: "trim-suffix", Arg: ".json"}}, "room.json", "room"},
		{"cut_after", []Transform{{Kind: "cut-after", Arg: "+"}}, "key+increase-health+x", "key"},
		{"cut_after_absent", []Transform{{Kind: "cut-after", Arg: "+"}}, "key", "key"},
		{"cut_before", []Transform{{Kind: "cut-before", Arg: "/"}}, "a/b/c", "c"},
		{"replace", []Transform{{Kind: "replace", Arg: `_v\d+$`, With: ""}}, "gate_v12", "gate"},
		{"fold", []Transform{{Kind: "fold"}}, "Torch", "torch"},
		{"trim_space", []Transform{{Kind: "trim-space"}}, "  torch ", "torch"},
		{
			name: "chain_order",
			chain: []Transform{
				{Kind: "trim-prefix", Arg: "purple-pen:"},
				{Kind: "cut-after", Arg: "+"},
				{Kind: "cut-before", Arg: "/"},
				{Kind: "fold"},
			},
			in:   "purple-pen:Castle/Torch+increase-health",
			want: "torch",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, err := NewNormalizer(tc.chain...)
			require.NoError(t, err)
			if got := n.Apply(tc.in); got != tc.want {
				t.Fatalf("Apply(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizerErrors(t *testing.T) {
	tests := []struct {
		name string
		step Transform
		msg  string
	}{
		{"unknown", Transform{Kind: "lowercase"}, `unknown transform kind "lowercase"`},
		{"missing_arg", Transform{Kind: "trim-prefix"}, "trim-prefix needs arg"},
		{"bad_regexp", Transform{Kind: "replace", Arg: "("}, "replace:"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewNormalizer(Transform{Kind: "fold"}, tc.step)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "step 1")
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}
