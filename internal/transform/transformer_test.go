package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/types"
)

func one(value string, actions ...config.TransformAction) string {
	tr, err := New([]config.TransformRule{{Field: "f", Actions: actions}})
	if err != nil {
		panic(err)
	}
	return tr.Apply([]types.Row{{Values: map[string]string{"f": value, "other": "fallback"}}})[0].Value("f")
}

func TestActions(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		action config.TransformAction
		want   string
	}{
		{"prepend", "123", config.TransformAction{Type: ActionPrepend, Value: "A"}, "A123"},
		{"append", "123", config.TransformAction{Type: ActionAppend, Value: "-00"}, "123-00"},
		{"trim", "  x ", config.TransformAction{Type: ActionTrim}, "x"},
		{"uppercase", "inv-1", config.TransformAction{Type: ActionUppercase}, "INV-1"},
		{"lowercase", "ABC", config.TransformAction{Type: ActionLowercase}, "abc"},
		{"replace", "a-b-c", config.TransformAction{Type: ActionReplace, Find: "-", Value: "_"}, "a_b_c"},
		{"regex replace", "ABC-123-DEF", config.TransformAction{Type: ActionRegexReplace, Find: "[A-Z]+", Value: "X"}, "X-123-X"},
		{"pad zeros", "7", config.TransformAction{Type: ActionPadZeros, Value: "3"}, "007"},
		{"pad zeros noop", "1234", config.TransformAction{Type: ActionPadZeros, Value: "3"}, "1234"},
		{"remove leading zeros", "000120", config.TransformAction{Type: ActionRemoveLeadZeros}, "120"},
		{"remove leading zeros keeps one", "000", config.TransformAction{Type: ActionRemoveLeadZeros}, "0"},
		{"lookup hit", "01", config.TransformAction{Type: ActionLookup, LookupTable: map[string]string{"01": "Jan"}}, "Jan"},
		{"lookup miss", "02", config.TransformAction{Type: ActionLookup, LookupTable: map[string]string{"01": "Jan"}}, "02"},
		{"lookup default", "02", config.TransformAction{Type: ActionLookupDefault, Value: "?", LookupTable: map[string]string{"01": "Jan"}}, "?"},
		{"if empty default", " ", config.TransformAction{Type: ActionIfEmptyDefault, Value: "N/A"}, "N/A"},
		{"if empty use field", "", config.TransformAction{Type: ActionIfEmptyUseField, Value: "other"}, "fallback"},
		{"normalize whitespace", " a   b\tc ", config.TransformAction{Type: ActionNormalizeSpacing}, "a b c"},
		{"extract digits", "(555) 123-4567", config.TransformAction{Type: ActionExtractDigits}, "5551234567"},
	}
	for _, tt := range tests {
		t.Run("Should apply "+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, one(tt.in, tt.action))
		})
	}

	t.Run("Should chain actions in order", func(t *testing.T) {
		got := one(" 7 ",
			config.TransformAction{Type: ActionTrim},
			config.TransformAction{Type: ActionPadZeros, Value: "3"},
			config.TransformAction{Type: ActionPrepend, Value: "INV-"},
		)
		assert.Equal(t, "INV-007", got)
	})
}

func TestNew(t *testing.T) {
	t.Run("Should reject unknown action types", func(t *testing.T) {
		_, err := New([]config.TransformRule{{Field: "f", Actions: []config.TransformAction{{Type: "explode"}}}})
		assert.ErrorContains(t, err, "unknown transformation type")
	})

	t.Run("Should reject bad regular expressions", func(t *testing.T) {
		_, err := New([]config.TransformRule{{Field: "f", Actions: []config.TransformAction{{Type: ActionRegexReplace, Find: "("}}}})
		assert.Error(t, err)
	})

	t.Run("Should reject a non-numeric pad length", func(t *testing.T) {
		_, err := New([]config.TransformRule{{Field: "f", Actions: []config.TransformAction{{Type: ActionPadZeros, Value: "x"}}}})
		assert.Error(t, err)
	})
}

func TestApply(t *testing.T) {
	t.Run("Should leave the input rows untouched", func(t *testing.T) {
		tr, err := New([]config.TransformRule{{Field: "k", Actions: []config.TransformAction{{Type: ActionUppercase}}}})
		require.NoError(t, err)

		in := []types.Row{{Index: 4, Line: 6, Values: map[string]string{"k": "abc"}}, {Index: 5, Values: map[string]string{"x": "y"}}}
		out := tr.Apply(in)

		assert.Equal(t, "abc", in[0].Value("k"))
		assert.Equal(t, "ABC", out[0].Value("k"))
		assert.Equal(t, 4, out[0].Index)
		assert.Equal(t, 6, out[0].Line)
		_, ok := out[1].Get("k")
		assert.False(t, ok, "absent columns are not created")
	})

	t.Run("Should return the same rows when there are no rules", func(t *testing.T) {
		tr, err := New(nil)
		require.NoError(t, err)
		in := []types.Row{{Values: map[string]string{"a": "b"}}}
		assert.True(t, tr.Empty())
		assert.Equal(t, in, tr.Apply(in))
	})
}
