package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObject(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"plain", `{"a": 1}`, false},
		{"fenced", "```json\n{\"a\": 1}\n```", false},
		{"prose around", `Here you go: {"a": 1} hope that helps`, false},
		{"no object", `I cannot answer that`, true},
		{"broken", `{"a": }`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := ParseObject(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, obj.Int("a", 0))
		})
	}

	_, err := ParseObject("nothing")
	assert.ErrorIs(t, err, ErrNoJSONObject)
}

func TestObjectAccessors(t *testing.T) {
	obj, err := ParseObject(`{
		"s": "text", "n": 0.75, "ns": "0.5", "i": 87.9, "b": true, "bs": "false",
		"arr": ["x", 3, "y"], "objs": [{"k": "v"}, "skip"], "bad": {"x": 1}
	}`)
	require.NoError(t, err)

	assert.Equal(t, "text", obj.String("s", ""))
	assert.Equal(t, "def", obj.String("missing", "def"))
	assert.Equal(t, "def", obj.String("bad", "def"), "String should reject objects")

	assert.Equal(t, 0.75, obj.Float("n", 0))
	assert.Equal(t, 0.5, obj.Float("ns", 0))
	assert.Equal(t, -1.0, obj.Float("s", -1))

	assert.Equal(t, 87, obj.Int("i", 0), "Int should truncate")
	assert.Equal(t, 5, obj.Int("s", 5), "Int should fall back on non-numeric")

	assert.True(t, obj.Bool("b", false))
	assert.False(t, obj.Bool("bs", true))

	assert.Equal(t, []string{"x", "y"}, obj.Strings("arr"))
	got := obj.Strings("s")
	assert.NotNil(t, got)
	assert.Empty(t, got)

	objs := obj.Objects("objs")
	require.Len(t, objs, 1)
	assert.Equal(t, "v", objs[0].String("k", ""))
}
