package tagpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	codec := NewCodec()

	tests := []struct {
		name     string
		raw      string
		expected []string
		wantErr  bool
	}{
		{"single segment", "aaa", []string{"aaa"}, false},
		{"nested path", "aaa::bbb::ccc", []string{"aaa", "bbb", "ccc"}, false},
		{"surrounding whitespace", "  aaa::bbb  ", []string{"aaa", "bbb"}, false},
		{"whitespace around segments", "aaa :: bbb", []string{"aaa", "bbb"}, false},
		{"empty is root", "", []string{}, false},
		{"whitespace only is root", "   ", []string{}, false},
		{"trailing separator", "aaa::", nil, true},
		{"leading separator", "::aaa", nil, true},
		{"empty middle segment", "aaa::::bbb", nil, true},
		{"whitespace segment", "aaa:: ::bbb", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, err := codec.Parse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidPath)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, segments)
			}
		})
	}
}

func TestCanonicalize(t *testing.T) {
	codec := NewCodec()

	tests := []struct {
		raw      string
		expected string
	}{
		{"aaa", "aaa"},
		{"aaa::bbb", "aaa::bbb"},
		{" aaa :: bbb ", "aaa::bbb"},
		{"", ""},
		{"  ", ""},
	}

	for _, tt := range tests {
		canonical, err := codec.Canonicalize(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, canonical)
	}
}

func TestRoundTrip(t *testing.T) {
	codec := NewCodec()

	for _, segments := range [][]string{
		{"a"},
		{"a", "b", "c"},
		{"with space", "an:embedded:single:colon"},
	} {
		parsed, err := codec.Parse(codec.Join(segments...))
		require.NoError(t, err)
		assert.Equal(t, segments, parsed)
	}
}

func TestPathAccessors(t *testing.T) {
	codec := NewCodec()

	assert.Equal(t, "a::b", codec.ParentPath("a::b::c"))
	assert.Equal(t, "", codec.ParentPath("a"))
	assert.Equal(t, "", codec.ParentPath(""))

	assert.Equal(t, "c", codec.ShortName("a::b::c"))
	assert.Equal(t, "a", codec.ShortName("a"))

	assert.Equal(t, 3, codec.Depth("a::b::c"))
	assert.Equal(t, 1, codec.Depth("a"))
	assert.Equal(t, 0, codec.Depth(""))

	assert.Equal(t, "a::b::c", codec.JoinChild("a::b", "c"))
	assert.Equal(t, "a", codec.JoinChild("", "a"))
}

func TestAncestors(t *testing.T) {
	codec := NewCodec()

	assert.Empty(t, codec.Ancestors("a"))
	assert.Equal(t, []string{"a"}, codec.Ancestors("a::b"))
	assert.Equal(t, []string{"a", "a::b"}, codec.Ancestors("a::b::c"))
}

func TestChildPrefix(t *testing.T) {
	codec := NewCodec()

	assert.Equal(t, "a::b::", codec.ChildPrefix("a::b"))
	assert.Equal(t, "", codec.ChildPrefix(""))
}

func TestCustomSeparator(t *testing.T) {
	codec := NewCodec(WithSeparator("/"))

	segments, err := codec.Parse("a/b/c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, segments)
	assert.Equal(t, "a/b", codec.ParentPath("a/b/c"))
	assert.Equal(t, 3, codec.Depth("a/b/c"))

	// "::" is an ordinary segment character under a "/" separator.
	segments, err = codec.Parse("a::b/c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a::b", "c"}, segments)
}

func TestEmptySeparatorFallsBack(t *testing.T) {
	codec := NewCodec(WithSeparator(""))
	assert.Equal(t, DefaultSeparator, codec.Separator())
}
