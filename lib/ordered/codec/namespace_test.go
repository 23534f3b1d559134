package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakePrefix(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"abc", "abc!"},
		{"abcd", "abcd!"},
		{"bang!", "bang!!!"},
		{"bang!!", "bang!!!!!"},
		{"", "!"},
		{"!", "!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MakePrefix(tt.name))
		})
	}
}

func TestPrefixesNeverNest(t *testing.T) {
	names := []string{"", "a", "a!", "a!!", "!a", "ab", "abc", "abcd", "bang", "bang!", "bang!!", "x!y", "x", "x!"}

	for _, a := range names {
		for _, b := range names {
			if a == b {
				assert.Equal(t, MakePrefix(a), MakePrefix(b))
				continue
			}
			pa, pb := MakePrefix(a), MakePrefix(b)
			assert.NotEqual(t, pa, pb)

			if strings.HasPrefix(a, b+Delimiter) {
				// a name followed by the delimiter nests under that name
				assert.True(t, strings.HasPrefix(pa, pb), "prefix %q of %q should start with prefix %q of %q", pa, a, pb, b)
				continue
			}
			assert.False(t, strings.HasPrefix(pa, pb), "prefix %q of %q starts with prefix %q of %q", pa, a, pb, b)
		}
	}
}

func TestApplyAndStripPrefix(t *testing.T) {
	prefix := MakePrefix("abc")

	raw := []string{
		ApplyPrefix(prefix, "2"),
		"abcd!1",
		ApplyPrefix(prefix, "1"),
		"ab!1",
		ApplyPrefix(prefix, ""),
		"other",
	}

	assert.Equal(t, []string{"2", "1", ""}, StripPrefix(raw, prefix))
	assert.Equal(t, []string{"abc!x", "abc!y"}, ApplyPrefixAll(prefix, []string{"x", "y"}))
	assert.Empty(t, StripPrefix(nil, prefix))
}
