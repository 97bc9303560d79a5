package useragent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomLooksLikeABrowser(t *testing.T) {
	picker := NewPicker()

	for i := 0; i < 50; i++ {
		ua := picker.Random()
		require.NotEmpty(t, ua)
		assert.True(t, strings.HasPrefix(ua, "Mozilla/5.0 "), ua)
		assert.True(t,
			strings.Contains(ua, "Chrome/") || strings.Contains(ua, "Firefox/"),
			ua)
		assert.NotContains(t, ua, "%")
	}
}

func TestRandomVaries(t *testing.T) {
	picker := NewPicker()

	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		seen[picker.Random()] = struct{}{}
	}

	assert.Greater(t, len(seen), 1)
}
