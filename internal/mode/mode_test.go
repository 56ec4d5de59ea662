package mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinModes(t *testing.T) {
	r := NewRegistry()

	for _, slug := range []string{"code", "architect", "ask", "debug"} {
		m, ok := r.Find(slug)
		require.True(t, ok, slug)
		assert.Equal(t, slug, m.Slug)
		assert.NotEmpty(t, m.Name)
	}

	_, ok := r.Find("nope")
	assert.False(t, ok)
}

func TestCustomModeOverridesBuiltin(t *testing.T) {
	r := NewRegistry()
	r.SetCustomModes([]Mode{
		{Slug: "code", Name: "Hacker", Description: "custom code mode"},
		{Slug: "review", Name: "Review", Description: "review changes"},
	})

	m, ok := r.Find("code")
	require.True(t, ok)
	assert.Equal(t, "Hacker", m.Name)

	m, ok = r.Find("review")
	require.True(t, ok)
	assert.Equal(t, "Review", m.Name)

	// Replacing custom modes drops the old set.
	r.SetCustomModes(nil)
	m, _ = r.Find("code")
	assert.Equal(t, "Code", m.Name)
	_, ok = r.Find("review")
	assert.False(t, ok)
}

func TestResolveUnknownMode(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("yolo")
	require.Error(t, err)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "yolo", nf.Slug)
	assert.Contains(t, nf.Available, "code")
	assert.Contains(t, err.Error(), "mode not found: yolo")
}

func TestSlugsDeduplicated(t *testing.T) {
	r := NewRegistry()
	r.SetCustomModes([]Mode{{Slug: "code", Name: "Custom Code"}})

	slugs := r.Slugs()
	seen := map[string]int{}
	for _, s := range slugs {
		seen[s]++
	}
	assert.Equal(t, 1, seen["code"])
	assert.Equal(t, 1, seen["debug"])
}

func TestFindTrimsSlug(t *testing.T) {
	r := NewRegistry()
	m, ok := r.Find("  debug  ")
	require.True(t, ok)
	assert.Equal(t, "Debug", m.Name)
}
