package games

import (
	"testing"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinCatalog(t *testing.T) {
	r := NewRegistry(Builtin()...)
	assert.Equal(t, []string{EuroMillions, Eurojackpot, Lotto6aus49, Powerball}, r.Keys())

	g, ok := r.Lookup("  EuroJackpot ")
	require.True(t, ok)
	assert.True(t, g.Config.DualPool())
	assert.Equal(t, 7, g.Config.DrawWidth())

	_, ok = r.Lookup("keno")
	assert.False(t, ok)
}

func TestRegisterPanics(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() { r.Register(Game{Key: " "}) })
	assert.Panics(t, func() { r.Register(Game{Key: "bad", Config: models.GameConfig{NumbersPerDraw: 6, MaxValue: 3}}) })

	r.Register(Game{Key: "x", Config: models.GameConfig{NumbersPerDraw: 1, MaxValue: 2}})
	assert.Panics(t, func() { r.Register(Game{Key: "X", Config: models.GameConfig{NumbersPerDraw: 1, MaxValue: 2}}) })
}

func TestApplyOverrides(t *testing.T) {
	r := NewRegistry(Builtin()...)

	err := r.Apply(map[string]Override{
		"Powerball": {SourceURL: "http://mirror.local/pb", DrawSelectors: []string{".row"}},
	})
	require.NoError(t, err)

	g, _ := r.Lookup(Powerball)
	assert.Equal(t, "http://mirror.local/pb", g.SourceURL)
	assert.Equal(t, []string{".row"}, g.DrawSelectors)
	assert.Equal(t, ".card", g.WaitCondition)

	err = r.Apply(map[string]Override{"keno": {SourceURL: "x"}})
	assert.ErrorContains(t, err, "keno")
}
