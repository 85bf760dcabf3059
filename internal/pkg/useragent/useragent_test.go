package useragent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWeightedLoadsEmbeddedList(t *testing.T) {
	w, err := NewWeighted()
	require.NoError(t, err)
	assert.Greater(t, w.Len(), 5)

	for i := 0; i < 50; i++ {
		assert.Contains(t, w.Random(), "Mozilla/5.0")
	}
}

func TestParseWeightedSkipsInvalidEntries(t *testing.T) {
	raw := `[{"ua": "", "pct": 10}, {"ua": "zero", "pct": 0}, {"ua": "only-one", "pct": 1.5}]`
	w, err := ParseWeighted([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, 1, w.Len())

	for i := 0; i < 10; i++ {
		assert.Equal(t, "only-one", w.Random())
	}
}

func TestParseWeightedErrors(t *testing.T) {
	_, err := ParseWeighted([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseWeighted([]byte(`[]`))
	assert.ErrorIs(t, err, ErrNoUserAgents)
}

func TestWeightedDistributionFavoursHeavyEntries(t *testing.T) {
	raw := `[{"ua": "heavy", "pct": 99}, {"ua": "light", "pct": 1}]`
	w, err := ParseWeighted([]byte(raw))
	require.NoError(t, err)

	heavy := 0
	for i := 0; i < 1000; i++ {
		if w.Source()() == "heavy" {
			heavy++
		}
	}
	assert.Greater(t, heavy, 900)
}

func TestStatic(t *testing.T) {
	assert.Equal(t, "test-agent", Static("test-agent")())
}
