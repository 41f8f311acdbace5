package health

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestGate_AdmitAlwaysTrueWhenSheddingDisabled(t *testing.T) {
	g := New(0, zerolog.Nop())
	assert.True(t, g.Admit())
}

func TestGate_AdmitTrueWhenCeilingFarAboveAnyRealisticUsage(t *testing.T) {
	g := New(1_000_000, zerolog.Nop()) // ~1TB, no real machine will exceed this
	assert.True(t, g.Admit())
}

func TestGate_ReadReturnsPositiveTotals(t *testing.T) {
	g := New(0, zerolog.Nop())
	snap, err := g.Read()
	assert.NoError(t, err)
	assert.Greater(t, snap.TotalMB, 0)
}
