package alpha

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplySectorResonance_MainLineBonus(t *testing.T) {
	features := []TickerFeature{
		{TickerCode: "A", IndustryLabel: "Banking", ChangePct: 2.0},
		{TickerCode: "B", IndustryLabel: "Banking", ChangePct: 4.0},
		{TickerCode: "C", IndustryLabel: "Banking", ChangePct: 1.0},
	}
	ApplySectorResonance(features)
	// avg = 2.33 > 1.5, breadth = 1/3 > 0.20 -> main-line bonus +40 for all.
	for _, f := range features {
		assert.GreaterOrEqual(t, f.SectorResonanceScore, 40.0)
	}
}

func TestApplySectorResonance_SoloRallyPenalty(t *testing.T) {
	features := []TickerFeature{
		{TickerCode: "A", IndustryLabel: "Dead", ChangePct: 7.0},
		{TickerCode: "B", IndustryLabel: "Dead", ChangePct: -3.0},
		{TickerCode: "C", IndustryLabel: "Dead", ChangePct: -4.0},
	}
	ApplySectorResonance(features)
	assert.Equal(t, -50.0, features[0].SectorResonanceScore)
}

func TestApplySectorResonance_UnknownGroupSingleMildTickerScoresZero(t *testing.T) {
	features := []TickerFeature{
		{TickerCode: "A", IndustryLabel: "unknown", ChangePct: 1.0},
	}
	ApplySectorResonance(features)
	assert.Equal(t, 0.0, features[0].SectorResonanceScore)
}
