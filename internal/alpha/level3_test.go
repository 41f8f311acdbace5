package alpha

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_ExplosionScoreGateAndSort(t *testing.T) {
	features := []TickerFeature{
		{TickerCode: "low-vol", VolRatioMA20: 1.0, VCPFactor: 1.0},
		{TickerCode: "high-vol", VolRatioMA20: 3.0, VCPFactor: 1.0},
	}
	scored := Score(features, Params{Model: ModelT4}.withDefaults(), RegimeBalance)
	require := scored
	assert.Equal(t, "high-vol", require[0].TickerCode) // higher explosion score sorts first
	assert.Equal(t, 50.0, require[0].ExplosionScore)
	assert.Equal(t, 0.0, require[1].ExplosionScore)
}

func TestScore_GemStarBoostRaisesT4Total(t *testing.T) {
	features := []TickerFeature{{TickerCode: "300001", VolRatioMA20: 3.0, IsGem: true, VCPFactor: 1.0}}
	withoutBoost := Score(features, Params{Model: ModelT4, GemStarWeightBoost: 1.0}.withDefaults(), RegimeBalance)
	withBoost := Score(features, Params{Model: ModelT4, GemStarWeightBoost: 2.0}.withDefaults(), RegimeBalance)
	assert.Greater(t, withBoost[0].Total, withoutBoost[0].Total)
}

func TestVCPScore_LowerFactorScoresHigher(t *testing.T) {
	assert.Greater(t, vcpScore(0.5, 1.0), vcpScore(1.0, 1.0))
	assert.Equal(t, 0.0, vcpScore(0, 1.0))
}

func TestMedianVCPFactor_EvenAndOdd(t *testing.T) {
	assert.InDelta(t, 2.0, medianVCPFactor([]TickerFeature{{VCPFactor: 1}, {VCPFactor: 3}}), 1e-9)
	assert.InDelta(t, 2.0, medianVCPFactor([]TickerFeature{{VCPFactor: 1}, {VCPFactor: 2}, {VCPFactor: 3}}), 1e-9)
}
