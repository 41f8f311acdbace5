package alpha

import "sort"

// Score is Level 3: composite scoring over the Level-2 survivors, with
// the model-specific multiplicative adjustments layered on top. Results
// are sorted descending by Total.
func Score(features []TickerFeature, p Params, regime Regime) []ScoredTicker {
	medianVCP := medianVCPFactor(features)

	out := make([]ScoredTicker, len(features))
	for i, f := range features {
		st := ScoredTicker{TickerFeature: f}

		if f.VolRatioMA20 >= p.VolThreshold {
			st.ExplosionScore = 50
		}

		structure := 0.0
		if f.HasRPS250 && f.RPS250 >= p.RPSThreshold {
			structure += 30
		}
		structure += vcpScore(f.VCPFactor, medianVCP)
		st.StructureScore = structure

		if p.SectorBoostEnabled && p.Model != ModelT4 {
			st.SectorScore = f.SectorResonanceScore
		}

		total := p.WeightTech*st.ExplosionScore + p.WeightTrend*st.StructureScore + p.WeightHot*st.SectorScore

		switch p.Model {
		case ModelT4:
			if f.IsStarMarket || f.IsGem {
				total *= p.GemStarWeightBoost
			}
		case ModelT6, ModelT7:
			if f.IsGem || f.IsStarMarket {
				betaProxy := f.ATR / nonZero(f.Close)
				fRegime := 0.0
				switch regime {
				case RegimeAttack:
					fRegime = 0.15
				case RegimeDefense:
					fRegime = -0.15
				}
				total *= 1 + fRegime*betaProxy
			}
			if f.TurnoverRate > 20 && f.ChangePct < 9.95 && f.UpperShadowRatio > 0.4 {
				total -= 50
			}
		}

		st.Total = total
		out[i] = st
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

func vcpScore(vcp, median float64) float64 {
	if vcp <= 0 || median <= 0 {
		return 0
	}
	ratio := vcp / median
	score := 20 * (1 - ratio)
	if score < 0 {
		return 0
	}
	if score > 20 {
		return 20
	}
	return score
}

func medianVCPFactor(features []TickerFeature) float64 {
	if len(features) == 0 {
		return 0
	}
	values := make([]float64, len(features))
	for i, f := range features {
		values[i] = f.VCPFactor
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return (values[mid-1] + values[mid]) / 2
	}
	return values[mid]
}
