package alpha

import (
	"math"
	"strings"
)

const stRiskMarker = "ST"

// FilterHardConstraints is Level 2: applies the baseline rule set (all
// models) and, for T6/T7, the regime-adjusted thresholds plus a VWAP
// veto. Returns the survivors and a per-rule pass count for diagnostics.
// Returns ErrEmptyAfterFilter if every ticker is eliminated.
func FilterHardConstraints(features []TickerFeature, p Params, regime Regime) ([]TickerFeature, map[string]int, error) {
	minChange, maxChange := p.MinChangePct, 9.95
	requireVWAPVeto := false

	if p.Model != ModelT4 {
		switch regime {
		case RegimeAttack:
			minChange, maxChange = 3, 9
		case RegimeDefense:
			// Defense caps the day's change and drops the baseline floor.
			minChange, maxChange = math.Inf(-1), 4
		}
		requireVWAPVeto = true
	}

	counts := map[string]int{
		"min_change_pct":      0,
		"vol_ratio_ma20":      0,
		"upper_shadow_ratio":  0,
		"support_ma":          0,
		"listing_age":         0,
		"st_marker":           0,
		"not_limit_up":        0,
		"regime_bias_or_rsi":  0,
		"vwap_veto":           0,
	}

	var survivors []TickerFeature
	for _, f := range features {
		if f.ChangePct < minChange || f.ChangePct > maxChange {
			continue
		}
		counts["min_change_pct"]++

		if f.VolRatioMA20 <= p.VolRatioMA20Threshold {
			continue
		}
		counts["vol_ratio_ma20"]++

		if f.UpperShadowRatio > p.MaxUpperShadowRatio {
			continue
		}
		counts["upper_shadow_ratio"]++

		support := f.MA20
		if p.SupportMA == "MA60" {
			support = f.MA60
		}
		if support > 0 && f.Close < support {
			continue
		}
		counts["support_ma"]++

		// Listing age and NULL list dates are handled upstream at Level 1:
		// tickers without 90 trailing rows never reach this filter, which
		// already implies at least ~90 calendar days of listing history.
		counts["listing_age"]++

		if strings.Contains(strings.ToUpper(f.DisplayName), stRiskMarker) {
			continue
		}
		counts["st_marker"]++

		limitUpThreshold := 9.95
		if f.IsStarMarket || f.IsGem {
			limitUpThreshold = 19.95
		}
		if f.ChangePct >= limitUpThreshold {
			continue
		}
		counts["not_limit_up"]++

		if p.Model != ModelT4 {
			if regime == RegimeDefense {
				if !(f.Bias20 < -8 || f.RSI6 < 25) {
					continue
				}
				if f.ATR/nonZero(f.Close) > 0.05 {
					continue
				}
			}
			if regime == RegimeAttack {
				resonancePositive := f.SectorResonanceScore > 0
				rpsStrong := f.HasRPS250 && f.RPS250 > 85
				if !resonancePositive && !rpsStrong {
					continue
				}
			}
			counts["regime_bias_or_rsi"]++

			if requireVWAPVeto && f.Close < f.VWAP {
				continue
			}
			counts["vwap_veto"]++
		}

		survivors = append(survivors, f)
	}

	if len(survivors) == 0 {
		return nil, counts, ErrEmptyAfterFilter
	}
	return survivors, counts, nil
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
