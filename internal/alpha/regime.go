package alpha

import (
	"github.com/marketpulse/alpha-backend/internal/store"
	"gonum.org/v1/gonum/stat"
)

const (
	rsrsWindow     = 18 // trading days per OLS regression
	rsrsMaxWindows = 30 // trailing regressions averaged for the z-score baseline
	rsrsMinWindows = 10 // below this, fall back to a surrogate z-score
)

// DetectRegime runs RSRS (resistance-support relative strength) on a
// broad-market index: OLS of index_high on index_low over trailing
// 18-day windows, then a z-score of the current window's beta against
// the rolling mean/std of up to 30 such windows.
//
// When fewer than rsrsMinWindows betas are available the rolling
// mean/std is unreliable, so a simple scaled surrogate is used instead:
// (beta-1)*10, treating beta==1 (high and low moving in lockstep) as the
// neutral point. This was an open question in the distilled algorithm;
// the surrogate keeps the same sign convention as the full z-score
// (bigger beta ⇒ more "attack"-like) without pretending to statistical
// confidence it doesn't have.
func DetectRegime(bars []store.MarketIndexBar) (Regime, float64) {
	if len(bars) < rsrsWindow {
		return RegimeBalance, 0
	}

	betas := rollingBetas(bars)
	if len(betas) == 0 {
		return RegimeBalance, 0
	}
	current := betas[len(betas)-1]

	var z float64
	if len(betas) < rsrsMinWindows {
		z = (current - 1) * 10
	} else {
		window := betas
		if len(window) > rsrsMaxWindows {
			window = window[len(window)-rsrsMaxWindows:]
		}
		mean := stat.Mean(window, nil)
		std := stat.StdDev(window, nil)
		if std == 0 {
			z = 0
		} else {
			z = (current - mean) / std
		}
	}

	switch {
	case z > 0.7:
		return RegimeAttack, z
	case z < -0.7:
		return RegimeDefense, z
	default:
		return RegimeBalance, z
	}
}

// rollingBetas computes one OLS beta (index_high regressed on
// index_low) per trailing 18-day window, for every window that fits in
// bars, ascending by trade_date.
func rollingBetas(bars []store.MarketIndexBar) []float64 {
	var betas []float64
	for end := rsrsWindow; end <= len(bars); end++ {
		window := bars[end-rsrsWindow : end]
		lows := make([]float64, len(window))
		highs := make([]float64, len(window))
		for i, b := range window {
			lows[i] = b.Low
			highs[i] = b.High
		}
		_, beta := stat.LinearRegression(lows, highs, nil, false)
		betas = append(betas, beta)
	}
	return betas
}
