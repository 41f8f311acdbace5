package alpha

// Refine is Level 4: assigns a heuristic win probability to each scored
// ticker and, when ai_filter is on, drops tickers below the threshold
// with a graceful fall-back to a looser threshold if the stricter one
// would empty the set.
func Refine(scored []ScoredTicker, p Params) ([]ScoredTicker, int) {
	for i := range scored {
		f := scored[i].TickerFeature
		strong := f.TurnoverRate > 1 && f.TurnoverRate < 20 &&
			f.VolRatioMA20 >= 1.5 &&
			f.VCPFactor < 0.3
		if strong {
			scored[i].WinProbability = 70
		} else {
			scored[i].WinProbability = 40
		}
	}

	if !p.AIFilter {
		return scored, 0
	}

	strict := filterByWinProb(scored, 60)
	if len(strict) > 0 {
		return strict, len(scored) - len(strict)
	}
	loose := filterByWinProb(scored, 50)
	return loose, len(scored) - len(loose)
}

func filterByWinProb(scored []ScoredTicker, min float64) []ScoredTicker {
	var out []ScoredTicker
	for _, s := range scored {
		if s.WinProbability >= min {
			out = append(out, s)
		}
	}
	return out
}
