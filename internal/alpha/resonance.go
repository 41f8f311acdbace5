package alpha

// ApplySectorResonance groups features by IndustryLabel, computes each
// group's sector_avg_chg / sector_breadth / sector_max_chg, and writes
// each ticker's sector_resonance_score in place. T6/T7 only.
func ApplySectorResonance(features []TickerFeature) {
	type group struct {
		sumChg   float64
		count    int
		breadth  int // change_pct > 3%
		maxChg   float64
	}
	groups := make(map[string]*group)

	for _, f := range features {
		g, ok := groups[f.IndustryLabel]
		if !ok {
			g = &group{maxChg: f.ChangePct}
			groups[f.IndustryLabel] = g
		}
		g.sumChg += f.ChangePct
		g.count++
		if f.ChangePct > 3 {
			g.breadth++
		}
		if f.ChangePct > g.maxChg {
			g.maxChg = f.ChangePct
		}
	}

	for i := range features {
		g := groups[features[i].IndustryLabel]
		avgChg := g.sumChg / float64(g.count)
		breadth := float64(g.breadth) / float64(g.count)
		maxChg := g.maxChg

		score := 0.0
		if avgChg > 1.5 && breadth > 0.20 {
			score += 40
		}
		if maxChg > 9.8 && features[i].ChangePct < 9.8 {
			score += 30
		}
		if features[i].ChangePct > 6 && avgChg < 0.5 {
			score -= 50
		}
		features[i].SectorResonanceScore = score
	}
}
