package metrics

import "sort"

// TickerReturn pairs a ticker code with its 250-trading-day trailing
// return, (close_today/close_250_ago - 1) * 100.
type TickerReturn struct {
	TickerCode string
	ReturnPct  float64
}

// ComputeRPS250 ranks returns ascending and maps each ticker to
// (rank-1)/(N-1) * 99.9, clipped to [0, 99.9]. Tickers lacking a
// 250-trading-day-ago bar must not appear in returns at all: this
// function has no NULL/absent representation, the caller is responsible
// for excluding them upstream so their rps_250 stays unset rather than 0.
func ComputeRPS250(returns []TickerReturn) map[string]float64 {
	n := len(returns)
	out := make(map[string]float64, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[returns[0].TickerCode] = 0
		return out
	}

	sorted := make([]TickerReturn, n)
	copy(sorted, returns)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ReturnPct < sorted[j].ReturnPct })

	for rank, r := range sorted {
		score := float64(rank) / float64(n-1) * 99.9
		if score < 0 {
			score = 0
		}
		if score > 99.9 {
			score = 99.9
		}
		out[r.TickerCode] = score
	}
	return out
}
