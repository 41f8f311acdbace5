package predictor

import (
	"math"

	"github.com/marketpulse/alpha-backend/internal/store"
	"gonum.org/v1/gonum/stat"
)

// sectorFlowStats is the output of the 3-day money-flow trend analysis
// for one sector, §4.8 step 1.
type sectorFlowStats struct {
	sum             float64
	slope           float64
	acceleration    float64
	largeOrderRatio float64
	avgChangePct    float64
	limitUpCount    int
}

// moneyRaw folds sum, trend, and acceleration into one raw ranking input
// for the per-board money component; larger inflows, rising trend, and
// positive acceleration all push a sector up the list.
func (s sectorFlowStats) moneyRaw() float64 {
	return s.sum + s.slope*3 + s.acceleration*2
}

// resonanceRaw is a per-board proxy for how broadly its underlying
// sectors are participating, not just one leader name — mirrors the
// sector_avg_chg/breadth shape used for per-ticker resonance (§4.7.4),
// applied here at the sector-flow level since the predictor operates
// before individual tickers are selected.
func (s sectorFlowStats) resonanceRaw() float64 {
	return s.avgChangePct*10 + float64(s.limitUpCount)
}

// analyzeSectorFlow computes trend statistics over up to the last three
// trading days of flows (ascending by trade date, per
// SectorFlowRepository.RecentSectorFlows's contract).
func analyzeSectorFlow(flows []store.SectorFlow) sectorFlowStats {
	if len(flows) == 0 {
		return sectorFlowStats{}
	}

	var sum, largeAbs, totalAbs, avgChange float64
	var limitUp int
	for _, f := range flows {
		sum += f.MainNet
		largeAbs += math.Abs(f.LargeNet) + math.Abs(f.SuperLargeNet)
		totalAbs += math.Abs(f.MainNet) + math.Abs(f.SuperLargeNet) + math.Abs(f.LargeNet) + math.Abs(f.MediumNet) + math.Abs(f.SmallNet)
		avgChange += f.ChangePct
		limitUp += f.LimitUpCount
	}
	avgChange /= float64(len(flows))

	largeOrderRatio := 0.0
	if totalAbs > 0 {
		largeOrderRatio = largeAbs / totalAbs
	}

	slope := 0.0
	if len(flows) >= 2 {
		xs := make([]float64, len(flows))
		ys := make([]float64, len(flows))
		for i, f := range flows {
			xs[i] = float64(i)
			ys[i] = f.MainNet
		}
		_, slope = stat.LinearRegression(xs, ys, nil, false)
	}

	acceleration := 0.0
	if len(flows) >= 3 {
		n := len(flows)
		d1 := flows[n-1].MainNet - flows[n-2].MainNet
		d2 := flows[n-2].MainNet - flows[n-3].MainNet
		acceleration = d1 - d2
	}

	return sectorFlowStats{
		sum:             sum,
		slope:           slope,
		acceleration:    acceleration,
		largeOrderRatio: largeOrderRatio,
		avgChangePct:    avgChange,
		limitUpCount:    limitUp,
	}
}
