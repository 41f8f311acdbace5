package predictor

import "time"

// BoardResult is one virtual board's composite score and its components,
// per "4. Composite per-board score" of the next-day projection.
type BoardResult struct {
	Name            string   `json:"name"`
	MoneyScore      float64  `json:"money_score"`
	HotScore        float64  `json:"hot_score"`
	MomentumScore   float64  `json:"momentum_score"`
	ResonanceScore  float64  `json:"resonance_score"`
	CompositeScore  float64  `json:"composite_score"`
	ConstituentTags []string `json:"constituent_tags"` // source concept names folded into this board
}

// Candidate is one re-scored ticker surfaced from a top-ranked board.
type Candidate struct {
	TickerCode     string  `json:"ticker_code"`
	BoardName      string  `json:"board_name"`
	HotRank        int     `json:"hot_rank"`
	SectorScore    float64 `json:"sector_score"`
	RankScore      float64 `json:"rank_score"`
	TechnicalScore float64 `json:"technical_score"`
	FinalScore     float64 `json:"final_score"`
}

// Payload is the full next-day prediction, persisted verbatim as JSON in
// next_day_prediction_cache.prediction_payload.
type Payload struct {
	TargetDate  time.Time     `json:"target_date"`
	DataDate    time.Time     `json:"data_date"`
	GeneratedAt time.Time     `json:"generated_at"`
	Boards      []BoardResult `json:"boards"`
	Candidates  []Candidate   `json:"candidates"`
}
