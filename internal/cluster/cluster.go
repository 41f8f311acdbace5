// Package cluster implements the dynamic-Jaccard concept clusterer (C5):
// it collapses near-synonymous sector labels (e.g. "CPO" vs
// "optical-communications") before a ranked sector list is presented,
// using a cheap top-5-overlap fast path and a full-membership Jaccard
// fallback. Grounded on the plain-Go set/slice idioms used throughout
// the teacher's universe module — no external dependency earns its keep
// for set arithmetic this small.
package cluster

import "fmt"

// Candidate is one sector entering the clustering pass.
type Candidate struct {
	Name            string
	Score           float64
	TopWeightStocks []string // up to 5, ordered by weight
	FullMembers     []string // complete constituent set, for the deep Jaccard fallback
}

// Clustered is a Candidate after clustering, with absorbed peers attached.
type Clustered struct {
	Candidate
	AggregatedSectors []string
	AggregatedCount   int
	DisplayLabel      string
}

const (
	lookahead    = 10
	totalBudget  = 50
	jaccardTheta = 0.35
	fastOverlapMin = 2
)

// Cluster sorts candidates by Score descending, then walks the list
// absorbing near-duplicates into the higher-scored survivor. Each
// unprocessed sector compares against up to `lookahead` unprocessed
// sectors ahead of it, bounded by a total of `totalBudget` comparisons
// across the whole run; sectors left uncompared once the budget is spent
// pass through unclustered.
func Cluster(candidates []Candidate) []Clustered {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sortByScoreDesc(sorted)

	processed := make([]bool, len(sorted))
	out := make([]Clustered, 0, len(sorted))
	comparisons := 0

	for i := range sorted {
		if processed[i] {
			continue
		}
		result := Clustered{Candidate: sorted[i]}

		for j := i + 1; j < len(sorted) && j <= i+lookahead; j++ {
			if processed[j] || comparisons >= totalBudget {
				continue
			}
			comparisons++
			if similar(sorted[i], sorted[j]) {
				processed[j] = true
				result.AggregatedSectors = append(result.AggregatedSectors, sorted[j].Name)
			}
		}

		result.AggregatedCount = len(result.AggregatedSectors)
		result.DisplayLabel = displayLabel(result.Name, result.AggregatedSectors)
		out = append(out, result)
		processed[i] = true
	}

	return out
}

// similar implements the fast/deep pairwise test: a top-5 overlap of at
// least 2 declares similarity outright; otherwise fall back to full
// Jaccard similarity over the complete membership sets.
func similar(a, b Candidate) bool {
	if overlapCount(a.TopWeightStocks, b.TopWeightStocks) >= fastOverlapMin {
		return true
	}
	return jaccard(a.FullMembers, b.FullMembers) >= jaccardTheta
}

func overlapCount(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	count := 0
	for _, v := range b {
		if _, ok := set[v]; ok {
			count++
		}
	}
	return count
}

// jaccard returns |A∩B| / |A∪B| for two string sets, or 0 when both are empty.
func jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}

	union := make(map[string]struct{}, len(setA)+len(setB))
	for v := range setA {
		union[v] = struct{}{}
	}
	for v := range setB {
		union[v] = struct{}{}
	}
	if len(union) == 0 {
		return 0
	}

	intersection := 0
	for v := range setA {
		if _, ok := setB[v]; ok {
			intersection++
		}
	}
	return float64(intersection) / float64(len(union))
}

func displayLabel(name string, aggregated []string) string {
	if len(aggregated) == 0 {
		return name
	}
	label := name + " (aggregated:"
	for i, a := range aggregated {
		if i > 0 {
			label += ","
		}
		label += fmt.Sprintf(" %s", a)
	}
	return label + ")"
}

func sortByScoreDesc(candidates []Candidate) {
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].Score > candidates[j-1].Score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
}
