package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCluster_FastPathAbsorbsOnTopFiveOverlap(t *testing.T) {
	candidates := []Candidate{
		{Name: "CPO", Score: 90, TopWeightStocks: []string{"A", "B", "C", "D", "E"}},
		{Name: "optical-communications", Score: 80, TopWeightStocks: []string{"A", "B", "X", "Y", "Z"}},
	}

	out := Cluster(candidates)
	require.Len(t, out, 1)
	assert.Equal(t, "CPO", out[0].Name)
	assert.Equal(t, []string{"optical-communications"}, out[0].AggregatedSectors)
	assert.Equal(t, 1, out[0].AggregatedCount)
	assert.Equal(t, "CPO (aggregated: optical-communications)", out[0].DisplayLabel)
}

func TestCluster_DeepJaccardFallback(t *testing.T) {
	candidates := []Candidate{
		{Name: "A", Score: 50, FullMembers: []string{"1", "2", "3", "4"}},
		{Name: "B", Score: 40, FullMembers: []string{"2", "3", "4", "5"}}, // jaccard = 3/5 = 0.6
	}
	out := Cluster(candidates)
	require.Len(t, out, 1)
	assert.Equal(t, "A", out[0].Name)
}

func TestCluster_BelowThresholdStaysUnclustered(t *testing.T) {
	candidates := []Candidate{
		{Name: "A", Score: 50, FullMembers: []string{"1", "2", "3", "4", "5", "6", "7"}},
		{Name: "B", Score: 40, FullMembers: []string{"6", "7", "8", "9", "10", "11", "12"}}, // jaccard = 2/12
	}
	out := Cluster(candidates)
	require.Len(t, out, 2)
	assert.Empty(t, out[0].AggregatedSectors)
	assert.Empty(t, out[1].AggregatedSectors)
}

func TestCluster_KeepsHigherScoredAsSurvivor(t *testing.T) {
	candidates := []Candidate{
		{Name: "lower-first-in-slice", Score: 10, TopWeightStocks: []string{"A", "B"}},
		{Name: "higher-score", Score: 99, TopWeightStocks: []string{"A", "B"}},
	}
	out := Cluster(candidates)
	require.Len(t, out, 1)
	assert.Equal(t, "higher-score", out[0].Name)
	assert.Contains(t, out[0].AggregatedSectors, "lower-first-in-slice")
}

func TestJaccard_EmptySetsIsZero(t *testing.T) {
	assert.Equal(t, 0.0, jaccard(nil, nil))
}
