package pinyin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitials(t *testing.T) {
	// Only 贵 is in the initials table; 州/茅/台 are skipped.
	assert.Equal(t, "g", Initials("贵州茅台"))
}

func TestMatchesInitials(t *testing.T) {
	assert.True(t, MatchesInitials("贵州茅台", "g"))
	assert.False(t, MatchesInitials("贵州茅台", "zzz"))
	assert.False(t, MatchesInitials("贵州茅台", ""))
}
