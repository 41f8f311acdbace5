package diskcache

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Boards []string
	Score  float64
}

func TestCache_SetThenGetRoundTrips(t *testing.T) {
	c, err := New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	want := payload{Boards: []string{"半导体", "光通信"}, Score: 12.5}
	require.NoError(t, c.Set("predictions:2026-07-30", want))

	var got payload
	writtenAt, err := c.Get("predictions:2026-07-30", &got)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.False(t, writtenAt.IsZero())
}

func TestCache_GetMissingKeyReturnsErrNotFound(t *testing.T) {
	c, err := New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	var got payload
	_, err = c.Get("absent", &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_DeleteThenGetIsNotFound(t *testing.T) {
	c, err := New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, c.Set("k", payload{Score: 1}))
	require.NoError(t, c.Delete("k"))

	var got payload
	_, err = c.Get("k", &got)
	assert.ErrorIs(t, err, ErrNotFound)
}
