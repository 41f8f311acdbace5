package predictor

import (
	"os"
	"testing"

	"github.com/marketpulse/alpha-backend/internal/diskcache"
	"github.com/marketpulse/alpha-backend/internal/store"
	testingpkg "github.com/marketpulse/alpha-backend/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoardMap(t *testing.T) (*BoardMap, *store.Store, func()) {
	t.Helper()
	featuresDB, cleanup := testingpkg.NewTestDB(t, "features")
	s := store.New(featuresDB.Conn(), featuresDB.Conn(), zerolog.Nop())

	dir, err := os.MkdirTemp("", "board_map_*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	disk, err := diskcache.New(dir, zerolog.Nop())
	require.NoError(t, err)

	return NewBoardMap(s.Concepts, disk, zerolog.Nop()), s, cleanup
}

func TestBoardMap_ReturnsLiveMappingsAndPersistsSnapshot(t *testing.T) {
	bm, s, cleanup := newTestBoardMap(t)
	defer cleanup()

	require.NoError(t, s.Concepts.UpsertVirtualBoardMapping(store.VirtualBoardMapping{
		VirtualBoardName: "半导体", SourceConceptName: "芯片", Weight: 1.0, ActiveFlag: true,
	}))

	mappings, err := bm.Mappings()
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "半导体", mappings[0].VirtualBoardName)
}

func TestBoardMap_FallsBackToDiskWhenStoreUnreachable(t *testing.T) {
	bm, s, cleanup := newTestBoardMap(t)

	require.NoError(t, s.Concepts.UpsertVirtualBoardMapping(store.VirtualBoardMapping{
		VirtualBoardName: "半导体", SourceConceptName: "芯片", Weight: 1.0, ActiveFlag: true,
	}))
	_, err := bm.Mappings() // warms the disk snapshot
	require.NoError(t, err)

	cleanup() // closes and removes the underlying database file

	mappings, err := bm.Mappings()
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "半导体", mappings[0].VirtualBoardName)
}
