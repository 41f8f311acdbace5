package archive

import (
	"fmt"

	"github.com/marketpulse/alpha-backend/internal/database"
	"github.com/rs/zerolog"
)

// RunMaintenance runs a WAL checkpoint followed by VACUUM on every
// supplied database, meant to be invoked right after the retention job's
// bulk deletes so the freed pages are actually reclaimed rather than
// sitting in the freelist until the next organic write.
func RunMaintenance(dbs []*database.DB, log zerolog.Logger) error {
	log = log.With().Str("component", "archive_maintenance").Logger()
	for _, db := range dbs {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			return fmt.Errorf("checkpoint %s: %w", db.Name(), err)
		}
		if err := db.Vacuum(); err != nil {
			return fmt.Errorf("vacuum %s: %w", db.Name(), err)
		}
		log.Info().Str("db", db.Name()).Msg("maintenance complete")
	}
	return nil
}
