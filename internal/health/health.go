// Package health is a memory-based admission predicate: Gate.Admit
// reports whether used system memory is still under the configured
// ceiling. internal/di builds a Gate and exposes it on its Container;
// the scheduler and its worker pool do not consult it. Grounded on the
// teacher's system_handlers.go use
// of gopsutil for /system/health, narrowed from an HTTP reporting
// endpoint down to a single admission predicate.
package health

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
)

// Gate decides whether new offloaded work may be admitted, based on
// current process/system memory pressure.
type Gate struct {
	log       zerolog.Logger
	shedRSSMB int
}

// New builds a Gate that sheds admission once used system memory
// exceeds shedRSSMB megabytes. shedRSSMB <= 0 disables shedding.
func New(shedRSSMB int, log zerolog.Logger) *Gate {
	return &Gate{
		log:       log.With().Str("component", "health").Logger(),
		shedRSSMB: shedRSSMB,
	}
}

// Admit reports whether the caller should proceed with new offloaded
// work. On a read failure it fails open (admits), since refusing all
// work because gopsutil can't read /proc would be worse than the memory
// risk it's meant to guard against.
func (g *Gate) Admit() bool {
	if g.shedRSSMB <= 0 {
		return true
	}
	v, err := mem.VirtualMemory()
	if err != nil {
		g.log.Warn().Err(err).Msg("memory read failed, admitting by default")
		return true
	}
	usedMB := int(v.Used / (1024 * 1024))
	if usedMB >= g.shedRSSMB {
		g.log.Warn().Int("used_mb", usedMB).Int("ceiling_mb", g.shedRSSMB).Msg("shedding: memory ceiling exceeded")
		return false
	}
	return true
}

// Snapshot is a point-in-time memory reading, exposed for diagnostics.
type Snapshot struct {
	UsedMB  int
	TotalMB int
	Percent float64
}

// Read returns the current memory snapshot.
func (g *Gate) Read() (Snapshot, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return Snapshot{}, fmt.Errorf("read virtual memory: %w", err)
	}
	return Snapshot{
		UsedMB:  int(v.Used / (1024 * 1024)),
		TotalMB: int(v.Total / (1024 * 1024)),
		Percent: v.UsedPercent,
	}, nil
}
