package scanner

import (
	"fmt"
	"sync"
	"time"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/model"
)

// statusBoard holds the live cycle progress. The scanner is the only
// writer; collaborators read point-in-time copies via Snapshot, so they
// can never observe a half-updated batch.
type statusBoard struct {
	mu  sync.RWMutex
	cur model.ScanStatus
}

func newStatusBoard() *statusBoard {
	return &statusBoard{
		cur: model.ScanStatus{Phase: model.PhaseIdle, Message: "idle"},
	}
}

// Snapshot returns a copy of the current status.
func (b *statusBoard) Snapshot() model.ScanStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cur
}

// begin resets the board for a new cycle. planned is the harvest target;
// the real total replaces it once harvesting is done.
func (b *statusBoard) begin(cycleID string, planned int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur = model.ScanStatus{
		IsScanning:   true,
		Phase:        model.PhaseHarvesting,
		CycleID:      cycleID,
		TotalServers: planned,
		Message:      "testing servers...",
	}
}

func (b *statusBoard) phase(p model.ScanPhase) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur.Phase = p
}

// halt records an early-exit reason without touching counters.
func (b *statusBoard) halt(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur.Message = message
}

func (b *statusBoard) beginTesting(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur.Phase = model.PhaseTesting
	b.cur.TotalServers = total
	b.cur.Message = fmt.Sprintf("testing %d servers...", total)
}

func (b *statusBoard) batchDone(tested, active int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur.TestedServers = tested
	b.cur.ActiveServers = active
	if b.cur.TotalServers > 0 {
		b.cur.Progress = tested * 100 / b.cur.TotalServers
	}
	b.cur.Message = fmt.Sprintf("%d/%d tested (%d active)", tested, b.cur.TotalServers, active)
}

func (b *statusBoard) fail(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur.Message = "scan failed: " + reason
}

func (b *statusBoard) finish(active int, completedAt, nextAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur.Progress = 100
	b.cur.ScanCompletedAt = &completedAt
	b.cur.NextScanAt = &nextAt
	b.cur.Message = fmt.Sprintf("scan finished - %d active servers", active)
}

// end freezes the board after a cycle: whatever message the cycle left
// stands, only the scanning flag and phase are cleared.
func (b *statusBoard) end() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cur.IsScanning = false
	b.cur.Phase = model.PhaseIdle
}
