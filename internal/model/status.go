package model

import "time"

// ScanPhase names the orchestrator's position in the cycle state machine.
type ScanPhase string

const (
	PhaseIdle       ScanPhase = "idle"
	PhaseHarvesting ScanPhase = "harvesting"
	PhaseResetting  ScanPhase = "resetting"
	PhaseTesting    ScanPhase = "testing"
	PhaseFinalizing ScanPhase = "finalizing"
)

// ScanStatus is a point-in-time snapshot of cycle progress. The scanner
// hands out copies; collaborators never see or mutate the live value.
type ScanStatus struct {
	IsScanning      bool       `json:"is_scanning"`
	Phase           ScanPhase  `json:"phase"`
	CycleID         string     `json:"cycle_id,omitempty"`
	Progress        int        `json:"progress"`
	TotalServers    int        `json:"total_servers"`
	TestedServers   int        `json:"tested_servers"`
	ActiveServers   int        `json:"active_servers"`
	Message         string     `json:"message"`
	ScanCompletedAt *time.Time `json:"scan_completed_at,omitempty"`
	NextScanAt      *time.Time `json:"next_scan_at,omitempty"`
}
