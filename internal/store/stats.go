package store

import (
	"fmt"
	"time"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/model"
)

// UpdateStats recomputes the aggregate row from the servers table and
// stamps the cycle's completion and next-run times.
func (s *Store) UpdateStats(completedAt, nextAt *time.Time) error {
	var agg struct {
		TotalScanned  int
		TotalActive   int
		TotalSelected int
		TotalDislikes int
	}
	err := s.db.Raw(`
		SELECT
		  COUNT(*) AS total_scanned,
		  COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) AS total_active,
		  COALESCE(SUM(CASE WHEN is_selected = 1 THEN 1 ELSE 0 END), 0) AS total_selected,
		  COALESCE(SUM(dislikes), 0) AS total_dislikes
		FROM servers
	`).Scan(&agg).Error
	if err != nil {
		return fmt.Errorf("aggregate stats: %w", err)
	}

	updates := map[string]any{
		"total_scanned":     agg.TotalScanned,
		"total_active":      agg.TotalActive,
		"total_selected":    agg.TotalSelected,
		"total_dislikes":    agg.TotalDislikes,
		"last_scan":         time.Now().UTC(),
		"scan_completed_at": completedAt,
		"next_scan_at":      nextAt,
	}
	if err := s.db.Model(&model.ScanStats{}).Where("id = ?", 1).Updates(updates).Error; err != nil {
		return fmt.Errorf("update stats: %w", err)
	}
	return nil
}

// Stats returns the aggregate row.
func (s *Store) Stats() (model.ScanStats, error) {
	var st model.ScanStats
	if err := s.db.First(&st, 1).Error; err != nil {
		return model.ScanStats{}, fmt.Errorf("load stats: %w", err)
	}
	return st, nil
}

// ScanTimes returns the stored completion and next-scan timestamps; both
// are nil until the first cycle finishes.
func (s *Store) ScanTimes() (completed, next *time.Time, err error) {
	st, err := s.Stats()
	if err != nil {
		return nil, nil, err
	}
	return st.ScanCompletedAt, st.NextScanAt, nil
}
