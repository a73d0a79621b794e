package store

import (
	"fmt"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/model"
)

// promoteLatencyCeilingMS gates entry into the selected rotation: only
// active servers measured strictly under this latency qualify.
const promoteLatencyCeilingMS = 250

// CountSelectedActive counts the servers currently in the selected rotation
// that are still active.
func (s *Store) CountSelectedActive() (int, error) {
	var n int64
	err := s.db.Model(&model.ServerRecord{}).
		Where("is_selected = ? AND status = ?", true, model.StatusActive).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count selected servers: %w", err)
	}
	return int(n), nil
}

// DemotionCandidates picks the worst of the selected rotation: slowest
// first (missing latency counts as worst), then most disliked, then the
// longest untouched.
func (s *Store) DemotionCandidates(limit int) ([]uint, error) {
	var ids []uint
	err := s.db.Model(&model.ServerRecord{}).
		Where("is_selected = ? AND status = ?", true, model.StatusActive).
		Order("COALESCE(latency_ms, 99999) DESC, dislikes DESC, updated_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("pick demotion candidates: %w", err)
	}
	return ids, nil
}

// PromotionCandidates picks the best unselected active servers under the
// latency ceiling: fastest first, then least disliked, then freshest.
func (s *Store) PromotionCandidates(limit int) ([]uint, error) {
	var ids []uint
	err := s.db.Model(&model.ServerRecord{}).
		Where("is_selected = ? AND status = ? AND COALESCE(latency_ms, 99999) < ?",
			false, model.StatusActive, promoteLatencyCeilingMS).
		Order("COALESCE(latency_ms, 99999) ASC, dislikes ASC, updated_at DESC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("pick promotion candidates: %w", err)
	}
	return ids, nil
}

// SetSelected flips the selection flag for the given records without
// touching updated_at.
func (s *Store) SetSelected(ids []uint, selected bool) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.Model(&model.ServerRecord{}).Where("id IN ?", ids).
		UpdateColumn("is_selected", selected).Error
	if err != nil {
		return fmt.Errorf("set selected: %w", err)
	}
	return nil
}

// ClearSelected empties the rotation. It runs before testing so that only
// servers re-verified in the current cycle can be shown as selected.
func (s *Store) ClearSelected() error {
	err := s.db.Model(&model.ServerRecord{}).Where("is_selected = ?", true).
		UpdateColumn("is_selected", false).Error
	if err != nil {
		return fmt.Errorf("clear selected: %w", err)
	}
	return nil
}
