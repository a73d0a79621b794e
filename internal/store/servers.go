package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/model"
)

// UpsertServer inserts or refreshes one record keyed by fingerprint. Every
// mutable column is overwritten by the incoming scan; id, fingerprint,
// created_at and dislikes belong to the record's history and survive.
func (s *Store) UpsertServer(rec *model.ServerRecord) error {
	normalizeRecord(rec)
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "fingerprint"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"protocol", "transport", "tls_mode", "display_name", "address", "port",
			"host_header", "path", "country", "latency_ms", "status", "quality_score",
			"reachable", "scanned", "source_id", "is_selected", "updated_at",
		}),
	}).Create(rec).Error
	if err != nil {
		return fmt.Errorf("upsert server: %w", err)
	}
	return nil
}

func normalizeRecord(rec *model.ServerRecord) {
	if rec.Transport == "" {
		rec.Transport = "tcp"
	}
	if rec.DisplayName == "" {
		rec.DisplayName = "Unnamed"
	}
	if rec.HostHeader == "" {
		rec.HostHeader = rec.Address
	}
	if rec.Path == "" {
		rec.Path = "/"
	}
	if rec.Country == "" {
		rec.Country = "Unknown"
	}
	if rec.Status == "" {
		rec.Status = model.StatusPending
	}
}

// DeleteServersBefore drops records not re-verified in the current cycle:
// anything whose updated_at predates the cycle start vanished from the
// harvest and would otherwise linger forever.
func (s *Store) DeleteServersBefore(cutoff time.Time) error {
	if err := s.db.Where("updated_at < ?", cutoff).Delete(&model.ServerRecord{}).Error; err != nil {
		return fmt.Errorf("purge stale servers: %w", err)
	}
	return nil
}

// ActivePage returns one page of active servers, fastest first with missing
// latency sorted last, ties broken by most recently updated. maxConfigLen
// > 0 filters out fingerprints too long for the requesting client.
func (s *Store) ActivePage(offset, limit, maxConfigLen int) ([]model.ServerRecord, error) {
	q := s.db.Model(&model.ServerRecord{}).Where("status = ?", model.StatusActive)
	if maxConfigLen > 0 {
		q = q.Where("LENGTH(fingerprint) <= ?", maxConfigLen)
	}
	var records []model.ServerRecord
	err := q.Order("COALESCE(latency_ms, 99999) ASC, updated_at DESC").
		Limit(limit).Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load server page: %w", err)
	}
	return records, nil
}

// ActiveTotal counts the active servers ActivePage pages over.
func (s *Store) ActiveTotal(maxConfigLen int) (int, error) {
	q := s.db.Model(&model.ServerRecord{}).Where("status = ?", model.StatusActive)
	if maxConfigLen > 0 {
		q = q.Where("LENGTH(fingerprint) <= ?", maxConfigLen)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count active servers: %w", err)
	}
	return int(n), nil
}

// ConfigString returns the share link for one record.
func (s *Store) ConfigString(id uint) (string, error) {
	var rec model.ServerRecord
	err := s.db.Select("fingerprint").First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load config string: %w", err)
	}
	return rec.Fingerprint, nil
}

// AddDislike bumps the feedback counter without touching updated_at, so
// user votes never shield a record from the stale purge.
func (s *Store) AddDislike(id uint) error {
	res := s.db.Model(&model.ServerRecord{}).Where("id = ?", id).
		UpdateColumn("dislikes", gorm.Expr("dislikes + 1"))
	if res.Error != nil {
		return fmt.Errorf("add dislike: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
