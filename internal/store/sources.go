package store

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/model"
)

// SeedSources inserts feed URLs that are not present yet, numbering them in
// list order. Existing rows keep their name and active flag.
func (s *Store) SeedSources(urls []string) error {
	for i, u := range urls {
		src := model.Source{URL: u, Name: fmt.Sprintf("Source %d", i+1), Active: true}
		if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&src).Error; err != nil {
			return fmt.Errorf("seed source %q: %w", u, err)
		}
	}
	return nil
}

// ActiveSources returns the feeds enabled for harvesting.
func (s *Store) ActiveSources() ([]model.Source, error) {
	var sources []model.Source
	if err := s.db.Where("active = ?", true).Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("load active sources: %w", err)
	}
	return sources, nil
}

// MarkSourceScanned records a successful fetch time for the feed.
func (s *Store) MarkSourceScanned(id uint, at time.Time) error {
	if err := s.db.Model(&model.Source{}).Where("id = ?", id).Update("last_scan", at).Error; err != nil {
		return fmt.Errorf("mark source scanned: %w", err)
	}
	return nil
}
