package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/model"
)

// ErrNotFound is returned for lookups of records that do not exist.
var ErrNotFound = errors.New("record not found")

// DefaultSources are the curated feeds seeded on first start.
var DefaultSources = []string{
	"https://raw.githubusercontent.com/MrAbolfazlNorouzi/iran-configs/refs/heads/main/configs/working-configs.txt",
	"https://raw.githubusercontent.com/Arianlavi/RebeldevConfig/refs/heads/main/RebelLink/trojan_subscriptions.txt",
	"https://raw.githubusercontent.com/nyeinkokoaung404/V2ray-Configs/refs/heads/main/Sub2.txt",
	"https://raw.githubusercontent.com/V2RAYCONFIGSPOOL/V2RAY_SUB/refs/heads/main/v2ray_configs_no4.txt",
	"https://raw.githubusercontent.com/V2RAYCONFIGSPOOL/V2RAY_SUB/refs/heads/main/v2ray_configs_no3.txt",
	"https://raw.githubusercontent.com/V2RAYCONFIGSPOOL/V2RAY_SUB/refs/heads/main/v2ray_configs_no8.txt",
	"https://raw.githubusercontent.com/Arianlavi/RebeldevConfig/refs/heads/main/RebelLink/vless_subscriptions.txt",
	"https://raw.githubusercontent.com/V2RAYCONFIGSPOOL/V2RAY_SUB/refs/heads/main/v2ray_configs_no1.txt",
	"https://raw.githubusercontent.com/V2RAYCONFIGSPOOL/V2RAY_SUB/refs/heads/main/v2ray_configs_no6.txt",
	"https://raw.githubusercontent.com/ShatakVPN/ConfigForge-V2Ray/refs/heads/main/configs/us/all.txt",
	"https://raw.githubusercontent.com/barry-far/V2ray-Config/refs/heads/main/Sub25.txt",
	"https://raw.githubusercontent.com/Danialsamadi/v2go/refs/heads/main/Sub21.txt",
	"https://raw.githubusercontent.com/nyeinkokoaung404/V2ray-Configs/refs/heads/main/Sub1.txt",
	"https://raw.githubusercontent.com/ShatakVPN/ConfigForge-V2Ray/refs/heads/main/configs/ua/all.txt",
}

// Store wraps the sqlite database behind typed operations. During a scan
// all server writes flow through one writer goroutine, so the store itself
// stays free of transaction juggling.
type Store struct {
	db *gorm.DB
}

// Open opens the database at path, creating directories and schema as
// needed, and seeds the source list. seedURLs may be nil.
func Open(path string, seedURLs []string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." && !strings.Contains(path, ":memory:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000&_fk=1"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  glogger.Default.LogMode(glogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&model.Source{}, &model.ServerRecord{}, &model.ScanStats{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureStatsRow(); err != nil {
		return nil, err
	}
	if err := s.SeedSources(seedURLs); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureStatsRow() error {
	stats := model.ScanStats{ID: 1}
	if err := s.db.FirstOrCreate(&stats, model.ScanStats{ID: 1}).Error; err != nil {
		return fmt.Errorf("ensure stats row: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
