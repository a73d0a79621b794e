package model

import "time"

// ServerStatus is the lifecycle state of a persisted server record.
type ServerStatus string

const (
	StatusPending ServerStatus = "pending"
	StatusActive  ServerStatus = "active"
	StatusTimeout ServerStatus = "timeout"
	// StatusError is reserved for store-side classification; the prober
	// itself only ever emits active or timeout.
	StatusError ServerStatus = "error"
)

// ServerRecord is the durable row for one probed endpoint. Identity is the
// fingerprint; everything else is overwritten by the latest scan except
// created_at and dislikes, which belong to the record's history.
type ServerRecord struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Fingerprint string       `gorm:"column:fingerprint;uniqueIndex;not null" json:"fingerprint"`
	Protocol    Protocol     `gorm:"column:protocol;not null" json:"protocol"`
	Transport   string       `gorm:"column:transport" json:"transport"`
	TLSMode     string       `gorm:"column:tls_mode" json:"tls_mode"`
	DisplayName string       `gorm:"column:display_name" json:"display_name"`
	Address     string       `gorm:"column:address;not null" json:"address"`
	Port        uint16       `gorm:"column:port" json:"port"`
	HostHeader  string       `gorm:"column:host_header" json:"host_header"`
	Path        string       `gorm:"column:path" json:"path"`
	Country     string       `gorm:"column:country" json:"country"`
	LatencyMS   *int         `gorm:"column:latency_ms;index:idx_servers_selected,priority:3" json:"latency_ms"`
	Status      ServerStatus `gorm:"column:status;index:idx_servers_selected,priority:2" json:"status"`
	Reachable   bool         `gorm:"column:reachable" json:"reachable"`
	Scanned     bool         `gorm:"column:scanned" json:"scanned"`
	SourceID    *uint        `gorm:"column:source_id" json:"source_id,omitempty"`
	IsSelected  bool         `gorm:"column:is_selected;index:idx_servers_selected,priority:1" json:"is_selected"`
	Dislikes    int          `gorm:"column:dislikes;default:0" json:"dislikes"`
	QualityScore int         `gorm:"column:quality_score" json:"quality_score"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (ServerRecord) TableName() string { return "servers" }

// Source is one subscription feed URL the harvester pulls from.
type Source struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	URL       string     `gorm:"column:url;uniqueIndex;not null" json:"url"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	Active    bool       `gorm:"column:active;default:true" json:"active"`
	LastScan  *time.Time `gorm:"column:last_scan" json:"last_scan,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Source) TableName() string { return "sources" }

// ScanStats is the singleton aggregate row recomputed after every cycle.
type ScanStats struct {
	ID              uint       `gorm:"primaryKey" json:"-"`
	TotalScanned    int        `gorm:"column:total_scanned" json:"total_scanned"`
	TotalActive     int        `gorm:"column:total_active" json:"total_active"`
	TotalSelected   int        `gorm:"column:total_selected" json:"total_selected"`
	TotalDislikes   int        `gorm:"column:total_dislikes" json:"total_dislikes"`
	LastScan        *time.Time `gorm:"column:last_scan" json:"last_scan,omitempty"`
	ScanCompletedAt *time.Time `gorm:"column:scan_completed_at" json:"scan_completed_at,omitempty"`
	NextScanAt      *time.Time `gorm:"column:next_scan_at" json:"next_scan_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (ScanStats) TableName() string { return "stats" }
