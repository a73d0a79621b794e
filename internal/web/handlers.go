package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/store"
)

// listedServer is one row of the /api/servers payload.
type listedServer struct {
	ID      uint    `json:"id"`
	Name    string  `json:"name"`
	Latency *int    `json:"latency"`
	Country *string `json:"country"`
	Config  string  `json:"config"`
	CopyURL *string `json:"copy_url"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// configText serves the bare share link, for one-tap copy clients. The
// response is never cacheable: the record behind an id changes every cycle.
func (s *Server) configText(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.String(http.StatusBadRequest, "invalid id")
		return
	}
	link, err := s.store.ConfigString(id)
	if errors.Is(err, store.ErrNotFound) {
		c.String(http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.String(http.StatusOK, link)
}

// status reports live cycle progress. Completion and next-run times fall
// back to the stored stats row between process restarts.
func (s *Server) status(c *gin.Context) {
	st := s.scanner.Status()
	if st.ScanCompletedAt == nil || st.NextScanAt == nil {
		completed, next, err := s.store.ScanTimes()
		if err != nil {
			slog.Warn("scan_times_load_failed", "error", err)
		} else {
			if st.ScanCompletedAt == nil {
				st.ScanCompletedAt = completed
			}
			if st.NextScanAt == nil {
				st.NextScanAt = next
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"is_scanning":       st.IsScanning,
		"phase":             st.Phase,
		"progress":          st.Progress,
		"total":             st.TotalServers,
		"tested":            st.TestedServers,
		"active":            st.ActiveServers,
		"message":           st.Message,
		"scan_completed_at": st.ScanCompletedAt,
		"next_scan_at":      st.NextScanAt,
		"default_per_page":  s.cfg.ServersPerPage,
	})
}

func (s *Server) listServers(c *gin.Context) {
	page := queryInt(c, "page", 0)
	if page < 0 {
		page = 0
	}
	perPage := queryInt(c, "per_page", s.cfg.ServersPerPage)
	if perPage < 1 {
		perPage = 1
	}
	if perPage > 200 {
		perPage = 200
	}
	maxLen := queryInt(c, "max_len", 0)
	if maxLen < 0 {
		maxLen = 0
	}

	total, err := s.store.ActiveTotal(maxLen)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load servers"})
		return
	}

	items := []listedServer{}
	if total > 0 {
		// Requests past the end serve the last page, not an empty one.
		servePage := page
		if maxPage := (total - 1) / perPage; servePage > maxPage {
			servePage = maxPage
		}

		records, err := s.store.ActivePage(servePage*perPage, perPage, maxLen)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load servers"})
			return
		}

		base := strings.TrimRight(s.cfg.PublicBaseURL, "/")
		for _, rec := range records {
			item := listedServer{
				ID:      rec.ID,
				Name:    rec.DisplayName,
				Latency: rec.LatencyMS,
				Config:  rec.Fingerprint,
			}
			if rec.Country != "" {
				country := rec.Country
				item.Country = &country
			}
			if base != "" {
				link := fmt.Sprintf("%s/c/%d", base, rec.ID)
				item.CopyURL = &link
			}
			items = append(items, item)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"page":     page,
		"per_page": perPage,
		"total":    total,
		"servers":  items,
	})
}

func (s *Server) serverConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	link, err := s.store.ConfigString(id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load config"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "config": link})
}

func (s *Server) dislike(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	err := s.store.AddDislike(id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record dislike"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// triggerScan kicks a background cycle. The endpoint stays locked while no
// API key is configured.
func (s *Server) triggerScan(c *gin.Context) {
	if !s.authorized(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if !s.scanner.TriggerScan(context.Background()) {
		c.JSON(http.StatusConflict, gin.H{"error": "scan already running"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"started": true})
}

// authorized accepts the key as a bearer token or a ?key= query value.
func (s *Server) authorized(c *gin.Context) bool {
	key := strings.TrimSpace(s.cfg.APIKey)
	if key == "" {
		return false
	}
	if auth := c.GetHeader("Authorization"); auth != "" {
		const p = "bearer "
		if len(auth) >= len(p) && strings.EqualFold(auth[:len(p)], p) {
			if strings.TrimSpace(auth[len(p):]) == key {
				return true
			}
		}
	}
	return c.Query("key") == key
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// queryInt parses an integer query param, falling back on absent or
// malformed values.
func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
