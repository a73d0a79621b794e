package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	lookupConcurrency = 10
	lookupTimeout     = 6 * time.Second
)

// apiResponse is the trimmed ip-api.com answer.
type apiResponse struct {
	Status      string `json:"status"`
	CountryCode string `json:"countryCode"`
}

// Resolver answers country codes for proxy endpoints. Lookups are memoized,
// misses included, for the resolver's lifetime, so the scanner creates a
// fresh one per cycle. An optional local mmdb short-circuits IP literals;
// hostnames always go to the HTTP API, which resolves them server-side.
type Resolver struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	sem     chan struct{}
	db      *Database

	mu    sync.Mutex
	cache map[string]string
}

func NewResolver(baseURL string, db *Database) *Resolver {
	return &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: lookupTimeout},
		// ip-api.com bans clients above 45 requests per minute.
		limiter: rate.NewLimiter(rate.Every(time.Minute/45), 1),
		sem:     make(chan struct{}, lookupConcurrency),
		db:      db,
		cache:   make(map[string]string),
	}
}

// Resolve returns the ISO country code for a host, or "" when unknown.
// It never returns an error: geo data is decoration, not a gate.
func (r *Resolver) Resolve(ctx context.Context, host string) string {
	key := strings.ToLower(strings.TrimSpace(host))
	if key == "" {
		return ""
	}

	r.mu.Lock()
	code, hit := r.cache[key]
	r.mu.Unlock()
	if hit {
		return code
	}

	code = r.lookup(ctx, key)

	r.mu.Lock()
	r.cache[key] = code
	r.mu.Unlock()
	return code
}

func (r *Resolver) lookup(ctx context.Context, key string) string {
	if ip := net.ParseIP(key); ip != nil {
		if code := r.db.CountryCode(ip); code != "" {
			return code
		}
	}

	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		return ""
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return ""
	}

	lookupURL := fmt.Sprintf("%s/json/%s?fields=status,countryCode", r.baseURL, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return ""
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return ""
	}
	if data.Status != "success" {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(data.CountryCode))
}
