package scanner

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/config"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/dedup"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/geoip"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/model"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/parser"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/sink"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/source"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/store"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/tester"
)

// batchSize is the unit of progress reporting: candidates are tested in
// batches of this size, the write queue drains between batches, and the
// status counters move once per batch.
const batchSize = 10

// Scanner drives the discovery pipeline: harvest the feeds, probe every
// candidate, persist results through a single writer, then rebalance the
// selected rotation. One cycle runs at a time; extra triggers while a
// cycle is in flight are dropped.
type Scanner struct {
	store   *store.Store
	cfg     *config.Config
	fetcher *source.Fetcher
	runner  *tester.Runner
	geodb   *geoip.Database

	// OnCycleFinished, when set, receives the refreshed aggregate stats
	// after every completed cycle.
	OnCycleFinished func(model.ScanStats)

	lock   sync.Mutex
	status *statusBoard
}

func New(st *store.Store, cfg *config.Config, geodb *geoip.Database) *Scanner {
	return &Scanner{
		store:   st,
		cfg:     cfg,
		fetcher: source.NewFetcher(cfg.FetchTimeout),
		runner:  tester.NewRunner(cfg.TestTimeout, cfg.MaxLatencyMS),
		geodb:   geodb,
		status:  newStatusBoard(),
	}
}

// Status returns a copy of the live cycle progress.
func (s *Scanner) Status() model.ScanStatus {
	return s.status.Snapshot()
}

// TriggerScan starts a cycle in the background. It reports false, with no
// other effect, when a cycle is already running.
func (s *Scanner) TriggerScan(ctx context.Context) bool {
	if !s.lock.TryLock() {
		return false
	}
	go func() {
		defer s.lock.Unlock()
		s.runCycle(ctx)
	}()
	return true
}

// ScanOnce runs one cycle on the calling goroutine. It reports false when
// a cycle is already running.
func (s *Scanner) ScanOnce(ctx context.Context) bool {
	if !s.lock.TryLock() {
		return false
	}
	defer s.lock.Unlock()
	s.runCycle(ctx)
	return true
}

// runCycle owns the status board for the duration of one cycle. The
// deferred end guarantees is_scanning drops back to false on every exit,
// store failures included.
func (s *Scanner) runCycle(ctx context.Context) {
	cycleID := uuid.NewString()
	log := slog.With("cycle_id", cycleID)

	s.status.begin(cycleID, s.cfg.ServersToTest)
	defer s.status.end()

	log.Info("scan_started")
	if err := s.cycle(ctx, log); err != nil {
		s.status.fail(err.Error())
		log.Error("scan_failed", "error", err)
	}
}

func (s *Scanner) cycle(ctx context.Context, log *slog.Logger) error {
	startedAt := time.Now().UTC()

	sources, err := s.store.ActiveSources()
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		s.status.halt("no active sources")
		log.Warn("scan_skipped", "reason", "no_active_sources")
		return nil
	}

	countries := sourceCountries(sources)
	candidates, err := s.harvest(ctx, sources, log)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		s.status.halt("no configs found")
		log.Warn("scan_skipped", "reason", "no_configs_found")
		return nil
	}
	log.Info("harvest_finished", "sources", len(sources), "candidates", len(candidates))

	// Selection is cleared up front so only servers re-verified in this
	// cycle can be shown as selected.
	s.status.phase(model.PhaseResetting)
	if err := s.store.ClearSelected(); err != nil {
		return err
	}

	s.status.beginTesting(len(candidates))
	tally, err := s.testAll(ctx, startedAt, candidates, countries)
	if err != nil {
		return err
	}

	s.status.phase(model.PhaseFinalizing)
	if err := s.rebalanceSelected(log); err != nil {
		return err
	}

	completedAt := time.Now().UTC()
	nextAt := completedAt.Add(s.cfg.ScanInterval)
	if err := s.store.UpdateStats(&completedAt, &nextAt); err != nil {
		return err
	}
	s.status.finish(tally.active, completedAt, nextAt)
	log.Info("scan_finished",
		"tested", tally.tested,
		"active", tally.active,
		"duration", time.Since(startedAt).Round(time.Millisecond),
	)

	if s.OnCycleFinished != nil {
		stats, err := s.store.Stats()
		if err != nil {
			log.Warn("stats_reload_failed", "error", err)
		} else {
			s.OnCycleFinished(stats)
		}
	}
	return nil
}

// harvest walks the active feeds in order, parsing and merging candidates
// until the test target is reached. A fetch failure skips that source; the
// cycle never fails because one mirror is down. last_scan is stamped after
// every successful fetch, whatever the parse yields.
func (s *Scanner) harvest(ctx context.Context, sources []model.Source, log *slog.Logger) ([]model.Candidate, error) {
	target := s.cfg.ServersToTest
	seen := dedup.New()
	var out []model.Candidate

	for _, src := range sources {
		if len(out) >= target {
			break
		}

		body, err := s.fetcher.Fetch(ctx, src.URL)
		if err != nil {
			log.Warn("source_fetch_failed", "source_id", src.ID, "url", src.URL, "error", err)
			continue
		}

		merged := 0
		for _, c := range parser.Parse(body, &src.ID) {
			if seen.Seen(c.Fingerprint) {
				continue
			}
			out = append(out, c)
			merged++
		}
		log.Debug("source_harvested", "source_id", src.ID, "merged", merged)

		if err := s.store.MarkSourceScanned(src.ID, time.Now().UTC()); err != nil {
			return nil, err
		}
	}

	if len(out) > target {
		out = out[:target]
	}
	return out, nil
}

type testTally struct {
	tested int
	active int
}

// testAll probes the candidates in fixed batches. Probe concurrency is
// capped at min(batchSize, MaxConcurrency); every result flows to the
// single writer, and the queue drains fully between batches so progress
// counts never run ahead of the store.
func (s *Scanner) testAll(ctx context.Context, startedAt time.Time, candidates []model.Candidate, countries map[uint]string) (testTally, error) {
	writer := sink.NewWriter(s.store, len(candidates)+1)
	geo := geoip.NewResolver(s.cfg.GeoAPIBaseURL, s.geodb)

	limit := batchSize
	if s.cfg.MaxConcurrency < limit {
		limit = s.cfg.MaxConcurrency
	}
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)

	var mu sync.Mutex
	var tally testTally
	purged := false

	for start := 0; start < len(candidates); start += batchSize {
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}

		var wg sync.WaitGroup
		for _, c := range candidates[start:end] {
			wg.Add(1)
			go func(c model.Candidate) {
				defer wg.Done()

				sem <- struct{}{}
				res := s.runner.Test(ctx, c)
				<-sem

				country := countryFor(c, countries)
				if country == "" {
					country = geo.Resolve(ctx, hostForGeo(c))
				}
				writer.Enqueue(buildRecord(c, res, country))

				mu.Lock()
				tally.tested++
				if res.Reachable {
					tally.active++
					// First proof of life this cycle: drop the records
					// that vanished from the harvest.
					if !purged {
						purged = true
						writer.EnqueuePurge(startedAt)
					}
				}
				mu.Unlock()
			}(c)
		}
		wg.Wait()

		writer.Drain()
		if err := writer.Err(); err != nil {
			writer.Close()
			return tally, err
		}
		s.status.batchDone(tally.tested, tally.active)
	}

	return tally, writer.Close()
}

// buildRecord maps one probe outcome onto the persisted row. Every active
// server enters the store selected; the rebalance pass afterwards trims
// the rotation back into the configured band.
func buildRecord(c model.Candidate, res tester.Result, country string) *model.ServerRecord {
	active := res.Status == model.StatusActive
	quality := 0
	if active {
		quality = 85
	}
	latency := res.LatencyMS

	return &model.ServerRecord{
		Fingerprint:  c.Fingerprint,
		Protocol:     c.Protocol,
		Transport:    c.Transport,
		TLSMode:      c.TLSMode,
		DisplayName:  c.DisplayName,
		Address:      c.Address,
		Port:         c.Port,
		HostHeader:   c.HostHeader,
		Path:         c.Path,
		Country:      country,
		LatencyMS:    &latency,
		Status:       res.Status,
		Reachable:    res.Reachable,
		Scanned:      res.Scanned,
		SourceID:     c.SourceID,
		IsSelected:   active,
		QualityScore: quality,
	}
}

// sourceCountries infers a country per feed from its URL, so candidates
// from curated per-country feeds skip the geo lookup entirely.
func sourceCountries(sources []model.Source) map[uint]string {
	countries := make(map[uint]string, len(sources))
	for _, src := range sources {
		if code := geoip.InferFromSourceURL(src.URL); code != "" {
			countries[src.ID] = code
		}
	}
	return countries
}

func countryFor(c model.Candidate, countries map[uint]string) string {
	if c.SourceID == nil {
		return ""
	}
	return countries[*c.SourceID]
}

// hostForGeo picks the hostname a geo lookup should locate: the host
// header when present (CDN-fronted endpoints advertise the real host
// there), the dial address otherwise.
func hostForGeo(c model.Candidate) string {
	if h := strings.TrimSpace(c.HostHeader); h != "" {
		return h
	}
	return c.Address
}
