package tester

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/model"
)

// failLatencyMS is the sentinel recorded for any failed probe attempt.
const failLatencyMS = 999

// Result is the outcome of probing one candidate. Status here is only ever
// active or timeout; the error state is never produced by probing.
type Result struct {
	LatencyMS int
	Status    model.ServerStatus
	Reachable bool
	Scanned   bool
}

// probeAttempt is one raw connection attempt, before classification.
type probeAttempt struct {
	ok        bool
	latencyMS int
}

// Runner probes candidate endpoints with a transport-appropriate handshake
// and classifies them against a latency ceiling.
type Runner struct {
	Timeout      time.Duration
	MaxLatencyMS int
}

func NewRunner(timeout time.Duration, maxLatencyMS int) *Runner {
	return &Runner{Timeout: timeout, MaxLatencyMS: maxLatencyMS}
}

// Test probes the candidate and classifies the outcome. It never returns an
// error: an unreachable endpoint is an ordinary result, not a failure.
func (r *Runner) Test(ctx context.Context, c model.Candidate) Result {
	transport := c.ResolveTransport()
	log := slog.With(
		"target", net.JoinHostPort(c.Address, strconv.Itoa(int(c.Port))),
		"transport", transport.String(),
	)

	attempt := bestOfTwo(func() probeAttempt {
		return r.probe(ctx, c, transport)
	})
	result := r.classify(attempt)

	if result.Reachable {
		log.Debug("probe_active", "latency_ms", result.LatencyMS)
	} else {
		log.Debug("probe_timeout", "latency_ms", result.LatencyMS)
	}
	return result
}

func (r *Runner) probe(ctx context.Context, c model.Candidate, transport model.Transport) probeAttempt {
	switch transport {
	case model.TransportWebSocket:
		return r.probeWebSocket(ctx, c)
	case model.TransportHTTP2:
		return r.probeHTTP2(ctx, c)
	default:
		return r.probeTCP(ctx, c)
	}
}

// bestOfTwo retries a failed attempt exactly once; the second outcome is
// final whether or not it improved.
func bestOfTwo(probe func() probeAttempt) probeAttempt {
	if first := probe(); first.ok {
		return first
	}
	return probe()
}

// classify applies the latency ceiling. A reachable endpoint slower than
// the ceiling is reported exactly like an unreachable one.
func (r *Runner) classify(a probeAttempt) Result {
	if !a.ok || a.latencyMS > r.MaxLatencyMS {
		return Result{LatencyMS: a.latencyMS, Status: model.StatusTimeout, Reachable: false, Scanned: true}
	}
	return Result{LatencyMS: a.latencyMS, Status: model.StatusActive, Reachable: true, Scanned: true}
}
