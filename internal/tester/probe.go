package tester

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/model"
)

// openStream dials the candidate's endpoint, wrapping the connection in TLS
// when the candidate expects it. Certificate verification is skipped:
// endpoints are probed for liveness, not trust, and most present camouflage
// certificates that would never verify. SNI is the host header the endpoint
// expects, same as the Host line sent on plaintext probes.
func (r *Runner) openStream(ctx context.Context, c model.Candidate) (net.Conn, error) {
	address := net.JoinHostPort(c.Address, strconv.Itoa(int(c.Port)))
	dialer := &net.Dialer{Timeout: r.Timeout}

	if !c.TLSExpected() {
		return dialer.DialContext(ctx, "tcp", address)
	}

	tlsDialer := &tls.Dialer{
		NetDialer: dialer,
		Config: &tls.Config{
			InsecureSkipVerify: true,
			ServerName:         hostHeader(c),
		},
	}
	return tlsDialer.DialContext(ctx, "tcp", address)
}

// probeWebSocket sends a bare RFC 6455 upgrade request and reads one line.
// Anything but a 101 status line is a failure; the Sec-WebSocket-Accept
// echo is deliberately not validated.
func (r *Runner) probeWebSocket(ctx context.Context, c model.Candidate) probeAttempt {
	start := time.Now()
	conn, err := r.openStream(ctx, c)
	if err != nil {
		return probeAttempt{ok: false, latencyMS: failLatencyMS}
	}
	defer conn.Close()

	key := make([]byte, 16)
	if _, err := rand.Read(key); err != nil {
		return probeAttempt{ok: false, latencyMS: failLatencyMS}
	}

	req := fmt.Sprintf(
		"GET %s HTTP/1.1\r\n"+
			"Host: %s\r\n"+
			"Upgrade: websocket\r\n"+
			"Connection: Upgrade\r\n"+
			"Sec-WebSocket-Key: %s\r\n"+
			"Sec-WebSocket-Version: 13\r\n"+
			"User-Agent: Mozilla/5.0\r\n"+
			"\r\n",
		normalizePath(c.Path), hostHeader(c), base64.StdEncoding.EncodeToString(key),
	)

	conn.SetWriteDeadline(time.Now().Add(r.Timeout))
	if _, err := conn.Write([]byte(req)); err != nil {
		return probeAttempt{ok: false, latencyMS: failLatencyMS}
	}

	conn.SetReadDeadline(time.Now().Add(r.Timeout))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return probeAttempt{ok: false, latencyMS: failLatencyMS}
	}
	if !upgradeAccepted(line) {
		return probeAttempt{ok: false, latencyMS: failLatencyMS}
	}
	return probeAttempt{ok: true, latencyMS: int(time.Since(start).Milliseconds())}
}

// probeHTTP2 writes the client preface plus an empty SETTINGS frame and
// waits for the server to send anything back. gRPC endpoints answer this
// without needing a single valid request.
func (r *Runner) probeHTTP2(ctx context.Context, c model.Candidate) probeAttempt {
	start := time.Now()
	conn, err := r.openStream(ctx, c)
	if err != nil {
		return probeAttempt{ok: false, latencyMS: failLatencyMS}
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(r.Timeout))
	if _, err := io.WriteString(conn, http2.ClientPreface); err != nil {
		return probeAttempt{ok: false, latencyMS: failLatencyMS}
	}
	if err := http2.NewFramer(conn, nil).WriteSettings(); err != nil {
		return probeAttempt{ok: false, latencyMS: failLatencyMS}
	}

	// A frame header is 9 bytes, but any response at all proves a speaker
	// on the other side; the payload is never decoded.
	conn.SetReadDeadline(time.Now().Add(r.Timeout))
	buf := make([]byte, 9)
	n, _ := conn.Read(buf)
	if n == 0 {
		return probeAttempt{ok: false, latencyMS: failLatencyMS}
	}
	return probeAttempt{ok: true, latencyMS: int(time.Since(start).Milliseconds())}
}

// probeTCP is the fallback for raw transports: the stream opening (TLS
// handshake included when expected) is the whole test.
func (r *Runner) probeTCP(ctx context.Context, c model.Candidate) probeAttempt {
	start := time.Now()
	conn, err := r.openStream(ctx, c)
	if err != nil {
		return probeAttempt{ok: false, latencyMS: failLatencyMS}
	}
	conn.Close()
	return probeAttempt{ok: true, latencyMS: int(time.Since(start).Milliseconds())}
}

func upgradeAccepted(line string) bool {
	return strings.Contains(line, " 101 ") ||
		strings.HasPrefix(line, "HTTP/1.1 101") ||
		strings.HasPrefix(line, "HTTP/1.0 101")
}

// hostHeader is the Host/SNI value the endpoint expects, falling back to
// the dial address when the link names none.
func hostHeader(c model.Candidate) string {
	if h := strings.TrimSpace(c.HostHeader); h != "" {
		return h
	}
	return c.Address
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}
