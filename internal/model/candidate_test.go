package model

import "testing"

func TestResolveTransport(t *testing.T) {
	cases := map[string]Transport{
		"ws":        TransportWebSocket,
		"websocket": TransportWebSocket,
		" WS ":      TransportWebSocket,
		"grpc":      TransportHTTP2,
		"h2":        TransportHTTP2,
		"http2":     TransportHTTP2,
		"tcp":       TransportRaw,
		"":          TransportRaw,
		"kcp":       TransportRaw,
		"quic":      TransportRaw,
		"http":      TransportRaw,
	}
	for raw, want := range cases {
		if got := ResolveTransport(raw); got != want {
			t.Errorf("ResolveTransport(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestTLSExpected(t *testing.T) {
	cases := []struct {
		mode string
		port uint16
		want bool
	}{
		{"tls", 80, true},
		{"reality", 8443, true},
		{" TLS ", 80, true},
		{"", 443, true},
		{"", 80, false},
		{"none", 443, true},
		{"none", 80, false},
		{"xtls", 8080, false},
		{"xtls", 443, true},
	}
	for _, tc := range cases {
		c := Candidate{TLSMode: tc.mode, Port: tc.port}
		if got := c.TLSExpected(); got != tc.want {
			t.Errorf("TLSExpected(mode=%q, port=%d) = %v, want %v", tc.mode, tc.port, got, tc.want)
		}
	}
}
