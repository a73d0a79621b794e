package model

import "strings"

type Protocol string

const (
	ProtocolVMess  Protocol = "vmess"
	ProtocolVLESS  Protocol = "vless"
	ProtocolTrojan Protocol = "trojan"
)

// Transport is the closed set of probe strategies. The free-form transport
// string from a share link is resolved exactly once, at probe time, and
// dispatched on this enum; anything unrecognized degrades to a raw TCP check.
type Transport int

const (
	TransportRaw Transport = iota
	TransportWebSocket
	TransportHTTP2
)

func (t Transport) String() string {
	switch t {
	case TransportWebSocket:
		return "websocket"
	case TransportHTTP2:
		return "http2"
	default:
		return "raw"
	}
}

// ResolveTransport maps a raw transport label onto the probe set.
// grpc rides the HTTP/2 preface check since it is framed over h2.
func ResolveTransport(raw string) Transport {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ws", "websocket":
		return TransportWebSocket
	case "grpc", "h2", "http2":
		return TransportHTTP2
	default:
		return TransportRaw
	}
}

// Candidate is one parsed share link, not yet probed or persisted.
// Fingerprint is the exact original link text and is the identity used for
// dedup and for the servers table's unique key.
type Candidate struct {
	Fingerprint string   `json:"fingerprint"`
	Protocol    Protocol `json:"protocol"`
	Transport   string   `json:"transport"`
	TLSMode     string   `json:"tls_mode"`
	DisplayName string   `json:"display_name"`
	Address     string   `json:"address"`
	Port        uint16   `json:"port"`
	HostHeader  string   `json:"host_header"`
	Path        string   `json:"path"`
	SourceID    *uint    `json:"source_id,omitempty"`
}

// ResolveTransport resolves the candidate's raw transport string.
func (c Candidate) ResolveTransport() Transport {
	return ResolveTransport(c.Transport)
}

// TLSExpected reports whether the probe must wrap the stream in TLS.
// Explicit "tls" and "reality" always do; every other value, including an
// explicit "none", falls back to the port-443 convention.
func (c Candidate) TLSExpected() bool {
	switch strings.ToLower(strings.TrimSpace(c.TLSMode)) {
	case "tls", "reality":
		return true
	}
	return c.Port == 443
}
