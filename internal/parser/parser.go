package parser

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/dedup"
	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/model"
)

// Parse extracts vmess/vless/trojan candidates from a raw feed body. The
// body is whitespace-separated links, or a single base64 blob of such links.
// Malformed or unknown-scheme tokens are dropped silently; the function
// never fails, it only yields fewer candidates. Duplicates (exact link
// text) keep their first occurrence, and first-seen order is preserved.
func Parse(content string, sourceID *uint) []model.Candidate {
	raw := strings.TrimSpace(content)
	if raw == "" {
		return nil
	}

	// Feeds are frequently published as one big base64 document. Only
	// swap in the decoded text when it actually contains links.
	if !strings.Contains(raw, "://") {
		if decoded := decodeBase64(raw); strings.Contains(decoded, "://") {
			raw = decoded
		}
	}

	seen := dedup.New()
	var out []model.Candidate
	for _, token := range strings.Fields(raw) {
		var c *model.Candidate
		switch {
		case strings.HasPrefix(token, "vmess://"):
			c = parseVMess(token, sourceID)
		case strings.HasPrefix(token, "vless://"):
			c = parseShareURI(token, model.ProtocolVLESS, sourceID)
		case strings.HasPrefix(token, "trojan://"):
			c = parseShareURI(token, model.ProtocolTrojan, sourceID)
		}
		if c == nil || seen.Seen(c.Fingerprint) {
			continue
		}
		out = append(out, *c)
	}
	return out
}

// decodeBase64 tolerates sloppy feeds: embedded whitespace is stripped,
// both the standard and URL-safe alphabets are accepted, and missing
// padding is restored. Returns "" when the input is not base64 at all.
func decodeBase64(value string) string {
	compact := strings.Join(strings.Fields(value), "")
	compact = strings.NewReplacer("-", "+", "_", "/").Replace(compact)
	if n := len(compact) % 4; n != 0 {
		compact += strings.Repeat("=", 4-n)
	}
	raw, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return ""
	}
	return string(raw)
}

// parseVMess handles vmess://<base64 JSON> links.
func parseVMess(link string, sourceID *uint) *model.Candidate {
	payload := decodeBase64(link[len("vmess://"):])
	if payload == "" {
		return nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return nil
	}

	address := strings.TrimSpace(asString(fields["add"]))
	port := asPort(fields["port"])
	if address == "" || address == "unknown" || port <= 0 || port >= 65536 {
		return nil
	}

	return &model.Candidate{
		Fingerprint: link,
		Protocol:    model.ProtocolVMess,
		Transport:   orDefault(asString(fields["net"]), "tcp"),
		TLSMode:     asString(fields["tls"]),
		DisplayName: orDefault(asString(fields["ps"]), "vmess-node"),
		Address:     address,
		Port:        uint16(port),
		HostHeader:  asString(fields["host"]),
		Path:        asString(fields["path"]),
		SourceID:    sourceID,
	}
}

// parseShareURI handles the URI-shaped vless:// and trojan:// links.
func parseShareURI(link string, protocol model.Protocol, sourceID *uint) *model.Candidate {
	u, err := url.Parse(link)
	if err != nil {
		return nil
	}

	hostname := strings.ToLower(strings.TrimSpace(u.Hostname()))
	if hostname == "" || hostname == "unknown" {
		return nil
	}

	port := 443
	if raw := u.Port(); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n >= 65536 {
			return nil
		}
		port = n
	}

	q := u.Query()
	name := u.Fragment
	if name == "" {
		name = string(protocol) + "-node"
	}

	return &model.Candidate{
		Fingerprint: link,
		Protocol:    protocol,
		Transport:   strings.TrimSpace(firstNonEmpty(q.Get("type"), q.Get("net"), "tcp")),
		TLSMode:     strings.TrimSpace(q.Get("security")),
		DisplayName: name,
		Address:     hostname,
		Port:        uint16(port),
		HostHeader:  strings.TrimSpace(firstNonEmpty(q.Get("host"), q.Get("sni"))),
		Path:        strings.TrimSpace(firstNonEmpty(q.Get("path"), q.Get("serviceName"))),
		SourceID:    sourceID,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// asString renders the loosely typed vmess JSON fields; ports and sometimes
// names arrive as numbers.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asPort(v any) int {
	switch t := v.(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	case float64:
		return int(t)
	default:
		return 0
	}
}
