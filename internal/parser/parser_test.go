package parser

import (
	"encoding/base64"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/MOHAMMADREZAABEDINPOOR/PIMX-PASS-BOT/internal/model"
)

func vmessLink(t *testing.T, fields map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal vmess payload: %v", err)
	}
	return "vmess://" + base64.StdEncoding.EncodeToString(payload)
}

func TestParseEmptyContent(t *testing.T) {
	for _, content := range []string{"", "   \n\t  ", "hello world", "ss://abc ssr://def"} {
		if got := Parse(content, nil); len(got) != 0 {
			t.Errorf("Parse(%q) = %d candidates, want 0", content, len(got))
		}
	}
}

func TestParseVMessStringPort(t *testing.T) {
	link := vmessLink(t, map[string]any{
		"add":  "example.com",
		"port": "8443",
		"ps":   "my node",
		"net":  "ws",
		"host": "cdn.example.com",
		"path": "/vm",
		"tls":  "tls",
	})
	got := Parse(link, nil)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c := got[0]
	if c.Fingerprint != link {
		t.Errorf("fingerprint = %q, want original link", c.Fingerprint)
	}
	if c.Protocol != model.ProtocolVMess {
		t.Errorf("protocol = %q, want vmess", c.Protocol)
	}
	if c.Address != "example.com" || c.Port != 8443 {
		t.Errorf("endpoint = %s:%d, want example.com:8443", c.Address, c.Port)
	}
	if c.Transport != "ws" || c.HostHeader != "cdn.example.com" || c.Path != "/vm" {
		t.Errorf("transport fields = (%q,%q,%q)", c.Transport, c.HostHeader, c.Path)
	}
	if c.TLSMode != "tls" || c.DisplayName != "my node" {
		t.Errorf("tls/name = (%q,%q)", c.TLSMode, c.DisplayName)
	}
}

func TestParseVMessNumericPortEqualsStringPort(t *testing.T) {
	asString := vmessLink(t, map[string]any{"add": "1.2.3.4", "port": "443"})
	asNumber := vmessLink(t, map[string]any{"add": "1.2.3.4", "port": 443})

	a := Parse(asString, nil)
	b := Parse(asNumber, nil)
	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("got %d/%d candidates, want 1/1", len(a), len(b))
	}
	if a[0].Port != 443 || b[0].Port != 443 {
		t.Errorf("ports = %d/%d, want 443/443", a[0].Port, b[0].Port)
	}
}

func TestParseVMessDefaults(t *testing.T) {
	got := Parse(vmessLink(t, map[string]any{"add": "1.2.3.4", "port": 80}), nil)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c := got[0]
	if c.Transport != "tcp" {
		t.Errorf("transport = %q, want tcp default", c.Transport)
	}
	if c.DisplayName != "vmess-node" {
		t.Errorf("display name = %q, want vmess-node default", c.DisplayName)
	}
	if c.TLSMode != "" || c.HostHeader != "" || c.Path != "" {
		t.Errorf("tls/host/path = (%q,%q,%q), want empty", c.TLSMode, c.HostHeader, c.Path)
	}
}

func TestParseVMessRejections(t *testing.T) {
	cases := map[string]string{
		"not base64":   "vmess://!!!not-base64!!!",
		"not json":     "vmess://" + base64.StdEncoding.EncodeToString([]byte("plain text")),
		"empty add":    vmessLink(t, map[string]any{"add": "", "port": 443}),
		"unknown add":  vmessLink(t, map[string]any{"add": "unknown", "port": 443}),
		"port zero":    vmessLink(t, map[string]any{"add": "a.com", "port": 0}),
		"port too big": vmessLink(t, map[string]any{"add": "a.com", "port": 65536}),
		"port text":    vmessLink(t, map[string]any{"add": "a.com", "port": "abc"}),
	}
	for name, link := range cases {
		if got := Parse(link, nil); len(got) != 0 {
			t.Errorf("%s: got %d candidates, want rejection", name, len(got))
		}
	}
}

func TestParseVLESS(t *testing.T) {
	link := "vless://uuid-1234@proxy.example.com:2053?type=ws&security=tls&sni=edge.example.com&path=%2Fws#My%20Server"
	got := Parse(link, nil)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c := got[0]
	if c.Protocol != model.ProtocolVLESS {
		t.Errorf("protocol = %q, want vless", c.Protocol)
	}
	if c.Address != "proxy.example.com" || c.Port != 2053 {
		t.Errorf("endpoint = %s:%d, want proxy.example.com:2053", c.Address, c.Port)
	}
	if c.Transport != "ws" || c.TLSMode != "tls" {
		t.Errorf("transport/tls = (%q,%q)", c.Transport, c.TLSMode)
	}
	if c.HostHeader != "edge.example.com" {
		t.Errorf("host header = %q, want sni fallback", c.HostHeader)
	}
	if c.Path != "/ws" {
		t.Errorf("path = %q, want /ws", c.Path)
	}
	if c.DisplayName != "My Server" {
		t.Errorf("display name = %q, want percent-decoded fragment", c.DisplayName)
	}
}

func TestParseVLESSDefaults(t *testing.T) {
	got := Parse("vless://uuid@host.example.com", nil)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c := got[0]
	if c.Port != 443 {
		t.Errorf("port = %d, want 443 default", c.Port)
	}
	if c.Transport != "tcp" {
		t.Errorf("transport = %q, want tcp default", c.Transport)
	}
	if c.DisplayName != "vless-node" {
		t.Errorf("display name = %q, want vless-node default", c.DisplayName)
	}
}

func TestParseVLESSGRPCServiceName(t *testing.T) {
	got := Parse("vless://uuid@host.com:443?type=grpc&serviceName=TunnelService&security=reality", nil)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Path != "TunnelService" {
		t.Errorf("path = %q, want serviceName fallback", got[0].Path)
	}
	if got[0].TLSMode != "reality" {
		t.Errorf("tls mode = %q, want reality", got[0].TLSMode)
	}
}

func TestParseVLESSHostBeatsSNI(t *testing.T) {
	got := Parse("vless://uuid@host.com:443?host=first.example.com&sni=second.example.com", nil)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].HostHeader != "first.example.com" {
		t.Errorf("host header = %q, want host param to win", got[0].HostHeader)
	}
}

func TestParseVLESSIPv6(t *testing.T) {
	got := Parse("vless://uuid@[2001:db8::1]:8443#v6", nil)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Address != "2001:db8::1" || got[0].Port != 8443 {
		t.Errorf("endpoint = %s:%d, want bracket-stripped v6", got[0].Address, got[0].Port)
	}
}

func TestParseURIRejections(t *testing.T) {
	cases := map[string]string{
		"no host":          "vless://uuid@:443",
		"unknown host":     "trojan://pw@unknown:443",
		"port out of range": "vless://uuid@host.com:99999",
		"port not numeric": "vless://uuid@host.com:abc",
	}
	for name, link := range cases {
		if got := Parse(link, nil); len(got) != 0 {
			t.Errorf("%s: got %d candidates, want rejection", name, len(got))
		}
	}
}

func TestParseTrojan(t *testing.T) {
	got := Parse("trojan://secret@tr.example.com:443?security=tls#%D8%B3%D8%B1%D9%88%D8%B1", nil)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	c := got[0]
	if c.Protocol != model.ProtocolTrojan {
		t.Errorf("protocol = %q, want trojan", c.Protocol)
	}
	if c.DisplayName != "سرور" {
		t.Errorf("display name = %q, want decoded fragment", c.DisplayName)
	}
}

func TestParseWholeBlobBase64(t *testing.T) {
	plain := strings.Join([]string{
		"vless://uuid@a.example.com:443#one",
		"trojan://pw@b.example.com:8443#two",
	}, "\n")
	blob := base64.StdEncoding.EncodeToString([]byte(plain))

	direct := Parse(plain, nil)
	decoded := Parse(blob, nil)
	if !reflect.DeepEqual(direct, decoded) {
		t.Errorf("base64 blob parse differs from plain parse:\n%+v\nvs\n%+v", decoded, direct)
	}
	if len(direct) != 2 {
		t.Errorf("got %d candidates, want 2", len(direct))
	}
}

func TestParseURLSafeBase64WithoutPadding(t *testing.T) {
	plain := "vless://uuid@pad.example.com:443#p"
	blob := base64.RawURLEncoding.EncodeToString([]byte(plain))
	got := Parse(blob, nil)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].Address != "pad.example.com" {
		t.Errorf("address = %q", got[0].Address)
	}
}

func TestParseDedupFirstWins(t *testing.T) {
	content := strings.Join([]string{
		"vless://uuid@dup.example.com:443#first",
		"trojan://pw@other.example.com:443#mid",
		"vless://uuid@dup.example.com:443#first",
		"vless://uuid@dup.example.com:443#different-name",
	}, "\n")
	got := Parse(content, nil)
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3 (exact-text dedup only)", len(got))
	}
	if got[0].DisplayName != "first" || got[1].Protocol != model.ProtocolTrojan {
		t.Errorf("order not preserved: %+v", got)
	}
	if got[2].DisplayName != "different-name" {
		t.Errorf("distinct fragment should be its own candidate, got %+v", got[2])
	}
}

func TestParseCarriesSourceID(t *testing.T) {
	id := uint(7)
	got := Parse("vless://uuid@src.example.com:443", &id)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if got[0].SourceID == nil || *got[0].SourceID != 7 {
		t.Errorf("source id = %v, want 7", got[0].SourceID)
	}
}
