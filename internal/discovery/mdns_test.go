package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/grandcat/zeroconf"
)

func entry(instance, host string, port int, v4, v6 []net.IP, txt ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	e.HostName = host
	e.Port = port
	e.AddrIPv4 = v4
	e.AddrIPv6 = v6
	e.Text = txt
	return e
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name:     "IPv4 service",
			entry:    entry("model", "gpu.local.", 8000, []net.IP{net.ParseIP("192.168.4.16")}, nil, "path=/predict"),
			wantIP:   "192.168.4.16",
			wantPort: 8000,
		},
		{
			name:     "no port defaults",
			entry:    entry("model", "gpu.local.", 0, []net.IP{net.ParseIP("10.0.0.5")}, nil),
			wantIP:   "10.0.0.5",
			wantPort: DefaultPort,
		},
		{
			name:     "IPv6 only",
			entry:    entry("model", "gpu.local.", 8000, nil, []net.IP{net.ParseIP("fe80::1")}),
			wantIP:   "fe80::1",
			wantPort: 8000,
		},
		{
			name:     "prefers IPv4",
			entry:    entry("model", "gpu.local.", 8000, []net.IP{net.ParseIP("192.168.1.50")}, []net.IP{net.ParseIP("fe80::2")}),
			wantIP:   "192.168.1.50",
			wantPort: 8000,
		},
		{
			name:    "no address",
			entry:   entry("model", "gpu.local.", 8000, nil, nil),
			wantNil: true,
		},
		{
			name:    "no instance",
			entry:   entry("", "gpu.local.", 8000, []net.IP{net.ParseIP("192.168.1.1")}, nil),
			wantNil: true,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if svc != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", svc)
				}
				return
			}
			if svc == nil {
				t.Fatal("parseServiceEntry() = nil, want service")
			}
			if svc.IP != tt.wantIP {
				t.Errorf("IP = %v, want %v", svc.IP, tt.wantIP)
			}
			if svc.Port != tt.wantPort {
				t.Errorf("Port = %v, want %v", svc.Port, tt.wantPort)
			}
			if svc.Instance != tt.entry.Instance {
				t.Errorf("Instance = %v, want %v", svc.Instance, tt.entry.Instance)
			}
			if time.Since(svc.DiscoveredAt) > time.Second {
				t.Errorf("DiscoveredAt is not recent: %v", svc.DiscoveredAt)
			}
		})
	}
}

func TestParseTXT(t *testing.T) {
	got := parseTXT([]string{"path=/predict", "version=1.2", "flag", "=orphan", "eq=a=b"})
	want := map[string]string{
		"path":    "/predict",
		"version": "1.2",
		"flag":    "",
		"eq":      "a=b",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseTXT mismatch (-want +got):\n%s", diff)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
	if scanner.serviceType() != ServiceType {
		t.Errorf("serviceType() = %v, want %v", scanner.serviceType(), ServiceType)
	}

	scanner.Timeout = 0
	scanner.ServiceType = ""
	if scanner.timeout() != DefaultScanTimeout {
		t.Errorf("zero timeout should fall back to default, got %v", scanner.timeout())
	}
	if scanner.serviceType() != ServiceType {
		t.Errorf("empty type should fall back to default, got %v", scanner.serviceType())
	}
}

// Live mDNS scans need multicast and are exercised manually with
// `flood-predict scan`.
