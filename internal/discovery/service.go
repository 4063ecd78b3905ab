package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Service is a prediction service found on the local network
type Service struct {
	// Instance is the advertised instance name (e.g., "flood-model-1")
	Instance string

	// Hostname is the mDNS hostname (e.g., "gpu-box.local.")
	Hostname string

	// IP is the address to connect to, IPv4 when available
	IP string

	// Port is the HTTP port of the service
	Port int

	// Metadata holds the TXT record. "path" is the predict endpoint and
	// "version" is the model version when the service publishes them.
	Metadata map[string]string

	// DiscoveredAt is when the announcement was received
	DiscoveredAt time.Time
}

// String returns a one-line description for scan output
func (s *Service) String() string {
	return fmt.Sprintf("%s (%s) at %s", s.Instance, s.Hostname, s.BaseURL())
}

// BaseURL returns the HTTP root of the service
func (s *Service) BaseURL() string {
	return "http://" + net.JoinHostPort(s.IP, strconv.Itoa(s.Port))
}

// PredictPath returns the advertised prediction endpoint, or "" when the
// service did not publish one.
func (s *Service) PredictPath() string {
	p := s.GetMetadata("path")
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// GetMetadata retrieves a TXT value by key, or "" if absent
func (s *Service) GetMetadata(key string) string {
	if s.Metadata == nil {
		return ""
	}
	return s.Metadata[key]
}
