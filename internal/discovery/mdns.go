package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/Ahlyab/flood-prediction/internal/logging"
)

const (
	// ServiceType is advertised by prediction services
	ServiceType = "_floodpredict._tcp"

	// FormServiceType is advertised by `flood-predict serve`
	FormServiceType = "_floodform._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// DefaultScanTimeout is how long a scan listens for announcements
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is assumed when an announcement carries no port
	DefaultPort = 8000
)

// ErrNotFound is returned when no matching service answered in time
var ErrNotFound = errors.New("no prediction service found")

// Scanner browses mDNS for prediction services
type Scanner struct {
	// Timeout is the maximum time to listen for announcements
	Timeout time.Duration

	// ServiceType overrides the browsed type
	ServiceType string
}

// NewScanner creates a scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout:     DefaultScanTimeout,
		ServiceType: ServiceType,
	}
}

// Scan collects every service announced before the timeout, ordered by
// instance name. Repeated announcements of one instance are merged.
func (s *Scanner) Scan(ctx context.Context) ([]*Service, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var (
		mu    sync.Mutex
		seen  = make(map[string]*Service)
		drain = make(chan struct{})
	)
	go func() {
		defer close(drain)
		for entry := range entries {
			svc := parseServiceEntry(entry)
			if svc == nil {
				continue
			}
			mu.Lock()
			seen[svc.Instance] = svc
			mu.Unlock()
			logging.LogServiceDiscovered(svc.Instance, svc.BaseURL())
		}
	}()

	if err := resolver.Browse(ctx, s.serviceType(), ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// zeroconf closes entries once the browse context ends
	select {
	case <-drain:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	services := make([]*Service, 0, len(seen))
	for _, svc := range seen {
		services = append(services, svc)
	}
	sort.Slice(services, func(i, j int) bool { return services[i].Instance < services[j].Instance })
	return services, nil
}

// First returns the first service to answer. An empty instance accepts any.
func (s *Scanner) First(ctx context.Context, instance string) (*Service, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Service, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			svc := parseServiceEntry(entry)
			if svc == nil || (instance != "" && svc.Instance != instance) {
				continue
			}
			select {
			case found <- svc:
				cancel()
			default:
			}
		}
	}()

	if err := resolver.Browse(ctx, s.serviceType(), ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case svc := <-found:
		return svc, nil
	case <-ctx.Done():
		select {
		case svc := <-found:
			return svc, nil
		default:
		}
		if instance != "" {
			return nil, fmt.Errorf("%w: instance %q did not answer within %s", ErrNotFound, instance, s.timeout())
		}
		return nil, fmt.Errorf("%w within %s", ErrNotFound, s.timeout())
	}
}

func (s *Scanner) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultScanTimeout
	}
	return s.Timeout
}

func (s *Scanner) serviceType() string {
	if s.ServiceType == "" {
		return ServiceType
	}
	return s.ServiceType
}

// parseServiceEntry converts a zeroconf entry to a Service.
// Returns nil for entries without an instance name or address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Service {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Service{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     parseTXT(entry.Text),
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" records. Keys without a value map to "".
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		key, value, _ := strings.Cut(txt, "=")
		if key == "" {
			continue
		}
		metadata[key] = value
	}
	return metadata
}

// Scan is a convenience wrapper using a custom timeout
func Scan(ctx context.Context, timeout time.Duration) ([]*Service, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.Scan(ctx)
}
