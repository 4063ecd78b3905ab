package discovery

import (
	"context"
	"fmt"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/Ahlyab/flood-prediction/internal/logging"
)

// Advertise announces the browser form on port until ctx is done.
func Advertise(ctx context.Context, instance string, port int, txt []string) error {
	server, err := zeroconf.Register(instance, FormServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	logging.Info("Advertising form over mDNS",
		zap.String("instance", instance),
		zap.String("type", FormServiceType),
		zap.Int("port", port),
	)

	<-ctx.Done()
	server.Shutdown()
	return nil
}
