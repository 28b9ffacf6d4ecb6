package sync

import (
	"context"
	gosync "sync"

	"go.uber.org/zap"

	"github.com/nhle/stickylist/internal/apperror"
)

// Connectivity is the process-wide online flag. It starts online and is
// changed only by the outcome of gateway calls.
type Connectivity struct {
	mu     gosync.RWMutex
	online bool
	logger *zap.Logger
}

// NewConnectivity returns a flag that starts online.
func NewConnectivity(logger *zap.Logger) *Connectivity {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connectivity{online: true, logger: logger.Named("connectivity")}
}

// Online reports whether the most recent gateway call succeeded.
func (c *Connectivity) Online() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// SetOnline records the outcome of a gateway call. It reports whether the
// flag changed.
func (c *Connectivity) SetOnline(online bool) bool {
	c.mu.Lock()
	changed := c.online != online
	c.online = online
	c.mu.Unlock()

	if changed {
		c.logger.Info("connectivity changed", zap.Bool("online", online))
	}
	return changed
}

// observe updates the flag from the error of a gateway call. Only
// transport-level failures take the process offline; a caller that gave up
// on its own context says nothing about the network.
func (c *Connectivity) observe(ctx context.Context, err error) {
	switch {
	case err == nil:
		c.SetOnline(true)
	case ctx.Err() != nil:
	case apperror.IsRemoteUnavailable(err):
		c.SetOnline(false)
	case apperror.IsAuthExpired(err):
		// The server answered.
		c.SetOnline(true)
	}
}
