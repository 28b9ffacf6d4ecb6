package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/stickylist/internal/apperror"
)

// loadTimeout is the maximum time allowed for a single reload.
const loadTimeout = 30 * time.Second

// Loader is a collection the Refresher can reload.
type Loader interface {
	Key() string
	Load(ctx context.Context) (LoadResult, error)
}

// RefreshResultMsg is a tea.Msg sent when a background reload completes.
type RefreshResultMsg struct {
	Key         string
	Result      LoadResult
	Error       error
	AuthExpired bool
}

// Refresher reloads registered collections in the background while the
// process is offline, so the UI notices when the server is reachable
// again. Pending local changes are never replayed.
type Refresher struct {
	conn     *Connectivity
	interval time.Duration
	logger   *zap.Logger

	mu      gosync.Mutex
	loaders map[string]Loader
	running bool

	resultCh  chan RefreshResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	wg        gosync.WaitGroup
}

// NewRefresher creates a Refresher probing every interval. A non-positive
// interval disables periodic probes; RefreshAll still works once started.
func NewRefresher(conn *Connectivity, interval time.Duration, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		conn:      conn,
		interval:  interval,
		logger:    logger.Named("refresher"),
		loaders:   make(map[string]Loader),
		resultCh:  make(chan RefreshResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Register adds l, replacing any loader with the same key.
func (r *Refresher) Register(l Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[l.Key()] = l
}

// Unregister removes the loader with key.
func (r *Refresher) Unregister(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.loaders, key)
}

// Start launches the probe loop and returns a tea.Cmd waiting for the
// first result.
func (r *Refresher) Start() tea.Cmd {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run()

	return r.waitForResult()
}

// Stop halts the probe loop and waits for it to exit.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()
}

// RefreshAll triggers an immediate reload of every registered collection,
// online or not.
func (r *Refresher) RefreshAll() tea.Cmd {
	select {
	case r.triggerCh <- struct{}{}:
	default:
		// A refresh is already pending.
	}
	return nil
}

func (r *Refresher) run() {
	defer r.wg.Done()

	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-r.stopCh:
			return
		case <-tick:
			if r.conn.Online() {
				continue
			}
			r.reloadAll()
		case <-r.triggerCh:
			r.reloadAll()
		}
	}
}

func (r *Refresher) reloadAll() {
	r.mu.Lock()
	loaders := make([]Loader, 0, len(r.loaders))
	for _, l := range r.loaders {
		loaders = append(loaders, l)
	}
	r.mu.Unlock()

	for _, l := range loaders {
		r.reload(l)
	}
}

// reload runs a single Load and sends a RefreshResultMsg on the result
// channel.
func (r *Refresher) reload(l Loader) {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	res, err := l.Load(ctx)
	if err != nil {
		r.logger.Debug("reload failed", zap.String("collection", l.Key()), zap.Error(err))
	} else if res.Source == SourceRemote {
		r.logger.Info("reconnected", zap.String("collection", l.Key()))
	}

	r.sendResult(RefreshResultMsg{
		Key:         l.Key(),
		Result:      res,
		Error:       err,
		AuthExpired: apperror.IsAuthExpired(err),
	})
}

// sendResult sends a RefreshResultMsg on the result channel without blocking.
func (r *Refresher) sendResult(msg RefreshResultMsg) {
	select {
	case r.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the refresher
	}
}

func (r *Refresher) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-r.resultCh:
			return result
		case <-r.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next reload result.
// Call it after processing a RefreshResultMsg to keep listening.
func (r *Refresher) WaitForNextResult() tea.Cmd {
	return r.waitForResult()
}
