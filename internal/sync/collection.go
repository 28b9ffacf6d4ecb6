package sync

import (
	"context"
	"errors"
	"strings"
	gosync "sync"

	"go.uber.org/zap"

	"github.com/nhle/stickylist/internal/apperror"
	"github.com/nhle/stickylist/internal/model"
	"github.com/nhle/stickylist/internal/store"
)

// ErrClosed is returned by operations on a closed Collection.
var ErrClosed = errors.New("collection closed")

// NoticeKeptLocally is shown when a change could not reach the server and
// lives only on this device. Local-only entries survive later reloads.
const NoticeKeptLocally = "Saved on this device only. It is not backed up to the server."

// Entity is an item kept in a Collection.
type Entity[T any] interface {
	GetID() string
	SearchText() string
	WithID(id string) T
}

// Gateway is the remote side of a Collection.
type Gateway[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, item T) (T, error)
	Delete(ctx context.Context, id string) error
}

// SessionClearer drops the stored credential after the server rejected it.
type SessionClearer interface {
	Clear() error
}

// Source tells where a loaded working set came from.
type Source int

const (
	SourceNone Source = iota
	SourceRemote
	SourceMirror
)

func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceMirror:
		return "mirror"
	default:
		return "none"
	}
}

// LoadResult describes a completed Load.
type LoadResult struct {
	Source Source
	Count  int
}

// MutationState is the lifecycle of an optimistic mutation.
type MutationState int

const (
	Applying MutationState = iota
	Confirmed
	Kept
	Reverted
)

func (s MutationState) String() string {
	switch s {
	case Applying:
		return "applying"
	case Confirmed:
		return "confirmed"
	case Kept:
		return "kept"
	case Reverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// MutationResult is the outcome of Create, Update or Delete. Notice is a
// non-blocking message for the user, empty when there is nothing to say.
type MutationResult[T any] struct {
	Item   T
	State  MutationState
	Notice string
}

// Event is published to subscribers whenever the working set changes.
type Event[T any] struct {
	Key    string
	Items  []T
	Online bool
}

// Options configures a Collection.
type Options struct {
	// Key is the mirror key of the collection.
	Key     string
	Mirror  store.Mirror
	Conn    *Connectivity
	Session SessionClearer
	Logger  *zap.Logger
}

type job struct {
	run  func()
	done chan struct{}
}

// Collection is the working set of one screen, kept consistent with the
// remote service and the local mirror. Mutations run one at a time on an
// actor goroutine in dispatch order; reads see the optimistic state at any
// moment.
type Collection[T Entity[T]] struct {
	key     string
	gw      Gateway[T]
	mirror  store.Mirror
	conn    *Connectivity
	session SessionClearer
	logger  *zap.Logger

	mu    gosync.RWMutex
	items []T

	subMu  gosync.Mutex
	subs   []chan Event[T]
	closed bool

	jobs      chan job
	stop      chan struct{}
	exited    chan struct{}
	closeOnce gosync.Once
}

// NewCollection starts a Collection over gw. Call Close to stop it.
func NewCollection[T Entity[T]](gw Gateway[T], opts Options) *Collection[T] {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	conn := opts.Conn
	if conn == nil {
		conn = NewConnectivity(logger)
	}

	c := &Collection[T]{
		key:     opts.Key,
		gw:      gw,
		mirror:  opts.Mirror,
		conn:    conn,
		session: opts.Session,
		logger:  logger.With(zap.String("collection", opts.Key)),
		items:   []T{},
		jobs:    make(chan job),
		stop:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go c.loop()
	return c
}

// Key returns the mirror key of the collection.
func (c *Collection[T]) Key() string { return c.key }

// Online reports the shared online flag.
func (c *Collection[T]) Online() bool { return c.conn.Online() }

// Items returns a copy of the working set.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// Get returns the entry with id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := indexOf(c.items, id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Search returns the entries whose text contains query, ignoring case.
// An empty query matches everything. It never touches the gateway or
// the mirror.
func (c *Collection[T]) Search(query string) []T {
	return Filter(c.Items(), query)
}

// Filter is the pure matcher behind Search.
func Filter[T Entity[T]](items []T, query string) []T {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]T, 0, len(items))
	for _, it := range items {
		if q == "" || strings.Contains(strings.ToLower(it.SearchText()), q) {
			out = append(out, it)
		}
	}
	return out
}

// Subscribe returns a channel receiving an Event after every change of the
// working set. Events are dropped when the channel is full. The channel is
// closed once the collection has stopped.
func (c *Collection[T]) Subscribe(buffer int) <-chan Event[T] {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event[T], buffer)

	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.closed {
		close(ch)
		return ch
	}
	c.subs = append(c.subs, ch)
	return ch
}

// Close stops the actor. An operation already running completes but its
// late result is not applied. Close does not wait; use Done for that.
func (c *Collection[T]) Close() {
	c.closeOnce.Do(func() {
		c.subMu.Lock()
		c.closed = true
		c.subMu.Unlock()
		close(c.stop)
	})
}

// Done is closed when the actor goroutine has exited.
func (c *Collection[T]) Done() <-chan struct{} { return c.exited }

func (c *Collection[T]) loop() {
	defer func() {
		c.subMu.Lock()
		for _, ch := range c.subs {
			close(ch)
		}
		c.subs = nil
		c.subMu.Unlock()
		close(c.exited)
	}()

	for {
		select {
		case <-c.stop:
			return
		case j := <-c.jobs:
			j.run()
			close(j.done)
		}
	}
}

// exec runs fn on the actor and waits for it to finish.
func (c *Collection[T]) exec(ctx context.Context, fn func()) error {
	if c.isClosed() {
		return ErrClosed
	}
	j := job{run: fn, done: make(chan struct{})}
	select {
	case c.jobs <- j:
	case <-c.stop:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-j.done
	return nil
}

func (c *Collection[T]) isClosed() bool {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return c.closed
}

// Load replaces the working set with the server's collection, falling
// back to the mirror when the server cannot be reached.
func (c *Collection[T]) Load(ctx context.Context) (LoadResult, error) {
	var (
		res LoadResult
		err error
	)
	if execErr := c.exec(ctx, func() { res, err = c.load(ctx) }); execErr != nil {
		return LoadResult{}, execErr
	}
	return res, err
}

func (c *Collection[T]) load(ctx context.Context) (LoadResult, error) {
	items, err := c.gw.List(ctx)
	if c.isClosed() {
		return LoadResult{}, ErrClosed
	}
	c.conn.observe(ctx, err)

	if err == nil {
		local := c.localEntries()
		if len(local) > 0 {
			c.logger.Info("keeping entries that never reached the server", zap.Int("count", len(local)))
			items = append(local, items...)
		}
		c.replace(items)
		return LoadResult{Source: SourceRemote, Count: len(items)}, c.persist(ctx)
	}

	if apperror.IsAuthExpired(err) {
		c.clearSession()
		return LoadResult{}, err
	}

	c.logger.Info("remote load failed, falling back to mirror", zap.Error(err))

	cached, ok, mErr := c.readMirror(ctx)
	if mErr != nil {
		c.logger.Error("reading mirror", zap.Error(mErr))
		c.replace(nil)
		return LoadResult{}, errors.Join(err, mErr)
	}
	if !ok {
		c.replace(nil)
		return LoadResult{}, err
	}

	c.replace(cached)
	return LoadResult{Source: SourceMirror, Count: len(cached)}, nil
}

// Create adds item at the front under a temporary id and, when online,
// asks the server to store it. On success the server's entity takes the
// temporary entry's place; on failure the local-only entry is kept.
func (c *Collection[T]) Create(ctx context.Context, item T) (MutationResult[T], error) {
	var (
		res MutationResult[T]
		err error
	)
	if execErr := c.exec(ctx, func() { res, err = c.create(ctx, item) }); execErr != nil {
		return MutationResult[T]{Item: item, State: Reverted}, execErr
	}
	return res, err
}

func (c *Collection[T]) create(ctx context.Context, item T) (MutationResult[T], error) {
	temp := item.WithID(model.NewLocalID())
	c.mutate(func(items []T) []T {
		return append([]T{temp}, items...)
	})

	if !c.conn.Online() {
		return MutationResult[T]{Item: temp, State: Kept, Notice: NoticeKeptLocally}, c.persist(ctx)
	}

	created, err := c.gw.Create(ctx, temp)
	if c.isClosed() {
		return MutationResult[T]{Item: temp, State: Kept}, ErrClosed
	}
	c.conn.observe(ctx, err)

	if err != nil {
		c.logger.Info("create kept locally", zap.String("id", temp.GetID()), zap.Error(err))
		res := MutationResult[T]{Item: temp, State: Kept, Notice: NoticeKeptLocally}
		if apperror.IsAuthExpired(err) {
			c.clearSession()
			return res, errors.Join(err, c.persist(ctx))
		}
		return res, c.persist(ctx)
	}

	c.mutate(func(items []T) []T {
		return substitute(items, temp.GetID(), created)
	})
	return MutationResult[T]{Item: created, State: Confirmed}, c.persist(ctx)
}

// Update applies apply to the entry with id and, when online and the entry
// is known to the server, sends it with push. The change is never reverted.
func (c *Collection[T]) Update(
	ctx context.Context,
	id string,
	apply func(T) T,
	push func(context.Context, T) error,
) (MutationResult[T], error) {
	var (
		res MutationResult[T]
		err error
	)
	if execErr := c.exec(ctx, func() { res, err = c.update(ctx, id, apply, push) }); execErr != nil {
		return MutationResult[T]{State: Reverted}, execErr
	}
	return res, err
}

func (c *Collection[T]) update(
	ctx context.Context,
	id string,
	apply func(T) T,
	push func(context.Context, T) error,
) (MutationResult[T], error) {
	var (
		updated T
		found   bool
	)
	c.mutate(func(items []T) []T {
		i := indexOf(items, id)
		if i < 0 {
			return items
		}
		found = true
		updated = apply(items[i])
		items[i] = updated
		return items
	})
	if !found {
		return MutationResult[T]{State: Reverted}, apperror.NotFound(c.key, id)
	}

	if model.IsLocalID(id) || !c.conn.Online() || push == nil {
		return MutationResult[T]{Item: updated, State: Kept, Notice: NoticeKeptLocally}, c.persist(ctx)
	}

	err := push(ctx, updated)
	if c.isClosed() {
		return MutationResult[T]{Item: updated, State: Kept}, ErrClosed
	}
	c.conn.observe(ctx, err)

	if err != nil {
		c.logger.Info("update kept locally", zap.String("id", id), zap.Error(err))
		res := MutationResult[T]{Item: updated, State: Kept, Notice: NoticeKeptLocally}
		if apperror.IsAuthExpired(err) {
			c.clearSession()
			return res, errors.Join(err, c.persist(ctx))
		}
		return res, c.persist(ctx)
	}
	return MutationResult[T]{Item: updated, State: Confirmed}, c.persist(ctx)
}

// Delete removes the entry with id at once and asks the server to delete
// it. When the server call fails the entry is put back where it was and
// the error is returned. Entries the server never saw are dropped locally.
func (c *Collection[T]) Delete(ctx context.Context, id string) (MutationResult[T], error) {
	var (
		res MutationResult[T]
		err error
	)
	if execErr := c.exec(ctx, func() { res, err = c.delete(ctx, id) }); execErr != nil {
		return MutationResult[T]{State: Reverted}, execErr
	}
	return res, err
}

func (c *Collection[T]) delete(ctx context.Context, id string) (MutationResult[T], error) {
	var (
		removed T
		index   = -1
	)
	c.mutate(func(items []T) []T {
		index = indexOf(items, id)
		if index < 0 {
			return items
		}
		removed = items[index]
		return append(items[:index], items[index+1:]...)
	})
	if index < 0 {
		return MutationResult[T]{State: Reverted}, apperror.NotFound(c.key, id)
	}

	if model.IsLocalID(id) {
		return MutationResult[T]{Item: removed, State: Confirmed}, c.persist(ctx)
	}

	err := c.gw.Delete(ctx, id)
	if c.isClosed() {
		return MutationResult[T]{Item: removed, State: Confirmed}, ErrClosed
	}
	c.conn.observe(ctx, err)

	if err != nil {
		c.logger.Info("delete reverted", zap.String("id", id), zap.Error(err))
		c.mutate(func(items []T) []T {
			return insertAt(items, index, removed)
		})
		if apperror.IsAuthExpired(err) {
			c.clearSession()
		}
		return MutationResult[T]{Item: removed, State: Reverted}, errors.Join(err, c.persist(ctx))
	}
	return MutationResult[T]{Item: removed, State: Confirmed}, c.persist(ctx)
}

// mutate applies fn to a private copy of the working set, swaps it in and
// publishes the result.
func (c *Collection[T]) mutate(fn func([]T) []T) {
	c.mu.Lock()
	next := fn(append([]T(nil), c.items...))
	if next == nil {
		next = []T{}
	}
	c.items = next
	snapshot := append([]T(nil), next...)
	c.mu.Unlock()

	c.publish(snapshot)
}

func (c *Collection[T]) replace(items []T) {
	c.mutate(func([]T) []T {
		return append([]T(nil), items...)
	})
}

// localEntries returns the entries the server has never confirmed, in
// working-set order.
func (c *Collection[T]) localEntries() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []T
	for _, it := range c.items {
		if model.IsLocalID(it.GetID()) {
			out = append(out, it)
		}
	}
	return out
}

func (c *Collection[T]) readMirror(ctx context.Context) ([]T, bool, error) {
	if c.mirror == nil {
		return nil, false, nil
	}
	return store.ReadSnapshot[T](context.WithoutCancel(ctx), c.mirror, c.key)
}

// persist writes the working set to the mirror. A failure never undoes the
// in-memory change.
func (c *Collection[T]) persist(ctx context.Context) error {
	if c.mirror == nil {
		return nil
	}
	if err := store.WriteSnapshot(context.WithoutCancel(ctx), c.mirror, c.key, c.Items()); err != nil {
		c.logger.Error("persisting working set", zap.Error(err))
		return err
	}
	return nil
}

func (c *Collection[T]) clearSession() {
	c.logger.Warn("credential rejected, clearing session")
	if c.session == nil {
		return
	}
	if err := c.session.Clear(); err != nil {
		c.logger.Error("clearing session", zap.Error(err))
	}
}

// publish sends the snapshot to every subscriber without blocking.
func (c *Collection[T]) publish(items []T) {
	ev := Event[T]{Key: c.key, Items: items, Online: c.conn.Online()}

	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.closed {
		return
	}
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is behind; it will catch up on the next event.
		}
	}
}

func indexOf[T Entity[T]](items []T, id string) int {
	for i, it := range items {
		if it.GetID() == id {
			return i
		}
	}
	return -1
}

// substitute puts created in place of the entry with tempID and drops any
// other entry already carrying created's id.
func substitute[T Entity[T]](items []T, tempID string, created T) []T {
	out := make([]T, 0, len(items))
	placed := false
	for _, it := range items {
		switch it.GetID() {
		case tempID:
			if !placed {
				out = append(out, created)
				placed = true
			}
		case created.GetID():
		default:
			out = append(out, it)
		}
	}
	if !placed {
		out = append([]T{created}, out...)
	}
	return out
}

func insertAt[T any](items []T, index int, item T) []T {
	if index > len(items) {
		index = len(items)
	}
	out := make([]T, 0, len(items)+1)
	out = append(out, items[:index]...)
	out = append(out, item)
	return append(out, items[index:]...)
}
