package sync

import (
	"context"
	"errors"
	"net/http"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/nhle/stickylist/internal/apperror"
	"github.com/nhle/stickylist/internal/credential"
	"github.com/nhle/stickylist/internal/model"
	"github.com/nhle/stickylist/internal/remote"
	"github.com/nhle/stickylist/internal/store"
	"github.com/nhle/stickylist/tests/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("github.com/godbus/dbus.(*Conn).inWorker"),
	)
}

const testToken = "tok-123"

type fixture struct {
	backend *testutil.Backend
	mirror  *store.SQLiteMirror
	session *credential.Session
	conn    *Connectivity
	colls   *Collections
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithToken(t, testToken)
}

func newFixtureWithToken(t *testing.T, token string) *fixture {
	t.Helper()

	logger := zaptest.NewLogger(t)
	f := &fixture{
		backend: testutil.NewBackend(t, testToken),
		mirror:  testutil.NewTestMirror(t),
		session: testutil.NewTestSession(t, token),
		conn:    NewConnectivity(logger),
	}
	client := remote.NewClient(f.backend.URL(), 2*time.Second, f.session, logger)
	f.colls = NewCollections(client, f.mirror, f.conn, f.session, logger)
	return f
}

// failingMirror wraps a Mirror and rejects writes while failWrites is set.
type failingMirror struct {
	store.Mirror
	failWrites atomic.Bool
}

func (m *failingMirror) Write(ctx context.Context, key string, payload []byte, itemCount int) error {
	if m.failWrites.Load() {
		return apperror.Storage("writing mirror "+key, errors.New("disk full"))
	}
	return m.Mirror.Write(ctx, key, payload, itemCount)
}

// withFailingMirror rebuilds the collections over a mirror whose writes can
// be switched off.
func (f *fixture) withFailingMirror(t *testing.T) *failingMirror {
	t.Helper()
	fm := &failingMirror{Mirror: f.mirror}
	logger := zaptest.NewLogger(t)
	client := remote.NewClient(f.backend.URL(), 2*time.Second, f.session, logger)
	f.colls = NewCollections(client, fm, f.conn, f.session, logger)
	return fm
}

func (f *fixture) checklists(t *testing.T) *ChecklistSet {
	t.Helper()
	s := f.colls.Checklists()
	t.Cleanup(func() {
		s.Close()
		<-s.Done()
	})
	return s
}

func (f *fixture) tasks(t *testing.T, checklistID string) *TaskBoard {
	t.Helper()
	b := f.colls.Tasks(checklistID)
	t.Cleanup(func() {
		b.Close()
		<-b.Done()
	})
	return b
}

func (f *fixture) requests(method string) []testutil.RecordedRequest {
	var out []testutil.RecordedRequest
	for _, r := range f.backend.Requests() {
		if r.Method == method {
			out = append(out, r)
		}
	}
	return out
}

func mirrorTasks(t *testing.T, m store.Mirror, checklistID string) []model.Task {
	t.Helper()
	items, ok, err := store.ReadSnapshot[model.Task](context.Background(), m, store.TasksKey(checklistID))
	require.NoError(t, err)
	require.True(t, ok, "mirror has no tasks for %s", checklistID)
	return items
}

func mirrorChecklists(t *testing.T, m store.Mirror) []model.Checklist {
	t.Helper()
	items, ok, err := store.ReadSnapshot[model.Checklist](context.Background(), m, store.ChecklistsKey)
	require.NoError(t, err)
	require.True(t, ok, "mirror has no checklists")
	return items
}

func ids[T Entity[T]](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.GetID()
	}
	return out
}

func TestLoad_RemoteReplacesAndPersists(t *testing.T) {
	f := newFixture(t)
	a := f.backend.SeedChecklist("Groceries")
	b := f.backend.SeedChecklist("Work")
	lists := f.checklists(t)

	res, err := lists.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceRemote, res.Source)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []string{a.ID, b.ID}, ids(lists.Items()))
	assert.True(t, f.conn.Online())

	if diff := cmp.Diff(lists.Items(), mirrorChecklists(t, f.mirror)); diff != "" {
		t.Errorf("mirror mismatch (-working +mirror):\n%s", diff)
	}
}

func TestLoad_AuthExpiredClearsSessionAndKeepsMirror(t *testing.T) {
	f := newFixtureWithToken(t, "stale")
	ctx := context.Background()

	cached := []model.Checklist{{ID: "srv9999", Title: "Cached", CreatedAt: time.Now().UTC()}}
	require.NoError(t, store.WriteSnapshot(ctx, f.mirror, store.ChecklistsKey, cached))

	lists := f.checklists(t)
	_, err := lists.Load(ctx)

	require.Error(t, err)
	assert.True(t, apperror.IsAuthExpired(err))
	assert.Empty(t, lists.Items())

	_, ok, err := f.session.Get()
	require.NoError(t, err)
	assert.False(t, ok, "credential should be cleared")

	if diff := cmp.Diff(cached, mirrorChecklists(t, f.mirror)); diff != "" {
		t.Errorf("mirror changed (-want +got):\n%s", diff)
	}
}

func TestLoad_OfflineFallsBackToMirror(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.backend.FailWith(http.StatusServiceUnavailable)

	cached := []model.Checklist{
		{ID: "srv0001", Title: "Groceries", CreatedAt: time.Now().UTC()},
		{ID: "local-abc", Title: "Draft", CreatedAt: time.Now().UTC()},
	}
	require.NoError(t, store.WriteSnapshot(ctx, f.mirror, store.ChecklistsKey, cached))

	lists := f.checklists(t)
	res, err := lists.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, SourceMirror, res.Source)
	assert.False(t, f.conn.Online())
	if diff := cmp.Diff(cached, lists.Items()); diff != "" {
		t.Errorf("working set mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_OfflineWithoutMirror(t *testing.T) {
	f := newFixture(t)
	f.backend.FailWith(http.StatusInternalServerError)
	lists := f.checklists(t)

	res, err := lists.Load(context.Background())

	require.Error(t, err)
	assert.True(t, apperror.IsRemoteUnavailable(err))
	assert.Equal(t, SourceNone, res.Source)
	assert.Empty(t, lists.Items())
	assert.False(t, f.conn.Online())
}

func TestCreate_SuccessLeavesOneEntry(t *testing.T) {
	f := newFixture(t)
	existing := f.backend.SeedChecklist("Work")
	lists := f.checklists(t)
	ctx := context.Background()

	_, err := lists.Load(ctx)
	require.NoError(t, err)

	res, err := lists.Add(ctx, "Groceries")
	require.NoError(t, err)

	assert.Equal(t, Confirmed, res.State)
	assert.Empty(t, res.Notice)
	assert.False(t, res.Item.IsLocal())

	items := lists.Items()
	require.Len(t, items, 2)
	assert.Equal(t, res.Item.ID, items[0].ID)
	assert.Equal(t, "Groceries", items[0].Title)
	assert.Equal(t, existing.ID, items[1].ID)

	assert.Equal(t, ids(items), ids(mirrorChecklists(t, f.mirror)))
}

func TestCreate_GatewayFailureKeepsLocalEntry(t *testing.T) {
	f := newFixture(t)
	f.backend.FailMethod(http.MethodPost, http.StatusInternalServerError)
	lists := f.checklists(t)

	res, err := lists.Add(context.Background(), "Groceries")
	require.NoError(t, err)

	assert.Equal(t, Kept, res.State)
	assert.Equal(t, NoticeKeptLocally, res.Notice)
	assert.False(t, f.conn.Online())

	items := lists.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Groceries", items[0].Title)
	assert.True(t, model.IsLocalID(items[0].ID))

	mirrored := mirrorChecklists(t, f.mirror)
	require.Len(t, mirrored, 1)
	assert.Equal(t, items[0].ID, mirrored[0].ID)
}

func TestCreate_OfflineSkipsGateway(t *testing.T) {
	f := newFixture(t)
	f.conn.SetOnline(false)
	board := f.tasks(t, "srv0001")

	res, err := board.Add(context.Background(), "milk", model.ColorGreen)
	require.NoError(t, err)

	assert.Equal(t, Kept, res.State)
	assert.True(t, res.Item.IsLocal())
	assert.Equal(t, model.ColorGreen, res.Item.Color)
	assert.Empty(t, f.requests(http.MethodPost))
	assert.Len(t, mirrorTasks(t, f.mirror, "srv0001"), 1)
}

func TestCreate_RejectsBlankInput(t *testing.T) {
	f := newFixture(t)
	lists := f.checklists(t)

	_, err := lists.Add(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Empty(t, lists.Items())
	assert.Empty(t, f.backend.Requests())
}

func TestToggle_FinalValueIsLastFlip(t *testing.T) {
	f := newFixture(t)
	list := f.backend.SeedChecklist("Groceries")
	task := f.backend.SeedTask(list.ID, "milk", model.ColorBlue)
	board := f.tasks(t, list.ID)
	ctx := context.Background()

	_, err := board.Load(ctx)
	require.NoError(t, err)

	f.backend.FailMethod(http.MethodPatch, http.StatusBadGateway)

	res, err := board.ToggleCompleted(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, Kept, res.State)
	assert.True(t, res.Item.Completed)
	assert.False(t, f.conn.Online())

	// Offline now: the second flip stays local.
	res, err = board.ToggleCompleted(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, res.Item.Completed)

	got, ok := board.Get(task.ID)
	require.True(t, ok)
	assert.False(t, got.Completed)
	assert.Len(t, f.requests(http.MethodPatch), 1)
	assert.False(t, mirrorTasks(t, f.mirror, list.ID)[0].Completed)
}

func TestToggle_SendsOnlyChangedField(t *testing.T) {
	f := newFixture(t)
	list := f.backend.SeedChecklist("Groceries")
	task := f.backend.SeedTask(list.ID, "milk", model.ColorBlue)
	board := f.tasks(t, list.ID)
	ctx := context.Background()

	_, err := board.Load(ctx)
	require.NoError(t, err)

	res, err := board.TogglePinned(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, Confirmed, res.State)
	assert.True(t, res.Item.Pinned)

	patches := f.requests(http.MethodPatch)
	require.Len(t, patches, 1)
	assert.Equal(t, map[string]any{"pinned": true}, patches[0].Body)
	assert.True(t, f.backend.Tasks(list.ID)[0].Pinned)
}

func TestToggle_LocalOnlyEntryStaysLocal(t *testing.T) {
	f := newFixture(t)
	f.backend.FailMethod(http.MethodPost, http.StatusInternalServerError)
	board := f.tasks(t, "srv0001")
	ctx := context.Background()

	created, err := board.Add(ctx, "milk", model.ColorBlue)
	require.NoError(t, err)

	// Back online, but the entry was never confirmed.
	f.conn.SetOnline(true)
	res, err := board.ToggleCompleted(ctx, created.Item.ID)
	require.NoError(t, err)

	assert.Equal(t, Kept, res.State)
	assert.True(t, res.Item.Completed)
	assert.Empty(t, f.requests(http.MethodPatch))
}

func TestToggle_UnknownID(t *testing.T) {
	f := newFixture(t)
	board := f.tasks(t, "srv0001")

	_, err := board.ToggleCompleted(context.Background(), "missing")
	assert.True(t, apperror.IsNotFound(err))
}

func TestDelete_FailureReinstatesAtOriginalPosition(t *testing.T) {
	f := newFixture(t)
	list := f.backend.SeedChecklist("Groceries")
	f.backend.SeedTask(list.ID, "milk", model.ColorBlue)
	middle := f.backend.SeedTask(list.ID, "eggs", model.ColorRed)
	f.backend.SeedTask(list.ID, "bread", model.ColorGray)
	board := f.tasks(t, list.ID)
	ctx := context.Background()

	_, err := board.Load(ctx)
	require.NoError(t, err)
	before := board.Items()

	f.backend.FailMethod(http.MethodDelete, http.StatusInternalServerError)
	res, err := board.Delete(ctx, middle.ID)

	require.Error(t, err)
	assert.True(t, apperror.IsRemoteUnavailable(err))
	assert.Equal(t, Reverted, res.State)
	assert.False(t, f.conn.Online())

	if diff := cmp.Diff(before, board.Items()); diff != "" {
		t.Errorf("working set not restored (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, mirrorTasks(t, f.mirror, list.ID)); diff != "" {
		t.Errorf("mirror not restored (-want +got):\n%s", diff)
	}
}

func TestDelete_AttemptsGatewayWhileOffline(t *testing.T) {
	f := newFixture(t)
	list := f.backend.SeedChecklist("Groceries")
	task := f.backend.SeedTask(list.ID, "milk", model.ColorBlue)
	board := f.tasks(t, list.ID)
	ctx := context.Background()

	_, err := board.Load(ctx)
	require.NoError(t, err)
	f.conn.SetOnline(false)

	res, err := board.Delete(ctx, task.ID)
	require.NoError(t, err)

	assert.Equal(t, Confirmed, res.State)
	assert.True(t, f.conn.Online())
	assert.Empty(t, board.Items())
	assert.Empty(t, f.backend.Tasks(list.ID))
	assert.Empty(t, mirrorTasks(t, f.mirror, list.ID))
}

func TestDelete_LocalOnlyEntrySkipsGateway(t *testing.T) {
	f := newFixture(t)
	f.conn.SetOnline(false)
	lists := f.checklists(t)
	ctx := context.Background()

	created, err := lists.Add(ctx, "Draft")
	require.NoError(t, err)

	res, err := lists.Delete(ctx, created.Item.ID)
	require.NoError(t, err)

	assert.Equal(t, Confirmed, res.State)
	assert.Empty(t, lists.Items())
	assert.Empty(t, f.requests(http.MethodDelete))
	assert.Empty(t, mirrorChecklists(t, f.mirror))
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	items := []model.Task{
		{ID: "1", Text: "Buy Milk"},
		{ID: "2", Text: "call mum"},
		{ID: "3", Text: "MILKSHAKE"},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"milk", []string{"1", "3"}},
		{"  MUM ", []string{"2"}},
		{"", []string{"1", "2", "3"}},
		{"tea", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(items, tt.query)))
		})
	}
}

func TestSearch_UsesWorkingSetOnly(t *testing.T) {
	f := newFixture(t)
	f.backend.SeedChecklist("Groceries")
	f.backend.SeedChecklist("Work")
	lists := f.checklists(t)

	_, err := lists.Load(context.Background())
	require.NoError(t, err)
	before := len(f.backend.Requests())

	got := lists.Search("GROC")
	require.Len(t, got, 1)
	assert.Equal(t, "Groceries", got[0].Title)
	assert.Len(t, f.backend.Requests(), before)
}

func TestMutations_RunInDispatchOrder(t *testing.T) {
	f := newFixture(t)
	f.backend.SetDelay(100 * time.Millisecond)
	lists := f.checklists(t)
	ctx := context.Background()

	var wg gosync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := lists.Add(ctx, "First")
		assert.NoError(t, err)
	}()

	// The optimistic entry is visible while the request is in flight.
	require.Eventually(t, func() bool {
		items := lists.Items()
		return len(items) == 1 && items[0].IsLocal()
	}, time.Second, 5*time.Millisecond)

	res, err := lists.Add(ctx, "Second")
	require.NoError(t, err)
	wg.Wait()

	items := lists.Items()
	require.Len(t, items, 2)
	assert.Equal(t, []string{"Second", "First"}, []string{items[0].Title, items[1].Title})
	assert.Equal(t, res.Item.ID, items[0].ID)
	for _, c := range items {
		assert.False(t, c.IsLocal())
	}
}

func TestSubscribe_ReceivesSnapshots(t *testing.T) {
	f := newFixture(t)
	lists := f.checklists(t)
	events := lists.Subscribe(8)

	_, err := lists.Add(context.Background(), "Groceries")
	require.NoError(t, err)

	// Optimistic insert, then the server substitution.
	first := <-events
	assert.Equal(t, store.ChecklistsKey, first.Key)
	require.Len(t, first.Items, 1)
	assert.True(t, first.Items[0].IsLocal())

	second := <-events
	require.Len(t, second.Items, 1)
	assert.False(t, second.Items[0].IsLocal())
	assert.True(t, second.Online)
}

func TestClose_StopsActor(t *testing.T) {
	f := newFixture(t)
	lists := f.colls.Checklists()
	events := lists.Subscribe(1)

	lists.Close()
	lists.Close()

	select {
	case <-lists.Done():
	case <-time.After(time.Second):
		t.Fatal("actor did not exit")
	}

	_, ok := <-events
	assert.False(t, ok, "subscriber channel should be closed")

	_, err := lists.Load(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = lists.Add(context.Background(), "late")
	assert.ErrorIs(t, err, ErrClosed)
	assert.Empty(t, f.backend.Requests())
}

func TestConnectivity_ObserveIgnoresCancelledCallers(t *testing.T) {
	conn := NewConnectivity(zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn.observe(ctx, apperror.RemoteUnavailable("list", context.Canceled))
	assert.True(t, conn.Online())

	conn.observe(context.Background(), apperror.RemoteUnavailable("list", nil))
	assert.False(t, conn.Online())

	conn.observe(context.Background(), nil)
	assert.True(t, conn.Online())
}

func TestLoad_RemoteKeepsLocalOnlyEntries(t *testing.T) {
	f := newFixture(t)
	server := f.backend.SeedChecklist("Work")
	lists := f.checklists(t)
	ctx := context.Background()

	f.backend.FailWith(http.StatusServiceUnavailable)
	res, err := lists.Add(ctx, "Groceries")
	require.NoError(t, err)
	require.Equal(t, Kept, res.State)

	f.backend.FailWith(0)
	loaded, err := lists.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, SourceRemote, loaded.Source)
	assert.Equal(t, 2, loaded.Count)
	assert.Equal(t, []string{res.Item.ID, server.ID}, ids(lists.Items()))
	assert.True(t, f.conn.Online())

	if diff := cmp.Diff(lists.Items(), mirrorChecklists(t, f.mirror)); diff != "" {
		t.Errorf("mirror mismatch (-working +mirror):\n%s", diff)
	}
}

func TestMirrorWriteFailureKeepsMutation(t *testing.T) {
	f := newFixture(t)
	list := f.backend.SeedChecklist("Groceries")
	task := f.backend.SeedTask(list.ID, "milk", model.ColorBlue)
	doomed := f.backend.SeedTask(list.ID, "eggs", model.ColorRed)
	fm := f.withFailingMirror(t)
	board := f.tasks(t, list.ID)
	ctx := context.Background()

	_, err := board.Load(ctx)
	require.NoError(t, err)
	fm.failWrites.Store(true)

	t.Run("create", func(t *testing.T) {
		res, err := board.Add(ctx, "bread", model.ColorGray)
		require.Error(t, err)
		assert.True(t, apperror.IsStorage(err))
		assert.Equal(t, Confirmed, res.State)

		_, ok := board.Get(res.Item.ID)
		assert.True(t, ok)
	})

	t.Run("toggle", func(t *testing.T) {
		res, err := board.ToggleCompleted(ctx, task.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsStorage(err))
		assert.Equal(t, Confirmed, res.State)

		got, ok := board.Get(task.ID)
		require.True(t, ok)
		assert.True(t, got.Completed)
	})

	t.Run("delete", func(t *testing.T) {
		res, err := board.Delete(ctx, doomed.ID)
		require.Error(t, err)
		assert.True(t, apperror.IsStorage(err))
		assert.Equal(t, Confirmed, res.State)

		_, ok := board.Get(doomed.ID)
		assert.False(t, ok)
	})

	assert.True(t, f.conn.Online())
}
