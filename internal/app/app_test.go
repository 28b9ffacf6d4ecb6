package app

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nhle/stickylist/internal/apperror"
	"github.com/nhle/stickylist/internal/model"
	appsync "github.com/nhle/stickylist/internal/sync"
	"github.com/nhle/stickylist/internal/ui/board"
	"github.com/nhle/stickylist/internal/ui/checklists"
	"github.com/nhle/stickylist/internal/ui/command"
	"github.com/nhle/stickylist/internal/ui/config"
	"github.com/nhle/stickylist/internal/ui/detail"
	"github.com/nhle/stickylist/tests/testutil"
)

const testToken = "tok-app"

func newTestServices(t *testing.T, token string) (*Services, *testutil.Backend) {
	t.Helper()

	backend := testutil.NewBackend(t, testToken)
	cfg := &model.AppConfig{
		API:     model.APIConfig{BaseURL: backend.URL(), TimeoutSec: 2},
		Display: model.DisplayConfig{DefaultColor: "green"},
	}
	svc := NewServices(cfg, zaptest.NewLogger(t), testutil.NewTestSession(t, token), testutil.NewTestMirror(t))
	return svc, backend
}

func newTestModel(t *testing.T, token string) (Model, *Services) {
	t.Helper()

	svc, _ := newTestServices(t, token)
	m := New(svc)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = update(t, m, startMsg{})
	t.Cleanup(func() { m.Shutdown() })
	return m, svc
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestStartWithoutSessionShowsLogin(t *testing.T) {
	m, _ := newTestModel(t, "")

	assert.Equal(t, ViewLogin, m.CurrentView())
	assert.Nil(t, m.lists)
}

func TestStartWithSessionOpensChecklists(t *testing.T) {
	m, _ := newTestModel(t, testToken)

	assert.Equal(t, ViewChecklists, m.CurrentView())
	require.NotNil(t, m.lists)
}

func TestProtectedActionRedirectsWhenSessionIsGone(t *testing.T) {
	m, svc := newTestModel(t, testToken)
	require.Equal(t, ViewChecklists, m.CurrentView())

	require.NoError(t, svc.Session.Clear())
	m = update(t, m, checklists.CreateMsg{Title: "Groceries"})

	assert.Equal(t, ViewLogin, m.CurrentView())
	assert.Nil(t, m.lists)
}

func TestOpenBoardRedirectsWhenSessionIsGone(t *testing.T) {
	m, svc := newTestModel(t, testToken)

	require.NoError(t, svc.Session.Clear())
	m = update(t, m, checklists.OpenMsg{Checklist: model.Checklist{ID: "srv0001", Title: "Trip"}})

	assert.Equal(t, ViewLogin, m.CurrentView())
	assert.Nil(t, m.tasks)
}

func TestOpenBoardAndBack(t *testing.T) {
	m, _ := newTestModel(t, testToken)

	m = update(t, m, checklists.OpenMsg{Checklist: model.Checklist{ID: "srv0001", Title: "Trip"}})
	require.Equal(t, ViewBoard, m.CurrentView())
	require.NotNil(t, m.tasks)
	tasks := m.tasks

	m = update(t, m, board.BackMsg{})

	assert.Equal(t, ViewChecklists, m.CurrentView())
	assert.Nil(t, m.tasks)
	select {
	case <-tasks.Done():
	case <-time.After(time.Second):
		t.Fatal("task board still running")
	}
}

func TestLogoutKeyClearsSession(t *testing.T) {
	m, svc := newTestModel(t, testToken)

	m = update(t, m, keyPress("L"))

	assert.Equal(t, ViewLogin, m.CurrentView())
	assert.False(t, svc.SignedIn())
	assert.Nil(t, m.lists)
}

func TestRefreshAuthExpiredSignsOut(t *testing.T) {
	m, _ := newTestModel(t, testToken)

	m = update(t, m, appsync.RefreshResultMsg{Key: "checklists", AuthExpired: true, Error: apperror.AuthExpired(nil)})

	assert.Equal(t, ViewLogin, m.CurrentView())
	assert.Nil(t, m.lists)
}

func TestMutationAuthExpiredSignsOut(t *testing.T) {
	m, _ := newTestModel(t, testToken)

	m = update(t, m, mutationDoneMsg{key: m.lists.Key(), state: appsync.Kept, err: apperror.AuthExpired(nil)})

	assert.Equal(t, ViewLogin, m.CurrentView())
}

func TestRevertedDeleteShowsError(t *testing.T) {
	m, _ := newTestModel(t, testToken)

	err := apperror.RemoteUnavailable("delete checklist", errors.New("connection refused"))
	m = update(t, m, mutationDoneMsg{key: m.lists.Key(), op: opDelete, state: appsync.Reverted, err: err})

	assert.Equal(t, ViewChecklists, m.CurrentView())
	assert.Contains(t, m.errMsg, "restored")
}

func TestRevertedToggleIsNotReportedAsDelete(t *testing.T) {
	m, _ := newTestModel(t, testToken)

	err := apperror.NotFound("tasks_srv0001", "t9")
	m = update(t, m, mutationDoneMsg{key: "tasks_srv0001", op: opUpdate, state: appsync.Reverted, err: err})

	assert.NotEmpty(t, m.errMsg)
	assert.NotContains(t, m.errMsg, "delete")
	assert.NotContains(t, m.errMsg, "restored")
}

func TestKeptLocallyShowsNotice(t *testing.T) {
	m, _ := newTestModel(t, testToken)

	m = update(t, m, mutationDoneMsg{key: m.lists.Key(), state: appsync.Kept, notice: appsync.NoticeKeptLocally})

	assert.Empty(t, m.errMsg)
	assert.Equal(t, appsync.NoticeKeptLocally, m.notice)
}

func TestMirrorFallbackShowsNotice(t *testing.T) {
	m, _ := newTestModel(t, testToken)

	m = update(t, m, loadDoneMsg{key: m.lists.Key(), result: appsync.LoadResult{Source: appsync.SourceMirror}})

	assert.Contains(t, m.notice, "saved on this device")
}

func TestStaleEventsAreIgnored(t *testing.T) {
	m, _ := newTestModel(t, testToken)

	next, cmd := m.Update(checklistEventMsg{gen: m.listsGen - 1})
	assert.Nil(t, cmd)
	assert.Equal(t, ViewChecklists, next.(Model).CurrentView())
}

func TestOfflineBannerOnProtectedViews(t *testing.T) {
	m, svc := newTestModel(t, testToken)

	svc.Conn.SetOnline(false)
	assert.Contains(t, m.View(), "Offline Mode")

	svc.Conn.SetOnline(true)
	assert.NotContains(t, m.View(), "Offline Mode")
}

func TestPaletteOpensAndLogsOut(t *testing.T) {
	m, svc := newTestModel(t, testToken)

	m = update(t, m, keyPress(":"))
	require.Equal(t, ViewCommand, m.CurrentView())

	m = update(t, m, command.CommandMsg(command.Logout))

	assert.Equal(t, ViewLogin, m.CurrentView())
	assert.False(t, svc.SignedIn())
}

func TestPaletteCloseReturnsToPreviousView(t *testing.T) {
	m, _ := newTestModel(t, testToken)

	m = update(t, m, keyPress(":"))
	m = update(t, m, command.CloseMsg{})

	assert.Equal(t, ViewChecklists, m.CurrentView())
}

func TestSettingsSavedUpdatesConfig(t *testing.T) {
	m, svc := newTestModel(t, testToken)

	m = update(t, m, keyPress(":"))
	require.Equal(t, ViewCommand, m.CurrentView())
	m = update(t, m, command.CommandMsg(command.Settings))
	require.Equal(t, ViewSettings, m.CurrentView())

	cfg := *svc.Config
	cfg.Display.DefaultColor = "orange"
	m = update(t, m, config.SavedMsg{Config: cfg})

	assert.Equal(t, ViewChecklists, m.CurrentView())
	assert.Equal(t, "orange", svc.Config.Display.DefaultColor)
	assert.Contains(t, m.notice, "Settings saved")
}

func TestSettingsDiscardReturnsToPreviousView(t *testing.T) {
	m, svc := newTestModel(t, testToken)

	m = update(t, m, keyPress(":"))
	require.Equal(t, ViewCommand, m.CurrentView())
	m = update(t, m, command.CommandMsg(command.Settings))
	require.Equal(t, ViewSettings, m.CurrentView())
	m = update(t, m, config.DoneMsg{})

	assert.Equal(t, ViewChecklists, m.CurrentView())
	assert.Equal(t, "green", svc.Config.Display.DefaultColor)
}

func TestTaskDetailFollowsBoardEvents(t *testing.T) {
	m, _ := newTestModel(t, testToken)
	m = update(t, m, checklists.OpenMsg{Checklist: model.Checklist{ID: "srv0001", Title: "Trip"}})

	task := model.Task{ID: "t1", Text: "Passport", Color: model.ColorRed, ChecklistID: "srv0001"}
	m = update(t, m, board.OpenTaskMsg{Task: task})
	require.Equal(t, ViewDetail, m.CurrentView())

	done := task
	done.Completed = true
	m = update(t, m, taskEventMsg{gen: m.tasksGen, event: appsync.Event[model.Task]{Items: []model.Task{done}}})
	require.Equal(t, ViewDetail, m.CurrentView())
	shown, ok := m.detail.Task()
	require.True(t, ok)
	assert.True(t, shown.Completed)

	m = update(t, m, taskEventMsg{gen: m.tasksGen, event: appsync.Event[model.Task]{}})
	assert.Equal(t, ViewBoard, m.CurrentView())
}

func TestTaskDetailDeleteAsksForConfirmation(t *testing.T) {
	m, _ := newTestModel(t, testToken)
	m = update(t, m, checklists.OpenMsg{Checklist: model.Checklist{ID: "srv0001", Title: "Trip"}})

	task := model.Task{ID: "t1", Text: "Passport", ChecklistID: "srv0001"}
	m = update(t, m, board.OpenTaskMsg{Task: task})
	m = update(t, m, detail.ActionMsg{Action: detail.ActionDelete, Task: task})

	assert.Equal(t, ViewConfirm, m.CurrentView())
	assert.Equal(t, ViewDetail, m.previousView)
}
