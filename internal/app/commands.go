package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/stickylist/internal/model"
	appsync "github.com/nhle/stickylist/internal/sync"
	"github.com/nhle/stickylist/internal/validate"
)

// loadDoneMsg is sent after a collection finished loading.
type loadDoneMsg struct {
	key    string
	result appsync.LoadResult
	err    error
}

type mutationOp int

const (
	opCreate mutationOp = iota
	opUpdate
	opDelete
)

// mutationDoneMsg is sent after a create, update or delete finished.
type mutationDoneMsg struct {
	key    string
	op     mutationOp
	state  appsync.MutationState
	notice string
	err    error
}

// authDoneMsg is sent after a login or registration attempt.
type authDoneMsg struct {
	err error
}

// checklistEventMsg carries a change of the checklist working set.
type checklistEventMsg struct {
	gen   int
	event appsync.Event[model.Checklist]
}

// taskEventMsg carries a change of a task board working set.
type taskEventMsg struct {
	gen   int
	event appsync.Event[model.Task]
}

// cacheClearedMsg is sent after the mirror was wiped.
type cacheClearedMsg struct {
	err error
}

type deleteChecklistTag struct{ id string }

type deleteTaskTag struct{ id string }

func loadCollection(l appsync.Loader) tea.Cmd {
	return func() tea.Msg {
		res, err := l.Load(context.Background())
		return loadDoneMsg{key: l.Key(), result: res, err: err}
	}
}

func mutationDone[T any](key string, op mutationOp, res appsync.MutationResult[T], err error) tea.Msg {
	return mutationDoneMsg{key: key, op: op, state: res.State, notice: res.Notice, err: err}
}

func (m *Model) createChecklist(title string) tea.Cmd {
	set := m.lists
	return func() tea.Msg {
		res, err := set.Add(context.Background(), title)
		return mutationDone(set.Key(), opCreate, res, err)
	}
}

func (m *Model) deleteChecklist(id string) tea.Cmd {
	set := m.lists
	return func() tea.Msg {
		res, err := set.Delete(context.Background(), id)
		return mutationDone(set.Key(), opDelete, res, err)
	}
}

func (m *Model) createTask(text string, color model.Color) tea.Cmd {
	b := m.tasks
	return func() tea.Msg {
		res, err := b.Add(context.Background(), text, color)
		return mutationDone(b.Key(), opCreate, res, err)
	}
}

func (m *Model) toggleCompleted(id string) tea.Cmd {
	b := m.tasks
	return func() tea.Msg {
		res, err := b.ToggleCompleted(context.Background(), id)
		return mutationDone(b.Key(), opUpdate, res, err)
	}
}

func (m *Model) togglePinned(id string) tea.Cmd {
	b := m.tasks
	return func() tea.Msg {
		res, err := b.TogglePinned(context.Background(), id)
		return mutationDone(b.Key(), opUpdate, res, err)
	}
}

func (m *Model) deleteTask(id string) tea.Cmd {
	b := m.tasks
	return func() tea.Msg {
		res, err := b.Delete(context.Background(), id)
		return mutationDone(b.Key(), opDelete, res, err)
	}
}

func (m *Model) login(form validate.LoginForm) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return authDoneMsg{err: svc.Login(context.Background(), form)}
	}
}

func (m *Model) register(form validate.RegisterForm) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return authDoneMsg{err: svc.Register(context.Background(), form)}
	}
}

// waitForChecklists returns a tea.Cmd delivering the next event from ch,
// tagged with the subscription generation gen. It yields nil once the
// collection has stopped.
func waitForChecklists(gen int, ch <-chan appsync.Event[model.Checklist]) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return checklistEventMsg{gen: gen, event: ev}
	}
}

func waitForTasks(gen int, ch <-chan appsync.Event[model.Task]) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return taskEventMsg{gen: gen, event: ev}
	}
}

func (m *Model) clearCache() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return cacheClearedMsg{err: svc.ClearCache(context.Background())}
	}
}
