package sync

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/stickylist/internal/apperror"
	"github.com/nhle/stickylist/internal/model"
	"github.com/nhle/stickylist/internal/remote"
	"github.com/nhle/stickylist/internal/store"
)

// ChecklistSet is the collection behind the checklists screen.
type ChecklistSet struct {
	*Collection[model.Checklist]
}

// NewChecklistSet opens the checklist collection.
func NewChecklistSet(gw Gateway[model.Checklist], opts Options) *ChecklistSet {
	opts.Key = store.ChecklistsKey
	return &ChecklistSet{Collection: NewCollection[model.Checklist](gw, opts)}
}

// Add creates a checklist titled title.
func (s *ChecklistSet) Add(ctx context.Context, title string) (MutationResult[model.Checklist], error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return MutationResult[model.Checklist]{State: Reverted}, apperror.ValidationFailed("title", "Title is required")
	}
	return s.Create(ctx, model.NewChecklist(title))
}

// TaskGateway is the remote side of a TaskBoard.
type TaskGateway interface {
	Gateway[model.Task]
	Update(ctx context.Context, id string, patch model.TaskPatch) error
}

// TaskBoard is the collection behind one checklist's task board.
type TaskBoard struct {
	*Collection[model.Task]
	checklistID string
	gw          TaskGateway
}

// NewTaskBoard opens the task collection of checklistID.
func NewTaskBoard(checklistID string, gw TaskGateway, opts Options) *TaskBoard {
	opts.Key = store.TasksKey(checklistID)
	return &TaskBoard{
		Collection:  NewCollection[model.Task](gw, opts),
		checklistID: checklistID,
		gw:          gw,
	}
}

// ChecklistID returns the checklist the board belongs to.
func (b *TaskBoard) ChecklistID() string { return b.checklistID }

// Add creates a task with text and color. An invalid color falls back to
// the default.
func (b *TaskBoard) Add(ctx context.Context, text string, color model.Color) (MutationResult[model.Task], error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return MutationResult[model.Task]{State: Reverted}, apperror.ValidationFailed("text", "Task text is required")
	}
	return b.Create(ctx, model.NewTask(b.checklistID, text, color))
}

// ToggleCompleted flips the completed flag of the task with id.
func (b *TaskBoard) ToggleCompleted(ctx context.Context, id string) (MutationResult[model.Task], error) {
	return b.Update(ctx, id,
		func(t model.Task) model.Task {
			t.Completed = !t.Completed
			return t
		},
		func(ctx context.Context, t model.Task) error {
			return b.gw.Update(ctx, t.ID, model.TaskPatch{Completed: &t.Completed})
		},
	)
}

// TogglePinned flips the pinned flag of the task with id.
func (b *TaskBoard) TogglePinned(ctx context.Context, id string) (MutationResult[model.Task], error) {
	return b.Update(ctx, id,
		func(t model.Task) model.Task {
			t.Pinned = !t.Pinned
			return t
		},
		func(ctx context.Context, t model.Task) error {
			return b.gw.Update(ctx, t.ID, model.TaskPatch{Pinned: &t.Pinned})
		},
	)
}

// Collections builds checklist sets and task boards that share one
// connectivity flag, mirror and session.
type Collections struct {
	client  *remote.Client
	mirror  store.Mirror
	conn    *Connectivity
	session SessionClearer
	logger  *zap.Logger
}

// NewCollections returns a factory for collections backed by client.
func NewCollections(client *remote.Client, mirror store.Mirror, conn *Connectivity, session SessionClearer, logger *zap.Logger) *Collections {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collections{
		client:  client,
		mirror:  mirror,
		conn:    conn,
		session: session,
		logger:  logger,
	}
}

// Connectivity returns the shared online flag.
func (f *Collections) Connectivity() *Connectivity { return f.conn }

// Checklists opens the checklist collection.
func (f *Collections) Checklists() *ChecklistSet {
	return NewChecklistSet(remote.NewChecklistGateway(f.client), f.options())
}

// Tasks opens the task board of checklistID.
func (f *Collections) Tasks(checklistID string) *TaskBoard {
	return NewTaskBoard(checklistID, remote.NewTaskGateway(f.client, checklistID), f.options())
}

func (f *Collections) options() Options {
	return Options{
		Mirror:  f.mirror,
		Conn:    f.conn,
		Session: f.session,
		Logger:  f.logger,
	}
}
