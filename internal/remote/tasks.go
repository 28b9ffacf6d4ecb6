package remote

import (
	"context"
	"net/url"

	"github.com/nhle/stickylist/internal/model"
)

// TaskGateway reads and writes the tasks of one checklist.
type TaskGateway struct {
	client      *Client
	checklistID string
}

// NewTaskGateway creates a gateway scoped to checklistID.
func NewTaskGateway(client *Client, checklistID string) *TaskGateway {
	return &TaskGateway{client: client, checklistID: checklistID}
}

// ChecklistID returns the checklist this gateway is scoped to.
func (g *TaskGateway) ChecklistID() string { return g.checklistID }

// List returns the checklist's tasks in server order.
func (g *TaskGateway) List(ctx context.Context) ([]model.Task, error) {
	var resp tasksEnvelope
	path := "/api/tasks/checklist/" + url.PathEscape(g.checklistID)
	if err := g.client.Get(ctx, path, &resp); err != nil {
		return nil, err
	}

	out := make([]model.Task, 0, len(resp.Tasks))
	for _, d := range resp.Tasks {
		t := d.toModel()
		if t.ChecklistID == "" {
			t.ChecklistID = g.checklistID
		}
		out = append(out, t)
	}
	return out, nil
}

// Create stores t in the checklist and returns the server's copy.
func (g *TaskGateway) Create(ctx context.Context, t model.Task) (model.Task, error) {
	req := createTaskRequest{
		Title:     t.Text,
		Checklist: g.checklistID,
		Color:     string(t.Color),
	}

	var resp taskEnvelope
	if err := g.client.Post(ctx, "/api/tasks", req, &resp); err != nil {
		return model.Task{}, err
	}

	created := resp.Task.toModel()
	if created.ChecklistID == "" {
		created.ChecklistID = g.checklistID
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = t.CreatedAt
	}
	return created, nil
}

// Update sends the non-nil fields of patch.
func (g *TaskGateway) Update(ctx context.Context, id string, patch model.TaskPatch) error {
	return g.client.Patch(ctx, "/api/tasks/"+url.PathEscape(id), patch, nil)
}

// Delete removes the task with id.
func (g *TaskGateway) Delete(ctx context.Context, id string) error {
	return g.client.Delete(ctx, "/api/tasks/"+url.PathEscape(id))
}
