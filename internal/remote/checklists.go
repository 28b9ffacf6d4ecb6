package remote

import (
	"context"
	"net/url"

	"github.com/nhle/stickylist/internal/model"
)

// ChecklistGateway reads and writes the signed-in user's checklists.
type ChecklistGateway struct {
	client *Client
}

// NewChecklistGateway creates a gateway over client.
func NewChecklistGateway(client *Client) *ChecklistGateway {
	return &ChecklistGateway{client: client}
}

// List returns the checklists in server order.
func (g *ChecklistGateway) List(ctx context.Context) ([]model.Checklist, error) {
	var resp checklistsEnvelope
	if err := g.client.Get(ctx, "/api/checklists", &resp); err != nil {
		return nil, err
	}

	out := make([]model.Checklist, 0, len(resp.Checklists))
	for _, d := range resp.Checklists {
		out = append(out, d.toModel())
	}
	return out, nil
}

// Create stores a new checklist and returns the server's copy.
func (g *ChecklistGateway) Create(ctx context.Context, c model.Checklist) (model.Checklist, error) {
	var resp checklistEnvelope
	err := g.client.Post(ctx, "/api/checklists", createChecklistRequest{Title: c.Title}, &resp)
	if err != nil {
		return model.Checklist{}, err
	}

	created := resp.Checklist.toModel()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = c.CreatedAt
	}
	return created, nil
}

// Delete removes the checklist with id.
func (g *ChecklistGateway) Delete(ctx context.Context, id string) error {
	return g.client.Delete(ctx, "/api/checklists/"+url.PathEscape(id))
}
