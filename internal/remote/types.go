package remote

import (
	"time"

	"github.com/nhle/stickylist/internal/model"
)

// ErrorResponse is the error body returned by the API.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// credentialsRequest is the body of the login and register calls.
type credentialsRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by the login and register endpoints.
type AuthResponse struct {
	Token string `json:"token"`
}

// checklistDTO is a checklist as sent by the API. The backend uses
// Mongo-style "_id"; "id" is accepted as well.
type checklistDTO struct {
	ID        string    `json:"id"`
	MongoID   string    `json:"_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	TaskCount int       `json:"taskCount"`
}

func (d checklistDTO) toModel() model.Checklist {
	return model.Checklist{
		ID:        firstNonEmpty(d.ID, d.MongoID),
		Title:     d.Title,
		CreatedAt: d.CreatedAt,
		TaskCount: d.TaskCount,
	}
}

// taskDTO is a task as sent by the API. Text arrives as "title" from the
// current backend and as "text" from older ones.
type taskDTO struct {
	ID          string    `json:"id"`
	MongoID     string    `json:"_id"`
	Text        string    `json:"text"`
	Title       string    `json:"title"`
	Color       string    `json:"color"`
	Completed   bool      `json:"completed"`
	Pinned      bool      `json:"pinned"`
	CreatedAt   time.Time `json:"createdAt"`
	ChecklistID string    `json:"checklistId"`
	Checklist   string    `json:"checklist"`
}

func (d taskDTO) toModel() model.Task {
	color := model.Color(d.Color)
	if !color.Valid() {
		color = model.DefaultColor
	}
	return model.Task{
		ID:          firstNonEmpty(d.ID, d.MongoID),
		Text:        firstNonEmpty(d.Text, d.Title),
		Color:       color,
		Completed:   d.Completed,
		Pinned:      d.Pinned,
		CreatedAt:   d.CreatedAt,
		ChecklistID: firstNonEmpty(d.ChecklistID, d.Checklist),
	}
}

type checklistsEnvelope struct {
	Checklists []checklistDTO `json:"checklists"`
}

type checklistEnvelope struct {
	Checklist checklistDTO `json:"checklist"`
}

type createChecklistRequest struct {
	Title string `json:"title"`
}

type tasksEnvelope struct {
	Tasks []taskDTO `json:"tasks"`
}

type taskEnvelope struct {
	Task taskDTO `json:"task"`
}

type createTaskRequest struct {
	Title     string `json:"title"`
	Checklist string `json:"checklist"`
	Color     string `json:"color"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
