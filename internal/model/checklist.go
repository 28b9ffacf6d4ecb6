package model

import "time"

// Checklist is a named collection of sticky-note tasks owned by the
// signed-in user.
type Checklist struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	TaskCount int       `json:"taskCount"`
}

// NewChecklist returns an unsaved checklist draft with the given title.
func NewChecklist(title string) Checklist {
	return Checklist{
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
}
