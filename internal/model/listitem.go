package model

import (
	"strings"

	"github.com/rs/xid"
)

// localIDPrefix marks identifiers minted on the device for entries the
// server has not confirmed yet.
const localIDPrefix = "local-"

// NewLocalID returns a time-sortable temporary identifier.
func NewLocalID() string {
	return localIDPrefix + xid.New().String()
}

// IsLocalID reports whether id was minted by NewLocalID.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix)
}

// Checklist and Task are the two entity kinds kept in synchronized
// collections. Both expose an ID, a search string, and a copy-with-ID.

func (c Checklist) GetID() string { return c.ID }
func (c Checklist) SearchText() string { return c.Title }
func (c Checklist) WithID(id string) Checklist {
	c.ID = id
	return c
}
func (c Checklist) IsLocal() bool { return IsLocalID(c.ID) }

func (t Task) GetID() string { return t.ID }
func (t Task) SearchText() string { return t.Text }
func (t Task) WithID(id string) Task {
	t.ID = id
	return t
}
func (t Task) IsLocal() bool { return IsLocalID(t.ID) }
