package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{"ValidationFailed wraps ErrValidation", ValidationFailed("email", "Email is required"), ErrValidation, true},
		{"AuthExpired wraps ErrAuthExpired", AuthExpired(nil), ErrAuthExpired, true},
		{"RemoteUnavailable wraps ErrRemoteUnavailable", RemoteUnavailable("list checklists", cause), ErrRemoteUnavailable, true},
		{"RemoteUnavailable keeps its cause", RemoteUnavailable("list checklists", cause), cause, true},
		{"Storage wraps ErrStorage", Storage("write mirror", cause), ErrStorage, true},
		{"NotFound wraps ErrNotFound", NotFound("task", "t1"), ErrNotFound, true},
		{"RemoteUnavailable is not AuthExpired", RemoteUnavailable("x", nil), ErrAuthExpired, false},
		{"wrapped AppError still matches", fmt.Errorf("loading: %w", AuthExpired(nil)), ErrAuthExpired, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{"validation uses message", ValidationFailed("password", "Password is required"), "Password is required"},
		{"cause is appended", Storage("write mirror", errors.New("disk full")), "write mirror failed: disk full"},
		{"not found names resource", NotFound("checklist", "c1"), "checklist not found with id c1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessageHidesCause(t *testing.T) {
	err := fmt.Errorf("delete task: %w", RemoteUnavailable("delete task", errors.New("timeout")))

	if got := UserMessage(err); got != "delete task failed" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(nil); got != "" {
		t.Errorf("UserMessage(nil) = %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestFieldIsKept(t *testing.T) {
	var appErr *AppError
	if !errors.As(fmt.Errorf("wrap: %w", ValidationFailed("email", "bad")), &appErr) {
		t.Fatal("errors.As did not find AppError")
	}
	if appErr.Field != "email" {
		t.Errorf("Field = %q, want email", appErr.Field)
	}
}
