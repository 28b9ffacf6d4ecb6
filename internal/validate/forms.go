// Package validate checks login and registration input before anything is
// sent to the backend.
package validate

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/nhle/stickylist/internal/apperror"
)

// Minimum password lengths. Registration is stricter than login because
// login must still accept accounts created under older rules.
const (
	MinLoginPasswordLen    = 6
	MinRegisterPasswordLen = 8
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Form field names.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// Errors maps form fields to their first failing message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, apperror.ErrValidation) match.
func (e Errors) Unwrap() error { return apperror.ErrValidation }

// Field returns the message for a field, or "".
func (e Errors) Field(name string) string { return e[name] }

func (e Errors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// LoginForm is the input of the login screen.
type LoginForm struct {
	Email    string
	Password string
}

// Validate returns an Errors value describing every invalid field, or nil.
func (f LoginForm) Validate() error {
	errs := Errors{}
	setIf(errs, FieldEmail, Email(f.Email))
	setIf(errs, FieldPassword, LoginPassword(f.Password))
	return errs.orNil()
}

// RegisterForm is the input of the registration screen.
type RegisterForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate returns an Errors value describing every invalid field, or nil.
func (f RegisterForm) Validate() error {
	errs := Errors{}
	setIf(errs, FieldName, Name(f.Name))
	setIf(errs, FieldEmail, Email(f.Email))
	setIf(errs, FieldPassword, RegisterPassword(f.Password))
	setIf(errs, FieldConfirmPassword, Confirmation(f.Password)(f.ConfirmPassword))
	return errs.orNil()
}

// The single-field validators below return a *apperror.AppError so huh
// inputs can use them directly.

func Name(s string) error {
	if strings.TrimSpace(s) == "" {
		return apperror.ValidationFailed(FieldName, "Name is required")
	}
	return nil
}

func Email(s string) error {
	if strings.TrimSpace(s) == "" {
		return apperror.ValidationFailed(FieldEmail, "Email is required")
	}
	if !emailPattern.MatchString(strings.TrimSpace(s)) {
		return apperror.ValidationFailed(FieldEmail, "Please enter a valid email")
	}
	return nil
}

func LoginPassword(s string) error {
	if s == "" {
		return apperror.ValidationFailed(FieldPassword, "Password is required")
	}
	if len([]rune(s)) < MinLoginPasswordLen {
		return apperror.ValidationFailed(FieldPassword, "Password must be at least 6 characters")
	}
	return nil
}

// RegisterPassword enforces length plus one upper, lower, digit and
// special character, reporting the first rule that fails.
func RegisterPassword(s string) error {
	if s == "" {
		return apperror.ValidationFailed(FieldPassword, "Password is required")
	}
	if len([]rune(s)) < MinRegisterPasswordLen {
		return apperror.ValidationFailed(FieldPassword, "Password must be at least 8 characters")
	}

	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	switch {
	case !upper:
		return apperror.ValidationFailed(FieldPassword, "Needs at least one uppercase letter")
	case !lower:
		return apperror.ValidationFailed(FieldPassword, "Needs at least one lowercase letter")
	case !digit:
		return apperror.ValidationFailed(FieldPassword, "Needs at least one number")
	case !special:
		return apperror.ValidationFailed(FieldPassword, "Needs at least one special character")
	}
	return nil
}

// Confirmation returns a validator checking that the confirmation equals
// password.
func Confirmation(password string) func(string) error {
	return func(confirm string) error {
		if confirm == "" {
			return apperror.ValidationFailed(FieldConfirmPassword, "Please confirm your password")
		}
		if confirm != password {
			return apperror.ValidationFailed(FieldConfirmPassword, "Passwords don't match")
		}
		return nil
	}
}

// Title checks a checklist title or task text.
func Title(s string) error {
	if strings.TrimSpace(s) == "" {
		return apperror.ValidationFailed("title", "Title is required")
	}
	return nil
}

func setIf(errs Errors, field string, err error) {
	if err != nil {
		errs[field] = apperror.UserMessage(err)
	}
}
