package remote

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nhle/stickylist/internal/apperror"
)

const (
	msgInvalidLogin   = "Invalid email or password"
	msgLoginFailed    = "Login failed. Please try again."
	msgEmailExists    = "Email already exists"
	msgRegisterFailed = "Registration failed. Please try again."
	msgNetworkError   = "Network error - please check your connection"
)

// Login exchanges credentials for a bearer token. Failures carry the
// message shown on the login screen.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	req := credentialsRequest{
		Email:    normalizeEmail(email),
		Password: password,
	}

	var resp AuthResponse
	err := c.Post(ctx, "/api/auth/login", req, &resp)
	if err != nil {
		return "", accountError(err, func(status int, serverMsg string) error {
			if status == http.StatusUnauthorized {
				return apperror.ValidationFailed("", msgInvalidLogin)
			}
			if serverMsg != "" {
				return apperror.ValidationFailed("", serverMsg)
			}
			return &apperror.AppError{Err: apperror.ErrRemoteUnavailable, Message: msgLoginFailed, Cause: err}
		})
	}
	if resp.Token == "" {
		return "", &apperror.AppError{Err: apperror.ErrRemoteUnavailable, Message: msgLoginFailed}
	}
	return resp.Token, nil
}

// Register creates an account and returns its bearer token.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	req := credentialsRequest{
		Name:     strings.TrimSpace(name),
		Email:    normalizeEmail(email),
		Password: password,
	}

	var resp AuthResponse
	err := c.Post(ctx, "/api/auth/register", req, &resp)
	if err != nil {
		return "", accountError(err, func(status int, serverMsg string) error {
			switch {
			case status == http.StatusBadRequest && serverMsg != "":
				return apperror.ValidationFailed("", serverMsg)
			case status == http.StatusConflict:
				return apperror.ValidationFailed("email", msgEmailExists)
			}
			return &apperror.AppError{Err: apperror.ErrRemoteUnavailable, Message: msgRegisterFailed, Cause: err}
		})
	}
	if resp.Token == "" {
		return "", &apperror.AppError{Err: apperror.ErrRemoteUnavailable, Message: msgRegisterFailed}
	}
	return resp.Token, nil
}

// accountError maps a failed account call. Responses are passed to
// fromResponse; transport failures become a network error.
func accountError(err error, fromResponse func(status int, serverMsg string) error) error {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return fromResponse(httpErr.StatusCode, httpErr.Message)
	}
	if apperror.IsRemoteUnavailable(err) {
		return &apperror.AppError{Err: apperror.ErrRemoteUnavailable, Message: msgNetworkError, Cause: err}
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
