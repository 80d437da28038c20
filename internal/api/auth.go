package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rcliao/ai-tutor/internal/model"
)

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the payload for signing in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Register creates an account. The backend answers 5xx when the email is
// already taken.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	const op = "register"
	if err := validateRequest(op, req); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, op, http.MethodPost, "/auth/register", "", req)
	if err != nil {
		return nil, err
	}
	if resp.status >= 500 {
		return nil, &Error{Op: op, Kind: KindTransport, Status: resp.status,
			Message: "An account with this email already exists"}
	}
	if !resp.ok() {
		msg := resp.message()
		if msg == "" {
			msg = fmt.Sprintf("Registration failed with status: %d", resp.status)
		}
		return nil, &Error{Op: op, Kind: KindTransport, Status: resp.status, Message: msg}
	}

	var out struct {
		User model.User `json:"user"`
	}
	if err := decode(op, resp, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	const op = "login"
	if err := validateRequest(op, req); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, op, http.MethodPost, "/auth/login", "", req)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusUnauthorized {
		msg := resp.message()
		if msg == "" {
			msg = "Invalid credentials"
		}
		return nil, &Error{Op: op, Kind: KindUnauthenticated, Status: resp.status, Message: msg}
	}
	if !resp.ok() {
		e := statusError(op, resp)
		if e.Message == "" {
			e.Message = fmt.Sprintf("Login failed with status: %d", resp.status)
		}
		return nil, e
	}

	var out struct {
		AccessToken string     `json:"access_token"`
		User        model.User `json:"user"`
	}
	if err := decode(op, resp, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, &Error{Op: op, Kind: KindMalformed, Status: resp.status, Message: "response has no access_token"}
	}
	return &Session{Token: out.AccessToken, User: &out.User}, nil
}

// Logout revokes the session token on the backend.
func (c *Client) Logout(ctx context.Context, sess *Session) error {
	const op = "logout"
	resp, err := c.authed(ctx, op, http.MethodPost, "/auth/logout", sess, nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return statusError(op, resp)
	}
	return nil
}

// DeleteAccount removes the user and everything the backend stores for them.
func (c *Client) DeleteAccount(ctx context.Context, sess *Session) error {
	const op = "delete account"
	resp, err := c.authed(ctx, op, http.MethodDelete, "/auth/delete-user", sess, nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return statusError(op, resp)
	}
	return nil
}
