package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/rcliao/ai-tutor/internal/model"
)

// noHistoryMessage is what the history service answers instead of an empty
// list.
const noHistoryMessage = "No message history found for this course"

// History returns the stored question/answer pairs for a course, oldest
// first.
func (c *Client) History(ctx context.Context, sess *Session, code string) ([]model.QA, error) {
	const op = "get history"
	resp, err := c.authed(ctx, op, http.MethodGet, "/message_history/"+segment(code), sess, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, statusError(op, resp)
	}

	var out struct {
		MessageHistory []model.QA `json:"message_history"`
		Message        string     `json:"message"`
	}
	if err := decode(op, resp, &out); err != nil {
		return nil, err
	}
	if out.Message == noHistoryMessage {
		return nil, nil
	}
	return out.MessageHistory, nil
}

// DeleteHistory removes every stored question for a course.
func (c *Client) DeleteHistory(ctx context.Context, sess *Session, code string) error {
	const op = "delete history"
	resp, err := c.authed(ctx, op, http.MethodDelete, "/delete_message_history/"+segment(code), sess, nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return statusError(op, resp)
	}
	return nil
}

// Ask sends a question to the course's tutor.
func (c *Client) Ask(ctx context.Context, sess *Session, code, question string) (*model.Answer, error) {
	const op = "ask"
	resp, err := c.authed(ctx, op, http.MethodPost, "/ask/"+segment(code), sess,
		map[string]string{"question": question})
	if err != nil {
		return nil, err
	}

	switch {
	case resp.status == http.StatusUnauthorized:
		return nil, &Error{Op: op, Kind: KindUnauthenticated, Status: resp.status, Message: "User not authenticated"}
	case resp.status == http.StatusTooManyRequests:
		return nil, &Error{Op: op, Kind: KindRateLimited, Status: resp.status, Message: "Too many requests"}
	case resp.status == http.StatusForbidden:
		return nil, &Error{Op: op, Kind: KindNotEnrolled, Status: resp.status, Message: resp.message()}
	case !resp.ok():
		return nil, &Error{Op: op, Kind: KindTransport, Status: resp.status, Message: resp.message()}
	}

	var out struct {
		Answer  *string        `json:"answer"`
		Sources []model.Source `json:"sources"`
	}
	if err := decode(op, resp, &out); err != nil {
		return nil, err
	}
	if out.Answer == nil || strings.TrimSpace(*out.Answer) == "" {
		return nil, &Error{Op: op, Kind: KindMalformed, Status: resp.status, Message: "Invalid response format"}
	}
	return &model.Answer{Answer: *out.Answer, Sources: out.Sources}, nil
}
