package api

import (
	"context"
	"net/http"

	"github.com/rcliao/ai-tutor/internal/model"
)

type coursesResponse struct {
	Courses []model.Course `json:"courses"`
}

// AllCourses lists the course catalog. It needs no session.
func (c *Client) AllCourses(ctx context.Context) ([]model.Course, error) {
	const op = "list courses"
	resp, err := c.do(ctx, op, http.MethodGet, "/courses", "", nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, statusError(op, resp)
	}
	var out coursesResponse
	if err := decode(op, resp, &out); err != nil {
		return nil, err
	}
	return out.Courses, nil
}

// UserCourses lists the courses the session's user is enrolled in.
func (c *Client) UserCourses(ctx context.Context, sess *Session) ([]model.Course, error) {
	const op = "list user courses"
	resp, err := c.authed(ctx, op, http.MethodGet, "/courses/user-courses", sess, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, statusError(op, resp)
	}
	var out coursesResponse
	if err := decode(op, resp, &out); err != nil {
		return nil, err
	}
	return out.Courses, nil
}

// Enroll adds the user to a course.
func (c *Client) Enroll(ctx context.Context, sess *Session, code string) error {
	const op = "enroll"
	resp, err := c.authed(ctx, op, http.MethodPost, "/courses/enroll/"+segment(code), sess, nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return statusError(op, resp)
	}
	return nil
}

// Drop removes the user from a course. The backend also deletes the user's
// questions for it.
func (c *Client) Drop(ctx context.Context, sess *Session, code string) error {
	const op = "drop course"
	resp, err := c.authed(ctx, op, http.MethodDelete, "/courses/drop-course/"+segment(code), sess, nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return statusError(op, resp)
	}
	return nil
}

// Roadmap fetches the week to topics map of a course.
func (c *Client) Roadmap(ctx context.Context, sess *Session, code string) (model.Roadmap, error) {
	const op = "get roadmap"
	resp, err := c.authed(ctx, op, http.MethodGet, "/courses/get-flowchart/"+segment(code), sess, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, statusError(op, resp)
	}
	var out model.Roadmap
	if err := decode(op, resp, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = model.Roadmap{}
	}
	return out, nil
}
