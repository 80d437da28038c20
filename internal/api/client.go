// Package api is the HTTP client for the tutor backend: auth, course
// registry, roadmap content, message history and question answering.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/ai-tutor/internal/model"
)

// Session carries the credentials of the signed-in user. It is built once
// at startup and handed to every authenticated call.
type Session struct {
	Token string
	User  *model.User
}

// Authorized reports whether the session holds a token.
func (s *Session) Authorized() bool {
	return s != nil && strings.TrimSpace(s.Token) != ""
}

// Client talks to the tutor backend.
type Client struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool { return r.status >= 200 && r.status < 300 }

// message returns the human readable text the backend put in an error body.
func (r *response) message() string {
	var m struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal(r.body, &m); err != nil {
		return ""
	}
	switch {
	case m.Message != "":
		return m.Message
	case m.Error != "":
		return m.Error
	default:
		return m.Msg
	}
}

func bearer(op string, sess *Session) (string, error) {
	if !sess.Authorized() {
		return "", &Error{Op: op, Kind: KindUnauthenticated, Err: ErrNoToken}
	}
	return sess.Token, nil
}

// do sends one request. An empty token sends no Authorization header.
func (c *Client) do(ctx context.Context, op, method, path, token string, in any) (*response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, &Error{Op: op, Kind: KindMalformed, Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Warn("request failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return nil, transportError(op, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, err)
	}
	c.log.Debug("request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	return &response{status: resp.StatusCode, body: b}, nil
}

// authed is do for endpoints that require a bearer token.
func (c *Client) authed(ctx context.Context, op, method, path string, sess *Session, in any) (*response, error) {
	token, err := bearer(op, sess)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, op, method, path, token, in)
}

func decode(op string, r *response, out any) error {
	if err := json.Unmarshal(r.body, out); err != nil {
		return &Error{Op: op, Kind: KindMalformed, Status: r.status, Err: err}
	}
	return nil
}

func segment(code string) string {
	return url.PathEscape(code)
}
