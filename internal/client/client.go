// Package client is the PrepHub session client. It keeps the bearer token
// and the logged-in user's profile in a local Store, attaches the token to
// every request, and drops the session as soon as the server answers 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

var (
	// ErrUnauthorized is returned for any 401; the local session is gone by then.
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotLoggedIn  = errors.New("not logged in")
)

// APIError is a non-2xx response other than 401.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("prephub: %d %s", e.Status, e.Message)
}

type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
}

type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  uint   `json:"user_id"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
}

type Course struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Level       string   `json:"level"`
	IsFree      bool     `json:"is_free"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	CertStatus  string   `json:"cert_status,omitempty"`
}

type Job struct {
	ID          uint   `json:"id"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	Location    string `json:"location,omitempty"`
	Status      string `json:"status,omitempty"`
	Notes       string `json:"notes,omitempty"`
	DateApplied string `json:"date_applied,omitempty"`
}

type Client struct {
	baseURL        string
	http           *http.Client
	store          Store
	onUnauthorized func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithOnUnauthorized sets the hook run after a 401 cleared the session,
// typically sending the user back to the login prompt.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, store Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates an account. When the server logs the new user in right
// away, the returned token is persisted like a login.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &out); err != nil {
		return nil, err
	}
	if out.Token != "" && out.User != nil {
		if err := c.saveSession(ctx, out.Token, *out.User); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// Login authenticates and stores the token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &APIError{Status: http.StatusOK, Message: "login response carried no token"}
	}
	if err := c.saveSession(ctx, out.Token, out.User); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout wipes the local store. Tokens are stateless, so the server is not
// contacted.
func (c *Client) Logout(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// CurrentUser returns the stored profile, or nil when logged out.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	raw, err := c.store.Get(ctx, keyUser)
	if err != nil || raw == nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode stored user: %w", err)
	}
	return &u, nil
}

// Token returns the stored token, or "" when logged out.
func (c *Client) Token(ctx context.Context) (string, error) {
	raw, err := c.store.Get(ctx, keyToken)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (c *Client) IsLoggedIn(ctx context.Context) (bool, error) {
	tok, err := c.Token(ctx)
	return tok != "", err
}

// Me fetches the caller's profile from the server.
func (c *Client) Me(ctx context.Context) (*User, error) {
	if ok, err := c.IsLoggedIn(ctx); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNotLoggedIn
	}
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) ListCourses(ctx context.Context, category, level string) ([]Course, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if level != "" {
		q.Set("level", level)
	}
	path := "/api/courses"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []Course
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListJobs(ctx context.Context) ([]Job, error) {
	var out []Job
	if err := c.do(ctx, http.MethodGet, "/api/jobs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddJob(ctx context.Context, job Job) (*Job, error) {
	var out struct {
		Job Job `json:"job"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/jobs", job, &out); err != nil {
		return nil, err
	}
	return &out.Job, nil
}

// saveSession writes the profile before the token, since the token alone
// decides IsLoggedIn. A failed token write removes the profile again.
func (c *Client) saveSession(ctx context.Context, token string, u User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, keyUser, raw); err != nil {
		return err
	}
	if err := c.store.Set(ctx, keyToken, []byte(token)); err != nil {
		return errors.Join(err, c.store.Delete(ctx, keyUser))
	}
	return nil
}

func (c *Client) clearSession(ctx context.Context) error {
	if err := c.store.Delete(ctx, keyToken); err != nil {
		return err
	}
	return c.store.Delete(ctx, keyUser)
}

// do sends one JSON request with the stored bearer token and decodes a 2xx
// body into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	tok, err := c.Token(ctx)
	if err != nil {
		return err
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		msg := readMessage(resp.Body)
		if err := c.clearSession(ctx); err != nil {
			return err
		}
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// readMessage pulls "message" or "error" out of an error body.
func readMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
