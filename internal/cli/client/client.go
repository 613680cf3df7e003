package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	DefaultAuthPath = "/auth"
	DefaultAPIPath  = "/api/v0"
	DefaultTimeout  = 30 * time.Second
)

// ErrUnauthorized matches any StatusError carrying a 401
var ErrUnauthorized = errors.New("unauthorized")

// StatusError is returned when the server answers with an unexpected status code
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s failed (status %d)", e.Op, e.Code)
	}
	return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.Code, e.Body)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.Code == http.StatusUnauthorized
}

// Options configures a Client
type Options struct {
	BaseURL  string
	AuthPath string
	APIPath  string
	Timeout  time.Duration
}

// Client represents an HTTP client for the auth and task APIs.
// The backend session is carried by cookies kept in the client's jar.
type Client struct {
	baseURL    *url.URL
	authPath   string
	apiPath    string
	jar        *expiryJar
	httpClient *http.Client
}

// expiryJar remembers when the cookies the server set expire.
// cookiejar.Jar only hands back names and values.
type expiryJar struct {
	*cookiejar.Jar

	mu      sync.Mutex
	expires map[string]time.Time
}

func (j *expiryJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.Jar.SetCookies(u, cookies)

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		switch {
		case c.MaxAge > 0:
			j.expires[c.Name] = time.Now().Add(time.Duration(c.MaxAge) * time.Second)
		case c.MaxAge == 0 && !c.Expires.IsZero():
			j.expires[c.Name] = c.Expires
		default:
			delete(j.expires, c.Name)
		}
	}
}

func (j *expiryJar) expiry(name string) time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.expires[name]
}

// New creates a new API client
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: scheme and host are required", opts.BaseURL)
	}

	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	jar := &expiryJar{Jar: inner, expires: make(map[string]time.Time)}

	if opts.AuthPath == "" {
		opts.AuthPath = DefaultAuthPath
	}
	if opts.APIPath == "" {
		opts.APIPath = DefaultAPIPath
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &Client{
		baseURL:  base,
		authPath: cleanPath(opts.AuthPath),
		apiPath:  cleanPath(opts.APIPath),
		jar:      jar,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
			Jar:     jar,
		},
	}, nil
}

func cleanPath(p string) string {
	return "/" + strings.Trim(p, "/")
}

// SetHTTPClient sets a custom HTTP client. The client's cookie jar is kept.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	httpClient.Jar = c.jar
	c.httpClient = httpClient
}

// BaseURL returns the server URL the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Cookies returns the session cookies currently held for the server.
// Expires is set for cookies the server gave a lifetime.
func (c *Client) Cookies() []*http.Cookie {
	cookies := c.jar.Cookies(c.baseURL)
	for _, ck := range cookies {
		ck.Expires = c.jar.expiry(ck.Name)
	}
	return cookies
}

// SetCookies seeds the jar, typically with cookies saved by a previous run
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.jar.SetCookies(c.baseURL, cookies)
}

func (c *Client) authURL(name string) string {
	return c.baseURL.String() + c.authPath + "/" + name
}

func (c *Client) apiURL(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.baseURL.String() + c.apiPath + "/" + strings.Join(escaped, "/")
}

// newRequest builds a request, encoding body as JSON when non-nil
func (c *Client) newRequest(ctx context.Context, method, target string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// send performs req and returns the response when its status is one of want.
// On any other status the body is drained into a StatusError.
func (c *Client) send(op string, req *http.Request, want ...int) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	for _, code := range want {
		if resp.StatusCode == code {
			return resp, nil
		}
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return nil, &StatusError{
		Op:   op,
		Code: resp.StatusCode,
		Body: strings.TrimSpace(string(body)),
	}
}

// UserStatus is the body returned by the status endpoint
type UserStatus struct {
	Username string `json:"username"`
	LoggedIn bool   `json:"logged-in"`
}

// Status asks the server whether the current cookie carries a live session
func (c *Client) Status(ctx context.Context) (*UserStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet, c.authURL("status"), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.send("status check", req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var status UserStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &status, nil
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	SessionRenew bool   `json:"sessionRenew"`
}

// Login authenticates the user. A wrong password yields an error matching ErrUnauthorized.
func (c *Client) Login(ctx context.Context, login LoginRequest) error {
	req, err := c.newRequest(ctx, http.MethodPost, c.authURL("login"), login)
	if err != nil {
		return err
	}

	resp, err := c.send("login", req, http.StatusOK)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Logout ends the server side session. Any 2xx answer counts as success.
func (c *Client) Logout(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, c.authURL("logout"), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Op: "logout", Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Task represents a task as exchanged with the API
type Task struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// TaskList is the body returned by the list endpoint
type TaskList struct {
	Count int    `json:"Count"`
	Tasks []Task `json:"Tasks"`
}

// ListOptions are optional pagination parameters; zero values are omitted
type ListOptions struct {
	Limit int
	Page  int
}

// ListTasks returns the tasks of the logged-in user
func (c *Client) ListTasks(ctx context.Context, opts ListOptions) (*TaskList, error) {
	target := c.apiURL("tasks")
	query := url.Values{}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := c.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.send("list tasks", req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var list TaskList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &list, nil
}

// CreateTaskRequest represents the task creation request
type CreateTaskRequest struct {
	Text string `json:"text"`
}

// CreateTask creates a task and returns it as stored by the server
func (c *Client) CreateTask(ctx context.Context, text string) (*Task, error) {
	req, err := c.newRequest(ctx, http.MethodPost, c.apiURL("task"), CreateTaskRequest{Text: text})
	if err != nil {
		return nil, err
	}

	resp, err := c.send("create task", req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var task Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &task, nil
}

// DeleteTask deletes a task by ID
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.apiURL("task", id), nil)
	if err != nil {
		return err
	}

	resp, err := c.send("delete task", req, http.StatusAccepted)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// SetDoneRequest represents the task update request
type SetDoneRequest struct {
	ID   string `json:"id"`
	Done bool   `json:"done"`
}

// SetTaskDone marks a task as done or not done
func (c *Client) SetTaskDone(ctx context.Context, id string, done bool) error {
	req, err := c.newRequest(ctx, http.MethodPut, c.apiURL("task", id), SetDoneRequest{ID: id, Done: done})
	if err != nil {
		return err
	}

	resp, err := c.send("update task", req, http.StatusAccepted)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
