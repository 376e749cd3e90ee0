// Package api is the VidFriends client: it owns the session token through a
// session.Session and exposes one typed method per remote operation.
//
// Every call is a single attempt. There is no retry and no backoff; the
// outcome, success or *Error, is returned to the caller as is.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vidfriends/client/internal/logging"
	"github.com/vidfriends/client/internal/metrics"
	"github.com/vidfriends/client/internal/models"
	"github.com/vidfriends/client/internal/session"
)

const (
	maxResponseBytes = 1 << 20
	userAgent        = "vidfriends-client/1.0"
)

// Client talks to the VidFriends API on behalf of a single session.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
	metrics *metrics.Client
	logger  *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default bounded http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request, including reading the response body.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http = NewHTTPClient(timeout)
	}
}

// WithMetrics records call counts and latencies.
func WithMetrics(m *metrics.Client) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger used when the call context carries none.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a Client for the API rooted at baseURL.
func New(baseURL string, sess *session.Session, opts ...Option) (*Client, error) {
	if sess == nil {
		return nil, errors.New("api: session is required")
	}

	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("api: base url %q must be an absolute http(s) url", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    NewHTTPClient(defaultTimeout),
		session: sess,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Session returns the session the client attaches to requests.
func (c *Client) Session() *session.Session {
	return c.session
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// InitializeSession reads the persisted token once, typically at process
// start, and reports whether a previous login survived the restart.
func (c *Client) InitializeSession(ctx context.Context) (session.Info, error) {
	info, err := c.session.Current(ctx)
	if err != nil {
		return session.Info{}, &Error{Kind: KindUnknown, Operation: "initialize", Message: "read session token", Err: err}
	}
	c.loggerFor(ctx).Debug("session initialized", "state", info.State.String())
	return info, nil
}

// Login exchanges credentials for a token and persists it. Nothing is
// persisted when the call fails.
func (c *Client) Login(ctx context.Context, email, password string) (session.Info, error) {
	var resp models.TokenResponse
	err := c.do(ctx, call{
		op:       "login",
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     models.LoginRequest{Email: email, Password: password},
		out:      &resp,
		validate: func() error { return resp.Validate() },
	})
	if err != nil {
		return session.Info{}, err
	}
	return c.establish(ctx, "login", resp.AccessToken)
}

// Signup registers an account. The session only changes when the server
// answers with a token of its own.
func (c *Client) Signup(ctx context.Context, name, email, password string) (models.SignupResult, error) {
	var resp struct {
		models.MessageResponse
		models.TokenResponse
	}
	err := c.do(ctx, call{
		op:         "signup",
		method:     http.MethodPost,
		path:       "/auth/signup",
		body:       models.SignupRequest{Name: name, Email: email, Password: password},
		out:        &resp,
		allowEmpty: true,
	})
	if err != nil {
		return models.SignupResult{}, err
	}

	result := models.SignupResult{Message: resp.Message}
	if resp.AccessToken != "" {
		if _, err := c.establish(ctx, "signup", resp.AccessToken); err != nil {
			return models.SignupResult{}, err
		}
		result.Authenticated = true
	}
	return result, nil
}

// Profile fetches the authenticated user's account.
func (c *Client) Profile(ctx context.Context) (models.Profile, error) {
	var profile models.Profile
	err := c.do(ctx, call{
		op:       "profile",
		method:   http.MethodGet,
		path:     "/auth/me",
		out:      &profile,
		validate: func() error { return profile.Validate() },
	})
	if err != nil {
		return models.Profile{}, err
	}
	return profile, nil
}

// Dashboard lists the videos available to the user in server order.
func (c *Client) Dashboard(ctx context.Context) ([]models.VideoSummary, error) {
	var videos []models.VideoSummary
	err := c.do(ctx, call{
		op:     "dashboard",
		method: http.MethodGet,
		path:   "/dashboard",
		out:    &videos,
		validate: func() error {
			if videos == nil {
				return errors.New("expected a JSON array")
			}
			for i, v := range videos {
				if err := v.Validate(); err != nil {
					return fmt.Errorf("video %d: %w", i, err)
				}
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return videos, nil
}

// Video fetches a single video including its opaque embeddable URL.
func (c *Client) Video(ctx context.Context, id string) (models.VideoDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" || id == "." || id == ".." {
		return models.VideoDetail{}, &Error{Kind: KindValidation, Operation: "video", Message: "video id is required"}
	}

	var detail models.VideoDetail
	err := c.do(ctx, call{
		op:       "video",
		method:   http.MethodGet,
		path:     "/video/" + url.PathEscape(id),
		out:      &detail,
		validate: func() error { return detail.Validate() },
	})
	if err != nil {
		return models.VideoDetail{}, err
	}
	return detail, nil
}

// Logout forgets the persisted token. It never contacts the server and may be
// called any number of times.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.session.End(ctx); err != nil {
		return &Error{Kind: KindUnknown, Operation: "logout", Message: "clear session token", Err: err}
	}
	c.loggerFor(ctx).Debug("session cleared")
	return nil
}

func (c *Client) establish(ctx context.Context, op, token string) (session.Info, error) {
	info, err := c.session.Establish(ctx, token)
	if err != nil {
		return session.Info{}, &Error{Kind: KindUnknown, Operation: op, Message: "persist session token", Err: err}
	}
	return info, nil
}

type call struct {
	op     string
	method string
	path   string
	body   any
	out    any
	// validate runs after a successful decode; failures are shape mismatches.
	validate func() error
	// allowEmpty accepts a 2xx response without a body.
	allowEmpty bool
}

func (c *Client) do(ctx context.Context, cl call) (err error) {
	ctx = logging.WithLogger(ctx, c.loggerFor(ctx))
	ctx, span := logging.StartSpan(ctx, "api."+cl.op)
	defer func() {
		c.metrics.Observe(cl.op, outcome(err), span.Elapsed())
		span.End(err)
	}()

	var payload io.Reader
	if cl.body != nil {
		buf, err := json.Marshal(cl.body)
		if err != nil {
			return &Error{Kind: KindValidation, Operation: cl.op, Message: "encode request body", Err: err}
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, payload)
	if err != nil {
		return &Error{Kind: KindUnknown, Operation: cl.op, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if traceID := logging.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Request-ID", traceID)
	}

	// Read the slot right before sending so the newest token always wins.
	token, err := c.session.Token(ctx)
	if err != nil {
		return &Error{Kind: KindUnknown, Operation: cl.op, Message: "read session token", Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	span.Annotate("method", cl.method, "path", cl.path, "authenticated", token != "")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Operation: cl.op, Message: fallbackMessage(KindNetwork), Err: err}
	}
	defer resp.Body.Close()
	span.Annotate("status", resp.StatusCode)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return &Error{Kind: KindNetwork, Operation: cl.op, Status: resp.StatusCode, Message: "response interrupted", Err: err}
	}
	if len(data) > maxResponseBytes {
		return &Error{Kind: KindUnknown, Operation: cl.op, Status: resp.StatusCode, Message: "response too large"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := kindForStatus(resp.StatusCode)
		return &Error{Kind: kind, Operation: cl.op, Status: resp.StatusCode, Message: serverMessage(data, kind)}
	}

	if cl.out == nil || (cl.allowEmpty && len(bytes.TrimSpace(data)) == 0) {
		return nil
	}
	if err := json.Unmarshal(data, cl.out); err != nil {
		return &Error{Kind: KindUnknown, Operation: cl.op, Status: resp.StatusCode, Message: "malformed response body", Err: err}
	}
	if cl.validate != nil {
		if err := cl.validate(); err != nil {
			return &Error{Kind: KindUnknown, Operation: cl.op, Status: resp.StatusCode, Message: "unexpected response shape", Err: err}
		}
	}
	return nil
}

func (c *Client) loggerFor(ctx context.Context) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == slog.Default() {
		return c.logger
	}
	return logger
}

// serverMessage extracts the explanation the API put in an error body.
func serverMessage(data []byte, kind Kind) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		for _, msg := range []string{body.Error, body.Message, body.Msg} {
			if msg = strings.TrimSpace(msg); msg != "" {
				return msg
			}
		}
	}
	return fallbackMessage(kind)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return KindOf(err).String()
}
