package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/hydrai/cli/internal/auth"
)

const (
	DefaultBaseURL = "http://localhost:8000/api"
	DefaultTimeout = 5 * time.Second
	UserAgent      = "HydrAI-CLI/1.0"

	LoginPath      = "/login"
	RegisterPath   = "/register"
	FlowMetersPath = "/caudalimetros"
	AnalysisPath   = "/analisis"
)

// Client is the authenticated request pipeline to the HydrAI backend.
//
// Every outgoing request passes through decorate, which attaches the stored
// token as a bearer credential when one exists and leaves the request
// unauthenticated otherwise. Whether an endpoint requires authentication is
// left to the backend.
type Client struct {
	BaseURL string

	http     *resty.Client
	store    auth.Store
	inflight singleflight.Group
}

// New creates a Client with its own resty client
func New(baseURL string, timeout time.Duration, store auth.Store) *Client {
	return NewWithClient(resty.New(), baseURL, timeout, store)
}

// NewWithClient creates a Client on top of an existing resty client. The
// resty client is configured in place and may be shared by several Clients;
// each one only decorates the requests it builds itself.
func NewWithClient(rc *resty.Client, baseURL string, timeout time.Duration, store auth.Store) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		BaseURL: baseURL,
		http:    rc,
		store:   store,
	}

	rc.SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		OnBeforeRequest(c.decorate)

	return c
}

// Store returns the credential store the client reads tokens from
func (c *Client) Store() auth.Store {
	return c.store
}

type ownerKey struct{}

// request starts a request owned by c
func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(context.WithValue(ctx, ownerKey{}, c))
}

// decorate runs before every request sent through the resty client
func (c *Client) decorate(_ *resty.Client, req *resty.Request) error {
	if owner, _ := req.Context().Value(ownerKey{}).(*Client); owner != c {
		return nil
	}

	token, err := c.store.Get()
	if err != nil {
		// Sending without a token that may exist would break the pipeline contract
		return err
	}

	if token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	} else {
		req.Header.Del("Authorization")
	}
	req.SetHeader("User-Agent", UserAgent)
	req.SetHeader("X-Request-ID", uuid.NewString())

	slog.Debug(req.Method, "url", c.BaseURL+req.URL, "authenticated", token != "")
	return nil
}

// Login exchanges username and password for an access token and stores it
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	slog.Debug("logging in", "username", username, "password", "[REDACTED]")

	resp, err := c.request(ctx).
		SetBody(&Credentials{Username: username, Password: password}).
		Post(LoginPath)
	if err != nil {
		var storageErr *auth.StorageError
		if errors.As(err, &storageErr) {
			return "", storageErr
		}
		slog.Error("could not login", "error", err)
		return "", &AuthError{Message: DefaultAuthMessage, Err: err}
	}

	if !resp.IsSuccess() {
		msg := detailMessage(resp.Body())
		if msg == "" {
			msg = DefaultAuthMessage
		}
		slog.Debug("login rejected", "status", resp.StatusCode(), "detail", msg)
		return "", &AuthError{StatusCode: resp.StatusCode(), Message: msg}
	}

	var token TokenResponse
	if err := json.Unmarshal(resp.Body(), &token); err != nil {
		return "", &AuthError{
			StatusCode: resp.StatusCode(),
			Message:    DefaultAuthMessage,
			Err:        errors.Wrap(err, "failed to parse login response"),
		}
	}

	if token.AccessToken == "" {
		slog.Error("empty token returned")
		return "", &AuthError{
			StatusCode: resp.StatusCode(),
			Message:    DefaultAuthMessage,
			Err:        errors.New("empty token returned"),
		}
	}

	if err := c.store.Set(token.AccessToken); err != nil {
		return "", err
	}

	slog.Info("login succeeded", "username", username)
	return token.AccessToken, nil
}

// Register creates a backend account. The backend takes the credentials as query parameters.
func (c *Client) Register(ctx context.Context, username, password string) (*RegisterResult, error) {
	slog.Debug("registering", "username", username, "password", "[REDACTED]")

	resp, err := c.request(ctx).
		SetQueryParams(map[string]string{"username": username, "password": password}).
		Post(RegisterPath)
	if err != nil {
		var storageErr *auth.StorageError
		if errors.As(err, &storageErr) {
			return nil, storageErr
		}
		return nil, &AuthError{Message: "registration failed", Err: err}
	}

	if !resp.IsSuccess() {
		msg := detailMessage(resp.Body())
		if msg == "" {
			msg = "registration failed"
		}
		return nil, &AuthError{StatusCode: resp.StatusCode(), Message: msg}
	}

	var result RegisterResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, &AuthError{
			StatusCode: resp.StatusCode(),
			Message:    "registration failed",
			Err:        errors.Wrap(err, "failed to parse register response"),
		}
	}
	return &result, nil
}

// ListFlowMeters retrieves every flow meter visible to the current session
func (c *Client) ListFlowMeters(ctx context.Context) ([]FlowMeter, error) {
	const op = "list flow meters"

	v, shared, err := c.shared(ctx, op, http.MethodGet+" "+FlowMetersPath, func(ctx context.Context) (interface{}, error) {
		body, err := c.do(ctx, op, http.MethodGet, FlowMetersPath, nil)
		if err != nil {
			return nil, err
		}

		if err := validateFlowMeters(body); err != nil {
			return nil, &FetchError{Op: op, StatusCode: http.StatusOK, Message: "unexpected response from backend", Err: err}
		}

		var meters []FlowMeter
		if err := json.Unmarshal(body, &meters); err != nil {
			return nil, &FetchError{Op: op, StatusCode: http.StatusOK, Message: "failed to parse response", Err: err}
		}
		return meters, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("coalesced duplicate request", "op", op)
	}

	return cloneFlowMeters(v.([]FlowMeter)), nil
}

// RequestAnalysis asks the backend for recommendations for a user. The
// result is returned as sent by the backend.
func (c *Client) RequestAnalysis(ctx context.Context, userID string) (json.RawMessage, error) {
	const op = "request analysis"

	if userID == "" {
		return nil, errors.New("user id is required")
	}

	v, _, err := c.shared(ctx, op, http.MethodPost+" "+AnalysisPath+" "+userID, func(ctx context.Context) (interface{}, error) {
		return c.do(ctx, op, http.MethodPost, AnalysisPath, &AnalysisRequest{UserID: userID})
	})
	if err != nil {
		return nil, err
	}

	return json.RawMessage(slices.Clone(v.([]byte))), nil
}

// shared runs fn once for all concurrent callers using the same key. The
// shared call is detached from any single caller's cancellation; each caller
// stops waiting when its own ctx is done.
func (c *Client) shared(ctx context.Context, op, key string, fn func(context.Context) (interface{}, error)) (interface{}, bool, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(key, func() (interface{}, error) {
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		return nil, false, &FetchError{Op: op, Message: ctx.Err().Error(), Err: ctx.Err()}
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	}
}

// cloneFlowMeters copies meters down to their measurements, so callers that
// shared a request never alias each other's data.
func cloneFlowMeters(meters []FlowMeter) []FlowMeter {
	out := make([]FlowMeter, len(meters))
	for i, m := range meters {
		out[i] = m
		if m.Measurements == nil {
			continue
		}
		out[i].Measurements = make([]Measurement, len(m.Measurements))
		for j, ms := range m.Measurements {
			if ms.Temperature != nil {
				t := *ms.Temperature
				ms.Temperature = &t
			}
			out[i].Measurements[j] = ms
		}
	}
	return out
}

// do performs a request and turns every failure into a FetchError
func (c *Client) do(ctx context.Context, op, method, path string, body interface{}) ([]byte, error) {
	req := c.request(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		slog.Error("request failed", "op", op, "error", err)
		return nil, &FetchError{Op: op, Message: err.Error(), Err: err}
	}

	if !resp.IsSuccess() {
		slog.Debug("request rejected", "op", op, "status", resp.StatusCode())
		return nil, &FetchError{Op: op, StatusCode: resp.StatusCode(), Message: statusMessage(resp.StatusCode(), resp.Body())}
	}

	return resp.Body(), nil
}
