// Package api is the console's client for the restaurant REST API.
package api

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

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrUnauthorized is wrapped by every *Error with a 401 or 403 status.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// Message returns the API-provided message carried by err, or fallback when
// there is none (transport failures, empty bodies).
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() (string, bool)
}

// Client talks to the restaurant API. Safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	log    logrus.FieldLogger
}

// New creates a Client rooted at baseURL (for example
// "https://api.example.com/api/").
func New(baseURL string, timeout time.Duration, tokens TokenSource, log logrus.FieldLogger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &Client{
		base:   u,
		http:   &http.Client{Timeout: timeout},
		tokens: tokens,
		log:    log,
	}, nil
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
}

func jsonRequest(method, path string, v any) (request, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return request{}, fmt.Errorf("encode %s body: %w", path, err)
	}
	return request{method: method, path: path, body: bytes.NewReader(b), contentType: "application/json"}, nil
}

// do sends req and decodes a 2xx body into out (when out is non-nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	ref, err := url.Parse(req.path)
	if err != nil {
		return fmt.Errorf("bad path %q: %w", req.path, err)
	}
	target := c.base.ResolveReference(ref)

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), req.body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"method":     req.method,
		"path":       req.path,
		"status":     resp.StatusCode,
		"duration":   time.Since(start),
	}).Debug("api call")

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", req.method, req.path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.method, req.path, err)
	}
	return nil
}

// errorMessage extracts the human-readable message from an error payload.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// decodeList decodes a JSON array element by element. A body that is not an
// array yields an empty list; elements that fail to decode are skipped and
// logged.
func decodeList[T any](log logrus.FieldLogger, what string, raw json.RawMessage) []T {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []T{}
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		log.WithError(err).Warnf("discarding malformed %s list", what)
		return []T{}
	}
	out := make([]T, 0, len(elems))
	for _, e := range elems {
		var v T
		if err := json.Unmarshal(e, &v); err != nil {
			log.WithError(err).Warnf("skipping malformed %s", what)
			continue
		}
		out = append(out, v)
	}
	return out
}
