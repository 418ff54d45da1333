package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pathfinder/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries a per-request correlation id
const RequestIDHeader = "X-Request-ID"

// Authorizer supplies the bearer token and is told when the server rejects it
type Authorizer interface {
	Token() string
	Expire(reason string)
}

// Client talks to the PathFinder REST API
type Client struct {
	baseURL string
	http    *http.Client
	auth    Authorizer
	logger  *zap.Logger
}

// New creates a client for the API rooted at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// SetAuthorizer sets the token source for authenticated requests
func (c *Client) SetAuthorizer(a Authorizer) {
	c.auth = a
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one API call
type request struct {
	method string
	path   string
	query  url.Values

	// exactly one of jsonBody/formBody may be set
	jsonBody any
	formBody url.Values

	authenticated bool

	// clientErrorKind is the kind reported for 4xx responses other than
	// 401 (authenticated) and 404
	clientErrorKind domain.ErrorKind
	// notFoundKind overrides the kind reported for 404
	notFoundKind domain.ErrorKind
}

// do executes the request and decodes a successful body into out (if non-nil)
func (c *Client) do(ctx context.Context, r request, out any) error {
	var token string
	if r.authenticated {
		if c.auth != nil {
			token = c.auth.Token()
		}
		if token == "" {
			return domain.SessionExpired("not logged in")
		}
	}

	req, err := c.newRequest(ctx, r, token)
	if err != nil {
		return err
	}

	requestID := req.Header.Get(RequestIDHeader)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("method", r.method),
			zap.String("path", r.path),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return domain.NewError(domain.KindFetch, fmt.Sprintf("could not reach %s", c.baseURL)).WithCause(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("response",
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", requestID),
	)

	return c.handleResponse(resp, r, out)
}

func (c *Client) newRequest(ctx context.Context, r request, token string) (*http.Request, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.formBody != nil:
		body = strings.NewReader(r.formBody.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.jsonBody != nil:
		data, err := json.Marshal(r.jsonBody)
		if err != nil {
			return nil, domain.NewError(domain.KindValidation, "could not encode request").WithCause(err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, domain.NewError(domain.KindFetch, "could not build request").WithCause(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// handleResponse applies the uniform status handling
func (c *Client) handleResponse(resp *http.Response, r request, out any) error {
	if resp.StatusCode == http.StatusUnauthorized && r.authenticated {
		detail := readDetail(resp.Body)
		if c.auth != nil {
			c.auth.Expire(detail)
		}
		c.logger.Info("session rejected by server", zap.String("path", r.path))
		return domain.SessionExpired("session expired").WithStatus(resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readDetail(resp.Body)
		if detail == "" {
			detail = fmt.Sprintf("request failed (%d)", resp.StatusCode)
		}
		return domain.NewError(r.kindFor(resp.StatusCode), detail).WithStatus(resp.StatusCode)
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewError(domain.KindFetch, "malformed response from server").
			WithCause(err).
			WithStatus(resp.StatusCode)
	}
	return nil
}

// kindFor maps a failing status to an error kind
func (r request) kindFor(status int) domain.ErrorKind {
	switch {
	case status == http.StatusNotFound && r.notFoundKind != "":
		return r.notFoundKind
	case status == http.StatusNotFound:
		return domain.KindNotFound
	case status >= 400 && status < 500:
		if r.clientErrorKind != "" {
			return r.clientErrorKind
		}
		return domain.KindValidation
	default:
		return domain.KindFetch
	}
}
