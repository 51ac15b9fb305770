// Package neo4j executes statements against the transactional HTTP endpoint
// of a Neo4j server and returns results in graph representation.
package neo4j

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cicdguard/backend/pkg/common"
	"github.com/cicdguard/backend/pkg/cypher"
	"github.com/cicdguard/backend/pkg/logger"

	"golang.org/x/sync/semaphore"
)

const commitPath = "/db/data/transaction/commit"

// Client is a transport.Transport backed by the Neo4j HTTP API.
type Client struct {
	endpoint   string
	httpClient *http.Client
	reqLock    *semaphore.Weighted
}

// NewClientParams contains configuration for creating a Client.
//
// MaxConcurrentRequests bounds in-flight requests and defaults to 8.
// Timeout defaults to 30 seconds.
type NewClientParams struct {
	BaseURL  string
	User     string
	Password string

	Timeout               time.Duration
	MaxConcurrentRequests int64
	RoundTripper          http.RoundTripper
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewClient creates a Client for the server at params.BaseURL.
func NewClient(params NewClientParams) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(params.BaseURL, "/"))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("neo4j base url %q must be absolute", params.BaseURL)
	}

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRequests := params.MaxConcurrentRequests
	if maxRequests <= 0 {
		maxRequests = 8
	}
	rt := params.RoundTripper
	if rt == nil {
		rt = http.DefaultTransport
	}

	headers := map[string]string{
		"Accept":       "application/json; charset=UTF-8",
		"Content-Type": "application/json",
	}
	if params.User != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(params.User + ":" + params.Password))
		headers["Authorization"] = "Basic " + credentials
	}

	return &Client{
		endpoint: u.String() + commitPath,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &headerTransport{headers: headers, rt: rt},
		},
		reqLock: semaphore.NewWeighted(maxRequests),
	}, nil
}

type requestStatement struct {
	Statement          string         `json:"statement"`
	Parameters         map[string]any `json:"parameters,omitempty"`
	ResultDataContents []string       `json:"resultDataContents"`
	IncludeStats       bool           `json:"includeStats"`
}

type requestBody struct {
	Statements []requestStatement `json:"statements"`
}

// Execute posts stmt in a single auto-committed transaction.
func (c *Client) Execute(ctx context.Context, stmt cypher.Statement) (*common.Envelope, error) {
	body, err := json.Marshal(requestBody{Statements: []requestStatement{{
		Statement:          stmt.Text,
		Parameters:         stmt.Parameters,
		ResultDataContents: []string{"graph"},
		IncludeStats:       false,
	}}})
	if err != nil {
		return nil, err
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.reqLock.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &common.TransportError{Err: err}
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &common.TransportError{StatusCode: res.StatusCode, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &common.TransportError{
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("%s", truncate(strings.TrimSpace(string(payload)), 200)),
		}
	}

	var env common.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, &common.DataShapeError{Path: "$", Reason: err.Error()}
	}
	if len(env.Errors) > 0 {
		return nil, &common.QueryFailedError{Statement: stmt.Text, Errors: env.Errors}
	}

	logger.Debug("[Neo4j] Statement executed", "results", len(env.Results), "duration", time.Since(start))

	return &env, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
