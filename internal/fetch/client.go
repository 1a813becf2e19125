// Package fetch queries the upstream world search API and returns raw records
// for ingestion.
package fetch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"worldinfo/internal/models"
	"worldinfo/internal/structures"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	DefaultLimit = 50
	userAgent    = "worldinfo/1.0"
	maxBodyBytes = 8 << 20
)

var ErrEmptyQuery = errors.New("either keyword or user id is required")

// UpstreamError is returned for any non-2xx answer of the search API.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Body)
}

type Query struct {
	Keyword string
	UserID  string
	Limit   int
}

type FetcherInterface interface {
	Fetch(ctx context.Context, q Query) ([]models.RawRecord, error)
}

type Client struct {
	baseURL    string
	headers    http.Header
	limit      int
	maxRetries int
	backoff    time.Duration
	limiter    *rate.Limiter
	http       *http.Client
}

// LoadAuthHeaders builds request headers from a session cookie or, when no
// cookie is given, from basic credentials. With neither, only the user agent
// is set.
func LoadAuthHeaders(cookie, username, password string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "application/json")

	switch {
	case cookie != "":
		if !strings.Contains(cookie, "=") {
			cookie = "auth=" + cookie
		}
		h.Set("Cookie", cookie)
	case username != "" && password != "":
		token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		h.Set("Authorization", "Basic "+token)
	}
	return h
}

func NewClient(conf *structures.Config) FetcherInterface {
	timeout := conf.Fetch.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := conf.Fetch.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	// rateLimit is requests per second to the upstream; zero disables throttling
	perSecond := rate.Inf
	if conf.Fetch.RateLimit > 0 {
		perSecond = rate.Limit(conf.Fetch.RateLimit)
	}

	return &Client{
		baseURL:    strings.TrimRight(conf.Fetch.BaseURL, "/"),
		headers:    LoadAuthHeaders(conf.Fetch.Cookie, conf.Fetch.Username, conf.Fetch.Password),
		limit:      limit,
		maxRetries: max(conf.Fetch.MaxRetries, 0),
		backoff:    500 * time.Millisecond,
		limiter:    rate.NewLimiter(perSecond, 1),
		http:       &http.Client{Timeout: timeout},
	}
}

func (c *Client) buildURL(q Query) (string, error) {
	params := url.Values{}
	switch {
	case q.UserID != "":
		params.Set("userId", q.UserID)
	case q.Keyword != "":
		params.Set("search", q.Keyword)
	default:
		return "", ErrEmptyQuery
	}

	limit := q.Limit
	if limit <= 0 {
		limit = c.limit
	}
	params.Set("n", strconv.Itoa(limit))

	return c.baseURL + "/worlds?" + params.Encode(), nil
}

// Fetch runs one search. Every attempt waits for the rate limiter. Server
// errors are retried with a linearly growing delay; client errors are returned
// at once.
func (c *Client) Fetch(ctx context.Context, q Query) ([]models.RawRecord, error) {
	target, err := c.buildURL(q)
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		records, err := c.do(ctx, target, requestID)
		if err == nil {
			return records, nil
		}
		lastErr = err

		var upstream *UpstreamError
		if errors.As(err, &upstream) && upstream.Status < http.StatusInternalServerError {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("fetch failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) do(ctx context.Context, target, requestID string) ([]models.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header = c.headers.Clone()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var records []models.RawRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("unable to decode worlds: %w", err)
	}
	return records, nil
}
