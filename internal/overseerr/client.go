// Package overseerr is an HTTP client for the Overseerr (and Jellyseerr)
// media-request API.
package overseerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhomen368/overseerr-mcp/internal/config"
	"github.com/jhomen368/overseerr-mcp/internal/media"
)

var (
	ErrNotConfigured     = errors.New("overseerr url or api key is not configured")
	ErrInvalidMediaType  = errors.New("invalid media type")
	ErrUnexpectedPayload = errors.New("unexpected response payload")
)

// APIError is a non-2xx response from Overseerr.
type APIError struct {
	Op         string `json:"op"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("overseerr %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("overseerr %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Retryable reports whether repeating the call may succeed.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// HTTPStatus returns the upstream status code.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// IsNotFound reports a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err is a 404 from Overseerr.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

// Client talks to the Overseerr v1 API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     zerolog.Logger
}

var _ media.Client = (*Client)(nil)

// NewClient creates a new Overseerr client.
func NewClient(cfg config.OverseerrConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
		baseURL: strings.TrimRight(cfg.URL, "/") + "/api/v1",
		apiKey:  cfg.APIKey,
		logger:  logger.With().Str("component", "overseerr").Logger(),
	}
}

// IsConfigured returns true if a URL and API key are set.
func (c *Client) IsConfigured() bool {
	return c.baseURL != "/api/v1" && c.apiKey != ""
}

// Status fetches the server version. Used for health checks.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.do(ctx, "status", http.MethodGet, "/status", "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search runs a multi search across movies, series and people.
func (c *Client) Search(ctx context.Context, query string, page int, language string) (*media.SearchPage, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	if language != "" {
		params.Set("language", language)
	}

	// Overseerr rejects "+" for spaces in the query parameter.
	rawQuery := "query=" + strings.ReplaceAll(url.QueryEscape(query), "+", "%20") + "&" + params.Encode()

	var resp SearchResponse
	if err := c.do(ctx, "search", http.MethodGet, "/search", rawQuery, nil, &resp); err != nil {
		return nil, err
	}

	out := &media.SearchPage{
		Page:         resp.Page,
		TotalPages:   resp.TotalPages,
		TotalResults: resp.TotalResults,
		Results:      make([]media.SearchCandidate, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, r.toCandidate())
	}

	c.logger.Debug().
		Str("query", query).
		Int("page", page).
		Int("results", len(out.Results)).
		Msg("Search completed")

	return out, nil
}

// FetchDetails gets movie or series metadata plus Overseerr's library info.
func (c *Client) FetchDetails(ctx context.Context, mediaType media.MediaType, id int, language string) (*media.MediaDetails, error) {
	var rawQuery string
	if language != "" {
		rawQuery = url.Values{"language": {language}}.Encode()
	}

	switch mediaType {
	case media.MediaTypeMovie:
		var m MovieDetails
		if err := c.do(ctx, "movie details", http.MethodGet, fmt.Sprintf("/movie/%d", id), rawQuery, nil, &m); err != nil {
			return nil, err
		}
		return m.toDetails(), nil
	case media.MediaTypeTV:
		var t TVDetails
		if err := c.do(ctx, "tv details", http.MethodGet, fmt.Sprintf("/tv/%d", id), rawQuery, nil, &t); err != nil {
			return nil, err
		}
		return t.toDetails(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMediaType, mediaType)
	}
}

// CreateRequest submits a new request.
func (c *Client) CreateRequest(ctx context.Context, body media.RequestBody) (*media.RequestRef, error) {
	var r Request
	if err := c.do(ctx, "create request", http.MethodPost, "/request", "", body, &r); err != nil {
		return nil, err
	}
	ref := r.toRef()
	if ref.MediaType == "" {
		ref.MediaType = body.MediaType
	}
	if ref.TmdbID == 0 {
		ref.TmdbID = body.MediaID
	}

	c.logger.Info().
		Int("requestId", ref.ID).
		Str("mediaType", string(body.MediaType)).
		Int("mediaId", body.MediaID).
		Ints("seasons", body.Seasons).
		Msg("Request created")

	return &ref, nil
}

// GetRequest fetches one request.
func (c *Client) GetRequest(ctx context.Context, id int) (*media.RequestRef, error) {
	var r Request
	if err := c.do(ctx, "get request", http.MethodGet, fmt.Sprintf("/request/%d", id), "", nil, &r); err != nil {
		return nil, err
	}
	ref := r.toRef()
	return &ref, nil
}

// ListRequests lists requests with paging and filtering.
func (c *Client) ListRequests(ctx context.Context, p media.ListParams) (*media.RequestPage, error) {
	params := url.Values{}
	if p.Take > 0 {
		params.Set("take", strconv.Itoa(p.Take))
	}
	if p.Skip > 0 {
		params.Set("skip", strconv.Itoa(p.Skip))
	}
	if p.Filter != "" {
		params.Set("filter", p.Filter)
	}
	if p.Sort != "" {
		params.Set("sort", p.Sort)
	}

	var resp RequestsResponse
	if err := c.do(ctx, "list requests", http.MethodGet, "/request", params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	page := &media.RequestPage{
		PageInfo: media.PageInfo{
			Page:     resp.PageInfo.Page,
			Pages:    resp.PageInfo.Pages,
			PageSize: resp.PageInfo.PageSize,
			Results:  resp.PageInfo.Results,
		},
		Results: make([]media.RequestRef, 0, len(resp.Results)),
	}
	for _, r := range resp.Results {
		page.Results = append(page.Results, r.toRef())
	}
	return page, nil
}

// ApproveRequest approves a pending request.
func (c *Client) ApproveRequest(ctx context.Context, id int) (*media.RequestRef, error) {
	return c.updateStatus(ctx, id, "approve")
}

// DeclineRequest declines a pending request.
func (c *Client) DeclineRequest(ctx context.Context, id int) (*media.RequestRef, error) {
	return c.updateStatus(ctx, id, "decline")
}

func (c *Client) updateStatus(ctx context.Context, id int, action string) (*media.RequestRef, error) {
	var r Request
	if err := c.do(ctx, action+" request", http.MethodPost, fmt.Sprintf("/request/%d/%s", id, action), "", nil, &r); err != nil {
		return nil, err
	}
	ref := r.toRef()

	c.logger.Info().Int("requestId", id).Str("action", action).Msg("Request status updated")

	return &ref, nil
}

// DeleteRequest deletes a request.
func (c *Client) DeleteRequest(ctx context.Context, id int) error {
	if err := c.do(ctx, "delete request", http.MethodDelete, fmt.Sprintf("/request/%d", id), "", nil, nil); err != nil {
		return err
	}
	c.logger.Info().Int("requestId", id).Msg("Request deleted")
	return nil
}

// do performs a request. rawQuery is an encoded query string; a nil result
// discards the response body.
func (c *Client) do(ctx context.Context, op, method, path, rawQuery string, body any, result any) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	reqURL := c.baseURL + path
	if rawQuery != "" {
		reqURL += "?" + rawQuery
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("op", op).Str("path", path).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Op: op, StatusCode: resp.StatusCode}
		var errResp ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if json.Unmarshal(data, &errResp) == nil && errResp.Message != "" {
			apiErr.Message = errResp.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}

		event := c.logger.Warn()
		if apiErr.Retryable() {
			event = c.logger.Error()
		}
		event.
			Str("op", op).
			Int("status", resp.StatusCode).
			Str("message", apiErr.Message).
			Msg("Overseerr API error")

		return apiErr
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnexpectedPayload, op, err)
	}

	return nil
}
