// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tracker pushes parsed reports and their opportunities to the
// scout tracker API and keeps a local SQLite ledger of sync attempts.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pdiddy/journal-scout/pkg/types"
)

// API routes, resolved against the tracker's base URL.
const (
	reportsPath       = "/api/reports"
	opportunitiesPath = "/api/opportunities"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 << 10

// isoMillis matches the timestamp layout the tracker stores.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// ErrNotConfigured is returned by NewClient without a URL and key.
var ErrNotConfigured = errors.New("tracker URL and key are required")

// APIError is a non-2xx response from the tracker.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("tracker returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("tracker returned HTTP %d: %s", e.StatusCode, e.Body)
}

// ReportPayload is the body of POST /api/reports.
type ReportPayload struct {
	Source     types.SourceType `json:"source" validate:"required,oneof=journal podcast twitter discord"`
	Date       string           `json:"date" validate:"required"`
	Title      string           `json:"title" validate:"required"`
	Content    string           `json:"content"`
	TweetCount *int             `json:"tweetCount"`
	FilePath   string           `json:"filePath,omitempty"`
}

// NewReportPayload builds the report body for rep.
func NewReportPayload(rep *types.ParsedReport, date time.Time, filePath string) ReportPayload {
	return ReportPayload{
		Source:     rep.SourceType,
		Date:       date.UTC().Format(isoMillis),
		Title:      rep.Title,
		Content:    rep.Content,
		TweetCount: rep.DeclaredItemCount,
		FilePath:   filePath,
	}
}

// OpportunityPayload is the body of POST /api/opportunities.
type OpportunityPayload struct {
	Title       string             `json:"title" validate:"required"`
	Description string             `json:"description"`
	Source      types.SourceType   `json:"source"`
	Priority    types.PriorityTier `json:"priority" validate:"required,oneof=build_now backlog monitor skip"`
	ReportID    string             `json:"reportId" validate:"required"`
}

// NewOpportunityPayload builds the opportunity body linked to reportID.
func NewOpportunityPayload(o types.OpportunityCandidate, reportID string) OpportunityPayload {
	return OpportunityPayload{
		Title:       o.Title,
		Description: o.Description,
		Source:      o.SourceType,
		Priority:    o.Priority,
		ReportID:    reportID,
	}
}

// RecordID is a tracker record id. The API returns it as a string or a
// number depending on the backing store.
type RecordID string

// UnmarshalJSON accepts both string and numeric ids.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("record id must be a string or number, got %s", data)
	}
	*id = RecordID(n.String())
	return nil
}

type createdRecord struct {
	ID RecordID `json:"id"`
}

// Client talks to the tracker API.
type Client struct {
	base     *url.URL
	key      string
	http     *http.Client
	validate *validator.Validate
	log      *zap.Logger
}

// NewClient returns a Client for cfg.
func NewClient(cfg types.TrackerConfig, log *zap.Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing tracker URL: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base:     base,
		key:      cfg.Key,
		http:     &http.Client{Timeout: timeout},
		validate: validator.New(),
		log:      log,
	}, nil
}

// CreateReport creates a report record and returns its id.
func (c *Client) CreateReport(ctx context.Context, p ReportPayload) (string, error) {
	if err := c.validate.Struct(p); err != nil {
		return "", fmt.Errorf("invalid report payload: %w", err)
	}
	return c.post(ctx, reportsPath, p)
}

// CreateOpportunity creates an opportunity record and returns its id.
func (c *Client) CreateOpportunity(ctx context.Context, p OpportunityPayload) (string, error) {
	if err := c.validate.Struct(p); err != nil {
		return "", fmt.Errorf("invalid opportunity payload: %w", err)
	}
	return c.post(ctx, opportunitiesPath, p)
}

func (c *Client) post(ctx context.Context, path string, body any) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	endpoint := c.base.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	var rec createdRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return "", fmt.Errorf("decoding %s response: %w", path, err)
	}
	if rec.ID == "" {
		return "", fmt.Errorf("%s response has no id", path)
	}
	c.log.Debug("tracker record created", zap.String("path", path), zap.String("id", string(rec.ID)))
	return string(rec.ID), nil
}
