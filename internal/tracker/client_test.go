// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/journal-scout/pkg/types"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := NewClient(types.TrackerConfig{URL: ts.URL, Key: "secret", Timeout: 5 * time.Second}, nil)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresConfig(t *testing.T) {
	_, err := NewClient(types.TrackerConfig{URL: "https://tracker.example"}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClient(types.TrackerConfig{Key: "k"}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCreateReport(t *testing.T) {
	var (
		method, path, key, ctype string
		body                     map[string]any
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		key, ctype = r.Header.Get("x-api-key"), r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &body))
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"rep-1","title":"ignored"}`)
	})

	count := 42
	rep := &types.ParsedReport{
		ReportDocument: types.ReportDocument{Title: "Weekly", SourceType: types.SourceJournal, DeclaredItemCount: &count},
		Content:        "# Weekly",
	}
	date := time.Date(2026, 3, 15, 8, 30, 0, 0, time.FixedZone("EST", -5*3600))

	id, err := c.CreateReport(context.Background(), NewReportPayload(rep, date, "reports/journal-report-2026-03-15.md"))
	require.NoError(t, err)
	assert.Equal(t, "rep-1", id)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/api/reports", path)
	assert.Equal(t, "secret", key)
	assert.Equal(t, "application/json", ctype)
	assert.Equal(t, map[string]any{
		"source":     "journal",
		"date":       "2026-03-15T13:30:00.000Z",
		"title":      "Weekly",
		"content":    "# Weekly",
		"tweetCount": float64(42),
		"filePath":   "reports/journal-report-2026-03-15.md",
	}, body)
}

func TestCreateReportNullCount(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		io.WriteString(w, `{"id":7}`)
	})

	rep := &types.ParsedReport{ReportDocument: types.ReportDocument{Title: "T", SourceType: types.SourceTwitter}}
	id, err := c.CreateReport(context.Background(), NewReportPayload(rep, time.Now(), ""))
	require.NoError(t, err)
	assert.Equal(t, "7", id, "numeric ids are accepted")

	v, ok := body["tweetCount"]
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.NotContains(t, body, "filePath")
}

func TestCreateOpportunity(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/opportunities", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"opp-9"}`)
	})

	o := types.OpportunityCandidate{Title: "Widget", Description: "desc", SourceType: types.SourceTwitter, Priority: types.PriorityBuildNow}
	id, err := c.CreateOpportunity(context.Background(), NewOpportunityPayload(o, "rep-1"))
	require.NoError(t, err)
	assert.Equal(t, "opp-9", id)
	assert.Equal(t, map[string]any{
		"title":       "Widget",
		"description": "desc",
		"source":      "twitter",
		"priority":    "build_now",
		"reportId":    "rep-1",
	}, body)
}

func TestClientAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"Unauthorized"}`+"\n")
	})

	_, err := c.CreateOpportunity(context.Background(), OpportunityPayload{Title: "x", Priority: types.PriorityBacklog, ReportID: "r"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, `{"error":"Unauthorized"}`, apiErr.Body)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestClientValidatesPayloads(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		io.WriteString(w, `{"id":"x"}`)
	})
	ctx := context.Background()

	_, err := c.CreateReport(ctx, ReportPayload{Source: "reddit", Date: "2026-03-15T00:00:00.000Z", Title: "T"})
	assert.ErrorContains(t, err, "invalid report payload")

	_, err = c.CreateReport(ctx, ReportPayload{Source: types.SourceJournal, Date: "2026-03-15T00:00:00.000Z"})
	assert.ErrorContains(t, err, "invalid report payload")

	_, err = c.CreateOpportunity(ctx, OpportunityPayload{Title: "T", Priority: types.PriorityBacklog})
	assert.ErrorContains(t, err, "invalid opportunity payload")

	_, err = c.CreateOpportunity(ctx, OpportunityPayload{Title: "T", Priority: "medium", ReportID: "r"})
	assert.ErrorContains(t, err, "invalid opportunity payload")

	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestClientRejectsResponseWithoutID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"title":"no id"}`)
	})
	_, err := c.CreateOpportunity(context.Background(), OpportunityPayload{Title: "x", Priority: types.PriorityBacklog, ReportID: "r"})
	assert.ErrorContains(t, err, "no id")
}

func TestRecordIDUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    RecordID
		wantErr bool
	}{
		{`"abc"`, "abc", false},
		{`12`, "12", false},
		{`1.5e3`, "1.5e3", false},
		{`null`, "", false},
		{`{"a":1}`, "", true},
		{`true`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var id RecordID
			err := json.Unmarshal([]byte(tt.in), &id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}
