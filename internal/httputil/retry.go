// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil holds the request retry and status handling shared by
// the PubMed and Semantic Scholar sources.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrRateLimited marks a request that still returned HTTP 429 after all retries.
var ErrRateLimited = errors.New("rate limited (HTTP 429)")

// RetryBaseDelay is the first backoff after a 429; each further attempt
// doubles it. Tests shrink it.
var RetryBaseDelay = 5 * time.Second

// MaxRetryAfter caps a server-supplied Retry-After wait.
const MaxRetryAfter = time.Minute

const (
	defaultMaxRetries = 2
	errorBodyLimit    = 512
)

// DoWithRetry sends an idempotent request, retrying on HTTP 429.
//
// The wait before retry n (from 0) is the response's Retry-After seconds
// when present, capped at MaxRetryAfter, else RetryBaseDelay<<n. A
// maxRetries of zero or less means 2. Once retries are exhausted the last
// 429 response is returned unread so CheckStatus can report it. A context
// cancelled while waiting returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, log *zap.Logger) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if log == nil {
		log = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		wait := backoff(attempt, resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		log.Debug("rate limited, backing off",
			zap.String("host", req.URL.Host),
			zap.Duration("backoff", wait),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func backoff(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && secs >= 0 {
		return min(time.Duration(secs)*time.Second, MaxRetryAfter)
	}
	return RetryBaseDelay << attempt
}

// CheckStatus returns nil for HTTP 200. A 429 wraps ErrRateLimited; any
// other status carries the start of the response body.
func CheckStatus(resp *http.Response, api string) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", api, ErrRateLimited)
	}
	msg := fmt.Sprintf("%s returned HTTP %d", api, resp.StatusCode)
	if resp.Body != nil {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		if s := strings.Join(strings.Fields(string(body)), " "); s != "" {
			msg += ": " + s
		}
	}
	return errors.New(msg)
}
