// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil holds the HTTP plumbing shared by the search backends
// and the extraction client: 429 backoff, per-backend throttling, and
// status errors that name the failing service.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pdiddy/discovery-engine/internal/logging"
)

// RetryBaseDelay is the first backoff after a 429. Each later attempt
// doubles it. Tests shrink it.
var RetryBaseDelay = 2 * time.Second

// maxRetryAfter caps a server-supplied Retry-After.
const maxRetryAfter = 30 * time.Second

const defaultMaxRetries = 3

// DoWithRetry sends req and resends it while the service answers 429.
// Adapters pass 0 for maxRetries to get the default of 3.
//
// The wait before attempt n is RetryBaseDelay*2^n unless the response
// carries a Retry-After in seconds, which wins up to maxRetryAfter. Once
// retries are spent the final 429 is returned for CheckStatus to report.
// Cancelling ctx during a wait returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
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
		logging.New("httputil").Debug("rate limited",
			"host", req.URL.Host, "wait", wait, "attempt", attempt+1, "max", maxRetries)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func backoff(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		return min(time.Duration(secs)*time.Second, maxRetryAfter)
	}
	return RetryBaseDelay << attempt
}
