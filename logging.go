package main

import (
	"net/http"
	"time"

	"github.com/bigspawn/alter/internal/logger"
)

// loggingRoundTripper logs every AniList round trip at debug level.
type loggingRoundTripper struct {
	base http.RoundTripper
}

func newLoggingRoundTripper(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &loggingRoundTripper{base: base}
}

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if log := logger.FromContext(ctx); log == nil || log.Level() < logger.LevelDebug {
		return l.base.RoundTrip(req)
	}

	logger.DebugHTTP(ctx, "%s %s", req.Method, req.URL)
	start := time.Now()

	resp, err := l.base.RoundTrip(req)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		logger.DebugHTTP(ctx, "%s %s failed: %v (took %v)", req.Method, req.URL, err, elapsed)
		return nil, err
	}

	logger.DebugHTTP(ctx, "%s %s -> %d (took %v)", req.Method, req.URL, resp.StatusCode, elapsed)
	return resp, nil
}
