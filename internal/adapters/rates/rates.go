// Package rates supplies currency conversion rates to the matching engine,
// either from a static config table or fetched from an HTTP rate document.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"
)

// Static is a fixed rate table keyed by "FROM/TO" currency pairs. Its Lookup
// method satisfies matching.RateLookup.
type Static struct {
	table map[string]decimal.Decimal
}

// NewStatic parses config pairs like {"HKD/CNY": "0.9150"}. Keys must be
// FROM/TO with non-empty sides; values must parse as decimals.
func NewStatic(pairs map[string]string) (Static, error) {
	table := make(map[string]decimal.Decimal, len(pairs))
	for key, value := range pairs {
		from, to, ok := splitPair(key)
		if !ok {
			return Static{}, fmt.Errorf("rate key %q: want FROM/TO", key)
		}
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return Static{}, fmt.Errorf("rate %s: %w", key, err)
		}
		if !rate.IsPositive() {
			return Static{}, fmt.Errorf("rate %s: must be positive, got %s", key, rate)
		}
		table[from+"/"+to] = rate
	}
	return Static{table: table}, nil
}

// Lookup returns the rate converting one unit of from into to. Identity
// conversions always succeed; missing pairs fall back to the inverse of the
// opposite direction when that is configured.
func (s Static) Lookup(from, to string) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}
	if rate, ok := s.table[from+"/"+to]; ok {
		return rate, true
	}
	if inverse, ok := s.table[to+"/"+from]; ok && !inverse.IsZero() {
		return decimal.NewFromInt(1).Div(inverse), true
	}
	return decimal.Decimal{}, false
}

func splitPair(key string) (from, to string, ok bool) {
	parts := strings.Split(strings.TrimSpace(key), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// rateDocument is the JSON shape an HTTP rate endpoint serves:
//
//	{"rates": {"HKD/CNY": "0.9150", "USD/CNY": "7.1030"}}
type rateDocument struct {
	Rates map[string]string `json:"rates"`
}

// HTTPSource fetches a rate document over HTTP with retries.
type HTTPSource struct {
	client *retryablehttp.Client
	url    string
}

// NewHTTPSource builds a source for the given endpoint. The logger receives
// retry noise at debug level; nil disables it.
func NewHTTPSource(url string, logger *slog.Logger) *HTTPSource {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 10 * time.Second
	if logger != nil {
		client.Logger = slog.NewLogLogger(logger.Handler(), slog.LevelDebug)
	} else {
		client.Logger = nil
	}
	return &HTTPSource{client: client, url: url}
}

// Fetch downloads and parses the rate document into a Static table.
func (h *HTTPSource) Fetch(ctx context.Context) (Static, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", h.url, nil)
	if err != nil {
		return Static{}, fmt.Errorf("build rate request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return Static{}, fmt.Errorf("fetch rates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != 200 {
		return Static{}, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Static{}, fmt.Errorf("read rate document: %w", err)
	}

	var doc rateDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return Static{}, fmt.Errorf("parse rate document: %w", err)
	}
	return NewStatic(doc.Rates)
}
