package vehicles

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pawelptak/EmPeKa/internal/geo"
)

// Client fetches live vehicle positions from the MPK position endpoint.
// Responses are cached per (mode, line) for a short TTL and uncached lines
// are fetched concurrently under a counting semaphore so a burst of arrival
// requests cannot overwhelm the upstream feed.
type Client struct {
	feedURL string
	client  *http.Client
	region  geo.BoundingBox
	ttl     time.Duration
	sem     chan struct{}

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

type cacheKey struct {
	mode Mode
	line string
}

type cacheEntry struct {
	observations []Observation
	fetchedAt    time.Time
}

// NewClient creates a live-position client for the given feed URL
func NewClient(feedURL string, timeout, ttl time.Duration, concurrency int, region geo.BoundingBox) *Client {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Client{
		feedURL: feedURL,
		client: &http.Client{
			Timeout: timeout,
		},
		region: region,
		ttl:    ttl,
		sem:    make(chan struct{}, concurrency),
		cache:  make(map[cacheKey]cacheEntry),
	}
}

// PositionsForLines returns current observations for the given lines.
// Cached lines are served from memory; the rest are fetched concurrently.
// Individual line failures are logged and skipped; an error is returned only
// when every uncached line failed and nothing could be served at all.
func (c *Client) PositionsForLines(ctx context.Context, lines []string, mode Mode) ([]Observation, error) {
	lines = normalizeLines(lines)
	if len(lines) == 0 {
		return nil, nil
	}

	var observations []Observation
	var missing []string

	c.mu.Lock()
	for _, line := range lines {
		entry, ok := c.cache[cacheKey{mode: mode, line: line}]
		if ok && time.Since(entry.fetchedAt) < c.ttl {
			observations = append(observations, entry.observations...)
		} else {
			missing = append(missing, line)
		}
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return observations, nil
	}

	type fetchResult struct {
		line         string
		observations []Observation
		err          error
	}

	results := make(chan fetchResult, len(missing))
	for _, line := range missing {
		go func(line string) {
			select {
			case c.sem <- struct{}{}:
			case <-ctx.Done():
				results <- fetchResult{line: line, err: ctx.Err()}
				return
			}
			defer func() { <-c.sem }()

			obs, err := c.fetchLine(ctx, line, mode)
			results <- fetchResult{line: line, observations: obs, err: err}
		}(line)
	}

	fetched := 0
	var firstErr error
	for range missing {
		res := <-results
		if res.err != nil {
			log.Printf("Vehicles: fetch failed for %s line %s: %v", mode, res.line, res.err)
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		fetched++
		observations = append(observations, res.observations...)

		c.mu.Lock()
		c.cache[cacheKey{mode: mode, line: res.line}] = cacheEntry{
			observations: res.observations,
			fetchedAt:    time.Now(),
		}
		c.mu.Unlock()
	}

	if fetched == 0 && len(observations) == 0 && firstErr != nil {
		return nil, fmt.Errorf("all position fetches failed: %w", firstErr)
	}
	return observations, nil
}

// fetchLine queries the upstream endpoint for a single line
func (c *Client) fetchLine(ctx context.Context, line string, mode Mode) ([]Observation, error) {
	form := url.Values{}
	form.Add(fmt.Sprintf("busList[%s][]", mode), line)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.feedURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed returned %d: %s", resp.StatusCode, string(body))
	}

	// The endpoint answers with a bare array; x is latitude, y is longitude
	var data []struct {
		Name string  `json:"name"`
		Type string  `json:"type"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
		K    int64   `json:"k"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	observedAt := time.Now().UTC()
	var observations []Observation
	for _, v := range data {
		if !c.region.Contains(v.X, v.Y) {
			// (0,0) and other degenerate fixes show up regularly; drop them
			continue
		}
		observations = append(observations, Observation{
			VehicleID:  string(mode) + "-" + strconv.FormatInt(v.K, 10),
			LineName:   strings.ToUpper(v.Name),
			Latitude:   v.X,
			Longitude:  v.Y,
			ObservedAt: observedAt,
		})
	}

	return observations, nil
}

// normalizeLines uppercases and deduplicates the requested line names
func normalizeLines(lines []string) []string {
	seen := make(map[string]bool, len(lines))
	var out []string
	for _, line := range lines {
		line = strings.ToUpper(strings.TrimSpace(line))
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, line)
	}
	return out
}
