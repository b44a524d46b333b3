package vehicles

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/protobuf/proto"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/pawelptak/EmPeKa/internal/geo"
)

// GTFSRTSource reads a GTFS-Realtime VehiclePositions feed for agencies that
// publish protobuf instead of the MPK JSON endpoint. The whole feed is
// fetched in one request and cached for the TTL, then filtered down to the
// requested line set.
type GTFSRTSource struct {
	feedURL string
	client  *http.Client
	region  geo.BoundingBox
	ttl     time.Duration

	mu           sync.Mutex
	observations []Observation
	fetchedAt    time.Time
}

// NewGTFSRTSource creates a GTFS-RT backed position source
func NewGTFSRTSource(feedURL string, timeout, ttl time.Duration, region geo.BoundingBox) *GTFSRTSource {
	return &GTFSRTSource{
		feedURL: feedURL,
		client: &http.Client{
			Timeout: timeout,
		},
		region: region,
		ttl:    ttl,
	}
}

// PositionsForLines returns observations for vehicles whose line matches one
// of the requested lines, case-insensitively. The mode is not part of the
// filter: route types are not carried by VehiclePositions, and the line sets
// for tram and bus are disjoint in practice.
func (s *GTFSRTSource) PositionsForLines(ctx context.Context, lines []string, mode Mode) ([]Observation, error) {
	lines = normalizeLines(lines)
	if len(lines) == 0 {
		return nil, nil
	}

	all, err := s.feedObservations(ctx)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(lines))
	for _, line := range lines {
		wanted[line] = true
	}

	var observations []Observation
	for _, obs := range all {
		if wanted[obs.LineName] {
			observations = append(observations, obs)
		}
	}
	return observations, nil
}

// feedObservations returns the cached feed contents, refreshing when stale
func (s *GTFSRTSource) feedObservations(ctx context.Context) ([]Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.fetchedAt) < s.ttl && s.observations != nil {
		return s.observations, nil
	}

	feed, err := s.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	fetchedAt := time.Now().UTC()
	var observations []Observation
	for _, entity := range feed.Entity {
		vehicle := entity.Vehicle
		if vehicle == nil || vehicle.Position == nil ||
			vehicle.Position.Latitude == nil || vehicle.Position.Longitude == nil {
			continue
		}

		lat := float64(*vehicle.Position.Latitude)
		lon := float64(*vehicle.Position.Longitude)
		if !s.region.Contains(lat, lon) {
			continue
		}

		var line string
		if vehicle.Trip != nil && vehicle.Trip.RouteId != nil {
			line = *vehicle.Trip.RouteId
		} else if vehicle.Vehicle != nil && vehicle.Vehicle.Label != nil {
			line = *vehicle.Vehicle.Label
		}
		if line == "" {
			continue
		}

		vehicleID := ""
		if vehicle.Vehicle != nil && vehicle.Vehicle.Id != nil {
			vehicleID = *vehicle.Vehicle.Id
		} else if entity.Id != nil {
			vehicleID = "entity:" + *entity.Id
		}
		if vehicleID == "" {
			continue
		}

		observedAt := fetchedAt
		if vehicle.Timestamp != nil {
			observedAt = time.Unix(int64(*vehicle.Timestamp), 0).UTC()
		}

		observations = append(observations, Observation{
			VehicleID:  vehicleID,
			LineName:   strings.ToUpper(line),
			Latitude:   lat,
			Longitude:  lon,
			ObservedAt: observedAt,
		})
	}

	s.observations = observations
	s.fetchedAt = fetchedAt
	return observations, nil
}

// fetchFeed fetches and parses the protobuf feed
func (s *GTFSRTSource) fetchFeed(ctx context.Context) (*gtfsrt.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	feed := &gtfsrt.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("failed to parse protobuf: %w", err)
	}

	return feed, nil
}
