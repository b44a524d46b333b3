package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Heuristics are the tunable constants of the arrival estimation engine.
// The defaults were tuned for the Wrocław tram/bus network; other cities
// should override them through a heuristics file rather than code changes.
type Heuristics struct {
	// Vehicle matching
	TramMatchRadiusMeters float64 `yaml:"tramMatchRadiusMeters" validate:"gt=0"`
	BusMatchRadiusMeters  float64 `yaml:"busMatchRadiusMeters" validate:"gt=0"`

	// Approach detection
	StaleFixSeconds           float64 `yaml:"staleFixSeconds" validate:"gt=0"`
	ApproachToleranceMeters   float64 `yaml:"approachToleranceMeters" validate:"gte=0"`
	NearStopRadiusMeters      float64 `yaml:"nearStopRadiusMeters" validate:"gte=0"`
	NearStopMinProgressMeters float64 `yaml:"nearStopMinProgressMeters" validate:"gte=0"`
	MinApproachRateMPS        float64 `yaml:"minApproachRateMPS" validate:"gt=0"`

	// ETA fusion
	ImminentDistanceMeters    float64 `yaml:"imminentDistanceMeters" validate:"gt=0"`
	ImminentScheduleMinutes   int     `yaml:"imminentScheduleMinutes" validate:"gte=0"`
	RealtimeMaxDistanceMeters float64 `yaml:"realtimeMaxDistanceMeters" validate:"gt=0"`
	AverageSpeedMPS           float64 `yaml:"averageSpeedMPS" validate:"gt=0"`
	ToleranceMinutes          int     `yaml:"toleranceMinutes" validate:"gt=0"`

	// Candidate window
	GraceWindowMinutes int `yaml:"graceWindowMinutes" validate:"gte=0"`
	CandidateLimit     int `yaml:"candidateLimit" validate:"gt=0"`
	DefaultCount       int `yaml:"defaultCount" validate:"gt=0"`

	// Coordinate sanity region
	Region Region `yaml:"region"`
}

// Region is the bounding box live coordinates must fall into
type Region struct {
	MinLat float64 `yaml:"minLat"`
	MaxLat float64 `yaml:"maxLat"`
	MinLon float64 `yaml:"minLon"`
	MaxLon float64 `yaml:"maxLon"`
}

// DefaultHeuristics returns the built-in Wrocław tuning
func DefaultHeuristics() Heuristics {
	return Heuristics{
		TramMatchRadiusMeters: 3000,
		BusMatchRadiusMeters:  5000,

		StaleFixSeconds:           60,
		ApproachToleranceMeters:   10,
		NearStopRadiusMeters:      50,
		NearStopMinProgressMeters: 5,
		MinApproachRateMPS:        2.0,

		ImminentDistanceMeters:    100,
		ImminentScheduleMinutes:   5,
		RealtimeMaxDistanceMeters: 2000,
		AverageSpeedMPS:           5.56, // ~20 km/h urban average including dwell time
		ToleranceMinutes:          5,

		GraceWindowMinutes: 5,
		CandidateLimit:     20,
		DefaultCount:       5,

		Region: Region{MinLat: 50.9, MaxLat: 51.3, MinLon: 16.6, MaxLon: 17.4},
	}
}

// LoadHeuristics loads the heuristics file at path, falling back to
// ./heuristics.yml and finally to the defaults when no file exists.
// Values present in the file override defaults; missing keys keep them.
func LoadHeuristics(path string) (Heuristics, error) {
	h := DefaultHeuristics()

	paths := []string{path, "heuristics.yml"}
	var data []byte
	for _, p := range paths {
		if p == "" {
			continue
		}
		var err error
		if data, err = os.ReadFile(p); err == nil {
			break
		} else if path != "" && p == path {
			return h, fmt.Errorf("failed to read heuristics file: %w", err)
		}
	}

	if data != nil {
		if err := yaml.Unmarshal(data, &h); err != nil {
			return h, fmt.Errorf("failed to parse heuristics file: %w", err)
		}
	}

	v := validator.New()
	if err := v.Struct(h); err != nil {
		return h, fmt.Errorf("invalid heuristics: %w", err)
	}
	if h.Region.MinLat >= h.Region.MaxLat || h.Region.MinLon >= h.Region.MaxLon {
		return h, fmt.Errorf("invalid heuristics region: %+v", h.Region)
	}

	return h, nil
}
