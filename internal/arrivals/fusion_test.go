package arrivals

import (
	"testing"

	"github.com/pawelptak/EmPeKa/internal/config"
)

func TestFuse(t *testing.T) {
	heur := config.DefaultHeuristics()

	tests := []struct {
		name         string
		scheduledEta int
		distance     float64
		wantEta      int
		wantRealTime bool
		wantDelay    *int
	}{
		{
			name:         "imminent vehicle at the stop",
			scheduledEta: 2,
			distance:     50,
			wantEta:      0,
			wantRealTime: true,
			wantDelay:    intPtr(-2),
		},
		{
			name:         "imminent and exactly on schedule",
			scheduledEta: 0,
			distance:     50,
			wantEta:      0,
			wantRealTime: true,
			wantDelay:    nil,
		},
		{
			name:         "close but schedule far off stays scheduled",
			scheduledEta: 20,
			distance:     50,
			wantEta:      20,
			wantRealTime: false,
			wantDelay:    nil,
		},
		{
			// 1000 m at 5.56 m/s is ~3 minutes.
			name:         "distance estimate within tolerance",
			scheduledEta: 6,
			distance:     1000,
			wantEta:      3,
			wantRealTime: true,
			wantDelay:    intPtr(-3),
		},
		{
			name:         "distance estimate matching schedule has no delay",
			scheduledEta: 3,
			distance:     1000,
			wantEta:      3,
			wantRealTime: true,
			wantDelay:    nil,
		},
		{
			name:         "estimate never drops below one minute",
			scheduledEta: 1,
			distance:     150,
			wantEta:      1,
			wantRealTime: true,
			wantDelay:    nil,
		},
		{
			name:         "disagreement beyond tolerance falls back to schedule",
			scheduledEta: 15,
			distance:     1000,
			wantEta:      15,
			wantRealTime: false,
			wantDelay:    nil,
		},
		{
			name:         "vehicle too far for a live estimate",
			scheduledEta: 12,
			distance:     2500,
			wantEta:      12,
			wantRealTime: false,
			wantDelay:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eta, isRealTime, delay := fuse(tt.scheduledEta, tt.distance, heur)
			if eta != tt.wantEta {
				t.Errorf("eta = %d, want %d", eta, tt.wantEta)
			}
			if isRealTime != tt.wantRealTime {
				t.Errorf("isRealTime = %v, want %v", isRealTime, tt.wantRealTime)
			}
			if (delay == nil) != (tt.wantDelay == nil) {
				t.Fatalf("delay = %v, want %v", delay, tt.wantDelay)
			}
			if delay != nil && *delay != *tt.wantDelay {
				t.Errorf("delay = %d, want %d", *delay, *tt.wantDelay)
			}
		})
	}
}

func intPtr(v int) *int { return &v }
