package gtfs

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeTestFeed(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "feed.zip")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	files := map[string]string{
		"stops.txt": "stop_id,stop_code,stop_name,stop_lat,stop_lon\n" +
			"1001,20505,Rynek,51.1100,17.0320\n" +
			"1002,20506,Dworzec Główny,51.0989,17.0366\n",
		"routes.txt": "route_id,route_short_name,route_long_name,route_type\n" +
			"r33,33,Pilczyce - Sępolno,0\n" +
			"r145,145,Gaj - Psie Pole,3\n",
		"trips.txt": "route_id,service_id,trip_id,trip_headsign,direction_id\n" +
			"r33,wd,t1,Sępolno,0\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"t1,08:15:00,08:15:30,1001,1\n" +
			"t1,25:01:00,25:01:00,1002,2\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"wd,1,1,1,1,1,0,0,20250101,20251231\n",
		"calendar_dates.txt": "service_id,date,exception_type\n" +
			"wd,20250501,2\n",
	}
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestParse(t *testing.T) {
	data, err := Parse(writeTestFeed(t))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(data.Stops) != 2 {
		t.Errorf("parsed %d stops, expected 2", len(data.Stops))
	}
	if data.Stops[0].StopCode != "20505" || data.Stops[0].StopLat != 51.11 {
		t.Errorf("unexpected first stop: %+v", data.Stops[0])
	}

	if len(data.Routes) != 2 {
		t.Fatalf("parsed %d routes, expected 2", len(data.Routes))
	}
	if data.Routes[0].RouteType != RouteTypeTram || data.Routes[1].RouteType != RouteTypeBus {
		t.Errorf("unexpected route types: %+v", data.Routes)
	}

	if len(data.Trips) != 1 || data.Trips[0].TripHeadsign != "Sępolno" {
		t.Errorf("unexpected trips: %+v", data.Trips)
	}
	if len(data.StopTimes) != 2 {
		t.Errorf("parsed %d stop times, expected 2", len(data.StopTimes))
	}

	if len(data.Calendar) != 1 {
		t.Fatalf("parsed %d calendar entries, expected 1", len(data.Calendar))
	}
	cal := data.Calendar[0]
	if !cal.Weekdays[1] || cal.Weekdays[0] || cal.Weekdays[6] {
		t.Errorf("unexpected weekday flags: %v", cal.Weekdays)
	}

	if len(data.CalendarDates) != 1 || data.CalendarDates[0].ExceptionType != 2 {
		t.Errorf("unexpected calendar dates: %+v", data.CalendarDates)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		value    string
		expected int
		ok       bool
	}{
		{"08:15:00", 8*3600 + 15*60, true},
		{"00:00:00", 0, true},
		{"25:01:30", 25*3600 + 60 + 30, true}, // after-midnight trips
		{" 09:05:00 ", 9*3600 + 5*60, true},
		{"", 0, false},
		{"8:15", 0, false},
		{"aa:bb:cc", 0, false},
		{"08:61:00", 0, false},
		{"-1:00:00", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			got, err := ParseTimeOfDay(tc.value)
			if tc.ok && err != nil {
				t.Fatalf("ParseTimeOfDay(%q) failed: %v", tc.value, err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("ParseTimeOfDay(%q) should fail", tc.value)
			}
			if tc.ok && got != tc.expected {
				t.Errorf("ParseTimeOfDay(%q) = %d, expected %d", tc.value, got, tc.expected)
			}
		})
	}
}
