package gtfs

// Data holds parsed GTFS static data
type Data struct {
	Stops         []Stop
	Routes        []Route
	Trips         []Trip
	StopTimes     []StopTime
	Calendar      []CalendarEntry
	CalendarDates []CalendarDate
}

// Stop represents a row of stops.txt
type Stop struct {
	StopID   string
	StopCode string
	StopName string
	StopLat  float64
	StopLon  float64
}

// Route represents a row of routes.txt
type Route struct {
	RouteID        string
	RouteShortName string
	RouteLongName  string
	RouteType      int
}

// Trip represents a row of trips.txt
type Trip struct {
	RouteID      string
	ServiceID    string
	TripID       string
	TripHeadsign string
	DirectionID  int
}

// StopTime represents a row of stop_times.txt. Times stay in the raw
// HH:MM:SS form; values past 24:00:00 are legal for after-midnight trips.
type StopTime struct {
	TripID        string
	ArrivalTime   string
	DepartureTime string
	StopID        string
	StopSequence  int
}

// CalendarEntry represents a row of calendar.txt. Weekday flags are kept
// Sunday-first to line up with time.Weekday.
type CalendarEntry struct {
	ServiceID string
	Weekdays  [7]bool // index time.Weekday: 0=Sunday .. 6=Saturday
	StartDate string  // YYYYMMDD
	EndDate   string
}

// CalendarDate represents a row of calendar_dates.txt
type CalendarDate struct {
	ServiceID     string
	Date          string // YYYYMMDD
	ExceptionType int    // 1=added, 2=removed
}

// GTFS route_type values relevant to this network
const (
	RouteTypeTram = 0
	RouteTypeBus  = 3
)
