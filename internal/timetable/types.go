package timetable

// Stop is a boardable stop from the static timetable
type Stop struct {
	ID   string  `db:"stop_id"`
	Code string  `db:"stop_code"`
	Name string  `db:"stop_name"`
	Lat  float64 `db:"stop_lat"`
	Lon  float64 `db:"stop_lon"`
}

// Route carries the line short name and the GTFS route_type
// (0=tram, 3=bus for this network)
type Route struct {
	ID        string `db:"route_id"`
	ShortName string `db:"route_short_name"`
	Type      int    `db:"route_type"`
}

// Trip links a scheduled run to its route and headsign
type Trip struct {
	ID          string `db:"trip_id"`
	RouteID     string `db:"route_id"`
	ServiceID   string `db:"service_id"`
	Headsign    string `db:"trip_headsign"`
	DirectionID int    `db:"direction_id"`
}

// Departure is one scheduled call at a stop, already filtered by the
// active service calendar
type Departure struct {
	TripID         string `db:"trip_id"`
	RouteID        string `db:"route_id"`
	ArrivalSeconds int    `db:"arrival_seconds"`
}
