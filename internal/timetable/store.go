package timetable

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("timetable: not found")

// schemaSQL is the single source of truth for the timetable schema,
// embedded at compile time.
//
//go:embed schema.sql
var schemaSQL string

// Store is the read-side timetable query interface backed by SQL.
// Queries are written with ? placeholders and rebound per driver.
type Store struct {
	db *sqlx.DB
}

// Open connects to the timetable database. A non-empty databaseURL selects
// PostgreSQL via pgx; otherwise the SQLite file at sqlitePath is used.
func Open(databaseURL, sqlitePath string) (*Store, error) {
	var db *sqlx.DB
	var err error

	if databaseURL != "" {
		db, err = sqlx.Open("pgx", databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		db.SetMaxOpenConns(10)
	} else {
		db, err = sqlx.Open("sqlite", sqlitePath+"?_journal=WAL&_fk=1&_busy_timeout=5000")
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// SQLite supports one writer at a time
		db.SetMaxOpenConns(1)
	}
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity for health reporting
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema creates tables if they don't exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// StopByCode resolves a public stop code to a stop. When multiple platforms
// share a code the first by stop_id wins.
func (s *Store) StopByCode(ctx context.Context, code string) (*Stop, error) {
	if code == "" {
		return nil, ErrNotFound
	}

	query := s.db.Rebind(`
		SELECT stop_id, stop_code, stop_name, stop_lat, stop_lon
		FROM stops
		WHERE stop_code = ?
		ORDER BY stop_id
		LIMIT 1
	`)

	var stop Stop
	if err := s.db.GetContext(ctx, &stop, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query stop %s: %w", code, err)
	}

	return &stop, nil
}

// ActiveDepartures returns all scheduled calls at the stop whose service is
// active on the given date (YYYYMMDD, weekday as time.Weekday). Calendar
// exceptions are applied: removed services are excluded, added ones included.
func (s *Store) ActiveDepartures(ctx context.Context, stopID, date string, weekday time.Weekday) ([]Departure, error) {
	query := s.db.Rebind(`
		WITH active_services AS (
			SELECT c.service_id
			FROM calendar c
			WHERE c.start_date <= ?
			  AND c.end_date >= ?
			  AND (
				(? = 0 AND c.sunday = 1) OR
				(? = 1 AND c.monday = 1) OR
				(? = 2 AND c.tuesday = 1) OR
				(? = 3 AND c.wednesday = 1) OR
				(? = 4 AND c.thursday = 1) OR
				(? = 5 AND c.friday = 1) OR
				(? = 6 AND c.saturday = 1)
			  )
			  AND c.service_id NOT IN (
				SELECT cd.service_id FROM calendar_dates cd
				WHERE cd.date = ? AND cd.exception_type = 2
			  )
			UNION
			SELECT cd.service_id
			FROM calendar_dates cd
			WHERE cd.date = ? AND cd.exception_type = 1
		)
		SELECT st.trip_id, t.route_id, st.arrival_seconds
		FROM stop_times st
		JOIN trips t ON t.trip_id = st.trip_id
		JOIN active_services a ON a.service_id = t.service_id
		WHERE st.stop_id = ?
	`)

	day := int(weekday)
	var departures []Departure
	err := s.db.SelectContext(ctx, &departures, query,
		date, date,
		day, day, day, day, day, day, day,
		date,
		date,
		stopID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query departures for stop %s: %w", stopID, err)
	}

	return departures, nil
}

// TripsByIDs returns the trips for the given ids keyed by trip id
func (s *Store) TripsByIDs(ctx context.Context, ids []string) (map[string]Trip, error) {
	trips := make(map[string]Trip, len(ids))
	if len(ids) == 0 {
		return trips, nil
	}

	query, args, err := sqlx.In(`
		SELECT trip_id, route_id, service_id, trip_headsign, direction_id
		FROM trips
		WHERE trip_id IN (?)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build trips query: %w", err)
	}

	var rows []Trip
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}

	for _, trip := range rows {
		trips[trip.ID] = trip
	}
	return trips, nil
}

// RoutesByIDs returns the routes for the given ids keyed by route id
func (s *Store) RoutesByIDs(ctx context.Context, ids []string) (map[string]Route, error) {
	routes := make(map[string]Route, len(ids))
	if len(ids) == 0 {
		return routes, nil
	}

	query, args, err := sqlx.In(`
		SELECT route_id, route_short_name, route_type
		FROM routes
		WHERE route_id IN (?)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build routes query: %w", err)
	}

	var rows []Route
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}

	for _, route := range rows {
		routes[route.ID] = route
	}
	return routes, nil
}

// logSkippedStopTime keeps import noise readable when a feed carries a few
// malformed rows
func logSkippedStopTime(tripID, value string, err error) {
	log.Printf("Warning: skipping stop time for trip %s (%q): %v", tripID, value, err)
}
