package timetable

import (
	"context"
	"fmt"
	"log"

	"github.com/pawelptak/EmPeKa/internal/gtfs"
)

// Import replaces the timetable contents with the given parsed GTFS feed.
// Runs in a single transaction so readers never observe a half-imported
// timetable. Stop time rows with malformed arrival times are skipped with
// a warning rather than failing the whole import.
func (s *Store) Import(ctx context.Context, data *gtfs.Data) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"stop_times", "trips", "routes", "stops", "calendar", "calendar_dates"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	stopStmt, err := tx.PreparexContext(ctx, tx.Rebind(
		"INSERT INTO stops (stop_id, stop_code, stop_name, stop_lat, stop_lon) VALUES (?, ?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("failed to prepare stops insert: %w", err)
	}
	defer stopStmt.Close()
	for _, stop := range data.Stops {
		code := stop.StopCode
		if code == "" {
			// Some feeds leave stop_code empty; fall back to the id so the
			// stop is still addressable
			code = stop.StopID
		}
		if _, err := stopStmt.ExecContext(ctx, stop.StopID, code, stop.StopName, stop.StopLat, stop.StopLon); err != nil {
			return fmt.Errorf("failed to insert stop %s: %w", stop.StopID, err)
		}
	}

	routeStmt, err := tx.PreparexContext(ctx, tx.Rebind(
		"INSERT INTO routes (route_id, route_short_name, route_type) VALUES (?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("failed to prepare routes insert: %w", err)
	}
	defer routeStmt.Close()
	for _, route := range data.Routes {
		if _, err := routeStmt.ExecContext(ctx, route.RouteID, route.RouteShortName, route.RouteType); err != nil {
			return fmt.Errorf("failed to insert route %s: %w", route.RouteID, err)
		}
	}

	tripStmt, err := tx.PreparexContext(ctx, tx.Rebind(
		"INSERT INTO trips (trip_id, route_id, service_id, trip_headsign, direction_id) VALUES (?, ?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("failed to prepare trips insert: %w", err)
	}
	defer tripStmt.Close()
	for _, trip := range data.Trips {
		if _, err := tripStmt.ExecContext(ctx, trip.TripID, trip.RouteID, trip.ServiceID, trip.TripHeadsign, trip.DirectionID); err != nil {
			return fmt.Errorf("failed to insert trip %s: %w", trip.TripID, err)
		}
	}

	stStmt, err := tx.PreparexContext(ctx, tx.Rebind(
		"INSERT INTO stop_times (trip_id, stop_id, arrival_seconds, stop_sequence) VALUES (?, ?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("failed to prepare stop_times insert: %w", err)
	}
	defer stStmt.Close()
	skipped := 0
	for _, st := range data.StopTimes {
		seconds, err := gtfs.ParseTimeOfDay(st.ArrivalTime)
		if err != nil {
			logSkippedStopTime(st.TripID, st.ArrivalTime, err)
			skipped++
			continue
		}
		if _, err := stStmt.ExecContext(ctx, st.TripID, st.StopID, seconds, st.StopSequence); err != nil {
			return fmt.Errorf("failed to insert stop time for trip %s: %w", st.TripID, err)
		}
	}

	calStmt, err := tx.PreparexContext(ctx, tx.Rebind(
		`INSERT INTO calendar (service_id, sunday, monday, tuesday, wednesday, thursday, friday, saturday, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("failed to prepare calendar insert: %w", err)
	}
	defer calStmt.Close()
	for _, cal := range data.Calendar {
		args := []interface{}{cal.ServiceID}
		for _, active := range cal.Weekdays {
			flag := 0
			if active {
				flag = 1
			}
			args = append(args, flag)
		}
		args = append(args, cal.StartDate, cal.EndDate)
		if _, err := calStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert calendar %s: %w", cal.ServiceID, err)
		}
	}

	cdStmt, err := tx.PreparexContext(ctx, tx.Rebind(
		"INSERT INTO calendar_dates (service_id, date, exception_type) VALUES (?, ?, ?)"))
	if err != nil {
		return fmt.Errorf("failed to prepare calendar_dates insert: %w", err)
	}
	defer cdStmt.Close()
	for _, cd := range data.CalendarDates {
		if _, err := cdStmt.ExecContext(ctx, cd.ServiceID, cd.Date, cd.ExceptionType); err != nil {
			return fmt.Errorf("failed to insert calendar date %s/%s: %w", cd.ServiceID, cd.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	log.Printf("Timetable imported: %d stops, %d routes, %d trips, %d stop times (%d skipped)",
		len(data.Stops), len(data.Routes), len(data.Trips), len(data.StopTimes)-skipped, skipped)
	return nil
}
