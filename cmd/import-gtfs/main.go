package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/pawelptak/EmPeKa/internal/gtfs"
	"github.com/pawelptak/EmPeKa/internal/timetable"
)

func main() {
	// Command line flags
	dbPath := flag.String("db", "data/timetable.db", "Path to SQLite database")
	zipPath := flag.String("gtfs", "data/gtfs.zip", "Path to the GTFS zip file")
	flag.Parse()

	// DATABASE_URL switches the import to Postgres
	store, err := timetable.Open(os.Getenv("DATABASE_URL"), *dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	log.Printf("Parsing %s...", *zipPath)
	data, err := gtfs.Parse(*zipPath)
	if err != nil {
		log.Fatalf("Failed to parse GTFS feed: %v", err)
	}
	log.Printf("Parsed %d stops, %d routes, %d trips, %d stop times",
		len(data.Stops), len(data.Routes), len(data.Trips), len(data.StopTimes))

	if err := store.Import(ctx, data); err != nil {
		log.Fatalf("Failed to import timetable: %v", err)
	}
	log.Println("SUCCESS: timetable imported")
}
