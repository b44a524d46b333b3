package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/pawelptak/EmPeKa/internal/arrivals"
	"github.com/pawelptak/EmPeKa/internal/board"
	"github.com/pawelptak/EmPeKa/internal/config"
	"github.com/pawelptak/EmPeKa/internal/geo"
	"github.com/pawelptak/EmPeKa/internal/handlers"
	"github.com/pawelptak/EmPeKa/internal/history"
	"github.com/pawelptak/EmPeKa/internal/metrics"
	"github.com/pawelptak/EmPeKa/internal/stats"
	"github.com/pawelptak/EmPeKa/internal/timetable"
	"github.com/pawelptak/EmPeKa/internal/vehicles"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := timetable.Open(cfg.DatabaseURL, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open timetable database: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure database schema: %v", err)
	}
	log.Println("Timetable database connection established")

	region := geo.BoundingBox{
		MinLat: cfg.Heuristics.Region.MinLat,
		MaxLat: cfg.Heuristics.Region.MaxLat,
		MinLon: cfg.Heuristics.Region.MinLon,
		MaxLon: cfg.Heuristics.Region.MaxLon,
	}

	var source vehicles.Source
	switch cfg.VehicleFeedFormat {
	case "gtfsrt":
		source = vehicles.NewGTFSRTSource(cfg.VehicleFeedURL, cfg.FeedTimeout, cfg.PositionsTTL, region)
		log.Printf("Vehicles: using GTFS-RT feed at %s", cfg.VehicleFeedURL)
	default:
		source = vehicles.NewClient(cfg.VehicleFeedURL, cfg.FeedTimeout, cfg.PositionsTTL, cfg.FetchConcurrency, region)
		log.Printf("Vehicles: using MPK feed at %s", cfg.VehicleFeedURL)
	}

	cache := history.NewCache()
	cache.StartSweeper(ctx, cfg.HistorySweepInterval, cfg.HistoryMaxAge)

	collector := metrics.NewCollector()
	delays := stats.NewDelayTracker()

	estimator := arrivals.NewEstimator(
		store, source, cache,
		cfg.Heuristics, cfg.Location,
		cfg.BatchConcurrency,
		collector, delays,
	)

	arrivalsHandler := handlers.NewArrivalsHandler(estimator)
	healthHandler := handlers.NewHealthHandler(store)
	delaysHandler := handlers.NewDelaysHandler(delays)

	r := chi.NewRouter()
	r.Use(handlers.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", healthHandler.GetHealth)
	r.Get("/healthz", healthHandler.GetHealthz)
	r.Handle("/metrics", collector.Handler())

	r.Get("/api/stops/{stopCode}/arrivals", arrivalsHandler.GetStopArrivals)
	r.Post("/api/stops/arrivals/batch", arrivalsHandler.GetBatchArrivals)
	r.Get("/api/stats/delays", delaysHandler.GetDelays)

	// Optional departure board publishing over NATS
	if cfg.NATSURL != "" && len(cfg.BoardStops) > 0 {
		publisher, err := board.NewPublisher(cfg.NATSURL, estimator, cfg.BoardStops, cfg.BoardInterval)
		if err != nil {
			log.Fatalf("Failed to start board publisher: %v", err)
		}
		defer publisher.Close()
		go publisher.Run(ctx)
		log.Printf("Board: publishing %d stops every %s", len(cfg.BoardStops), cfg.BoardInterval)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("API server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	log.Println("Shutdown complete")
}
