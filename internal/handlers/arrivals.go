package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pawelptak/EmPeKa/internal/arrivals"
)

// ArrivalEstimator defines the interface for arrival computations
type ArrivalEstimator interface {
	GetArrivals(ctx context.Context, stopCode string, count int) (*arrivals.Result, error)
	GetArrivalsForStops(ctx context.Context, stopCodes []string, countPerStop int) []arrivals.StopArrival
}

// ArrivalsHandler handles HTTP requests for arrival estimates
type ArrivalsHandler struct {
	estimator ArrivalEstimator
}

// NewArrivalsHandler creates a new handler backed by the given estimator
func NewArrivalsHandler(estimator ArrivalEstimator) *ArrivalsHandler {
	return &ArrivalsHandler{estimator: estimator}
}

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error string `json:"error"`
}

// BatchRequest is the JSON request body for POST /api/stops/arrivals/batch
type BatchRequest struct {
	StopCodes    []string `json:"stopCodes"`
	CountPerStop int      `json:"countPerStop"`
}

// BatchResponse is the JSON response for POST /api/stops/arrivals/batch
type BatchResponse struct {
	Arrivals []arrivals.StopArrival `json:"arrivals"`
	Count    int                    `json:"count"`
}

const maxBatchStops = 50

// GetStopArrivals handles GET /api/stops/{stopCode}/arrivals
// An optional count query parameter caps the returned list.
func (h *ArrivalsHandler) GetStopArrivals(w http.ResponseWriter, r *http.Request) {
	stopCode := chi.URLParam(r, "stopCode")

	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "count must be a positive integer"})
			return
		}
		count = n
	}

	result, err := h.estimator.GetArrivals(r.Context(), stopCode, count)
	if err != nil {
		if errors.Is(err, arrivals.ErrStopNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Stop not found"})
			return
		}
		log.Printf("API: arrivals for stop %s failed: %v", stopCode, err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to compute arrivals"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetBatchArrivals handles POST /api/stops/arrivals/batch
// Computes arrivals for several stops and merges them into one sorted list.
func (h *ArrivalsHandler) GetBatchArrivals(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if len(req.StopCodes) > maxBatchStops {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Too many stops in one batch"})
		return
	}

	merged := h.estimator.GetArrivalsForStops(r.Context(), req.StopCodes, req.CountPerStop)
	writeJSON(w, http.StatusOK, BatchResponse{Arrivals: merged, Count: len(merged)})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
