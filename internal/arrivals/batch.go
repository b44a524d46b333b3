package arrivals

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
)

// StopArrival is one arrival in the merged batch view, annotated with the
// stop it belongs to.
type StopArrival struct {
	StopCode string `json:"stopCode"`
	StopName string `json:"stopName"`
	Candidate
}

// GetArrivalsForStops computes arrivals for several stops at once and
// merges them into a single ETA-sorted list. Stops are processed with
// bounded concurrency; a stop that fails (unknown code included) is
// logged and left out rather than failing the whole batch.
func (e *Estimator) GetArrivalsForStops(ctx context.Context, stopCodes []string, countPerStop int) []StopArrival {
	start := e.now()
	defer func() {
		e.metrics.ObserveBatch(e.now().Sub(start).Seconds())
	}()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		merged []StopArrival
	)

	for _, code := range stopCodes {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()

			select {
			case e.batchSem <- struct{}{}:
				defer func() { <-e.batchSem }()
			case <-ctx.Done():
				return
			}

			res, err := e.GetArrivals(ctx, code, countPerStop)
			if err != nil {
				if errors.Is(err, ErrStopNotFound) {
					log.Printf("Arrivals: batch skipping unknown stop %s", code)
				} else {
					log.Printf("Arrivals: batch failed for stop %s: %v", code, err)
				}
				return
			}

			mu.Lock()
			for _, a := range res.Arrivals {
				merged = append(merged, StopArrival{
					StopCode:  res.StopCode,
					StopName:  res.StopName,
					Candidate: a,
				})
			}
			mu.Unlock()
		}(code)
	}
	wg.Wait()

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].EtaMinutes != merged[j].EtaMinutes {
			return merged[i].EtaMinutes < merged[j].EtaMinutes
		}
		return merged[i].StopCode < merged[j].StopCode
	})
	if merged == nil {
		merged = []StopArrival{}
	}
	return merged
}
