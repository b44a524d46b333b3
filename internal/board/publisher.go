// Package board pushes arrival boards for configured stops onto NATS so
// departure displays can subscribe instead of polling the API.
package board

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/pawelptak/EmPeKa/internal/arrivals"
)

// Estimator is the slice of the arrival engine the publisher needs
type Estimator interface {
	GetArrivals(ctx context.Context, stopCode string, count int) (*arrivals.Result, error)
}

// Publisher periodically computes arrival boards and publishes them to
// empeka.arrivals.<stopCode>.
type Publisher struct {
	nc        *nats.Conn
	estimator Estimator
	stops     []string
	interval  time.Duration
}

// Message is the JSON payload published per stop
type Message struct {
	MessageID   string    `json:"messageId"`
	GeneratedAt time.Time `json:"generatedAt"`
	arrivals.Result
}

// NewPublisher connects to NATS and prepares a publisher for the given
// stop codes.
func NewPublisher(url string, estimator Estimator, stops []string, interval time.Duration) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("empeka-board"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			log.Println("Board: nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Println("Board: nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Println("Board: nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &Publisher{nc: nc, estimator: estimator, stops: stops, interval: interval}, nil
}

// Run publishes boards on the configured interval until the context is
// canceled.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.publishAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishAll(ctx)
		}
	}
}

func (p *Publisher) publishAll(ctx context.Context) {
	for _, stop := range p.stops {
		if err := p.publishStop(ctx, stop); err != nil {
			log.Printf("Board: publish for stop %s failed: %v", stop, err)
		}
	}
}

func (p *Publisher) publishStop(ctx context.Context, stopCode string) error {
	res, err := p.estimator.GetArrivals(ctx, stopCode, 0)
	if err != nil {
		return err
	}

	msg := Message{
		MessageID:   uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Result:      *res,
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.nc.Publish("empeka.arrivals."+subjectToken(stopCode), b)
}

// Close drains the NATS connection
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS tokens cannot contain spaces, wildcards or dots.
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
