// Package sink delivers lead records to every configured store. Delivery is
// best effort: failures are logged and dropped, never returned to the caller.
package sink

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"whatsapp-lead-logger/pkg/models"
)

// Sink persists one lead record.
type Sink interface {
	Append(ctx context.Context, rec models.LeadRecord) error
}

// Named pairs a sink with the name used in its log lines.
type Named struct {
	Name string
	Sink Sink
}

// Multi fans a record out to all sinks and waits for them to finish.
type Multi struct {
	sinks []Named
	log   zerolog.Logger
}

func NewMulti(log zerolog.Logger, sinks ...Named) *Multi {
	return &Multi{sinks: sinks, log: log.With().Str("component", "sink").Logger()}
}

// Len returns the number of configured sinks.
func (m *Multi) Len() int { return len(m.sinks) }

// Append writes rec to every sink concurrently. A failing sink does not stop
// the others, and no error reaches the caller.
func (m *Multi) Append(ctx context.Context, rec models.LeadRecord) {
	var g errgroup.Group
	for _, s := range m.sinks {
		s := s
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
				if err != nil {
					m.log.Error().Err(err).Str("sink", s.Name).Str("source_id", rec.SourceID).Msg("Error saving lead")
				}
			}()
			return s.Sink.Append(ctx, rec)
		})
	}
	_ = g.Wait()
}

// Func adapts a plain function to Sink.
type Func func(ctx context.Context, rec models.LeadRecord) error

func (f Func) Append(ctx context.Context, rec models.LeadRecord) error {
	return f(ctx, rec)
}
