// Package sink delivers accepted signals to their destinations.
package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/westquant/pulse/internal/core"
)

// Sink receives the accepted signals of one scan cycle.
type Sink interface {
	Name() string
	Emit(ctx context.Context, signals []core.Signal) error
	Close() error
}

// LogSink writes accepted signals to the structured log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink backed by the given logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Emit(ctx context.Context, signals []core.Signal) error {
	for _, sig := range signals {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.logger.Info("signal",
			zap.String("id", sig.ID),
			zap.String("symbol", sig.Symbol),
			zap.String("side", string(sig.Side)),
			zap.Float64("price", sig.Price),
			zap.Float64("confidence", sig.Confidence),
			zap.String("strength", string(sig.Strength)),
			zap.String("generator", sig.Generator),
			zap.String("reason", sig.Reason),
		)
	}
	return nil
}

func (s *LogSink) Close() error { return nil }
