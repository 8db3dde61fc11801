// Package feed supplies market data snapshots to the scan loop.
package feed

import (
	"context"

	"github.com/westquant/pulse/internal/core"
)

// Source yields the most recent bars for a symbol, time-ascending, at
// most limit of them.
type Source interface {
	Fetch(ctx context.Context, symbol string, limit int) (core.MarketData, error)
}
