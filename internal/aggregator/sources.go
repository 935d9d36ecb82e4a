package aggregator

import (
	"context"
	"time"

	"github.com/tiongMax/stocktracker/internal/upstream"
)

// Sources is the set of market data providers a snapshot is built from.
//
//go:generate mockgen -package=aggregator_test -destination=mock_sources_test.go -source=sources.go
type Sources interface {
	History(ctx context.Context, symbol string, from, to time.Time) ([]upstream.PricePoint, error)
	Quote(ctx context.Context, symbol string) (upstream.Quote, error)
	Profile(ctx context.Context, symbol string) (upstream.Profile, error)
}
