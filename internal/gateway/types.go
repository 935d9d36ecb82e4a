package gateway

import (
	"context"

	"github.com/tiongMax/stocktracker/internal/aggregator"
	"github.com/tiongMax/stocktracker/internal/health"
	"github.com/tiongMax/stocktracker/internal/store"
	"github.com/tiongMax/stocktracker/internal/upstream"
)

// TickerFetcher builds the market data snapshot for a ticker.
type TickerFetcher interface {
	Fetch(ctx context.Context, ticker string) (*aggregator.TickerRecord, error)
}

// NewsFetcher returns recent articles for a ticker.
type NewsFetcher interface {
	Latest(ctx context.Context, ticker string) ([]upstream.Article, error)
}

type AccountStore interface {
	CreateUser(ctx context.Context, email, password string) (*store.User, error)
	Authenticate(ctx context.Context, email, password string) (*store.User, error)
}

type WatchlistStore interface {
	AddTicker(ctx context.Context, email, ticker string) error
	RemoveTicker(ctx context.Context, email, ticker string) error
	ListTickers(ctx context.Context, email string) ([]string, error)
}

type HealthReporter interface {
	Report(ctx context.Context) health.Report
}

// CredentialsRequest is the body of /api/signup and /api/signin.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// WatchlistRequest is the body of add-stock and remove-stock.
type WatchlistRequest struct {
	Email  string `json:"email" binding:"required"`
	Ticker string `json:"ticker" binding:"required"`
}
