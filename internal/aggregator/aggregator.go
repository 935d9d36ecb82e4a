package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/guregu/null/v6"
	"golang.org/x/sync/errgroup"

	"github.com/tiongMax/stocktracker/internal/symbol"
	"github.com/tiongMax/stocktracker/internal/upstream"
)

// ErrAllSourcesFailed is returned when history, quote and profile all failed.
var ErrAllSourcesFailed = errors.New("all market data sources failed")

// SectorUnknown is reported when the profile has no sector.
const SectorUnknown = "N/A"

// TickerRecord is the merged snapshot for one ticker.
type TickerRecord struct {
	Ticker string                `json:"ticker"`
	Prices []upstream.PricePoint `json:"prices"`
	Info   Info                  `json:"info"`
}

// Info holds the quote and profile fields of a snapshot.
type Info struct {
	Name         string     `json:"name"`
	CurrentPrice null.Float `json:"currentPrice"`
	MarketCap    null.Float `json:"marketCap"`
	PERatio      null.Float `json:"peRatio"`
	Sector       string     `json:"sector"`
}

// Aggregator fans out to Sources and merges the results.
type Aggregator struct {
	sources     Sources
	timeout     time.Duration
	historyDays int
	now         func() time.Time
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.timeout = d }
}

// WithHistoryDays sets the trailing window of the price series.
func WithHistoryDays(days int) Option {
	return func(a *Aggregator) { a.historyDays = days }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func New(sources Sources, opts ...Option) *Aggregator {
	a := &Aggregator{
		sources:     sources,
		timeout:     5 * time.Second,
		historyDays: 10,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fetch builds the snapshot for ticker. History, quote and profile are
// requested concurrently; a failed call only blanks its own fields.
func (a *Aggregator) Fetch(ctx context.Context, ticker string) (*TickerRecord, error) {
	sym, err := symbol.Normalize(ticker)
	if err != nil {
		return nil, err
	}

	var (
		g          errgroup.Group
		prices     []upstream.PricePoint
		quote      upstream.Quote
		profile    upstream.Profile
		historyErr error
		quoteErr   error
		profileErr error
	)

	to := a.now()
	from := to.AddDate(0, 0, -a.historyDays)

	g.Go(func() error {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		prices, historyErr = a.sources.History(ctx, sym, from, to)
		return nil
	})
	g.Go(func() error {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		quote, quoteErr = a.sources.Quote(ctx, sym)
		return nil
	})
	g.Go(func() error {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		profile, profileErr = a.sources.Profile(ctx, sym)
		return nil
	})
	_ = g.Wait()

	if historyErr != nil && quoteErr != nil && profileErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAllSourcesFailed, sym, errors.Join(historyErr, quoteErr, profileErr))
	}

	rec := &TickerRecord{
		Ticker: sym,
		Prices: []upstream.PricePoint{},
		Info: Info{
			Name:   sym,
			Sector: SectorUnknown,
		},
	}

	if historyErr != nil {
		slog.Warn("History unavailable, returning empty series", "ticker", sym, "error", historyErr)
	} else if prices != nil {
		rec.Prices = prices
	}

	if quoteErr != nil {
		slog.Warn("Quote unavailable, quote fields null", "ticker", sym, "error", quoteErr)
	} else {
		if quote.Name.Valid && quote.Name.String != "" {
			rec.Info.Name = quote.Name.String
		}
		rec.Info.CurrentPrice = present(quote.Price)
		rec.Info.MarketCap = present(quote.MarketCap)
		rec.Info.PERatio = present(quote.PERatio)
	}

	if profileErr != nil {
		slog.Warn("Profile unavailable, sector defaulted", "ticker", sym, "error", profileErr)
	} else if profile.Sector.Valid && profile.Sector.String != "" {
		rec.Info.Sector = profile.Sector.String
	}

	return rec, nil
}

// present treats zero as missing; providers report 0 for unknown figures.
func present(f null.Float) null.Float {
	if !f.Valid || f.Float64 == 0 {
		return null.Float{}
	}
	return f
}
