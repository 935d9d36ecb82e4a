package aggregator_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tiongMax/stocktracker/internal/aggregator"
	"github.com/tiongMax/stocktracker/internal/symbol"
	"github.com/tiongMax/stocktracker/internal/upstream"
)

var (
	day0     = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	someBars = []upstream.PricePoint{
		{Date: day0, Close: 100},
		{Date: day0.AddDate(0, 0, 1), Close: 101.5},
	}
	someQuote = upstream.Quote{
		Symbol:    "AAPL",
		Name:      null.StringFrom("Apple Inc."),
		Price:     null.FloatFrom(189.5),
		MarketCap: null.FloatFrom(2.9e12),
		PERatio:   null.FloatFrom(29.4),
	}
	someProfile = upstream.Profile{Sector: null.StringFrom("Technology")}
	errDown     = &upstream.Error{Source: "yahoo", Reason: upstream.ErrUnavailable}
)

func TestFetchAllSucceed(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	src := NewMockSources(ctrl)
	now := day0.AddDate(0, 0, 5)

	src.EXPECT().History(gomock.Any(), "AAPL", now.AddDate(0, 0, -10), now).Return(someBars, nil).Times(1)
	src.EXPECT().Quote(gomock.Any(), "AAPL").Return(someQuote, nil).Times(1)
	src.EXPECT().Profile(gomock.Any(), "AAPL").Return(someProfile, nil).Times(1)

	agg := aggregator.New(src, aggregator.WithClock(func() time.Time { return now }))

	// Act
	rec, err := agg.Fetch(t.Context(), "aapl")

	// Assert
	require.NoError(t, err)
	require.Equal(t, "AAPL", rec.Ticker)
	require.Equal(t, someBars, rec.Prices)
	require.Equal(t, "Apple Inc.", rec.Info.Name)
	require.Equal(t, 189.5, rec.Info.CurrentPrice.Float64)
	require.Equal(t, 2.9e12, rec.Info.MarketCap.Float64)
	require.Equal(t, 29.4, rec.Info.PERatio.Float64)
	require.Equal(t, "Technology", rec.Info.Sector)
}

func TestFetchPartialFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                          string
		historyErr, quoteErr, profErr error
		check                         func(t *testing.T, rec *aggregator.TickerRecord)
	}{
		{
			name:       "history down",
			historyErr: errDown,
			check: func(t *testing.T, rec *aggregator.TickerRecord) {
				require.NotNil(t, rec.Prices)
				require.Empty(t, rec.Prices)
				require.Equal(t, "Apple Inc.", rec.Info.Name)
				require.Equal(t, "Technology", rec.Info.Sector)
			},
		},
		{
			name:     "quote down",
			quoteErr: errDown,
			check: func(t *testing.T, rec *aggregator.TickerRecord) {
				require.Len(t, rec.Prices, 2)
				require.Equal(t, "AAPL", rec.Info.Name)
				require.False(t, rec.Info.CurrentPrice.Valid)
				require.False(t, rec.Info.MarketCap.Valid)
				require.False(t, rec.Info.PERatio.Valid)
				require.Equal(t, "Technology", rec.Info.Sector)
			},
		},
		{
			name:    "profile down",
			profErr: &upstream.Error{Source: "yahoo", Reason: upstream.ErrRateLimited},
			check: func(t *testing.T, rec *aggregator.TickerRecord) {
				require.Equal(t, aggregator.SectorUnknown, rec.Info.Sector)
				require.True(t, rec.Info.CurrentPrice.Valid)
			},
		},
		{
			name:       "history and quote down",
			historyErr: errDown,
			quoteErr:   errDown,
			check: func(t *testing.T, rec *aggregator.TickerRecord) {
				require.Empty(t, rec.Prices)
				require.Equal(t, "AAPL", rec.Info.Name)
				require.False(t, rec.Info.CurrentPrice.Valid)
				require.Equal(t, "Technology", rec.Info.Sector)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			src := NewMockSources(ctrl)

			bars := someBars
			if tt.historyErr != nil {
				bars = nil
			}
			src.EXPECT().History(gomock.Any(), "AAPL", gomock.Any(), gomock.Any()).Return(bars, tt.historyErr)
			src.EXPECT().Quote(gomock.Any(), "AAPL").Return(someQuote, tt.quoteErr)
			src.EXPECT().Profile(gomock.Any(), "AAPL").Return(someProfile, tt.profErr)

			rec, err := aggregator.New(src).Fetch(t.Context(), "AAPL")

			require.NoError(t, err)
			require.Equal(t, "AAPL", rec.Ticker)
			tt.check(t, rec)
		})
	}
}

func TestFetchAllFail(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := NewMockSources(ctrl)
	notFound := &upstream.Error{Source: "yahoo", Reason: upstream.ErrInvalidSymbol}

	src.EXPECT().History(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, notFound)
	src.EXPECT().Quote(gomock.Any(), gomock.Any()).Return(upstream.Quote{}, notFound)
	src.EXPECT().Profile(gomock.Any(), gomock.Any()).Return(upstream.Profile{}, errDown)

	rec, err := aggregator.New(src).Fetch(t.Context(), "zzzz")

	require.Nil(t, rec)
	require.ErrorIs(t, err, aggregator.ErrAllSourcesFailed)
	require.ErrorIs(t, err, upstream.ErrInvalidSymbol)
	require.ErrorIs(t, err, upstream.ErrUnavailable)
}

func TestFetchInvalidTicker(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := NewMockSources(ctrl)

	_, err := aggregator.New(src).Fetch(t.Context(), "not a ticker")
	require.ErrorIs(t, err, symbol.ErrInvalid)
}

func TestFetchZeroQuoteValuesAreNull(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := NewMockSources(ctrl)

	src.EXPECT().History(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	src.EXPECT().Quote(gomock.Any(), gomock.Any()).Return(upstream.Quote{
		Name:      null.StringFrom(""),
		Price:     null.FloatFrom(12.5),
		MarketCap: null.FloatFrom(0),
	}, nil)
	src.EXPECT().Profile(gomock.Any(), gomock.Any()).Return(upstream.Profile{Sector: null.StringFrom("")}, nil)

	rec, err := aggregator.New(src).Fetch(t.Context(), "SPY")

	require.NoError(t, err)
	require.NotNil(t, rec.Prices)
	require.Equal(t, "SPY", rec.Info.Name)
	require.True(t, rec.Info.CurrentPrice.Valid)
	require.False(t, rec.Info.MarketCap.Valid)
	require.False(t, rec.Info.PERatio.Valid)
	require.Equal(t, aggregator.SectorUnknown, rec.Info.Sector)

	// Null fields serialize as JSON null, never as 0.
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"ticker":"SPY","prices":[],
		"info":{"name":"SPY","currentPrice":12.5,"marketCap":null,"peRatio":null,"sector":"N/A"}
	}`, string(raw))
}

func TestFetchSlowSourceDegrades(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := NewMockSources(ctrl)

	src.EXPECT().History(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(someBars, nil)
	src.EXPECT().Quote(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string) (upstream.Quote, error) {
			<-ctx.Done()
			return upstream.Quote{}, &upstream.Error{Source: "yahoo", Reason: upstream.ErrTimeout, Err: ctx.Err()}
		})
	src.EXPECT().Profile(gomock.Any(), gomock.Any()).Return(someProfile, nil)

	start := time.Now()
	rec, err := aggregator.New(src, aggregator.WithTimeout(30*time.Millisecond)).Fetch(t.Context(), "AAPL")

	require.NoError(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, rec.Prices, 2)
	require.False(t, rec.Info.CurrentPrice.Valid)
	require.Equal(t, "Technology", rec.Info.Sector)
}

func TestFetchSiblingsNotCancelled(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	src := NewMockSources(ctrl)

	// The quote branch outlives the failed history branch and records whether
	// its context was cancelled in the meantime.
	var quoteCtxErr error
	src.EXPECT().History(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))
	src.EXPECT().Quote(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string) (upstream.Quote, error) {
			time.Sleep(20 * time.Millisecond)
			quoteCtxErr = ctx.Err()
			return someQuote, nil
		})
	src.EXPECT().Profile(gomock.Any(), gomock.Any()).Return(someProfile, nil)

	rec, err := aggregator.New(src).Fetch(t.Context(), "AAPL")

	require.NoError(t, err)
	require.NoError(t, quoteCtxErr)
	require.Equal(t, "Apple Inc.", rec.Info.Name)
}
