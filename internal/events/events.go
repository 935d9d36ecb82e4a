package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type is the kind of watchlist change.
type Type string

const (
	TickerAdded   Type = "added"
	TickerRemoved Type = "removed"
)

// WatchlistEvent records a confirmed watchlist mutation.
type WatchlistEvent struct {
	ID     uuid.UUID `json:"id"`
	Type   Type      `json:"type"`
	Email  string    `json:"email"`
	Ticker string    `json:"ticker"`
	At     time.Time `json:"at"`
}

// NewWatchlistEvent stamps a new event with an ID and the current time.
func NewWatchlistEvent(typ Type, email, ticker string) WatchlistEvent {
	return WatchlistEvent{
		ID:     uuid.New(),
		Type:   typ,
		Email:  email,
		Ticker: ticker,
		At:     time.Now().UTC(),
	}
}

// Publisher delivers watchlist events downstream.
type Publisher interface {
	PublishWatchlistChange(ctx context.Context, ev WatchlistEvent) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishWatchlistChange(context.Context, WatchlistEvent) error { return nil }
func (NoopPublisher) Close() error { return nil }
