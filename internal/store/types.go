package store

import (
	"time"
)

type User struct {
	ID           int       `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// WatchlistItem is one ticker on a user's watchlist. A user's watchlist is
// the set of rows carrying their ID; the composite index keeps it a set.
type WatchlistItem struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	UserID    int       `json:"user_id" gorm:"not null;uniqueIndex:idx_watchlist_user_ticker"`
	Ticker    string    `json:"ticker" gorm:"not null;size:16;uniqueIndex:idx_watchlist_user_ticker"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	User      User      `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
