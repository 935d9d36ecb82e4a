package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tiongMax/stocktracker/internal/symbol"
)

// AddTicker puts ticker on the owner's watchlist. Adding a ticker that is
// already present succeeds without creating a second row.
func (s *Store) AddTicker(ctx context.Context, email, ticker string) error {
	sym, err := symbol.Normalize(ticker)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, email)
		if err != nil {
			return err
		}

		item := WatchlistItem{UserID: user.ID, Ticker: sym}
		err = tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "ticker"}},
				DoNothing: true,
			}).
			Create(&item).Error
		if err != nil {
			return fmt.Errorf("failed to add %s to watchlist: %w", sym, err)
		}
		return nil
	})
}

// RemoveTicker takes ticker off the owner's watchlist. Removing a ticker that
// is not present succeeds.
func (s *Store) RemoveTicker(ctx context.Context, email, ticker string) error {
	sym, err := symbol.Normalize(ticker)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, email)
		if err != nil {
			return err
		}

		if err := tx.Where("user_id = ? AND ticker = ?", user.ID, sym).Delete(&WatchlistItem{}).Error; err != nil {
			return fmt.Errorf("failed to remove %s from watchlist: %w", sym, err)
		}
		return nil
	})
}

// ListTickers returns the owner's watchlist in alphabetical order. An empty
// watchlist is an empty, non-nil slice.
func (s *Store) ListTickers(ctx context.Context, email string) ([]string, error) {
	tickers := []string{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, email)
		if err != nil {
			return err
		}
		if err := tx.Model(&WatchlistItem{}).Where("user_id = ?", user.ID).Order("ticker").Pluck("ticker", &tickers).Error; err != nil {
			return fmt.Errorf("failed to list watchlist: %w", err)
		}
		if tickers == nil {
			tickers = []string{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tickers, nil
}
