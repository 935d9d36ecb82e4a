package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tiongMax/stocktracker/internal/symbol"
	"github.com/tiongMax/stocktracker/internal/upstream"
)

// ErrNotConfigured is returned when no news provider credentials were supplied.
var ErrNotConfigured = errors.New("news provider not configured")

// Service returns the latest articles for a ticker.
type Service struct {
	source  Source
	cache   Cache
	limit   int
	timeout time.Duration
	group   singleflight.Group
}

// NewService creates a news Service. source may be nil, in which case every
// call fails with ErrNotConfigured; cache may be nil to disable caching.
func NewService(source Source, cache Cache, limit int, timeout time.Duration) *Service {
	return &Service{
		source:  source,
		cache:   cache,
		limit:   limit,
		timeout: timeout,
	}
}

// Latest returns at most limit articles for ticker, newest first. The result
// is never nil.
func (s *Service) Latest(ctx context.Context, ticker string) ([]upstream.Article, error) {
	sym, err := symbol.Normalize(ticker)
	if err != nil {
		return nil, err
	}
	if s.source == nil {
		return nil, ErrNotConfigured
	}

	if s.cache != nil {
		cached, err := s.cache.GetNews(ctx, sym)
		if err != nil {
			slog.Warn("News cache read failed", "ticker", sym, "error", err)
		} else if cached != nil {
			slog.Debug("News cache hit", "ticker", sym)
			return cached, nil
		}
	}

	// Concurrent requests for one ticker share a single upstream call, which
	// outlives any one caller's cancellation.
	v, err, _ := s.group.Do(sym, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		articles, err := s.source.News(fctx, sym, s.limit)
		if err != nil {
			return nil, fmt.Errorf("fetch news for %s: %w", sym, err)
		}
		articles = newestFirst(articles, s.limit)

		if s.cache != nil {
			if err := s.cache.SetNews(fctx, sym, articles); err != nil {
				slog.Warn("News cache write failed", "ticker", sym, "error", err)
			}
		}
		return articles, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]upstream.Article), nil
}

func newestFirst(articles []upstream.Article, limit int) []upstream.Article {
	out := make([]upstream.Article, len(articles))
	copy(out, articles)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
