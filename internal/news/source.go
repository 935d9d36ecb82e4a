package news

import (
	"context"

	"github.com/tiongMax/stocktracker/internal/upstream"
)

// Source fetches articles for a ticker.
//
//go:generate mockgen -package=news_test -destination=mock_source_test.go -source=source.go
type Source interface {
	News(ctx context.Context, symbol string, limit int) ([]upstream.Article, error)
}

// Cache stores recent article lists. GetNews returns nil, nil on a miss.
type Cache interface {
	GetNews(ctx context.Context, ticker string) ([]upstream.Article, error)
	SetNews(ctx context.Context, ticker string, articles []upstream.Article) error
}
