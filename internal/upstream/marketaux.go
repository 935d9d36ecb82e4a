package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

const marketauxBaseURL = "https://api.marketaux.com"

// Marketaux serves ticker news.
type Marketaux struct {
	*options
	apiKey string
}

// NewMarketaux creates a Marketaux client authenticated with apiKey.
func NewMarketaux(apiKey string, opts ...Option) *Marketaux {
	return &Marketaux{options: newOptions(marketauxBaseURL, opts), apiKey: apiKey}
}

type marketauxResponse struct {
	Data []Article `json:"data"`
}

// News returns up to limit articles mentioning symbol.
func (m *Marketaux) News(ctx context.Context, symbol string, limit int) ([]Article, error) {
	q := url.Values{}
	q.Set("symbols", symbol)
	q.Set("filter_entities", "true")
	q.Set("language", "en")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("api_token", m.apiKey)
	u := fmt.Sprintf("%s/v1/news/all?%s", m.baseURL, q.Encode())

	var resp marketauxResponse
	if err := m.getJSON(ctx, "marketaux", "news", symbol, u, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []Article{}, nil
	}
	return resp.Data, nil
}
