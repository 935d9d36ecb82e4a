package upstream

import (
	"time"

	"github.com/guregu/null/v6"
)

// PricePoint is one daily close.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Quote is the live snapshot for a symbol. Any field may be missing upstream.
type Quote struct {
	Symbol    string
	Name      null.String
	Price     null.Float
	MarketCap null.Float
	PERatio   null.Float
}

// Profile carries descriptive company data.
type Profile struct {
	Sector   null.String
	Industry null.String
	Website  null.String
}

// Article is one news item, serialized in the shape clients already consume.
type Article struct {
	UUID        string    `json:"uuid"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}
