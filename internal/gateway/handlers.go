package gateway

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tiongMax/stocktracker/internal/events"
	"github.com/tiongMax/stocktracker/internal/store"
	"github.com/tiongMax/stocktracker/internal/symbol"
)

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	tickers    TickerFetcher
	news       NewsFetcher
	accounts   AccountStore
	watchlists WatchlistStore
	publisher  events.Publisher
	health     HealthReporter
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(tickers TickerFetcher, news NewsFetcher, accounts AccountStore, watchlists WatchlistStore, publisher events.Publisher, health HealthReporter) *Handler {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Handler{
		tickers:    tickers,
		news:       news,
		accounts:   accounts,
		watchlists: watchlists,
		publisher:  publisher,
		health:     health,
	}
}

// GetStock handles GET /api/stock/:ticker
// Returns the merged price history, quote and profile for a ticker.
func (h *Handler) GetStock(c *gin.Context) {
	ticker := c.Param("ticker")

	rec, err := h.tickers.Fetch(c.Request.Context(), ticker)
	if err != nil {
		writeError(c, err, "Failed to fetch stock data", "ticker", ticker)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// GetNews handles GET /api/news/:ticker
func (h *Handler) GetNews(c *gin.Context) {
	ticker := c.Param("ticker")

	articles, err := h.news.Latest(c.Request.Context(), ticker)
	if err != nil {
		writeError(c, err, "Failed to fetch news", "ticker", ticker)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": articles})
}

// Signup handles POST /api/signup
func (h *Handler) Signup(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid signup payload")
		return
	}

	user, err := h.accounts.CreateUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err, "Signup failed", "email", store.NormalizeEmail(req.Email))
		return
	}

	slog.Info("User registered", "user_id", user.ID, "email", user.Email)
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// Signin handles POST /api/signin
func (h *Handler) Signin(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid signin payload")
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err, "Signin failed", "email", store.NormalizeEmail(req.Email))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "email": user.Email})
}

// AddStock handles POST /api/user/add-stock
func (h *Handler) AddStock(c *gin.Context) {
	h.mutateWatchlist(c, events.TickerAdded, h.watchlists.AddTicker)
}

// RemoveStock handles DELETE /api/user/remove-stock
func (h *Handler) RemoveStock(c *gin.Context) {
	h.mutateWatchlist(c, events.TickerRemoved, h.watchlists.RemoveTicker)
}

func (h *Handler) mutateWatchlist(c *gin.Context, typ events.Type, mutate func(ctx context.Context, email, ticker string) error) {
	var req WatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "Invalid watchlist payload")
		return
	}

	sym, err := symbol.Normalize(req.Ticker)
	if err != nil {
		writeError(c, err, "Invalid ticker", "ticker", req.Ticker)
		return
	}
	email := store.NormalizeEmail(req.Email)

	if err := mutate(c.Request.Context(), email, sym); err != nil {
		writeError(c, err, "Watchlist update failed", "email", email, "ticker", sym, "type", typ)
		return
	}

	// The change is committed; a lost event must not turn it into a failure.
	ev := events.NewWatchlistEvent(typ, email, sym)
	if err := h.publisher.PublishWatchlistChange(c.Request.Context(), ev); err != nil {
		slog.Error("Failed to publish watchlist event", "event_id", ev.ID, "email", email, "ticker", sym, "error", err)
	}

	slog.Info("Watchlist updated", "email", email, "ticker", sym, "type", typ)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListStocks handles GET /api/user/stocks/:email
func (h *Handler) ListStocks(c *gin.Context) {
	email := store.NormalizeEmail(c.Param("email"))

	tickers, err := h.watchlists.ListTickers(c.Request.Context(), email)
	if err != nil {
		writeError(c, err, "Failed to list watchlist", "email", email)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stocks": tickers})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	report := h.health.Report(c.Request.Context())
	c.JSON(report.HTTPStatus(), report)
}
