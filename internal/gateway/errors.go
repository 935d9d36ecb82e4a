package gateway

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tiongMax/stocktracker/internal/aggregator"
	"github.com/tiongMax/stocktracker/internal/news"
	"github.com/tiongMax/stocktracker/internal/store"
	"github.com/tiongMax/stocktracker/internal/symbol"
)

// statusFor maps a component error to a response code and the message shown
// to the client. Server-side failures get a fixed message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, symbol.ErrInvalid),
		errors.Is(err, store.ErrInvalidEmail),
		errors.Is(err, store.ErrInvalidPassword):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, store.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, store.ErrUserExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, aggregator.ErrAllSourcesFailed):
		return http.StatusInternalServerError, "failed to fetch stock data"
	case errors.Is(err, news.ErrNotConfigured):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeError(c *gin.Context, err error, msg string, attrs ...any) {
	code, body := statusFor(err)
	attrs = append(attrs, "error", err, "status", code, "request_id", c.GetString(requestIDKey))
	if code >= http.StatusInternalServerError {
		slog.Error(msg, attrs...)
	} else {
		slog.Warn(msg, attrs...)
	}
	c.JSON(code, gin.H{"error": body})
}

// bindFailed answers a request whose JSON body could not be bound. A body cut
// off by LimitBody gets 413, anything else 400.
func bindFailed(c *gin.Context, err error, msg string) {
	slog.Warn(msg, "error", err, "request_id", c.GetString(requestIDKey))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
