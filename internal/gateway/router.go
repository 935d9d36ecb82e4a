package gateway

import (
	"github.com/gin-gonic/gin"
)

// NewRouter wires the API routes onto a gin engine.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(), CORS(), LimitBody(maxBodyBytes))

	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/stock/:ticker", h.GetStock)
		api.GET("/news/:ticker", h.GetNews)
		api.POST("/signup", h.Signup)
		api.POST("/signin", h.Signin)

		user := api.Group("/user")
		user.POST("/add-stock", h.AddStock)
		user.DELETE("/remove-stock", h.RemoveStock)
		user.GET("/stocks/:email", h.ListStocks)
	}

	return router
}
