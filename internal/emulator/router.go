package emulator

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the document-store and identity endpoints. The document
// API lives under /db and mirrors the hosted backend's addressing:
// /db/<collection>/<userId>[/<parentId>][/<id>].json?auth=<token>.
func NewRouter(logger *zap.Logger, docs DocumentStore, accounts *AccountService, tokens *TokenService) *gin.Engine {
	r := gin.New()
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	d := &documentHandler{docs: docs, tokens: tokens, logger: logger}
	db := r.Group("/db")
	db.POST("/:collection/:user", d.createDocument)
	db.GET("/:collection/:user", d.listCollection)
	db.POST("/:collection/:user/:a", d.createDocument)
	db.GET("/:collection/:user/:a", d.listCollection)
	db.PUT("/:collection/:user/:a", d.putDocument)
	db.DELETE("/:collection/:user/:a", d.deleteDocument)
	db.PUT("/:collection/:user/:a/:b", d.putDocument)
	db.DELETE("/:collection/:user/:a/:b", d.deleteDocument)

	i := &identityHandler{accounts: accounts, tokens: tokens, logger: logger}
	id := r.Group("/identity/v1")
	id.POST("/accounts/signup", i.signUp)
	id.POST("/accounts/signin", i.signIn)
	id.POST("/token", i.refresh)

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
		)
	}
}
