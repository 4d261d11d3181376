package api

import (
	"time" // Session lifetime

	"finance_tracker/internal/auth"       // Credential store
	"finance_tracker/internal/ledger"     // Ledger and balance
	"finance_tracker/internal/middleware" // Custom package for middleware
	"finance_tracker/internal/session"    // Server-side sessions
	"finance_tracker/internal/utils"      // Cache

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// Deps are the services the HTTP surface delegates to
type Deps struct {
	DB         *gorm.DB
	Creds      *auth.Service
	Ledger     *ledger.Service
	Sessions   session.Store
	Cipher     ledger.AssetCipher
	UsersCache *utils.Cache

	JWTSecret  string
	SessionTTL time.Duration

	LoginRateLimit float64
	LoginRateBurst int
}

// NewRouter registers every route on a fresh gin engine
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", HealthHandler)

	// Auth routes, throttled per client
	throttle := middleware.RateLimitMiddleware(d.LoginRateLimit, d.LoginRateBurst)
	r.POST("/register", throttle, RegisterHandler(d.Creds))
	r.POST("/login", throttle, LoginHandler(d.Creds, d.Sessions, d.JWTSecret, d.SessionTTL))

	// Routes bound to a live session
	requireSession := middleware.SessionAuthMiddleware(d.JWTSecret, d.Sessions)
	authed := r.Group("", requireSession)
	authed.POST("/logout", LogoutHandler(d.Sessions))
	authed.GET("/me", MeHandler(d.Creds))
	authed.POST("/add_investment", AddInvestmentHandler(d.Ledger, d.UsersCache))
	authed.GET("/holdings", HoldingsHandler(d.Ledger))

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin", requireSession, middleware.AdminOnlyMiddleware(d.DB))
	adminGroup.GET("/users", ListUsersHandler(d.DB, d.UsersCache))
	adminGroup.GET("/investments", ListInvestmentsHandler(d.DB, d.Cipher))

	return r
}
