package api

import (
	"net/http" // HTTP status codes
	"time"     // Token lifetime

	"finance_tracker/internal/auth"       // Credential store
	"finance_tracker/internal/domain"     // Domain models
	"finance_tracker/internal/middleware" // Request-bound user
	"finance_tracker/internal/session"    // Server-side sessions
	"finance_tracker/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// CredentialsRequest is the body of /register and /login
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user; it never includes the password hash
type UserResponse struct {
	ID       uint    `json:"id"`
	Username string  `json:"username"`
	Role     string  `json:"role"`
	Balance  float64 `json:"balance"`
}

// LoginResponse carries the session token
type LoginResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		Balance:  u.Balance.InexactFloat64(),
	}
}

// RegisterHandler creates a new user
func RegisterHandler(creds *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CredentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := creds.Register(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": toUserResponse(user)})
	}
}

// LoginHandler authenticates a user and opens a session
func LoginHandler(creds *auth.Service, sessions session.Store, secret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CredentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		ctx := c.Request.Context()
		user, err := creds.Authenticate(ctx, req.Username, req.Password)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"username":  req.Username,
				"client_ip": c.ClientIP(),
			}).Warn("Login failed")
			respondError(c, err)
			return
		}
		sessionID, err := sessions.Create(ctx, user.ID, ttl)
		if err != nil {
			respondError(c, err)
			return
		}
		token, expiresAt, err := utils.GenerateJWT(user.ID, sessionID, secret, ttl)
		if err != nil {
			_ = sessions.Revoke(ctx, sessionID)
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":    user.ID,
			"session_id": sessionID,
		}).Info("User logged in")
		c.JSON(http.StatusOK, LoginResponse{
			Message:   "Login successful",
			Token:     token,
			ExpiresAt: expiresAt.UTC(),
			User:      toUserResponse(user),
		})
	}
}

// LogoutHandler ends the caller's session
func LogoutHandler(sessions session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.CurrentUserID(c)
		sessionID := c.GetString(middleware.SessionIDKey)
		if err := sessions.Revoke(c.Request.Context(), sessionID); err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":    userID,
			"session_id": sessionID,
		}).Info("User logged out")
		c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
	}
}

// MeHandler returns the caller's profile and balance
func MeHandler(creds *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			respondError(c, domain.ErrUnauthenticated)
			return
		}
		user, err := creds.GetUser(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toUserResponse(user))
	}
}

// HealthHandler reports liveness
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
