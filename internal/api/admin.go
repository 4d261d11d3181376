package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"finance_tracker/internal/domain" // Importing domain models
	"finance_tracker/internal/ledger" // Asset decryption
	"finance_tracker/internal/utils"  // Cache

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	usersCacheTTL   = 60 * time.Second
)

// pagination reads page and page_size from the query, falling back to defaults
func pagination(c *gin.Context) (page, pageSize int) {
	page, pageSize = 1, defaultPageSize
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(c.Query("page_size")); err == nil && v > 0 && v <= maxPageSize {
		pageSize = v
	}
	return page, pageSize
}

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID          uint      `json:"id"`          // User ID
	Username    string    `json:"username"`    // Username
	Role        string    `json:"role"`        // User role
	Balance     float64   `json:"balance"`     // Current balance
	Investments int64     `json:"investments"` // Number of ledger entries
	CreatedAt   time.Time `json:"created_at"`  // Registration time
}

// UsersPage is the cached body of /admin/users
type UsersPage struct {
	Users      []UserAdminResponse `json:"users"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	Total      int64               `json:"total"`
	TotalPages int                 `json:"total_pages"`
	Cached     bool                `json:"cached"`
}

// ListUsersHandler returns users with their balance and entry count
func ListUsersHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pagination(c)
		cacheKey := "page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)

		var cached UsersPage
		if found, err := cache.Get(ctx, cacheKey, &cached); err == nil && found {
			cached.Cached = true
			c.JSON(http.StatusOK, cached)
			return
		}

		tx := db.WithContext(ctx)
		var total int64
		if err := tx.Model(&domain.User{}).Count(&total).Error; err != nil {
			respondError(c, err)
			return
		}
		var users []domain.User
		if err := tx.Order("id asc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
			respondError(c, err)
			return
		}

		counts := make(map[uint]int64, len(users))
		if len(users) > 0 {
			ids := make([]uint, len(users))
			for i, u := range users {
				ids[i] = u.ID
			}
			var rows []struct {
				UserID uint
				N      int64
			}
			if err := tx.Model(&domain.Investment{}).
				Select("user_id, count(*) as n").
				Where("user_id IN ?", ids).
				Group("user_id").
				Scan(&rows).Error; err != nil {
				respondError(c, err)
				return
			}
			for _, r := range rows {
				counts[r.UserID] = r.N
			}
		}

		resp := UsersPage{
			Users:      make([]UserAdminResponse, len(users)),
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: (int(total) + pageSize - 1) / pageSize,
		}
		for i, u := range users {
			resp.Users[i] = UserAdminResponse{
				ID:          u.ID,
				Username:    u.Username,
				Role:        u.Role,
				Balance:     u.Balance.InexactFloat64(),
				Investments: counts[u.ID],
				CreatedAt:   u.CreatedAt,
			}
		}
		if err := cache.Set(ctx, cacheKey, resp, usersCacheTTL); err != nil {
			logrus.WithField("error", err.Error()).Warn("Failed to cache users page")
		}
		c.JSON(http.StatusOK, resp)
	}
}

// InvestmentAdminResponse is one ledger entry as seen by an admin.
// Asset is null when the entry cannot be decrypted.
type InvestmentAdminResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Asset     *string   `json:"asset"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// ListInvestmentsHandler returns ledger entries across users, optionally filtered by user_id and type.
// Decrypted assets are never cached.
func ListInvestmentsHandler(db *gorm.DB, cipher ledger.AssetCipher) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pagination(c)
		query := db.WithContext(c.Request.Context()).Model(&domain.Investment{})
		if userID := c.Query("user_id"); userID != "" {
			id, err := strconv.ParseUint(userID, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a number"})
				return
			}
			query = query.Where("user_id = ?", id)
		}
		if t := c.Query("type"); t != "" {
			if !domain.InvestmentType(t).Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "type must be Buy or Sell"})
				return
			}
			query = query.Where("investment_type = ?", t)
		}

		query = query.Session(&gorm.Session{}) // Reusable for count and page

		var total int64
		if err := query.Count(&total).Error; err != nil {
			respondError(c, err)
			return
		}
		var entries []domain.Investment
		if err := query.Order("id asc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&entries).Error; err != nil {
			respondError(c, err)
			return
		}

		resp := make([]InvestmentAdminResponse, len(entries))
		for i, e := range entries {
			resp[i] = InvestmentAdminResponse{
				ID:        e.ID,
				UserID:    e.UserID,
				Type:      string(e.Type),
				Amount:    e.Amount.InexactFloat64(),
				Date:      e.Date,
				CreatedAt: e.CreatedAt,
			}
			if asset, err := cipher.Decrypt(e.Asset); err == nil {
				resp[i].Asset = &asset
			} else {
				logrus.WithFields(logrus.Fields{"entry_id": e.ID, "error": err.Error()}).Warn("Admin listing: undecryptable investment")
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"investments": resp,
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": (int(total) + pageSize - 1) / pageSize,
		})
	}
}
