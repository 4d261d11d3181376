package api

import (
	"net/http" // HTTP status codes

	"finance_tracker/internal/domain"     // Domain models
	"finance_tracker/internal/ledger"     // Ledger and balance
	"finance_tracker/internal/middleware" // Request-bound user
	"finance_tracker/internal/utils"      // Cache

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Exact amounts
	"github.com/sirupsen/logrus"    // Logging library
)

// AddInvestmentRequest is the body of /add_investment. Amount accepts a JSON number or string.
type AddInvestmentRequest struct {
	Asset  string           `json:"asset"`
	Amount *decimal.Decimal `json:"amount"`
	Type   string           `json:"type"`
	Date   string           `json:"date"`
}

// HoldingResponse is one decrypted entry
type HoldingResponse struct {
	ID     uint    `json:"id"`
	Asset  string  `json:"asset"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
	Date   string  `json:"date"`
}

// HoldingsResponse is the caller's balance and entries
type HoldingsResponse struct {
	Holdings []HoldingResponse `json:"holdings"`
	Balance  float64           `json:"balance"`
	Skipped  int               `json:"skipped"`
}

func toHoldingResponse(h ledger.Holding) HoldingResponse {
	return HoldingResponse{
		ID:     h.ID,
		Asset:  h.Asset,
		Amount: h.Amount.InexactFloat64(),
		Type:   string(h.Type),
		Date:   h.Date,
	}
}

// AddInvestmentHandler records a buy or sell for the caller.
// usersCache, when set, is invalidated because balances changed.
func AddInvestmentHandler(svc *ledger.Service, usersCache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			respondError(c, domain.ErrUnauthenticated)
			return
		}
		var req AddInvestmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.Amount == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrMissingField.Error() + ": amount"})
			return
		}
		ctx := c.Request.Context()
		receipt, err := svc.AddEntry(ctx, userID, ledger.EntryInput{
			Asset:  req.Asset,
			Type:   domain.InvestmentType(req.Type),
			Amount: *req.Amount,
			Date:   req.Date,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		if usersCache != nil {
			if err := usersCache.Invalidate(ctx); err != nil {
				logrus.WithField("error", err.Error()).Warn("Failed to invalidate users cache")
			}
		}
		c.JSON(http.StatusCreated, gin.H{
			"message":    "Investment added successfully",
			"investment": toHoldingResponse(receipt.Entry),
			"balance":    receipt.Balance.InexactFloat64(),
		})
	}
}

// HoldingsHandler lists the caller's decrypted entries and balance
func HoldingsHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			respondError(c, domain.ErrUnauthenticated)
			return
		}
		holdings, err := svc.ListHoldings(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		resp := HoldingsResponse{
			Holdings: make([]HoldingResponse, len(holdings.Entries)),
			Balance:  holdings.Balance.InexactFloat64(),
			Skipped:  holdings.Skipped,
		}
		for i, h := range holdings.Entries {
			resp.Holdings[i] = toHoldingResponse(h)
		}
		c.JSON(http.StatusOK, resp)
	}
}
