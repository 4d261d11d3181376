package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentType is the direction of a ledger entry
type InvestmentType string

const (
	Buy  InvestmentType = "Buy"
	Sell InvestmentType = "Sell"
)

// Valid reports whether t is Buy or Sell
func (t InvestmentType) Valid() bool {
	return t == Buy || t == Sell
}

// Delta is the balance change an entry of this type and amount causes
func (t InvestmentType) Delta(amount decimal.Decimal) decimal.Decimal {
	if t == Sell {
		return amount.Neg()
	}
	return amount
}

// Investment Model (one ledger entry). Asset holds ciphertext, never plaintext.
type Investment struct {
	ID        uint            `gorm:"primaryKey"`                             // Primary key
	UserID    uint            `gorm:"index;not null"`                         // Owning user
	Asset     string          `gorm:"type:text;not null"`                     // Encrypted asset name
	Type      InvestmentType  `gorm:"column:investment_type;size:8;not null"` // Buy or Sell
	Amount    decimal.Decimal `gorm:"type:decimal(20,8);not null"`            // Positive amount
	Date      string          `gorm:"size:50;not null"`                       // Date as submitted
	CreatedAt time.Time       `gorm:"autoCreateTime"`                         // Recorded at
}
