package domain

import (
	"time"

	"github.com/shopspring/decimal" // Exact money arithmetic
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User Model
type User struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                                   // Primary key
	Username    string          `gorm:"size:50;uniqueIndex;not null" json:"username"`           // Unique login key
	Password    string          `gorm:"not null" json:"-"`                                      // bcrypt hash, never serialized
	Role        string          `gorm:"size:16;default:user" json:"role"`                       // Role: user or admin
	Balance     decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"balance"`   // Running cash balance
	Investments []Investment    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"` // Ledger entries owned by the user
	CreatedAt   time.Time       `json:"created_at"`                                             // Registration time
}
