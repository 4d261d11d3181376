// Package ledger records buy/sell entries and keeps each user's balance in step with them.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/events"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	maxAssetLen  = 100 // characters of plaintext
	amountPlaces = 8   // matches decimal(20,8)
)

// Largest amount a decimal(20,8) column holds
var maxAmount = decimal.New(1, 12)

var errBalanceChanged = errors.New("balance changed by a concurrent writer")

// AssetCipher encrypts the asset field at rest
type AssetCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// EntryInput is one buy or sell as submitted by the user
type EntryInput struct {
	Asset  string
	Type   domain.InvestmentType
	Amount decimal.Decimal
	Date   string
}

// Holding is the decrypted view of one ledger entry
type Holding struct {
	ID     uint                  `json:"id"`
	Asset  string                `json:"asset"`
	Amount decimal.Decimal       `json:"amount"`
	Type   domain.InvestmentType `json:"type"`
	Date   string                `json:"date"`
}

// Holdings is a user's balance and decrypted entries in insertion order.
// Skipped counts entries left out because they could not be decrypted.
type Holdings struct {
	Balance decimal.Decimal
	Entries []Holding
	Skipped int
}

// Receipt describes a committed entry and the balance it produced
type Receipt struct {
	Entry   Holding
	Balance decimal.Decimal
}

// Service is the ledger and balance calculator
type Service struct {
	db            *gorm.DB
	cipher        AssetCipher
	events        events.Publisher
	allowNegative bool

	muMap map[uint]*sync.Mutex // one mutex per user
	mapMu sync.Mutex           // protects muMap
}

// NewService creates a ledger. allowNegative decides whether a Sell may take a balance below zero.
func NewService(db *gorm.DB, cipher AssetCipher, publisher events.Publisher, allowNegative bool) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		db:            db,
		cipher:        cipher,
		events:        publisher,
		allowNegative: allowNegative,
		muMap:         make(map[uint]*sync.Mutex),
	}
}

func (s *Service) userLock(userID uint) *sync.Mutex {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	if _, ok := s.muMap[userID]; !ok {
		s.muMap[userID] = &sync.Mutex{}
	}
	return s.muMap[userID]
}

// Validate normalizes in and reports the first problem with it
func Validate(in EntryInput) (EntryInput, error) {
	if strings.TrimSpace(in.Asset) == "" {
		return in, fmt.Errorf("%w: asset", domain.ErrMissingField)
	}
	if !utf8.ValidString(in.Asset) || utf8.RuneCountInString(in.Asset) > maxAssetLen {
		return in, fmt.Errorf("%w: asset must be valid text of at most %d characters", domain.ErrInvalidInput, maxAssetLen)
	}
	if in.Type == "" {
		return in, fmt.Errorf("%w: type", domain.ErrMissingField)
	}
	if !in.Type.Valid() {
		return in, fmt.Errorf("%w: type must be Buy or Sell", domain.ErrInvalidInput)
	}
	in.Amount = in.Amount.Round(amountPlaces)
	if !in.Amount.IsPositive() {
		return in, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	if in.Amount.GreaterThanOrEqual(maxAmount) {
		return in, fmt.Errorf("%w: amount too large", domain.ErrInvalidInput)
	}
	in.Date = strings.TrimSpace(in.Date)
	if in.Date == "" {
		return in, fmt.Errorf("%w: date", domain.ErrMissingField)
	}
	if !validDate(in.Date) {
		return in, fmt.Errorf("%w: date must be YYYY-MM-DD or RFC 3339", domain.ErrInvalidInput)
	}
	return in, nil
}

func validDate(s string) bool {
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

// AddEntry persists one entry for userID and applies it to the balance in a single transaction.
// Buy adds the amount, Sell subtracts it. The new balance is computed in decimal, never by the database.
func (s *Service) AddEntry(ctx context.Context, userID uint, in EntryInput) (*Receipt, error) {
	in, err := Validate(in)
	if err != nil {
		return nil, err
	}
	ciphertext, err := s.cipher.Encrypt(in.Asset)
	if err != nil {
		return nil, fmt.Errorf("encrypt asset: %w", err)
	}

	entry, balance, err := s.commit(ctx, userID, in, ciphertext)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"entry_id": entry.ID,
		"type":     entry.Type,
		"amount":   entry.Amount.String(),
		"balance":  balance.String(),
	}).Info("Investment recorded")

	s.publish(ctx, entry, balance)

	return &Receipt{
		Entry: Holding{
			ID:     entry.ID,
			Asset:  in.Asset,
			Amount: entry.Amount,
			Type:   entry.Type,
			Date:   entry.Date,
		},
		Balance: balance,
	}, nil
}

// commit runs the balance update and the insert under the user's lock
func (s *Service) commit(ctx context.Context, userID uint, in EntryInput, ciphertext string) (domain.Investment, decimal.Decimal, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	var entry domain.Investment
	var balance decimal.Decimal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.Select("id", "balance").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
			}
			return err
		}

		next := user.Balance.Add(in.Type.Delta(in.Amount)).Round(amountPlaces)
		if next.IsNegative() && !s.allowNegative {
			return domain.ErrInsufficientBalance
		}
		// Compare-and-set so a writer in another process cannot be overwritten
		res := tx.Model(&domain.User{}).
			Where("id = ? AND balance = ?", userID, user.Balance).
			Update("balance", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errBalanceChanged
		}

		entry = domain.Investment{
			UserID: userID,
			Asset:  ciphertext,
			Type:   in.Type,
			Amount: in.Amount,
			Date:   in.Date,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		balance = next
		return nil
	})
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Add investment failed")
			return entry, balance, fmt.Errorf("add investment: %w", err)
		}
		return entry, balance, err
	}
	return entry, balance, nil
}

// publish emits the event without failing the request that produced it
func (s *Service) publish(ctx context.Context, entry domain.Investment, balance decimal.Decimal) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	event := events.InvestmentRecorded{
		EntryID:    entry.ID,
		UserID:     entry.UserID,
		Type:       string(entry.Type),
		Amount:     entry.Amount.String(),
		Date:       entry.Date,
		Balance:    balance.String(),
		RecordedAt: time.Now().UTC(),
	}
	if err := s.events.PublishInvestmentRecorded(ctx, event); err != nil {
		logrus.WithFields(logrus.Fields{
			"entry_id": entry.ID,
			"error":    err.Error(),
		}).Warn("Failed to publish investment event")
	}
}

// ListHoldings returns the balance and every decryptable entry of userID.
// Entries that fail to decrypt are omitted, logged and counted in Skipped.
func (s *Service) ListHoldings(ctx context.Context, userID uint) (*Holdings, error) {
	db := s.db.WithContext(ctx)
	var user domain.User
	if err := db.Select("id", "balance").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	var entries []domain.Investment
	if err := db.Where("user_id = ?", userID).Order("id asc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load investments: %w", err)
	}

	out := &Holdings{Balance: user.Balance, Entries: make([]Holding, 0, len(entries))}
	for _, e := range entries {
		asset, err := s.cipher.Decrypt(e.Asset)
		if err != nil {
			out.Skipped++
			logrus.WithFields(logrus.Fields{
				"user_id":  userID,
				"entry_id": e.ID,
				"error":    err.Error(),
			}).Warn("Skipping undecryptable investment")
			continue
		}
		out.Entries = append(out.Entries, Holding{
			ID:     e.ID,
			Asset:  asset,
			Amount: e.Amount,
			Type:   e.Type,
			Date:   e.Date,
		})
	}
	return out, nil
}
