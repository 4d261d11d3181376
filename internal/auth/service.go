// Package auth is the credential store: registration and password checks.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"finance_tracker/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt ignores anything longer
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,50}$`)

// UsersCache is dropped whenever the set of users or their roles changes
type UsersCache interface {
	Invalidate(ctx context.Context) error
}

// Service registers and authenticates users
type Service struct {
	db             *gorm.DB
	defaultBalance decimal.Decimal
	cost           int
	dummyHash      []byte // compared against when the user does not exist
	usersCache     UsersCache
}

// NewService creates a credential store. New users start with defaultBalance.
func NewService(db *gorm.DB, defaultBalance decimal.Decimal) *Service {
	return newService(db, defaultBalance, bcrypt.DefaultCost)
}

func newService(db *gorm.DB, defaultBalance decimal.Decimal, cost int) *Service {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &Service{db: db, defaultBalance: defaultBalance, cost: cost, dummyHash: dummy}
}

// SetUsersCache makes Register and Promote invalidate cache
func (s *Service) SetUsersCache(cache UsersCache) {
	s.usersCache = cache
}

func (s *Service) invalidateUsers(ctx context.Context) {
	if s.usersCache == nil {
		return
	}
	if err := s.usersCache.Invalidate(ctx); err != nil {
		logrus.WithField("error", err.Error()).Warn("Failed to invalidate users cache")
	}
}

// normalize lower-cases the login key so uniqueness is case-insensitive
func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Register stores a new user with a bcrypt hash of password
func (s *Service) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = normalize(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username", domain.ErrMissingField)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password", domain.ErrMissingField)
	}
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 3-50 letters, digits, '_', '.' or '-'", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return nil, fmt.Errorf("%w: password must be %d-%d bytes", domain.ErrInvalidInput, minPasswordLen, maxPasswordLen)
	}

	db := s.db.WithContext(ctx)
	exists, err := s.usernameTaken(db, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateLogin
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{Username: username, Password: string(hash), Role: domain.RoleUser, Balance: s.defaultBalance}
	if err := db.Create(&user).Error; err != nil {
		// Lost a race with a concurrent registration of the same name
		if taken, _ := s.usernameTaken(db, username); taken || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrDuplicateLogin
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("User registered")
	s.invalidateUsers(ctx)
	return &user, nil
}

func (s *Service) usernameTaken(db *gorm.DB, username string) (bool, error) {
	var count int64
	if err := db.Model(&domain.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return count > 0, nil
}

// Authenticate verifies username and password. Unknown users and wrong
// passwords both yield domain.ErrInvalidCredentials after a bcrypt compare.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = normalize(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	var user domain.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return &user, nil
}

// GetUser loads a user by id
func (s *Service) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// Promote grants the admin role to username
func (s *Service) Promote(ctx context.Context, username string) error {
	db := s.db.WithContext(ctx)
	var user domain.User
	err := db.Where("username = ?", normalize(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if err := db.Model(&user).Update("role", domain.RoleAdmin).Error; err != nil {
		return fmt.Errorf("promote user: %w", err)
	}
	logrus.WithField("user_id", user.ID).Info("User promoted to admin")
	s.invalidateUsers(ctx)
	return nil
}
