package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/safar/cafe-pos/internal/apperr"
	"github.com/safar/cafe-pos/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type StaffAccount struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"not null;default:''"`
	Role         string `gorm:"not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (StaffAccount) TableName() string {
	return "staff_accounts"
}

// AccountStore verifies credentials against bcrypt hashes in
// staff_accounts.
type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Verify(ctx context.Context, username, password string) (Identity, error) {
	var account StaffAccount
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, errInvalidCredentials()
		}
		return Identity{}, apperr.Persistence("failed to verify credentials", fmt.Errorf("find account: %w", err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Identity{}, errInvalidCredentials()
	}

	name := account.Name
	if name == "" {
		name = account.Username
	}

	return Identity{Username: account.Username, Name: name, Role: account.Role}, nil
}

// EnsureAccount creates the account if no account with that username
// exists. Existing accounts are never modified. It reports whether a row
// was created.
func (s *AccountStore) EnsureAccount(ctx context.Context, username, password, role, name string) (bool, error) {
	if username == "" || password == "" {
		return false, apperr.Validation("username and password are required")
	}
	if !models.ValidRole(role) {
		return false, apperr.Validation(fmt.Sprintf("unknown role %q", role))
	}

	var existing StaffAccount
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, apperr.Persistence("failed to load account", fmt.Errorf("find account: %w", err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	account := StaffAccount{
		Username:     username,
		Name:         name,
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := s.db.WithContext(ctx).Create(&account).Error; err != nil {
		return false, apperr.Persistence("failed to create account", fmt.Errorf("create account: %w", err))
	}

	return true, nil
}
