package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	MaxDescriptionLength = 500
	MaxTagLength         = 50
	MaxTags              = 20
)

var (
	ErrInvalidCategory    = errors.New("invalid expense category")
	ErrNegativeAmount     = errors.New("expense amount must not be negative")
	ErrDescriptionMissing = errors.New("expense description is required")
	ErrDescriptionTooLong = fmt.Errorf("expense description must be at most %d characters", MaxDescriptionLength)
	ErrOwnerMissing       = errors.New("expense owner is required")
	ErrDateMissing        = errors.New("expense date is required")
)

// Expense is a single spending record owned by one user
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Category    string          `gorm:"type:varchar(30);not null;index" json:"category"`
	Description string          `gorm:"type:varchar(500);not null" json:"description"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Tags        StringList      `gorm:"type:text" json:"tags"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = now
	}
	e.Date = e.Date.UTC()

	return e.Validate()
}

func (e *Expense) BeforeUpdate(tx *gorm.DB) error {
	e.UpdatedAt = time.Now().UTC()
	e.Date = e.Date.UTC()
	return e.Validate()
}

func (e *Expense) Validate() error {
	if e.UserID == uuid.Nil {
		return ErrOwnerMissing
	}

	if e.Amount.IsNegative() {
		return ErrNegativeAmount
	}

	if !IsValidCategory(e.Category) {
		return fmt.Errorf("%w: %s", ErrInvalidCategory, e.Category)
	}

	if strings.TrimSpace(e.Description) == "" {
		return ErrDescriptionMissing
	}

	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}

	if e.Date.IsZero() {
		return ErrDateMissing
	}

	if len(e.Tags) > MaxTags {
		return fmt.Errorf("at most %d tags are allowed", MaxTags)
	}
	for _, tag := range e.Tags {
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return fmt.Errorf("tag %q exceeds %d characters", tag, MaxTagLength)
		}
	}

	return nil
}

// IsOwnedBy reports whether the expense belongs to the given user
func (e *Expense) IsOwnedBy(userID uuid.UUID) bool {
	return e.UserID == userID
}

func (e *Expense) TableName() string {
	return "expenses"
}
