package models

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultCurrency = "INR"
	DefaultLanguage = "en"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

type User struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	GoogleID    string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"-"`
	Email       string     `gorm:"type:varchar(255);index;not null" json:"email"`
	Name        string     `gorm:"type:varchar(255)" json:"name"`
	Avatar      string     `gorm:"type:text" json:"avatar,omitempty"`
	Currency    string     `gorm:"type:varchar(3);not null;default:'INR'" json:"currency"`
	Language    string     `gorm:"type:varchar(10);not null;default:'en'" json:"language"`
	LastLoginAt *time.Time `gorm:"index" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`

	Expenses          []Expense          `gorm:"foreignKey:UserID" json:"-"`
	BlacklistedTokens []BlacklistedToken `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Currency == "" {
		u.Currency = DefaultCurrency
	}
	if u.Language == "" {
		u.Language = DefaultLanguage
	}

	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	return u.Validate()
}

func (u *User) BeforeUpdate(tx *gorm.DB) error {
	// map-based updates carry no full struct to validate
	if tx.Statement.Dest != nil {
		if _, ok := tx.Statement.Dest.(map[string]interface{}); ok {
			return nil
		}
	}
	return u.Validate()
}

func (u *User) Validate() error {
	if u.GoogleID == "" {
		return errors.New("google id is required")
	}

	if u.Email == "" {
		return errors.New("email is required")
	}

	if !emailRegex.MatchString(u.Email) {
		return errors.New("invalid email format")
	}

	if !currencyRegex.MatchString(u.Currency) {
		return errors.New("currency must be a three-letter ISO code")
	}

	return nil
}

// ApplyProfile refreshes the provider-owned fields from a fresh sign-in
func (u *User) ApplyProfile(profile *IdentityProfile) {
	u.Email = profile.Email
	if profile.Name != "" {
		u.Name = profile.Name
	}
	if profile.Picture != "" {
		u.Avatar = profile.Picture
	}
}

func (u *User) UpdateLastLogin() {
	now := time.Now().UTC()
	u.LastLoginAt = &now
}

func (u *User) TableName() string {
	return "users"
}
