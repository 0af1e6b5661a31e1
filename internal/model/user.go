package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a shop customer. Accounts start inactive and unverified; the
// verification token sent by email activates them.
type User struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email              string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Nickname           string         `gorm:"type:varchar(30)" json:"nickname"`
	PasswordHash       string         `gorm:"type:varchar(255);not null" json:"-"`
	Role               string         `gorm:"type:varchar(20);not null;default:'customer'" json:"role"` // customer, admin
	IsActive           bool           `gorm:"not null;default:false" json:"is_active"`
	IsEmailVerified    bool           `gorm:"not null;default:false" json:"is_email_verified"`
	VerificationToken  uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"-"`
	VerificationSentAt *time.Time     `json:"-"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// VerificationTokenTTL is how long an emailed verification link stays usable.
const VerificationTokenTTL = 24 * time.Hour

// IsVerificationTokenValid reports whether the current token is still inside
// its validity window. A user that was never sent an email has no window yet.
func (u *User) IsVerificationTokenValid(now time.Time) bool {
	if u.VerificationSentAt == nil {
		return true
	}
	return now.Before(u.VerificationSentAt.Add(VerificationTokenTTL))
}

// DisplayName returns the nickname, falling back to the local part of the email.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	for i := 0; i < len(u.Email); i++ {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}
