package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SteamType enum constants
const (
	SteamTypeLight  = "light"
	SteamTypeMiddle = "middle"
	SteamTypeDeep   = "deep"
)

// Tea is a catalog entry. It becomes visible to customers once PublishedAt is
// set to a time in the past and at least one of its products is available.
type Tea struct {
	ID           uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string       `gorm:"type:varchar(100);not null" json:"name"`
	SteamType    string       `gorm:"type:varchar(20);not null" json:"steam_type"` // light, middle, deep
	Origin       string       `gorm:"type:varchar(100)" json:"origin"`
	Description  string       `gorm:"type:text" json:"description"`
	CaffeineFree bool         `gorm:"not null;default:false" json:"caffeine_free"`
	PublishedAt  *time.Time   `gorm:"index" json:"published_at"`
	Products     []TeaProduct `gorm:"foreignKey:TeaID" json:"products,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsPublished reports whether the tea is visible at the given instant.
func (t *Tea) IsPublished(now time.Time) bool {
	return t.PublishedAt != nil && t.PublishedAt.Before(now)
}

// FavoriteTea links a user to a tea they marked as favorite.
// The (user, tea) pair is unique; adding twice is a no-op.
type FavoriteTea struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_tea" json:"user_id"`
	TeaID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_tea;index" json:"tea_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TeaReview is a rating with optional text, one per user per tea.
type TeaReview struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_tea" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	TeaID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_review_user_tea;index" json:"tea_id"`
	Rating    int       `gorm:"type:int;not null" json:"rating"` // 1..5
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Stars renders the rating as filled and empty stars.
func (r *TeaReview) Stars() string {
	if r.Rating < 1 || r.Rating > 5 {
		return ""
	}
	return strings.Repeat("★", r.Rating) + strings.Repeat("☆", 5-r.Rating)
}
