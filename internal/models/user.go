package models

import (
	"time"
)

// User mirrors a subject of the hosted identity provider.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExternalID string    `gorm:"size:128;uniqueIndex;not null" json:"-"` // token "sub"
	Username   string    `gorm:"not null" json:"username"`
	Email      string    `gorm:"index" json:"-"`
	Avatar     string    `json:"avatar"` // CDN URL
	Role       string    `gorm:"size:20;default:'user';not null" json:"role"` // user, admin
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
