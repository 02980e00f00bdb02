package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Username string `gorm:"unique;not null" json:"username"` // stored lowercase
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"default:user" json:"role"`

	// Profile card fields
	Tag       string    `json:"tag"`
	Rank      string    `gorm:"default:Commuter" json:"rank"`
	Badge     string    `gorm:"default:Unverified" json:"badge"`
	Notes     string    `json:"notes"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
