package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email              string    `gorm:"type:text;uniqueIndex;not null" json:"email"`
	DisplayName        string    `gorm:"type:text;not null" json:"display_name"`
	PasswordHash       string    `gorm:"type:text;not null" json:"-"`
	IsAdmin            bool      `gorm:"not null;default:false" json:"is_admin"`
	MustChangePassword bool      `gorm:"not null;default:false" json:"must_change_password"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Role is the label shown in the admin user listing.
func (u User) Role() string {
	if u.IsAdmin {
		return "admin"
	}
	return "user"
}
