package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role values. Moderators may read and delete other users' reviews and
// comments; admins (and superusers) may do anything.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ValidRole reports whether s is one of the known role values.
func ValidRole(s string) bool {
	return s == RoleUser || s == RoleModerator || s == RoleAdmin
}

type User struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Username    string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email       string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	FirstName   *string   `gorm:"size:30" json:"first_name,omitempty"`
	LastName    *string   `gorm:"size:150" json:"last_name,omitempty"`
	Bio         *string   `gorm:"type:text" json:"bio,omitempty"`
	Role        string    `gorm:"size:9;default:'user';not null" json:"role"`
	IsSuperuser bool      `gorm:"default:false;not null" json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = RoleUser
	}
	return
}

// IsAdmin reports whether the user holds admin privileges, either via
// the admin role or the superuser flag.
func (user *User) IsAdmin() bool {
	return user.Role == RoleAdmin || user.IsSuperuser
}

func (User) TableName() string {
	return "users"
}
