package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a call-center agent. Orders reference agents by UID.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UID       string    `gorm:"size:128;uniqueIndex;not null" json:"uid"`
	UserName  string    `gorm:"size:255;not null" json:"user_name"`
	Email     string    `gorm:"size:255" json:"email"`
	Role      string    `gorm:"size:50;default:'agent'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}
