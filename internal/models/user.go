package models

import (
	"time"

	"gorm.io/gorm"
)

// User mirrors the identity record managed by the upstream auth service.
// The quiz service only reads it for ownership checks and display names.
type User struct {
	ID       string `json:"id" gorm:"primaryKey;size:255"`
	FullName string `json:"full_name" gorm:"size:100"`
	Email    string `json:"email" gorm:"uniqueIndex;not null;size:255"`

	IsActive    bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
