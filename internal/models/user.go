// Package models contains data models for the contacts service.
package models

import "time"

// User represents a registered account that owns contacts.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:50"`
	Email        string    `json:"email" gorm:"size:150;uniqueIndex;not null"`
	Password     string    `json:"-" gorm:"column:password;size:255;not null"`
	RefreshToken *string   `json:"-" gorm:"column:refresh_token;type:text"`
	Avatar       *string   `json:"avatar" gorm:"size:255"`
	Confirmed    bool      `json:"confirmed" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for the User model.
func (User) TableName() string {
	return "users"
}
