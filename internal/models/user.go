package models

import "time"

// User backs the local identity provider. With the firebase backend
// user records live in Firebase Auth and this table stays empty.
type User struct {
	UID string `gorm:"primaryKey;size:128" json:"uid"`

	DisplayName  string `gorm:"size:100" json:"displayName"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	IsAdmin      bool   `gorm:"not null;default:false" json:"isAdmin"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
