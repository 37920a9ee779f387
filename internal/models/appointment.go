package models

import "time"

// Appointment is an active booking. UserID is unique: a user holds at
// most one active appointment.
type Appointment struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	UserID string `gorm:"size:128;uniqueIndex;not null" json:"userId"`

	Date string `gorm:"size:10;index;not null" json:"date"` // YYYY-MM-DD
	Time string `gorm:"size:5;not null" json:"time"`        // HH:MM

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppointmentHistory is the write-once archive of an appointment that
// expired before being cancelled.
type AppointmentHistory struct {
	ID            string `gorm:"primaryKey;size:36" json:"id"`
	AppointmentID string `gorm:"size:36;index" json:"appointmentId"`
	UserID        string `gorm:"size:128;index;not null" json:"userId"`

	Date string `gorm:"size:10;not null" json:"date"`
	Time string `gorm:"size:5;not null" json:"time"`

	Reason string `gorm:"size:20;not null" json:"reason"`

	CreatedAt time.Time `json:"createdAt"`
	RemovedAt time.Time `json:"removedAt"`
}

func (AppointmentHistory) TableName() string { return "appointments_history" }
