package models

import (
	"time"

	"gorm.io/datatypes"
)

// AvailableDay holds the free HH:MM slots of one calendar date, sorted
// ascending without duplicates. Version increases on every write and is
// the compare-and-swap token for concurrent writers.
type AvailableDay struct {
	Date    string                     `gorm:"primaryKey;size:10" json:"date"`
	Times   datatypes.JSONSlice[string] `gorm:"not null" json:"times"`
	Version int64                      `gorm:"not null;default:0" json:"-"`

	UpdatedAt time.Time `json:"updatedAt"`
}

func (AvailableDay) TableName() string { return "available_times" }

// TimeList returns the slots as a plain slice, never nil.
func (d *AvailableDay) TimeList() []string {
	if d == nil || len(d.Times) == 0 {
		return []string{}
	}
	out := make([]string, len(d.Times))
	copy(out, d.Times)
	return out
}
