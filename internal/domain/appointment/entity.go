package appointment

import (
	"time"

	"github.com/BruksfildServices01/haircut-booking/internal/models"
	"github.com/BruksfildServices01/haircut-booking/internal/timezone"
)

const HistoryReasonExpired = "expired"

// StartsAt resolves the appointment's wall-clock date and time in loc.
func StartsAt(ap *models.Appointment, loc *time.Location) (time.Time, error) {
	return timezone.ParseDateTime(ap.Date, ap.Time, loc)
}

// IsExpired reports whether now is past the appointment start. An
// appointment whose date/time cannot be parsed is never expired.
func IsExpired(ap *models.Appointment, now time.Time, loc *time.Location) bool {
	start, err := StartsAt(ap, loc)
	if err != nil {
		return false
	}
	return now.After(start)
}

func NewHistory(ap *models.Appointment, id string, now time.Time) *models.AppointmentHistory {
	return &models.AppointmentHistory{
		ID:            id,
		AppointmentID: ap.ID,
		UserID:        ap.UserID,
		Date:          ap.Date,
		Time:          ap.Time,
		Reason:        HistoryReasonExpired,
		CreatedAt:     ap.CreatedAt,
		RemovedAt:     now,
	}
}
