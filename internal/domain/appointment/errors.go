package appointment

import "github.com/BruksfildServices01/haircut-booking/internal/httperr"

// ===============================
// Business errors
// ===============================

var (
	ErrMissingFields      = httperr.ErrBusiness("missing_fields")
	ErrInvalidDate        = httperr.ErrBusiness("invalid_date")
	ErrInvalidTime        = httperr.ErrBusiness("invalid_time")
	ErrInvalidMode        = httperr.ErrBusiness("invalid_mode")
	ErrTimeNotAvailable   = httperr.ErrBusiness("time_not_available")
	ErrAlreadyBooked      = httperr.ErrBusiness("already_booked")
	ErrNotFound           = httperr.ErrNotFound("appointment_not_found")
	ErrRescheduleNotFound = httperr.ErrNotFound("reschedule_not_found")
)
