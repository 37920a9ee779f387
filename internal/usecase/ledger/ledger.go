// Package ledger holds the slot ledger use cases: moving HH:MM slots
// between a day's free list and the users' appointments.
package ledger

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"

	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/haircut-booking/internal/models"
	"github.com/BruksfildServices01/haircut-booking/internal/timezone"
	"github.com/BruksfildServices01/haircut-booking/internal/validators"
)

// maxAttempts bounds the retries of a transaction that lost a
// compare-and-swap race.
const maxAttempts = 3

// Clock yields the current instant in the shop location.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func NewClock(loc *time.Location) Clock {
	return Clock{Location: loc, Now: time.Now}
}

func (c Clock) now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = timezone.Location("")
	}
	if c.Now == nil {
		return time.Now().In(loc)
	}
	return c.Now().In(loc)
}

func (c Clock) location() *time.Location {
	if c.Location == nil {
		return timezone.Location("")
	}
	return c.Location
}

// runInTx re-runs fn from scratch when the store reports a lost
// compare-and-swap. fn must not keep state across attempts.
func runInTx(
	ctx context.Context,
	repo domain.Repository,
	fn func(ctx context.Context, tx domain.Tx) error,
) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = repo.RunInTx(ctx, fn)
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

func validateDate(date string) error {
	if date == "" {
		return domain.ErrMissingFields
	}
	if !validators.IsDate(date) {
		return domain.ErrInvalidDate
	}
	return nil
}

func validateTime(hhmm string) error {
	if hhmm == "" {
		return domain.ErrMissingFields
	}
	if !validators.IsHHMM(hhmm) {
		return domain.ErrInvalidTime
	}
	return nil
}

func validateSlot(userID, date, hhmm string) error {
	if userID == "" || date == "" || hhmm == "" {
		return domain.ErrMissingFields
	}
	if err := validateDate(date); err != nil {
		return err
	}
	return validateTime(hhmm)
}

// dayOrNew returns a writable day for date. Version 0 marks a day that
// does not exist in the store yet.
func dayOrNew(day *models.AvailableDay, date string) *models.AvailableDay {
	if day != nil {
		return day
	}
	return &models.AvailableDay{Date: date}
}

func setTimes(day *models.AvailableDay, times []string) {
	day.Times = datatypes.JSONSlice[string](times)
}
