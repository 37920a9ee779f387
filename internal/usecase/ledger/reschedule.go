package ledger

import (
	"context"

	"github.com/BruksfildServices01/haircut-booking/internal/audit"
	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/haircut-booking/internal/models"
)

type RescheduleInput struct {
	ActorID string
	UserID  string
	NewDate string
	NewTime string
}

type Reschedule struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewReschedule(repo domain.Repository, audit *audit.Dispatcher) *Reschedule {
	return &Reschedule{repo: repo, audit: audit}
}

// Execute moves the user's appointment. The old time goes back to its
// day and the new time is taken out of the target day without checking
// that it was free: the admin's choice wins.
func (uc *Reschedule) Execute(ctx context.Context, in RescheduleInput) (*models.Appointment, error) {
	if err := validateSlot(in.UserID, in.NewDate, in.NewTime); err != nil {
		return nil, err
	}

	var (
		moved   *models.Appointment
		oldDate string
		oldTime string
	)
	err := runInTx(ctx, uc.repo, func(ctx context.Context, tx domain.Tx) error {
		ap, err := tx.FindAppointmentByUser(ctx, in.UserID)
		if err != nil {
			return err
		}
		if ap == nil {
			return domain.ErrRescheduleNotFound
		}

		oldDay, newDay, err := lockDays(ctx, tx, ap.Date, in.NewDate)
		if err != nil {
			return err
		}

		oldTimes := domain.InsertTime(domain.NormalizeTimes(oldDay.TimeList()), ap.Time)
		if newDay == oldDay {
			setTimes(oldDay, domain.RemoveTime(oldTimes, in.NewTime))
			if err := tx.SaveDay(ctx, oldDay); err != nil {
				return err
			}
		} else {
			setTimes(oldDay, oldTimes)
			if err := tx.SaveDay(ctx, oldDay); err != nil {
				return err
			}
			setTimes(newDay, domain.RemoveTime(newDay.TimeList(), in.NewTime))
			if err := tx.SaveDay(ctx, newDay); err != nil {
				return err
			}
		}

		oldDate, oldTime = ap.Date, ap.Time
		ap.Date = in.NewDate
		ap.Time = in.NewTime
		if err := tx.UpdateAppointment(ctx, ap); err != nil {
			return err
		}

		moved = ap
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  in.ActorID,
		Action:   "appointment_rescheduled",
		Entity:   "appointment",
		EntityID: moved.ID,
		Metadata: map[string]string{
			"userId":  moved.UserID,
			"oldDate": oldDate,
			"oldTime": oldTime,
			"newDate": moved.Date,
			"newTime": moved.Time,
		},
	})

	return moved, nil
}

// lockDays reads both days earliest date first, so reschedules running
// in opposite directions take the row locks in the same order. Both
// results are the same pointer when the dates match.
func lockDays(ctx context.Context, tx domain.Tx, oldDate, newDate string) (oldDay, newDay *models.AvailableDay, err error) {
	if oldDate == newDate {
		day, err := tx.GetDay(ctx, oldDate)
		if err != nil {
			return nil, nil, err
		}
		day = dayOrNew(day, oldDate)
		return day, day, nil
	}

	first, second := oldDate, newDate
	if second < first {
		first, second = second, first
	}

	a, err := tx.GetDay(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := tx.GetDay(ctx, second)
	if err != nil {
		return nil, nil, err
	}
	a, b = dayOrNew(a, first), dayOrNew(b, second)

	if first == oldDate {
		return a, b, nil
	}
	return b, a, nil
}
