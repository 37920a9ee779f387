package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/haircut-booking/internal/audit"
	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/haircut-booking/internal/models"
)

type ReserveInput struct {
	UserID string
	Date   string
	Time   string
}

type Reserve struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	clock Clock
}

func NewReserve(repo domain.Repository, audit *audit.Dispatcher, clock Clock) *Reserve {
	return &Reserve{repo: repo, audit: audit, clock: clock}
}

// Execute books in.Time on in.Date for the user, taking the slot out of
// the day's free list in the same transaction.
func (uc *Reserve) Execute(ctx context.Context, in ReserveInput) (*models.Appointment, error) {
	if err := validateSlot(in.UserID, in.Date, in.Time); err != nil {
		return nil, err
	}

	var created *models.Appointment
	err := runInTx(ctx, uc.repo, func(ctx context.Context, tx domain.Tx) error {
		day, err := tx.GetDay(ctx, in.Date)
		if err != nil {
			return err
		}
		if day == nil || !domain.ContainsTime(day.TimeList(), in.Time) {
			return domain.ErrTimeNotAvailable
		}

		existing, err := tx.FindAppointmentByUser(ctx, in.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrAlreadyBooked
		}

		ap := &models.Appointment{
			ID:        uuid.NewString(),
			UserID:    in.UserID,
			Date:      in.Date,
			Time:      in.Time,
			CreatedAt: uc.clock.now(),
		}
		if err := tx.CreateAppointment(ctx, ap); err != nil {
			return err
		}

		setTimes(day, domain.RemoveTime(day.TimeList(), in.Time))
		if err := tx.SaveDay(ctx, day); err != nil {
			return err
		}

		created = ap
		return nil
	})
	if errors.Is(err, domain.ErrDuplicateAppointment) {
		return nil, domain.ErrAlreadyBooked
	}
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  in.UserID,
		Action:   "appointment_reserved",
		Entity:   "appointment",
		EntityID: created.ID,
		Metadata: map[string]string{"date": created.Date, "time": created.Time},
	})

	return created, nil
}
