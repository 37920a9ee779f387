package ledger

import (
	"context"

	"github.com/BruksfildServices01/haircut-booking/internal/audit"
	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/haircut-booking/internal/models"
)

type Cancel struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewCancel(repo domain.Repository, audit *audit.Dispatcher) *Cancel {
	return &Cancel{repo: repo, audit: audit}
}

// Execute deletes the user's appointment and returns its time to the
// day, creating the day when it has no document yet.
func (uc *Cancel) Execute(ctx context.Context, actorID, userID string) (*models.Appointment, error) {
	if userID == "" {
		return nil, domain.ErrMissingFields
	}

	var removed *models.Appointment
	err := runInTx(ctx, uc.repo, func(ctx context.Context, tx domain.Tx) error {
		ap, err := tx.FindAppointmentByUser(ctx, userID)
		if err != nil {
			return err
		}
		if ap == nil {
			return domain.ErrNotFound
		}

		day, err := tx.GetDay(ctx, ap.Date)
		if err != nil {
			return err
		}
		day = dayOrNew(day, ap.Date)

		if err := tx.DeleteAppointment(ctx, ap); err != nil {
			return err
		}

		setTimes(day, domain.InsertTime(domain.NormalizeTimes(day.TimeList()), ap.Time))
		if err := tx.SaveDay(ctx, day); err != nil {
			return err
		}

		removed = ap
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  actorID,
		Action:   "appointment_cancelled",
		Entity:   "appointment",
		EntityID: removed.ID,
		Metadata: map[string]string{"userId": removed.UserID, "date": removed.Date, "time": removed.Time},
	})

	return removed, nil
}
