package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/haircut-booking/internal/audit"
	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/haircut-booking/internal/models"
)

// Archiver receives history records after they were committed to the
// store. Failures are logged, never returned to the caller.
type Archiver interface {
	Archive(ctx context.Context, h *models.AppointmentHistory) error
}

type GetAppointment struct {
	repo     domain.Repository
	audit    *audit.Dispatcher
	clock    Clock
	archiver Archiver
	logger   logrus.FieldLogger
}

func NewGetAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
	clock Clock,
	archiver Archiver,
	logger logrus.FieldLogger,
) *GetAppointment {
	return &GetAppointment{
		repo:     repo,
		audit:    audit,
		clock:    clock,
		archiver: archiver,
		logger:   logger,
	}
}

// Execute returns the user's active appointment, or nil. An appointment
// whose start is in the past is moved to history on the way and
// reported as absent. Its slot is not returned to the day.
func (uc *GetAppointment) Execute(ctx context.Context, userID string) (*models.Appointment, error) {
	if userID == "" {
		return nil, domain.ErrMissingFields
	}

	var (
		active  *models.Appointment
		history *models.AppointmentHistory
	)
	err := runInTx(ctx, uc.repo, func(ctx context.Context, tx domain.Tx) error {
		var err error
		active, history, err = expireIfPast(ctx, tx, userID, uc.clock)
		return err
	})
	if err != nil {
		return nil, err
	}

	if history != nil {
		afterExpiry(ctx, history, uc.audit, uc.archiver, uc.logger)
	}

	return active, nil
}

// expireIfPast loads the user's appointment and, when it already
// started, archives and deletes it. It returns the still-active
// appointment or the history record that replaced it.
func expireIfPast(
	ctx context.Context,
	tx domain.Tx,
	userID string,
	clock Clock,
) (*models.Appointment, *models.AppointmentHistory, error) {
	ap, err := tx.FindAppointmentByUser(ctx, userID)
	if err != nil || ap == nil {
		return nil, nil, err
	}

	now := clock.now()
	if !domain.IsExpired(ap, now, clock.location()) {
		return ap, nil, nil
	}

	h := domain.NewHistory(ap, uuid.NewString(), now)
	if err := tx.ArchiveAppointment(ctx, h); err != nil {
		return nil, nil, err
	}
	if err := tx.DeleteAppointment(ctx, ap); err != nil {
		return nil, nil, err
	}
	return nil, h, nil
}

func afterExpiry(
	ctx context.Context,
	h *models.AppointmentHistory,
	dispatcher *audit.Dispatcher,
	archiver Archiver,
	logger logrus.FieldLogger,
) {
	dispatcher.Dispatch(audit.Event{
		ActorID:  h.UserID,
		Action:   "appointment_expired",
		Entity:   "appointment",
		EntityID: h.AppointmentID,
		Metadata: map[string]string{"date": h.Date, "time": h.Time},
	})

	if archiver == nil {
		return
	}
	if err := archiver.Archive(ctx, h); err != nil && logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"appointment_id": h.AppointmentID,
			"user_id":        h.UserID,
		}).Warn("history archive failed")
	}
}
