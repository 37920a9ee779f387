package appointment

import (
	"context"
	"errors"

	"github.com/BruksfildServices01/haircut-booking/internal/models"
)

// ErrConcurrentUpdate is returned by a store when a compare-and-swap
// write lost against another writer. The whole transaction may be
// retried.
var ErrConcurrentUpdate = errors.New("concurrent update")

// ErrDuplicateAppointment is returned by CreateAppointment when the
// user already holds an active appointment.
var ErrDuplicateAppointment = errors.New("user already has an active appointment")

// Tx is the view of the store inside one atomic unit of work. Callers
// perform every read before the first write.
type Tx interface {
	// -------- Available times --------

	// GetDay returns nil when the date has no document yet.
	GetDay(ctx context.Context, date string) (*models.AvailableDay, error)

	// SaveDay writes day if its Version still matches the stored one
	// (zero means "must not exist yet") and then bumps day.Version.
	SaveDay(ctx context.Context, day *models.AvailableDay) error

	// -------- Appointments --------

	// FindAppointmentByUser returns nil when the user has none.
	FindAppointmentByUser(ctx context.Context, userID string) (*models.Appointment, error)

	CreateAppointment(ctx context.Context, ap *models.Appointment) error

	UpdateAppointment(ctx context.Context, ap *models.Appointment) error

	DeleteAppointment(ctx context.Context, ap *models.Appointment) error

	// -------- History --------
	ArchiveAppointment(ctx context.Context, h *models.AppointmentHistory) error
}

type Repository interface {
	// RunInTx runs fn atomically: either every write of fn lands or
	// none does.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	ListAppointments(ctx context.Context) ([]models.Appointment, error)
}
