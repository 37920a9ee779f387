package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/haircut-booking/internal/models"
)

// AppointmentMemoryRepository keeps the ledger in process memory.
// Transactions are serialized and work on a copy that replaces the
// live state only when fn succeeds.
type AppointmentMemoryRepository struct {
	mu           sync.Mutex
	days         map[string]models.AvailableDay
	appointments map[string]models.Appointment // keyed by user id
	history      []models.AppointmentHistory
}

func NewAppointmentMemoryRepository() *AppointmentMemoryRepository {
	return &AppointmentMemoryRepository{
		days:         make(map[string]models.AvailableDay),
		appointments: make(map[string]models.Appointment),
	}
}

func (r *AppointmentMemoryRepository) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context, tx domain.Tx) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memoryTx{
		days:         make(map[string]models.AvailableDay, len(r.days)),
		appointments: make(map[string]models.Appointment, len(r.appointments)),
		history:      append([]models.AppointmentHistory(nil), r.history...),
	}
	for k, v := range r.days {
		v.Times = append(v.Times[:0:0], v.Times...)
		tx.days[k] = v
	}
	for k, v := range r.appointments {
		tx.appointments[k] = v
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	r.days = tx.days
	r.appointments = tx.appointments
	r.history = tx.history
	return nil
}

func (r *AppointmentMemoryRepository) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Appointment, 0, len(r.appointments))
	for _, ap := range r.appointments {
		out = append(out, ap)
	}
	sortAppointments(out)
	return out, nil
}

// History returns a copy of the archived appointments.
func (r *AppointmentMemoryRepository) History() []models.AppointmentHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AppointmentHistory(nil), r.history...)
}

// --------------------------------------------------
// Tx
// --------------------------------------------------

type memoryTx struct {
	days         map[string]models.AvailableDay
	appointments map[string]models.Appointment
	history      []models.AppointmentHistory
}

func (t *memoryTx) GetDay(_ context.Context, date string) (*models.AvailableDay, error) {
	d, ok := t.days[date]
	if !ok {
		return nil, nil
	}
	d.Times = append(d.Times[:0:0], d.Times...)
	return &d, nil
}

func (t *memoryTx) SaveDay(_ context.Context, day *models.AvailableDay) error {
	current, exists := t.days[day.Date]
	if (!exists && day.Version != 0) || (exists && current.Version != day.Version) {
		return domain.ErrConcurrentUpdate
	}

	day.Version++
	day.UpdatedAt = time.Now()

	stored := *day
	stored.Times = append(day.Times[:0:0], day.Times...)
	t.days[day.Date] = stored
	return nil
}

func (t *memoryTx) FindAppointmentByUser(_ context.Context, userID string) (*models.Appointment, error) {
	ap, ok := t.appointments[userID]
	if !ok {
		return nil, nil
	}
	return &ap, nil
}

func (t *memoryTx) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	if _, ok := t.appointments[ap.UserID]; ok {
		return domain.ErrDuplicateAppointment
	}
	now := time.Now()
	if ap.CreatedAt.IsZero() {
		ap.CreatedAt = now
	}
	ap.UpdatedAt = now
	t.appointments[ap.UserID] = *ap
	return nil
}

func (t *memoryTx) UpdateAppointment(_ context.Context, ap *models.Appointment) error {
	if _, ok := t.appointments[ap.UserID]; !ok {
		return domain.ErrConcurrentUpdate
	}
	ap.UpdatedAt = time.Now()
	t.appointments[ap.UserID] = *ap
	return nil
}

func (t *memoryTx) DeleteAppointment(_ context.Context, ap *models.Appointment) error {
	delete(t.appointments, ap.UserID)
	return nil
}

func (t *memoryTx) ArchiveAppointment(_ context.Context, h *models.AppointmentHistory) error {
	t.history = append(t.history, *h)
	return nil
}

func sortAppointments(aps []models.Appointment) {
	sort.Slice(aps, func(i, j int) bool {
		if aps[i].Date != aps[j].Date {
			return aps[i].Date < aps[j].Date
		}
		if aps[i].Time != aps[j].Time {
			return aps[i].Time < aps[j].Time
		}
		return aps[i].UserID < aps[j].UserID
	})
}

// Compile-time check
var _ domain.Repository = (*AppointmentMemoryRepository)(nil)
