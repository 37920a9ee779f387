package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/haircut-booking/internal/models"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

func (r *AppointmentGormRepository) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context, tx domain.Tx) error,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &gormTx{db: tx})
	})
	if isRetryable(err) {
		return domain.ErrConcurrentUpdate
	}
	return err
}

func (r *AppointmentGormRepository) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Order("date ASC, time ASC").
		Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return apps, nil
}

// --------------------------------------------------
// Tx
// --------------------------------------------------

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) GetDay(ctx context.Context, date string) (*models.AvailableDay, error) {
	var day models.AvailableDay
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("date = ?", date).
		Take(&day).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get day %s: %w", date, err)
	}
	return &day, nil
}

func (t *gormTx) SaveDay(ctx context.Context, day *models.AvailableDay) error {
	now := time.Now()

	if day.Version == 0 {
		row := *day
		row.Version = 1
		row.UpdatedAt = now
		if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConcurrentUpdate
			}
			return fmt.Errorf("create day %s: %w", day.Date, err)
		}
		day.Version = row.Version
		day.UpdatedAt = now
		return nil
	}

	res := t.db.WithContext(ctx).
		Model(&models.AvailableDay{}).
		Where("date = ? AND version = ?", day.Date, day.Version).
		Updates(map[string]any{
			"times":      day.Times,
			"version":    day.Version + 1,
			"updated_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("update day %s: %w", day.Date, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrentUpdate
	}

	day.Version++
	day.UpdatedAt = now
	return nil
}

func (t *gormTx) FindAppointmentByUser(ctx context.Context, userID string) (*models.Appointment, error) {
	var ap models.Appointment
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Take(&ap).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find appointment for %s: %w", userID, err)
	}
	return &ap, nil
}

func (t *gormTx) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	if err := t.db.WithContext(ctx).Create(ap).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAppointment
		}
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

func (t *gormTx) UpdateAppointment(ctx context.Context, ap *models.Appointment) error {
	res := t.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", ap.ID).
		Updates(map[string]any{
			"date":       ap.Date,
			"time":       ap.Time,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("update appointment %s: %w", ap.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrConcurrentUpdate
	}
	return nil
}

func (t *gormTx) DeleteAppointment(ctx context.Context, ap *models.Appointment) error {
	if err := t.db.WithContext(ctx).
		Delete(&models.Appointment{}, "id = ?", ap.ID).Error; err != nil {
		return fmt.Errorf("delete appointment %s: %w", ap.ID, err)
	}
	return nil
}

func (t *gormTx) ArchiveAppointment(ctx context.Context, h *models.AppointmentHistory) error {
	if err := t.db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("archive appointment %s: %w", h.AppointmentID, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// isRetryable reports whether postgres aborted the transaction in a
// way that a fresh attempt can resolve.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgDeadlockDetected || pgErr.Code == pgSerializationFailure
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
