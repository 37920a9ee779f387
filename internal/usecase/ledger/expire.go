package ledger

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/haircut-booking/internal/audit"
	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/haircut-booking/internal/models"
)

// ExpireAppointments applies the lazy expiry rule to every active
// appointment at once. It is driven by the optional sweep schedule.
type ExpireAppointments struct {
	repo     domain.Repository
	audit    *audit.Dispatcher
	clock    Clock
	archiver Archiver
	logger   logrus.FieldLogger
}

func NewExpireAppointments(
	repo domain.Repository,
	audit *audit.Dispatcher,
	clock Clock,
	archiver Archiver,
	logger logrus.FieldLogger,
) *ExpireAppointments {
	return &ExpireAppointments{
		repo:     repo,
		audit:    audit,
		clock:    clock,
		archiver: archiver,
		logger:   logger,
	}
}

// Execute returns how many appointments were moved to history.
func (uc *ExpireAppointments) Execute(ctx context.Context) (int, error) {
	apps, err := uc.repo.ListAppointments(ctx)
	if err != nil {
		return 0, err
	}

	now := uc.clock.now()
	loc := uc.clock.location()

	expired := 0
	for i := range apps {
		if !domain.IsExpired(&apps[i], now, loc) {
			continue
		}

		var h *models.AppointmentHistory
		err := runInTx(ctx, uc.repo, func(ctx context.Context, tx domain.Tx) error {
			var err error
			_, h, err = expireIfPast(ctx, tx, apps[i].UserID, uc.clock)
			return err
		})
		if err != nil {
			return expired, err
		}
		if h == nil {
			continue
		}

		expired++
		afterExpiry(ctx, h, uc.audit, uc.archiver, uc.logger)
	}

	return expired, nil
}
