package ledger

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/haircut-booking/internal/domain/identity"
)

const lookupConcurrency = 8

// UserDirectory resolves a uid to its profile.
type UserDirectory interface {
	GetUser(ctx context.Context, uid string) (*identity.User, error)
}

// AppointmentView is an appointment with the customer's contact data.
// Name and email are null when the lookup failed.
type AppointmentView struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	CreatedAt     time.Time `json:"createdAt"`
	CustomerName  *string   `json:"customerName"`
	CustomerEmail *string   `json:"customerEmail"`
}

type ListAppointments struct {
	repo   domain.Repository
	users  UserDirectory
	logger logrus.FieldLogger
}

func NewListAppointments(repo domain.Repository, users UserDirectory, logger logrus.FieldLogger) *ListAppointments {
	return &ListAppointments{repo: repo, users: users, logger: logger}
}

// Execute lists every active appointment sorted by date and time.
func (uc *ListAppointments) Execute(ctx context.Context) ([]AppointmentView, error) {
	apps, err := uc.repo.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]AppointmentView, len(apps))
	for i, ap := range apps {
		views[i] = AppointmentView{
			ID:        ap.ID,
			UserID:    ap.UserID,
			Date:      ap.Date,
			Time:      ap.Time,
			CreatedAt: ap.CreatedAt,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i := range views {
		v := &views[i]
		g.Go(func() error {
			u, err := uc.users.GetUser(gctx, v.UserID)
			if err != nil {
				if uc.logger != nil {
					uc.logger.WithError(err).WithField("uid", v.UserID).Debug("customer lookup failed")
				}
				return nil
			}
			name, email := u.DisplayName, u.Email
			v.CustomerName = &name
			v.CustomerEmail = &email
			return nil
		})
	}
	_ = g.Wait()

	return views, nil
}
