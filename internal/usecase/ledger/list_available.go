package ledger

import (
	"context"
	"slices"

	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/haircut-booking/internal/timezone"
)

type ListAvailable struct {
	repo  domain.Repository
	clock Clock
}

func NewListAvailable(repo domain.Repository, clock Clock) *ListAvailable {
	return &ListAvailable{repo: repo, clock: clock}
}

// Execute returns the free times of date, sorted and unique. For today,
// times at or before the current wall clock are dropped. Whenever the
// returned list differs from the stored one it is written back, so past
// slots disappear permanently and duplicates left by older writers are
// cleaned up.
func (uc *ListAvailable) Execute(ctx context.Context, date string) ([]string, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	var times []string
	err := runInTx(ctx, uc.repo, func(ctx context.Context, tx domain.Tx) error {
		day, err := tx.GetDay(ctx, date)
		if err != nil {
			return err
		}
		if day == nil {
			times = []string{}
			return nil
		}

		stored := day.TimeList()
		next := domain.NormalizeTimes(stored)

		now := uc.clock.now()
		loc := uc.clock.location()
		if date == timezone.Today(now, loc) {
			next = domain.TimesAfter(next, timezone.Clock(now, loc))
		}

		if !slices.Equal(next, stored) {
			setTimes(day, next)
			if err := tx.SaveDay(ctx, day); err != nil {
				return err
			}
		}
		times = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return times, nil
}
