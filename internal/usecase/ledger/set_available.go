package ledger

import (
	"context"

	"github.com/BruksfildServices01/haircut-booking/internal/audit"
	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
)

type Mode string

const (
	ModeReplace Mode = "replace"
	ModeMerge   Mode = "merge"
)

// ParseMode accepts an empty string as replace.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeReplace:
		return ModeReplace, nil
	case ModeMerge:
		return ModeMerge, nil
	}
	return "", domain.ErrInvalidMode
}

type SetAvailableInput struct {
	ActorID string
	Date    string
	Times   []string
	Mode    Mode
}

type SetAvailable struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewSetAvailable(repo domain.Repository, audit *audit.Dispatcher) *SetAvailable {
	return &SetAvailable{repo: repo, audit: audit}
}

// Execute stores the day's free times and returns the stored list.
func (uc *SetAvailable) Execute(ctx context.Context, in SetAvailableInput) ([]string, error) {
	if err := validateDate(in.Date); err != nil {
		return nil, err
	}
	if in.Times == nil {
		return nil, domain.ErrMissingFields
	}
	for _, t := range in.Times {
		if err := validateTime(t); err != nil {
			return nil, err
		}
	}
	mode, err := ParseMode(string(in.Mode))
	if err != nil {
		return nil, err
	}

	var stored []string
	err = runInTx(ctx, uc.repo, func(ctx context.Context, tx domain.Tx) error {
		day, err := tx.GetDay(ctx, in.Date)
		if err != nil {
			return err
		}
		day = dayOrNew(day, in.Date)

		next := domain.NormalizeTimes(in.Times)
		if mode == ModeMerge {
			next = domain.MergeTimes(day.TimeList(), in.Times)
		}

		setTimes(day, next)
		if err := tx.SaveDay(ctx, day); err != nil {
			return err
		}
		stored = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ActorID:  in.ActorID,
		Action:   "available_times_set",
		Entity:   "available_times",
		EntityID: in.Date,
		Metadata: map[string]any{"mode": mode, "times": stored},
	})

	return stored, nil
}
