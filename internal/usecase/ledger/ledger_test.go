package ledger

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"gorm.io/datatypes"

	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/haircut-booking/internal/domain/identity"
	"github.com/BruksfildServices01/haircut-booking/internal/httperr"
	"github.com/BruksfildServices01/haircut-booking/internal/infra/repository"
	"github.com/BruksfildServices01/haircut-booking/internal/models"
	"github.com/BruksfildServices01/haircut-booking/internal/timezone"
)

var shopLoc = timezone.Location("")

// fixedClock returns a clock stopped at date hhmm in the shop location.
func fixedClock(t *testing.T, date, hhmm string) Clock {
	t.Helper()
	now, err := timezone.ParseDateTime(date, hhmm, shopLoc)
	if err != nil {
		t.Fatalf("parse clock: %v", err)
	}
	return Clock{Location: shopLoc, Now: func() time.Time { return now }}
}

func seedDay(t *testing.T, repo domain.Repository, date string, times ...string) {
	t.Helper()
	err := repo.RunInTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		day, err := tx.GetDay(ctx, date)
		if err != nil {
			return err
		}
		if day == nil {
			day = &models.AvailableDay{Date: date}
		}
		day.Times = datatypes.JSONSlice[string](times)
		return tx.SaveDay(ctx, day)
	})
	if err != nil {
		t.Fatalf("seed %s: %v", date, err)
	}
}

func dayTimes(t *testing.T, repo domain.Repository, date string) []string {
	t.Helper()
	var out []string
	err := repo.RunInTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		day, err := tx.GetDay(ctx, date)
		if err != nil {
			return err
		}
		out = day.TimeList()
		return nil
	})
	if err != nil {
		t.Fatalf("read %s: %v", date, err)
	}
	return out
}

func findAppointment(t *testing.T, repo domain.Repository, userID string) *models.Appointment {
	t.Helper()
	var ap *models.Appointment
	err := repo.RunInTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		var err error
		ap, err = tx.FindAppointmentByUser(ctx, userID)
		return err
	})
	if err != nil {
		t.Fatalf("find %s: %v", userID, err)
	}
	return ap
}

func assertTimes(t *testing.T, got []string, want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("times = %v, want %v", got, want)
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if !httperr.IsBusiness(err, code) {
		t.Fatalf("err = %v, want %s", err, code)
	}
}

func TestReserveConsumesSlot(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	clock := fixedClock(t, "2025-06-01", "12:00")
	seedDay(t, repo, "2025-06-10", "10:00", "11:00")

	ap, err := NewReserve(repo, nil, clock).Execute(context.Background(), ReserveInput{
		UserID: "u1", Date: "2025-06-10", Time: "10:00",
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if ap.ID == "" || ap.UserID != "u1" || ap.Date != "2025-06-10" || ap.Time != "10:00" {
		t.Fatalf("appointment = %+v", ap)
	}

	assertTimes(t, dayTimes(t, repo, "2025-06-10"), "11:00")
	if stored := findAppointment(t, repo, "u1"); stored == nil || stored.ID != ap.ID {
		t.Fatalf("stored appointment = %+v", stored)
	}
}

func TestReserveTakenSlot(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	clock := fixedClock(t, "2025-06-01", "12:00")
	seedDay(t, repo, "2025-06-10", "10:00", "11:00")
	reserve := NewReserve(repo, nil, clock)

	if _, err := reserve.Execute(context.Background(), ReserveInput{UserID: "u1", Date: "2025-06-10", Time: "10:00"}); err != nil {
		t.Fatalf("first reserve: %v", err)
	}

	_, err := reserve.Execute(context.Background(), ReserveInput{UserID: "u2", Date: "2025-06-10", Time: "10:00"})
	assertCode(t, err, "time_not_available")

	if findAppointment(t, repo, "u2") != nil {
		t.Fatal("u2 must not hold an appointment")
	}
}

func TestReserveUnknownDay(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()

	_, err := NewReserve(repo, nil, fixedClock(t, "2025-06-01", "12:00")).
		Execute(context.Background(), ReserveInput{UserID: "u1", Date: "2025-06-10", Time: "10:00"})
	assertCode(t, err, "time_not_available")
}

func TestReserveSecondAppointmentRejected(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	clock := fixedClock(t, "2025-06-01", "12:00")
	seedDay(t, repo, "2025-06-10", "10:00", "11:00")
	reserve := NewReserve(repo, nil, clock)

	if _, err := reserve.Execute(context.Background(), ReserveInput{UserID: "u1", Date: "2025-06-10", Time: "10:00"}); err != nil {
		t.Fatalf("first reserve: %v", err)
	}

	_, err := reserve.Execute(context.Background(), ReserveInput{UserID: "u1", Date: "2025-06-10", Time: "11:00"})
	assertCode(t, err, "already_booked")

	// the failed attempt leaves the free list untouched
	assertTimes(t, dayTimes(t, repo, "2025-06-10"), "11:00")
}

func TestReserveValidation(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	reserve := NewReserve(repo, nil, fixedClock(t, "2025-06-01", "12:00"))

	tests := []struct {
		name string
		in   ReserveInput
		code string
	}{
		{"missing user", ReserveInput{Date: "2025-06-10", Time: "10:00"}, "missing_fields"},
		{"missing time", ReserveInput{UserID: "u1", Date: "2025-06-10"}, "missing_fields"},
		{"bad date", ReserveInput{UserID: "u1", Date: "2025-13-10", Time: "10:00"}, "invalid_date"},
		{"bad time", ReserveInput{UserID: "u1", Date: "2025-06-10", Time: "9:00"}, "invalid_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reserve.Execute(context.Background(), tt.in)
			assertCode(t, err, tt.code)
		})
	}
}

func TestReserveCancelRoundTrip(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	clock := fixedClock(t, "2025-06-01", "12:00")
	seedDay(t, repo, "2025-06-10", "10:00", "11:00")

	if _, err := NewReserve(repo, nil, clock).Execute(context.Background(), ReserveInput{
		UserID: "u1", Date: "2025-06-10", Time: "10:00",
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	removed, err := NewCancel(repo, nil).Execute(context.Background(), "u1", "u1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if removed.Time != "10:00" {
		t.Errorf("removed = %+v", removed)
	}

	assertTimes(t, dayTimes(t, repo, "2025-06-10"), "10:00", "11:00")
	if findAppointment(t, repo, "u1") != nil {
		t.Fatal("appointment still present after cancel")
	}
}

func TestCancelWithoutAppointment(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()

	_, err := NewCancel(repo, nil).Execute(context.Background(), "u1", "u1")
	assertCode(t, err, "appointment_not_found")
}

func TestCancelCreatesMissingDay(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	clock := fixedClock(t, "2025-06-01", "12:00")
	seedDay(t, repo, "2025-06-10", "10:00")

	if _, err := NewReserve(repo, nil, clock).Execute(context.Background(), ReserveInput{
		UserID: "u1", Date: "2025-06-10", Time: "10:00",
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	assertTimes(t, dayTimes(t, repo, "2025-06-10"))

	if _, err := NewCancel(repo, nil).Execute(context.Background(), "admin", "u1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	assertTimes(t, dayTimes(t, repo, "2025-06-10"), "10:00")
}

func TestSetAvailableReplace(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	uc := NewSetAvailable(repo, nil)

	in := SetAvailableInput{ActorID: "admin", Date: "2025-06-11", Times: []string{"09:00", "09:00", "08:00"}}
	got, err := uc.Execute(context.Background(), in)
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	assertTimes(t, got, "08:00", "09:00")
	assertTimes(t, dayTimes(t, repo, "2025-06-11"), "08:00", "09:00")

	// replacing with the same list twice yields the same state
	again, err := uc.Execute(context.Background(), SetAvailableInput{Date: "2025-06-11", Times: got})
	if err != nil {
		t.Fatalf("set again: %v", err)
	}
	assertTimes(t, again, "08:00", "09:00")
	assertTimes(t, dayTimes(t, repo, "2025-06-11"), "08:00", "09:00")
}

func TestSetAvailableMerge(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	seedDay(t, repo, "2025-06-11", "08:00", "10:00")

	got, err := NewSetAvailable(repo, nil).Execute(context.Background(), SetAvailableInput{
		Date:  "2025-06-11",
		Times: []string{"09:00", "10:00"},
		Mode:  ModeMerge,
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	assertTimes(t, got, "08:00", "09:00", "10:00")
}

func TestSetAvailableValidation(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	uc := NewSetAvailable(repo, nil)

	_, err := uc.Execute(context.Background(), SetAvailableInput{Date: "2025-06-11", Times: []string{"25:00"}})
	assertCode(t, err, "invalid_time")

	_, err = uc.Execute(context.Background(), SetAvailableInput{Date: "2025-06-11", Times: []string{"09:00"}, Mode: "append"})
	assertCode(t, err, "invalid_mode")

	_, err = uc.Execute(context.Background(), SetAvailableInput{Date: "2025-06-11"})
	assertCode(t, err, "missing_fields")
}

func TestListAvailableDropsPastSlotsToday(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	seedDay(t, repo, "2025-06-10", "09:00", "10:00", "11:00")

	got, err := NewListAvailable(repo, fixedClock(t, "2025-06-10", "10:05")).
		Execute(context.Background(), "2025-06-10")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	assertTimes(t, got, "11:00")
	assertTimes(t, dayTimes(t, repo, "2025-06-10"), "11:00")
}

func TestListAvailableBoundaryIsExclusive(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	seedDay(t, repo, "2025-06-10", "10:00", "10:01")

	got, err := NewListAvailable(repo, fixedClock(t, "2025-06-10", "10:00")).
		Execute(context.Background(), "2025-06-10")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	assertTimes(t, got, "10:01")
}

func TestListAvailableOtherDayUntouched(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	seedDay(t, repo, "2025-06-11", "09:00", "10:00")

	got, err := NewListAvailable(repo, fixedClock(t, "2025-06-10", "23:00")).
		Execute(context.Background(), "2025-06-11")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	assertTimes(t, got, "09:00", "10:00")

	empty, err := NewListAvailable(repo, fixedClock(t, "2025-06-10", "23:00")).
		Execute(context.Background(), "2025-07-01")
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	assertTimes(t, empty)
}

func TestListAvailableNormalizesStoredList(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	seedDay(t, repo, "2025-06-12", "09:00", "09:00", "08:00")

	got, err := NewListAvailable(repo, fixedClock(t, "2025-06-10", "10:00")).
		Execute(context.Background(), "2025-06-12")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	assertTimes(t, got, "08:00", "09:00")
	assertTimes(t, dayTimes(t, repo, "2025-06-12"), "08:00", "09:00")
}

func TestListAvailableTodayNormalizesAndFilters(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	seedDay(t, repo, "2025-06-10", "11:00", "09:00", "11:00", "10:30")

	got, err := NewListAvailable(repo, fixedClock(t, "2025-06-10", "10:00")).
		Execute(context.Background(), "2025-06-10")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	assertTimes(t, got, "10:30", "11:00")
	assertTimes(t, dayTimes(t, repo, "2025-06-10"), "10:30", "11:00")
}

func TestRescheduleMovesSlots(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	clock := fixedClock(t, "2025-06-01", "12:00")
	seedDay(t, repo, "2025-06-10", "10:00", "11:00")
	seedDay(t, repo, "2025-06-12", "14:00", "15:00")

	if _, err := NewReserve(repo, nil, clock).Execute(context.Background(), ReserveInput{
		UserID: "u1", Date: "2025-06-10", Time: "10:00",
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	moved, err := NewReschedule(repo, nil).Execute(context.Background(), RescheduleInput{
		ActorID: "admin", UserID: "u1", NewDate: "2025-06-12", NewTime: "15:00",
	})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if moved.Date != "2025-06-12" || moved.Time != "15:00" {
		t.Fatalf("moved = %+v", moved)
	}

	assertTimes(t, dayTimes(t, repo, "2025-06-10"), "10:00", "11:00")
	assertTimes(t, dayTimes(t, repo, "2025-06-12"), "14:00")

	stored := findAppointment(t, repo, "u1")
	if stored.Date != "2025-06-12" || stored.Time != "15:00" {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestRescheduleSameDay(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	clock := fixedClock(t, "2025-06-01", "12:00")
	seedDay(t, repo, "2025-06-10", "10:00", "11:00")

	if _, err := NewReserve(repo, nil, clock).Execute(context.Background(), ReserveInput{
		UserID: "u1", Date: "2025-06-10", Time: "10:00",
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if _, err := NewReschedule(repo, nil).Execute(context.Background(), RescheduleInput{
		UserID: "u1", NewDate: "2025-06-10", NewTime: "11:00",
	}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	assertTimes(t, dayTimes(t, repo, "2025-06-10"), "10:00")
}

func TestRescheduleIntoUnknownDay(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	clock := fixedClock(t, "2025-06-01", "12:00")
	seedDay(t, repo, "2025-06-10", "10:00")

	if _, err := NewReserve(repo, nil, clock).Execute(context.Background(), ReserveInput{
		UserID: "u1", Date: "2025-06-10", Time: "10:00",
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if _, err := NewReschedule(repo, nil).Execute(context.Background(), RescheduleInput{
		UserID: "u1", NewDate: "2025-06-20", NewTime: "09:00",
	}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	assertTimes(t, dayTimes(t, repo, "2025-06-20"))
	assertTimes(t, dayTimes(t, repo, "2025-06-10"), "10:00")
}

// dayOrderRepo records the dates each transaction reads.
type dayOrderRepo struct {
	domain.Repository
	mu    sync.Mutex
	reads []string
}

type dayOrderTx struct {
	domain.Tx
	repo *dayOrderRepo
}

func (r *dayOrderRepo) RunInTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	return r.Repository.RunInTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return fn(ctx, &dayOrderTx{Tx: tx, repo: r})
	})
}

func (t *dayOrderTx) GetDay(ctx context.Context, date string) (*models.AvailableDay, error) {
	t.repo.mu.Lock()
	t.repo.reads = append(t.repo.reads, date)
	t.repo.mu.Unlock()
	return t.Tx.GetDay(ctx, date)
}

func TestRescheduleLocksEarlierDayFirst(t *testing.T) {
	inner := repository.NewAppointmentMemoryRepository()
	clock := fixedClock(t, "2025-06-01", "12:00")
	seedDay(t, inner, "2025-06-10", "10:00")
	seedDay(t, inner, "2025-06-12", "14:00", "15:00")

	if _, err := NewReserve(inner, nil, clock).Execute(context.Background(), ReserveInput{
		UserID: "u1", Date: "2025-06-12", Time: "14:00",
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	repo := &dayOrderRepo{Repository: inner}
	if _, err := NewReschedule(repo, nil).Execute(context.Background(), RescheduleInput{
		UserID: "u1", NewDate: "2025-06-10", NewTime: "10:00",
	}); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	if want := []string{"2025-06-10", "2025-06-12"}; !reflect.DeepEqual(repo.reads, want) {
		t.Fatalf("day reads = %v, want %v", repo.reads, want)
	}
	assertTimes(t, dayTimes(t, inner, "2025-06-10"))
	assertTimes(t, dayTimes(t, inner, "2025-06-12"), "14:00", "15:00")

	stored := findAppointment(t, inner, "u1")
	if stored.Date != "2025-06-10" || stored.Time != "10:00" {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestRescheduleWithoutAppointment(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()

	_, err := NewReschedule(repo, nil).Execute(context.Background(), RescheduleInput{
		UserID: "ghost", NewDate: "2025-06-20", NewTime: "09:00",
	})
	assertCode(t, err, "reschedule_not_found")
}

type recordingArchiver struct {
	mu      sync.Mutex
	records []models.AppointmentHistory
}

func (a *recordingArchiver) Archive(_ context.Context, h *models.AppointmentHistory) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, *h)
	return nil
}

func TestGetAppointmentLazyExpiry(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	seedDay(t, repo, "2025-06-10", "10:00", "11:00")

	if _, err := NewReserve(repo, nil, fixedClock(t, "2025-06-01", "12:00")).Execute(context.Background(), ReserveInput{
		UserID: "u1", Date: "2025-06-10", Time: "10:00",
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	archiver := &recordingArchiver{}

	before := NewGetAppointment(repo, nil, fixedClock(t, "2025-06-10", "10:00"), archiver, nil)
	ap, err := before.Execute(context.Background(), "u1")
	if err != nil || ap == nil {
		t.Fatalf("before start: ap=%v err=%v", ap, err)
	}

	after := NewGetAppointment(repo, nil, fixedClock(t, "2025-06-10", "10:01"), archiver, nil)
	ap, err = after.Execute(context.Background(), "u1")
	if err != nil {
		t.Fatalf("after start: %v", err)
	}
	if ap != nil {
		t.Fatalf("expired appointment returned: %+v", ap)
	}

	hist := repo.History()
	if len(hist) != 1 || hist[0].UserID != "u1" || hist[0].Reason != domain.HistoryReasonExpired {
		t.Fatalf("history = %+v", hist)
	}
	if len(archiver.records) != 1 {
		t.Fatalf("archived = %d, want 1", len(archiver.records))
	}

	// the slot is not given back
	assertTimes(t, dayTimes(t, repo, "2025-06-10"), "11:00")

	// and the user may book again
	if _, err := NewReserve(repo, nil, fixedClock(t, "2025-06-10", "10:01")).Execute(context.Background(), ReserveInput{
		UserID: "u1", Date: "2025-06-10", Time: "11:00",
	}); err != nil {
		t.Fatalf("rebook: %v", err)
	}
}

func TestGetAppointmentNone(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()

	ap, err := NewGetAppointment(repo, nil, NewClock(shopLoc), nil, nil).Execute(context.Background(), "u1")
	if err != nil || ap != nil {
		t.Fatalf("ap=%v err=%v", ap, err)
	}
}

func TestExpireAppointmentsSweep(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	seedDay(t, repo, "2025-06-10", "10:00")
	seedDay(t, repo, "2025-06-12", "10:00")

	reserve := NewReserve(repo, nil, fixedClock(t, "2025-06-01", "12:00"))
	for _, in := range []ReserveInput{
		{UserID: "past", Date: "2025-06-10", Time: "10:00"},
		{UserID: "future", Date: "2025-06-12", Time: "10:00"},
	} {
		if _, err := reserve.Execute(context.Background(), in); err != nil {
			t.Fatalf("reserve %s: %v", in.UserID, err)
		}
	}

	n, err := NewExpireAppointments(repo, nil, fixedClock(t, "2025-06-11", "08:00"), nil, nil).
		Execute(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired = %d, want 1", n)
	}
	if findAppointment(t, repo, "past") != nil {
		t.Error("past appointment still active")
	}
	if findAppointment(t, repo, "future") == nil {
		t.Error("future appointment was removed")
	}
}

type stubDirectory map[string]identity.User

func (d stubDirectory) GetUser(_ context.Context, uid string) (*identity.User, error) {
	u, ok := d[uid]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return &u, nil
}

func TestListAppointmentsEnrichesCustomers(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	seedDay(t, repo, "2025-06-10", "10:00", "11:00")
	seedDay(t, repo, "2025-06-09", "15:00")

	reserve := NewReserve(repo, nil, fixedClock(t, "2025-06-01", "12:00"))
	for _, in := range []ReserveInput{
		{UserID: "u1", Date: "2025-06-10", Time: "11:00"},
		{UserID: "u2", Date: "2025-06-10", Time: "10:00"},
		{UserID: "gone", Date: "2025-06-09", Time: "15:00"},
	} {
		if _, err := reserve.Execute(context.Background(), in); err != nil {
			t.Fatalf("reserve %s: %v", in.UserID, err)
		}
	}

	dir := stubDirectory{
		"u1": {UID: "u1", DisplayName: "Ana", Email: "ana@example.com"},
		"u2": {UID: "u2", DisplayName: "Bo", Email: "bo@example.com"},
	}

	views, err := NewListAppointments(repo, dir, nil).Execute(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	var order []string
	for _, v := range views {
		order = append(order, v.UserID)
	}
	if !reflect.DeepEqual(order, []string{"gone", "u2", "u1"}) {
		t.Fatalf("order = %v", order)
	}
	if views[0].CustomerName != nil || views[0].CustomerEmail != nil {
		t.Errorf("unknown customer should have null contact, got %+v", views[0])
	}
	if views[2].CustomerName == nil || *views[2].CustomerName != "Ana" {
		t.Errorf("u1 name = %v", views[2].CustomerName)
	}
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	repo := repository.NewAppointmentMemoryRepository()
	seedDay(t, repo, "2025-06-10", "10:00")
	reserve := NewReserve(repo, nil, fixedClock(t, "2025-06-01", "12:00"))

	const callers = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uid := "user-" + string(rune('a'+i))
			_, err := reserve.Execute(context.Background(), ReserveInput{UserID: uid, Date: "2025-06-10", Time: "10:00"})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			if !httperr.IsBusiness(err, "time_not_available") {
				t.Errorf("%s: unexpected error %v", uid, err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("wins = %d, want 1", wins)
	}
	assertTimes(t, dayTimes(t, repo, "2025-06-10"))
}

// conflictingRepo fails the first n transactions with a lost race.
type conflictingRepo struct {
	domain.Repository
	remaining int
	calls     int
}

func (r *conflictingRepo) RunInTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	r.calls++
	if r.remaining > 0 {
		r.remaining--
		return domain.ErrConcurrentUpdate
	}
	return r.Repository.RunInTx(ctx, fn)
}

func TestRetryOnConcurrentUpdate(t *testing.T) {
	inner := repository.NewAppointmentMemoryRepository()
	seedDay(t, inner, "2025-06-10", "10:00")

	repo := &conflictingRepo{Repository: inner, remaining: 2}
	if _, err := NewReserve(repo, nil, fixedClock(t, "2025-06-01", "12:00")).Execute(context.Background(), ReserveInput{
		UserID: "u1", Date: "2025-06-10", Time: "10:00",
	}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if repo.calls != 3 {
		t.Errorf("calls = %d, want 3", repo.calls)
	}

	exhausted := &conflictingRepo{Repository: inner, remaining: maxAttempts}
	_, err := NewCancel(exhausted, nil).Execute(context.Background(), "u1", "u1")
	if !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Fatalf("err = %v, want ErrConcurrentUpdate", err)
	}
}
