package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/datatypes"

	domain "github.com/BruksfildServices01/haircut-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/haircut-booking/internal/models"
)

const (
	CollectionAvailableTimes      = "availableTimes"
	CollectionAppointments        = "appointments"
	CollectionAppointmentsHistory = "appointments_history"
)

type dayDoc struct {
	Times     []string  `firestore:"times"`
	Version   int64     `firestore:"version"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// Appointments written here are keyed by user id, which makes "one
// active appointment per user" a property of the document path. Older
// documents carry random ids and are found through their userId field.
type appointmentDoc struct {
	ID        string    `firestore:"id"`
	UserID    string    `firestore:"userId"`
	Date      string    `firestore:"date"`
	Time      string    `firestore:"time"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type historyDoc struct {
	AppointmentID string    `firestore:"appointmentId"`
	UserID        string    `firestore:"userId"`
	Date          string    `firestore:"date"`
	Time          string    `firestore:"time"`
	Reason        string    `firestore:"reason"`
	CreatedAt     time.Time `firestore:"createdAt"`
	RemovedAt     time.Time `firestore:"removedAt"`
}

type AppointmentFirestoreRepository struct {
	client *firestore.Client
}

func NewAppointmentFirestoreRepository(client *firestore.Client) *AppointmentFirestoreRepository {
	return &AppointmentFirestoreRepository{client: client}
}

// RunInTx uses a Firestore transaction, which retries fn on contention
// and commits all writes at once.
func (r *AppointmentFirestoreRepository) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context, tx domain.Tx) error,
) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{
			client: r.client,
			tx:     tx,
			refs:   make(map[string]*firestore.DocumentRef),
		})
	})
	return mapTxError(err)
}

// mapTxError turns the gRPC status of a failed commit into the store
// errors the ledger understands.
func mapTxError(err error) error {
	if err == nil || errors.Is(err, domain.ErrConcurrentUpdate) {
		return err
	}
	switch status.Code(err) {
	case codes.AlreadyExists:
		return domain.ErrDuplicateAppointment
	case codes.Aborted:
		return domain.ErrConcurrentUpdate
	}
	return err
}

func (r *AppointmentFirestoreRepository) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	docs, err := r.client.Collection(CollectionAppointments).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	out := make([]models.Appointment, 0, len(docs))
	for _, snap := range docs {
		var doc appointmentDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode appointment %s: %w", snap.Ref.ID, err)
		}
		out = append(out, appointmentFromDoc(snap.Ref.ID, doc))
	}
	sortAppointments(out)
	return out, nil
}

// --------------------------------------------------
// Tx
// --------------------------------------------------

type firestoreTx struct {
	client *firestore.Client
	tx     *firestore.Transaction

	// refs remembers where each user's appointment was found.
	refs map[string]*firestore.DocumentRef
}

func (t *firestoreTx) dayRef(date string) *firestore.DocumentRef {
	return t.client.Collection(CollectionAvailableTimes).Doc(date)
}

func (t *firestoreTx) appointmentRef(userID string) *firestore.DocumentRef {
	if ref, ok := t.refs[userID]; ok {
		return ref
	}
	return t.client.Collection(CollectionAppointments).Doc(userID)
}

func (t *firestoreTx) GetDay(_ context.Context, date string) (*models.AvailableDay, error) {
	snap, err := t.tx.Get(t.dayRef(date))
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get day %s: %w", date, err)
	}

	var doc dayDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode day %s: %w", date, err)
	}

	return &models.AvailableDay{
		Date:      date,
		Times:     datatypes.JSONSlice[string](doc.Times),
		Version:   doc.Version,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// SaveDay relies on the transaction's read set for compare-and-swap;
// the version field is carried for parity with the SQL store.
func (t *firestoreTx) SaveDay(_ context.Context, day *models.AvailableDay) error {
	now := time.Now()
	doc := dayDoc{
		Times:     day.TimeList(),
		Version:   day.Version + 1,
		UpdatedAt: now,
	}
	if err := t.tx.Set(t.dayRef(day.Date), doc); err != nil {
		return fmt.Errorf("set day %s: %w", day.Date, err)
	}
	day.Version = doc.Version
	day.UpdatedAt = now
	return nil
}

func (t *firestoreTx) FindAppointmentByUser(_ context.Context, userID string) (*models.Appointment, error) {
	snap, err := t.tx.Get(t.client.Collection(CollectionAppointments).Doc(userID))
	if status.Code(err) == codes.NotFound {
		snap, err = t.findByField(userID)
	}
	if err != nil {
		return nil, fmt.Errorf("find appointment for %s: %w", userID, err)
	}
	if snap == nil {
		return nil, nil
	}

	var doc appointmentDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode appointment for %s: %w", userID, err)
	}
	t.refs[userID] = snap.Ref
	ap := appointmentFromDoc(snap.Ref.ID, doc)
	return &ap, nil
}

// findByField looks the appointment up by its userId field, for
// documents created under a random id.
func (t *firestoreTx) findByField(userID string) (*firestore.DocumentSnapshot, error) {
	q := t.client.Collection(CollectionAppointments).
		Where("userId", "==", userID).
		Limit(1)

	docs, err := t.tx.Documents(q).GetAll()
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (t *firestoreTx) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	ap.UpdatedAt = ap.CreatedAt
	if err := t.tx.Create(t.appointmentRef(ap.UserID), appointmentToDoc(ap)); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

func (t *firestoreTx) UpdateAppointment(_ context.Context, ap *models.Appointment) error {
	ap.UpdatedAt = time.Now()
	if err := t.tx.Update(t.appointmentRef(ap.UserID), []firestore.Update{
		{Path: "date", Value: ap.Date},
		{Path: "time", Value: ap.Time},
		{Path: "updatedAt", Value: ap.UpdatedAt},
	}); err != nil {
		return fmt.Errorf("update appointment %s: %w", ap.ID, err)
	}
	return nil
}

func (t *firestoreTx) DeleteAppointment(_ context.Context, ap *models.Appointment) error {
	if err := t.tx.Delete(t.appointmentRef(ap.UserID)); err != nil {
		return fmt.Errorf("delete appointment %s: %w", ap.ID, err)
	}
	return nil
}

func (t *firestoreTx) ArchiveAppointment(_ context.Context, h *models.AppointmentHistory) error {
	ref := t.client.Collection(CollectionAppointmentsHistory).Doc(h.ID)
	if err := t.tx.Create(ref, historyDoc{
		AppointmentID: h.AppointmentID,
		UserID:        h.UserID,
		Date:          h.Date,
		Time:          h.Time,
		Reason:        h.Reason,
		CreatedAt:     h.CreatedAt,
		RemovedAt:     h.RemovedAt,
	}); err != nil {
		return fmt.Errorf("archive appointment %s: %w", h.AppointmentID, err)
	}
	return nil
}

func appointmentFromDoc(refID string, doc appointmentDoc) models.Appointment {
	if doc.ID == "" {
		doc.ID = refID
	}
	if doc.UserID == "" {
		doc.UserID = refID
	}
	return models.Appointment{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Date:      doc.Date,
		Time:      doc.Time,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func appointmentToDoc(ap *models.Appointment) appointmentDoc {
	return appointmentDoc{
		ID:        ap.ID,
		UserID:    ap.UserID,
		Date:      ap.Date,
		Time:      ap.Time,
		CreatedAt: ap.CreatedAt,
		UpdatedAt: ap.UpdatedAt,
	}
}

// Compile-time check
var _ domain.Repository = (*AppointmentFirestoreRepository)(nil)
