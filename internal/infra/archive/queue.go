package archive

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/haircut-booking/internal/models"
)

const (
	queueSize     = 100
	uploadTimeout = 30 * time.Second
)

var (
	ErrQueueFull   = errors.New("archive queue full")
	ErrQueueClosed = errors.New("archive queue closed")
)

// Archiver stores one history record.
type Archiver interface {
	Archive(ctx context.Context, h *models.AppointmentHistory) error
}

// Queue hands history records to a background worker, which uploads
// each one with its own timeout. The caller's context only covers the
// enqueue.
type Queue struct {
	next   Archiver
	logger logrus.FieldLogger
	jobs   chan models.AppointmentHistory

	timeout   time.Duration
	closeOnce sync.Once
	done      chan struct{}
}

func NewQueue(next Archiver, logger logrus.FieldLogger) *Queue {
	q := &Queue{
		next:    next,
		logger:  logger,
		jobs:    make(chan models.AppointmentHistory, queueSize),
		timeout: uploadTimeout,
		done:    make(chan struct{}),
	}

	go q.worker()
	return q
}

func (q *Queue) worker() {
	defer close(q.done)

	for h := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := q.next.Archive(ctx, &h); err != nil {
			q.logger.WithError(err).WithFields(logrus.Fields{
				"appointment_id": h.AppointmentID,
				"user_id":        h.UserID,
			}).Warn("history archive failed")
		}
		cancel()
	}
}

// Archive enqueues a copy of h and returns without waiting for the upload.
func (q *Queue) Archive(_ context.Context, h *models.AppointmentHistory) (err error) {
	defer func() {
		// send on closed queue during shutdown
		if recover() != nil {
			err = ErrQueueClosed
		}
	}()

	select {
	case q.jobs <- *h:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting records and waits for queued uploads.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.jobs)
	})
	<-q.done
}
