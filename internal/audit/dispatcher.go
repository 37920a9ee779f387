package audit

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	queueSize   = 100
	sinkTimeout = 5 * time.Second
)

type Event struct {
	ActorID  string
	Action   string
	Entity   string
	EntityID string
	Metadata any
}

// Dispatcher hands events to a sink from a background worker so that
// auditing never blocks or fails a request.
type Dispatcher struct {
	sink   Sink
	logger logrus.FieldLogger
	queue  chan Event

	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(sink Sink, logger logrus.FieldLogger) *Dispatcher {
	d := &Dispatcher{
		sink:   sink,
		logger: logger,
		queue:  make(chan Event, queueSize),
		done:   make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		if err := d.sink.Log(ctx, ev); err != nil {
			d.logger.WithError(err).WithField("action", ev.Action).Warn("audit write failed")
		}
		cancel()
	}
}

// Dispatch is safe on a nil Dispatcher, which discards the event.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}

	defer func() {
		// send on closed queue during shutdown
		if recover() != nil {
			d.logger.WithField("action", ev.Action).Warn("audit dispatcher closed, dropping event")
		}
	}()

	select {
	case d.queue <- ev:
	default:
		d.logger.WithField("action", ev.Action).Warn("audit queue full, dropping event")
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	<-d.done
}
