package audit

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/haircut-booking/internal/models"
)

// Sink persists or forwards one audit event.
type Sink interface {
	Log(ctx context.Context, ev Event) error
}

// Logger writes events to the audit_logs table.
type Logger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Log(ctx context.Context, ev Event) error {
	log := models.AuditLog{
		ActorID:  ev.ActorID,
		Action:   ev.Action,
		Entity:   ev.Entity,
		EntityID: ev.EntityID,
		Metadata: encodeMetadata(ev.Metadata),
	}

	return l.db.WithContext(ctx).Create(&log).Error
}

// LogSink emits events as structured log entries. It is the sink used
// by stores that have no audit table.
type LogSink struct {
	logger logrus.FieldLogger
}

func NewLogSink(logger logrus.FieldLogger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Log(_ context.Context, ev Event) error {
	s.logger.WithFields(logrus.Fields{
		"audit":     true,
		"actor":     ev.ActorID,
		"action":    ev.Action,
		"entity":    ev.Entity,
		"entity_id": ev.EntityID,
		"metadata":  encodeMetadata(ev.Metadata),
	}).Info("audit event")
	return nil
}

func encodeMetadata(metadata any) string {
	if metadata == nil {
		return ""
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(b)
}
