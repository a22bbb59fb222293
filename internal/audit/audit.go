// Package audit records order and payment transitions to a pluggable sink.
// Recording is fire-and-forget: a failing sink is logged and never fails the caller.
package audit

//go:generate mockgen -destination=mocks/mock_sink.go -package=mocks . Sink

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository"
)

// Sink persists or publishes one audit entry.
type Sink interface {
	Write(ctx context.Context, entry models.AuditEntry) error
}

// DBSink writes entries to the audit_logs table.
type DBSink struct {
	Log repository.AuditLog
}

func (s *DBSink) Write(ctx context.Context, entry models.AuditEntry) error {
	return s.Log.Insert(ctx, &entry)
}

const writeTimeout = 5 * time.Second

// Recorder stamps entries and hands them to the sink.
type Recorder struct {
	sink   Sink
	logger *zap.Logger
	now    func() time.Time
}

func NewRecorder(sink Sink, logger *zap.Logger) *Recorder {
	return &Recorder{sink: sink, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Record fills in the id and timestamp and writes the entry. It detaches from the
// caller's cancellation so a finished request does not abort the write.
func (r *Recorder) Record(ctx context.Context, entry models.AuditEntry) {
	if r == nil || r.sink == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := r.sink.Write(ctx, entry); err != nil {
		r.logger.Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.String("entity_type", entry.EntityType),
			zap.String("entity_id", entry.EntityID),
			zap.Error(err))
	}
}
