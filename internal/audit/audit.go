// Package audit emits the structured log sink for authentication,
// data-access, and ingestion outcomes. It never carries raw clinical
// values.
package audit

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"
)

// Category enumerates the audit event families.
type Category string

const (
	CategoryAuth      Category = "auth"
	CategoryAccess    Category = "access"
	CategoryIngestion Category = "ingestion"
)

// Sink is the process-wide audit writer. Store is an interface rather than
// *repository.Store to keep this package free of an import cycle, and to
// let tests substitute a no-op.
type Sink struct {
	store EventStore
}

// EventStore is the subset of the record store the audit sink needs.
type EventStore interface {
	InsertAuditEvent(ctx context.Context, category, action, subject, outcome, detail string) error
}

func NewSink(store EventStore) *Sink {
	return &Sink{store: store}
}

// Record writes both a structured log line and a durable audit row. detail
// must never include raw clinical values (heart rate, SpO2, temperature).
func (s *Sink) Record(ctx context.Context, category Category, action, subject, outcome, detail string) {
	logx.WithContext(ctx).Infof("audit category=%s action=%s subject=%s outcome=%s detail=%s",
		category, action, subject, outcome, detail)

	if s.store == nil {
		return
	}
	if err := s.store.InsertAuditEvent(ctx, string(category), action, subject, outcome, detail); err != nil {
		logx.WithContext(ctx).Errorf("audit sink: failed to persist event: %v", err)
	}
}
