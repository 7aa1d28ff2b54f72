package audit

import (
	"context"

	"github.com/dangerclosesec/orgaccess/internal/model"
)

// Recorder persists audit entries. Recording is best effort: implementations
// report their own failures and never fail the operation being audited.
type Recorder interface {
	Record(ctx context.Context, entry *model.AuditLog)
}

// NoOpRecorder is a recorder that does nothing
type NoOpRecorder struct{}

// Record implements Recorder.Record
func (NoOpRecorder) Record(ctx context.Context, entry *model.AuditLog) {}
