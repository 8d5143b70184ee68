package audit

import (
	"encoding/json"

	"github.com/collabhub/backend/internal/models"
	"github.com/collabhub/backend/internal/repository"
	"go.uber.org/zap"
)

// Recorder appends security-relevant events to the audit log. Writes
// are best-effort: a failed insert is logged and swallowed so the
// operation that triggered it still succeeds.
type Recorder struct {
	repo   repository.AuditLogRepository
	logger *zap.Logger
}

// NewRecorder creates a Recorder. logger may not be nil; pass
// zap.NewNop() to silence it.
func NewRecorder(repo repository.AuditLogRepository, logger *zap.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Record appends one event. Details are serialized to JSON; values
// that cannot be serialized are recorded without details.
func (r *Recorder) Record(event string, actorID uint64, details map[string]interface{}) {
	var encoded string
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			encoded = string(b)
		}
	}

	entry := &models.AuditLog{
		Event:   event,
		ActorID: actorID,
		Details: encoded,
	}

	if err := r.repo.Create(entry); err != nil {
		r.logger.Warn("audit write failed",
			zap.String("event", event),
			zap.Uint64("actor_id", actorID),
			zap.Error(err),
		)
		return
	}

	r.logger.Info("audit",
		zap.String("event", event),
		zap.Uint64("actor_id", actorID),
	)
}
