package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

// GateMetrics receives gate decision counts.
type GateMetrics interface {
	Decision(outcome domain.Outcome, class domain.RouteClass)
	InvalidCredential(reason string)
	CrossZone(role domain.Role)
}

// AccessEventQueue accepts audit events without blocking. TryEnqueue
// reports false when the event was dropped.
type AccessEventQueue interface {
	TryEnqueue(event domain.AccessEvent) bool
}

// AccessRecorder observes gate decisions: it counts them, logs the
// corrections and hands audit events to a queue. Every method returns
// without waiting on I/O.
type AccessRecorder struct {
	metrics GateMetrics
	queue   AccessEventQueue
	now     func() time.Time
	log     zerolog.Logger
}

// NewAccessRecorder returns an AccessRecorder. metrics and queue may be nil.
func NewAccessRecorder(metrics GateMetrics, queue AccessEventQueue, log zerolog.Logger) *AccessRecorder {
	return &AccessRecorder{metrics: metrics, queue: queue, now: time.Now, log: log}
}

func (r *AccessRecorder) OnDecision(path string, d domain.Decision) {
	if r.metrics != nil {
		r.metrics.Decision(d.Outcome, d.Class)
	}
	r.log.Trace().
		Str("path", path).
		Str("outcome", string(d.Outcome)).
		Str("class", string(d.Class)).
		Str("reason", d.Reason).
		Msg("gate decision")
}

func (r *AccessRecorder) OnInvalidCredential(path string, cause error) {
	reason := InvalidReason(cause)
	if r.metrics != nil {
		r.metrics.InvalidCredential(reason)
	}
	r.log.Debug().Err(cause).Str("path", path).Str("reason", reason).Msg("invalid session credential cleared")

	r.enqueue(domain.AccessEvent{
		Kind:   domain.AccessInvalidCredential,
		Path:   path,
		Reason: reason,
	})
}

func (r *AccessRecorder) OnCrossZone(path string, cred *domain.Credential, home string) {
	event := domain.AccessEvent{
		Kind:   domain.AccessCrossZone,
		Path:   path,
		Target: home,
		Reason: domain.ReasonCrossZone,
	}
	if cred != nil {
		event.SubjectID = cred.SubjectID
		event.Role = cred.Role
	}
	if r.metrics != nil {
		r.metrics.CrossZone(event.Role)
	}
	r.log.Info().
		Str("path", path).
		Str("subject_id", event.SubjectID).
		Str("role", string(event.Role)).
		Str("home", home).
		Msg("cross-zone navigation corrected")

	r.enqueue(event)
}

func (r *AccessRecorder) enqueue(event domain.AccessEvent) {
	if r.queue == nil {
		return
	}
	event.ID = uuid.NewString()
	event.OccurredAt = r.now().UTC()
	if !r.queue.TryEnqueue(event) {
		r.log.Warn().Str("kind", string(event.Kind)).Str("path", event.Path).Msg("audit queue full, access event dropped")
	}
}
