package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
	"github.com/rentalhub/marketplace-gate/internal/core/ports"
)

// AuditPolicy controls when repeated attempts are escalated in the logs.
type AuditPolicy struct {
	// Window is the rolling interval attempts are counted over.
	Window time.Duration

	// Threshold is the per-subject count at which attempts are flagged.
	// Zero disables flagging.
	Threshold int64
}

type auditService struct {
	repo    ports.AccessEventRepository
	counter ports.AttemptCounter
	policy  AuditPolicy
	log     zerolog.Logger
}

// NewAuditService returns an AccessAuditor backed by repo and counter.
// counter may be nil.
func NewAuditService(
	repo ports.AccessEventRepository,
	counter ports.AttemptCounter,
	policy AuditPolicy,
	log zerolog.Logger,
) ports.AccessAuditor {
	return &auditService{
		repo:    repo,
		counter: counter,
		policy:  policy,
		log:     log,
	}
}

// Process counts the attempt against its subject and persists the event.
func (s *auditService) Process(ctx context.Context, event domain.AccessEvent) error {
	// Counting is best effort; the event is persisted either way.
	if s.counter != nil && event.SubjectID != "" && s.policy.Window > 0 {
		count, err := s.counter.Increment(ctx, event.SubjectID, s.policy.Window)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("subject_id", event.SubjectID).Msg("attempt counter unavailable")
		case s.policy.Threshold > 0 && count == s.policy.Threshold:
			s.log.Warn().
				Str("subject_id", event.SubjectID).
				Str("role", string(event.Role)).
				Str("kind", string(event.Kind)).
				Int64("attempts", count).
				Dur("window", s.policy.Window).
				Msg("repeated gate violations")
		}
	}

	if err := s.repo.InsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("process access event: %w", err)
	}

	s.log.Debug().
		Str("event_id", event.ID).
		Str("kind", string(event.Kind)).
		Str("path", event.Path).
		Msg("access event recorded")
	return nil
}
