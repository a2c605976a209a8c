package ports

import (
	"context"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

// AccessObserver is notified of gate decisions. Implementations must not
// block: the gate calls them synchronously before the page renders.
type AccessObserver interface {
	OnDecision(path string, decision domain.Decision)
	OnInvalidCredential(path string, cause error)
	OnCrossZone(path string, cred *domain.Credential, home string)
}

// AccessAuditor processes audited gate events off the request path.
type AccessAuditor interface {
	Process(ctx context.Context, event domain.AccessEvent) error
}
