package handler

import (
	"time"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type listAccessEventsQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=500"`
}

type accessEventResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	SubjectID  string    `json:"subject_id,omitempty"`
	Role       string    `json:"role,omitempty"`
	Path       string    `json:"path"`
	Target     string    `json:"target,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type accessEventsResponse struct {
	Events []accessEventResponse `json:"events"`
	Count  int                   `json:"count"`
}

type pageResponse struct {
	Path      string `json:"path"`
	Class     string `json:"class"`
	Reason    string `json:"reason"`
	Zone      string `json:"zone,omitempty"`
	SubjectID string `json:"subject_id,omitempty"`
	Role      string `json:"role,omitempty"`
}

func toAccessEventResponse(e *domain.AccessEvent) accessEventResponse {
	return accessEventResponse{
		ID:         e.ID,
		Kind:       string(e.Kind),
		SubjectID:  e.SubjectID,
		Role:       string(e.Role),
		Path:       e.Path,
		Target:     e.Target,
		Reason:     e.Reason,
		OccurredAt: e.OccurredAt,
	}
}
