package domain

import "time"

// AccessEventKind distinguishes the audited gate decisions.
type AccessEventKind string

const (
	AccessInvalidCredential AccessEventKind = "invalid_credential"
	AccessCrossZone         AccessEventKind = "cross_zone"
)

// AccessEvent is an audit record of a corrected or rejected navigation.
type AccessEvent struct {
	ID         string          `json:"id"`
	Kind       AccessEventKind `json:"kind"`
	SubjectID  string          `json:"subjectId,omitempty"`
	Role       Role            `json:"role,omitempty"`
	Path       string          `json:"path"`
	Target     string          `json:"target,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// ShardKey groups events of one caller so they are processed in order.
func (e AccessEvent) ShardKey() string {
	if e.SubjectID != "" {
		return e.SubjectID
	}
	return e.Path
}
