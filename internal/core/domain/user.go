package domain

import "time"

// Role is the marketplace role carried by a credential.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOwner    Role = "OWNER"
	RoleCustomer Role = "CUSTOMER"
)

// Roles lists the closed set of roles in a stable order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleOwner, RoleCustomer}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleCustomer:
		return true
	default:
		return false
	}
}

// KYC verification states of a profile.
const (
	KYCPending  = "PENDING"
	KYCVerified = "VERIFIED"
	KYCRejected = "REJECTED"
)

// UserProfile models the "who am I" shape rendered by the application.
type UserProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Role      Role      `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	KYCStatus string    `json:"kycStatus,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`

	// Projected marks a profile built from credential claims rather than fetched.
	Projected bool `json:"projected,omitempty"`
}

// ProjectCredential builds a best-effort profile from decoded claims.
func ProjectCredential(c *Credential) *UserProfile {
	if c == nil {
		return nil
	}
	return &UserProfile{
		ID:        c.SubjectID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      c.Role,
		Projected: true,
	}
}

// SessionView is the read model exposed by the session materializer.
type SessionView struct {
	User            *UserProfile `json:"user"`
	IsLoading       bool         `json:"isLoading"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// AnonymousView is the settled view of a caller without a usable credential.
func AnonymousView() SessionView {
	return SessionView{}
}
