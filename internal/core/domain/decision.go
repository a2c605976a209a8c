package domain

// Outcome is the gate verdict for a request.
type Outcome string

const (
	OutcomeAllow    Outcome = "allow"
	OutcomeRedirect Outcome = "redirect"
)

// Reasons attached to decisions, used for metrics and logs.
const (
	ReasonPublic         = "public"
	ReasonAnonymous      = "anonymous"
	ReasonInvalidSession = "invalid_session"
	ReasonCommonPath     = "common_path"
	ReasonOwnZone        = "own_zone"
	ReasonCrossZone      = "cross_zone"
	ReasonUnclassified   = "unclassified"
	ReasonDefaultDenied  = "default_deny"
)

// Decision is the result of evaluating one request at the gate.
type Decision struct {
	Outcome Outcome
	Class   RouteClass
	Reason  string

	// Target is set for redirects.
	Target string

	// Credential is the decoded caller, set only for authenticated callers.
	// It is informational for downstream handlers and grants nothing by itself.
	Credential *Credential
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllow
}

// Allow builds an allow decision.
func Allow(class RouteClass, reason string, cred *Credential) Decision {
	return Decision{Outcome: OutcomeAllow, Class: class, Reason: reason, Credential: cred}
}

// RedirectTo builds a redirect decision.
func RedirectTo(target string, class RouteClass, reason string, cred *Credential) Decision {
	return Decision{Outcome: OutcomeRedirect, Target: target, Class: class, Reason: reason, Credential: cred}
}
