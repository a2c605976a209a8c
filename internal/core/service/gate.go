package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
	"github.com/rentalhub/marketplace-gate/internal/core/ports"
)

// redirectParam is the login query parameter that carries the path an
// anonymous caller was heading to.
const redirectParam = "redirect"

var queryValueEscaper = strings.NewReplacer("&", "%26", "+", "%2B", "=", "%3D", ";", "%3B")

// Gate decides, once per request and before any page logic, whether the
// caller may proceed and where to send them otherwise. It performs no I/O;
// its only side effect is clearing an unusable credential.
type Gate struct {
	routes   *RouteTable
	decoder  ports.CredentialDecoder
	observer ports.AccessObserver
}

// NewGate builds a Gate. A nil observer is replaced with a no-op.
func NewGate(routes *RouteTable, decoder ports.CredentialDecoder, observer ports.AccessObserver) *Gate {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Gate{routes: routes, decoder: decoder, observer: observer}
}

// Routes exposes the gate's route table.
func (g *Gate) Routes() *RouteTable { return g.routes }

// Evaluate classifies reqPath against the credential held in store.
//
// Anonymous callers reach public paths only and are otherwise sent to the
// login boundary with their destination preserved. Callers with an
// undecodable, role-less or unrecognised credential lose the credential and
// are sent to the bare login path. Authenticated callers are routed to their
// home zone from common paths and from other roles' zones.
func (g *Gate) Evaluate(reqPath string, store ports.CredentialStore) (d domain.Decision) {
	defer func() { g.observer.OnDecision(reqPath, d) }()

	class := g.routes.Classify(reqPath)

	raw, present := store.Get()
	if !present || strings.TrimSpace(raw) == "" {
		if class == domain.RoutePublic {
			return domain.Allow(class, domain.ReasonPublic, nil)
		}
		return domain.RedirectTo(g.LoginRedirect(reqPath), class, domain.ReasonAnonymous, nil)
	}

	cred, zone, err := g.resolve(raw)
	if err != nil {
		store.Clear()
		g.observer.OnInvalidCredential(reqPath, err)
		if class == domain.RoutePublic {
			return domain.Allow(class, domain.ReasonInvalidSession, nil)
		}
		return domain.RedirectTo(g.routes.LoginPath(), class, domain.ReasonInvalidSession, nil)
	}

	home := zone.Landing()
	if g.routes.IsCommon(reqPath) {
		return domain.RedirectTo(home, domain.RouteCommon, domain.ReasonCommonPath, cred)
	}
	if class == domain.RoutePublic {
		return domain.Allow(class, domain.ReasonPublic, cred)
	}
	if zone.Contains(cleanPath(reqPath)) {
		return domain.Allow(domain.RouteRoleExclusive, domain.ReasonOwnZone, cred)
	}
	if _, foreign := g.routes.ZoneOf(reqPath); foreign {
		g.observer.OnCrossZone(reqPath, cred, home)
		return domain.RedirectTo(home, domain.RouteRoleExclusive, domain.ReasonCrossZone, cred)
	}
	if g.routes.DefaultDeny() {
		return domain.RedirectTo(home, domain.RouteUnclassified, domain.ReasonDefaultDenied, cred)
	}
	return domain.Allow(domain.RouteUnclassified, domain.ReasonUnclassified, cred)
}

// resolve decodes raw and maps its role onto a configured zone.
func (g *Gate) resolve(raw string) (*domain.Credential, domain.Zone, error) {
	cred, err := g.decoder.Decode(raw)
	if err != nil {
		return nil, domain.Zone{}, err
	}
	if cred == nil {
		return nil, domain.Zone{}, domain.ErrMalformedCredential
	}
	zone, ok := g.routes.ZoneFor(cred.Role)
	if !ok {
		return nil, domain.Zone{}, fmt.Errorf("%w: %s", domain.ErrUnknownRole, cred.Role)
	}
	return cred, zone, nil
}

// LoginRedirect returns the login path carrying reqPath as the resume target.
// The value keeps its slashes readable and survives url.ParseQuery unchanged.
func (g *Gate) LoginRedirect(reqPath string) string {
	escaped := (&url.URL{Path: reqPath}).EscapedPath()
	return g.routes.LoginPath() + "?" + redirectParam + "=" + queryValueEscaper.Replace(escaped)
}

// InvalidReason maps a decode failure onto a short metric label.
func InvalidReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingRole):
		return "missing_role"
	case errors.Is(err, domain.ErrCredentialExpired):
		return "expired"
	case errors.Is(err, domain.ErrUnknownRole):
		return "unknown_role"
	default:
		return "malformed"
	}
}

type nopObserver struct{}

func (nopObserver) OnDecision(string, domain.Decision)             {}
func (nopObserver) OnInvalidCredential(string, error)              {}
func (nopObserver) OnCrossZone(string, *domain.Credential, string) {}
