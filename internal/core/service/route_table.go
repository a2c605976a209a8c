package service

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/rentalhub/marketplace-gate/internal/core/domain"
)

const defaultLoginPath = "/login"

// RouteTableConfig is the data half of the gate: which paths are public,
// which are common entry points, and which prefixes belong to which role.
type RouteTableConfig struct {
	Zones       []domain.Zone
	PublicPaths []string
	CommonPaths []string
	LoginPath   string
	// DefaultDeny sends authenticated callers on unclassified paths back to
	// their home zone instead of letting them through.
	DefaultDeny bool
}

// DefaultRouteTableConfig returns the marketplace routing used when nothing
// else is configured.
func DefaultRouteTableConfig() RouteTableConfig {
	return RouteTableConfig{
		Zones: []domain.Zone{
			{Role: domain.RoleAdmin, Prefix: "/admin", Home: "/admin/dashboard"},
			{Role: domain.RoleOwner, Prefix: "/owner", Home: "/owner/cars"},
			{Role: domain.RoleCustomer, Prefix: "/customer", Home: "/customer/cars"},
		},
		PublicPaths: []string{"/", "/login", "/register", "/forgot-password", "/reset-password", "/cars", "/about", "/contact"},
		CommonPaths: []string{"/", "/login", "/register", "/dashboard"},
		LoginPath:   defaultLoginPath,
	}
}

// RouteTable classifies request paths. It is immutable after construction.
type RouteTable struct {
	zones       []domain.Zone
	byRole      map[domain.Role]domain.Zone
	public      []string
	common      map[string]struct{}
	loginPath   string
	defaultDeny bool
}

// NewRouteTable validates cfg and builds a RouteTable.
func NewRouteTable(cfg RouteTableConfig) (*RouteTable, error) {
	if len(cfg.Zones) == 0 {
		return nil, errors.New("route table: at least one zone is required")
	}

	t := &RouteTable{
		byRole:      make(map[domain.Role]domain.Zone, len(cfg.Zones)),
		common:      make(map[string]struct{}, len(cfg.CommonPaths)),
		loginPath:   cfg.LoginPath,
		defaultDeny: cfg.DefaultDeny,
	}
	if t.loginPath == "" {
		t.loginPath = defaultLoginPath
	}
	if !strings.HasPrefix(t.loginPath, "/") {
		return nil, fmt.Errorf("route table: login path %q must start with /", t.loginPath)
	}

	for _, z := range cfg.Zones {
		if !z.Role.Valid() {
			return nil, fmt.Errorf("route table: unknown role %q", z.Role)
		}
		if _, dup := t.byRole[z.Role]; dup {
			return nil, fmt.Errorf("route table: role %s has more than one zone", z.Role)
		}
		if !strings.HasPrefix(z.Prefix, "/") || cleanPath(z.Prefix) == "/" {
			return nil, fmt.Errorf("route table: zone prefix %q for %s must be a non-root absolute path", z.Prefix, z.Role)
		}
		z.Prefix = cleanPath(z.Prefix)
		if z.Home != "" {
			z.Home = cleanPath(z.Home)
			if !z.Contains(z.Home) {
				return nil, fmt.Errorf("route table: home %q of %s lies outside its prefix %q", z.Home, z.Role, z.Prefix)
			}
		}
		for _, other := range t.zones {
			if other.Contains(z.Prefix) || z.Contains(other.Prefix) {
				return nil, fmt.Errorf("route table: zones %q and %q overlap", other.Prefix, z.Prefix)
			}
		}
		t.byRole[z.Role] = z
		t.zones = append(t.zones, z)
	}

	for _, p := range cfg.PublicPaths {
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("route table: public path %q must start with /", p)
		}
		t.public = append(t.public, cleanPath(p))
	}
	for _, p := range cfg.CommonPaths {
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("route table: common path %q must start with /", p)
		}
		t.common[cleanPath(p)] = struct{}{}
	}

	// Longest prefix first so nested public entries never shadow each other.
	sort.SliceStable(t.public, func(i, j int) bool { return len(t.public[i]) > len(t.public[j]) })
	return t, nil
}

// LoginPath is the anonymous entry point.
func (t *RouteTable) LoginPath() string { return t.loginPath }

// DefaultDeny reports whether unclassified paths are closed to authenticated callers.
func (t *RouteTable) DefaultDeny() bool { return t.defaultDeny }

// Zones returns the configured zones in configuration order.
func (t *RouteTable) Zones() []domain.Zone {
	out := make([]domain.Zone, len(t.zones))
	copy(out, t.zones)
	return out
}

// ZoneFor returns the home zone of role.
func (t *RouteTable) ZoneFor(role domain.Role) (domain.Zone, bool) {
	z, ok := t.byRole[role]
	return z, ok
}

// ZoneOf returns the zone whose prefix contains p, if any.
func (t *RouteTable) ZoneOf(p string) (domain.Zone, bool) {
	p = cleanPath(p)
	for _, z := range t.zones {
		if z.Contains(p) {
			return z, true
		}
	}
	return domain.Zone{}, false
}

// IsPublic reports whether p is an allow-listed path or a sub-path of one.
// The root entry matches "/" only.
func (t *RouteTable) IsPublic(p string) bool {
	p = cleanPath(p)
	for _, pub := range t.public {
		if domain.HasPathPrefix(p, pub) {
			return true
		}
	}
	return false
}

// IsCommon reports whether p is one of the shared entry paths.
func (t *RouteTable) IsCommon(p string) bool {
	_, ok := t.common[cleanPath(p)]
	return ok
}

// Classify returns the category of p in priority order.
func (t *RouteTable) Classify(p string) domain.RouteClass {
	switch {
	case t.IsPublic(p):
		return domain.RoutePublic
	case t.IsCommon(p):
		return domain.RouteCommon
	}
	if _, ok := t.ZoneOf(p); ok {
		return domain.RouteRoleExclusive
	}
	return domain.RouteUnclassified
}

// cleanPath normalises a request path for matching: rooted, no dot
// segments, no trailing slash.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
