package domain

import "strings"

// RouteClass is the category a request path falls into.
type RouteClass string

const (
	RoutePublic        RouteClass = "public"
	RouteCommon        RouteClass = "common"
	RouteRoleExclusive RouteClass = "role_exclusive"
	RouteUnclassified  RouteClass = "unclassified"
)

// Zone is the path partition owned by exactly one role.
type Zone struct {
	Role Role

	// Prefix is the role-exclusive path prefix, e.g. "/owner".
	Prefix string

	// Home is where the role lands after authorization. Defaults to Prefix.
	Home string
}

// Landing returns the path a bearer of the zone's role is redirected to.
func (z Zone) Landing() string {
	if z.Home != "" {
		return z.Home
	}
	return z.Prefix
}

// Contains reports whether path lies in the zone. Matching is segment aware:
// "/owner" contains "/owner" and "/owner/cars" but not "/owners".
func (z Zone) Contains(path string) bool {
	return HasPathPrefix(path, z.Prefix)
}

// HasPathPrefix reports whether path equals prefix or is a sub-path of it.
func HasPathPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return path == "/"
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
