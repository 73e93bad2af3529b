package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/freelancer-bff/internal/api/http/handlers"
	"github.com/spec-kit/freelancer-bff/internal/auth"
	"github.com/spec-kit/freelancer-bff/internal/domain"
)

// Route is one forwarded endpoint. A nil Roles inherits the group's roles;
// a non-nil Roles replaces them.
type Route struct {
	Method string
	Path   string
	Public bool
	Roles  []domain.Role
	// Upstream defaults to the inbound method and full path.
	Upstream handlers.Target
}

// RouteGroup shares a path prefix and a default role requirement.
type RouteGroup struct {
	Prefix string
	Roles  []domain.Role
	Routes []Route
}

// FullPath joins the group prefix and the route path.
func (g RouteGroup) FullPath(r Route) string {
	if r.Path == "" || r.Path == "/" {
		return g.Prefix
	}
	return g.Prefix + r.Path
}

// RequiredRoles resolves the role requirement for r. Public routes need none.
func (g RouteGroup) RequiredRoles(r Route) []domain.Role {
	if r.Public {
		return nil
	}
	if r.Roles != nil {
		return r.Roles
	}
	return g.Roles
}

// UpstreamTarget fills in the defaults of r.Upstream.
func (g RouteGroup) UpstreamTarget(r Route) handlers.Target {
	target := r.Upstream
	if target.Method == "" {
		target.Method = r.Method
	}
	if target.Path == "" {
		target.Path = g.FullPath(r)
	}
	return target
}

// Gates are the two request checks applied to non-public routes.
type Gates struct {
	Authenticate *auth.AuthMiddleware
	Authorize    *auth.RoleGate
}

// MountRoutes registers every route of groups on router in table order.
func MountRoutes(router fiber.Router, groups []RouteGroup, gates Gates, proxy *handlers.ProxyHandler) {
	for _, group := range groups {
		for _, route := range group.Routes {
			chain := make([]fiber.Handler, 0, 3)
			if !route.Public {
				chain = append(chain, gates.Authenticate.Handle)
				if roles := group.RequiredRoles(route); len(roles) > 0 {
					chain = append(chain, gates.Authorize.Require(roles...))
				}
			}
			chain = append(chain, proxy.Forward(route.Method, group.UpstreamTarget(route)))
			router.Add(route.Method, group.FullPath(route), chain...)
		}
	}
}

// ValidateRouteTable checks that groups can be mounted unambiguously.
func ValidateRouteTable(groups []RouteGroup) error {
	seen := make(map[string]struct{})
	for _, group := range groups {
		if !strings.HasPrefix(group.Prefix, "/") {
			return fmt.Errorf("group %q: prefix must start with /", group.Prefix)
		}
		for _, route := range group.Routes {
			full := group.FullPath(route)
			key := route.Method + " " + full
			if _, dup := seen[key]; dup {
				return fmt.Errorf("duplicate route %s", key)
			}
			seen[key] = struct{}{}

			switch route.Method {
			case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				return fmt.Errorf("%s: unsupported method", key)
			}

			roles := group.RequiredRoles(route)
			if !route.Public && len(roles) == 0 {
				return fmt.Errorf("%s: protected route without roles", key)
			}
			for _, role := range roles {
				if !role.Valid() {
					return fmt.Errorf("%s: unknown role %q", key, role)
				}
			}

			target := group.UpstreamTarget(route)
			if strings.Contains(target.Path, handlers.SubjectParam) && route.Public {
				return fmt.Errorf("%s: public route cannot resolve the subject", key)
			}
			for _, in := range target.Inject {
				if in.Param != "" && !strings.Contains(full, ":"+in.Param) {
					return fmt.Errorf("%s: injected param %q not in path", key, in.Param)
				}
			}
		}
	}
	return nil
}
