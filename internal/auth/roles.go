package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/spec-kit/freelancer-bff/internal/domain"
	"github.com/spec-kit/freelancer-bff/internal/events"
	apperrors "github.com/spec-kit/freelancer-bff/pkg/util"
)

// RoleGate builds per-route role checks.
type RoleGate struct {
	// verbose denial messages list required and actual roles
	verbose bool
	events  events.Dispatcher
}

// NewRoleGate constructs a gate.
func NewRoleGate(verbose bool, dispatcher events.Dispatcher) *RoleGate {
	if dispatcher == nil {
		dispatcher = events.Nop()
	}
	return &RoleGate{verbose: verbose, events: dispatcher}
}

// Require allows the request when the caller holds at least one of required.
// An empty requirement allows every request.
func (g *RoleGate) Require(required ...domain.Role) fiber.Handler {
	if len(required) == 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	required = append([]domain.Role(nil), required...)

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			g.deny(c, nil, "not_authenticated")
			return apperrors.NewForbidden("not authenticated", nil)
		}
		if len(identity.Roles) == 0 {
			g.deny(c, identity, "no_roles")
			return apperrors.NewForbidden("no permissions defined", nil)
		}
		if identity.HasAnyRole(required...) {
			return c.Next()
		}

		g.deny(c, identity, "role_mismatch")
		if !g.verbose {
			return apperrors.NewForbidden("access denied", nil)
		}
		return apperrors.NewForbidden(
			fmt.Sprintf("access denied. required roles: %s. subject roles: %s",
				domain.JoinRoles(required), domain.JoinRoles(identity.Roles)),
			map[string]any{
				"required_roles": required,
				"subject_roles":  identity.Roles,
			},
		)
	}
}

func (g *RoleGate) deny(c *fiber.Ctx, identity *domain.Identity, reason string) {
	event := events.NewEvent(events.EventAccessDenied)
	if identity != nil {
		event = event.WithSubject(identity.SubjectID)
		event.Username = identity.SubjectName
		event.Roles = identity.Roles
	}
	event.Method = utils.CopyString(c.Method())
	event.Path = utils.CopyString(c.Path())
	event.RemoteIP = utils.CopyString(c.IP())
	event.Reason = reason
	g.events.Publish(c.UserContext(), event)
}
