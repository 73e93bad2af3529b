package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/spec-kit/freelancer-bff/internal/domain"
	"github.com/spec-kit/freelancer-bff/internal/events"
	"github.com/spec-kit/freelancer-bff/internal/repository"
	apperrors "github.com/spec-kit/freelancer-bff/pkg/util"
)

const identityKey = "auth_identity"

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// SubjectLookup resolves the subject a token refers to.
type SubjectLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.Subject, error)
}

// AuthMiddleware validates bearer tokens and re-resolves the subject on every request.
type AuthMiddleware struct {
	tokens   TokenVerifier
	subjects SubjectLookup
	events   events.Dispatcher
	logger   *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens TokenVerifier, subjects SubjectLookup, dispatcher events.Dispatcher, logger *zap.Logger) *AuthMiddleware {
	if dispatcher == nil {
		dispatcher = events.Nop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, subjects: subjects, events: dispatcher, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw := StripBearer(c.Get(fiber.HeaderAuthorization))
	if raw == "" {
		m.reject(c, nil, "missing_credentials")
		return apperrors.NewMissingCredentials()
	}

	claims, err := m.tokens.Verify(raw)
	if err != nil {
		m.reject(c, nil, tokenFailureReason(err))
		return apperrors.NewUnauthorized("invalid token")
	}

	subject, err := m.subjects.GetByID(c.UserContext(), claims.Sub)
	switch {
	case errors.Is(err, repository.ErrSubjectNotFound):
		m.reject(c, &claims.Sub, "unknown_subject")
		return apperrors.NewUnauthorized("token refers to unknown subject")
	case err != nil:
		m.logger.Error("identity lookup failed",
			zap.Int64("subject_id", claims.Sub),
			zap.String("path", c.Path()),
			zap.Error(err))
		m.reject(c, &claims.Sub, "lookup_failed")
		return apperrors.NewUnauthorized("invalid token")
	case !subject.IsActive:
		m.reject(c, &claims.Sub, "subject_inactive")
		return apperrors.NewUnauthorized("subject inactive")
	}

	identity := &domain.Identity{
		SubjectID:   claims.Sub,
		SubjectName: claims.Username,
		Roles:       subject.EffectiveRoles(),
	}
	c.Locals(identityKey, identity)
	return c.Next()
}

func (m *AuthMiddleware) reject(c *fiber.Ctx, subjectID *int64, reason string) {
	event := events.NewEvent(events.EventAuthenticationRejected)
	event.SubjectID = subjectID
	event.Method = utils.CopyString(c.Method())
	event.Path = utils.CopyString(c.Path())
	event.RemoteIP = utils.CopyString(c.IP())
	event.Reason = reason
	m.events.Publish(c.UserContext(), event)
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrExpiredToken):
		return "token_expired"
	case errors.Is(err, ErrMalformedToken):
		return "token_malformed"
	default:
		return "token_invalid"
	}
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok && identity != nil
}
