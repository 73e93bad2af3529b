package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/freelancer-bff/internal/auth"
	"github.com/spec-kit/freelancer-bff/internal/config"
	"github.com/spec-kit/freelancer-bff/internal/events"
	"github.com/spec-kit/freelancer-bff/internal/repository"
	apperrors "github.com/spec-kit/freelancer-bff/pkg/util"
)

// AccessToken is the result of a successful sign in.
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService turns credentials into bearer tokens.
type AuthService struct {
	subjects  repository.SubjectRepository
	hasher    *auth.Hasher
	tokenMgr  *auth.TokenManager
	events    events.Dispatcher
	logger    *zap.Logger
	decoyHash string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Subjects   repository.SubjectRepository
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) (*AuthService, error) {
	hasher := auth.NewHasher(cfg.BcryptCost)

	// compared against when the username is unknown so both failure paths cost one bcrypt run
	decoy, err := hasher.Hash("decoy-password")
	if err != nil {
		return nil, err
	}

	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL())
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.Nop()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthService{
		subjects:  deps.Subjects,
		hasher:    hasher,
		tokenMgr:  tokens,
		events:    dispatcher,
		logger:    logger,
		decoyHash: decoy,
	}, nil
}

// SignIn verifies username and password and issues an access token. Unknown
// usernames and wrong passwords fail with the same INVALID_CREDENTIALS error.
func (s *AuthService) SignIn(ctx context.Context, username, password string) (*AccessToken, error) {
	subject, err := s.subjects.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrSubjectNotFound) {
			s.logger.Warn("sign in lookup failed", zap.Error(err))
			return nil, apperrors.NewUpstreamUnavailable(err)
		}
		_, _ = s.hasher.Verify(password, s.decoyHash)
		s.publishFailure(ctx, username, "unknown_subject")
		return nil, apperrors.NewInvalidCredentials()
	}

	ok, err := s.hasher.Verify(password, subject.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash unusable", zap.Int64("subject_id", subject.ID), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	if !ok {
		s.publishFailure(ctx, username, "password_mismatch")
		return nil, apperrors.NewInvalidCredentials()
	}

	// roles are resolved per request by the auth middleware, never from the token
	token, exp, err := s.tokenMgr.Issue(auth.ClaimsInput{
		SubjectID:   subject.ID,
		SubjectName: subject.DisplayName(),
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	event := events.NewEvent(events.EventLoginSucceeded).WithSubject(subject.ID)
	event.Username = subject.DisplayName()
	s.events.Publish(ctx, event)

	return &AccessToken{Token: token, ExpiresAt: exp}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publishFailure(ctx context.Context, username, reason string) {
	event := events.NewEvent(events.EventLoginFailed)
	event.Username = username
	event.Reason = reason
	s.events.Publish(ctx, event)
}
