package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/spec-kit/freelancer-bff/internal/domain"
	"github.com/spec-kit/freelancer-bff/internal/upstream"
)

// ErrSubjectNotFound is returned when the upstream has no such subject.
var ErrSubjectNotFound = errors.New("subject not found")

// SubjectRepository resolves platform users from the upstream identity store.
type SubjectRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Subject, error)
	GetByUsername(ctx context.Context, username string) (*domain.Subject, error)
}

// UpstreamGetter is the slice of the upstream client used for lookups.
type UpstreamGetter interface {
	Get(ctx context.Context, path string, out any) error
}

type subjectRepository struct {
	client UpstreamGetter
}

// NewSubjectRepository returns an upstream-backed implementation.
func NewSubjectRepository(client UpstreamGetter) SubjectRepository {
	return &subjectRepository{client: client}
}

func (r *subjectRepository) GetByID(ctx context.Context, id int64) (*domain.Subject, error) {
	return r.fetch(ctx, fmt.Sprintf("/freelancers/%d", id))
}

func (r *subjectRepository) GetByUsername(ctx context.Context, username string) (*domain.Subject, error) {
	if username == "" {
		return nil, ErrSubjectNotFound
	}
	return r.fetch(ctx, "/freelancers/by-username/"+url.PathEscape(username))
}

func (r *subjectRepository) fetch(ctx context.Context, path string) (*domain.Subject, error) {
	var subject *domain.Subject
	if err := r.client.Get(ctx, path, &subject); err != nil {
		if upstream.IsNotFound(err) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}
	// upstream answers null or an empty body for unknown subjects on some paths
	if subject == nil || subject.ID == 0 {
		return nil, ErrSubjectNotFound
	}
	return subject, nil
}
