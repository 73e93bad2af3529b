package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/freelancer-bff/internal/domain"
)

const subjectCachePrefix = "bff:subject:id:"

// cachedSubjectRepository keeps GetByID results in Redis for a short TTL.
// Role and active-status changes become visible only after the entry expires.
// Username lookups carry password hashes and always go upstream.
type cachedSubjectRepository struct {
	next   SubjectRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSubjectRepository wraps next with a Redis cache. A nil client or
// non-positive ttl returns next unchanged.
func NewCachedSubjectRepository(next SubjectRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) SubjectRepository {
	if client == nil || ttl <= 0 {
		return next
	}
	return &cachedSubjectRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *cachedSubjectRepository) GetByID(ctx context.Context, id int64) (*domain.Subject, error) {
	key := subjectCachePrefix + fmt.Sprint(id)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var subject domain.Subject
		if err := json.Unmarshal(raw, &subject); err == nil {
			return &subject, nil
		}
		r.logger.Warn("discarding unreadable subject cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("subject cache read failed", zap.String("key", key), zap.Error(err))
	}

	subject, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cached := *subject
	cached.PasswordHash = ""
	if encoded, err := json.Marshal(&cached); err == nil {
		if err := r.client.Set(ctx, key, encoded, r.ttl).Err(); err != nil {
			r.logger.Warn("subject cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return subject, nil
}

func (r *cachedSubjectRepository) GetByUsername(ctx context.Context, username string) (*domain.Subject, error) {
	return r.next.GetByUsername(ctx, username)
}
