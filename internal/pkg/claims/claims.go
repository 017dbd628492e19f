// Package claims issues single-use, time-boxed account claim tokens backed by Redis.
package claims

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
)

const keyPrefix = "claim:"

// Claim is what a token redeems to
type Claim struct {
	TeacherID  uuid.UUID `json:"teacherId"`
	IdentityID string    `json:"identityId"`
	IssuedAt   time.Time `json:"issuedAt"`
}

// Store issues and redeems claim tokens
type Store interface {
	Issue(ctx context.Context, claim Claim) (string, error)
	Redeem(ctx context.Context, token string) (*Claim, error)
	Restore(ctx context.Context, token string, claim Claim) error
}

// redisClient is the subset of *redis.Client used here
type redisClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore keeps claims under claim:<token> with a TTL
type RedisStore struct {
	rdb redisClient
	ttl time.Duration
	now func() time.Time
}

// NewRedisStore creates a store whose tokens live for ttl
func NewRedisStore(rdb redisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Issue stores claim under a fresh random token and returns the token
func (s *RedisStore) Issue(ctx context.Context, claim Claim) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("generate claim token: %w", err)
	}
	if claim.IssuedAt.IsZero() {
		claim.IssuedAt = s.now().UTC()
	}
	data, err := json.Marshal(claim)
	if err != nil {
		return "", err
	}

	ok, err := s.rdb.SetNX(ctx, keyPrefix+token, data, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("store claim token: %w", err)
	}
	if !ok {
		return "", errors.New("claim token collision")
	}
	return token, nil
}

// Redeem atomically fetches and deletes a token. Unknown, expired and
// already-used tokens all yield apperrors.ErrClaimNotFound.
func (s *RedisStore) Redeem(ctx context.Context, token string) (*Claim, error) {
	if token == "" {
		return nil, apperrors.ErrClaimNotFound
	}
	value, err := s.rdb.GetDel(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrClaimNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redeem claim token: %w", err)
	}

	var claim Claim
	if err := json.Unmarshal([]byte(value), &claim); err != nil {
		return nil, fmt.Errorf("decode claim: %w", err)
	}
	return &claim, nil
}

// Restore puts a redeemed token back for whatever remains of its lifetime, so a
// claim that failed after Redeem can be retried with the same link. A token
// past its lifetime stays gone.
func (s *RedisStore) Restore(ctx context.Context, token string, claim Claim) error {
	remaining := s.ttl - s.now().Sub(claim.IssuedAt)
	if claim.IssuedAt.IsZero() || remaining <= 0 {
		return apperrors.ErrClaimNotFound
	}
	data, err := json.Marshal(claim)
	if err != nil {
		return err
	}

	ok, err := s.rdb.SetNX(ctx, keyPrefix+token, data, remaining).Result()
	if err != nil {
		return fmt.Errorf("restore claim token: %w", err)
	}
	if !ok {
		return errors.New("claim token already present")
	}
	return nil
}
