package claims

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
)

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) GetDel(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	delete(f.data, key)
	return redis.NewStringResult(v, nil)
}

func TestIssueAndRedeemOnce(t *testing.T) {
	rdb := newFakeRedis()
	store := NewRedisStore(rdb, 48*time.Hour)
	teacherID := uuid.New()

	token, err := store.Issue(context.Background(), Claim{TeacherID: teacherID, IdentityID: "id-1"})
	require.NoError(t, err)
	assert.Len(t, token, 43)
	assert.Equal(t, 48*time.Hour, rdb.ttls[keyPrefix+token])

	claim, err := store.Redeem(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, teacherID, claim.TeacherID)
	assert.Equal(t, "id-1", claim.IdentityID)
	assert.False(t, claim.IssuedAt.IsZero())

	_, err = store.Redeem(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrClaimNotFound)
}

func TestRedeemUnknownToken(t *testing.T) {
	store := NewRedisStore(newFakeRedis(), time.Hour)

	_, err := store.Redeem(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrClaimNotFound)

	_, err = store.Redeem(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrClaimNotFound)
}

func TestTokensAreDistinct(t *testing.T) {
	store := NewRedisStore(newFakeRedis(), time.Hour)
	a, err := store.Issue(context.Background(), Claim{TeacherID: uuid.New()})
	require.NoError(t, err)
	b, err := store.Issue(context.Background(), Claim{TeacherID: uuid.New()})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRestoreKeepsRemainingLifetime(t *testing.T) {
	rdb := newFakeRedis()
	store := NewRedisStore(rdb, 48*time.Hour)
	issued := time.Now()
	store.now = func() time.Time { return issued }

	token, err := store.Issue(context.Background(), Claim{TeacherID: uuid.New()})
	require.NoError(t, err)
	claim, err := store.Redeem(context.Background(), token)
	require.NoError(t, err)

	store.now = func() time.Time { return issued.Add(12 * time.Hour) }
	require.NoError(t, store.Restore(context.Background(), token, *claim))
	assert.Equal(t, 36*time.Hour, rdb.ttls[keyPrefix+token])

	again, err := store.Redeem(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, claim.TeacherID, again.TeacherID)
}

func TestRestoreExpiredClaim(t *testing.T) {
	rdb := newFakeRedis()
	store := NewRedisStore(rdb, time.Hour)
	claim := Claim{TeacherID: uuid.New(), IssuedAt: time.Now().Add(-2 * time.Hour)}

	assert.ErrorIs(t, store.Restore(context.Background(), "late", claim), apperrors.ErrClaimNotFound)
	assert.Empty(t, rdb.data)
}
