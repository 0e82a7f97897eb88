package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRedis connects to REDIS_TEST_ADDR and skips when it is unset.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func testEmail() string {
	return "otp-" + uuid.NewString() + "@micamail.in"
}

func wrongCode(code string) string {
	if code == "100000" {
		return "100001"
	}
	return "100000"
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		assert.Len(t, code, 6)
		assert.NotEqual(t, byte('0'), code[0])
	}
}

func TestOTPStore_ConsumeIsSingleUse(t *testing.T) {
	client := newTestRedis(t)
	store := NewOTPStore(client, time.Minute, 3)
	ctx := context.Background()
	email := testEmail()

	code, err := store.Issue(ctx, email)
	require.NoError(t, err)

	ok, err := store.Consume(ctx, email, code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, email, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOTPStore_RevokesAfterMaxFailures(t *testing.T) {
	client := newTestRedis(t)
	store := NewOTPStore(client, time.Minute, 3)
	ctx := context.Background()
	email := testEmail()

	code, err := store.Issue(ctx, email)
	require.NoError(t, err)
	bad := wrongCode(code)

	for i := 0; i < 2; i++ {
		ok, err := store.Consume(ctx, email, bad)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	ok, err := store.Consume(ctx, email, bad)
	assert.ErrorIs(t, err, ErrOTPLocked)
	assert.False(t, ok)

	// the correct code no longer works once revoked
	ok, err = store.Consume(ctx, email, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOTPStore_IssueResetsFailures(t *testing.T) {
	client := newTestRedis(t)
	store := NewOTPStore(client, time.Minute, 2)
	ctx := context.Background()
	email := testEmail()

	first, err := store.Issue(ctx, email)
	require.NoError(t, err)
	ok, err := store.Consume(ctx, email, wrongCode(first))
	require.NoError(t, err)
	assert.False(t, ok)

	second, err := store.Issue(ctx, email)
	require.NoError(t, err)
	ok, err = store.Consume(ctx, email, wrongCode(second))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Consume(ctx, email, second)
	require.NoError(t, err)
	assert.True(t, ok)
}
