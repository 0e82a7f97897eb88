package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultOTPTTL         = 10 * time.Minute
	defaultOTPMaxAttempts = 5
)

// KEYS: code, failure counter. ARGV: code, max attempts, counter ttl (ms).
// Returns 1 on a match, 0 on a miss and -1 once the code has been revoked.
var consumeOTP = redis.NewScript(`
	local stored = redis.call("get", KEYS[1])
	if not stored then
		return 0
	end
	if stored == ARGV[1] then
		redis.call("del", KEYS[1], KEYS[2])
		return 1
	end
	local failures = redis.call("incr", KEYS[2])
	if failures == 1 then
		redis.call("pexpire", KEYS[2], ARGV[3])
	end
	if failures >= tonumber(ARGV[2]) then
		redis.call("del", KEYS[1], KEYS[2])
		return -1
	end
	return 0
`)

// OTPStore keeps one-time login codes in Redis. A code is revoked after
// maxAttempts wrong guesses.
type OTPStore struct {
	redis       *redis.Client
	ttl         time.Duration
	maxAttempts int
}

// NewOTPStore creates an OTP store. Zero values use 10 minutes and 5 attempts.
func NewOTPStore(client *redis.Client, ttl time.Duration, maxAttempts int) *OTPStore {
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultOTPMaxAttempts
	}
	return &OTPStore{redis: client, ttl: ttl, maxAttempts: maxAttempts}
}

func normalizeOTPEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func otpKey(email string) string {
	return fmt.Sprintf("auth:otp:%s", normalizeOTPEmail(email))
}

func otpFailuresKey(email string) string {
	return fmt.Sprintf("auth:otp:%s:failures", normalizeOTPEmail(email))
}

// Issue generates a 6-digit code for email, replacing any previous one.
func (s *OTPStore) Issue(ctx context.Context, email string) (string, error) {
	code, err := generateOTP()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, otpKey(email), code, s.ttl)
	pipe.Del(ctx, otpFailuresKey(email))
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Consume checks code and deletes it on a match. The guess that reaches the
// attempt limit revokes the code and returns ErrOTPLocked.
func (s *OTPStore) Consume(ctx context.Context, email, code string) (bool, error) {
	keys := []string{otpKey(email), otpFailuresKey(email)}
	n, err := consumeOTP.Run(ctx, s.redis, keys, code, s.maxAttempts, s.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	switch n {
	case 1:
		return true, nil
	case -1:
		return false, ErrOTPLocked
	}
	return false, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
