package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aawaaz/civic-portal/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "otp:"

// RedisOTPs keeps OTP challenges in a per-email list, newest at the head.
// Keys expire on their own, so the sweeper has nothing to do here.
type RedisOTPs struct {
	client *redis.Client
	grace  time.Duration
}

// NewRedisOTPs returns an OTP repository backed by Redis. grace extends key
// lifetime past the challenge expiry so late verifications still see the
// expired record instead of a missing one.
func NewRedisOTPs(client *redis.Client, grace time.Duration) *RedisOTPs {
	return &RedisOTPs{client: client, grace: grace}
}

type redisOTP struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CodeHash  string    `json:"otp"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func otpKey(email string) string {
	return otpKeyPrefix + strings.ToLower(email)
}

func (r *RedisOTPs) Create(ctx context.Context, c *models.OTPChallenge) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	payload, err := json.Marshal(redisOTP{
		ID:        c.ID,
		Email:     c.Email,
		CodeHash:  c.CodeHash,
		CreatedAt: c.CreatedAt,
		ExpiresAt: c.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode otp: %w", err)
	}

	ttl := time.Until(c.ExpiresAt) + r.grace
	if ttl <= 0 {
		ttl = r.grace
	}

	key := otpKey(c.Email)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

func (r *RedisOTPs) Latest(ctx context.Context, email string) (*models.OTPChallenge, error) {
	raw, err := r.client.LIndex(ctx, otpKey(email), 0).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load otp: %w", err)
	}

	var doc redisOTP
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode otp: %w", err)
	}
	return &models.OTPChallenge{
		ID:        doc.ID,
		Email:     doc.Email,
		CodeHash:  doc.CodeHash,
		CreatedAt: doc.CreatedAt,
		ExpiresAt: doc.ExpiresAt,
	}, nil
}

// consumeScript drops the whole list when its head is still the challenge
// being verified. Returns the number of keys removed.
var consumeScript = redis.NewScript(`
local head = redis.call('LINDEX', KEYS[1], 0)
if not head then
	return 0
end
local ok, doc = pcall(cjson.decode, head)
if not ok or doc.id ~= ARGV[1] then
	return 0
end
return redis.call('DEL', KEYS[1])
`)

// Consume removes the challenge list when id is still the newest entry
func (r *RedisOTPs) Consume(ctx context.Context, email, id string) (bool, error) {
	n, err := consumeScript.Run(ctx, r.client, []string{otpKey(email)}, id).Int64()
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return n == 1, nil
}

func (r *RedisOTPs) DeleteByEmail(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, otpKey(email)).Err(); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (r *RedisOTPs) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisOTPs) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
