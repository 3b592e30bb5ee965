package cache

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ValkeyClient caches resolved credentials so every request does not pay a
// bcrypt comparison against the database.
type ValkeyClient struct {
	client       *redis.Client
	usersHashKey string
}

func NewValkeyClient() (*ValkeyClient, error) {
	addr := os.Getenv("VALKEY_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	password := os.Getenv("VALKEY_PASSWORD")
	usersHashKey := os.Getenv("VALKEY_USERS_HASH_KEY")
	if usersHashKey == "" {
		usersHashKey = "accounts:auth"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyClient{
		client:       rdb,
		usersHashKey: usersHashKey,
	}, nil
}

// AuthCacheKey derives the hash-field key for an email/password pair. The raw
// password never reaches the cache.
func AuthCacheKey(email, password string) string {
	sum := sha256.Sum256([]byte(password))
	authString := fmt.Sprintf("%s:%s", email, hex.EncodeToString(sum[:]))
	return base64.StdEncoding.EncodeToString([]byte(authString))
}

// GetAccountIDByAuth looks a credential pair up in the cache. A miss returns
// redis.Nil wrapped in the error.
func (v *ValkeyClient) GetAccountIDByAuth(ctx context.Context, email, password string) (int64, error) {
	idStr, err := v.client.HGet(ctx, v.usersHashKey, AuthCacheKey(email, password)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("account not found in cache: %w", err)
		}
		return 0, fmt.Errorf("cache lookup error: %w", err)
	}

	accountID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid account ID in cache: %w", err)
	}

	return accountID, nil
}

// SetAccountIDByAuth stores a verified credential pair after a database hit.
func (v *ValkeyClient) SetAccountIDByAuth(ctx context.Context, email, password string, accountID int64) error {
	return v.client.HSet(ctx, v.usersHashKey, AuthCacheKey(email, password),
		strconv.FormatInt(accountID, 10)).Err()
}

const (
	catalogKey = "events:catalog"
	catalogTTL = 30 * time.Second
)

// GetEventCatalog returns the cached raw JSON of the default catalog page, or
// redis.Nil-wrapped error on a miss.
func (v *ValkeyClient) GetEventCatalog(ctx context.Context) ([]byte, error) {
	data, err := v.client.Get(ctx, catalogKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("catalog not cached: %w", err)
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}
	return data, nil
}

// SetEventCatalog stores the serialized default catalog page with a short TTL.
func (v *ValkeyClient) SetEventCatalog(ctx context.Context, data []byte) error {
	return v.client.Set(ctx, catalogKey, data, catalogTTL).Err()
}

// InvalidateEventCatalog drops the cached catalog page after a write to the
// event set.
func (v *ValkeyClient) InvalidateEventCatalog(ctx context.Context) error {
	return v.client.Del(ctx, catalogKey).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
