package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	redisadapter "github.com/robertarktes/court-reservations/internal/adapters/redis"
)

// Store is the persistence the idempotency layer needs; the Redis adapter implements it.
type Store interface {
	Get(ctx context.Context, key string) (*redisadapter.IdempResponse, error)
	Set(ctx context.Context, key string, resp redisadapter.IdempResponse, ttl time.Duration) error
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type Idempotency struct {
	store   Store
	ttl     time.Duration
	lockTTL time.Duration
}

func NewIdempotency(store Store, ttl time.Duration) *Idempotency {
	return &Idempotency{store: store, ttl: ttl, lockTTL: 30 * time.Second}
}

type Response struct {
	Fingerprint string
	Status      int
	Result      []byte
}

// Fingerprint identifies the request a key was first used with.
func Fingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// ScopedKey namespaces a client key by the authenticated user, so two users sending the
// same key never share a stored response. userID 0 means an anonymous request.
func ScopedKey(userID int64, key string) string {
	if userID <= 0 {
		return "anon:" + key
	}
	return "user:" + strconv.FormatInt(userID, 10) + ":" + key
}

func (i *Idempotency) Get(ctx context.Context, key string) (*Response, error) {
	stored, err := i.store.Get(ctx, key)
	if err != nil || stored == nil {
		return nil, err
	}
	return &Response{Fingerprint: stored.Fingerprint, Status: stored.Status, Result: stored.Result}, nil
}

func (i *Idempotency) Set(ctx context.Context, key string, resp Response) error {
	return i.store.Set(ctx, key, redisadapter.IdempResponse{
		Fingerprint: resp.Fingerprint,
		Status:      resp.Status,
		Result:      resp.Result,
	}, i.ttl)
}

// Begin marks key as in flight. It returns false when another request holds it.
func (i *Idempotency) Begin(ctx context.Context, key string) (bool, error) {
	return i.store.Acquire(ctx, key, i.lockTTL)
}

func (i *Idempotency) End(ctx context.Context, key string) error {
	return i.store.Release(ctx, key)
}
