package idempotency

import (
	"context"
	"testing"
	"time"

	redisadapter "github.com/robertarktes/court-reservations/internal/adapters/redis"
)

type mapStore struct {
	data  map[string]redisadapter.IdempResponse
	ttls  map[string]time.Duration
	locks map[string]bool
}

func (m *mapStore) Get(_ context.Context, key string) (*redisadapter.IdempResponse, error) {
	r, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *mapStore) Set(_ context.Context, key string, resp redisadapter.IdempResponse, ttl time.Duration) error {
	m.data[key] = resp
	m.ttls[key] = ttl
	return nil
}

func (m *mapStore) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *mapStore) Release(_ context.Context, key string) error {
	delete(m.locks, key)
	return nil
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("POST", "/reservations", []byte(`{"court_id":1}`))
	if a != Fingerprint("POST", "/reservations", []byte(`{"court_id":1}`)) {
		t.Error("fingerprint must be stable")
	}
	if a == Fingerprint("POST", "/reservations", []byte(`{"court_id":2}`)) {
		t.Error("different bodies must differ")
	}
	if Fingerprint("POST", "/a", []byte("b")) == Fingerprint("POST", "/ab", nil) {
		t.Error("path and body must be separated")
	}
}

func TestScopedKey(t *testing.T) {
	if ScopedKey(7, "k") == ScopedKey(8, "k") {
		t.Errorf("different users must not share a key")
	}
	if ScopedKey(7, "k") != ScopedKey(7, "k") {
		t.Errorf("scoped key is not stable")
	}
	if ScopedKey(0, "k") == ScopedKey(7, "k") {
		t.Errorf("anonymous key collides with a user key")
	}
	if ScopedKey(7, "1:k") == ScopedKey(71, ":k") {
		t.Errorf("ambiguous scoping")
	}
}

func TestIdempotency_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &mapStore{data: map[string]redisadapter.IdempResponse{}, ttls: map[string]time.Duration{}, locks: map[string]bool{}}
	idemp := NewIdempotency(store, time.Hour)

	if resp, err := idemp.Get(ctx, "k"); err != nil || resp != nil {
		t.Fatalf("expected nothing stored, got %v %v", resp, err)
	}
	if ok, _ := idemp.Begin(ctx, "k"); !ok {
		t.Fatal("expected to acquire key")
	}
	if ok, _ := idemp.Begin(ctx, "k"); ok {
		t.Error("expected in-flight key to be refused")
	}
	if err := idemp.Set(ctx, "k", Response{Fingerprint: "f", Status: 201, Result: []byte("{}")}); err != nil {
		t.Fatal(err)
	}
	idemp.End(ctx, "k")

	resp, err := idemp.Get(ctx, "k")
	if err != nil || resp == nil || resp.Status != 201 || resp.Fingerprint != "f" {
		t.Fatalf("unexpected stored response %+v %v", resp, err)
	}
	if store.ttls["k"] != time.Hour {
		t.Errorf("expected configured ttl, got %v", store.ttls["k"])
	}
	if ok, _ := idemp.Begin(ctx, "k"); !ok {
		t.Error("expected key to be free after End")
	}
}
