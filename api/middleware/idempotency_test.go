package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type memoryIdempotencyStore struct {
	data map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{data: map[string]string{}}
}

func (m *memoryIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func idempotencyRouter(store *memoryIdempotencyStore, calls *int) http.Handler {
	r := chi.NewRouter()
	r.Use(Idempotency(store, nil))
	r.Post("/api/v1/return-items", func(w http.ResponseWriter, req *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(fmt.Sprintf(`{"call":%d}`, *calls)))
	})
	return r
}

func postItem(handler http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/return-items", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := idempotencyRouter(store, &calls)

	first := postItem(handler, "key-1", `{"name":"mug"}`)
	second := postItem(handler, "key-1", `{"name":"mug"}`)

	if calls != 1 {
		t.Fatalf("expected one handler invocation, got %d", calls)
	}
	if second.Code != first.Code || second.Body.String() != first.Body.String() {
		t.Fatalf("expected identical replay, got %d %q vs %d %q",
			first.Code, first.Body.String(), second.Code, second.Body.String())
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := idempotencyRouter(store, &calls)

	postItem(handler, "key-1", `{"name":"mug"}`)
	conflict := postItem(handler, "key-1", `{"name":"plate"}`)

	if conflict.Code != http.StatusConflict {
		t.Fatalf("expected 409 for body mismatch, got %d", conflict.Code)
	}
	if calls != 1 {
		t.Fatalf("expected the second request blocked, handler ran %d times", calls)
	}
}

func TestIdempotencyWithoutKeyPassesThrough(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	handler := idempotencyRouter(store, &calls)

	postItem(handler, "", `{"name":"mug"}`)
	postItem(handler, "", `{"name":"mug"}`)

	if calls != 2 {
		t.Fatalf("expected both requests to run, got %d", calls)
	}
}
