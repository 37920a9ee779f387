package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/BruksfildServices01/haircut-booking/internal/domain/identity"
	"github.com/BruksfildServices01/haircut-booking/internal/infra/cache"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier map[string]identity.Caller

func (s stubVerifier) VerifyToken(_ context.Context, token string) (*identity.Caller, error) {
	caller, ok := s[token]
	if !ok {
		return nil, identity.ErrInvalidToken
	}
	return &caller, nil
}

var verifier = stubVerifier{
	"user-token":  {UID: "u1"},
	"admin-token": {UID: "a1", IsAdmin: true},
}

func do(r *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/who", AuthMiddleware(verifier), func(c *gin.Context) {
		caller, _ := CallerFrom(c)
		c.String(http.StatusOK, caller.UID)
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"empty token", "Bearer ", http.StatusUnauthorized, ""},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid", "Bearer user-token", http.StatusOK, "u1"},
		{"lowercase scheme", "bearer user-token", http.StatusOK, "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := map[string]string{}
			if tt.header != "" {
				h["Authorization"] = tt.header
			}
			w := do(r, http.MethodGet, "/who", h)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.status, w.Body.String())
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AuthMiddleware(verifier), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	if w := do(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer user-token"}); w.Code != http.StatusForbidden {
		t.Errorf("user: status = %d, want 403", w.Code)
	}
	if w := do(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer admin-token"}); w.Code != http.StatusNoContent {
		t.Errorf("admin: status = %d, want 204", w.Code)
	}
}

func TestRateLimitPerClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 0.001, 2)
	r := gin.New()
	r.GET("/x", RateLimit(rl), func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := call("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, code)
		}
	}
	if code := call("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("over burst: status = %d, want 429", code)
	}
	if code := call("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", code)
	}
}

func TestRateLimiterSweep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 1, 1)
	rl.get("10.0.0.1")
	rl.sweep(time.Now().Add(limiterIdleAfter + time.Second))

	rl.mu.Lock()
	n := len(rl.clients)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("clients after sweep = %d, want 0", n)
	}
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]cache.Response
	failing bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]cache.Response)}
}

func (s *memoryStore) Lookup(_ context.Context, key string) (*cache.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return nil, errors.New("store down")
	}
	resp, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return &resp, nil
}

func (s *memoryStore) Save(_ context.Context, key string, resp cache.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("store down")
	}
	s.entries[key] = resp
	return nil
}

func idempotentEngine(store ResponseStore, status int) (*gin.Engine, *int) {
	logger, _ := test.NewNullLogger()
	calls := 0

	r := gin.New()
	r.POST("/book",
		AuthMiddleware(verifier),
		Idempotency(store, logger),
		func(c *gin.Context) {
			calls++
			c.JSON(status, gin.H{"call": calls})
		},
	)
	return r, &calls
}

func TestIdempotencyReplays(t *testing.T) {
	r, calls := idempotentEngine(newMemoryStore(), http.StatusCreated)
	h := map[string]string{"Authorization": "Bearer user-token", HeaderIdempotencyKey: "k1"}

	first := do(r, http.MethodPost, "/book", h)
	second := do(r, http.MethodPost, "/book", h)

	if *calls != 1 {
		t.Fatalf("handler calls = %d, want 1", *calls)
	}
	if second.Code != first.Code || second.Body.String() != first.Body.String() {
		t.Errorf("replay = %d %s, want %d %s", second.Code, second.Body, first.Code, first.Body)
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("missing replay header")
	}
}

func TestIdempotencyScopedByCaller(t *testing.T) {
	r, calls := idempotentEngine(newMemoryStore(), http.StatusCreated)

	do(r, http.MethodPost, "/book", map[string]string{"Authorization": "Bearer user-token", HeaderIdempotencyKey: "k1"})
	do(r, http.MethodPost, "/book", map[string]string{"Authorization": "Bearer admin-token", HeaderIdempotencyKey: "k1"})

	if *calls != 2 {
		t.Errorf("handler calls = %d, want 2", *calls)
	}
}

func TestIdempotencySkipsServerErrors(t *testing.T) {
	r, calls := idempotentEngine(newMemoryStore(), http.StatusInternalServerError)
	h := map[string]string{"Authorization": "Bearer user-token", HeaderIdempotencyKey: "k1"}

	do(r, http.MethodPost, "/book", h)
	do(r, http.MethodPost, "/book", h)

	if *calls != 2 {
		t.Errorf("handler calls = %d, want 2", *calls)
	}
}

func TestIdempotencyWithoutKeyOrStore(t *testing.T) {
	r, calls := idempotentEngine(newMemoryStore(), http.StatusCreated)
	h := map[string]string{"Authorization": "Bearer user-token"}
	do(r, http.MethodPost, "/book", h)
	do(r, http.MethodPost, "/book", h)
	if *calls != 2 {
		t.Errorf("no key: handler calls = %d, want 2", *calls)
	}

	r, calls = idempotentEngine(nil, http.StatusCreated)
	h[HeaderIdempotencyKey] = "k1"
	do(r, http.MethodPost, "/book", h)
	do(r, http.MethodPost, "/book", h)
	if *calls != 2 {
		t.Errorf("no store: handler calls = %d, want 2", *calls)
	}
}

func TestIdempotencyStoreOutage(t *testing.T) {
	store := newMemoryStore()
	store.failing = true

	logger, hook := test.NewNullLogger()
	r := gin.New()
	r.POST("/book", AuthMiddleware(verifier), Idempotency(store, logger), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := do(r, http.MethodPost, "/book", map[string]string{"Authorization": "Bearer user-token", HeaderIdempotencyKey: "k1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}

	warned := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned++
		}
	}
	if warned != 2 {
		t.Errorf("warnings = %d, want 2", warned)
	}
}
