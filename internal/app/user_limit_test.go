package app

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"pdfdispatch/internal/config"
)

type memStore struct {
	sync.RWMutex
	m map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{m: make(map[string][]byte)}
}

func (s *memStore) Get(key string) ([]byte, error) {
	s.RLock()
	defer s.RUnlock()
	val, ok := s.m[key]
	if !ok {
		return nil, nil
	}
	return val, nil
}

func (s *memStore) Set(key string, val []byte, exp time.Duration) error {
	s.Lock()
	s.m[key] = val
	s.Unlock()
	return nil
}

func (s *memStore) Delete(key string) error {
	s.Lock()
	delete(s.m, key)
	s.Unlock()
	return nil
}

func (s *memStore) Reset() error {
	s.Lock()
	s.m = make(map[string][]byte)
	s.Unlock()
	return nil
}

func (s *memStore) Close() error { return nil }

func TestUserRateLimitMiddleware(t *testing.T) {
	cfg := config.RateLimiterConfig{Enabled: true, Max: 2, Interval: time.Hour}

	app := fiber.New()
	app.Use(userRateLimitMiddleware(cfg, newMemStore()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/ops/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	makeReq := func(path string) *http.Request {
		req := httptest.NewRequest("GET", path, nil)
		req.Header.Set("User-Agent", "test-agent")
		req.RemoteAddr = "1.2.3.4:5678"
		return req
	}

	for i := 0; i < 2; i++ {
		resp, err := app.Test(makeReq("/"), -1)
		if err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200 but got %d", resp.StatusCode)
		}
	}

	resp, err := app.Test(makeReq("/"), -1)
	if err != nil {
		t.Fatalf("third request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 but got %d", resp.StatusCode)
	}

	resp, err = app.Test(makeReq("/ops/health"), -1)
	if err != nil {
		t.Fatalf("ops request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected ops endpoints to bypass the limiter, got %d", resp.StatusCode)
	}
}

func TestUserRateLimitMiddleware_DisabledPassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(userRateLimitMiddleware(config.RateLimiterConfig{Enabled: false, Max: 1, Interval: time.Hour}, newMemStore()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
		if err != nil || resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d: expected 200, got %v %v", i+1, resp, err)
		}
	}
}
