package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/fx/fxtest"

	"github.com/polkiloo/paperdesk/internal/adapter/memory"
	"github.com/polkiloo/paperdesk/internal/config"
)

func testParams(cfg *config.Config) backendParams {
	return backendParams{
		Ctx:    context.Background(),
		Config: cfg,
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
}

func TestNewBackendFallsBackToMemory(t *testing.T) {
	backend, err := NewBackend(testParams(&config.Config{CapabilityTTL: time.Minute}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.Kind != "memory" {
		t.Fatalf("expected memory backend, got %s", backend.Kind)
	}
	if _, ok := backend.Broker.(*memory.ApprovalBroker); !ok {
		t.Fatalf("unexpected broker type %T", backend.Broker)
	}

	lc := fxtest.NewLifecycle(t)
	registerLifecycle(lc, backend)
	lc.RequireStart().RequireStop()
}

func TestNewBackendFailsOnUnreachableRedis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	p := testParams(&config.Config{RedisAddr: "127.0.0.1:1"})
	p.Ctx = ctx
	if _, err := NewBackend(p); err == nil {
		t.Fatal("expected ping error")
	}
}
