package di

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/polkiloo/paperdesk/internal/adapter/session"
	"github.com/polkiloo/paperdesk/internal/config"
	"github.com/polkiloo/paperdesk/internal/domain/repository"
	"github.com/polkiloo/paperdesk/internal/server/http/handlers"
	"github.com/polkiloo/paperdesk/internal/storage/postgres"
	"github.com/polkiloo/paperdesk/internal/test"
	"github.com/polkiloo/paperdesk/internal/worker"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		RunAddress:         ":0",
		DatabaseURI:        "postgres://stub",
		ShutdownTimeout:    time.Millisecond,
		JWTSecret:          "secret",
		TokenTTL:           time.Hour,
		BcryptCost:         4,
		PublicURL:          "http://localhost:8080",
		FrontendURL:        "http://localhost:3000",
		PayPalBaseURL:      "https://api-m.sandbox.paypal.com",
		PayPalClientID:     "client",
		PayPalClientSecret: "secret",
		UploadDir:          t.TempDir(),
		MaxUploadBytes:     1 << 20,
		CapabilityTTL:      time.Minute,
		ReconcileInterval:  time.Second,
		WorkerPoolSize:     1,
		ReconcileBatch:     1,
		ServiceName:        "paperdesk-test",
	}
}

func storageReplacements() []fx.Option {
	return []fx.Option{
		fx.Replace(&postgres.Storage{}),
		fx.Replace(fx.Annotate(test.NewProfileRepositoryStub(), fx.As(new(repository.ProfileRepository)))),
		fx.Replace(fx.Annotate(test.NewOrderRepositoryStub(), fx.As(new(repository.OrderRepository)))),
		fx.Replace(fx.Annotate(test.NewAttachmentRepositoryStub(), fx.As(new(repository.AttachmentRepository)))),
		fx.Replace(fx.Annotate(test.NewPaymentRepositoryStub(), fx.As(new(repository.PaymentRepository)))),
		fx.Replace(fx.Annotate(test.NewPasswordResetRepositoryStub(), fx.As(new(repository.PasswordResetRepository)))),
	}
}

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	opts := append([]fx.Option{fx.Replace(testConfig(t)), fx.Replace(logger)}, storageReplacements()...)

	var (
		facade  handlers.DeskFacade
		engine  *gin.Engine
		backend *session.Backend
		recon   *worker.Reconciler
	)
	fxApp := fx.New(
		fx.NopLogger,
		fx.Provide(func() context.Context { return context.Background() }),
		Module(opts...),
		fx.Populate(&facade, &engine, &backend, &recon),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil || engine == nil || recon == nil {
		t.Fatal("expected facade, router and reconciler instances")
	}
	if backend.Kind != "memory" {
		t.Fatalf("expected in-memory session state without redis, got %q", backend.Kind)
	}
}

func TestInfrastructureStandsAlone(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	opts := append([]fx.Option{fx.Replace(testConfig(t)), fx.Replace(logger)}, storageReplacements()...)

	var payments repository.PaymentRepository
	fxApp := fx.New(
		fx.NopLogger,
		fx.Provide(func() context.Context { return context.Background() }),
		Infrastructure(),
		fx.Options(opts...),
		fx.Populate(&payments),
	)
	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	if payments == nil {
		t.Fatal("expected payment repository")
	}
}
