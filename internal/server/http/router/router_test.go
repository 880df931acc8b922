package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/polkiloo/paperdesk/internal/config"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	pkgAuth "github.com/polkiloo/paperdesk/internal/pkg/auth"
	"github.com/polkiloo/paperdesk/internal/server/http/handlers"
	"github.com/polkiloo/paperdesk/internal/test/facadetest"
)

var _ handlers.DeskFacade = (*facadetest.DeskFacadeStub)(nil)

func newEngine(t *testing.T, facade *facadetest.DeskFacadeStub) *gin.Engine {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := &config.Config{ServiceName: "paperdesk-test", FrontendURL: "https://desk.example.com", MaxUploadBytes: 1 << 20}
	return Setup(facade, cfg, logger)
}

func serve(engine *gin.Engine, method, target string, body []byte, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestSetupRoutes(t *testing.T) {
	facade := &facadetest.DeskFacadeStub{}
	facade.Claims = pkgAuth.Claims{UserID: uuid.New(), TokenID: "jti"}
	engine := newEngine(t, facade)

	body, _ := json.Marshal(map[string]string{"email": "user@example.com", "password": "long password"})
	if resp := serve(engine, http.MethodPost, "/api/auth/register", body, ""); resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201 for register, got %d", resp.Code)
	}

	if resp := serve(engine, http.MethodGet, "/api/catalog", nil, ""); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for catalog, got %d", resp.Code)
	}

	if resp := serve(engine, http.MethodGet, "/api/health", nil, ""); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for health, got %d", resp.Code)
	}

	if resp := serve(engine, http.MethodGet, "/api/orders", nil, "token"); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for orders, got %d", resp.Code)
	}

	if resp := serve(engine, http.MethodGet, "/api/checkout/return?token=PAY-1", nil, ""); resp.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect from checkout return, got %d", resp.Code)
	}
	if facade.Decisions["PAY-1"] != model.DecisionApproved {
		t.Fatalf("expected approval to be recorded, got %v", facade.Decisions)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	facade := &facadetest.DeskFacadeStub{}
	facade.Err = pkgAuth.ErrInvalidToken
	engine := newEngine(t, facade)

	for _, target := range []string{"/api/orders", "/api/profile", "/api/admin/stats", "/api/writer/orders"} {
		if resp := serve(engine, http.MethodGet, target, nil, ""); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected status 401, got %d", target, resp.Code)
		}
	}
}

func TestRoleGroups(t *testing.T) {
	facade := &facadetest.DeskFacadeStub{}
	facade.Caps = model.Capabilities{Writer: true}
	engine := newEngine(t, facade)

	if resp := serve(engine, http.MethodGet, "/api/admin/stats", nil, "token"); resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for non-admin, got %d", resp.Code)
	}
	if resp := serve(engine, http.MethodGet, "/api/writer/orders", nil, "token"); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for writer, got %d", resp.Code)
	}

	facade.Caps = model.Capabilities{Admin: true}
	resp := serve(engine, http.MethodGet, "/api/admin/stats", nil, "token")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for admin, got %d", resp.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	engine := newEngine(t, &facadetest.DeskFacadeStub{})
	_ = serve(engine, http.MethodGet, "/api/health", nil, "")

	resp := serve(engine, http.MethodGet, "/metrics", nil, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for metrics, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "http_requests_total") {
		t.Fatal("expected request counter in metrics output")
	}
}
