package middleware

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	pkgAuth "github.com/polkiloo/paperdesk/internal/pkg/auth"
	"github.com/polkiloo/paperdesk/internal/server/http/dto"
	testhelpers "github.com/polkiloo/paperdesk/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestAuthRequired(t *testing.T) {
	router := gin.New()
	router.Use(AuthRequired(&testhelpers.AuthorizerStub{}))
	router.GET("/", func(c *gin.Context) {})
	if resp := serve(router, ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	router = gin.New()
	router.Use(AuthRequired(&testhelpers.AuthorizerStub{Err: pkgAuth.ErrInvalidToken}))
	router.GET("/", func(c *gin.Context) {})
	if resp := serve(router, "token"); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", resp.Code)
	}

	router = gin.New()
	router.Use(AuthRequired(&testhelpers.AuthorizerStub{Err: context.DeadlineExceeded}))
	router.GET("/", func(c *gin.Context) {})
	if resp := serve(router, "token"); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}

	id := uuid.New()
	var storedID uuid.UUID
	router = gin.New()
	router.Use(AuthRequired(&testhelpers.AuthorizerStub{Claims: pkgAuth.Claims{UserID: id, TokenID: "jti"}}))
	router.GET("/", func(c *gin.Context) {
		if v, ok := c.Get(UserIDContextKey); ok {
			storedID = v.(uuid.UUID)
		}
		c.Status(http.StatusOK)
	})
	resp := serve(router, "token")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if storedID != id {
		t.Fatalf("expected user id %s, got %s", id, storedID)
	}
}

func TestRoleRequired(t *testing.T) {
	id := uuid.New()
	cases := []struct {
		name   string
		guard  func(Authorizer) gin.HandlerFunc
		caps   model.Capabilities
		err    error
		status int
	}{
		{"admin allowed", AdminRequired, model.Capabilities{Admin: true}, nil, http.StatusOK},
		{"admin denied", AdminRequired, model.Capabilities{Writer: true}, nil, http.StatusForbidden},
		{"writer allowed", WriterRequired, model.Capabilities{Writer: true}, nil, http.StatusOK},
		{"writer denied", WriterRequired, model.Capabilities{}, nil, http.StatusForbidden},
		{"profile gone", AdminRequired, model.Capabilities{}, domainErrors.ErrNotFound, http.StatusUnauthorized},
		{"lookup failed", AdminRequired, model.Capabilities{}, errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &testhelpers.AuthorizerStub{
				Claims:          pkgAuth.Claims{UserID: id},
				Caps:            tc.caps,
				CapabilitiesErr: tc.err,
			}
			router := gin.New()
			router.Use(AuthRequired(stub), tc.guard(stub))
			router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
			if resp := serve(router, "token"); resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
		})
	}

	router := gin.New()
	router.Use(AdminRequired(&testhelpers.AuthorizerStub{Caps: model.Capabilities{Admin: true}}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	if resp := serve(router, ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without prior authentication, got %d", resp.Code)
	}
}

func TestSetAuthCookie(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	SetAuthCookie(c, "token", time.Now().Add(time.Hour))
	if got := recorder.Header().Get("Authorization"); got != "Bearer token" {
		t.Fatalf("expected auth header, got %q", got)
	}
	result := recorder.Result()
	t.Cleanup(func() {
		_ = result.Body.Close()
	})
	cookies := result.Cookies()
	if len(cookies) == 0 || cookies[0].Value != "token" || !cookies[0].HttpOnly {
		t.Fatalf("expected http-only cookie with token, got %+v", cookies)
	}
	if cookies[0].MaxAge <= 0 {
		t.Fatalf("expected cookie to expire with the session, got %d", cookies[0].MaxAge)
	}
}

func TestClearAuthCookie(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	ClearAuthCookie(c)
	result := recorder.Result()
	t.Cleanup(func() {
		_ = result.Body.Close()
	})
	cookies := result.Cookies()
	if len(cookies) == 0 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got %+v", cookies)
	}
}

func TestExtractToken(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	if token := extractToken(c); token != "" {
		t.Fatalf("expected empty token, got %q", token)
	}
	c.Request.Header.Set("Authorization", "Bearer abc")
	if token := extractToken(c); token != "abc" {
		t.Fatalf("expected token from header, got %q", token)
	}
	c.Request.Header.Del("Authorization")
	c.Request.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "cookie"})
	if token := extractToken(c); token != "cookie" {
		t.Fatalf("expected token from cookie, got %q", token)
	}
}

func gzipped(t *testing.T, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(payload)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func decompressRouter(maxBytes int64, body *string, readErr *error) *gin.Engine {
	router := gin.New()
	router.Use(DecompressRequest(maxBytes))
	router.POST("/", func(c *gin.Context) {
		data, err := io.ReadAll(c.Request.Body)
		*body, *readErr = string(data), err
		c.Status(http.StatusOK)
	})
	return router
}

func TestDecompressRequest(t *testing.T) {
	var (
		body    string
		readErr error
	)
	router := decompressRouter(1024, &body, &readErr)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(gzipped(t, "payload")))
	req.Header.Set("Content-Encoding", "gzip")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || body != "payload" || readErr != nil {
		t.Fatalf("expected decompressed payload, got %d %q %v", resp.Code, body, readErr)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("plain"))
	resp = httptest.NewRecorder()
	body = ""
	router.ServeHTTP(resp, req)
	if body != "plain" {
		t.Fatalf("expected plain body, got %q", body)
	}
}

func TestDecompressRequestRejectsBadBodies(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		body     []byte
		status   int
		message  string
	}{
		{name: "malformed gzip", encoding: "gzip", body: []byte("not gzip"), status: http.StatusBadRequest, message: "request body is not valid gzip"},
		{name: "unsupported encoding", encoding: "br", body: []byte("x"), status: http.StatusUnsupportedMediaType, message: "unsupported content encoding br"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				body    string
				readErr error
			)
			router := decompressRouter(1024, &body, &readErr)

			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(tt.body))
			req.Header.Set("Content-Encoding", tt.encoding)
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.Code)
			}
			var payload dto.ErrorResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if payload.Error != tt.message {
				t.Fatalf("unexpected error message %q", payload.Error)
			}
			if body != "" {
				t.Fatalf("handler must not run, got body %q", body)
			}
		})
	}
}

func TestDecompressRequestCapsInflatedBody(t *testing.T) {
	var (
		body    string
		readErr error
	)
	router := decompressRouter(16, &body, &readErr)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(gzipped(t, strings.Repeat("a", 4096))))
	req.Header.Set("Content-Encoding", "gzip")
	router.ServeHTTP(httptest.NewRecorder(), req)

	var tooLarge *http.MaxBytesError
	if !errors.As(readErr, &tooLarge) || tooLarge.Limit != 16 {
		t.Fatalf("expected max bytes error, got %v", readErr)
	}
	if len(body) > 16 {
		t.Fatalf("read past the cap: %d bytes", len(body))
	}
}

func TestRequestLogger(t *testing.T) {
	var logged bool
	handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.LevelKey && a.Value.Any() == slog.LevelInfo {
			logged = true
		}
		return a
	}})
	logger := slog.New(handler)

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if !logged {
		t.Fatalf("expected request to be logged")
	}
}

func TestRequestLoggerErrorLevel(t *testing.T) {
	var level slog.Level
	handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.LevelKey {
			level = a.Value.Any().(slog.Level)
		}
		return a
	}})

	router := gin.New()
	router.Use(RequestLogger(slog.New(handler)))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if level != slog.LevelError {
		t.Fatalf("expected server errors to log at error level, got %v", level)
	}
}

func TestMetrics(t *testing.T) {
	router := gin.New()
	router.Use(Metrics())
	router.GET("/api/orders/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", PrometheusHandler())

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/orders/:id", "200"))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders/123", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/orders/:id", "200"))
	if after-before != 1 {
		t.Fatalf("expected counter to increase by one, got %v", after-before)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "http_request_duration_seconds") {
		t.Fatalf("expected metrics exposition, got %d", resp.Code)
	}
}
