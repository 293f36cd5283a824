package routes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GunarsK-portfolio/contacts-service/internal/config"
	"github.com/GunarsK-portfolio/contacts-service/internal/handlers"
	"github.com/GunarsK-portfolio/contacts-service/internal/middleware"
	"github.com/GunarsK-portfolio/contacts-service/internal/models"
	"github.com/GunarsK-portfolio/contacts-service/internal/repository"
	"github.com/GunarsK-portfolio/contacts-service/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type stubAuthService struct {
	service.AuthService
}

func (s *stubAuthService) CurrentUser(_ context.Context, token string) (*models.User, error) {
	if token == "valid" {
		return &models.User{ID: 1, Email: "alice@example.com"}, nil
	}
	return nil, service.ErrUnauthorized
}

type stubContactService struct {
	service.ContactService
}

func (s *stubContactService) List(context.Context, int64, repository.Page) ([]models.Contact, error) {
	return []models.Contact{}, nil
}

func (s *stubContactService) BirthdaysWithin(context.Context, int, int64) ([]models.Contact, error) {
	return []models.Contact{}, nil
}

func (s *stubContactService) Create(_ context.Context, fields repository.ContactFields, ownerID int64) (*models.Contact, error) {
	return &models.Contact{ID: 1, Email: fields.Email, Birth: fields.Birth, UserID: ownerID}, nil
}

func setupTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	auth := &stubAuthService{}

	h := Handlers{
		Auth:     handlers.NewAuthHandler(auth, nil, handlers.NewCookieHelper(cfg.Cookie)),
		Users:    handlers.NewUserHandler(nil),
		Contacts: handlers.NewContactHandler(&stubContactService{}),
		Health: handlers.NewHealthHandler(map[string]handlers.HealthCheck{
			"database": func(context.Context) error { return nil },
		}),
	}

	router := gin.New()
	Setup(router, h, Deps{
		AuthService: auth,
		Metrics:     middleware.NewMetrics(reg, "contacts"),
		Gatherer:    reg,
		Logger:      logger,
	}, cfg)
	return router
}

func testConfig() *config.Config {
	return &config.Config{
		RateLimitAuth:     2,
		RateLimitContacts: 10,
		RateLimitWindow:   time.Minute,
		AllowedOrigins:    []string{"*"},
		Cookie:            config.CookieConfig{Path: "/"},
	}
}

func TestSetup_RegistersRouteTable(t *testing.T) {
	router := setupTestRouter(t, testConfig())

	want := []string{
		"GET /health",
		"GET /api/healthchecker",
		"GET /metrics",
		"POST /api/auth/signup",
		"POST /api/auth/login",
		"GET /api/auth/refresh_token",
		"POST /api/auth/logout",
		"GET /api/auth/confirmed_email/:token",
		"POST /api/auth/request_email",
		"GET /api/users/me",
		"PATCH /api/users/avatar",
		"GET /api/contacts",
		"GET /api/contacts/search_by_id/:id",
		"GET /api/contacts/search_by_lastname/:lastname",
		"GET /api/contacts/search_by_firstname/:firstname",
		"GET /api/contacts/search_by_email/:email",
		"GET /api/contacts/birthdays",
		"POST /api/contacts",
		"PUT /api/contacts/:id",
		"DELETE /api/contacts/:id",
	}

	registered := make(map[string]bool)
	for _, r := range router.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, route := range want {
		if !registered[route] {
			t.Errorf("route %s not registered", route)
		}
	}
	if registered["GET /swagger/*any"] {
		t.Error("swagger should be disabled without SwaggerHost")
	}
}

func TestSetup_SwaggerWhenConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerHost = "localhost:8000"
	router := setupTestRouter(t, cfg)

	found := false
	for _, r := range router.Routes() {
		if r.Path == "/swagger/*any" {
			found = true
		}
	}
	if !found {
		t.Error("swagger route missing")
	}
}

func TestSetup_ProtectedGroups(t *testing.T) {
	router := setupTestRouter(t, testConfig())

	for _, path := range []string{"/api/contacts", "/api/users/me", "/api/contacts/birthdays"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, w.Code)
		}
	}
}

func TestSetup_AuthRateLimit(t *testing.T) {
	router := setupTestRouter(t, testConfig())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.1:1234"
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusBadRequest || codes[1] != http.StatusBadRequest {
		t.Errorf("first requests = %v, want 400s", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}
}

func TestSetup_HealthAndHeaders(t *testing.T) {
	router := setupTestRouter(t, testConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get(middleware.PerformanceHeader) == "" {
		t.Error("performance header missing")
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", w.Header().Get("Access-Control-Allow-Origin"))
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "contacts_http_requests_total") {
		t.Errorf("metrics status = %d", w.Code)
	}
}

func TestCORSConfig(t *testing.T) {
	all := corsConfig([]string{"*"})
	if !all.AllowAllOrigins || all.AllowCredentials {
		t.Errorf("wildcard config = %+v", all)
	}

	listed := corsConfig([]string{"https://app.example.com"})
	if listed.AllowAllOrigins || !listed.AllowCredentials || len(listed.AllowOrigins) != 1 {
		t.Errorf("listed config = %+v", listed)
	}
}

func sendFrom(router http.Handler, ip, method, path, body string, authenticated bool) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = ip + ":1234"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer valid")
	}
	router.ServeHTTP(w, req)
	return w.Code
}

func TestSetup_ContactsLimitGuardsListingOnly(t *testing.T) {
	router := setupTestRouter(t, testConfig())
	const ip = "192.0.2.10"

	for i := 0; i < 10; i++ {
		if code := sendFrom(router, ip, http.MethodGet, "/api/contacts", "", true); code != http.StatusOK {
			t.Fatalf("listing %d status = %d, want 200", i+1, code)
		}
	}

	body := `{"firstname":"Ada","lastname":"Lovelace","email":"ada@example.com","phone":"1","birth":"1815-12-10"}`
	if code := sendFrom(router, ip, http.MethodPost, "/api/contacts", body, true); code != http.StatusCreated {
		t.Errorf("create after exhausted listing allowance = %d, want 201", code)
	}
	if code := sendFrom(router, ip, http.MethodGet, "/api/contacts/birthdays", "", true); code != http.StatusOK {
		t.Errorf("birthdays after exhausted listing allowance = %d, want 200", code)
	}
	if code := sendFrom(router, ip, http.MethodGet, "/api/contacts", "", true); code != http.StatusTooManyRequests {
		t.Errorf("11th listing = %d, want 429", code)
	}
}

func TestSetup_ContactsLimitRunsBeforeAuthentication(t *testing.T) {
	router := setupTestRouter(t, testConfig())
	const ip = "192.0.2.11"

	for i := 0; i < 10; i++ {
		if code := sendFrom(router, ip, http.MethodGet, "/api/contacts", "", false); code != http.StatusUnauthorized {
			t.Fatalf("listing %d status = %d, want 401", i+1, code)
		}
	}
	if code := sendFrom(router, ip, http.MethodGet, "/api/contacts", "", false); code != http.StatusTooManyRequests {
		t.Errorf("over-limit unauthenticated listing = %d, want 429", code)
	}
}
