package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expense-tracker/internal/config"
	"expense-tracker/internal/database"
	"expense-tracker/internal/middleware"
	"expense-tracker/internal/models"
	"expense-tracker/internal/repositories"
	"expense-tracker/internal/services"
	"expense-tracker/internal/services/service_mocks"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

// RouterSuite drives the full HTTP stack against an in-memory database
type RouterSuite struct {
	suite.Suite
	db           *database.DB
	router       *echo.Echo
	deps         Dependencies
	tokenService services.TokenServiceInterface
	owner        *models.User
	other        *models.User
}

func (s *RouterSuite) SetupTest() {
	s.db = database.SetupTestDB(s.T())

	privateKey, publicKey, err := config.GenerateRSAKeyPair()
	s.Require().NoError(err)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Environment:      "testing",
			ClientURL:        "http://localhost:5173",
			CORSAllowOrigins: []string{"http://localhost:5173"},
		},
		JWT: config.JWTConfig{
			SessionDuration: time.Hour,
			PrivateKey:      privateKey,
			PublicKey:       publicKey,
			Issuer:          "expense-tracker",
		},
		OAuth:    config.OAuthConfig{StateCookieTTL: 10 * time.Minute},
		Security: config.SecurityConfig{RateLimitRequests: 1000, RateLimitWindow: time.Minute},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	metrics := services.NewPrometheusMetrics(registry)

	expenseRepo := repositories.NewExpenseRepository(s.db.DB)
	userRepo := repositories.NewUserRepository(s.db.DB)
	blacklistedTokenRepo := repositories.NewBlacklistedTokenRepository(s.db.DB)

	s.tokenService = services.NewTokenService(&cfg.JWT)
	identityProvider := service_mocks.NewMockIdentityProviderInterface(gomock.NewController(s.T()))

	s.deps = Dependencies{
		Config:               cfg,
		DB:                   s.db,
		ExpenseService:       services.NewExpenseService(expenseRepo, metrics, logger),
		AuthService:          services.NewAuthService(userRepo, blacklistedTokenRepo, identityProvider, s.tokenService, metrics, logger),
		TokenService:         s.tokenService,
		BlacklistedTokenRepo: blacklistedTokenRepo,
		RateLimiter:          middleware.NewRateLimiter(cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow),
		MetricsGatherer:      registry,
	}
	s.router = NewRouter(s.deps)

	s.owner = database.CreateTestUser(s.T(), s.db, "owner@example.com")
	s.other = database.CreateTestUser(s.T(), s.db, "other@example.com")
}

func (s *RouterSuite) TearDownTest() {
	database.CleanupTestDB(s.T(), s.db)
}

func (s *RouterSuite) tokenFor(user *models.User) string {
	token, _, err := s.tokenService.GenerateAccessToken(user)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, target, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func (s *RouterSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/api/health", "", "")

	s.Equal(http.StatusOK, rec.Code)
	s.NotEmpty(rec.Header().Get(middleware.TraceIDHeader))
	s.Equal("nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func (s *RouterSuite) TestUnknownRoute() {
	rec := s.do(http.MethodGet, "/api/nope", "", "")

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("SYSTEM_007", s.errorCode(rec))
}

func (s *RouterSuite) TestRateLimitIgnoresClientSuppliedForwardedFor() {
	deps := s.deps
	deps.RateLimiter = middleware.NewRateLimiter(2, time.Minute)
	router := NewRouter(deps)

	allowed := 0
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "198.51.100.20:4000"
		req.Header.Set(echo.HeaderXForwardedFor, fmt.Sprintf("203.0.113.%d", i+1))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		} else {
			s.Equal(http.StatusTooManyRequests, rec.Code)
		}
	}

	s.Equal(2, allowed)
}

func (s *RouterSuite) TestListRejectsPageBeyondLimit() {
	rec := s.do(http.MethodGet, "/api/expenses?page=9223372036854775807", s.tokenFor(s.owner), "")

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_001", s.errorCode(rec))
	s.Contains(rec.Body.String(), "page: must be at most 100000")
}

func (s *RouterSuite) TestExpensesRequireAuthentication() {
	rec := s.do(http.MethodGet, "/api/expenses", "", "")

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("AUTH_002", s.errorCode(rec))
}

func (s *RouterSuite) TestExpenseLifecycleAndStats() {
	token := s.tokenFor(s.owner)
	now := time.Now().UTC()

	rec := s.do(http.MethodPost, "/api/expenses", token,
		`{"amount": 25.5, "category": "food", "description": "Dinner", "date": "`+now.Format(time.RFC3339)+`"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))

	rec = s.do(http.MethodPost, "/api/expenses", token,
		`{"amount": 10, "category": "travel", "description": "Bus", "date": "`+now.Format(time.RFC3339)+`"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/api/expenses/stats", token, "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var stats struct {
		Data struct {
			CurrentMonth struct {
				Total float64 `json:"total"`
				Count int     `json:"count"`
			} `json:"currentMonth"`
			ByCategory []struct {
				Category string  `json:"category"`
				Total    float64 `json:"total"`
			} `json:"byCategory"`
			MonthlyTrend []struct {
				Month string `json:"month"`
			} `json:"monthlyTrend"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &stats))
	s.Equal(35.5, stats.Data.CurrentMonth.Total)
	s.Equal(2, stats.Data.CurrentMonth.Count)
	s.Require().Len(stats.Data.ByCategory, 2)
	s.Equal("food", stats.Data.ByCategory[0].Category)
	s.Require().Len(stats.Data.MonthlyTrend, 1)
	s.Equal(now.Format("2006-01"), stats.Data.MonthlyTrend[0].Month)

	rec = s.do(http.MethodGet, "/api/expenses?category=travel", token, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"total":1`)

	// another user can neither see nor change the expense
	otherToken := s.tokenFor(s.other)
	rec = s.do(http.MethodGet, "/api/expenses/"+created.Data.ID, otherToken, "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("EXPENSE_001", s.errorCode(rec))

	rec = s.do(http.MethodPut, "/api/expenses/"+created.Data.ID, otherToken, `{"amount": 1}`)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("EXPENSE_002", s.errorCode(rec))

	rec = s.do(http.MethodDelete, "/api/expenses/"+created.Data.ID, token, "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/expenses/"+created.Data.ID, token, "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RouterSuite) TestValidationErrorsUseCatalogue() {
	token := s.tokenFor(s.owner)

	rec := s.do(http.MethodPost, "/api/expenses", token, `{"amount": -3, "category": "food", "description": "x"}`)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_001", s.errorCode(rec))
	s.Contains(rec.Body.String(), "amount")
}

func (s *RouterSuite) TestLogoutRevokesToken() {
	token := s.tokenFor(s.owner)

	rec := s.do(http.MethodGet, "/api/auth/me", token, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "owner@example.com")

	rec = s.do(http.MethodPost, "/api/auth/logout", token, "")
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/auth/me", token, "")
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("AUTH_006", s.errorCode(rec))
}

func (s *RouterSuite) TestMetricsEndpoint() {
	token := s.tokenFor(s.owner)
	s.do(http.MethodGet, "/api/expenses/stats", token, "")

	rec := s.do(http.MethodGet, "/metrics", "", "")

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "stats_computation_duration_seconds")
}

func (s *RouterSuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/expenses", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	s.Equal("true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
}
