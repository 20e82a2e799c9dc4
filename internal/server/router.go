package server

import (
	"log/slog"
	"net/http"

	"expense-tracker/internal/config"
	"expense-tracker/internal/handlers"
	"expense-tracker/internal/middleware"
	"expense-tracker/internal/repositories"
	"expense-tracker/internal/services"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxRequestBody = "1M"

// Dependencies are the collaborators the HTTP API is built from
type Dependencies struct {
	Config               *config.Config
	DB                   handlers.DatabasePinger
	ExpenseService       services.ExpenseServiceInterface
	AuthService          services.AuthServiceInterface
	TokenService         services.TokenServiceInterface
	BlacklistedTokenRepo repositories.BlacklistedTokenRepositoryInterface
	RateLimiter          *middleware.RateLimiter
	MetricsGatherer      prometheus.Gatherer
}

// NewRouter builds the Echo instance with middleware and every route registered
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// X-Forwarded-For is honoured only when it was appended by a loopback or
	// private-network proxy; anything a client sends itself is ignored
	e.IPExtractor = echo.ExtractIPFromXFFHeader()
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler

	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery())
	e.Use(requestLogger())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     deps.Config.Server.CORSAllowOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.TraceIDHeader},
		ExposeHeaders:    []string{middleware.TraceIDHeader},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit(maxRequestBody))

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{})))

	healthHandler := handlers.NewHealthCheckHandler(deps.DB)
	authHandler := handlers.NewAuthHandler(deps.AuthService, handlers.AuthHandlerConfig{
		ClientURL:       deps.Config.Server.ClientURL,
		CookieSecure:    deps.Config.Security.CookieSecure,
		SessionDuration: deps.Config.JWT.SessionDuration,
		StateTTL:        deps.Config.OAuth.StateCookieTTL,
	})
	expenseHandler := handlers.NewExpenseHandler(deps.ExpenseService, repositories.DefaultListLimit)

	requireAuth := middleware.RequireAuth(deps.TokenService, deps.BlacklistedTokenRepo)

	api := e.Group("/api", deps.RateLimiter.Middleware())
	api.GET("/health", healthHandler.HealthCheck)

	auth := api.Group("/auth")
	auth.GET("/google", authHandler.GoogleLogin)
	auth.GET("/google/callback", authHandler.GoogleCallback)
	auth.GET("/me", authHandler.Me, requireAuth)
	auth.POST("/logout", authHandler.Logout, requireAuth)

	expenses := api.Group("/expenses", requireAuth)
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("/stats", expenseHandler.GetStats)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	return e
}

func requestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"remote_ip", v.RemoteIP,
				"trace_id", middleware.GetTraceID(c),
			}
			if v.Error != nil {
				slog.Warn("request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			slog.Info("request", attrs...)
			return nil
		},
	})
}
