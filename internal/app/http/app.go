package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"coffee_configurator/internal/lib/logger/sl"
	appmiddleware "coffee_configurator/internal/middleware"
	httprouters "coffee_configurator/internal/transport/http"
	"coffee_configurator/internal/transport/http/dto/response"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"
)

const (
	leadRateBurst   = 3
	leadRateExpires = 10 * time.Minute
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// HealthCheck проверяет одну зависимость; nil — всё в порядке.
type HealthCheck func(ctx context.Context) error

type Options struct {
	Host           string
	Port           string
	AllowedOrigins []string
	StaticDir      string
	// LeadRateLimit — заявок в секунду с одного IP; 0 отключает ограничение.
	LeadRateLimit float64
	HealthChecks  map[string]HealthCheck
}

type Server struct {
	m       *http.ServeMux
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	opts    Options
}

func New(log *slog.Logger, opts Options, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	validate := validator.New()
	e.Validator = &CustomValidator{validator: validate}

	e.Use(middleware.CORSWithConfig(corsConfig(opts.AllowedOrigins)))
	e.Use(middleware.Recover())

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogMethod:   true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote ip", v.RemoteIP),
			)

			return nil
		},
	}))
	e.Use(appmiddleware.PrometheusMetrics)

	mux := http.NewServeMux()
	err := statsviz.Register(mux)
	if err != nil {
		log.Info("Statsviz start with error", slog.Any("error:", err.Error()))
	}

	return &Server{
		m:       mux,
		log:     log,
		e:       e,
		routers: routers,
		opts:    opts,
	}
}

// Echo отдаёт собранный echo, например для httptest.
func (s *Server) Echo() *echo.Echo {
	return s.e
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"), slog.String("addr", s.addr()))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(s.addr()); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", slog.String("op", op))

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

func (s *Server) addr() string {
	return net.JoinHostPort(s.opts.Host, s.opts.Port)
}

// Health godoc
// @Summary Проверка готовности
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (s *Server) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	result := map[string]string{"status": "ok"}

	for name, check := range s.opts.HealthChecks {
		if err := check(ctx); err != nil {
			s.log.Warn("health check failed", slog.String("dependency", name), sl.Err(err))
			result[name] = "unavailable"
			result["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		result[name] = "ok"
	}

	return c.JSON(status, result)
}

func (s *Server) leadLimiter() echo.MiddlewareFunc {
	if s.opts.LeadRateLimit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(s.opts.LeadRateLimit),
		Burst:     leadRateBurst,
		ExpiresIn: leadRateExpires,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, response.Error("rate limiter error"))
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, response.Error("Слишком много заявок, попробуйте позже"))
		},
	})
}

func (s *Server) BuildRouters() {
	s.e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/admin/table")
	})
	s.e.GET("/health", s.Health)

	if s.opts.StaticDir != "" {
		s.e.Static("/static", s.opts.StaticDir)
	}

	s.e.GET("/metrics", echoprometheus.NewHandler())

	debug := s.e.Group("/debug")
	{
		debug.GET("/statsviz/", echo.WrapHandler(s.m))
		debug.GET("/statsviz/*", echo.WrapHandler(s.m))
	}

	s.e.GET("/swagger/*", echoSwagger.WrapHandler)

	s.e.GET("/login", s.routers.LoginPage)
	s.e.POST("/login", s.routers.Login)
	s.e.GET("/logout", s.routers.Logout)

	api := s.e.Group("/api")
	{
		api.GET("/coffee-machines", s.routers.ListMachines)
		api.GET("/coffee-machines/:id", s.routers.GetMachine)
		api.GET("/coffee-machines/:id/design-image", s.routers.GetDesignImage)
		api.GET("/models", s.routers.ListModels)
		api.GET("/specs", s.routers.ListSpecs)
		api.GET("/specs/by-name", s.routers.GetSpecByName)
		api.GET("/specs/:id", s.routers.GetSpec)
		api.POST("/lead", s.routers.SubmitLead, s.leadLimiter())
	}

	admin := s.e.Group("/admin", s.routers.AdminGuard)
	{
		admin.GET("", s.routers.Dashboard)
		admin.GET("/", s.routers.Dashboard)
		admin.GET("/table", s.routers.MachinesTable)
		admin.GET("/specs", s.routers.SpecsTable)
		admin.GET("/leads", s.routers.LeadsTable)

		admin.POST("/import", s.routers.ImportMachines)
		admin.GET("/export", s.routers.ExportMachines)

		admin.GET("/seafile-browser", s.routers.SeafileBrowser)
		admin.GET("/seafile-file", s.routers.SeafileFile)

		admin.POST("/machine", s.routers.CreateMachine)
		admin.POST("/machine/:id", s.routers.UpdateMachine)
		admin.POST("/machine/:id/delete", s.routers.DeleteMachine)
		admin.POST("/machine/:id/refresh-media", s.routers.RefreshMachineMedia)
		admin.POST("/machine/:id/ozon-price", s.routers.SyncOzonPrice)
		admin.POST("/machines/bulk-delete", s.routers.BulkDeleteMachines)
		admin.POST("/update-image/:id", s.routers.UpdateImages)

		admin.POST("/spec", s.routers.CreateSpec)
		admin.POST("/spec/:id", s.routers.UpdateSpec)
		admin.POST("/spec/:id/delete", s.routers.DeleteSpec)
		admin.POST("/specs/bulk-delete", s.routers.BulkDeleteSpecs)
		admin.POST("/specs/auto-populate", s.routers.AutoPopulateSpecs)
	}
}

// corsConfig разрешает cookie; при "*" в ответ уходит Origin запроса, а не литерал "*".
func corsConfig(origins []string) middleware.CORSConfig {
	wildcard := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}

	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowCredentials: true,

		UnsafeWildcardOriginWithAllowCredentials: wildcard,
	}
}
