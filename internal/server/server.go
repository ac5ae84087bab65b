package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xela07ax/compliance-ledger/internal/infra"
	"github.com/xela07ax/compliance-ledger/internal/infra/auth"
	"github.com/xela07ax/compliance-ledger/internal/report"
	"github.com/xela07ax/compliance-ledger/internal/retention"
	"github.com/xela07ax/compliance-ledger/internal/service"
	"go.uber.org/zap"
)

type Server struct {
	router  *chi.Mux
	httpSrv *http.Server
	logger  *zap.Logger
	cfg     infra.ServerConfig
	metrics *infra.Metrics

	// Проверка RS256 токенов на защищенном периметре
	validator auth.TokenValidator

	// Бизнес-домены
	records    *service.RecordService
	compliance *service.ComplianceService
	auth       *service.AuthService
	reports    *report.Generator
	sweeper    *retention.Sweeper

	limiter *addressLimiter
}

func New(
	cfg infra.ServerConfig,
	logger *zap.Logger,
	metrics *infra.Metrics,
	validator auth.TokenValidator,
	records *service.RecordService,
	compliance *service.ComplianceService,
	authSvc *service.AuthService,
	reports *report.Generator,
	sweeper *retention.Sweeper,
) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		logger:     logger.Named("api"),
		cfg:        cfg,
		metrics:    metrics,
		validator:  validator,
		records:    records,
		compliance: compliance,
		auth:       authSvc,
		reports:    reports,
		sweeper:    sweeper,
		limiter:    newAddressLimiter(cfg.CreateRatePerHour),
	}

	s.routes()

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ ---
	r.Group(func(r chi.Router) {
		// Логин доступен без токена
		r.Post("/auth/token", s.Login)

		// Healthcheck для мониторинга
		r.Get("/health", s.Health)
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (Требует RS256 токен) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.validator, s.logger))

		r.Route("/v1/records", func(r chi.Router) {
			r.Post("/", s.CreateRecord)
			r.Get("/", s.ListRecords) // Неадминам PII маскируется

			// Экспорт — только для админов; регистрируем до /{contentHash},
			// чтобы "export" не матчился как хеш
			r.With(auth.RequireAdmin).Get("/export", s.ExportRecords)

			r.Get("/{contentHash}", s.GetRecord)
		})

		r.Get("/v1/compliance/status", s.ComplianceStatus)

		// Админский периметр: отчеты и ручной запуск свипа
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/v1/reports", s.GenerateReport)
			r.Post("/v1/retention/sweep", s.TriggerSweep)
		})
	})
}

// instrument снимает latency/traffic метрики по шаблону роута.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		route = r.Method + " " + route

		s.metrics.TotalRequests.WithLabelValues(route).Inc()
		s.metrics.RequestDuration.
			WithLabelValues(route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

// Start блокирует до остановки сервера.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown корректно гасит сервер, дожидаясь in-flight запросов.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler (тесты).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
