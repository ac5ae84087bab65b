package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/compliance-ledger/internal/audit"
	"github.com/xela07ax/compliance-ledger/internal/compliance"
	"github.com/xela07ax/compliance-ledger/internal/infra"
	"github.com/xela07ax/compliance-ledger/internal/infra/auth"
	"github.com/xela07ax/compliance-ledger/internal/report"
	"github.com/xela07ax/compliance-ledger/internal/repository/postgres"
	"github.com/xela07ax/compliance-ledger/internal/retention"
	"github.com/xela07ax/compliance-ledger/internal/server"
	"github.com/xela07ax/compliance-ledger/internal/service"
	"github.com/xela07ax/compliance-ledger/internal/vault"
	"go.uber.org/zap"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	// Контекст жизненного цикла фоновых горутин:
	// cancel() останавливает слушателей при SIGTERM
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Хранилище: миграции до открытия пула
	if err := postgres.Migrate(cfg.Database.URL); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	store, err := postgres.NewStore(appCtx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer store.Close()
	if err := store.Ping(appCtx); err != nil {
		logger.Fatal("postgres is unreachable", zap.Error(err))
	}

	// 3. Redis: инвалидация кэша правил
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// 4. Метрики
	reg := prometheus.NewRegistry()
	metrics := infra.NewMetrics(reg)

	// Экспортируем метрики для Prometheus на отдельном порту
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		logger.Info("metrics endpoint listening", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// 5. Комплаенс-ядро: кэш правил + эвалюатор + аудит
	ruleCache := compliance.NewRuleCache(store, rdb, logger)
	if err := ruleCache.Refresh(appCtx); err != nil {
		// Холодный кэш догрузится read-through'ом при первом запросе
		logger.Warn("initial rule cache load failed", zap.Error(err))
	}
	go ruleCache.StartListener(appCtx)

	evaluator := compliance.NewEvaluator(ruleCache, logger)
	recorder := audit.NewRecorder(store, cfg.Audit, metrics, logger)

	// 6. Шифрование метаданных
	metaVault, err := vault.New(cfg.Vault)
	if err != nil {
		logger.Fatal("invalid vault configuration", zap.Error(err))
	}

	// 7. Ретеншн-свипер по cron-расписанию
	sweeper := retention.NewSweeper(store, recorder, metrics, logger)
	scheduler := retention.NewScheduler(sweeper, cfg.Retention, logger)
	if err := scheduler.Start(appCtx); err != nil {
		logger.Fatal("failed to start retention scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	// 8. Аутентификация: RS256 ключи
	publicKey, err := auth.ParseRSAPublicKey(cfg.Auth.PublicKey)
	if err != nil {
		logger.Fatal("invalid auth public key", zap.Error(err))
	}
	privateKey, err := auth.ParseRSAPrivateKey(cfg.Auth.PrivateKey)
	if err != nil {
		logger.Fatal("invalid auth private key", zap.Error(err))
	}
	validator := auth.NewRS256Validator(publicKey)

	// 9. Сервисы и HTTP API
	recordSvc := service.NewRecordService(store, evaluator, recorder, metaVault, metrics, logger)
	complianceSvc := service.NewComplianceService(store, logger)
	authSvc := service.NewAuthService(store, privateKey, cfg.Auth, logger)
	reportGen := report.NewGenerator(store, logger)

	srv := server.New(cfg.Server, logger, metrics, validator,
		recordSvc, complianceSvc, authSvc, reportGen, sweeper)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")
	cancel()

	// Даем 5 секунд на завершение in-flight запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	logger.Info("stopped")
}
