package audit

/*
Файл recorder.go реализует Audit Logger — синхронный писатель append-only трейла.

Контракт жесткий: один вызов Record = ровно одна строка в audit_logs (записи
никогда не склеиваются и не дедуплицируются). Отказ хранилища НЕ прерывает
основную операцию вызывающего: ошибка логируется, инкрементирует счетчик
audit_failures и возвращается индикатором, который вызывающий вправе игнорировать.

Надежность записи — ретраи с бэкоффом (avast/retry-go) внутри Circuit Breaker
(sony/gobreaker): при лежащей базе мы быстро переходим в fail-fast вместо
накапливания зависших вставок.
*/

import (
	"context"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"github.com/xela07ax/compliance-ledger/internal/domain"
	"github.com/xela07ax/compliance-ledger/internal/infra"
	"go.uber.org/zap"
)

// Storage определяет, куда физически сохраняются записи аудита
type Storage interface {
	InsertAuditLog(ctx context.Context, entry *domain.AuditLog) error
}

// Auditor — контракт для всех компонентов, порождающих аудит-события.
type Auditor interface {
	Record(ctx context.Context, e Entry) (*domain.AuditLog, error)
}

type Recorder struct {
	repo    Storage
	cb      *gobreaker.CircuitBreaker
	metrics *infra.Metrics
	logger  *zap.Logger

	attempts     uint
	writeTimeout time.Duration
}

func NewRecorder(repo Storage, cfg infra.AuditConfig, metrics *infra.Metrics, logger *zap.Logger) *Recorder {
	r := &Recorder{
		repo:         repo,
		metrics:      metrics,
		logger:       logger.Named("audit"),
		attempts:     uint(cfg.RetryAttempts),
		writeTimeout: cfg.WriteTimeout,
	}
	if r.attempts == 0 {
		r.attempts = 1
	}

	r.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "audit-writer",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			state := 0.0
			if to == gobreaker.StateOpen {
				state = 1.0
			}
			metrics.AuditBreakerState.Set(state)
			r.logger.Warn("audit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return r
}

// Record персистит ровно одну аудит-запись.
// Ошибка возвращается вызывающему как индикатор деградации аудита,
// но основная операция вызывающего обязана продолжиться в любом случае.
func (r *Recorder) Record(ctx context.Context, e Entry) (*domain.AuditLog, error) {
	entry := e.toLog(time.Now().UTC())

	_, err := r.cb.Execute(func() (interface{}, error) {
		rt := retry.New(
			retry.Context(ctx),
			retry.Attempts(r.attempts),
		)
		return nil, rt.Do(func() error {
			wCtx, cancel := context.WithTimeout(ctx, r.writeTimeout)
			defer cancel()
			return r.repo.InsertAuditLog(wCtx, entry)
		})
	})

	if err != nil {
		r.metrics.AuditFailures.Inc()
		r.logger.Error("audit write failed",
			zap.String("action", string(e.Action)),
			zap.String("user_address", e.UserAddress),
			zap.Error(err))
		return nil, err
	}

	r.logger.Debug("audit event logged",
		zap.String("action", string(e.Action)),
		zap.String("id", entry.ID))
	return entry, nil
}
