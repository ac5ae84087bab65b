package retention

/*
Пакет retention реализует свипер ретеншна: периодический проход по правилам
хранения с удалением просроченных метазаписей.

Гарантии:
  - cutoff считается от момента запуска свипа: now - retention_period_days;
  - удаление по правилу выполняется одним batch DELETE, не по одной записи;
  - на каждую пачку удаленных записей ровно одна запись аудита (action=delete);
  - сбой одного правила не останавливает обработку остальных;
  - повторный запуск сразу после успешного — no-op (нечего удалять).

Сам факт удаления первичен: если аудит-запись после удаления не записалась,
удаление не откатывается, деградация фиксируется в Errors сводки.
*/

import (
	"context"
	"fmt"
	"time"

	"github.com/xela07ax/compliance-ledger/internal/audit"
	"github.com/xela07ax/compliance-ledger/internal/domain"
	"github.com/xela07ax/compliance-ledger/internal/infra"
	"go.uber.org/zap"
)

// RecordStorage — операции над метазаписями, нужные свиперу.
type RecordStorage interface {
	GetAllRetentionRules(ctx context.Context) ([]domain.DataRetentionRule, error)
	CountExpiredRecords(ctx context.Context, contentType domain.ContentType, cutoff time.Time) (int64, error)
	DeleteExpiredRecords(ctx context.Context, contentType domain.ContentType, cutoff time.Time) (int64, error)
}

type Sweeper struct {
	repo    RecordStorage
	auditor audit.Auditor
	metrics *infra.Metrics
	logger  *zap.Logger
}

func NewSweeper(repo RecordStorage, auditor audit.Auditor, metrics *infra.Metrics, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		repo:    repo,
		auditor: auditor,
		metrics: metrics,
		logger:  logger.Named("retention"),
	}
}

// Sweep выполняет один полный проход по всем правилам хранения.
// Ошибка возвращается только если не удалось получить сам список правил;
// все пер-правиловые сбои аккумулируются в сводке.
func (s *Sweeper) Sweep(ctx context.Context) (*domain.SweepSummary, error) {
	started := time.Now().UTC()
	summary := &domain.SweepSummary{Errors: []string{}}

	rules, err := s.repo.GetAllRetentionRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("retention: failed to load rules: %w", err)
	}

	for _, rule := range rules {
		cutoff := started.AddDate(0, 0, -rule.RetentionPeriodDays)

		count, err := s.repo.CountExpiredRecords(ctx, rule.ContentType, cutoff)
		if err != nil {
			// Изоляция сбоев: правило пропускаем, остальные обрабатываем
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("rule %s (%s): %v", rule.ID, rule.ContentType, err))
			s.logger.Error("retention rule failed",
				zap.String("rule_id", rule.ID),
				zap.String("content_type", string(rule.ContentType)),
				zap.Error(err))
			continue
		}
		summary.RecordsProcessed += count
		if count == 0 {
			continue
		}

		deleted, err := s.repo.DeleteExpiredRecords(ctx, rule.ContentType, cutoff)
		if err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("rule %s (%s): %v", rule.ID, rule.ContentType, err))
			s.logger.Error("retention delete failed",
				zap.String("rule_id", rule.ID),
				zap.String("content_type", string(rule.ContentType)),
				zap.Error(err))
			continue
		}
		summary.RecordsDeleted += deleted
		s.metrics.SweptRecords.WithLabelValues(string(rule.ContentType)).Add(float64(deleted))

		// Одна аудит-запись на пачку. Удаление уже случилось и не откатывается,
		// поэтому отказ аудита попадает в сводку как деградация.
		_, err = s.auditor.Record(ctx, audit.Entry{
			Action:       domain.ActionDelete,
			UserAddress:  "system",
			AuthorizedBy: "system",
			IsCompliant:  true,
			Details: map[string]interface{}{
				"content_type":     string(rule.ContentType),
				"records_deleted":  deleted,
				"retention_policy": rule.ID,
			},
			PolicyReference: "DataRetention:" + rule.ID,
		})
		if err != nil {
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("rule %s (%s): audit write failed: %v", rule.ID, rule.ContentType, err))
		}

		s.logger.Info("retention batch deleted",
			zap.String("rule_id", rule.ID),
			zap.String("content_type", string(rule.ContentType)),
			zap.Int64("deleted", deleted))
	}

	s.logger.Info("retention sweep finished",
		zap.Int64("processed", summary.RecordsProcessed),
		zap.Int64("deleted", summary.RecordsDeleted),
		zap.Int("errors", len(summary.Errors)),
		zap.Duration("took", time.Since(started)))
	return summary, nil
}
