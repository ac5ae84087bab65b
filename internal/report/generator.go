package report

/*
Пакет report собирает регуляторные отчеты из трех источников:
агрегаты метазаписей, агрегаты аудит-трейла и срез активных политик.

compliance_rate — процент комплаентных действий за период, округленный до
двух знаков. Пустой период трактуется как полностью комплаентный (100),
а не как ноль: отсутствие действий не является нарушением.
*/

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/compliance-ledger/internal/domain"
	"go.uber.org/zap"
)

// StatsStorage — агрегирующие запросы, нужные генератору.
type StatsStorage interface {
	RecordStatsInRange(ctx context.Context, start, end time.Time, types []domain.ContentType) (*domain.MetadataSummary, error)
	AuditStatsInRange(ctx context.Context, start, end time.Time) (total, compliant int64, err error)
	PolicyStats(ctx context.Context) (*domain.PolicySummary, error)
	InsertReport(ctx context.Context, rep *domain.ComplianceReport) error
}

type Generator struct {
	repo   StatsStorage
	logger *zap.Logger
}

func NewGenerator(repo StatsStorage, logger *zap.Logger) *Generator {
	return &Generator{repo: repo, logger: logger.Named("report")}
}

// Generate строит отчет за [start, end] (даты включительно) и сохраняет снапшот.
// types сужает сводку метазаписей; на сводку аудита фильтр не действует.
func (g *Generator) Generate(ctx context.Context, reportType domain.ReportType, start, end time.Time, types []domain.ContentType, generatedBy string) (*domain.ComplianceReport, error) {
	// Верхняя граница в запросах эксклюзивна, поэтому сдвигаем конец периода на сутки
	endExclusive := end.AddDate(0, 0, 1)

	metaSummary, err := g.repo.RecordStatsInRange(ctx, start, endExclusive, types)
	if err != nil {
		return nil, fmt.Errorf("report: metadata summary failed: %w", err)
	}

	total, compliant, err := g.repo.AuditStatsInRange(ctx, start, endExclusive)
	if err != nil {
		return nil, fmt.Errorf("report: audit summary failed: %w", err)
	}

	policySummary, err := g.repo.PolicyStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: policy summary failed: %w", err)
	}

	now := time.Now().UTC()
	rep := &domain.ComplianceReport{
		ID:          uuid.New().String(),
		ReportType:  reportType,
		StartDate:   start,
		EndDate:     end,
		GeneratedAt: now,
		GeneratedBy: generatedBy,
		Data: domain.ReportData{
			Period: domain.ReportPeriod{
				StartDate: start.Format("2006-01-02"),
				EndDate:   end.Format("2006-01-02"),
			},
			MetadataSummary: *metaSummary,
			AuditSummary: domain.AuditSummary{
				TotalActions:     total,
				CompliantActions: compliant,
				Violations:       total - compliant,
				ComplianceRate:   ComplianceRate(total, compliant),
			},
			PolicySummary: *policySummary,
			GeneratedAt:   now,
		},
	}

	if err := g.repo.InsertReport(ctx, rep); err != nil {
		return nil, fmt.Errorf("report: failed to persist report: %w", err)
	}

	g.logger.Info("compliance report generated",
		zap.String("id", rep.ID),
		zap.String("type", string(reportType)),
		zap.Int64("total_actions", total),
		zap.Float64("compliance_rate", rep.Data.AuditSummary.ComplianceRate))
	return rep, nil
}

// ComplianceRate — процент комплаентных действий, два знака после запятой.
// При нуле действий возвращает 100.
func ComplianceRate(total, compliant int64) float64 {
	if total == 0 {
		return 100
	}
	rate := float64(compliant) / float64(total) * 100
	return math.Round(rate*100) / 100
}
