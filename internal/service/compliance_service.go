package service

import (
	"context"
	"time"

	"github.com/xela07ax/compliance-ledger/internal/domain"
	"go.uber.org/zap"
)

// Окно "текущего статуса": последние 7 дней, до 10 записей каждого среза.
const (
	statusWindow = 7 * 24 * time.Hour
	statusLimit  = 10
)

// StatusStorage — запросы, нужные статусу комплаенса и healthcheck'у.
type StatusStorage interface {
	RecentAuditLogs(ctx context.Context, since time.Time, limit int, onlyViolations bool) ([]*domain.AuditLog, error)
	CountActivePolicies(ctx context.Context) (int64, error)
	CountRecords(ctx context.Context) (int64, error)
	CountAuditLogs(ctx context.Context) (int64, error)
}

type ComplianceService struct {
	repo   StatusStorage
	logger *zap.Logger
}

func NewComplianceService(repo StatusStorage, logger *zap.Logger) *ComplianceService {
	return &ComplianceService{repo: repo, logger: logger.Named("compliance")}
}

// Status — срез комплаенса за окно: свежий аудит, свежие нарушения,
// число активных политик. Наличие хотя бы одного нарушения в окне
// переводит статус в violations_detected.
func (s *ComplianceService) Status(ctx context.Context) (*domain.ComplianceStatus, error) {
	since := time.Now().UTC().Add(-statusWindow)

	recent, err := s.repo.RecentAuditLogs(ctx, since, statusLimit, false)
	if err != nil {
		return nil, err
	}
	violations, err := s.repo.RecentAuditLogs(ctx, since, statusLimit, true)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.CountActivePolicies(ctx)
	if err != nil {
		return nil, err
	}

	status := domain.StatusCompliant
	if len(violations) > 0 {
		status = domain.StatusViolationsDetected
	}

	return &domain.ComplianceStatus{
		Status:         status,
		RecentAudits:   recent,
		Violations:     violations,
		ActivePolicies: active,
		LastUpdated:    time.Now().UTC(),
	}, nil
}

// HealthReport — живость хранилища плюс пара грубых счетчиков.
type HealthReport struct {
	Status      string `json:"status"` // "healthy" | "unhealthy"
	Records     int64  `json:"metadata_records"`
	AuditEvents int64  `json:"audit_events"`
}

// Health опрашивает хранилище. Ошибка счетчиков = unhealthy, но не 500:
// хендлер отдает отчет с кодом 503.
func (s *ComplianceService) Health(ctx context.Context) *HealthReport {
	report := &HealthReport{Status: "healthy"}

	records, err := s.repo.CountRecords(ctx)
	if err != nil {
		s.logger.Error("health probe failed", zap.Error(err))
		report.Status = "unhealthy"
		return report
	}
	audits, err := s.repo.CountAuditLogs(ctx)
	if err != nil {
		s.logger.Error("health probe failed", zap.Error(err))
		report.Status = "unhealthy"
		return report
	}

	report.Records = records
	report.AuditEvents = audits
	return report
}
