package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/compliance-ledger/internal/domain"
	"go.uber.org/zap"
)

type fakeStats struct {
	meta      *domain.MetadataSummary
	total     int64
	compliant int64
	policies  *domain.PolicySummary
	saved     []*domain.ComplianceReport

	statsEnd time.Time // Запомненная верхняя граница для проверки включительности
}

func (f *fakeStats) RecordStatsInRange(_ context.Context, _, end time.Time, _ []domain.ContentType) (*domain.MetadataSummary, error) {
	f.statsEnd = end
	return f.meta, nil
}

func (f *fakeStats) AuditStatsInRange(context.Context, time.Time, time.Time) (int64, int64, error) {
	return f.total, f.compliant, nil
}

func (f *fakeStats) PolicyStats(context.Context) (*domain.PolicySummary, error) {
	return f.policies, nil
}

func (f *fakeStats) InsertReport(_ context.Context, rep *domain.ComplianceReport) error {
	f.saved = append(f.saved, rep)
	return nil
}

func TestComplianceRate(t *testing.T) {
	// Пустой период — полностью комплаентен
	assert.Equal(t, float64(100), ComplianceRate(0, 0))

	assert.Equal(t, float64(100), ComplianceRate(10, 10))
	assert.Equal(t, float64(50), ComplianceRate(10, 5))
	assert.Equal(t, float64(0), ComplianceRate(10, 0))

	// Округление до двух знаков
	assert.Equal(t, 66.67, ComplianceRate(3, 2))
	assert.Equal(t, 33.33, ComplianceRate(3, 1))
	assert.Equal(t, 99.99, ComplianceRate(10000, 9999))
}

func TestGenerate(t *testing.T) {
	repo := &fakeStats{
		meta: &domain.MetadataSummary{
			TotalRecords: 12,
			ContentTypes: map[string]int64{"post": 9, "message": 3},
			UniqueUsers:  4,
		},
		total:     20,
		compliant: 18,
		policies:  &domain.PolicySummary{ActivePolicies: 2, PolicyTypes: map[string]int64{"data_retention": 2}},
	}
	g := NewGenerator(repo, zap.NewNop())

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC)

	rep, err := g.Generate(context.Background(), domain.ReportWeekly, start, end, nil, "admin-1")
	require.NoError(t, err)

	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, domain.ReportWeekly, rep.ReportType)
	assert.Equal(t, "admin-1", rep.GeneratedBy)

	assert.Equal(t, "2026-08-01", rep.Data.Period.StartDate)
	assert.Equal(t, "2026-08-07", rep.Data.Period.EndDate)

	assert.Equal(t, int64(12), rep.Data.MetadataSummary.TotalRecords)
	assert.Equal(t, int64(20), rep.Data.AuditSummary.TotalActions)
	assert.Equal(t, int64(2), rep.Data.AuditSummary.Violations)
	assert.Equal(t, float64(90), rep.Data.AuditSummary.ComplianceRate)
	assert.Equal(t, int64(2), rep.Data.PolicySummary.ActivePolicies)

	// Снапшот сохранен
	require.Len(t, repo.saved, 1)
	assert.Equal(t, rep.ID, repo.saved[0].ID)

	// end_date включительно: запрос ушел с эксклюзивной границей end+1d
	assert.Equal(t, end.AddDate(0, 0, 1), repo.statsEnd)
}

func TestGenerateEmptyPeriod(t *testing.T) {
	repo := &fakeStats{
		meta:     &domain.MetadataSummary{ContentTypes: map[string]int64{}},
		policies: &domain.PolicySummary{PolicyTypes: map[string]int64{}},
	}
	g := NewGenerator(repo, zap.NewNop())

	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	rep, err := g.Generate(context.Background(), domain.ReportDaily, day, day, nil, "admin-1")
	require.NoError(t, err)

	assert.Zero(t, rep.Data.AuditSummary.TotalActions)
	assert.Equal(t, float64(100), rep.Data.AuditSummary.ComplianceRate)
}
