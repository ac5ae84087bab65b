package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/compliance-ledger/internal/domain"
	"go.uber.org/zap"
)

// fakeStatusStorage отдает аудит-трейл из памяти, повторяя семантику
// RecentAuditLogs: срез по since и фильтр по некомплаентности.
type fakeStatusStorage struct {
	logs     []*domain.AuditLog
	policies int64
	records  int64
	audits   int64

	countErr error
}

func (f *fakeStatusStorage) RecentAuditLogs(_ context.Context, since time.Time, limit int, onlyViolations bool) ([]*domain.AuditLog, error) {
	var out []*domain.AuditLog
	for _, l := range f.logs {
		if l.Timestamp.Before(since) {
			continue
		}
		if onlyViolations && l.IsCompliant {
			continue
		}
		out = append(out, l)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStatusStorage) CountActivePolicies(context.Context) (int64, error) {
	return f.policies, nil
}

func (f *fakeStatusStorage) CountRecords(context.Context) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.records, nil
}

func (f *fakeStatusStorage) CountAuditLogs(context.Context) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.audits, nil
}

func auditAt(ts time.Time, compliant bool) *domain.AuditLog {
	return &domain.AuditLog{
		Action:      domain.ActionCreate,
		Timestamp:   ts,
		IsCompliant: compliant,
	}
}

func TestStatusCompliantWhenNoRecentViolations(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeStatusStorage{
		logs: []*domain.AuditLog{
			auditAt(now.Add(-time.Hour), true),
			auditAt(now.Add(-48*time.Hour), true),
			// Нарушение есть, но за пределами 7-дневного окна
			auditAt(now.Add(-8*24*time.Hour), false),
		},
		policies: 3,
	}
	svc := NewComplianceService(repo, zap.NewNop())

	status, err := svc.Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompliant, status.Status)
	assert.Empty(t, status.Violations)
	assert.Len(t, status.RecentAudits, 2)
	assert.Equal(t, int64(3), status.ActivePolicies)
	assert.False(t, status.LastUpdated.IsZero())
}

func TestStatusViolationsDetectedWithinWindow(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeStatusStorage{
		logs: []*domain.AuditLog{
			auditAt(now.Add(-time.Hour), true),
			auditAt(now.Add(-2*24*time.Hour), false),
		},
	}
	svc := NewComplianceService(repo, zap.NewNop())

	status, err := svc.Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusViolationsDetected, status.Status)
	require.Len(t, status.Violations, 1)
	assert.False(t, status.Violations[0].IsCompliant)
}

func TestStatusEmptyTrailIsCompliant(t *testing.T) {
	svc := NewComplianceService(&fakeStatusStorage{}, zap.NewNop())

	status, err := svc.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompliant, status.Status)
}

func TestHealth(t *testing.T) {
	t.Run("healthy with counters", func(t *testing.T) {
		svc := NewComplianceService(&fakeStatusStorage{records: 7, audits: 21}, zap.NewNop())
		report := svc.Health(context.Background())
		assert.Equal(t, "healthy", report.Status)
		assert.Equal(t, int64(7), report.Records)
		assert.Equal(t, int64(21), report.AuditEvents)
	})

	t.Run("storage failure means unhealthy", func(t *testing.T) {
		svc := NewComplianceService(&fakeStatusStorage{countErr: errors.New("db down")}, zap.NewNop())
		report := svc.Health(context.Background())
		assert.Equal(t, "unhealthy", report.Status)
	})
}
