package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/compliance-ledger/internal/audit"
	"github.com/xela07ax/compliance-ledger/internal/compliance"
	"github.com/xela07ax/compliance-ledger/internal/domain"
	"github.com/xela07ax/compliance-ledger/internal/infra"
	"github.com/xela07ax/compliance-ledger/internal/vault"
	"go.uber.org/zap"
)

type fakeRecordStorage struct {
	byHash map[string]*domain.MetadataRecord

	lastPage     int
	lastPageSize int
	rangeRecords []*domain.MetadataRecord
}

func newFakeRecordStorage() *fakeRecordStorage {
	return &fakeRecordStorage{byHash: make(map[string]*domain.MetadataRecord)}
}

func (f *fakeRecordStorage) CreateRecord(_ context.Context, rec *domain.MetadataRecord) error {
	if _, exists := f.byHash[rec.ContentHash]; exists {
		return domain.ErrConflict
	}
	f.byHash[rec.ContentHash] = rec
	return nil
}

func (f *fakeRecordStorage) GetRecordByHash(_ context.Context, hash string) (*domain.MetadataRecord, error) {
	rec, ok := f.byHash[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (f *fakeRecordStorage) ListRecords(_ context.Context, _ domain.RecordFilter, page, pageSize int) (*domain.RecordPage, error) {
	f.lastPage, f.lastPageSize = page, pageSize
	return &domain.RecordPage{Page: page, PageSize: pageSize, Results: []*domain.MetadataRecord{}}, nil
}

func (f *fakeRecordStorage) FindRecordsInRange(context.Context, time.Time, time.Time, []domain.ContentType) ([]*domain.MetadataRecord, error) {
	return f.rangeRecords, nil
}

type captureAuditor struct {
	entries []audit.Entry
	err     error
}

func (c *captureAuditor) Record(_ context.Context, e audit.Entry) (*domain.AuditLog, error) {
	c.entries = append(c.entries, e)
	if c.err != nil {
		return nil, c.err
	}
	return &domain.AuditLog{}, nil
}

func (c *captureAuditor) byAction(a domain.AuditAction) []audit.Entry {
	var out []audit.Entry
	for _, e := range c.entries {
		if e.Action == a {
			out = append(out, e)
		}
	}
	return out
}

type noRules struct{}

func (noRules) RulesFor(context.Context, domain.ContentType) ([]domain.DataRetentionRule, error) {
	return nil, nil
}

func mustVault(t *testing.T, cfg infra.VaultConfig) *vault.Vault {
	t.Helper()
	v, err := vault.New(cfg)
	require.NoError(t, err)
	return v
}

func newTestService(t *testing.T, repo RecordStorage, auditor audit.Auditor, v *vault.Vault) *RecordService {
	t.Helper()
	if v == nil {
		v = mustVault(t, infra.VaultConfig{})
	}
	evaluator := compliance.NewEvaluator(noRules{}, zap.NewNop())
	return NewRecordService(repo, evaluator, auditor, v, infra.NewMetrics(nil), zap.NewNop())
}

func validInput() CreateRecordInput {
	return CreateRecordInput{
		Content:     "post body",
		ContentType: domain.ContentPost,
		UserAddress: "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh",
		IPAddress:   "203.0.113.7",
		UserAgent:   "test-agent",
		Metadata:    map[string]interface{}{"title": "t", "board_slug": "b"},
	}
}

func TestCreateHappyPath(t *testing.T) {
	repo := newFakeRecordStorage()
	auditor := &captureAuditor{}
	svc := newTestService(t, repo, auditor, nil)

	res, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.True(t, res.Compliance.IsCompliant)
	assert.Equal(t, compliance.HashContent("post body"), res.Record.ContentHash)
	assert.NotEmpty(t, res.Record.ID)
	assert.False(t, res.Record.Timestamp.IsZero())

	// Ровно одна аудит-запись create, нарушений нет
	require.Len(t, auditor.entries, 1)
	assert.Equal(t, domain.ActionCreate, auditor.entries[0].Action)
	assert.True(t, auditor.entries[0].IsCompliant)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t, newFakeRecordStorage(), &captureAuditor{}, nil)

	t.Run("blank content", func(t *testing.T) {
		in := validInput()
		in.Content = "   \n\t "
		_, err := svc.Create(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("missing required metadata field", func(t *testing.T) {
		in := validInput()
		in.Metadata = map[string]interface{}{"title": "t"}
		_, err := svc.Create(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestCreateDuplicateHash(t *testing.T) {
	repo := newFakeRecordStorage()
	svc := newTestService(t, repo, &captureAuditor{}, nil)

	_, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), validInput())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateNonCompliantIsRecordedNotRejected(t *testing.T) {
	repo := newFakeRecordStorage()
	auditor := &captureAuditor{}
	svc := newTestService(t, repo, auditor, nil)

	in := validInput()
	in.UserAddress = "short" // Нарушение формата кошелька

	res, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	// Запись создана несмотря на нарушение
	assert.False(t, res.Compliance.IsCompliant)
	assert.Contains(t, res.Compliance.Violations, "Invalid wallet address format")
	assert.Len(t, repo.byHash, 1)

	// policy_violation + create, обе в трейле
	violations := auditor.byAction(domain.ActionPolicyViolation)
	require.Len(t, violations, 1)
	assert.False(t, violations[0].IsCompliant)
	assert.Equal(t, "Privacy:WalletAddressFormat", violations[0].PolicyReference)

	creates := auditor.byAction(domain.ActionCreate)
	require.Len(t, creates, 1)
	assert.False(t, creates[0].IsCompliant)
}

func TestCreateSurvivesAuditFailure(t *testing.T) {
	repo := newFakeRecordStorage()
	auditor := &captureAuditor{err: errors.New("audit down")}
	svc := newTestService(t, repo, auditor, nil)

	res, err := svc.Create(context.Background(), validInput())

	// Отказ аудита не прерывает основную операцию
	require.NoError(t, err)
	assert.NotNil(t, res.Record)
	assert.Len(t, repo.byHash, 1)
}

func TestCreateEncryptsMetadataWhenVaultEnabled(t *testing.T) {
	repo := newFakeRecordStorage()
	v := mustVault(t, infra.VaultConfig{
		ActiveKeyID: "k1",
		Keys:        map[string]string{"k1": "abababababababababababababababababababababababababababababababab"},
	})
	svc := newTestService(t, repo, &captureAuditor{}, v)

	res, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.True(t, res.Record.IsEncrypted)
	assert.Equal(t, "k1", res.Record.EncryptionKeyID)
	// В хранилище ушел конверт, а не открытые метаданные
	assert.NotContains(t, res.Record.Metadata, "title")
	assert.Contains(t, res.Record.Metadata, "ciphertext")
}

func TestGetRecordsReadAudit(t *testing.T) {
	repo := newFakeRecordStorage()
	auditor := &captureAuditor{}
	svc := newTestService(t, repo, auditor, nil)

	created, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	auditor.entries = nil

	rec, err := svc.Get(context.Background(), created.Record.ContentHash, "user-1", "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, created.Record.ID, rec.ID)

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, domain.ActionRead, auditor.entries[0].Action)
	assert.Equal(t, "user-1", auditor.entries[0].UserAddress)
}

func TestGetUnknownHash(t *testing.T) {
	svc := newTestService(t, newFakeRecordStorage(), &captureAuditor{}, nil)
	_, err := svc.Get(context.Background(), "deadbeef", "user-1", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListNormalizesPaging(t *testing.T) {
	repo := newFakeRecordStorage()
	svc := newTestService(t, repo, &captureAuditor{}, nil)

	_, err := svc.List(context.Background(), domain.RecordFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lastPage)
	assert.Equal(t, 20, repo.lastPageSize)

	_, err = svc.List(context.Background(), domain.RecordFilter{}, 3, 5000)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.lastPage)
	assert.Equal(t, 100, repo.lastPageSize) // Жесткий потолок
}

func TestExport(t *testing.T) {
	repo := newFakeRecordStorage()
	repo.rangeRecords = []*domain.MetadataRecord{{ID: "r1"}, {ID: "r2"}}
	auditor := &captureAuditor{}
	svc := newTestService(t, repo, auditor, nil)

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC)

	records, err := svc.Export(context.Background(), start, end, nil, "admin-1", "203.0.113.7")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	require.Len(t, auditor.entries, 1)
	e := auditor.entries[0]
	assert.Equal(t, domain.ActionExport, e.Action)
	assert.Equal(t, "admin_user", e.AuthorizedBy)
	assert.Equal(t, 2, e.Details["record_count"])

	t.Run("inverted range", func(t *testing.T) {
		_, err := svc.Export(context.Background(), end, start, nil, "admin-1", "")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("range longer than a year", func(t *testing.T) {
		farStart := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
		_, err := svc.Export(context.Background(), farStart, end, nil, "admin-1", "")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("exactly one year is allowed", func(t *testing.T) {
		yearStart := time.Date(2025, 8, 7, 0, 0, 0, 0, time.UTC)
		_, err := svc.Export(context.Background(), yearStart, end, nil, "admin-1", "")
		assert.NoError(t, err)
	})
}
