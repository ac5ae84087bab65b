package service

/*
Файл record_service.go — оркестрация жизненного цикла метазаписи:
валидация -> хеширование -> проверка политик -> (опц.) шифрование ->
вставка -> аудит.

Два инварианта держат весь поток:
  - некомплаентность НЕ блокирует создание: нарушение фиксируется
    аудит-записью policy_violation, а сама метазапись все равно пишется;
  - отказ аудита НЕ откатывает операцию: запись уже в базе,
    деградация видна по счетчику audit_failures.
*/

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/compliance-ledger/internal/audit"
	"github.com/xela07ax/compliance-ledger/internal/compliance"
	"github.com/xela07ax/compliance-ledger/internal/domain"
	"github.com/xela07ax/compliance-ledger/internal/infra"
	"github.com/xela07ax/compliance-ledger/internal/vault"
	"go.uber.org/zap"
)

const maxPageSize = 100

// RecordStorage — персистентные операции, нужные сервису метазаписей.
type RecordStorage interface {
	CreateRecord(ctx context.Context, rec *domain.MetadataRecord) error
	GetRecordByHash(ctx context.Context, contentHash string) (*domain.MetadataRecord, error)
	ListRecords(ctx context.Context, filter domain.RecordFilter, page, pageSize int) (*domain.RecordPage, error)
	FindRecordsInRange(ctx context.Context, start, end time.Time, types []domain.ContentType) ([]*domain.MetadataRecord, error)
}

// CreateRecordInput — параметры создания метазаписи.
// Content приходит только сюда: сервис хеширует его и никогда не сохраняет.
type CreateRecordInput struct {
	Content     string
	ContentType domain.ContentType
	UserAddress string
	IPAddress   string // Пустая строка = происхождение неизвестно
	UserAgent   string
	Metadata    map[string]interface{}
	IsEncrypted bool // Клиент заявляет, что контент уже зашифрован на его стороне
}

// CreateRecordResult — запись плюс итог проверки политик для ответа API.
type CreateRecordResult struct {
	Record     *domain.MetadataRecord
	Compliance compliance.Result
}

type RecordService struct {
	repo      RecordStorage
	evaluator *compliance.Evaluator
	auditor   audit.Auditor
	vault     *vault.Vault
	metrics   *infra.Metrics
	logger    *zap.Logger
}

func NewRecordService(
	repo RecordStorage,
	evaluator *compliance.Evaluator,
	auditor audit.Auditor,
	v *vault.Vault,
	metrics *infra.Metrics,
	logger *zap.Logger,
) *RecordService {
	return &RecordService{
		repo:      repo,
		evaluator: evaluator,
		auditor:   auditor,
		vault:     v,
		metrics:   metrics,
		logger:    logger.Named("records"),
	}
}

// Create проводит кандидата через весь конвейер.
// Дубликат content_hash возвращается как domain.ErrConflict.
func (s *RecordService) Create(ctx context.Context, in CreateRecordInput) (*CreateRecordResult, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("content must not be empty: %w", domain.ErrValidation)
	}
	if !compliance.ValidateMetadata(in.ContentType, in.Metadata) {
		return nil, fmt.Errorf("metadata is missing required fields for %s: %w", in.ContentType, domain.ErrValidation)
	}

	contentHash := compliance.HashContent(in.Content)

	// Контекст записи подмешивается к метаданным только на время проверки,
	// в хранилище уходит оригинальный payload
	evalMeta := make(map[string]interface{}, len(in.Metadata)+3)
	for k, v := range in.Metadata {
		evalMeta[k] = v
	}
	evalMeta["user_address"] = in.UserAddress
	evalMeta["ip_address"] = in.IPAddress
	evalMeta["is_encrypted"] = in.IsEncrypted || s.vault.Enabled()

	result := s.evaluator.Evaluate(ctx, in.ContentType, evalMeta)
	if !result.IsCompliant {
		s.metrics.PolicyViolations.WithLabelValues(string(in.ContentType)).Inc()
		// Нарушение фиксируем, но запись не отклоняем
		s.auditor.Record(ctx, audit.Entry{ //nolint:errcheck
			Action:      domain.ActionPolicyViolation,
			UserAddress: in.UserAddress,
			IPAddress:   in.IPAddress,
			Details: map[string]interface{}{
				"content_hash": contentHash,
				"content_type": string(in.ContentType),
				"violations":   result.Violations,
			},
			AuthorizedBy:    "system",
			IsCompliant:     false,
			PolicyReference: strings.Join(result.PolicyReferences, ","),
		})
	}

	rec := &domain.MetadataRecord{
		ID:          uuid.New().String(),
		ContentHash: contentHash,
		ContentType: in.ContentType,
		Timestamp:   time.Now().UTC(),
		UserAddress: in.UserAddress,
		IPAddress:   in.IPAddress,
		UserAgent:   in.UserAgent,
		Metadata:    in.Metadata,
		IsEncrypted: in.IsEncrypted,
	}

	if s.vault.Enabled() && len(in.Metadata) > 0 {
		envelope, keyID, err := s.vault.EncryptMetadata(in.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt metadata: %w", err)
		}
		rec.Metadata = envelope
		rec.IsEncrypted = true
		rec.EncryptionKeyID = keyID
	}

	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}

	// Ровно одна аудит-запись на успешное создание; отказ аудита игнорируется
	s.auditor.Record(ctx, audit.Entry{ //nolint:errcheck
		Action:      domain.ActionCreate,
		UserAddress: in.UserAddress,
		IPAddress:   in.IPAddress,
		Details: map[string]interface{}{
			"content_hash": contentHash,
			"content_type": string(in.ContentType),
		},
		AuthorizedBy: "authenticated_user",
		IsCompliant:  result.IsCompliant,
	})

	s.logger.Info("metadata record created",
		zap.String("content_hash", contentHash),
		zap.String("content_type", string(in.ContentType)),
		zap.Bool("is_compliant", result.IsCompliant))

	return &CreateRecordResult{Record: rec, Compliance: result}, nil
}

// Get возвращает запись по content_hash и фиксирует факт чтения.
func (s *RecordService) Get(ctx context.Context, contentHash, requestedBy, clientIP string) (*domain.MetadataRecord, error) {
	rec, err := s.repo.GetRecordByHash(ctx, contentHash)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{ //nolint:errcheck
		Action:      domain.ActionRead,
		UserAddress: requestedBy,
		IPAddress:   clientIP,
		Details: map[string]interface{}{
			"content_hash": contentHash,
		},
		AuthorizedBy: "authenticated_user",
		IsCompliant:  true,
	})
	return rec, nil
}

// List — постраничная выдача для админки. page_size жестко ограничен сверху.
func (s *RecordService) List(ctx context.Context, filter domain.RecordFilter, page, pageSize int) (*domain.RecordPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return s.repo.ListRecords(ctx, filter, page, pageSize)
}

// maxRangeDays — потолок диапазона дат для экспорта и отчетов.
const maxRangeDays = 365

// Export выгружает записи за диапазон дат (обе границы включительно).
// Диапазон ограничен сверху годом. Факт экспорта фиксируется
// аудит-записью с числом выгруженных записей.
func (s *RecordService) Export(ctx context.Context, start, end time.Time, types []domain.ContentType, requestedBy, clientIP string) ([]*domain.MetadataRecord, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end_date precedes start_date: %w", domain.ErrValidation)
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("date range exceeds %d days: %w", maxRangeDays, domain.ErrValidation)
	}

	// Конец диапазона в запросе эксклюзивен, включительность даем сдвигом на сутки
	records, err := s.repo.FindRecordsInRange(ctx, start, end.AddDate(0, 0, 1), types)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{ //nolint:errcheck
		Action:      domain.ActionExport,
		UserAddress: requestedBy,
		IPAddress:   clientIP,
		Details: map[string]interface{}{
			"start_date":   start.Format("2006-01-02"),
			"end_date":     end.Format("2006-01-02"),
			"record_count": len(records),
		},
		AuthorizedBy: "admin_user",
		IsCompliant:  true,
	})
	return records, nil
}
