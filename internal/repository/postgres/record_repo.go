package postgres

/*
Файл record_repo.go — хранилище метазаписей (metadata_records).
Запись создается ровно один раз; единственный допустимый путь удаления —
ретеншн-свипер. Уникальность content_hash обеспечивает сама база:
конкурентные вставки одного хеша разрешаются constraint'ом, а не приложением.
*/

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/xela07ax/compliance-ledger/internal/domain"
)

const recordColumns = `id, content_hash, content_type, timestamp, user_address, ip_address, user_agent, metadata_json, is_encrypted, encryption_key_id`

// CreateRecord вставляет новую метазапись.
// Нарушение уникальности content_hash маппится в domain.ErrConflict:
// при конкурентных вставках один победитель, второй получает конфликт.
func (s *Store) CreateRecord(ctx context.Context, rec *domain.MetadataRecord) error {
	payload, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode metadata: %w", err)
	}

	var keyID interface{}
	if rec.EncryptionKeyID != "" {
		keyID = rec.EncryptionKeyID
	}

	query := `
		INSERT INTO metadata_records
			(id, content_hash, content_type, timestamp, user_address, ip_address, user_agent, metadata_json, is_encrypted, encryption_key_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = s.pool.Exec(ctx, query,
		rec.ID, rec.ContentHash, rec.ContentType, rec.Timestamp,
		rec.UserAddress, rec.IPAddress, rec.UserAgent, payload,
		rec.IsEncrypted, keyID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrConflict
		}
		return fmt.Errorf("postgres: failed to create record: %w (%w)", err, domain.ErrStorage)
	}
	return nil
}

// GetRecordByHash возвращает запись по content_hash (первичный ключ поиска).
func (s *Store) GetRecordByHash(ctx context.Context, contentHash string) (*domain.MetadataRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM metadata_records WHERE content_hash = $1`

	rec, err := scanRecord(s.pool.QueryRow(ctx, query, contentHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: failed to get record: %w", err)
	}
	return rec, nil
}

// ListRecords — постраничная выдача для админки с фильтрами.
// Лимит страницы валидируется сервисным слоем (cap 100).
func (s *Store) ListRecords(ctx context.Context, filter domain.RecordFilter, page, pageSize int) (*domain.RecordPage, error) {
	where := ""
	var args []interface{}

	if filter.ContentType != "" {
		args = append(args, filter.ContentType)
		where += fmt.Sprintf(" AND content_type = $%d", len(args))
	}
	if filter.UserAddress != "" {
		args = append(args, "%"+filter.UserAddress+"%")
		where += fmt.Sprintf(" AND user_address ILIKE $%d", len(args))
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM metadata_records WHERE TRUE` + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("postgres: failed to count records: %w", err)
	}

	offset := (page - 1) * pageSize
	args = append(args, pageSize, offset)
	listQuery := fmt.Sprintf(
		`SELECT `+recordColumns+` FROM metadata_records WHERE TRUE%s ORDER BY timestamp DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args),
	)

	rows, err := s.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list records: %w", err)
	}
	defer rows.Close()

	// Инициализируем пустой слайс, чтобы в JSON был [] вместо null
	results := make([]*domain.MetadataRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan record: %w", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}

	return &domain.RecordPage{
		Results:     results,
		Page:        page,
		PageSize:    pageSize,
		TotalCount:  total,
		HasNext:     int64(offset+pageSize) < total,
		HasPrevious: page > 1,
	}, nil
}

// FindRecordsInRange — выборка для экспорта: диапазон дат включительно,
// опциональный фильтр по типам контента.
func (s *Store) FindRecordsInRange(ctx context.Context, start, end time.Time, types []domain.ContentType) ([]*domain.MetadataRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM metadata_records WHERE timestamp >= $1 AND timestamp < $2`
	args := []interface{}{start, end}

	if len(types) > 0 {
		args = append(args, types)
		query += fmt.Sprintf(" AND content_type = ANY($%d)", len(args))
	}
	query += " ORDER BY timestamp DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query export range: %w", err)
	}
	defer rows.Close()

	results := make([]*domain.MetadataRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan record: %w", err)
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// CountExpiredRecords считает записи типа старше cutoff (для свипа).
func (s *Store) CountExpiredRecords(ctx context.Context, contentType domain.ContentType, cutoff time.Time) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM metadata_records WHERE content_type = $1 AND timestamp < $2`,
		contentType, cutoff,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to count expired records: %w", err)
	}
	return count, nil
}

// DeleteExpiredRecords удаляет просроченные записи одной логической пачкой.
// Единственный легальный путь удаления метазаписей в системе.
func (s *Store) DeleteExpiredRecords(ctx context.Context, contentType domain.ContentType, cutoff time.Time) (int64, error) {
	ct, err := s.pool.Exec(ctx,
		`DELETE FROM metadata_records WHERE content_type = $1 AND timestamp < $2`,
		contentType, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to delete expired records: %w", err)
	}
	return ct.RowsAffected(), nil
}

// CountRecords — общее число записей (healthcheck).
func (s *Store) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM metadata_records`).Scan(&count)
	return count, err
}

// RecordStatsInRange — агрегаты метазаписей для отчета:
// всего, разбивка по типам, уникальные пользователи.
func (s *Store) RecordStatsInRange(ctx context.Context, start, end time.Time, types []domain.ContentType) (*domain.MetadataSummary, error) {
	where := ` WHERE timestamp >= $1 AND timestamp < $2`
	args := []interface{}{start, end}
	if len(types) > 0 {
		args = append(args, types)
		where += fmt.Sprintf(" AND content_type = ANY($%d)", len(args))
	}

	summary := &domain.MetadataSummary{ContentTypes: make(map[string]int64)}

	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT user_address) FROM metadata_records`+where, args...,
	).Scan(&summary.TotalRecords, &summary.UniqueUsers)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to aggregate records: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT content_type, COUNT(*) FROM metadata_records`+where+` GROUP BY content_type`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to group records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ct string
		var n int64
		if err := rows.Scan(&ct, &n); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan breakdown: %w", err)
		}
		summary.ContentTypes[ct] = n
	}
	return summary, rows.Err()
}

// rowScanner покрывает и pgx.Row, и pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*domain.MetadataRecord, error) {
	var rec domain.MetadataRecord
	var payload []byte
	var keyID sql.NullString // Используем для обработки NULL из БД

	err := row.Scan(
		&rec.ID, &rec.ContentHash, &rec.ContentType, &rec.Timestamp,
		&rec.UserAddress, &rec.IPAddress, &rec.UserAgent, &payload,
		&rec.IsEncrypted, &keyID,
	)
	if err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("corrupted metadata payload: %w", err)
		}
	}
	if keyID.Valid {
		rec.EncryptionKeyID = keyID.String
	}
	return &rec, nil
}
