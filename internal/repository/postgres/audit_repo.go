package postgres

/*
Файл audit_repo.go — хранилище аудит-трейла (audit_logs).
Таблица append-only: репозиторий умышленно не содержит UPDATE/DELETE —
регуляторная подотчетность требует неизменяемости следа.
*/

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xela07ax/compliance-ledger/internal/domain"
)

const auditColumns = `id, action, timestamp, user_address, ip_address, details, authorized_by, is_compliant, policy_reference`

// InsertAuditLog сохраняет ровно одну запись аудита.
func (s *Store) InsertAuditLog(ctx context.Context, entry *domain.AuditLog) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode audit details: %w", err)
	}

	query := `
		INSERT INTO audit_logs
			(id, action, timestamp, user_address, ip_address, details, authorized_by, is_compliant, policy_reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = s.pool.Exec(ctx, query,
		entry.ID, entry.Action, entry.Timestamp, entry.UserAddress, entry.IPAddress,
		details, entry.AuthorizedBy, entry.IsCompliant, entry.PolicyReference,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to insert audit log: %w", err)
	}
	return nil
}

// RecentAuditLogs — записи с момента since, свежие первыми, с лимитом.
// onlyViolations сужает выборку до некомплаентных записей.
func (s *Store) RecentAuditLogs(ctx context.Context, since time.Time, limit int, onlyViolations bool) ([]*domain.AuditLog, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_logs WHERE timestamp >= $1`
	if onlyViolations {
		query += ` AND is_compliant = FALSE`
	}
	query += ` ORDER BY timestamp DESC`

	args := []interface{}{since}
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query audit logs: %w", err)
	}
	defer rows.Close()

	results := make([]*domain.AuditLog, 0)
	for rows.Next() {
		var entry domain.AuditLog
		var details []byte
		err := rows.Scan(
			&entry.ID, &entry.Action, &entry.Timestamp, &entry.UserAddress, &entry.IPAddress,
			&details, &entry.AuthorizedBy, &entry.IsCompliant, &entry.PolicyReference,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan audit log: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, fmt.Errorf("corrupted audit details: %w", err)
			}
		}
		results = append(results, &entry)
	}
	return results, rows.Err()
}

// AuditStatsInRange — агрегаты для отчета: всего действий и сколько комплаентных.
func (s *Store) AuditStatsInRange(ctx context.Context, start, end time.Time) (total, compliant int64, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_compliant)
		FROM audit_logs
		WHERE timestamp >= $1 AND timestamp < $2`, start, end,
	).Scan(&total, &compliant)
	if err != nil {
		return 0, 0, fmt.Errorf("postgres: failed to aggregate audit logs: %w", err)
	}
	return total, compliant, nil
}

// CountAuditLogs — общее число записей аудита (healthcheck).
func (s *Store) CountAuditLogs(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&count)
	return count, err
}
