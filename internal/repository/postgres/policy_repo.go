package postgres

/*
Файл policy_repo.go отвечает за чтение политик комплаенса и правил хранения.
Политики создаются администратором out-of-band; со стороны движка слой read-only.
Долговременное хранение в PostgreSQL отделено от мгновенной проверки:
правила хранения раздает in-memory кэш (compliance.RuleCache), этот слой —
его источник при Refresh().
*/

import (
	"context"
	"fmt"

	"github.com/xela07ax/compliance-ledger/internal/domain"
)

// GetAllRetentionRules выполняет "холодную загрузку" всего набора правил хранения.
// Используется кэшем правил при старте и при сигнале инвалидации, а также свипером.
func (s *Store) GetAllRetentionRules(ctx context.Context) ([]domain.DataRetentionRule, error) {
	query := `
		SELECT id, content_type, retention_period_days, deletion_policy, is_encrypted, created_at
		FROM data_retention_rules`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query retention rules: %w", err)
	}
	defer rows.Close()

	var results []domain.DataRetentionRule
	for rows.Next() {
		var r domain.DataRetentionRule
		if err := rows.Scan(&r.ID, &r.ContentType, &r.RetentionPeriodDays, &r.DeletionPolicy, &r.IsEncrypted, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan retention rule: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: rows iteration error: %w", err)
	}
	return results, nil
}

// CountActivePolicies — число активных политик (для статуса и отчета).
func (s *Store) CountActivePolicies(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM compliance_policies WHERE is_active`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: failed to count active policies: %w", err)
	}
	return count, nil
}

// PolicyStats — агрегаты по активным политикам для отчета.
func (s *Store) PolicyStats(ctx context.Context) (*domain.PolicySummary, error) {
	summary := &domain.PolicySummary{PolicyTypes: make(map[string]int64)}

	rows, err := s.pool.Query(ctx, `
		SELECT policy_type, COUNT(*)
		FROM compliance_policies
		WHERE is_active
		GROUP BY policy_type`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to group policies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pt string
		var n int64
		if err := rows.Scan(&pt, &n); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan policy breakdown: %w", err)
		}
		summary.PolicyTypes[pt] = n
		summary.ActivePolicies += n
	}
	return summary, rows.Err()
}
