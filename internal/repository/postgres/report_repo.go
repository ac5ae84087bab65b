package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xela07ax/compliance-ledger/internal/domain"
)

// InsertReport сохраняет сгенерированный снапшот отчета. Отчеты иммутабельны:
// UPDATE для этой таблицы в репозитории отсутствует сознательно.
func (s *Store) InsertReport(ctx context.Context, rep *domain.ComplianceReport) error {
	data, err := json.Marshal(rep.Data)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode report data: %w", err)
	}

	query := `
		INSERT INTO compliance_reports (id, report_type, start_date, end_date, generated_at, generated_by, report_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = s.pool.Exec(ctx, query,
		rep.ID, rep.ReportType, rep.StartDate, rep.EndDate, rep.GeneratedAt, rep.GeneratedBy, data,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to insert report: %w", err)
	}
	return nil
}
