package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xela07ax/compliance-ledger/internal/domain"
	"github.com/xela07ax/compliance-ledger/internal/infra/auth"
)

// ComplianceStatus — GET /v1/compliance/status: срез за последние 7 дней.
func (s *Server) ComplianceStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.compliance.Status(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

// maxReportRangeDays — потолок периода отчета, симметричен лимиту экспорта.
const maxReportRangeDays = 365

type generateReportRequest struct {
	ReportType   domain.ReportType `json:"report_type"`
	StartDate    string            `json:"start_date"` // YYYY-MM-DD
	EndDate      string            `json:"end_date"`
	ContentTypes []string          `json:"content_types"`
}

// GenerateReport — POST /v1/reports: построить и сохранить отчет. Только для админов.
func (s *Server) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req generateReportRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, fmt.Errorf("invalid request body: %w", domain.ErrValidation))
		return
	}
	if req.ReportType == "" {
		req.ReportType = domain.ReportOnDemand
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		s.writeError(w, fmt.Errorf("invalid start_date: %w", domain.ErrValidation))
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		s.writeError(w, fmt.Errorf("invalid end_date: %w", domain.ErrValidation))
		return
	}
	if end.Before(start) {
		s.writeError(w, fmt.Errorf("end_date precedes start_date: %w", domain.ErrValidation))
		return
	}
	if end.Sub(start) > maxReportRangeDays*24*time.Hour {
		s.writeError(w, fmt.Errorf("date range exceeds %d days: %w", maxReportRangeDays, domain.ErrValidation))
		return
	}

	var types []domain.ContentType
	for _, raw := range req.ContentTypes {
		if raw != "" {
			types = append(types, domain.ContentType(raw))
		}
	}

	rep, err := s.reports.Generate(r.Context(), req.ReportType, start, end, types, auth.UserIDFromContext(r.Context()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, rep)
}

// TriggerSweep — POST /v1/retention/sweep: внеплановый прогон свипа. Только для админов.
// Плановые прогоны идут по cron-расписанию, этот хендлер для ручного запуска.
func (s *Server) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	summary, err := s.sweeper.Sweep(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// Health — GET /health, публичный.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.compliance.Health(r.Context())

	status := http.StatusOK
	if report.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, report)
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}
