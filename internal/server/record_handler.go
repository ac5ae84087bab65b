package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/compliance-ledger/internal/compliance"
	"github.com/xela07ax/compliance-ledger/internal/domain"
	"github.com/xela07ax/compliance-ledger/internal/infra/auth"
	"github.com/xela07ax/compliance-ledger/internal/service"
)

type createRecordRequest struct {
	Content     string                 `json:"content"`
	ContentType domain.ContentType     `json:"content_type"`
	UserAddress string                 `json:"user_address"`
	Metadata    map[string]interface{} `json:"metadata"`
	IsEncrypted bool                   `json:"is_encrypted"`
}

type createRecordResponse struct {
	Record     *domain.MetadataRecord `json:"record"`
	Compliance compliance.Result      `json:"compliance"`
}

// CreateRecord — POST /v1/records.
// Контент не сохраняется: в хранилище уходит только его SHA-256.
func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, fmt.Errorf("invalid request body: %w", domain.ErrValidation))
		return
	}

	if !s.limiter.Allow(req.UserAddress) {
		s.writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
		return
	}

	result, err := s.records.Create(r.Context(), service.CreateRecordInput{
		Content:     req.Content,
		ContentType: req.ContentType,
		UserAddress: req.UserAddress,
		IPAddress:   ClientIP(r),
		UserAgent:   r.UserAgent(),
		Metadata:    req.Metadata,
		IsEncrypted: req.IsEncrypted,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, createRecordResponse{
		Record:     result.Record,
		Compliance: result.Compliance,
	})
}

// GetRecord — GET /v1/records/{contentHash}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	contentHash := chi.URLParam(r, "contentHash")
	if contentHash == "" {
		s.writeError(w, fmt.Errorf("content hash is required: %w", domain.ErrValidation))
		return
	}

	rec, err := s.records.Get(r.Context(), contentHash, auth.UserIDFromContext(r.Context()), ClientIP(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if !auth.IsAdmin(r.Context()) {
		rec = maskRecord(rec)
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// ListRecords — GET /v1/records. Неадминам PII в выдаче маскируется.
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	filter := domain.RecordFilter{
		ContentType: domain.ContentType(q.Get("content_type")),
		UserAddress: q.Get("user_address"),
	}

	pageResult, err := s.records.List(r.Context(), filter, page, pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if !auth.IsAdmin(r.Context()) {
		masked := make([]*domain.MetadataRecord, len(pageResult.Results))
		for i, rec := range pageResult.Results {
			masked[i] = maskRecord(rec)
		}
		pageResult.Results = masked
	}
	s.writeJSON(w, http.StatusOK, pageResult)
}

type exportResponse struct {
	Records     []*domain.MetadataRecord `json:"records"`
	RecordCount int                      `json:"record_count"`
}

// ExportRecords — GET /v1/records/export?start_date=&end_date=&content_types=.
// Обе даты включительно, формат YYYY-MM-DD. Только для админов.
func (s *Server) ExportRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := parseDate(q.Get("start_date"))
	if err != nil {
		s.writeError(w, fmt.Errorf("invalid start_date: %w", domain.ErrValidation))
		return
	}
	end, err := parseDate(q.Get("end_date"))
	if err != nil {
		s.writeError(w, fmt.Errorf("invalid end_date: %w", domain.ErrValidation))
		return
	}

	var types []domain.ContentType
	for _, raw := range q["content_types"] {
		if raw != "" {
			types = append(types, domain.ContentType(raw))
		}
	}

	records, err := s.records.Export(r.Context(), start, end, types, auth.UserIDFromContext(r.Context()), ClientIP(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, exportResponse{
		Records:     records,
		RecordCount: len(records),
	})
}
