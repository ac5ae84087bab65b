package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xela07ax/compliance-ledger/internal/infra"
	"go.uber.org/zap"
)

func reportValidationServer() *Server {
	// Валидация диапазона отрабатывает до обращения к генератору,
	// поэтому зависимости кроме логгера и метрик не нужны
	return &Server{
		logger:  zap.NewNop(),
		metrics: infra.NewMetrics(nil),
	}
}

func postReport(s *Server, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest("POST", "/v1/reports", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.GenerateReport(w, r)
	return w
}

func TestGenerateReportRangeValidation(t *testing.T) {
	s := reportValidationServer()

	t.Run("inverted range", func(t *testing.T) {
		w := postReport(s, `{"report_type":"on_demand","start_date":"2026-08-07","end_date":"2026-08-01"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("range longer than a year", func(t *testing.T) {
		w := postReport(s, `{"report_type":"on_demand","start_date":"2016-01-01","end_date":"2026-08-01"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed dates", func(t *testing.T) {
		w := postReport(s, `{"report_type":"on_demand","start_date":"01/01/2026","end_date":"2026-08-01"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
