package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/xela07ax/compliance-ledger/internal/domain"
)

// Login — POST /auth/token: выдача RS256 токена по логину/паролю.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, fmt.Errorf("invalid request body: %w", domain.ErrValidation))
		return
	}
	if req.Username == "" || req.Password == "" {
		s.writeError(w, fmt.Errorf("username and password are required: %w", domain.ErrValidation))
		return
	}

	token, err := s.auth.Login(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, token)
}

// decodeJSON — строгое чтение тела: неизвестные поля отклоняются.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
