package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/compliance-ledger/internal/domain"
)

// Entry — входные данные одной аудит-записи.
// IsCompliant по умолчанию считается true у вызывающих, которые не фиксируют нарушение.
type Entry struct {
	Action       domain.AuditAction
	UserAddress  string // Кто делал
	IPAddress    string // Откуда (пустая строка = unknown)
	Details      map[string]interface{}
	AuthorizedBy string // Кто авторизовал: "system", "admin_user", "authenticated_user"

	IsCompliant     bool
	PolicyReference string
}

// toLog материализует запись: ID и таймстемп проставляются ровно один раз здесь.
func (e Entry) toLog(now time.Time) *domain.AuditLog {
	return &domain.AuditLog{
		ID:              uuid.New().String(),
		Action:          e.Action,
		Timestamp:       now,
		UserAddress:     e.UserAddress,
		IPAddress:       e.IPAddress,
		Details:         e.Details,
		AuthorizedBy:    e.AuthorizedBy,
		IsCompliant:     e.IsCompliant,
		PolicyReference: e.PolicyReference,
	}
}
