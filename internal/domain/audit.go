package domain

import "time"

// AuditAction — действие, зафиксированное в аудит-трейле.
type AuditAction string

const (
	ActionCreate          AuditAction = "create"
	ActionRead            AuditAction = "read"
	ActionUpdate          AuditAction = "update"
	ActionDelete          AuditAction = "delete"
	ActionAccess          AuditAction = "access"
	ActionExport          AuditAction = "export"
	ActionComplianceCheck AuditAction = "compliance_check"
	ActionPolicyViolation AuditAction = "policy_violation"
)

// AuditLog — один долговременный факт о действии в системе.
// Append-only: записи никогда не обновляются и не удаляются штатными потоками.
type AuditLog struct {
	ID        string      `json:"id"` // UUID
	Action    AuditAction `json:"action"`
	Timestamp time.Time   `json:"timestamp"` // Проставляется один раз при вставке

	// Происхождение актора
	UserAddress string `json:"user_address"`
	IPAddress   string `json:"ip_address"`

	Details      map[string]interface{} `json:"details"`       // Какая запись, что изменилось
	AuthorizedBy string                 `json:"authorized_by"` // "system", "admin_user", ...

	IsCompliant     bool   `json:"is_compliant"`
	PolicyReference string `json:"policy_reference,omitempty"` // Напр. "DataRetention:{rule_id}"
}
