package domain

import "time"

// PolicyType классифицирует комплаенс-политику.
type PolicyType string

const (
	PolicyDataRetention PolicyType = "data_retention"
	PolicyAccessControl PolicyType = "access_control"
	PolicyPrivacy       PolicyType = "privacy"
	PolicySecurity      PolicyType = "security"
	PolicyRegulatory    PolicyType = "regulatory"
)

// CompliancePolicy — именованный версионированный документ политики.
// Создается администратором out-of-band; для Эвалюатора — read-only.
type CompliancePolicy struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"` // Уникален вместе с Version
	PolicyType    PolicyType `json:"policy_type"`
	Description   string     `json:"description"`
	Content       string     `json:"content"`
	Version       string     `json:"version"`
	EffectiveDate time.Time  `json:"effective_date"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DataRetentionRule — одно правило хранения на тип контента (content_type уникален).
type DataRetentionRule struct {
	ID                  string      `json:"id"`
	ContentType         ContentType `json:"content_type"`
	RetentionPeriodDays int         `json:"retention_period_days"`
	DeletionPolicy      string      `json:"deletion_policy"` // Как обрабатывать удаление
	IsEncrypted         bool        `json:"is_encrypted"`    // Требуется ли шифрование хранимых данных
	CreatedAt           time.Time   `json:"created_at"`
}
