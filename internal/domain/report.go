package domain

import "time"

// ReportType — периодичность сгенерированного отчета.
type ReportType string

const (
	ReportDaily     ReportType = "daily"
	ReportWeekly    ReportType = "weekly"
	ReportMonthly   ReportType = "monthly"
	ReportQuarterly ReportType = "quarterly"
	ReportAnnual    ReportType = "annual"
	ReportOnDemand  ReportType = "on_demand"
)

// ComplianceReport — сохраненный снапшот отчета. Иммутабелен после создания.
type ComplianceReport struct {
	ID          string     `json:"id"`
	ReportType  ReportType `json:"report_type"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	GeneratedAt time.Time  `json:"generated_at"`
	GeneratedBy string     `json:"generated_by"`
	Data        ReportData `json:"report_data"`
}

// ReportData — агрегированное содержимое отчета (хранится как JSON).
type ReportData struct {
	Period          ReportPeriod    `json:"period"`
	MetadataSummary MetadataSummary `json:"metadata_summary"`
	AuditSummary    AuditSummary    `json:"audit_summary"`
	PolicySummary   PolicySummary   `json:"policy_summary"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

type ReportPeriod struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`
}

type MetadataSummary struct {
	TotalRecords int64            `json:"total_records"`
	ContentTypes map[string]int64 `json:"content_types"` // Разбивка по типам
	UniqueUsers  int64            `json:"unique_users"`
}

type AuditSummary struct {
	TotalActions     int64   `json:"total_actions"`
	CompliantActions int64   `json:"compliant_actions"`
	Violations       int64   `json:"violations"`
	ComplianceRate   float64 `json:"compliance_rate"` // Процент, 2 знака; 100 при нуле действий
}

type PolicySummary struct {
	ActivePolicies int64            `json:"active_policies"`
	PolicyTypes    map[string]int64 `json:"policy_types"`
}

// SweepSummary — итог одного прогона ретеншн-свипа.
// Ошибки по отдельным правилам не прерывают обработку остальных.
type SweepSummary struct {
	RecordsProcessed int64    `json:"records_processed"`
	RecordsDeleted   int64    `json:"records_deleted"`
	Errors           []string `json:"errors"`
}

// ComplianceStatus — текущее состояние комплаенса (окно 7 дней).
type ComplianceStatus struct {
	Status         string      `json:"compliance_status"` // "compliant" | "violations_detected"
	RecentAudits   []*AuditLog `json:"recent_audits"`
	Violations     []*AuditLog `json:"policy_violations"`
	ActivePolicies int64       `json:"active_policies"`
	LastUpdated    time.Time   `json:"last_updated"`
}

const (
	StatusCompliant          = "compliant"
	StatusViolationsDetected = "violations_detected"
)
