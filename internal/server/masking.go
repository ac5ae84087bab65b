package server

import (
	"strings"

	"github.com/xela07ax/compliance-ledger/internal/domain"
)

/*
Маскирование PII в листингах для неадминских принципалов.
Маскируется только представление в ответе, хранилище не трогаем.
*/

// MaskAddress оставляет первые 8 символов кошелька.
func MaskAddress(addr string) string {
	if len(addr) <= 8 {
		return addr
	}
	return addr[:8] + "..."
}

// MaskIP гасит младшие октеты IPv4; IPv6 урезается до первых 8 символов.
func MaskIP(ip string) string {
	if ip == "" {
		return ""
	}
	if parts := strings.Split(ip, "."); len(parts) == 4 {
		return parts[0] + "." + parts[1] + ".*.*"
	}
	if len(ip) > 8 {
		return ip[:8] + "..."
	}
	return ip
}

// maskRecord возвращает копию записи с замаскированным происхождением.
func maskRecord(rec *domain.MetadataRecord) *domain.MetadataRecord {
	masked := *rec
	masked.UserAddress = MaskAddress(rec.UserAddress)
	masked.IPAddress = MaskIP(rec.IPAddress)
	return &masked
}
