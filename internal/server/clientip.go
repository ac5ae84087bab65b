package server

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP извлекает IP клиента из запроса.
// Приоритет: X-Forwarded-For (первый адрес) -> X-Real-IP -> RemoteAddr.
// Если происхождение определить нельзя — пустая строка ("unknown"),
// никаких подстановок loopback.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		return rip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr без порта (нестандартные прокси) берем как есть
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return ""
	}
	return host
}
