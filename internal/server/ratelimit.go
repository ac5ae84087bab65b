package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// addressLimiter — троттлинг создания метазаписей per user_address.
// Лимитеры живут в памяти процесса; при рестарте окно сбрасывается,
// что для защитного лимита приемлемо.
type addressLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHour  int
}

func newAddressLimiter(perHour int) *addressLimiter {
	return &addressLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHour:  perHour,
	}
}

// Allow — пропустить ли очередной create для адреса.
// Нулевой и отрицательный лимит отключают троттлинг.
func (l *addressLimiter) Allow(addr string) bool {
	if l.perHour <= 0 {
		return true
	}

	l.mu.Lock()
	lim, ok := l.limiters[addr]
	if !ok {
		// Равномерное пополнение с burst на полный часовой лимит
		lim = rate.NewLimiter(rate.Every(time.Hour/time.Duration(l.perHour)), l.perHour)
		l.limiters[addr] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
