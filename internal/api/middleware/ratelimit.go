package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
)

const msgTooManyRequests = "слишком много запросов, попробуйте позже"

// Counter счётчик запросов в фиксированном окне (реализация: window.RedisCounter)
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type Logger interface {
	Warn(format string, v ...interface{})
}

// RateLimit ограничивает число запросов с одного IP в окне. При недоступности счётчика
// запрос пропускается, чтобы отказ Redis не останавливал запись
func RateLimit(counter Counter, limit int, window time.Duration, prefix string, logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			count, err := counter.Incr(r.Context(), prefix+":"+ip, window)
			if err != nil {
				logger.Warn("%s %s - Rate limiter unavailable, request allowed: %v", r.Method, r.URL.Path, err)
				next.ServeHTTP(w, r)
				return
			}
			if count > int64(limit) {
				logger.Warn("%s %s - Rate limit exceeded: ip=%s, count=%d", r.Method, r.URL.Path, ip, count)
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				handlers.RespondTooManyRequests(w, msgTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP первый адрес X-Forwarded-For, иначе адрес соединения
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
