package middleware

import (
	"net/http"

	"riskcore/pkg/ratelimit"
)

// RateLimit - middleware для ограничения частоты запросов к API
//
// Глобальный token bucket: rate запросов в секунду с burst запасом.
// При исчерпании токенов возвращает 429 Too Many Requests.
// Write-операции и read-операции идут через один лимитер; для
// раздельных лимитов используется RateLimitCategory с MultiLimiter.
func RateLimit(rate, burst float64) func(http.Handler) http.Handler {
	limiter := ratelimit.NewRateLimiter(rate, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitCategory - ограничение частоты запросов по категории MultiLimiter.
// Неизвестная категория пропускается без ограничений.
func RateLimitCategory(ml *ratelimit.MultiLimiter, category string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ml != nil && !ml.Allow(category) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
