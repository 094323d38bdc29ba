package middleware

import (
	"net/http"
	"time"

	"riskcore/pkg/utils"

	"go.uber.org/zap"
)

// responseWriter оборачивает http.ResponseWriter для захвата статуса и размера ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logging - middleware для структурированного логирования HTTP запросов
//
// Логирует метод, путь, статус код, длительность обработки,
// адрес клиента и размер ответа. Ошибки сервера (5xx) логируются
// на уровне error, клиентские ошибки (4xx) на уровне warn.
func Logging(next http.Handler) http.Handler {
	log := utils.GetGlobalLogger().WithComponent("http")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		fields := []zap.Field{
			utils.String("method", r.Method),
			utils.String("path", r.URL.Path),
			utils.Int("status", wrapped.statusCode),
			zap.Duration("duration", time.Since(start)),
			utils.String("remote_addr", r.RemoteAddr),
			utils.Int64("bytes", wrapped.written),
		}

		switch {
		case wrapped.statusCode >= http.StatusInternalServerError:
			log.Error("request failed", fields...)
		case wrapped.statusCode >= http.StatusBadRequest:
			log.Warn("request rejected", fields...)
		default:
			log.Debug("request handled", fields...)
		}
	})
}
