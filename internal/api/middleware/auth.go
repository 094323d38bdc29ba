package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"riskcore/pkg/crypto"
)

// Токен аутентификации API.
// API_TOKEN - plaintext токен (сравнение constant-time).
// API_TOKEN_HASH - bcrypt хеш токена, имеет приоритет над API_TOKEN.
// Если не задан ни один, API открыт (локальное развертывание).
var (
	apiToken     = os.Getenv("API_TOKEN")
	apiTokenHash = os.Getenv("API_TOKEN_HASH")
)

// extractBearer извлекает токен из заголовка Authorization: Bearer <token>
func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}

// tokenValid сравнивает предъявленный токен с настроенным
func tokenValid(token string) bool {
	if token == "" {
		return false
	}
	if apiTokenHash != "" {
		return crypto.CheckPasswordMatch(token, apiTokenHash)
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(apiToken)) == 1
}

// Auth - middleware для аутентификации запросов по API токену
//
// Проверяет заголовок Authorization: Bearer <token>.
// Конфигурация через API_TOKEN (plaintext, сравнение constant-time)
// или API_TOKEN_HASH (bcrypt хеш, приоритетнее). Без настройки
// токена запросы пропускаются - режим локального развертывания.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Auth не настроен - пропускаем все запросы
		if apiToken == "" && apiTokenHash == "" {
			next.ServeHTTP(w, r)
			return
		}

		if !tokenValid(extractBearer(r)) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// DebugAuth - middleware для защиты debug/pprof endpoints
//
// HTTP Basic Authentication с credentials из DEBUG_USERNAME и DEBUG_PASSWORD.
// Если credentials не настроены, доступ разрешен только в development
// (переменная ENV пустая или "development").
func DebugAuth(next http.Handler) http.Handler {
	debugUsername := os.Getenv("DEBUG_USERNAME")
	debugPassword := os.Getenv("DEBUG_PASSWORD")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if debugUsername == "" || debugPassword == "" {
			if env := os.Getenv("ENV"); env == "development" || env == "" {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Debug endpoints disabled. Set DEBUG_USERNAME and DEBUG_PASSWORD.", http.StatusForbidden)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Debug endpoints"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// Constant-time сравнение для предотвращения timing attacks
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(debugUsername)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(debugPassword)) == 1

		if !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", `Basic realm="Debug endpoints"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
