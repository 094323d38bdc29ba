package middleware

import (
	"net/http"
	"runtime/debug"

	"riskcore/pkg/utils"
)

// Recovery - middleware для восстановления после паники в handlers
//
// Перехватывает panic в любом HTTP handler, логирует ошибку со stack trace
// и возвращает клиенту 500 Internal Server Error. Сервер продолжает
// обрабатывать последующие запросы.
func Recovery(next http.Handler) http.Handler {
	log := utils.GetGlobalLogger().WithComponent("http")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic in handler",
					utils.Any("panic", err),
					utils.String("method", r.Method),
					utils.String("path", r.URL.Path),
					utils.String("stack", string(debug.Stack())),
				)

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
