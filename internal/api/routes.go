package api

import (
	"net/http"

	"riskcore/internal/api/handlers"
	"riskcore/internal/api/middleware"
	"riskcore/internal/ledger"
	"riskcore/internal/risk"
	"riskcore/internal/websocket"
	"riskcore/pkg/ratelimit"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Категории rate limiting по группам маршрутов
const (
	categoryPositions = "positions"
	categoryRisk      = "risk"
)

// Проверяем, что боевые реализации удовлетворяют интерфейсам handlers
var (
	_ handlers.RiskServiceInterface     = (*risk.Engine)(nil)
	_ handlers.PositionServiceInterface = (*ledger.PositionLedger)(nil)
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	Engine *risk.Engine
	Ledger *ledger.PositionLedger
	Hub    *websocket.Hub

	// RateLimit запросов в секунду для /api/v1 (0 - без ограничения)
	RateLimit      float64
	RateLimitBurst float64
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /positions/
//	│   ├── GET / - открытые позиции
//	│   ├── POST / - открыть позицию
//	│   ├── GET /report?symbol= - отчет по позициям
//	│   ├── GET /performance - анализ производительности
//	│   ├── GET /exposure - агрегированная экспозиция
//	│   ├── GET /{symbol}/{side} - одна позиция
//	│   ├── POST /{symbol}/{side}/price - тик цены
//	│   ├── POST /{symbol}/{side}/close - закрыть позицию
//	│   └── POST /{symbol}/{side}/partial-close - частичное закрытие
//	└── /risk/
//	    ├── GET /report - полный отчет риск-движка
//	    ├── GET /metrics - текущие метрики
//	    ├── GET /limits, PATCH /limits - лимиты
//	    ├── GET /settings, PATCH /settings - настройки мониторинга
//	    ├── GET /alerts - активные алерты
//	    ├── POST /alerts/{id}/resolve - пометить алерт решенным
//	    ├── POST /balance - обновить баланс
//	    └── POST /check - немедленная проверка лимитов
//
// /metrics - Prometheus метрики
// /healthz - health check
// /ws/stream - WebSocket для real-time обновлений
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. Auth (только для /api/v1)
// 5. RateLimitCategory по группам /positions и /risk,
//    RateLimit на подключения /ws/stream
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	// Создание handlers с внедрением зависимостей
	var riskHandler *handlers.RiskHandler
	if deps != nil && deps.Engine != nil {
		riskHandler = handlers.NewRiskHandler(deps.Engine)
	}

	var positionHandler *handlers.PositionHandler
	if deps != nil && deps.Ledger != nil {
		positionHandler = handlers.NewPositionHandler(deps.Ledger)
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth)

	// Раздельные лимитеры на группы маршрутов: всплеск запросов
	// к позициям не исчерпывает токены risk-эндпоинтов
	var limits *ratelimit.MultiLimiter
	var burst float64
	if deps != nil && deps.RateLimit > 0 {
		burst = deps.RateLimitBurst
		if burst <= 0 {
			burst = deps.RateLimit
		}
		limits = ratelimit.NewMultiLimiter()
		limits.Add(categoryPositions, deps.RateLimit, burst)
		limits.Add(categoryRisk, deps.RateLimit, burst)
	}

	// Position routes
	if positionHandler != nil {
		positions := api.PathPrefix("/positions").Subrouter()
		if limits != nil {
			positions.Use(middleware.RateLimitCategory(limits, categoryPositions))
		}
		positions.HandleFunc("", positionHandler.GetPositions).Methods("GET")
		positions.HandleFunc("", positionHandler.OpenPosition).Methods("POST")
		positions.HandleFunc("/report", positionHandler.GetReport).Methods("GET")
		positions.HandleFunc("/performance", positionHandler.GetPerformance).Methods("GET")
		positions.HandleFunc("/exposure", positionHandler.GetExposure).Methods("GET")
		positions.HandleFunc("/{symbol}/{side}", positionHandler.GetPosition).Methods("GET")
		positions.HandleFunc("/{symbol}/{side}/price", positionHandler.UpdatePrice).Methods("POST")
		positions.HandleFunc("/{symbol}/{side}/close", positionHandler.ClosePosition).Methods("POST")
		positions.HandleFunc("/{symbol}/{side}/partial-close", positionHandler.PartialClosePosition).Methods("POST")
	}

	// Risk routes
	if riskHandler != nil {
		riskAPI := api.PathPrefix("/risk").Subrouter()
		if limits != nil {
			riskAPI.Use(middleware.RateLimitCategory(limits, categoryRisk))
		}
		riskAPI.HandleFunc("/report", riskHandler.GetRiskReport).Methods("GET")
		riskAPI.HandleFunc("/metrics", riskHandler.GetRiskMetrics).Methods("GET")
		riskAPI.HandleFunc("/limits", riskHandler.GetLimits).Methods("GET")
		riskAPI.HandleFunc("/limits", riskHandler.UpdateLimits).Methods("PATCH")
		riskAPI.HandleFunc("/settings", riskHandler.GetSettings).Methods("GET")
		riskAPI.HandleFunc("/settings", riskHandler.UpdateSettings).Methods("PATCH")
		riskAPI.HandleFunc("/alerts", riskHandler.GetAlerts).Methods("GET")
		riskAPI.HandleFunc("/alerts/{id}/resolve", riskHandler.ResolveAlert).Methods("POST")
		riskAPI.HandleFunc("/balance", riskHandler.UpdateBalance).Methods("POST")
		riskAPI.HandleFunc("/check", riskHandler.CheckRisk).Methods("POST")
	}

	// WebSocket route. Лимитер здесь сдерживает перебор подключений
	if deps != nil && deps.Hub != nil {
		hub := deps.Hub
		wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		})
		if deps.RateLimit > 0 {
			router.Handle("/ws/stream", middleware.RateLimit(deps.RateLimit, burst)(wsHandler))
		} else {
			router.Handle("/ws/stream", wsHandler)
		}
	}

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
