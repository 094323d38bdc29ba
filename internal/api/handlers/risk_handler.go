package handlers

import (
	"encoding/json"
	"net/http"

	"riskcore/internal/models"

	"github.com/gorilla/mux"
)

// RiskServiceInterface описывает операции риск-движка, нужные HTTP слою
type RiskServiceInterface interface {
	GetRiskReport() *models.RiskReport
	GetRiskMetrics() models.RiskMetrics
	GetLimits() models.RiskLimits
	UpdateLimits(update models.RiskLimitsUpdate) models.RiskLimits
	GetSettings() models.MonitoringSettings
	UpdateSettings(settings models.MonitoringSettings)
	GetActiveAlerts() []*models.RiskAlert
	ResolveAlert(id string) bool
	UpdateBalance(balance float64)
	CheckRiskLimits() []*models.RiskAlert
}

// RiskHandler обрабатывает HTTP запросы к риск-движку.
//
// Endpoints:
// - GET /api/v1/risk/report - полный отчет о состоянии риска
// - GET /api/v1/risk/metrics - текущие метрики
// - GET /api/v1/risk/limits - действующие лимиты
// - PATCH /api/v1/risk/limits - частичное обновление лимитов
// - GET /api/v1/risk/settings - runtime настройки мониторинга
// - PATCH /api/v1/risk/settings - обновление настроек
// - GET /api/v1/risk/alerts - активные (нерешенные) алерты
// - POST /api/v1/risk/alerts/{id}/resolve - пометить алерт решенным
// - POST /api/v1/risk/balance - обновить баланс счета
// - POST /api/v1/risk/check - немедленная проверка лимитов
type RiskHandler struct {
	riskService RiskServiceInterface
}

// NewRiskHandler создает новый RiskHandler с внедрением зависимостей.
func NewRiskHandler(riskService RiskServiceInterface) *RiskHandler {
	return &RiskHandler{
		riskService: riskService,
	}
}

// GetRiskReport возвращает полный отчет о состоянии риск-движка.
//
// GET /api/v1/risk/report
//
// Response 200 OK:
//
//	{
//	  "risk_metrics": {
//	    "current_drawdown_pct": 4.76,
//	    "daily_pnl": -50.0,
//	    "weekly_pnl": 120.0,
//	    "total_exposure": 1500.0,
//	    "leverage_used": 3.75,
//	    "var_95": -25.4,
//	    "sharpe_ratio": 0.8,
//	    ...
//	  },
//	  "risk_limits": {"max_drawdown_pct": 10.0, ...},
//	  "active_alerts": [],
//	  "risk_stats": {"total_alerts": 3, "emergency_stops": 0, ...},
//	  "positions_count": 2,
//	  "timestamp": "2026-01-15T12:00:00Z"
//	}
func (h *RiskHandler) GetRiskReport(w http.ResponseWriter, r *http.Request) {
	if h.riskService == nil {
		writeError(w, http.StatusInternalServerError, "risk service not initialized", "")
		return
	}

	report := h.riskService.GetRiskReport()

	// Убеждаемся, что пустой массив возвращается как [], а не null
	if report.ActiveAlerts == nil {
		report.ActiveAlerts = []*models.RiskAlert{}
	}

	writeJSON(w, http.StatusOK, report)
}

// GetRiskMetrics возвращает текущий снимок риск-метрик.
//
// GET /api/v1/risk/metrics
func (h *RiskHandler) GetRiskMetrics(w http.ResponseWriter, r *http.Request) {
	if h.riskService == nil {
		writeError(w, http.StatusInternalServerError, "risk service not initialized", "")
		return
	}

	writeJSON(w, http.StatusOK, h.riskService.GetRiskMetrics())
}

// GetLimits возвращает действующие риск-лимиты.
//
// GET /api/v1/risk/limits
func (h *RiskHandler) GetLimits(w http.ResponseWriter, r *http.Request) {
	if h.riskService == nil {
		writeError(w, http.StatusInternalServerError, "risk service not initialized", "")
		return
	}

	writeJSON(w, http.StatusOK, h.riskService.GetLimits())
}

// UpdateLimits частично обновляет риск-лимиты.
//
// PATCH /api/v1/risk/limits
//
// Request body (все поля опциональны):
//
//	{"max_drawdown_pct": 12.0, "max_leverage": 10.0}
//
// Response 200 OK: обновленный объект лимитов
// Response 400 Bad Request: невалидный JSON или значения
func (h *RiskHandler) UpdateLimits(w http.ResponseWriter, r *http.Request) {
	if h.riskService == nil {
		writeError(w, http.StatusInternalServerError, "risk service not initialized", "")
		return
	}

	var update models.RiskLimitsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validateLimitsUpdate(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limits", err.Error())
		return
	}

	limits := h.riskService.UpdateLimits(update)
	writeJSON(w, http.StatusOK, limits)
}

// GetSettings возвращает runtime настройки мониторинга.
//
// GET /api/v1/risk/settings
func (h *RiskHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	if h.riskService == nil {
		writeError(w, http.StatusInternalServerError, "risk service not initialized", "")
		return
	}

	writeJSON(w, http.StatusOK, h.riskService.GetSettings())
}

// UpdateSettings полностью заменяет runtime настройки мониторинга.
//
// PATCH /api/v1/risk/settings
func (h *RiskHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if h.riskService == nil {
		writeError(w, http.StatusInternalServerError, "risk service not initialized", "")
		return
	}

	// Начинаем с текущих настроек, чтобы незаполненные поля не обнулялись
	settings := h.riskService.GetSettings()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if settings.UpdateIntervalSec <= 0 {
		writeError(w, http.StatusBadRequest, "invalid settings", "update_interval must be positive")
		return
	}
	if settings.AlertCooldownSec < 0 {
		writeError(w, http.StatusBadRequest, "invalid settings", "alert_cooldown must not be negative")
		return
	}
	if settings.MaxAlertsPerHour <= 0 {
		writeError(w, http.StatusBadRequest, "invalid settings", "max_alerts_per_hour must be positive")
		return
	}

	h.riskService.UpdateSettings(settings)
	writeJSON(w, http.StatusOK, settings)
}

// GetAlerts возвращает все активные (нерешенные) алерты.
//
// GET /api/v1/risk/alerts
//
// Response 200 OK:
//
//	[
//	  {
//	    "alert_id": "ALERT_1736942400000000000",
//	    "type": "drawdown",
//	    "severity": "high",
//	    "message": "Drawdown 12.50% exceeds limit 10.00%",
//	    "created_at": "2026-01-15T12:00:00Z",
//	    "resolved": false
//	  }
//	]
func (h *RiskHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	if h.riskService == nil {
		writeError(w, http.StatusInternalServerError, "risk service not initialized", "")
		return
	}

	alerts := h.riskService.GetActiveAlerts()
	if alerts == nil {
		alerts = []*models.RiskAlert{}
	}

	writeJSON(w, http.StatusOK, alerts)
}

// ResolveAlert помечает алерт решенным.
//
// POST /api/v1/risk/alerts/{id}/resolve
//
// Response 200 OK: {"message": "alert resolved"}
// Response 404 Not Found: алерт не найден или уже решен
func (h *RiskHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	if h.riskService == nil {
		writeError(w, http.StatusInternalServerError, "risk service not initialized", "")
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		writeError(w, http.StatusBadRequest, "alert id is required", "")
		return
	}

	if !h.riskService.ResolveAlert(id) {
		writeError(w, http.StatusNotFound, "alert not found", id)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Message: "alert resolved"})
}

// UpdateBalance обновляет текущий баланс счета.
//
// POST /api/v1/risk/balance
//
// Request body:
//
//	{"balance": 10250.75}
func (h *RiskHandler) UpdateBalance(w http.ResponseWriter, r *http.Request) {
	if h.riskService == nil {
		writeError(w, http.StatusInternalServerError, "risk service not initialized", "")
		return
	}

	var req struct {
		Balance float64 `json:"balance"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Balance < 0 {
		writeError(w, http.StatusBadRequest, "invalid balance", "balance must not be negative")
		return
	}

	h.riskService.UpdateBalance(req.Balance)
	writeJSON(w, http.StatusOK, SuccessResponse{Message: "balance updated"})
}

// CheckRisk выполняет немедленную проверку риск-лимитов вне цикла мониторинга.
//
// POST /api/v1/risk/check
//
// Response 200 OK: массив новых алертов (может быть пустым)
func (h *RiskHandler) CheckRisk(w http.ResponseWriter, r *http.Request) {
	if h.riskService == nil {
		writeError(w, http.StatusInternalServerError, "risk service not initialized", "")
		return
	}

	alerts := h.riskService.CheckRiskLimits()
	if alerts == nil {
		alerts = []*models.RiskAlert{}
	}

	writeJSON(w, http.StatusOK, alerts)
}

// validateLimitsUpdate проверяет значения частичного обновления лимитов
func validateLimitsUpdate(update *models.RiskLimitsUpdate) error {
	checkPct := func(name string, v *float64) error {
		if v != nil && (*v <= 0 || *v > 100) {
			return &limitError{field: name}
		}
		return nil
	}

	if err := checkPct("max_drawdown_pct", update.MaxDrawdownPct); err != nil {
		return err
	}
	if err := checkPct("max_daily_loss_pct", update.MaxDailyLossPct); err != nil {
		return err
	}
	if err := checkPct("max_weekly_loss_pct", update.MaxWeeklyLossPct); err != nil {
		return err
	}
	if err := checkPct("max_position_size_pct", update.MaxPositionSizePct); err != nil {
		return err
	}
	if err := checkPct("min_capital_reserve_pct", update.MinCapitalReservePct); err != nil {
		return err
	}
	if update.MaxCorrelationRisk != nil && (*update.MaxCorrelationRisk <= 0 || *update.MaxCorrelationRisk > 1) {
		return &limitError{field: "max_correlation_risk"}
	}
	if update.MaxLeverage != nil && *update.MaxLeverage < 1 {
		return &limitError{field: "max_leverage"}
	}
	return nil
}

// limitError описывает невалидное поле в обновлении лимитов
type limitError struct {
	field string
}

func (e *limitError) Error() string {
	return "field " + e.field + " is out of range"
}
