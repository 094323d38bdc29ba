package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"riskcore/internal/ledger"
	"riskcore/internal/models"

	"github.com/gorilla/mux"
)

// PositionServiceInterface описывает операции леджера позиций, нужные HTTP слою
type PositionServiceInterface interface {
	Add(spec models.PositionSpec) error
	UpdatePrice(symbol, side string, price float64) bool
	Close(symbol, side, reason string) *models.Position
	PartialClose(symbol, side string, percentage float64) (*models.Position, error)
	GetPosition(symbol, side string) (*models.Position, bool)
	GetOpenPositions() []*models.Position
	Exposure() map[string]models.ExposureEntry
	GetPositionReport(symbol string) *models.PositionReport
	GetPerformanceAnalysis() *models.PerformanceAnalysis
}

// PositionHandler обрабатывает HTTP запросы к леджеру позиций.
//
// Endpoints:
// - GET /api/v1/positions - список открытых позиций
// - POST /api/v1/positions - открыть позицию (или доливка при policy=merge)
// - GET /api/v1/positions/{symbol}/{side} - одна позиция
// - POST /api/v1/positions/{symbol}/{side}/price - тик цены
// - POST /api/v1/positions/{symbol}/{side}/close - закрыть позицию
// - POST /api/v1/positions/{symbol}/{side}/partial-close - частичное закрытие
// - GET /api/v1/positions/report?symbol=BTCUSDT - отчет по позициям
// - GET /api/v1/positions/performance - анализ производительности
// - GET /api/v1/positions/exposure - агрегированная экспозиция
type PositionHandler struct {
	positionService PositionServiceInterface
}

// NewPositionHandler создает новый PositionHandler с внедрением зависимостей.
func NewPositionHandler(positionService PositionServiceInterface) *PositionHandler {
	return &PositionHandler{
		positionService: positionService,
	}
}

// GetPositions возвращает все открытые позиции.
//
// GET /api/v1/positions
//
// Response 200 OK:
//
//	[
//	  {
//	    "symbol": "BTCUSDT",
//	    "side": "long",
//	    "quantity": 0.5,
//	    "entry_price": 42000.0,
//	    "current_price": 42350.0,
//	    "leverage": 5,
//	    "unrealized_pnl": 875.0,
//	    "status": "open",
//	    ...
//	  }
//	]
func (h *PositionHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		writeError(w, http.StatusInternalServerError, "position service not initialized", "")
		return
	}

	positions := h.positionService.GetOpenPositions()
	if positions == nil {
		positions = []*models.Position{}
	}

	writeJSON(w, http.StatusOK, positions)
}

// OpenPosition открывает новую позицию.
//
// POST /api/v1/positions
//
// Request body:
//
//	{
//	  "symbol": "BTCUSDT",
//	  "side": "long",
//	  "quantity": 0.5,
//	  "entry_price": 42000.0,
//	  "stop_loss": 40000.0,
//	  "take_profit": 45000.0,
//	  "leverage": 5
//	}
//
// Response 201 Created: созданная позиция
// Response 400 Bad Request: невалидные параметры
// Response 409 Conflict: дубликат при policy=reject
func (h *PositionHandler) OpenPosition(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		writeError(w, http.StatusInternalServerError, "position service not initialized", "")
		return
	}

	var spec models.PositionSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.positionService.Add(spec); err != nil {
		if errors.Is(err, ledger.ErrDuplicatePosition) {
			writeError(w, http.StatusConflict, "position already exists", spec.Symbol+"_"+spec.Side)
			return
		}
		writeError(w, http.StatusBadRequest, "failed to open position", err.Error())
		return
	}

	pos, ok := h.positionService.GetPosition(spec.Symbol, strings.ToLower(spec.Side))
	if !ok {
		// Позиция создана, но уже не открыта (мгновенный SL/TP маловероятен, но возможен)
		writeJSON(w, http.StatusCreated, SuccessResponse{Message: "position opened"})
		return
	}

	writeJSON(w, http.StatusCreated, pos)
}

// GetPosition возвращает одну открытую позицию по ключу (symbol, side).
//
// GET /api/v1/positions/{symbol}/{side}
func (h *PositionHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		writeError(w, http.StatusInternalServerError, "position service not initialized", "")
		return
	}

	vars := mux.Vars(r)
	pos, ok := h.positionService.GetPosition(vars["symbol"], vars["side"])
	if !ok {
		writeError(w, http.StatusNotFound, "position not found", vars["symbol"]+"_"+vars["side"])
		return
	}

	writeJSON(w, http.StatusOK, pos)
}

// UpdatePrice применяет тик цены к открытой позиции.
//
// POST /api/v1/positions/{symbol}/{side}/price
//
// Request body:
//
//	{"price": 42350.0}
//
// Response 200 OK:
//
//	{"closed": false, "position": {...}}
//
// closed=true означает, что тик сработал по stop loss или take profit
// и позиция была автоматически закрыта.
func (h *PositionHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		writeError(w, http.StatusInternalServerError, "position service not initialized", "")
		return
	}

	vars := mux.Vars(r)

	var req struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Price <= 0 {
		writeError(w, http.StatusBadRequest, "invalid price", "price must be positive")
		return
	}

	closed := h.positionService.UpdatePrice(vars["symbol"], vars["side"], req.Price)

	pos, _ := h.positionService.GetPosition(vars["symbol"], vars["side"])
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"closed":   closed,
		"position": pos,
	})
}

// ClosePosition закрывает открытую позицию целиком.
//
// POST /api/v1/positions/{symbol}/{side}/close
//
// Request body (опционально):
//
//	{"reason": "manual"}
//
// Response 200 OK: закрытая позиция с реализованным PnL
// Response 404 Not Found: позиция не найдена
func (h *PositionHandler) ClosePosition(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		writeError(w, http.StatusInternalServerError, "position service not initialized", "")
		return
	}

	vars := mux.Vars(r)

	var req struct {
		Reason string `json:"reason"`
	}
	// Пустое тело допустимо
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	closed := h.positionService.Close(vars["symbol"], vars["side"], req.Reason)
	if closed == nil {
		writeError(w, http.StatusNotFound, "position not found", vars["symbol"]+"_"+vars["side"])
		return
	}

	writeJSON(w, http.StatusOK, closed)
}

// PartialClosePosition закрывает часть позиции.
//
// POST /api/v1/positions/{symbol}/{side}/partial-close
//
// Request body:
//
//	{"percentage": 50}
//
// Response 200 OK: запись о закрытой части позиции
// Response 400 Bad Request: невалидный процент
// Response 404 Not Found: позиция не найдена
func (h *PositionHandler) PartialClosePosition(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		writeError(w, http.StatusInternalServerError, "position service not initialized", "")
		return
	}

	vars := mux.Vars(r)

	var req struct {
		Percentage float64 `json:"percentage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	part, err := h.positionService.PartialClose(vars["symbol"], vars["side"], req.Percentage)
	if err != nil {
		if errors.Is(err, ledger.ErrPositionNotFound) {
			writeError(w, http.StatusNotFound, "position not found", vars["symbol"]+"_"+vars["side"])
			return
		}
		writeError(w, http.StatusBadRequest, "failed to close position partially", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, part)
}

// GetReport возвращает отчет по позициям: весь портфель или один символ.
//
// GET /api/v1/positions/report?symbol=BTCUSDT
//
// Query Parameters:
// - symbol (optional): фильтр по символу; без него возвращается полный отчет
func (h *PositionHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		writeError(w, http.StatusInternalServerError, "position service not initialized", "")
		return
	}

	symbol := r.URL.Query().Get("symbol")
	report := h.positionService.GetPositionReport(symbol)

	if report.OpenPositions == nil {
		report.OpenPositions = []*models.Position{}
	}
	if report.RecentClosed == nil {
		report.RecentClosed = []*models.Position{}
	}

	writeJSON(w, http.StatusOK, report)
}

// GetPerformance возвращает анализ производительности торговли.
//
// GET /api/v1/positions/performance
//
// Response 200 OK:
//
//	{
//	  "symbol_analysis": {"BTCUSDT": {"total_trades": 12, "win_rate": 58.3, ...}},
//	  "time_analysis": {"14:00": {"trades": 3, "win_rate": 66.7, ...}},
//	  "size_analysis": {"small": {...}, "medium": {...}, "large": {...}},
//	  "overall_performance": {...},
//	  "recommendations": ["..."]
//	}
func (h *PositionHandler) GetPerformance(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		writeError(w, http.StatusInternalServerError, "position service not initialized", "")
		return
	}

	analysis := h.positionService.GetPerformanceAnalysis()
	if analysis.Recommendations == nil {
		analysis.Recommendations = []string{}
	}

	writeJSON(w, http.StatusOK, analysis)
}

// GetExposure возвращает агрегированную экспозицию по символам.
//
// GET /api/v1/positions/exposure
//
// Response 200 OK:
//
//	{"BTCUSDT_long": {"symbol": "BTCUSDT", "side": "long", "notional": 21000.0, "margin_used": 4200.0, "leverage": 5}}
func (h *PositionHandler) GetExposure(w http.ResponseWriter, r *http.Request) {
	if h.positionService == nil {
		writeError(w, http.StatusInternalServerError, "position service not initialized", "")
		return
	}

	exposure := h.positionService.Exposure()
	if exposure == nil {
		exposure = map[string]models.ExposureEntry{}
	}

	writeJSON(w, http.StatusOK, exposure)
}
