package models

import "time"

// RiskMetrics - снимок метрик риска на момент времени.
// Пересчитывается целиком при каждом обновлении баланса,
// частичная мутация запрещена.
type RiskMetrics struct {
	CurrentDrawdownPct float64 `json:"current_drawdown_pct"` // просадка от пика в %
	DailyPnl           float64 `json:"daily_pnl"`            // PnL с начала дня (UTC)
	WeeklyPnl          float64 `json:"weekly_pnl"`           // PnL с начала недели (понедельник UTC)
	TotalExposure      float64 `json:"total_exposure"`       // суммарная используемая маржа
	LeverageUsed       float64 `json:"leverage_used"`        // Σ notional / Σ margin
	CorrelationRisk    float64 `json:"correlation_risk"`     // оценка ко-движения портфеля [0,1]
	Var95              float64 `json:"var_95"`               // Value at Risk 95% (historical simulation)
	SharpeRatio        float64 `json:"sharpe_ratio"`         // mean/stdev дневных изменений баланса
	MaxDrawdownPct     float64 `json:"max_drawdown_pct"`     // максимальная просадка за всю историю
	CurrentBalance     float64 `json:"current_balance"`
	PeakBalance        float64 `json:"peak_balance"`
}

// BalanceEntry - запись истории баланса (append-only, с ограничением длины)
type BalanceEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Balance   float64   `json:"balance"`
}

// ExposureEntry - агрегированные данные об одной открытой позиции.
// RiskEngine получает их снаружи и не заглядывает внутрь PositionLedger.
type ExposureEntry struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Notional   float64 `json:"notional"`    // quantity × entry_price
	MarginUsed float64 `json:"margin_used"`
	Leverage   float64 `json:"leverage"`
}
