package models

import "time"

// RiskReport - полный отчет о состоянии риск-движка
type RiskReport struct {
	RiskMetrics    RiskMetrics  `json:"risk_metrics"`
	RiskLimits     RiskLimits   `json:"risk_limits"`
	ActiveAlerts   []*RiskAlert `json:"active_alerts"`
	RiskStats      RiskStats    `json:"risk_stats"`
	PositionsCount int          `json:"positions_count"`
	Timestamp      time.Time    `json:"timestamp"`
}

// PositionReport - отчет о позициях (весь портфель или один символ)
type PositionReport struct {
	Symbol        string                 `json:"symbol,omitempty"`
	OverallStats  *OverallStats          `json:"overall_stats,omitempty"`
	SymbolStats   map[string]SymbolStats `json:"symbol_stats,omitempty"`
	OpenPositions []*Position            `json:"open_positions"`
	RecentClosed  []*Position            `json:"recent_closed"`
	Timestamp     time.Time              `json:"timestamp"`
}

// SymbolAnalysis - анализ производительности по одному символу
type SymbolAnalysis struct {
	TotalTrades   int     `json:"total_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalPnl      float64 `json:"total_pnl"`
	AvgPnlPerTrade float64 `json:"avg_pnl_per_trade"`
	AvgHoldTime   float64 `json:"avg_hold_time"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	MaxProfit     float64 `json:"max_profit"`
}

// BucketAnalysis - агрегат по корзине (час входа или размер позиции)
type BucketAnalysis struct {
	Trades   int     `json:"trades"`
	WinRate  float64 `json:"win_rate"`
	TotalPnl float64 `json:"total_pnl"`
	AvgPnl   float64 `json:"avg_pnl"`
}

// PerformanceAnalysis - полный анализ производительности торговли
type PerformanceAnalysis struct {
	SymbolAnalysis     map[string]SymbolAnalysis `json:"symbol_analysis"`
	TimeAnalysis       map[string]BucketAnalysis `json:"time_analysis"` // ключ "HH:00"
	SizeAnalysis       map[string]BucketAnalysis `json:"size_analysis"` // small, medium, large
	OverallPerformance OverallStats              `json:"overall_performance"`
	Recommendations    []string                  `json:"recommendations"`
}
