package models

// SymbolStats - агрегированная статистика закрытых позиций по символу.
// Среднее время удержания считается инкрементально:
// avg' = (avg×(n−1) + x) / n
type SymbolStats struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	TotalPnl      float64 `json:"total_pnl"`
	AvgHoldTime   float64 `json:"avg_hold_time"` // часы
	MaxDrawdown   float64 `json:"max_drawdown"`  // худший unrealized убыток среди позиций символа
	MaxProfit     float64 `json:"max_profit"`
}

// OverallStats - глобальная статистика леджера.
// Производные поля (win rate, avg hold time, sharpe) пересчитываются
// из неизменяемого журнала закрытых позиций.
type OverallStats struct {
	TotalPositions  int     `json:"total_positions"`
	OpenPositions   int     `json:"open_positions"`
	ClosedPositions int     `json:"closed_positions"`
	TotalPnl        float64 `json:"total_pnl"`
	WinRate         float64 `json:"win_rate"` // проценты
	AvgHoldTime     float64 `json:"avg_hold_time"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	SharpeRatio     float64 `json:"sharpe_ratio"` // приближение: avg PnL / (max drawdown / 100)
}

// RiskStats - счетчики работы риск-движка
type RiskStats struct {
	TotalAlerts        int `json:"total_alerts"`
	CriticalAlerts     int `json:"critical_alerts"`
	AutoActionsTaken   int `json:"auto_actions_taken"`
	EmergencyStops     int `json:"emergency_stops"`
	ExposureReductions int `json:"exposure_reductions"`
}

// MonitoringSettings - runtime настройки мониторинга.
// Сохраняются вместе со снапшотом состояния.
type MonitoringSettings struct {
	UpdateIntervalSec  int  `json:"update_interval"`      // секунды между циклами
	AlertCooldownSec   int  `json:"alert_cooldown"`       // секунд между алертами одного типа
	MaxAlertsPerHour   int  `json:"max_alerts_per_hour"`  // лимит алертов за скользящий час
	MaxHistoryLength   int  `json:"max_history_length"`   // ограничение истории баланса/цен
	AutoCloseOnSL      bool `json:"auto_close_on_sl"`     // автозакрытие по стоп-лоссу
	AutoCloseOnTP      bool `json:"auto_close_on_tp"`     // автозакрытие по тейк-профиту
	AutoReduceExposure bool `json:"auto_reduce_exposure"` // разрешены автоматические действия
	EmergencyStopOn    bool `json:"emergency_stop_enabled"`
}

// DefaultMonitoringSettings возвращает настройки по умолчанию
func DefaultMonitoringSettings() MonitoringSettings {
	return MonitoringSettings{
		UpdateIntervalSec:  60,
		AlertCooldownSec:   300,
		MaxAlertsPerHour:   10,
		MaxHistoryLength:   1000,
		AutoCloseOnSL:      true,
		AutoCloseOnTP:      true,
		AutoReduceExposure: true,
		EmergencyStopOn:    true,
	}
}
