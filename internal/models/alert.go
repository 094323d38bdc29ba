package models

import "time"

// RiskAlert представляет алерт о нарушении риск-лимита
type RiskAlert struct {
	AlertID     string    `json:"alert_id"`
	Type        string    `json:"type"`     // drawdown, daily_loss, weekly_loss, leverage, correlation, position_size
	Severity    string    `json:"severity"` // low, medium, high, critical
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
	Resolved    bool      `json:"resolved"`
	ActionTaken string    `json:"action_taken,omitempty"` // какое автоматическое действие было выполнено
}

// Типы алертов
const (
	AlertTypeDrawdown     = "drawdown"
	AlertTypeDailyLoss    = "daily_loss"
	AlertTypeWeeklyLoss   = "weekly_loss"
	AlertTypeLeverage     = "leverage"
	AlertTypeCorrelation  = "correlation"
	AlertTypePositionSize = "position_size"
)

// Уровни важности алертов
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Имена автоматических действий (записываются в ActionTaken)
const (
	ActionEmergencyStop       = "emergency_stop"
	ActionReduceExposure      = "reduce_exposure_50"
	ActionReducePositionSizes = "reduce_position_sizes_30"
)
