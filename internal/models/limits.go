package models

// RiskLimits - конфигурируемые лимиты риска
type RiskLimits struct {
	MaxDrawdownPct       float64 `json:"max_drawdown_pct"`        // максимальная просадка в %
	MaxDailyLossPct      float64 `json:"max_daily_loss_pct"`      // максимальный дневной убыток в %
	MaxWeeklyLossPct     float64 `json:"max_weekly_loss_pct"`     // максимальный недельный убыток в %
	MaxPositionSizePct   float64 `json:"max_position_size_pct"`   // максимальный размер маржи позиции в % от баланса
	MaxCorrelationRisk   float64 `json:"max_correlation_risk"`    // максимальная корреляция между позициями [0,1]
	MaxLeverage          float64 `json:"max_leverage"`            // максимальное плечо
	MinCapitalReservePct float64 `json:"min_capital_reserve_pct"` // минимальный резерв капитала в %
}

// DefaultRiskLimits возвращает лимиты по умолчанию
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxDrawdownPct:       10.0,
		MaxDailyLossPct:      5.0,
		MaxWeeklyLossPct:     15.0,
		MaxPositionSizePct:   20.0,
		MaxCorrelationRisk:   0.7,
		MaxLeverage:          20.0,
		MinCapitalReservePct: 15.0,
	}
}

// RiskLimitsUpdate - частичное обновление лимитов.
// Перезаписываются только заполненные (non-nil) поля.
type RiskLimitsUpdate struct {
	MaxDrawdownPct       *float64 `json:"max_drawdown_pct,omitempty"`
	MaxDailyLossPct      *float64 `json:"max_daily_loss_pct,omitempty"`
	MaxWeeklyLossPct     *float64 `json:"max_weekly_loss_pct,omitempty"`
	MaxPositionSizePct   *float64 `json:"max_position_size_pct,omitempty"`
	MaxCorrelationRisk   *float64 `json:"max_correlation_risk,omitempty"`
	MaxLeverage          *float64 `json:"max_leverage,omitempty"`
	MinCapitalReservePct *float64 `json:"min_capital_reserve_pct,omitempty"`
}

// Apply применяет частичное обновление к лимитам
func (u RiskLimitsUpdate) Apply(l *RiskLimits) {
	if u.MaxDrawdownPct != nil {
		l.MaxDrawdownPct = *u.MaxDrawdownPct
	}
	if u.MaxDailyLossPct != nil {
		l.MaxDailyLossPct = *u.MaxDailyLossPct
	}
	if u.MaxWeeklyLossPct != nil {
		l.MaxWeeklyLossPct = *u.MaxWeeklyLossPct
	}
	if u.MaxPositionSizePct != nil {
		l.MaxPositionSizePct = *u.MaxPositionSizePct
	}
	if u.MaxCorrelationRisk != nil {
		l.MaxCorrelationRisk = *u.MaxCorrelationRisk
	}
	if u.MaxLeverage != nil {
		l.MaxLeverage = *u.MaxLeverage
	}
	if u.MinCapitalReservePct != nil {
		l.MinCapitalReservePct = *u.MinCapitalReservePct
	}
}
