package risk

import (
	"fmt"
	"time"

	"riskcore/internal/models"
	"riskcore/pkg/utils"
)

// Множитель превышения лимита, при котором важность поднимается до critical
const criticalBreachFactor = 1.5

// breach - кандидат в алерты, найденный проверкой лимитов
type breach struct {
	alertType string
	severity  string
	message   string
}

// severityFor возвращает важность по величине превышения:
// high по умолчанию, critical при превышении лимита в 1.5 раза и больше
func severityFor(value, limit float64) string {
	if limit > 0 && value >= limit*criticalBreachFactor {
		return models.SeverityCritical
	}
	return models.SeverityHigh
}

// CheckRiskLimits проверяет текущие метрики против лимитов.
//
// Для каждого нарушения проходит контроль допуска:
// - cooldown: алерт того же типа не чаще одного раза за окно
// - лимит частоты: не больше max_alerts_per_hour за скользящий час
// Принятые алерты получают автоматическое действие по таблице
// (тип, важность) и публикуются в AlertSink.
//
// Возвращает список принятых алертов (может быть пустым).
func (e *Engine) CheckRiskLimits() []*models.RiskAlert {
	now := time.Now().UTC()

	e.mu.Lock()

	accepted := make([]*models.RiskAlert, 0)
	actions := make([]func(), 0)

	for _, b := range e.findBreachesLocked() {
		if !e.admitAlertLocked(b.alertType, now) {
			continue
		}

		alert := &models.RiskAlert{
			AlertID:   fmt.Sprintf("ALERT_%d", now.UnixNano()+int64(len(accepted))),
			Type:      b.alertType,
			Severity:  b.severity,
			Message:   b.message,
			CreatedAt: now,
		}

		e.stats.TotalAlerts++
		if alert.Severity == models.SeverityCritical {
			e.stats.CriticalAlerts++
		}
		AlertsTotal.WithLabelValues(alert.Type, alert.Severity).Inc()

		if action := e.dispatchActionLocked(alert); action != nil {
			actions = append(actions, action)
		}

		e.alerts = append(e.alerts, alert)
		e.lastAlertAt[alert.Type] = now
		e.alertTimes = append(e.alertTimes, now)
		accepted = append(accepted, alert)

		e.log.Warn("risk alert raised",
			utils.AlertID(alert.AlertID),
			utils.AlertType(alert.Type),
			utils.Severity(alert.Severity),
			utils.String("message", alert.Message))
	}

	sink := e.sink
	e.mu.Unlock()

	// Действия и публикация - вне блокировки
	for _, action := range actions {
		action()
	}
	if sink != nil {
		for _, alert := range accepted {
			cp := *alert
			sink.Publish(&cp)
		}
	}
	return accepted
}

// findBreachesLocked находит нарушения лимитов по текущим метрикам.
// Вызывается под e.mu.
func (e *Engine) findBreachesLocked() []breach {
	m := e.metrics
	limits := e.limits
	breaches := make([]breach, 0)

	if m.CurrentDrawdownPct > limits.MaxDrawdownPct {
		breaches = append(breaches, breach{
			alertType: models.AlertTypeDrawdown,
			severity:  severityFor(m.CurrentDrawdownPct, limits.MaxDrawdownPct),
			message: fmt.Sprintf("Drawdown %.2f%% exceeds limit %.2f%%",
				m.CurrentDrawdownPct, limits.MaxDrawdownPct),
		})
	}

	// Убытки за период сравниваются с лимитом в процентах от баланса
	// на начало периода
	if m.DailyPnl < 0 && e.dayStartBalance > 0 {
		lossPct := -m.DailyPnl / e.dayStartBalance * 100
		if lossPct > limits.MaxDailyLossPct {
			breaches = append(breaches, breach{
				alertType: models.AlertTypeDailyLoss,
				severity:  severityFor(lossPct, limits.MaxDailyLossPct),
				message: fmt.Sprintf("Daily loss %.2f%% exceeds limit %.2f%%",
					lossPct, limits.MaxDailyLossPct),
			})
		}
	}
	if m.WeeklyPnl < 0 && e.weekStartBalance > 0 {
		lossPct := -m.WeeklyPnl / e.weekStartBalance * 100
		if lossPct > limits.MaxWeeklyLossPct {
			breaches = append(breaches, breach{
				alertType: models.AlertTypeWeeklyLoss,
				severity:  severityFor(lossPct, limits.MaxWeeklyLossPct),
				message: fmt.Sprintf("Weekly loss %.2f%% exceeds limit %.2f%%",
					lossPct, limits.MaxWeeklyLossPct),
			})
		}
	}

	if m.LeverageUsed > limits.MaxLeverage {
		breaches = append(breaches, breach{
			alertType: models.AlertTypeLeverage,
			severity:  severityFor(m.LeverageUsed, limits.MaxLeverage),
			message: fmt.Sprintf("Leverage %.2fx exceeds limit %.2fx",
				m.LeverageUsed, limits.MaxLeverage),
		})
	}

	// Корреляция всегда medium: оценка приблизительная
	if m.CorrelationRisk > limits.MaxCorrelationRisk {
		breaches = append(breaches, breach{
			alertType: models.AlertTypeCorrelation,
			severity:  models.SeverityMedium,
			message: fmt.Sprintf("Correlation risk %.2f exceeds limit %.2f",
				m.CorrelationRisk, limits.MaxCorrelationRisk),
		})
	}

	// Размер позиции считается по марже, не по номиналу:
	// с плечом номинал кратно превышает реально задействованный капитал.
	// Алерт по худшему нарушителю.
	if e.currentBalance > 0 {
		var worstKey string
		var worstPct float64
		for key, entry := range e.exposure {
			pct := entry.MarginUsed / e.currentBalance * 100
			if pct > limits.MaxPositionSizePct && pct > worstPct {
				worstKey = key
				worstPct = pct
			}
		}
		if worstKey != "" {
			breaches = append(breaches, breach{
				alertType: models.AlertTypePositionSize,
				severity:  severityFor(worstPct, limits.MaxPositionSizePct),
				message: fmt.Sprintf("Position %s uses %.2f%% of balance as margin, limit %.2f%%",
					worstKey, worstPct, limits.MaxPositionSizePct),
			})
		}
	}

	return breaches
}

// admitAlertLocked - контроль допуска алерта. Вызывается под e.mu.
func (e *Engine) admitAlertLocked(alertType string, now time.Time) bool {
	cooldown := time.Duration(e.settings.AlertCooldownSec) * time.Second
	if last, ok := e.lastAlertAt[alertType]; ok && now.Sub(last) < cooldown {
		AlertsSuppressedTotal.WithLabelValues(alertType, "cooldown").Inc()
		return false
	}

	// Скользящее окно за час
	cutoff := now.Add(-time.Hour)
	kept := e.alertTimes[:0]
	for _, ts := range e.alertTimes {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	e.alertTimes = kept

	if e.settings.MaxAlertsPerHour > 0 && len(e.alertTimes) >= e.settings.MaxAlertsPerHour {
		AlertsSuppressedTotal.WithLabelValues(alertType, "rate_cap").Inc()
		return false
	}
	return true
}

// dispatchActionLocked выбирает автоматическое действие по таблице
// (тип, важность). Возвращает отложенный вызов диспетчера или nil.
// Вызывается под e.mu; сам вызов выполняется после разблокировки.
func (e *Engine) dispatchActionLocked(alert *models.RiskAlert) func() {
	d := e.dispatcher

	switch {
	case alert.Type == models.AlertTypeDrawdown && alert.Severity == models.SeverityCritical:
		if !e.settings.EmergencyStopOn {
			return nil
		}
		alert.ActionTaken = models.ActionEmergencyStop
		e.stats.AutoActionsTaken++
		e.stats.EmergencyStops++
		ActionsTotal.WithLabelValues(models.ActionEmergencyStop).Inc()
		return func() { d.EmergencyStop() }

	case alert.Type == models.AlertTypeDailyLoss && alert.Severity == models.SeverityHigh:
		if !e.settings.AutoReduceExposure {
			return nil
		}
		alert.ActionTaken = models.ActionReduceExposure
		e.stats.AutoActionsTaken++
		e.stats.ExposureReductions++
		ActionsTotal.WithLabelValues(models.ActionReduceExposure).Inc()
		return func() { d.ReduceExposure(0.5) }

	case alert.Type == models.AlertTypeLeverage && alert.Severity == models.SeverityHigh:
		if !e.settings.AutoReduceExposure {
			return nil
		}
		alert.ActionTaken = models.ActionReducePositionSizes
		e.stats.AutoActionsTaken++
		ActionsTotal.WithLabelValues(models.ActionReducePositionSizes).Inc()
		return func() { d.ReducePositionSizes(0.3) }
	}

	return nil
}

// ResolveAlert помечает алерт решенным.
//
// Идемпотентна: повторный вызов для решенного алерта возвращает true.
// Неизвестный идентификатор - false.
func (e *Engine) ResolveAlert(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, alert := range e.alerts {
		if alert.AlertID == id {
			if !alert.Resolved {
				alert.Resolved = true
				e.log.Info("risk alert resolved", utils.AlertID(id))
			}
			return true
		}
	}
	return false
}

// PruneResolvedAlerts удаляет решенные алерты старше olderThan.
// Возвращает количество удаленных.
func (e *Engine) PruneResolvedAlerts(olderThan time.Duration) int {
	cutoff := time.Now().UTC().Add(-olderThan)

	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.alerts[:0]
	removed := 0
	for _, alert := range e.alerts {
		if alert.Resolved && alert.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, alert)
	}
	e.alerts = kept

	if removed > 0 {
		e.log.Debug("resolved alerts pruned", utils.Int("removed", removed))
	}
	return removed
}

// GetActiveAlerts возвращает копии нерешенных алертов
func (e *Engine) GetActiveAlerts() []*models.RiskAlert {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]*models.RiskAlert, 0)
	for _, alert := range e.alerts {
		if !alert.Resolved {
			cp := *alert
			out = append(out, &cp)
		}
	}
	return out
}
