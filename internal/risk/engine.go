package risk

import (
	"fmt"
	"sync"
	"time"

	"riskcore/internal/models"
	"riskcore/pkg/utils"
)

// Engine - риск-движок.
//
// Отвечает за:
// - Историю баланса (append-only, с ограничением длины) и пиковый баланс
// - Атомарный пересчет снимка RiskMetrics при каждом обновлении
// - Проверку лимитов и генерацию алертов с cooldown и лимитом частоты
// - Автоматические защитные действия по таблице (тип, важность)
// - Сериализацию/восстановление состояния
//
// Движок работает только с агрегатами экспозиции (Exposure), внутрь
// леджера позиций не заглядывает. Один мьютекс на все состояние,
// снимок метрик замещается целиком и возвращается по значению.
type Engine struct {
	mu sync.RWMutex

	limits   models.RiskLimits
	settings models.MonitoringSettings

	metrics        models.RiskMetrics
	balanceHistory []models.BalanceEntry
	peakBalance    float64
	currentBalance float64
	exposure       Exposure

	// Балансы на начало текущего дня/недели для расчета breach в процентах
	dayStartBalance  float64
	weekStartBalance float64

	alerts      []*models.RiskAlert
	stats       models.RiskStats
	lastAlertAt map[string]time.Time // последний алерт по типу (cooldown)
	alertTimes  []time.Time          // скользящее окно для лимита частоты

	dispatcher  ActionDispatcher
	correlation CorrelationEstimator
	sink        AlertSink

	log *utils.Logger
}

// NewEngine создает риск-движок с лимитами и настройками.
// По умолчанию: логирующий диспетчер действий, фиксированная корреляция 0.
func NewEngine(limits models.RiskLimits, settings models.MonitoringSettings, log *utils.Logger) *Engine {
	if log == nil {
		log = utils.GetGlobalLogger()
	}
	if settings.MaxHistoryLength <= 0 {
		settings.MaxHistoryLength = 1000
	}
	e := &Engine{
		limits:         limits,
		settings:       settings,
		balanceHistory: make([]models.BalanceEntry, 0),
		exposure:       make(Exposure),
		alerts:         make([]*models.RiskAlert, 0),
		lastAlertAt:    make(map[string]time.Time),
		correlation:    FixedEstimator{},
		log:            log.WithComponent("risk_engine"),
	}
	e.dispatcher = NewLogDispatcher(log)
	return e
}

// SetDispatcher подключает исполнителя защитных действий
func (e *Engine) SetDispatcher(d ActionDispatcher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d != nil {
		e.dispatcher = d
	}
}

// SetCorrelationEstimator подключает оценщик корреляции
func (e *Engine) SetCorrelationEstimator(c CorrelationEstimator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c != nil {
		e.correlation = c
	}
}

// SetAlertSink подключает получателя алертов (websocket hub и т.п.)
func (e *Engine) SetAlertSink(s AlertSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = s
}

// UpdateBalance регистрирует новое значение баланса.
//
// Пик обновляется монотонно, история ограничивается настройкой,
// снимок метрик пересчитывается целиком.
func (e *Engine) UpdateBalance(balance float64) {
	now := time.Now().UTC()

	e.mu.Lock()
	e.currentBalance = balance
	if balance > e.peakBalance {
		e.peakBalance = balance
	}
	e.balanceHistory = append(e.balanceHistory, models.BalanceEntry{
		Timestamp: now,
		Balance:   balance,
	})
	if len(e.balanceHistory) > e.settings.MaxHistoryLength {
		e.balanceHistory = e.balanceHistory[len(e.balanceHistory)-e.settings.MaxHistoryLength:]
	}
	e.recomputeMetricsLocked(now)
	snapshot := e.metrics
	e.mu.Unlock()

	publishMetrics(snapshot)
}

// SetExposure замещает снимок экспозиции и пересчитывает метрики
func (e *Engine) SetExposure(exposure Exposure) {
	if exposure == nil {
		exposure = make(Exposure)
	}

	e.mu.Lock()
	e.exposure = exposure
	e.recomputeMetricsLocked(time.Now().UTC())
	snapshot := e.metrics
	count := len(exposure)
	e.mu.Unlock()

	OpenPositionsGauge.Set(float64(count))
	publishMetrics(snapshot)
}

// recomputeMetricsLocked пересчитывает снимок метрик целиком.
// Вызывается под e.mu.
func (e *Engine) recomputeMetricsLocked(now time.Time) {
	m := models.RiskMetrics{
		CurrentBalance: e.currentBalance,
		PeakBalance:    e.peakBalance,
	}

	m.CurrentDrawdownPct = utils.DrawdownPct(e.peakBalance, e.currentBalance)

	balances := make([]float64, len(e.balanceHistory))
	for i, entry := range e.balanceHistory {
		balances[i] = entry.Balance
	}
	m.MaxDrawdownPct = utils.MaxDrawdownPct(balances)

	// PnL от первого замера внутри периода (UTC-день / понедельник)
	dayStart := utils.GetDayStartFrom(now)
	weekStart := utils.GetWeekStartFrom(now)
	e.dayStartBalance = 0
	e.weekStartBalance = 0
	for _, entry := range e.balanceHistory {
		if e.weekStartBalance == 0 && !entry.Timestamp.Before(weekStart) {
			e.weekStartBalance = entry.Balance
		}
		if e.dayStartBalance == 0 && !entry.Timestamp.Before(dayStart) {
			e.dayStartBalance = entry.Balance
			break
		}
	}
	if e.dayStartBalance > 0 {
		m.DailyPnl = e.currentBalance - e.dayStartBalance
	}
	if e.weekStartBalance > 0 {
		m.WeeklyPnl = e.currentBalance - e.weekStartBalance
	}

	m.TotalExposure = e.exposure.TotalMargin()
	if m.TotalExposure > 0 {
		m.LeverageUsed = e.exposure.TotalNotional() / m.TotalExposure
	}

	m.CorrelationRisk = e.correlation.Estimate(e.exposure)

	// VaR и Sharpe требуют минимум 10 изменений баланса
	diffs := utils.Diffs(balances)
	if len(diffs) >= 10 {
		m.Var95 = utils.Percentile(diffs, 5)
		if sd := utils.StdDev(diffs); sd > 0 {
			m.SharpeRatio = utils.Mean(diffs) / sd
		}
	}

	e.metrics = m
}

// GetRiskMetrics возвращает текущий снимок метрик по значению
func (e *Engine) GetRiskMetrics() models.RiskMetrics {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.metrics
}

// GetLimits возвращает текущие лимиты
func (e *Engine) GetLimits() models.RiskLimits {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.limits
}

// UpdateLimits применяет частичное обновление лимитов
func (e *Engine) UpdateLimits(update models.RiskLimitsUpdate) models.RiskLimits {
	e.mu.Lock()
	defer e.mu.Unlock()
	update.Apply(&e.limits)
	e.log.Info("risk limits updated",
		utils.Float64("max_drawdown_pct", e.limits.MaxDrawdownPct),
		utils.Float64("max_daily_loss_pct", e.limits.MaxDailyLossPct),
		utils.Float64("max_leverage", e.limits.MaxLeverage))
	return e.limits
}

// GetSettings возвращает настройки мониторинга
func (e *Engine) GetSettings() models.MonitoringSettings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// UpdateSettings замещает настройки мониторинга
func (e *Engine) UpdateSettings(settings models.MonitoringSettings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if settings.MaxHistoryLength <= 0 {
		settings.MaxHistoryLength = 1000
	}
	e.settings = settings
}

// GetRiskReport возвращает полный отчет о состоянии риска
func (e *Engine) GetRiskReport() *models.RiskReport {
	e.mu.RLock()
	defer e.mu.RUnlock()

	report := &models.RiskReport{
		RiskMetrics:    e.metrics,
		RiskLimits:     e.limits,
		ActiveAlerts:   make([]*models.RiskAlert, 0),
		RiskStats:      e.stats,
		PositionsCount: len(e.exposure),
		Timestamp:      time.Now().UTC(),
	}
	for _, alert := range e.alerts {
		if !alert.Resolved {
			cp := *alert
			report.ActiveAlerts = append(report.ActiveAlerts, &cp)
		}
	}
	return report
}

// Snapshot возвращает глубокую копию состояния для сериализации
func (e *Engine) Snapshot() *models.EngineSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := &models.EngineSnapshot{
		Version:            models.SnapshotVersion,
		RiskLimits:         e.limits,
		RiskAlerts:         make([]*models.RiskAlert, 0, len(e.alerts)),
		RiskStats:          e.stats,
		MonitoringSettings: e.settings,
		BalanceHistory:     append([]models.BalanceEntry(nil), e.balanceHistory...),
		Positions:          make(map[string]models.ExposureEntry, len(e.exposure)),
		PeakBalance:        e.peakBalance,
		CurrentBalance:     e.currentBalance,
	}
	for _, alert := range e.alerts {
		cp := *alert
		snap.RiskAlerts = append(snap.RiskAlerts, &cp)
	}
	for key, entry := range e.exposure {
		snap.Positions[key] = entry
	}
	return snap
}

// Restore восстанавливает состояние из снапшота.
// Cooldown-ы и окно частоты алертов восстанавливаются из времени их создания.
func (e *Engine) Restore(snap *models.EngineSnapshot) error {
	if snap == nil {
		return nil
	}
	if snap.Version > models.SnapshotVersion {
		return fmt.Errorf("unsupported engine snapshot version %d", snap.Version)
	}

	now := time.Now().UTC()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.limits = snap.RiskLimits
	if snap.MonitoringSettings.MaxHistoryLength > 0 {
		e.settings = snap.MonitoringSettings
	}
	e.stats = snap.RiskStats
	e.peakBalance = snap.PeakBalance
	e.currentBalance = snap.CurrentBalance
	e.balanceHistory = append([]models.BalanceEntry(nil), snap.BalanceHistory...)

	e.exposure = make(Exposure, len(snap.Positions))
	for key, entry := range snap.Positions {
		e.exposure[key] = entry
	}

	e.alerts = make([]*models.RiskAlert, 0, len(snap.RiskAlerts))
	e.lastAlertAt = make(map[string]time.Time)
	e.alertTimes = e.alertTimes[:0]
	for _, alert := range snap.RiskAlerts {
		cp := *alert
		e.alerts = append(e.alerts, &cp)
		if cp.CreatedAt.After(e.lastAlertAt[cp.Type]) {
			e.lastAlertAt[cp.Type] = cp.CreatedAt
		}
		if now.Sub(cp.CreatedAt) < time.Hour {
			e.alertTimes = append(e.alertTimes, cp.CreatedAt)
		}
	}

	e.recomputeMetricsLocked(now)

	e.log.Info("engine state restored",
		utils.Balance(e.currentBalance),
		utils.Int("alerts", len(e.alerts)),
		utils.Int("balance_history", len(e.balanceHistory)))
	return nil
}
