package risk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"riskcore/internal/models"
)

// ============================================================
// Prometheus метрики риск-движка
// ============================================================
//
// Использование:
// - Grafana дашборды состояния риска
// - Alertmanager для уведомлений о нарушениях лимитов

// ============ Метрики баланса и просадки ============

// CurrentBalanceGauge - текущий баланс аккаунта
var CurrentBalanceGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "engine",
	Name:      "current_balance",
	Help:      "Current account balance",
})

// PeakBalanceGauge - пиковый баланс за историю
var PeakBalanceGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "engine",
	Name:      "peak_balance",
	Help:      "All-time peak account balance",
})

// DrawdownGauge - текущая просадка от пика в процентах
var DrawdownGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "engine",
	Name:      "drawdown_pct",
	Help:      "Current drawdown from peak balance in percent",
})

// DailyPnlGauge - PnL с начала дня (UTC)
var DailyPnlGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "engine",
	Name:      "daily_pnl",
	Help:      "Profit and loss since UTC day start",
})

// WeeklyPnlGauge - PnL с начала недели (понедельник UTC)
var WeeklyPnlGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "engine",
	Name:      "weekly_pnl",
	Help:      "Profit and loss since most recent Monday UTC",
})

// ============ Метрики экспозиции ============

// TotalExposureGauge - суммарная используемая маржа
var TotalExposureGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "engine",
	Name:      "total_exposure",
	Help:      "Total margin used across open positions",
})

// LeverageUsedGauge - эффективное плечо портфеля
var LeverageUsedGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "engine",
	Name:      "leverage_used",
	Help:      "Portfolio leverage: total notional / total margin",
})

// OpenPositionsGauge - количество открытых позиций в снимке экспозиции
var OpenPositionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "engine",
	Name:      "open_positions",
	Help:      "Number of open positions in the exposure snapshot",
})

// Var95Gauge - Value at Risk 95% (historical simulation)
var Var95Gauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "engine",
	Name:      "var_95",
	Help:      "Value at Risk at 95 percent confidence",
})

// SharpeRatioGauge - Sharpe ratio по изменениям баланса
var SharpeRatioGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "riskcore",
	Subsystem: "engine",
	Name:      "sharpe_ratio",
	Help:      "Sharpe ratio over balance deltas",
})

// ============ Счётчики алертов и действий ============

// AlertsTotal - количество созданных алертов по типу и важности
var AlertsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "riskcore",
		Subsystem: "engine",
		Name:      "alerts_total",
		Help:      "Total risk alerts raised",
	},
	[]string{"type", "severity"},
)

// AlertsSuppressedTotal - алерты, подавленные cooldown-ом или лимитом частоты
var AlertsSuppressedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "riskcore",
		Subsystem: "engine",
		Name:      "alerts_suppressed_total",
		Help:      "Risk alerts suppressed by cooldown or rate cap",
	},
	[]string{"type", "reason"},
)

// ActionsTotal - автоматические защитные действия по типам
var ActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "riskcore",
		Subsystem: "engine",
		Name:      "actions_total",
		Help:      "Total automatic protective actions dispatched",
	},
	[]string{"action"},
)

// publishMetrics выгружает снимок метрик риска в Prometheus
func publishMetrics(m models.RiskMetrics) {
	CurrentBalanceGauge.Set(m.CurrentBalance)
	PeakBalanceGauge.Set(m.PeakBalance)
	DrawdownGauge.Set(m.CurrentDrawdownPct)
	DailyPnlGauge.Set(m.DailyPnl)
	WeeklyPnlGauge.Set(m.WeeklyPnl)
	TotalExposureGauge.Set(m.TotalExposure)
	LeverageUsedGauge.Set(m.LeverageUsed)
	Var95Gauge.Set(m.Var95)
	SharpeRatioGauge.Set(m.SharpeRatio)
}
