package models

// Версия схемы снапшота. Увеличивается при несовместимых изменениях формата.
const SnapshotVersion = 1

// EngineSnapshot - сериализуемое состояние риск-движка.
// Формат должен восстанавливаться поле-в-поле (round-trip).
// Временные метки сериализуются строками RFC 3339.
type EngineSnapshot struct {
	Version            int                      `json:"version"`
	RiskLimits         RiskLimits               `json:"risk_limits"`
	RiskAlerts         []*RiskAlert             `json:"risk_alerts"`
	RiskStats          RiskStats                `json:"risk_stats"`
	MonitoringSettings MonitoringSettings       `json:"monitoring_settings"`
	BalanceHistory     []BalanceEntry           `json:"balance_history"`
	Positions          map[string]ExposureEntry `json:"positions"` // снимок экспозиции открытых позиций
	PeakBalance        float64                  `json:"peak_balance"`
	CurrentBalance     float64                  `json:"current_balance"`
}

// LedgerSnapshot - сериализуемое состояние леджера позиций
type LedgerSnapshot struct {
	Version         int                     `json:"version"`
	Positions       map[string]*Position    `json:"positions"`
	ClosedPositions []*Position             `json:"closed_positions"`
	SymbolStats     map[string]SymbolStats  `json:"symbol_stats"`
	OverallStats    OverallStats            `json:"overall_stats"`
	PriceHistory    map[string][]PricePoint `json:"price_history"`
}

// SnapshotDocument - полный документ состояния обоих компонентов
type SnapshotDocument struct {
	Version int             `json:"version"`
	Engine  *EngineSnapshot `json:"engine"`
	Ledger  *LedgerSnapshot `json:"ledger"`
}
