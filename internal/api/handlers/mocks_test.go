package handlers

import (
	"errors"
	"strings"
	"sync"
	"time"

	"riskcore/internal/ledger"
	"riskcore/internal/models"
)

// ============ Mock Risk Service ============

// MockRiskService мок для RiskServiceInterface
type MockRiskService struct {
	metrics        models.RiskMetrics
	limits         models.RiskLimits
	settings       models.MonitoringSettings
	alerts         []*models.RiskAlert
	stats          models.RiskStats
	balance        float64
	checkAlerts    []*models.RiskAlert
	resolvedIDs    []string
	positionsCount int
	mu             sync.RWMutex
}

// NewMockRiskService создает новый мок риск-движка
func NewMockRiskService() *MockRiskService {
	return &MockRiskService{
		limits:   models.DefaultRiskLimits(),
		settings: models.DefaultMonitoringSettings(),
		alerts:   make([]*models.RiskAlert, 0),
	}
}

func (m *MockRiskService) GetRiskReport() *models.RiskReport {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &models.RiskReport{
		RiskMetrics:    m.metrics,
		RiskLimits:     m.limits,
		ActiveAlerts:   m.alerts,
		RiskStats:      m.stats,
		PositionsCount: m.positionsCount,
		Timestamp:      time.Now().UTC(),
	}
}

func (m *MockRiskService) GetRiskMetrics() models.RiskMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metrics
}

func (m *MockRiskService) GetLimits() models.RiskLimits {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.limits
}

func (m *MockRiskService) UpdateLimits(update models.RiskLimitsUpdate) models.RiskLimits {
	m.mu.Lock()
	defer m.mu.Unlock()

	update.Apply(&m.limits)
	return m.limits
}

func (m *MockRiskService) GetSettings() models.MonitoringSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

func (m *MockRiskService) UpdateSettings(settings models.MonitoringSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = settings
}

func (m *MockRiskService) GetActiveAlerts() []*models.RiskAlert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*models.RiskAlert, 0, len(m.alerts))
	for _, a := range m.alerts {
		if !a.Resolved {
			result = append(result, a)
		}
	}
	return result
}

func (m *MockRiskService) ResolveAlert(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.alerts {
		if a.AlertID == id && !a.Resolved {
			a.Resolved = true
			m.resolvedIDs = append(m.resolvedIDs, id)
			return true
		}
	}
	return false
}

func (m *MockRiskService) UpdateBalance(balance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = balance
}

func (m *MockRiskService) CheckRiskLimits() []*models.RiskAlert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkAlerts
}

// SetMetrics устанавливает метрики напрямую (для настройки тестов)
func (m *MockRiskService) SetMetrics(metrics models.RiskMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = metrics
}

// AddAlert добавляет алерт напрямую (для настройки тестов)
func (m *MockRiskService) AddAlert(alert *models.RiskAlert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, alert)
}

// Balance возвращает последний записанный баланс
func (m *MockRiskService) Balance() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balance
}

// ============ Mock Position Service ============

// MockPositionService мок для PositionServiceInterface
type MockPositionService struct {
	positions map[string]*models.Position
	closed    []*models.Position
	addErr    error
	mu        sync.RWMutex
}

// NewMockPositionService создает новый мок леджера позиций
func NewMockPositionService() *MockPositionService {
	return &MockPositionService{
		positions: make(map[string]*models.Position),
		closed:    make([]*models.Position, 0),
	}
}

func (m *MockPositionService) Add(spec models.PositionSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.addErr != nil {
		return m.addErr
	}

	side := strings.ToLower(spec.Side)
	key := models.PositionKey(spec.Symbol, side)
	if _, exists := m.positions[key]; exists {
		return ledger.ErrDuplicatePosition
	}

	now := time.Now().UTC()
	m.positions[key] = &models.Position{
		Symbol:       spec.Symbol,
		Side:         side,
		Quantity:     spec.Quantity,
		EntryPrice:   spec.EntryPrice,
		CurrentPrice: spec.EntryPrice,
		StopLoss:     spec.StopLoss,
		TakeProfit:   spec.TakeProfit,
		Leverage:     spec.Leverage,
		MarginUsed:   spec.MarginUsed,
		Status:       models.StatusOpen,
		EntryTime:    now,
		LastUpdate:   now,
	}
	return nil
}

func (m *MockPositionService) UpdatePrice(symbol, side string, price float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.positions[models.PositionKey(symbol, side)]
	if !ok {
		return false
	}
	pos.CurrentPrice = price
	pos.LastUpdate = time.Now().UTC()
	return false
}

func (m *MockPositionService) Close(symbol, side, reason string) *models.Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := models.PositionKey(symbol, side)
	pos, ok := m.positions[key]
	if !ok {
		return nil
	}

	delete(m.positions, key)
	pos.Status = models.StatusClosed
	if reason == "" {
		reason = models.CloseReasonManual
	}
	pos.CloseReason = reason
	m.closed = append(m.closed, pos)
	return pos
}

func (m *MockPositionService) PartialClose(symbol, side string, percentage float64) (*models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if percentage <= 0 || percentage > 100 {
		return nil, errors.New("percentage must be in (0, 100]")
	}

	pos, ok := m.positions[models.PositionKey(symbol, side)]
	if !ok {
		return nil, ledger.ErrPositionNotFound
	}

	part := *pos
	part.Quantity = pos.Quantity * percentage / 100
	part.Status = models.StatusClosed
	part.CloseReason = models.CloseReasonPartialClose
	pos.Quantity -= part.Quantity
	pos.Status = models.StatusPartial
	return &part, nil
}

func (m *MockPositionService) GetPosition(symbol, side string) (*models.Position, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos, ok := m.positions[models.PositionKey(symbol, side)]
	return pos, ok
}

func (m *MockPositionService) GetOpenPositions() []*models.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*models.Position, 0, len(m.positions))
	for _, p := range m.positions {
		result = append(result, p)
	}
	return result
}

func (m *MockPositionService) Exposure() map[string]models.ExposureEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]models.ExposureEntry, len(m.positions))
	for key, p := range m.positions {
		result[key] = models.ExposureEntry{
			Symbol:     p.Symbol,
			Side:       p.Side,
			Notional:   p.NotionalValue(),
			MarginUsed: p.MarginUsed,
			Leverage:   p.Leverage,
		}
	}
	return result
}

func (m *MockPositionService) GetPositionReport(symbol string) *models.PositionReport {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := &models.PositionReport{
		Symbol:        symbol,
		OpenPositions: make([]*models.Position, 0),
		RecentClosed:  make([]*models.Position, 0),
		Timestamp:     time.Now().UTC(),
	}
	for _, p := range m.positions {
		if symbol == "" || p.Symbol == symbol {
			report.OpenPositions = append(report.OpenPositions, p)
		}
	}
	for _, p := range m.closed {
		if symbol == "" || p.Symbol == symbol {
			report.RecentClosed = append(report.RecentClosed, p)
		}
	}
	return report
}

func (m *MockPositionService) GetPerformanceAnalysis() *models.PerformanceAnalysis {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return &models.PerformanceAnalysis{
		SymbolAnalysis:  make(map[string]models.SymbolAnalysis),
		TimeAnalysis:    make(map[string]models.BucketAnalysis),
		SizeAnalysis:    make(map[string]models.BucketAnalysis),
		Recommendations: []string{},
	}
}

// SetAddError устанавливает ошибку для операции Add
func (m *MockPositionService) SetAddError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addErr = err
}

// ============ Helper errors for tests ============

var ErrMockService = errors.New("mock service error")

// ============ Проверяем, что моки реализуют интерфейсы ============

var _ RiskServiceInterface = (*MockRiskService)(nil)
var _ PositionServiceInterface = (*MockPositionService)(nil)
