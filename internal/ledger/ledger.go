package ledger

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"riskcore/internal/models"
	"riskcore/pkg/utils"
)

// Ошибки леджера позиций
var (
	ErrDuplicatePosition = errors.New("position with this symbol and side already exists")
	ErrPositionNotFound  = errors.New("position not found")
)

// PositionLedger - учет позиций и их жизненного цикла.
//
// Отвечает за:
// - Открытие позиций с политикой обработки дубликатов (overwrite/reject/merge)
// - Обновление цен, пересчет нереализованного PnL и watermark-ов
// - Автозакрытие по стоп-лоссу и тейк-профиту (SL проверяется первым)
// - Полное и частичное закрытие с порогом пыли
// - Статистику по символам и общую статистику
// - Ограниченную историю цены/PnL каждой позиции
//
// Все операции защищены одним RWMutex. Закрытые позиции - append-only журнал,
// производные метрики пересчитываются из него.
type PositionLedger struct {
	mu sync.RWMutex

	positions    map[string]*models.Position   // ключ "SYMBOL_side"
	closed       []*models.Position            // журнал закрытых (включая частичные доли)
	symbolStats  map[string]models.SymbolStats // инкрементальная статистика по символам
	priceHistory map[string][]models.PricePoint

	cfg Config
	log *utils.Logger
}

// Config - настройки леджера
type Config struct {
	// Политика при повторном открытии по занятому ключу (symbol, side)
	DuplicatePolicy string

	// Остаток меньше порога при частичном закрытии закрывает позицию целиком
	DustThreshold float64

	// Ограничение длины истории цены на позицию
	MaxHistoryLength int

	// Автозакрытие по стоп-лоссу / тейк-профиту при обновлении цены
	AutoCloseOnSL bool
	AutoCloseOnTP bool
}

// DefaultConfig возвращает настройки леджера по умолчанию
func DefaultConfig() Config {
	return Config{
		DuplicatePolicy:  models.DuplicateOverwrite,
		DustThreshold:    0.001,
		MaxHistoryLength: 1000,
		AutoCloseOnSL:    true,
		AutoCloseOnTP:    true,
	}
}

// New создает новый PositionLedger
func New(cfg Config, log *utils.Logger) *PositionLedger {
	if cfg.DustThreshold <= 0 {
		cfg.DustThreshold = 0.001
	}
	if cfg.MaxHistoryLength <= 0 {
		cfg.MaxHistoryLength = 1000
	}
	if cfg.DuplicatePolicy == "" {
		cfg.DuplicatePolicy = models.DuplicateOverwrite
	}
	if log == nil {
		log = utils.GetGlobalLogger()
	}
	return &PositionLedger{
		positions:    make(map[string]*models.Position),
		closed:       make([]*models.Position, 0),
		symbolStats:  make(map[string]models.SymbolStats),
		priceHistory: make(map[string][]models.PricePoint),
		cfg:          cfg,
		log:          log.WithComponent("ledger"),
	}
}

// Add открывает новую позицию.
//
// Поведение при занятом ключе (symbol, side) определяется политикой:
// - overwrite: старая позиция замещается без закрытия
// - reject: возвращается ErrDuplicatePosition
// - merge: доливка - объемы и маржа суммируются, цена входа усредняется
//   по объему, счетчик доливок увеличивается
func (l *PositionLedger) Add(spec models.PositionSpec) error {
	if err := utils.ValidateSymbol(spec.Symbol); err != nil {
		return fmt.Errorf("invalid position spec: %w", err)
	}
	if err := utils.ValidateSide(spec.Side); err != nil {
		return fmt.Errorf("invalid position spec: %w", err)
	}
	// Сторона хранится в каноническом виде: от нее зависят знак PnL
	// и направление срабатывания стоп-лосса / тейк-профита
	spec.Side = strings.ToLower(spec.Side)
	if err := utils.ValidateQuantity(spec.Quantity); err != nil {
		return fmt.Errorf("invalid position spec: %w", err)
	}
	if err := utils.ValidatePrice(spec.EntryPrice); err != nil {
		return fmt.Errorf("invalid position spec: %w", err)
	}

	leverage := spec.Leverage
	if leverage < 1 {
		leverage = 1
	}
	margin := spec.MarginUsed
	if margin <= 0 {
		margin = spec.Quantity * spec.EntryPrice / leverage
	}
	currentPrice := spec.CurrentPrice
	if currentPrice <= 0 {
		currentPrice = spec.EntryPrice
	}

	key := models.PositionKey(spec.Symbol, spec.Side)
	now := time.Now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.positions[key]; ok {
		switch l.cfg.DuplicatePolicy {
		case models.DuplicateReject:
			return fmt.Errorf("%w: %s", ErrDuplicatePosition, key)

		case models.DuplicateMerge:
			l.mergeLocked(existing, spec, margin, currentPrice, now)
			return nil

		default: // overwrite
			l.log.Warn("overwriting existing position",
				utils.Symbol(spec.Symbol), utils.Side(spec.Side))
		}
	}

	pos := &models.Position{
		Symbol:       spec.Symbol,
		Side:         spec.Side,
		Quantity:     spec.Quantity,
		EntryPrice:   spec.EntryPrice,
		CurrentPrice: currentPrice,
		StopLoss:     spec.StopLoss,
		TakeProfit:   spec.TakeProfit,
		Leverage:     leverage,
		MarginUsed:   margin,
		Status:       models.StatusOpen,
		EntryTime:    now,
		LastUpdate:   now,
	}
	pos.UnrealizedPnl = utils.CalculatePNL(pos.Side, pos.EntryPrice, pos.CurrentPrice, pos.Quantity, pos.Leverage)

	l.positions[key] = pos
	l.priceHistory[key] = nil

	l.log.Info("position opened",
		utils.Symbol(pos.Symbol),
		utils.Side(pos.Side),
		utils.Quantity(pos.Quantity),
		utils.Price(pos.EntryPrice),
		utils.Leverage(pos.Leverage))
	return nil
}

// mergeLocked выполняет доливку существующей позиции
func (l *PositionLedger) mergeLocked(pos *models.Position, spec models.PositionSpec, margin, currentPrice float64, now time.Time) {
	oldNotional := pos.Quantity * pos.EntryPrice
	addNotional := spec.Quantity * spec.EntryPrice
	newQuantity := pos.Quantity + spec.Quantity

	pos.EntryPrice = (oldNotional + addNotional) / newQuantity
	pos.Quantity = newQuantity
	pos.MarginUsed += margin
	pos.CurrentPrice = currentPrice
	pos.ScaleInCount++
	pos.LastUpdate = now
	if spec.StopLoss > 0 {
		pos.StopLoss = spec.StopLoss
	}
	if spec.TakeProfit > 0 {
		pos.TakeProfit = spec.TakeProfit
	}
	pos.UnrealizedPnl = utils.CalculatePNL(pos.Side, pos.EntryPrice, pos.CurrentPrice, pos.Quantity, pos.Leverage)

	l.log.Info("position scaled in",
		utils.Symbol(pos.Symbol),
		utils.Side(pos.Side),
		utils.Quantity(pos.Quantity),
		utils.Price(pos.EntryPrice),
		utils.Int("scale_in_count", pos.ScaleInCount))
}

// UpdatePrice обновляет текущую цену позиции и пересчитывает PnL.
//
// Обновляет watermark-и (max profit / max drawdown), дописывает точку
// в историю цены и проверяет автозакрытие. Стоп-лосс проверяется
// раньше тейк-профита.
//
// Возвращает false если позиция не найдена (no-op).
func (l *PositionLedger) UpdatePrice(symbol, side string, price float64) bool {
	if price <= 0 {
		return false
	}

	key := models.PositionKey(symbol, side)
	now := time.Now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[key]
	if !ok {
		return false
	}

	pos.CurrentPrice = price
	pos.LastUpdate = now
	pos.UnrealizedPnl = utils.CalculatePNL(pos.Side, pos.EntryPrice, price, pos.Quantity, pos.Leverage)

	// Watermark-и: MaxDrawdown хранит магнитуду худшего убытка
	if pos.UnrealizedPnl > pos.MaxProfit {
		pos.MaxProfit = pos.UnrealizedPnl
	}
	if pos.UnrealizedPnl < 0 && -pos.UnrealizedPnl > pos.MaxDrawdown {
		pos.MaxDrawdown = -pos.UnrealizedPnl
	}

	history := append(l.priceHistory[key], models.PricePoint{
		Timestamp: now,
		Price:     price,
		Pnl:       pos.UnrealizedPnl,
	})
	if len(history) > l.cfg.MaxHistoryLength {
		history = history[len(history)-l.cfg.MaxHistoryLength:]
	}
	l.priceHistory[key] = history

	// Стоп-лосс имеет приоритет над тейк-профитом
	if l.cfg.AutoCloseOnSL && pos.StopLoss > 0 && stopLossHit(pos.Side, price, pos.StopLoss) {
		l.closeLocked(key, pos, models.CloseReasonStopLoss, now)
		return true
	}
	if l.cfg.AutoCloseOnTP && pos.TakeProfit > 0 && takeProfitHit(pos.Side, price, pos.TakeProfit) {
		l.closeLocked(key, pos, models.CloseReasonTakeProfit, now)
		return true
	}

	return true
}

func stopLossHit(side string, price, stopLoss float64) bool {
	if side == models.SideLong {
		return price <= stopLoss
	}
	return price >= stopLoss
}

func takeProfitHit(side string, price, takeProfit float64) bool {
	if side == models.SideLong {
		return price >= takeProfit
	}
	return price <= takeProfit
}

// Close закрывает позицию целиком.
//
// Нереализованный PnL по текущей цене становится реализованным,
// позиция переносится в журнал закрытых, статистика обновляется.
// Возвращает nil если позиция не найдена (no-op).
func (l *PositionLedger) Close(symbol, side, reason string) *models.Position {
	key := models.PositionKey(symbol, side)
	now := time.Now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[key]
	if !ok {
		l.log.Warn("close requested for unknown position",
			utils.Symbol(symbol), utils.Side(side))
		return nil
	}
	return l.closeLocked(key, pos, reason, now)
}

// closeLocked переносит позицию в журнал закрытых. Вызывается под l.mu.
func (l *PositionLedger) closeLocked(key string, pos *models.Position, reason string, now time.Time) *models.Position {
	if reason == "" {
		reason = models.CloseReasonManual
	}

	pos.RealizedPnl += pos.UnrealizedPnl
	pos.UnrealizedPnl = 0
	pos.Status = models.StatusClosed
	pos.CloseReason = reason
	pos.LastUpdate = now

	delete(l.positions, key)
	delete(l.priceHistory, key)
	l.closed = append(l.closed, pos)
	l.recordClosedLocked(pos)

	l.log.Info("position closed",
		utils.Symbol(pos.Symbol),
		utils.Side(pos.Side),
		utils.Reason(reason),
		utils.PNL(pos.RealizedPnl))
	return pos
}

// PartialClose закрывает долю позиции в процентах (0, 100].
//
// Реализует пропорциональную долю PnL, уменьшает объем и маржу.
// Если остаток меньше порога пыли, позиция закрывается целиком.
// Возвращает запись о закрытой доле.
func (l *PositionLedger) PartialClose(symbol, side string, percentage float64) (*models.Position, error) {
	if err := utils.ValidatePercentage(percentage); err != nil {
		return nil, err
	}

	key := models.PositionKey(symbol, side)
	now := time.Now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPositionNotFound, key)
	}

	closeQty := pos.Quantity * percentage / 100
	remaining := pos.Quantity - closeQty

	// Остаток-пыль закрывает позицию целиком
	if remaining < l.cfg.DustThreshold {
		return l.closeLocked(key, pos, models.CloseReasonPartialClose, now), nil
	}

	fraction := closeQty / pos.Quantity
	realizedPortion := pos.UnrealizedPnl * fraction

	// Запись о закрытой доле уходит в журнал
	part := *pos
	part.Quantity = closeQty
	part.MarginUsed = pos.MarginUsed * fraction
	part.RealizedPnl = realizedPortion
	part.UnrealizedPnl = 0
	part.Status = models.StatusClosed
	part.CloseReason = models.CloseReasonPartialClose
	part.LastUpdate = now

	pos.Quantity = remaining
	pos.MarginUsed -= part.MarginUsed
	pos.RealizedPnl += realizedPortion
	pos.UnrealizedPnl = utils.CalculatePNL(pos.Side, pos.EntryPrice, pos.CurrentPrice, pos.Quantity, pos.Leverage)
	pos.Status = models.StatusPartial
	pos.LastUpdate = now

	l.closed = append(l.closed, &part)
	l.recordClosedLocked(&part)

	l.log.Info("position partially closed",
		utils.Symbol(symbol),
		utils.Side(side),
		utils.Float64("percentage", percentage),
		utils.Quantity(remaining),
		utils.PNL(realizedPortion))
	return &part, nil
}

// recordClosedLocked обновляет статистику символа по закрытой записи.
// Среднее время удержания - инкрементально: avg' = (avg×(n−1) + x) / n
func (l *PositionLedger) recordClosedLocked(pos *models.Position) {
	stats := l.symbolStats[pos.Symbol]

	stats.TotalTrades++
	if pos.RealizedPnl > 0 {
		stats.WinningTrades++
	} else {
		stats.LosingTrades++
	}
	stats.TotalPnl += pos.RealizedPnl

	n := float64(stats.TotalTrades)
	stats.AvgHoldTime = (stats.AvgHoldTime*(n-1) + pos.HoldTimeHours()) / n

	if pos.MaxDrawdown > stats.MaxDrawdown {
		stats.MaxDrawdown = pos.MaxDrawdown
	}
	if pos.MaxProfit > stats.MaxProfit {
		stats.MaxProfit = pos.MaxProfit
	}

	l.symbolStats[pos.Symbol] = stats
}

// GetPosition возвращает копию позиции по ключу
func (l *PositionLedger) GetPosition(symbol, side string) (*models.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pos, ok := l.positions[models.PositionKey(symbol, side)]
	if !ok {
		return nil, false
	}
	cp := *pos
	return &cp, true
}

// GetOpenPositions возвращает копии всех открытых позиций
func (l *PositionLedger) GetOpenPositions() []*models.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*models.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		cp := *pos
		out = append(out, &cp)
	}
	return out
}

// OpenCount возвращает количество открытых позиций
func (l *PositionLedger) OpenCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.positions)
}

// Exposure возвращает агрегированный снимок экспозиции открытых позиций.
// Риск-движок работает только с этими агрегатами.
func (l *PositionLedger) Exposure() map[string]models.ExposureEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]models.ExposureEntry, len(l.positions))
	for key, pos := range l.positions {
		out[key] = models.ExposureEntry{
			Symbol:     pos.Symbol,
			Side:       pos.Side,
			Notional:   pos.NotionalValue(),
			MarginUsed: pos.MarginUsed,
			Leverage:   pos.Leverage,
		}
	}
	return out
}

// Snapshot возвращает глубокую копию состояния для сериализации
func (l *PositionLedger) Snapshot() *models.LedgerSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := &models.LedgerSnapshot{
		Version:         models.SnapshotVersion,
		Positions:       make(map[string]*models.Position, len(l.positions)),
		ClosedPositions: make([]*models.Position, 0, len(l.closed)),
		SymbolStats:     make(map[string]models.SymbolStats, len(l.symbolStats)),
		OverallStats:    l.overallStatsLocked(),
		PriceHistory:    make(map[string][]models.PricePoint, len(l.priceHistory)),
	}
	for key, pos := range l.positions {
		cp := *pos
		snap.Positions[key] = &cp
	}
	for _, pos := range l.closed {
		cp := *pos
		snap.ClosedPositions = append(snap.ClosedPositions, &cp)
	}
	for symbol, stats := range l.symbolStats {
		snap.SymbolStats[symbol] = stats
	}
	for key, history := range l.priceHistory {
		snap.PriceHistory[key] = append([]models.PricePoint(nil), history...)
	}
	return snap
}

// Restore восстанавливает состояние из снапшота
func (l *PositionLedger) Restore(snap *models.LedgerSnapshot) error {
	if snap == nil {
		return nil
	}
	if snap.Version > models.SnapshotVersion {
		return fmt.Errorf("unsupported ledger snapshot version %d", snap.Version)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.positions = make(map[string]*models.Position, len(snap.Positions))
	for _, pos := range snap.Positions {
		cp := *pos
		// Снапшоты старых версий могли сохранить сторону в произвольном регистре
		cp.Side = strings.ToLower(cp.Side)
		l.positions[cp.Key()] = &cp
	}
	l.closed = make([]*models.Position, 0, len(snap.ClosedPositions))
	for _, pos := range snap.ClosedPositions {
		cp := *pos
		l.closed = append(l.closed, &cp)
	}
	l.symbolStats = make(map[string]models.SymbolStats, len(snap.SymbolStats))
	for symbol, stats := range snap.SymbolStats {
		l.symbolStats[symbol] = stats
	}
	l.priceHistory = make(map[string][]models.PricePoint, len(snap.PriceHistory))
	for key, history := range snap.PriceHistory {
		l.priceHistory[key] = append([]models.PricePoint(nil), history...)
	}

	l.log.Info("ledger state restored",
		utils.Int("open_positions", len(l.positions)),
		utils.Int("closed_positions", len(l.closed)))
	return nil
}

// overallStatsLocked пересчитывает общую статистику из журнала закрытых.
// Вызывается под l.mu.
func (l *PositionLedger) overallStatsLocked() models.OverallStats {
	stats := models.OverallStats{
		OpenPositions:   len(l.positions),
		ClosedPositions: len(l.closed),
		TotalPositions:  len(l.positions) + len(l.closed),
	}
	if len(l.closed) == 0 {
		return stats
	}

	var wins int
	var holdSum float64
	for _, pos := range l.closed {
		stats.TotalPnl += pos.RealizedPnl
		if pos.RealizedPnl > 0 {
			wins++
		}
		holdSum += pos.HoldTimeHours()
		if pos.MaxDrawdown > stats.MaxDrawdown {
			stats.MaxDrawdown = pos.MaxDrawdown
		}
	}

	n := float64(len(l.closed))
	stats.WinRate = float64(wins) / n * 100
	stats.AvgHoldTime = holdSum / n
	if stats.MaxDrawdown > 0 {
		stats.SharpeRatio = (stats.TotalPnl / n) / (stats.MaxDrawdown / 100)
	}
	return stats
}
