package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"riskcore/internal/ledger"
	"riskcore/internal/models"
	"riskcore/internal/risk"
	"riskcore/internal/state"
	"riskcore/pkg/retry"
	"riskcore/pkg/utils"
)

// Monitor - периодический цикл мониторинга риска.
//
// Каждую итерацию: снимок экспозиции из леджера → проверка лимитов →
// сохранение снапшота → очистка решенных алертов. Ошибки итерации
// логируются, цикл продолжается. Сохранение выполняется с retry.
//
// Start идемпотентен: повторный вызов логирует предупреждение и
// ничего не делает. Stop ограничен таймаутом и делает финальный
// сброс состояния.
type Monitor struct {
	ledger *ledger.PositionLedger
	engine *risk.Engine
	store  state.Store // nil - без персистентности
	log    *utils.Logger

	interval       time.Duration
	stopTimeout    time.Duration
	alertRetention time.Duration
	retryCfg       retry.Config

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Config - настройки цикла мониторинга
type Config struct {
	// Интервал между итерациями
	Interval time.Duration

	// Максимальное время ожидания остановки (включая финальный сброс)
	StopTimeout time.Duration

	// Решенные алерты старше этого срока удаляются
	AlertRetention time.Duration

	// Параметры retry для сохранения снапшота.
	// Нулевое значение - retry.ConservativeConfig().
	RetryConfig retry.Config
}

// DefaultConfig возвращает настройки цикла по умолчанию
func DefaultConfig() Config {
	return Config{
		Interval:       60 * time.Second,
		StopTimeout:    10 * time.Second,
		AlertRetention: time.Hour,
	}
}

// New создает монитор. store может быть nil - тогда состояние не сохраняется.
func New(l *ledger.PositionLedger, e *risk.Engine, store state.Store, cfg Config, log *utils.Logger) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = 10 * time.Second
	}
	if cfg.AlertRetention <= 0 {
		cfg.AlertRetention = time.Hour
	}
	if cfg.RetryConfig.MaxRetries == 0 {
		cfg.RetryConfig = retry.ConservativeConfig()
	}
	if log == nil {
		log = utils.GetGlobalLogger()
	}
	return &Monitor{
		ledger:         l,
		engine:         e,
		store:          store,
		log:            log.WithComponent("monitor"),
		interval:       cfg.Interval,
		stopTimeout:    cfg.StopTimeout,
		alertRetention: cfg.AlertRetention,
		retryCfg:       cfg.RetryConfig,
	}
}

// LoadState восстанавливает состояние леджера и движка из хранилища.
// Отсутствующий снапшот - не ошибка.
func (m *Monitor) LoadState(ctx context.Context) error {
	if m.store == nil {
		return nil
	}

	doc, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if doc == nil {
		return nil
	}

	if err := m.ledger.Restore(doc.Ledger); err != nil {
		return fmt.Errorf("failed to restore ledger: %w", err)
	}
	if err := m.engine.Restore(doc.Engine); err != nil {
		return fmt.Errorf("failed to restore engine: %w", err)
	}
	return nil
}

// Start запускает цикл мониторинга. Повторный вызов - no-op с предупреждением.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		m.log.Warn("monitor already running, start ignored")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	go m.run(ctx)

	m.log.Info("monitor started",
		utils.String("interval", m.interval.String()))
}

// Stop останавливает цикл и делает финальный сброс состояния.
// Ожидание ограничено StopTimeout.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	done := m.done
	m.running = false
	m.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-time.After(m.stopTimeout):
		m.log.Warn("monitor stop timed out waiting for loop exit")
	}

	// Финальный сброс с собственным таймаутом
	ctx, cancelFlush := context.WithTimeout(context.Background(), m.stopTimeout)
	defer cancelFlush()
	m.persist(ctx)

	m.log.Info("monitor stopped")
}

// IsRunning сообщает, работает ли цикл
func (m *Monitor) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// run - основной цикл. Выходит по отмене контекста.
func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cycle(ctx)
		}
	}
}

// cycle - одна итерация: экспозиция → лимиты → снапшот → очистка.
// Паника внутри итерации логируется, цикл продолжается.
func (m *Monitor) cycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("monitor cycle panicked",
				utils.Any("panic", r))
		}
	}()

	m.engine.SetExposure(risk.Exposure(m.ledger.Exposure()))

	if alerts := m.engine.CheckRiskLimits(); len(alerts) > 0 {
		m.log.Warn("risk limit violations detected",
			utils.Int("alerts", len(alerts)))
	}

	m.persist(ctx)

	m.engine.PruneResolvedAlerts(m.alertRetention)
}

// persist сохраняет снапшот состояния с retry.
// Ошибка логируется, итерация не прерывается.
func (m *Monitor) persist(ctx context.Context) {
	if m.store == nil {
		return
	}

	doc := &models.SnapshotDocument{
		Version: models.SnapshotVersion,
		Engine:  m.engine.Snapshot(),
		Ledger:  m.ledger.Snapshot(),
	}

	err := retry.Do(ctx, func() error {
		return m.store.Save(ctx, doc)
	}, m.retryCfg)
	if err != nil {
		m.log.Error("failed to persist state snapshot", utils.Err(err))
	}
}
