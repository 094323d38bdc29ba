package risk

import (
	"riskcore/internal/models"
	"riskcore/pkg/utils"
)

// ActionDispatcher выполняет защитные действия по сигналам риск-движка.
//
// Движок только сигнализирует - исполнение (закрытие позиций, остановка
// торговли) лежит на внешнем слое. Реализация обязана быть неблокирующей
// или быстрой: вызовы идут из цикла проверки лимитов.
type ActionDispatcher interface {
	// EmergencyStop - экстренная остановка торговли
	EmergencyStop()

	// ReduceExposure - снижение экспозиции на долю factor (0.5 = вдвое)
	ReduceExposure(factor float64)

	// ReducePositionSizes - снижение размеров позиций на долю factor
	ReducePositionSizes(factor float64)
}

// AlertSink получает принятые алерты (websocket hub, журнал уведомлений).
// Вызывается вне блокировки движка.
type AlertSink interface {
	Publish(alert *models.RiskAlert)
}

// LogDispatcher - диспетчер по умолчанию: только логирует сигналы
type LogDispatcher struct {
	log *utils.Logger
}

// NewLogDispatcher создает логирующий диспетчер
func NewLogDispatcher(log *utils.Logger) *LogDispatcher {
	if log == nil {
		log = utils.GetGlobalLogger()
	}
	return &LogDispatcher{log: log.WithComponent("risk_actions")}
}

// EmergencyStop логирует сигнал экстренной остановки
func (d *LogDispatcher) EmergencyStop() {
	d.log.Error("EMERGENCY STOP signal dispatched")
}

// ReduceExposure логирует сигнал снижения экспозиции
func (d *LogDispatcher) ReduceExposure(factor float64) {
	d.log.Warn("reduce exposure signal dispatched",
		utils.Float64("factor", factor))
}

// ReducePositionSizes логирует сигнал снижения размеров позиций
func (d *LogDispatcher) ReducePositionSizes(factor float64) {
	d.log.Warn("reduce position sizes signal dispatched",
		utils.Float64("factor", factor))
}
