package risk

import "riskcore/internal/models"

// Exposure - снимок экспозиции открытых позиций, ключ "SYMBOL_side".
// Риск-движок получает его снаружи и не заглядывает внутрь леджера.
type Exposure map[string]models.ExposureEntry

// TotalMargin возвращает суммарную используемую маржу
func (e Exposure) TotalMargin() float64 {
	var sum float64
	for _, entry := range e {
		sum += entry.MarginUsed
	}
	return sum
}

// TotalNotional возвращает суммарный номинал
func (e Exposure) TotalNotional() float64 {
	var sum float64
	for _, entry := range e {
		sum += entry.Notional
	}
	return sum
}

// CorrelationEstimator оценивает риск ко-движения портфеля в [0, 1].
//
// Реальная оценка корреляции требует истории доходностей по инструментам
// и остается за пределами ядра, поэтому интерфейс подключаемый.
type CorrelationEstimator interface {
	Estimate(exposure Exposure) float64
}

// FixedEstimator возвращает постоянное значение корреляции.
// Используется по умолчанию (0.0 - корреляция не оценивается).
type FixedEstimator struct {
	Value float64
}

// Estimate возвращает сконфигурированную константу
func (f FixedEstimator) Estimate(_ Exposure) float64 {
	return f.Value
}
