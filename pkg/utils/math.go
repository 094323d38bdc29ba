package utils

import (
	"math"
	"sort"
)

// math.go - математические утилиты для расчета риск-метрик
//
// Назначение:
// Вспомогательные математические функции для PnL и статистики.
// Все функции являются чистыми (pure functions) без побочных эффектов.
//
// Функции:
// - CalculatePNL: нереализованный PnL позиции с учетом плеча
// - DrawdownPct / MaxDrawdownPct: просадка от пика
// - Mean / StdDev: среднее и стандартное отклонение
// - Percentile: процентиль (для исторического VaR)
// - Diffs: последовательные изменения ряда

// CalculatePNL расчитывает прибыль/убыток по позиции.
//
// Формула:
//   - long:  (current − entry) × quantity × leverage
//   - short: (entry − current) × quantity × leverage
//
// Параметры:
//   - side: "long" или "short"
//   - entryPrice: цена входа
//   - currentPrice: текущая цена
//   - quantity: объём позиции
//   - leverage: плечо (значения < 1 трактуются как 1)
//
// Возвращает PnL в валюте котировки.
func CalculatePNL(side string, entryPrice, currentPrice, quantity, leverage float64) float64 {
	if leverage < 1 {
		leverage = 1
	}

	var pnl float64
	if side == "short" {
		pnl = (entryPrice - currentPrice) * quantity
	} else {
		pnl = (currentPrice - entryPrice) * quantity
	}

	return pnl * leverage
}

// DrawdownPct расчитывает просадку от пика в процентах.
//
// Возвращает:
//   - ((peak − current) / peak) × 100
//   - 0 если peak <= 0 (недостаточно данных - не ошибка)
func DrawdownPct(peak, current float64) float64 {
	if peak <= 0 {
		return 0
	}
	return (peak - current) / peak * 100
}

// MaxDrawdownPct расчитывает максимальную просадку по ряду балансов.
//
// Однопроходный алгоритм: поддерживаем бегущий пик и отслеживаем
// наибольшую относительную просадку от него.
func MaxDrawdownPct(balances []float64) float64 {
	if len(balances) == 0 {
		return 0
	}

	maxDD := 0.0
	peak := balances[0]
	for _, b := range balances {
		if b > peak {
			peak = b
			continue
		}
		if dd := DrawdownPct(peak, b); dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// Mean возвращает среднее арифметическое.
// Пустой ряд дает 0.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev возвращает стандартное отклонение (population).
// Ряды короче двух элементов дают 0.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// Percentile возвращает p-й процентиль ряда (линейная интерполяция).
//
// Параметры:
//   - values: исходный ряд (не модифицируется)
//   - p: процентиль в диапазоне [0, 100]
//
// Возвращает 0 для пустого ряда.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return values[0]
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}

	// Линейная интерполяция между соседними элементами
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Diffs возвращает последовательные изменения ряда: out[i] = in[i+1] − in[i].
// Ряды короче двух элементов дают пустой результат.
func Diffs(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		out = append(out, values[i]-values[i-1])
	}
	return out
}
