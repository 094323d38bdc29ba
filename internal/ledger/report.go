package ledger

import (
	"fmt"
	"time"

	"riskcore/internal/models"
)

// Количество последних закрытых позиций в отчете
const recentClosedLimit = 10

// Границы корзин размера позиции (по номиналу)
const (
	smallPositionMax  = 100.0
	mediumPositionMax = 1000.0
)

// GetPositionReport возвращает отчет о позициях.
//
// При пустом symbol - весь портфель с общей статистикой и статистикой
// по символам. При заданном symbol - только позиции этого символа.
func (l *PositionLedger) GetPositionReport(symbol string) *models.PositionReport {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := time.Now().UTC()

	if symbol != "" {
		report := &models.PositionReport{
			Symbol:        symbol,
			OpenPositions: make([]*models.Position, 0),
			RecentClosed:  make([]*models.Position, 0),
			Timestamp:     now,
		}
		for _, pos := range l.positions {
			if pos.Symbol == symbol {
				cp := *pos
				report.OpenPositions = append(report.OpenPositions, &cp)
			}
		}
		for i := len(l.closed) - 1; i >= 0 && len(report.RecentClosed) < recentClosedLimit; i-- {
			if l.closed[i].Symbol == symbol {
				cp := *l.closed[i]
				report.RecentClosed = append(report.RecentClosed, &cp)
			}
		}
		if stats, ok := l.symbolStats[symbol]; ok {
			report.SymbolStats = map[string]models.SymbolStats{symbol: stats}
		}
		return report
	}

	overall := l.overallStatsLocked()
	report := &models.PositionReport{
		OverallStats:  &overall,
		SymbolStats:   make(map[string]models.SymbolStats, len(l.symbolStats)),
		OpenPositions: make([]*models.Position, 0, len(l.positions)),
		RecentClosed:  make([]*models.Position, 0),
		Timestamp:     now,
	}
	for name, stats := range l.symbolStats {
		report.SymbolStats[name] = stats
	}
	for _, pos := range l.positions {
		cp := *pos
		report.OpenPositions = append(report.OpenPositions, &cp)
	}
	for i := len(l.closed) - 1; i >= 0 && len(report.RecentClosed) < recentClosedLimit; i-- {
		cp := *l.closed[i]
		report.RecentClosed = append(report.RecentClosed, &cp)
	}
	return report
}

// GetPerformanceAnalysis строит полный анализ торговли по журналу закрытых.
//
// Разрезы:
// - по символам
// - по часу входа (UTC, ключ "HH:00")
// - по размеру позиции (small < 100, medium < 1000, large)
// Плюс текстовые рекомендации по слабым местам.
func (l *PositionLedger) GetPerformanceAnalysis() *models.PerformanceAnalysis {
	l.mu.RLock()
	defer l.mu.RUnlock()

	analysis := &models.PerformanceAnalysis{
		SymbolAnalysis:     make(map[string]models.SymbolAnalysis),
		TimeAnalysis:       make(map[string]models.BucketAnalysis),
		SizeAnalysis:       make(map[string]models.BucketAnalysis),
		OverallPerformance: l.overallStatsLocked(),
		Recommendations:    make([]string, 0),
	}

	type acc struct {
		trades int
		wins   int
		pnl    float64
	}
	timeBuckets := make(map[string]*acc)
	sizeBuckets := make(map[string]*acc)

	for _, pos := range l.closed {
		win := pos.RealizedPnl > 0

		hourKey := fmt.Sprintf("%02d:00", pos.EntryTime.UTC().Hour())
		tb := timeBuckets[hourKey]
		if tb == nil {
			tb = &acc{}
			timeBuckets[hourKey] = tb
		}
		tb.trades++
		tb.pnl += pos.RealizedPnl
		if win {
			tb.wins++
		}

		sizeKey := sizeBucket(pos.NotionalValue())
		sb := sizeBuckets[sizeKey]
		if sb == nil {
			sb = &acc{}
			sizeBuckets[sizeKey] = sb
		}
		sb.trades++
		sb.pnl += pos.RealizedPnl
		if win {
			sb.wins++
		}
	}

	for key, a := range timeBuckets {
		analysis.TimeAnalysis[key] = bucketFromAcc(a.trades, a.wins, a.pnl)
	}
	for key, a := range sizeBuckets {
		analysis.SizeAnalysis[key] = bucketFromAcc(a.trades, a.wins, a.pnl)
	}

	for symbol, stats := range l.symbolStats {
		sa := models.SymbolAnalysis{
			TotalTrades: stats.TotalTrades,
			TotalPnl:    stats.TotalPnl,
			AvgHoldTime: stats.AvgHoldTime,
			MaxDrawdown: stats.MaxDrawdown,
			MaxProfit:   stats.MaxProfit,
		}
		if stats.TotalTrades > 0 {
			sa.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100
			sa.AvgPnlPerTrade = stats.TotalPnl / float64(stats.TotalTrades)
		}
		analysis.SymbolAnalysis[symbol] = sa
	}

	analysis.Recommendations = l.recommendationsLocked(analysis)
	return analysis
}

func sizeBucket(notional float64) string {
	switch {
	case notional < smallPositionMax:
		return "small"
	case notional < mediumPositionMax:
		return "medium"
	default:
		return "large"
	}
}

func bucketFromAcc(trades, wins int, pnl float64) models.BucketAnalysis {
	b := models.BucketAnalysis{
		Trades:   trades,
		TotalPnl: pnl,
	}
	if trades > 0 {
		b.WinRate = float64(wins) / float64(trades) * 100
		b.AvgPnl = pnl / float64(trades)
	}
	return b
}

// recommendationsLocked формирует рекомендации по слабым местам торговли.
// Вызывается под l.mu.
func (l *PositionLedger) recommendationsLocked(analysis *models.PerformanceAnalysis) []string {
	recs := make([]string, 0)
	overall := analysis.OverallPerformance

	if overall.ClosedPositions > 0 && overall.WinRate < 50 {
		recs = append(recs, fmt.Sprintf(
			"Win rate is %.1f%% - consider reviewing entry criteria", overall.WinRate))
	}
	if overall.AvgHoldTime > 24 {
		recs = append(recs, fmt.Sprintf(
			"Average hold time is %.1f hours - consider tighter exit rules", overall.AvgHoldTime))
	}
	if overall.MaxDrawdown > 10 {
		recs = append(recs, fmt.Sprintf(
			"Max position drawdown is %.2f - consider tighter stop losses", overall.MaxDrawdown))
	}
	for symbol, sa := range analysis.SymbolAnalysis {
		if sa.TotalTrades > 5 && sa.WinRate < 40 {
			recs = append(recs, fmt.Sprintf(
				"Poor performance on %s (win rate %.1f%% over %d trades) - consider excluding it",
				symbol, sa.WinRate, sa.TotalTrades))
		}
	}
	return recs
}
