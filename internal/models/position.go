package models

import (
	"strings"
	"time"
)

// Position представляет одну открытую или закрытую позицию
type Position struct {
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"` // long, short
	Quantity      float64   `json:"quantity"`
	EntryPrice    float64   `json:"entry_price"`
	CurrentPrice  float64   `json:"current_price"`
	StopLoss      float64   `json:"stop_loss"`
	TakeProfit    float64   `json:"take_profit"`
	Leverage      float64   `json:"leverage"`
	MarginUsed    float64   `json:"margin_used"`
	UnrealizedPnl float64   `json:"unrealized_pnl"`
	RealizedPnl   float64   `json:"realized_pnl"`
	Status        string    `json:"status"` // open, partial, closed
	EntryTime     time.Time `json:"entry_time"`
	LastUpdate    time.Time `json:"last_update"`
	ScaleInCount  int       `json:"scale_in_count"` // количество доливок (scale-in)
	MaxDrawdown   float64   `json:"max_drawdown"`   // худший нереализованный убыток (магнитуда)
	MaxProfit     float64   `json:"max_profit"`     // лучшая нереализованная прибыль
	CloseReason   string    `json:"close_reason,omitempty"`
}

// Key возвращает уникальный ключ позиции (symbol, side)
func (p *Position) Key() string {
	return PositionKey(p.Symbol, p.Side)
}

// NotionalValue возвращает номинальную стоимость позиции по цене входа
func (p *Position) NotionalValue() float64 {
	return p.Quantity * p.EntryPrice
}

// HoldTimeHours возвращает время удержания позиции в часах
func (p *Position) HoldTimeHours() float64 {
	return p.LastUpdate.Sub(p.EntryTime).Hours()
}

// PositionKey строит ключ вида "BTCUSDT_long".
// Регистр нормализуется, чтобы поиск не зависел от написания в запросе.
func PositionKey(symbol, side string) string {
	return strings.ToUpper(symbol) + "_" + strings.ToLower(side)
}

// PositionSpec - входные данные для открытия позиции
type PositionSpec struct {
	Symbol       string  `json:"symbol"`
	Side         string  `json:"side"`
	Quantity     float64 `json:"quantity"`
	EntryPrice   float64 `json:"entry_price"`
	CurrentPrice float64 `json:"current_price"`
	StopLoss     float64 `json:"stop_loss"`
	TakeProfit   float64 `json:"take_profit"`
	Leverage     float64 `json:"leverage"`
	MarginUsed   float64 `json:"margin_used"`
}

// PricePoint - точка истории цены/PnL позиции
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Pnl       float64   `json:"pnl"`
}

// Стороны позиции
const (
	SideLong  = "long"
	SideShort = "short"
)

// Статусы позиции
const (
	StatusOpen    = "open"
	StatusPartial = "partial"
	StatusClosed  = "closed"
)

// Причины закрытия позиции
const (
	CloseReasonManual       = "manual"
	CloseReasonStopLoss     = "stop_loss"
	CloseReasonTakeProfit   = "take_profit"
	CloseReasonPartialClose = "partial_close"
)

// Политики обработки дубликата ключа (symbol, side) при добавлении
const (
	DuplicateOverwrite = "overwrite" // новая позиция замещает старую
	DuplicateReject    = "reject"    // добавление отклоняется с ошибкой
	DuplicateMerge     = "merge"     // доливка: объемы суммируются, цена входа усредняется
)
