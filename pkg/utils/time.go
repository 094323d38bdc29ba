package utils

import (
	"time"
)

// time.go - утилиты для работы со временем
//
// Назначение:
// Вспомогательные функции для временных операций, используемые
// для расчета дневного/недельного PnL и очистки устаревших данных.
//
// Функции:
// - GetDayStart: начало текущего дня (00:00:00 UTC)
// - GetWeekStart: начало текущей недели (понедельник 00:00:00 UTC)
// - SameDay: проверка совпадения календарной даты
// - TimeRange: временной диапазон с проверкой принадлежности

// ============================================================
// Границы периодов
// ============================================================

// GetDayStart возвращает начало текущего дня (00:00:00) в UTC
func GetDayStart() time.Time {
	return GetDayStartFrom(time.Now().UTC())
}

// GetDayStartFrom возвращает начало дня для указанного времени в UTC
func GetDayStartFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GetWeekStart возвращает начало текущей недели (понедельник 00:00:00) в UTC
func GetWeekStart() time.Time {
	return GetWeekStartFrom(time.Now().UTC())
}

// GetWeekStartFrom возвращает ближайший прошедший понедельник (00:00:00 UTC)
// для указанного времени. Для понедельника возвращает начало этого же дня.
func GetWeekStartFrom(t time.Time) time.Time {
	t = t.UTC()
	// В Go воскресенье = 0, приводим к ISO (понедельник = 0)
	weekday := int(t.Weekday())
	offset := (weekday + 6) % 7
	dayStart := GetDayStartFrom(t)
	return dayStart.AddDate(0, 0, -offset)
}

// SameDay проверяет совпадение календарной даты (UTC) двух моментов
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ============================================================
// Временные диапазоны
// ============================================================

// TimeRange представляет временной диапазон [From, To)
type TimeRange struct {
	From time.Time
	To   time.Time
}

// Contains проверяет принадлежность момента диапазону
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.From) && t.Before(tr.To)
}

// CurrentDay возвращает диапазон текущего дня в UTC
func CurrentDay() TimeRange {
	start := GetDayStart()
	return TimeRange{From: start, To: start.AddDate(0, 0, 1)}
}

// CurrentWeek возвращает диапазон текущей недели в UTC
func CurrentWeek() TimeRange {
	start := GetWeekStart()
	return TimeRange{From: start, To: start.AddDate(0, 0, 7)}
}
