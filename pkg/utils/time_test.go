package utils

import (
	"testing"
	"time"
)

// ============================================================
// Тесты границ периодов
// ============================================================

func TestGetDayStartFrom(t *testing.T) {
	input := time.Date(2025, 6, 15, 14, 30, 45, 123, time.UTC)
	expected := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	got := GetDayStartFrom(input)
	if !got.Equal(expected) {
		t.Errorf("GetDayStartFrom = %v, ожидали %v", got, expected)
	}
}

func TestGetDayStartFrom_NonUTC(t *testing.T) {
	// Время в другой зоне должно приводиться к UTC
	loc := time.FixedZone("UTC+3", 3*3600)
	input := time.Date(2025, 6, 15, 1, 0, 0, 0, loc) // 2025-06-14 22:00 UTC
	expected := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)

	got := GetDayStartFrom(input)
	if !got.Equal(expected) {
		t.Errorf("GetDayStartFrom = %v, ожидали %v", got, expected)
	}
}

func TestGetWeekStartFrom(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{
			name:     "wednesday",
			input:    time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC), // среда
			expected: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),  // понедельник
		},
		{
			name:     "monday stays monday",
			input:    time.Date(2025, 6, 16, 23, 59, 0, 0, time.UTC),
			expected: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "sunday goes back six days",
			input:    time.Date(2025, 6, 22, 5, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetWeekStartFrom(tt.input)
			if !got.Equal(tt.expected) {
				t.Errorf("GetWeekStartFrom = %v, ожидали %v", got, tt.expected)
			}
		})
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, 6, 15, 0, 0, 1, 0, time.UTC)
	b := time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC)
	c := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)

	if !SameDay(a, b) {
		t.Error("SameDay должен вернуть true для одного дня")
	}
	if SameDay(b, c) {
		t.Error("SameDay должен вернуть false для разных дней")
	}
}

// ============================================================
// Тесты TimeRange
// ============================================================

func TestTimeRange_Contains(t *testing.T) {
	tr := TimeRange{
		From: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name     string
		input    time.Time
		expected bool
	}{
		{"inside", time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC), true},
		{"at From (inclusive)", tr.From, true},
		{"at To (exclusive)", tr.To, false},
		{"before", time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tr.Contains(tt.input); got != tt.expected {
				t.Errorf("Contains(%v) = %v, ожидали %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCurrentDay(t *testing.T) {
	tr := CurrentDay()
	if !tr.Contains(time.Now().UTC()) {
		t.Error("CurrentDay должен содержать текущий момент")
	}
	if tr.To.Sub(tr.From) != 24*time.Hour {
		t.Errorf("диапазон дня должен быть 24 часа, получили %v", tr.To.Sub(tr.From))
	}
}

func TestCurrentWeek(t *testing.T) {
	tr := CurrentWeek()
	if !tr.Contains(time.Now().UTC()) {
		t.Error("CurrentWeek должен содержать текущий момент")
	}
	if tr.From.Weekday() != time.Monday {
		t.Errorf("неделя должна начинаться с понедельника, получили %v", tr.From.Weekday())
	}
}
