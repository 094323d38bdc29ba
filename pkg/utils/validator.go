package utils

import (
	"fmt"
	"strings"
)

// validator.go - валидация входных данных
//
// Назначение:
// Проверка корректности входных данных событий позиций и команд API.
//
// Функции:
// - ValidateSymbol: проверка формата символа (BTCUSDT)
// - ValidateSide: проверка стороны (long/short)
// - ValidateQuantity: проверка объема (> 0)
// - ValidatePrice: проверка цены (> 0)
// - ValidateLeverage: проверка плеча (>= 1)
// - ValidatePercentage: проверка процента (0 < p <= 100)
//
// Возвращают error с описанием проблемы или nil

// ValidateSymbol проверяет формат торгового символа.
// Допустимы только заглавные латинские буквы и цифры, длина 2-20.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if len(symbol) < 2 || len(symbol) > 20 {
		return fmt.Errorf("symbol length must be 2-20 characters, got %d", len(symbol))
	}
	for _, c := range symbol {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return fmt.Errorf("symbol must contain only uppercase letters and digits, got %q", symbol)
		}
	}
	return nil
}

// ValidateSide проверяет сторону позиции
func ValidateSide(side string) error {
	switch strings.ToLower(side) {
	case "long", "short":
		return nil
	default:
		return fmt.Errorf("side must be 'long' or 'short', got %q", side)
	}
}

// ValidateQuantity проверяет объем позиции
func ValidateQuantity(quantity float64) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %f", quantity)
	}
	return nil
}

// ValidatePrice проверяет цену
func ValidatePrice(price float64) error {
	if price <= 0 {
		return fmt.Errorf("price must be positive, got %f", price)
	}
	return nil
}

// ValidateLeverage проверяет плечо
func ValidateLeverage(leverage float64) error {
	if leverage < 1 {
		return fmt.Errorf("leverage must be at least 1, got %f", leverage)
	}
	return nil
}

// ValidatePercentage проверяет процент частичного закрытия
func ValidatePercentage(p float64) error {
	if p <= 0 || p > 100 {
		return fmt.Errorf("percentage must be in (0, 100], got %f", p)
	}
	return nil
}
