package utils

import "testing"

// ============================================================
// ValidateSymbol
// ============================================================

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		name    string
		symbol  string
		wantErr bool
	}{
		{"валидный символ", "BTCUSDT", false},
		{"символ с цифрами", "1000PEPEUSDT", false},
		{"короткий валидный", "BT", false},
		{"пустой символ", "", true},
		{"слишком короткий", "B", true},
		{"слишком длинный", "AAAAAAAAAAAAAAAAAAAAA", true},
		{"строчные буквы", "btcusdt", true},
		{"спецсимволы", "BTC-USDT", true},
		{"пробел", "BTC USDT", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSymbol(tt.symbol)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSymbol(%q) error = %v, ожидали ошибку: %v", tt.symbol, err, tt.wantErr)
			}
		})
	}
}

// ============================================================
// ValidateSide
// ============================================================

func TestValidateSide(t *testing.T) {
	tests := []struct {
		name    string
		side    string
		wantErr bool
	}{
		{"long", "long", false},
		{"short", "short", false},
		{"регистр не важен", "LONG", false},
		{"пустая сторона", "", true},
		{"неизвестная сторона", "buy", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSide(tt.side)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSide(%q) error = %v, ожидали ошибку: %v", tt.side, err, tt.wantErr)
			}
		})
	}
}

// ============================================================
// Числовые валидаторы
// ============================================================

func TestValidateQuantity(t *testing.T) {
	if err := ValidateQuantity(0.001); err != nil {
		t.Errorf("положительный объем не должен давать ошибку: %v", err)
	}
	if err := ValidateQuantity(0); err == nil {
		t.Error("нулевой объем должен давать ошибку")
	}
	if err := ValidateQuantity(-1); err == nil {
		t.Error("отрицательный объем должен давать ошибку")
	}
}

func TestValidatePrice(t *testing.T) {
	if err := ValidatePrice(100.5); err != nil {
		t.Errorf("положительная цена не должна давать ошибку: %v", err)
	}
	if err := ValidatePrice(0); err == nil {
		t.Error("нулевая цена должна давать ошибку")
	}
}

func TestValidateLeverage(t *testing.T) {
	if err := ValidateLeverage(1); err != nil {
		t.Errorf("плечо 1 допустимо: %v", err)
	}
	if err := ValidateLeverage(20); err != nil {
		t.Errorf("плечо 20 допустимо: %v", err)
	}
	if err := ValidateLeverage(0.5); err == nil {
		t.Error("плечо меньше 1 должно давать ошибку")
	}
}

func TestValidatePercentage(t *testing.T) {
	tests := []struct {
		name    string
		p       float64
		wantErr bool
	}{
		{"50 процентов", 50, false},
		{"100 процентов", 100, false},
		{"ноль", 0, true},
		{"отрицательный", -10, true},
		{"больше 100", 100.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePercentage(tt.p)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePercentage(%f) error = %v, ожидали ошибку: %v", tt.p, err, tt.wantErr)
			}
		})
	}
}
