package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"riskcore/internal/models"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	State    StateConfig
	Risk     RiskConfig
	Ledger   LedgerConfig
	Monitor  MonitorConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port           int
	Host           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RateLimit      float64 // запросов в секунду для /api/v1 (0 = без лимита)
	RateLimitBurst float64
}

// DatabaseConfig - настройки подключения к БД.
// Postgres хранит снапшоты состояния; Enabled=false переключает
// персистентность на файловое хранилище.
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// StateConfig - настройки персистентности состояния
type StateConfig struct {
	FilePath      string // путь к файлу снапшота (файловое хранилище)
	SnapshotName  string // имя снапшота в таблице snapshots (Postgres)
	EncryptionKey string // 32 байта для AES-256-GCM; пусто = без шифрования
}

// RiskConfig - стартовые риск-лимиты
type RiskConfig struct {
	MaxDrawdownPct       float64
	MaxDailyLossPct      float64
	MaxWeeklyLossPct     float64
	MaxPositionSizePct   float64
	MaxCorrelationRisk   float64
	MaxLeverage          float64
	MinCapitalReservePct float64
}

// LedgerConfig - настройки леджера позиций
type LedgerConfig struct {
	DuplicatePolicy  string // overwrite, reject, merge
	DustThreshold    float64
	MaxHistoryLength int
	AutoCloseOnSL    bool
	AutoCloseOnTP    bool
}

// MonitorConfig - настройки цикла мониторинга
type MonitorConfig struct {
	Interval       time.Duration
	StopTimeout    time.Duration
	AlertRetention time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			RateLimit:      getEnvAsFloat("API_RATE_LIMIT", 0),
			RateLimitBurst: getEnvAsFloat("API_RATE_LIMIT_BURST", 0),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "riskcore"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		State: StateConfig{
			FilePath:      getEnv("STATE_FILE_PATH", "data/state.json"),
			SnapshotName:  getEnv("STATE_SNAPSHOT_NAME", "riskcore"),
			EncryptionKey: getEnv("STATE_ENCRYPTION_KEY", ""),
		},
		Risk: RiskConfig{
			MaxDrawdownPct:       getEnvAsFloat("RISK_MAX_DRAWDOWN_PCT", 10.0),
			MaxDailyLossPct:      getEnvAsFloat("RISK_MAX_DAILY_LOSS_PCT", 5.0),
			MaxWeeklyLossPct:     getEnvAsFloat("RISK_MAX_WEEKLY_LOSS_PCT", 15.0),
			MaxPositionSizePct:   getEnvAsFloat("RISK_MAX_POSITION_SIZE_PCT", 20.0),
			MaxCorrelationRisk:   getEnvAsFloat("RISK_MAX_CORRELATION", 0.7),
			MaxLeverage:          getEnvAsFloat("RISK_MAX_LEVERAGE", 20.0),
			MinCapitalReservePct: getEnvAsFloat("RISK_MIN_CAPITAL_RESERVE_PCT", 15.0),
		},
		Ledger: LedgerConfig{
			DuplicatePolicy:  getEnv("LEDGER_DUPLICATE_POLICY", models.DuplicateOverwrite),
			DustThreshold:    getEnvAsFloat("LEDGER_DUST_THRESHOLD", 0.001),
			MaxHistoryLength: getEnvAsInt("LEDGER_MAX_HISTORY", 1000),
			AutoCloseOnSL:    getEnvAsBool("LEDGER_AUTO_CLOSE_SL", true),
			AutoCloseOnTP:    getEnvAsBool("LEDGER_AUTO_CLOSE_TP", true),
		},
		Monitor: MonitorConfig{
			Interval:       getEnvAsDuration("MONITOR_INTERVAL", 60*time.Second),
			StopTimeout:    getEnvAsDuration("MONITOR_STOP_TIMEOUT", 10*time.Second),
			AlertRetention: getEnvAsDuration("MONITOR_ALERT_RETENTION", time.Hour),
			MaxRetries:     getEnvAsInt("MONITOR_MAX_RETRIES", 3),
			RetryBackoff:   getEnvAsDuration("MONITOR_RETRY_BACKOFF", 500*time.Millisecond),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate проверяет критичные параметры конфигурации
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Enabled {
		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required when DB_ENABLED is set")
		}
	}

	// Ключ шифрования опционален, но если задан - строго 32 байта для AES-256
	if key := c.State.EncryptionKey; key != "" && len(key) != 32 {
		return fmt.Errorf("STATE_ENCRYPTION_KEY must be exactly 32 bytes for AES-256, got %d", len(key))
	}

	switch c.Ledger.DuplicatePolicy {
	case models.DuplicateOverwrite, models.DuplicateReject, models.DuplicateMerge:
	default:
		return fmt.Errorf("LEDGER_DUPLICATE_POLICY must be one of overwrite, reject, merge; got %q", c.Ledger.DuplicatePolicy)
	}

	if c.Ledger.DustThreshold < 0 {
		return fmt.Errorf("LEDGER_DUST_THRESHOLD cannot be negative, got %f", c.Ledger.DustThreshold)
	}
	if c.Ledger.MaxHistoryLength < 1 {
		return fmt.Errorf("LEDGER_MAX_HISTORY must be positive, got %d", c.Ledger.MaxHistoryLength)
	}

	if c.Monitor.Interval <= 0 {
		return fmt.Errorf("MONITOR_INTERVAL must be positive, got %v", c.Monitor.Interval)
	}
	if c.Monitor.StopTimeout <= 0 {
		return fmt.Errorf("MONITOR_STOP_TIMEOUT must be positive, got %v", c.Monitor.StopTimeout)
	}
	if c.Monitor.MaxRetries < 0 {
		return fmt.Errorf("MONITOR_MAX_RETRIES cannot be negative, got %d", c.Monitor.MaxRetries)
	}
	if c.Monitor.MaxRetries > 10 {
		return fmt.Errorf("MONITOR_MAX_RETRIES should not exceed 10, got %d", c.Monitor.MaxRetries)
	}

	if err := validateRiskLimits(c.Risk); err != nil {
		return err
	}

	if c.Server.RateLimit < 0 {
		return fmt.Errorf("API_RATE_LIMIT cannot be negative, got %f", c.Server.RateLimit)
	}

	return nil
}

// validateRiskLimits проверяет диапазоны стартовых риск-лимитов
func validateRiskLimits(r RiskConfig) error {
	pcts := map[string]float64{
		"RISK_MAX_DRAWDOWN_PCT":        r.MaxDrawdownPct,
		"RISK_MAX_DAILY_LOSS_PCT":      r.MaxDailyLossPct,
		"RISK_MAX_WEEKLY_LOSS_PCT":     r.MaxWeeklyLossPct,
		"RISK_MAX_POSITION_SIZE_PCT":   r.MaxPositionSizePct,
		"RISK_MIN_CAPITAL_RESERVE_PCT": r.MinCapitalReservePct,
	}
	for name, v := range pcts {
		if v <= 0 || v > 100 {
			return fmt.Errorf("%s must be in (0, 100], got %f", name, v)
		}
	}

	if r.MaxCorrelationRisk <= 0 || r.MaxCorrelationRisk > 1 {
		return fmt.Errorf("RISK_MAX_CORRELATION must be in (0, 1], got %f", r.MaxCorrelationRisk)
	}
	if r.MaxLeverage < 1 {
		return fmt.Errorf("RISK_MAX_LEVERAGE must be at least 1, got %f", r.MaxLeverage)
	}

	return nil
}

// RiskLimits преобразует конфигурацию в модель лимитов
func (c *Config) RiskLimits() models.RiskLimits {
	return models.RiskLimits{
		MaxDrawdownPct:       c.Risk.MaxDrawdownPct,
		MaxDailyLossPct:      c.Risk.MaxDailyLossPct,
		MaxWeeklyLossPct:     c.Risk.MaxWeeklyLossPct,
		MaxPositionSizePct:   c.Risk.MaxPositionSizePct,
		MaxCorrelationRisk:   c.Risk.MaxCorrelationRisk,
		MaxLeverage:          c.Risk.MaxLeverage,
		MinCapitalReservePct: c.Risk.MinCapitalReservePct,
	}
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
