package utils

// logger.go - настройка логирования
//
// Назначение:
// Инициализация и настройка структурированного логирования на базе zap.
//
// Функции:
// - InitLogger: создать и настроить logger
//   * Выбор формата (JSON, text)
//   * Уровни: DEBUG, INFO, WARN, ERROR, FATAL
//   * Вывод в файл или stdout
// - Глобальный логгер: InitGlobalLogger / GetGlobalLogger / L
// - Доменные конструкторы полей: Symbol, Side, Price, PNL, AlertType и др.

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig - конфигурация логгера
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json, text
	Output      string // путь к файлу; пусто = stdout
	Development bool   // режим разработки (подробный вывод, DPanic)
}

// Logger оборачивает zap.Logger и его sugar-вариант
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

var (
	globalLogger *Logger
	globalMu     sync.Mutex
)

// parseLevel преобразует строку уровня в zapcore.Level.
// Неизвестные значения приводят к уровню info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger создает и настраивает новый Logger.
//
// При недоступном файле вывода не паникует, а переключается на stderr.
func InitLogger(cfg LogConfig) *Logger {
	level := parseLevel(cfg.Level)

	var encCfg zapcore.EncoderConfig
	if cfg.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "text" {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	var sink zapcore.WriteSyncer
	switch {
	case cfg.Output == "":
		sink = zapcore.AddSync(os.Stdout)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			// Fallback на stderr - логирование должно работать всегда
			sink = zapcore.AddSync(os.Stderr)
		} else {
			sink = zapcore.AddSync(f)
		}
	}

	core := zapcore.NewCore(encoder, sink, level)

	opts := []zap.Option{}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	zl := zap.New(core, opts...)
	return &Logger{
		Logger: zl,
		sugar:  zl.Sugar(),
	}
}

// InitGlobalLogger инициализирует глобальный логгер
func InitGlobalLogger(cfg LogConfig) *Logger {
	logger := InitLogger(cfg)
	SetGlobalLogger(logger)
	return logger
}

// SetGlobalLogger устанавливает глобальный логгер
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// GetGlobalLogger возвращает глобальный логгер.
// При первом вызове без инициализации создает логгер по умолчанию.
func GetGlobalLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// L - короткий доступ к глобальному логгеру
func L() *Logger {
	return GetGlobalLogger()
}

// With возвращает новый Logger с дополнительными полями
func (l *Logger) With(fields ...zap.Field) *Logger {
	zl := l.Logger.With(fields...)
	return &Logger{
		Logger: zl,
		sugar:  zl.Sugar(),
	}
}

// Sugar возвращает sugar-вариант логгера
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// WithComponent добавляет имя компонента (ledger, risk_engine, monitor, api)
func (l *Logger) WithComponent(name string) *Logger {
	return l.With(Component(name))
}

// WithSymbol добавляет торговый символ
func (l *Logger) WithSymbol(symbol string) *Logger {
	return l.With(Symbol(symbol))
}

// WithSide добавляет сторону позиции
func (l *Logger) WithSide(side string) *Logger {
	return l.With(Side(side))
}

// WithAlertType добавляет тип алерта
func (l *Logger) WithAlertType(alertType string) *Logger {
	return l.With(AlertType(alertType))
}

// ============ Глобальные функции логирования ============

// Debug логирует через глобальный логгер
func Debug(msg string, fields ...zap.Field) { GetGlobalLogger().Logger.Debug(msg, fields...) }

// Info логирует через глобальный логгер
func Info(msg string, fields ...zap.Field) { GetGlobalLogger().Logger.Info(msg, fields...) }

// Warn логирует через глобальный логгер
func Warn(msg string, fields ...zap.Field) { GetGlobalLogger().Logger.Warn(msg, fields...) }

// Error логирует через глобальный логгер
func Error(msg string, fields ...zap.Field) { GetGlobalLogger().Logger.Error(msg, fields...) }

// Debugf - форматированное логирование через sugar
func Debugf(format string, args ...interface{}) { GetGlobalLogger().sugar.Debugf(format, args...) }

// Infof - форматированное логирование через sugar
func Infof(format string, args ...interface{}) { GetGlobalLogger().sugar.Infof(format, args...) }

// Warnf - форматированное логирование через sugar
func Warnf(format string, args ...interface{}) { GetGlobalLogger().sugar.Warnf(format, args...) }

// Errorf - форматированное логирование через sugar
func Errorf(format string, args ...interface{}) { GetGlobalLogger().sugar.Errorf(format, args...) }

// ============ Доменные конструкторы полей ============

// Component - имя компонента системы
func Component(name string) zap.Field { return zap.String("component", name) }

// Symbol - торговый символ (BTCUSDT)
func Symbol(symbol string) zap.Field { return zap.String("symbol", symbol) }

// Side - сторона позиции (long, short)
func Side(side string) zap.Field { return zap.String("side", side) }

// Price - цена
func Price(price float64) zap.Field { return zap.Float64("price", price) }

// Quantity - объем позиции
func Quantity(qty float64) zap.Field { return zap.Float64("quantity", qty) }

// Leverage - используемое плечо
func Leverage(lev float64) zap.Field { return zap.Float64("leverage", lev) }

// PNL - прибыль/убыток
func PNL(pnl float64) zap.Field { return zap.Float64("pnl", pnl) }

// Balance - баланс счета
func Balance(balance float64) zap.Field { return zap.Float64("balance", balance) }

// AlertID - идентификатор алерта
func AlertID(id string) zap.Field { return zap.String("alert_id", id) }

// AlertType - тип алерта (drawdown, daily_loss, ...)
func AlertType(t string) zap.Field { return zap.String("alert_type", t) }

// Severity - важность алерта
func Severity(s string) zap.Field { return zap.String("severity", s) }

// Reason - причина закрытия/действия
func Reason(reason string) zap.Field { return zap.String("reason", reason) }

// State - состояние компонента
func State(state string) zap.Field { return zap.String("state", state) }

// Latency - латентность в миллисекундах
func Latency(ms float64) zap.Field { return zap.Float64("latency_ms", ms) }

// RequestID - идентификатор HTTP запроса
func RequestID(id string) zap.Field { return zap.String("request_id", id) }

// ============ Переэкспорт стандартных конструкторов ============

// String - строковое поле
func String(key, value string) zap.Field { return zap.String(key, value) }

// Int - целочисленное поле
func Int(key string, value int) zap.Field { return zap.Int(key, value) }

// Int64 - поле int64
func Int64(key string, value int64) zap.Field { return zap.Int64(key, value) }

// Float64 - поле float64
func Float64(key string, value float64) zap.Field { return zap.Float64(key, value) }

// Bool - булево поле
func Bool(key string, value bool) zap.Field { return zap.Bool(key, value) }

// Err - поле ошибки
func Err(err error) zap.Field { return zap.Error(err) }

// Any - произвольное поле
func Any(key string, value interface{}) zap.Field { return zap.Any(key, value) }

// fieldsToInterface преобразует zap-поля в пары ключ/значение для sugar API
func fieldsToInterface(fields []zap.Field) []interface{} {
	args := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key)
		switch {
		case f.Interface != nil:
			args = append(args, f.Interface)
		case f.String != "":
			args = append(args, f.String)
		default:
			args = append(args, f.Integer)
		}
	}
	return args
}
