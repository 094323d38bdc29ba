package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"riskcore/internal/api"
	"riskcore/internal/config"
	"riskcore/internal/ledger"
	"riskcore/internal/models"
	"riskcore/internal/monitor"
	"riskcore/internal/repository"
	"riskcore/internal/risk"
	"riskcore/internal/state"
	"riskcore/internal/websocket"
	"riskcore/pkg/retry"
	"riskcore/pkg/utils"

	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера
	log := utils.InitGlobalLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	defer log.Sync()

	log.Info("starting riskcore server")

	// Хранилище снапшотов: Postgres либо файл
	store, db, err := initStore(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize snapshot store", utils.Err(err))
	}
	if db != nil {
		defer db.Close()
	}

	// Леджер позиций
	posLedger := ledger.New(ledger.Config{
		DuplicatePolicy:  cfg.Ledger.DuplicatePolicy,
		DustThreshold:    cfg.Ledger.DustThreshold,
		MaxHistoryLength: cfg.Ledger.MaxHistoryLength,
		AutoCloseOnSL:    cfg.Ledger.AutoCloseOnSL,
		AutoCloseOnTP:    cfg.Ledger.AutoCloseOnTP,
	}, log)

	// Риск-движок
	engine := risk.NewEngine(cfg.RiskLimits(), monitoringSettings(cfg), log)

	// WebSocket hub транслирует алерты и обновления клиентам
	hub := websocket.NewHub()
	go hub.Run()
	engine.SetAlertSink(hub)

	// Цикл мониторинга
	mon := monitor.New(posLedger, engine, store, monitor.Config{
		Interval:       cfg.Monitor.Interval,
		StopTimeout:    cfg.Monitor.StopTimeout,
		AlertRetention: cfg.Monitor.AlertRetention,
		RetryConfig: retry.Config{
			MaxRetries:   cfg.Monitor.MaxRetries,
			InitialDelay: cfg.Monitor.RetryBackoff,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, log)

	// Восстановление состояния из последнего снапшота
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := mon.LoadState(loadCtx); err != nil {
		loadCancel()
		log.Fatal("failed to restore state", utils.Err(err))
	}
	loadCancel()

	mon.Start()

	// Настройка HTTP роутера
	router := api.SetupRoutes(&api.Dependencies{
		Engine:         engine,
		Ledger:         posLedger,
		Hub:            hub,
		RateLimit:      cfg.Server.RateLimit,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		log.Info("server listening", utils.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", utils.Err(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Останавливаем мониторинг: финальный снапшот пишется внутри Stop
	mon.Stop()
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", utils.Err(err))
	}

	log.Info("server exited")
}

// monitoringSettings строит runtime настройки мониторинга из конфигурации
func monitoringSettings(cfg *config.Config) models.MonitoringSettings {
	settings := models.DefaultMonitoringSettings()
	settings.UpdateIntervalSec = int(cfg.Monitor.Interval.Seconds())
	settings.MaxHistoryLength = cfg.Ledger.MaxHistoryLength
	settings.AutoCloseOnSL = cfg.Ledger.AutoCloseOnSL
	settings.AutoCloseOnTP = cfg.Ledger.AutoCloseOnTP
	return settings
}

// initStore выбирает хранилище снапшотов: Postgres при DB_ENABLED, иначе файл
func initStore(cfg *config.Config, log *utils.Logger) (state.Store, *sql.DB, error) {
	if cfg.Database.Enabled {
		db, err := initDatabase(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("connected to database", utils.String("dsn", cfg.Database.DSNWithoutPassword()))

		repo, err := repository.NewSnapshotRepository(db, cfg.State.SnapshotName, log)
		if err != nil {
			db.Close()
			return nil, nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to ensure schema: %w", err)
		}

		return repo, db, nil
	}

	var key []byte
	if cfg.State.EncryptionKey != "" {
		key = []byte(cfg.State.EncryptionKey)
	}

	fileStore, err := state.NewFileStore(cfg.State.FilePath, key, log)
	if err != nil {
		return nil, nil, err
	}

	return fileStore, nil, nil
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
