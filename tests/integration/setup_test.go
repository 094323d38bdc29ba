// Package integration contains integration tests for the risk-control server.
//
// These tests verify the complete HTTP request/response cycle through all
// layers: Handler → Ledger/Engine → State store. State is persisted to a
// temporary file store, no external services are required.
package integration

import (
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"riskcore/internal/api"
	"riskcore/internal/ledger"
	"riskcore/internal/models"
	"riskcore/internal/monitor"
	"riskcore/internal/risk"
	"riskcore/internal/state"
	"riskcore/internal/websocket"
	"riskcore/pkg/retry"
	"riskcore/pkg/utils"
)

// TestServer объединяет все компоненты, поднятые для интеграционного теста
type TestServer struct {
	Server  *httptest.Server
	Ledger  *ledger.PositionLedger
	Engine  *risk.Engine
	Hub     *websocket.Hub
	Monitor *monitor.Monitor
	Store   *state.FileStore

	t *testing.T
}

// SetupTestServer поднимает полный стек поверх файлового хранилища во временной директории
func SetupTestServer(t *testing.T) *TestServer {
	t.Helper()

	log := utils.InitLogger(utils.LogConfig{Level: "error", Format: "console"})

	store, err := state.NewFileStore(filepath.Join(t.TempDir(), "state.json"), nil, log)
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}

	posLedger := ledger.New(ledger.DefaultConfig(), log)
	engine := risk.NewEngine(models.DefaultRiskLimits(), models.DefaultMonitoringSettings(), log)

	hub := websocket.NewHub()
	go hub.Run()
	engine.SetAlertSink(hub)

	mon := monitor.New(posLedger, engine, store, monitor.Config{
		Interval:       50 * time.Millisecond,
		StopTimeout:    2 * time.Second,
		AlertRetention: time.Hour,
		RetryConfig:    retry.Config{MaxRetries: 2, InitialDelay: time.Millisecond, Multiplier: 2},
	}, log)
	mon.Start()

	router := api.SetupRoutes(&api.Dependencies{
		Engine: engine,
		Ledger: posLedger,
		Hub:    hub,
	})

	ts := &TestServer{
		Server:  httptest.NewServer(router),
		Ledger:  posLedger,
		Engine:  engine,
		Hub:     hub,
		Monitor: mon,
		Store:   store,
		t:       t,
	}
	return ts
}

// Cleanup останавливает все компоненты тестового сервера
func (ts *TestServer) Cleanup() {
	ts.Monitor.Stop()
	ts.Hub.Stop()
	ts.Server.Close()
}
