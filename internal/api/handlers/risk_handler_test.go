package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"riskcore/internal/models"

	"github.com/gorilla/mux"
)

// ============ RiskHandler Tests ============

func TestRiskHandler_GetRiskReport(t *testing.T) {
	t.Run("returns report successfully", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		mockSvc.SetMetrics(models.RiskMetrics{
			CurrentDrawdownPct: 4.76,
			CurrentBalance:     10000,
			PeakBalance:        10500,
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/risk/report", nil)
		w := httptest.NewRecorder()

		handler.GetRiskReport(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response models.RiskReport
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response.RiskMetrics.CurrentDrawdownPct != 4.76 {
			t.Errorf("expected drawdown 4.76, got %f", response.RiskMetrics.CurrentDrawdownPct)
		}
		if response.ActiveAlerts == nil {
			t.Error("expected empty array, got null")
		}
	})

	t.Run("returns 500 when service is nil", func(t *testing.T) {
		handler := &RiskHandler{riskService: nil}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/risk/report", nil)
		w := httptest.NewRecorder()

		handler.GetRiskReport(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}
	})
}

func TestRiskHandler_UpdateLimits(t *testing.T) {
	t.Run("updates limits partially", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		body := strings.NewReader(`{"max_drawdown_pct": 12.5, "max_leverage": 10}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/risk/limits", body)
		w := httptest.NewRecorder()

		handler.UpdateLimits(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		var response models.RiskLimits
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if response.MaxDrawdownPct != 12.5 {
			t.Errorf("expected MaxDrawdownPct 12.5, got %f", response.MaxDrawdownPct)
		}
		if response.MaxLeverage != 10 {
			t.Errorf("expected MaxLeverage 10, got %f", response.MaxLeverage)
		}
		// Неуказанные поля не меняются
		if response.MaxDailyLossPct != 5.0 {
			t.Errorf("expected MaxDailyLossPct unchanged (5.0), got %f", response.MaxDailyLossPct)
		}
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		body := strings.NewReader(`{not json`)
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/risk/limits", body)
		w := httptest.NewRecorder()

		handler.UpdateLimits(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("rejects out of range values", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		tests := []struct {
			name string
			body string
		}{
			{"negative drawdown", `{"max_drawdown_pct": -5}`},
			{"drawdown over 100", `{"max_drawdown_pct": 150}`},
			{"correlation over 1", `{"max_correlation_risk": 1.5}`},
			{"leverage below 1", `{"max_leverage": 0.5}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodPatch, "/api/v1/risk/limits", strings.NewReader(tt.body))
				w := httptest.NewRecorder()

				handler.UpdateLimits(w, req)

				if w.Code != http.StatusBadRequest {
					t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
				}
			})
		}
	})
}

func TestRiskHandler_UpdateSettings(t *testing.T) {
	t.Run("merges with current settings", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		body := strings.NewReader(`{"alert_cooldown": 120}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/risk/settings", body)
		w := httptest.NewRecorder()

		handler.UpdateSettings(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}

		settings := mockSvc.GetSettings()
		if settings.AlertCooldownSec != 120 {
			t.Errorf("expected AlertCooldownSec 120, got %d", settings.AlertCooldownSec)
		}
		// Незатронутые поля сохраняют значения по умолчанию
		if settings.UpdateIntervalSec != 60 {
			t.Errorf("expected UpdateIntervalSec unchanged (60), got %d", settings.UpdateIntervalSec)
		}
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		body := strings.NewReader(`{"update_interval": 0}`)
		req := httptest.NewRequest(http.MethodPatch, "/api/v1/risk/settings", body)
		w := httptest.NewRecorder()

		handler.UpdateSettings(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestRiskHandler_GetAlerts(t *testing.T) {
	t.Run("returns only unresolved alerts", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		mockSvc.AddAlert(&models.RiskAlert{
			AlertID:   "ALERT_1",
			Type:      models.AlertTypeDrawdown,
			Severity:  models.SeverityHigh,
			CreatedAt: time.Now().UTC(),
		})
		mockSvc.AddAlert(&models.RiskAlert{
			AlertID:   "ALERT_2",
			Type:      models.AlertTypeLeverage,
			Severity:  models.SeverityMedium,
			CreatedAt: time.Now().UTC(),
			Resolved:  true,
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/risk/alerts", nil)
		w := httptest.NewRecorder()

		handler.GetAlerts(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response []*models.RiskAlert
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if len(response) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(response))
		}
		if response[0].AlertID != "ALERT_1" {
			t.Errorf("expected ALERT_1, got %s", response[0].AlertID)
		}
	})

	t.Run("returns empty array when no alerts", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/risk/alerts", nil)
		w := httptest.NewRecorder()

		handler.GetAlerts(w, req)

		if body := strings.TrimSpace(w.Body.String()); body != "[]" {
			t.Errorf("expected [], got %s", body)
		}
	})
}

func TestRiskHandler_ResolveAlert(t *testing.T) {
	t.Run("resolves existing alert", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		mockSvc.AddAlert(&models.RiskAlert{
			AlertID:   "ALERT_42",
			Type:      models.AlertTypeDailyLoss,
			Severity:  models.SeverityHigh,
			CreatedAt: time.Now().UTC(),
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/alerts/ALERT_42/resolve", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "ALERT_42"})
		w := httptest.NewRecorder()

		handler.ResolveAlert(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
	})

	t.Run("returns 404 for unknown alert", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/alerts/ALERT_404/resolve", nil)
		req = mux.SetURLVars(req, map[string]string{"id": "ALERT_404"})
		w := httptest.NewRecorder()

		handler.ResolveAlert(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}

func TestRiskHandler_UpdateBalance(t *testing.T) {
	t.Run("updates balance", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		body := strings.NewReader(`{"balance": 10250.75}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/balance", body)
		w := httptest.NewRecorder()

		handler.UpdateBalance(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		if mockSvc.Balance() != 10250.75 {
			t.Errorf("expected balance 10250.75, got %f", mockSvc.Balance())
		}
	})

	t.Run("rejects negative balance", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		body := strings.NewReader(`{"balance": -100}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/balance", body)
		w := httptest.NewRecorder()

		handler.UpdateBalance(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestRiskHandler_CheckRisk(t *testing.T) {
	t.Run("returns new alerts", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		mockSvc.checkAlerts = []*models.RiskAlert{
			{AlertID: "ALERT_1", Type: models.AlertTypeDrawdown, Severity: models.SeverityCritical},
		}

		req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/check", nil)
		w := httptest.NewRecorder()

		handler.CheckRisk(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response []*models.RiskAlert
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(response) != 1 {
			t.Errorf("expected 1 alert, got %d", len(response))
		}
	})

	t.Run("returns empty array when limits are respected", func(t *testing.T) {
		mockSvc := NewMockRiskService()
		handler := NewRiskHandler(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/risk/check", nil)
		w := httptest.NewRecorder()

		handler.CheckRisk(w, req)

		if body := strings.TrimSpace(w.Body.String()); body != "[]" {
			t.Errorf("expected [], got %s", body)
		}
	})
}
