package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLivenessAlwaysOK(t *testing.T) {
	c := New(0)
	status := c.CheckLiveness(context.Background())
	if status.Status != "ok" {
		t.Errorf("status = %q, want ok", status.Status)
	}
}

func TestReadinessAllHealthy(t *testing.T) {
	c := New(0)
	c.RegisterCheck("config", func(context.Context) error { return nil })
	c.RegisterCheck("audit", func(context.Context) error { return nil })

	status := c.CheckReadiness(context.Background())
	if status.Status != "ready" {
		t.Errorf("status = %q, want ready", status.Status)
	}
	if len(status.Checks) != 2 {
		t.Errorf("checks = %d, want 2", len(status.Checks))
	}
}

func TestReadinessDegradesOnFailure(t *testing.T) {
	c := New(0)
	c.RegisterCheck("config", func(context.Context) error { return nil })
	c.RegisterCheck("audit", func(context.Context) error { return errors.New("db locked") })

	status := c.CheckReadiness(context.Background())
	if status.Status != "degraded" {
		t.Errorf("status = %q, want degraded", status.Status)
	}
	if got := status.Checks["audit"]; got.Status != "unhealthy" || got.Message != "db locked" {
		t.Errorf("audit check = %+v", got)
	}
	if got := status.Checks["config"]; got.Status != "ok" {
		t.Errorf("config check = %+v", got)
	}
}

func TestReadinessTimesOutSlowCheck(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	status := c.CheckReadiness(context.Background())
	if status.Status != "degraded" {
		t.Errorf("status = %q, want degraded", status.Status)
	}
}

func TestReRegisterReplacesCheck(t *testing.T) {
	c := New(0)
	c.RegisterCheck("config", func(context.Context) error { return errors.New("boom") })
	c.RegisterCheck("config", func(context.Context) error { return nil })

	if status := c.CheckReadiness(context.Background()); status.Status != "ready" {
		t.Errorf("status = %q, want ready after replacement", status.Status)
	}
}

func TestReadinessHandler(t *testing.T) {
	c := New(0)
	c.RegisterCheck("audit", func(context.Context) error { return errors.New("down") })

	w := httptest.NewRecorder()
	c.ReadinessHandler().ServeHTTP(w, httptest.NewRequest("GET", "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when degraded", w.Code)
	}

	c.RegisterCheck("audit", func(context.Context) error { return nil })
	w = httptest.NewRecorder()
	c.ReadinessHandler().ServeHTTP(w, httptest.NewRequest("GET", "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when ready", w.Code)
	}
}

func TestLivenessHandlerMethods(t *testing.T) {
	c := New(0)
	w := httptest.NewRecorder()
	c.LivenessHandler().ServeHTTP(w, httptest.NewRequest("POST", "/healthz", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405 for POST", w.Code)
	}
}
