package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"cylindertrack/internal/config"
	"cylindertrack/internal/logging"
)

func newTestServer(t *testing.T, driver string) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Server.DevMode = true
	cfg.Data.DataDir = t.TempDir()
	cfg.Storage.Driver = driver

	s, err := NewServer(cfg, logging.Discard())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestServer_StatusPerDriver(t *testing.T) {
	for _, driver := range []string{config.DriverMemory, config.DriverFile, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			s := newTestServer(t, driver)

			req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Fatalf("status: %d %s", w.Code, w.Body.String())
			}

			var resp struct {
				Store         string  `json:"store"`
				CylinderPrice float64 `json:"cylinder_price"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Store != driver || resp.CylinderPrice != 877.5 {
				t.Fatalf("unexpected status: %+v", resp)
			}

			// 启动时已写入默认设置
			if _, err := s.GetStore().Get("settings"); err != nil {
				t.Fatalf("settings not initialised: %v", err)
			}
		})
	}
}

func TestServer_NoRouteIsJSON404(t *testing.T) {
	s := newTestServer(t, config.DriverMemory)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	s := newTestServer(t, config.DriverMemory)

	req := httptest.NewRequest(http.MethodOptions, "/api/deliveries", nil)
	req.Header.Set("Origin", "http://localhost:19006")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("missing allow-origin header")
	}
}

func TestServer_SaveNowWritesBackup(t *testing.T) {
	s := newTestServer(t, config.DriverMemory)

	body := bytes.NewBufferString(`{"name":"Ravi"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/employees", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create employee: %d %s", w.Code, w.Body.String())
	}

	if err := s.SaveNow(); err != nil {
		t.Fatalf("SaveNow: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(s.dataDir, "backups", "backup-*.json"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one backup file, got %v (%v)", matches, err)
	}

	raw, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	var dump map[string]json.RawMessage
	if err := json.Unmarshal(raw, &dump); err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if _, ok := dump["employees"]; !ok {
		t.Fatalf("backup missing employees key: %v", dump)
	}
}
