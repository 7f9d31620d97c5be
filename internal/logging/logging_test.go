package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_JSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", "json", &buf)

	if logger.GetLevel() != logrus.WarnLevel {
		t.Fatalf("level = %v, want warn", logger.GetLevel())
	}

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %s", buf.String())
	}

	StorageFallback(logger, "ledger", "LoadDeliveriesByDate", "deliveries_2025-01-01", errors.New("disk full"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	if entry["module"] != "ledger" || entry["key"] != "deliveries_2025-01-01" {
		t.Errorf("unexpected fields: %v", entry)
	}
	if entry["error"] != "disk full" {
		t.Errorf("error field = %v", entry["error"])
	}
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	logger := New("loud", "text", nil)
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %v, want info", logger.GetLevel())
	}
}
