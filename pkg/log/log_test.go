package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ezoic/phishing-classifier/pkg/errors"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestToLogLevelPanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	ToLogLevel("loud")
}

func TestZerologProvider(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProviderWithWriter(&buf, LevelInfo)

	logger := p.GetLoggerWithName("StandardScaler").With(ModelNameKey, "StandardScaler")
	logger.Debug("hidden")
	logger.Info("fit completed", SamplesKey, 8, FeaturesKey, 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["message"] != "fit completed" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry[ComponentKey] != "StandardScaler" {
		t.Errorf("component = %v", entry[ComponentKey])
	}
	if entry[SamplesKey] != float64(8) {
		t.Errorf("samples = %v", entry[SamplesKey])
	}

	if logger.Enabled(context.Background(), LevelDebug) {
		t.Error("debug should be disabled at info level")
	}
	p.SetLevel(LevelDebug)
	if !p.GetLogger().Enabled(context.Background(), LevelDebug) {
		t.Error("debug should be enabled after SetLevel")
	}
}

func TestZerologErrorField(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProviderWithWriter(&buf, LevelDebug)

	p.GetLogger().Error("save failed", errors.New("disk full"), PathKey, "model.gob")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["error"] != "disk full" {
		t.Errorf("error = %v", entry["error"])
	}
	if entry[PathKey] != "model.gob" {
		t.Errorf("path = %v", entry[PathKey])
	}
}

func TestBridgeWarnings(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProviderWithWriter(&buf, LevelInfo)
	p.BridgeWarnings()
	defer errors.SetZerologWarnFunc(nil)

	errors.Warn(errors.NewConvergenceWarning("lbfgs", 100, ""))

	out := buf.String()
	if !strings.Contains(out, `"type":"ConvergenceWarning"`) {
		t.Errorf("warning not embedded: %s", out)
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("warning level missing: %s", out)
	}
}

func TestTestLogger(t *testing.T) {
	provider, buf := NewTestLoggerProvider(LevelInfo)
	logger := provider.GetLoggerWithName("Pipeline")

	logger.Debug("not captured")
	logger.Info("step fitted", "step", "scaler", SamplesKey, 4)
	logger.Error("step failed", errors.New("boom"))

	entries, err := provider.Logger().GetLogEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %s", len(entries), buf.String())
	}
	if !provider.Logger().ContainsField(ComponentKey, "Pipeline") {
		t.Error("component field missing")
	}
	if !provider.Logger().ContainsField(SamplesKey, float64(4)) {
		t.Error("samples field missing")
	}
	if !provider.Logger().ContainsField(ErrorKey, "boom") {
		t.Error("error field missing")
	}
	if provider.Logger().ContainsMessage("not captured") {
		t.Error("debug record should be filtered")
	}
}
