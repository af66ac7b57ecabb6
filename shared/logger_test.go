package shared

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerCritical(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := WrapLogger("guest", zap.New(core))

	l.Critical("kept")

	if logs.Len() != 1 {
		t.Fatalf("Expected one entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Level != zapcore.ErrorLevel || entry.Message != "kept" || entry.ContextMap()["critical"] != true {
		t.Errorf("Unexpected entry %+v", entry)
	}
}

func TestLoggerContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := WrapLogger("api", zap.New(core))

	l.WithRequest("req-1").Info("a")
	l.WithStage("transform").Info("b")
	l.WithConnection("").Info("c")
	l.Security("d")

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(entries))
	}
	if entries[0].ContextMap()["request_id"] != "req-1" {
		t.Errorf("Missing request id: %+v", entries[0].ContextMap())
	}
	if entries[1].ContextMap()["stage"] != "transform" {
		t.Errorf("Missing stage: %+v", entries[1].ContextMap())
	}
	if len(entries[2].Context) != 0 {
		t.Errorf("Expected no fields for empty remote addr: %+v", entries[2].Context)
	}
	if entries[3].Level != zapcore.WarnLevel || entries[3].ContextMap()["security_event"] != true {
		t.Errorf("Unexpected security entry %+v", entries[3])
	}
	if l.ServiceName() != "api" {
		t.Errorf("Unexpected service name %s", l.ServiceName())
	}
}

func TestNewLoggerModes(t *testing.T) {
	for _, cfg := range []LoggerConfig{
		{ServiceName: "api"},
		{ServiceName: "api", Development: true},
		{ServiceName: "guest", GuestMode: true},
	} {
		l, err := NewLogger(cfg)
		if err != nil {
			t.Fatalf("NewLogger(%+v) failed: %v", cfg, err)
		}
		if l.ServiceName() != cfg.ServiceName {
			t.Errorf("Expected %s, got %s", cfg.ServiceName, l.ServiceName())
		}
	}
}
