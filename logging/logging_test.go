package logging

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/wricardo/mcp-training/cleaningrobot/robot/engine"
)

// testLogger creates a logger that writes to a buffer for testing
func testLogger() (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := New(Config{Level: "trace", Format: "json", Output: buf})
	return logger, buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"info", bolt.INFO},
		{"warn", bolt.WARN},
		{"WARNING", bolt.WARN},
		{"error", bolt.ERROR},
		{"unknown", bolt.INFO},
		{"", bolt.INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := parseLevel(tt.input); result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFields(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		expected []string
	}{
		{"run id", RunID("run-123"), []string{`"run_id":"run-123"`}},
		{"scenario", Scenario("lobby"), []string{`"scenario":"lobby"`}},
		{"status", Status(engine.Stuck), []string{`"status":"stuck"`}},
		{"battery", Battery(42), []string{`"battery":42`}},
		{"position", Position(engine.Position{X: 3, Y: 1}), []string{`"x":3`, `"y":1`}},
		{"command", Command(engine.TurnLeft), []string{`"command":"TL"`}},
		{"count", Count("visited", 7), []string{`"visited":7`}},
		{"duration", Duration(100 * time.Millisecond), []string{`"duration_ms":100`}},
		{"error", ErrorField(errors.New("test error")), []string{`"error":"test error"`}},
		{"component", Component("api"), []string{`"component":"api"`}},
		{"str", Str("key", "value"), []string{`"key":"value"`}},
		{
			"step",
			Step(engine.Step{
				Number:       4,
				Phase:        engine.PhaseBackoff,
				Strategy:     2,
				Command:      engine.Advance,
				To:           engine.Position{X: 1, Y: 2},
				Facing:       engine.East,
				BatteryAfter: 9,
			}),
			[]string{`"step":4`, `"phase":"backoff"`, `"strategy":2`, `"command":"A"`, `"battery":9`, `"success":false`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := testLogger()
			tt.field(logger.Info()).Msg("test")

			for _, want := range tt.expected {
				if !bytes.Contains(buf.Bytes(), []byte(want)) {
					t.Errorf("expected %s in output: %s", want, buf.String())
				}
			}
		})
	}
}

func TestErrorField_Nil(t *testing.T) {
	logger, buf := testLogger()
	ErrorField(nil)(logger.Info()).Msg("test")

	if bytes.Contains(buf.Bytes(), []byte(`"error"`)) {
		t.Errorf("expected no error field in output: %s", buf.String())
	}
}

func TestLogEvent(t *testing.T) {
	logger, buf := testLogger()

	NewEvent(logger.Info()).Add(RunID("run-1"), Scenario("hall")).Msg("run finished")

	for _, want := range []string{`"run_id":"run-1"`, `"scenario":"hall"`, "run finished"} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("expected %s in output: %s", want, buf.String())
		}
	}
}

func TestInitReplacesDefault(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Config{Level: "debug", Format: "json", Output: buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Debug().Add(Component("test")).Msg("hello")
	if !bytes.Contains(buf.Bytes(), []byte(`"component":"test"`)) {
		t.Errorf("expected default logger to write to the configured output: %s", buf.String())
	}
	if Get() == nil {
		t.Fatal("Get() returned nil")
	}
}
