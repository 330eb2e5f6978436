package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wricardo/mcp-training/cleaningrobot/robot/document"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/engine"
)

const ringScenario = `{
	"map": [["S", "S", "S"], ["S", "C", "S"], ["S", "S", "S"]],
	"start": {"X": 0, "Y": 0, "facing": "N"},
	"commands": ["TR", "A", "C", "A", "C", "TR", "A", "C"],
	"battery": 80
}`

const islandScenario = `map:
  - [S, C, S]
start: {X: 0, Y: 0, facing: E}
commands: [A]
battery: 1
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func decode(t *testing.T, content string, format document.Format) *document.Document {
	t.Helper()
	doc, err := document.Decode([]byte(content), format)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return doc
}

func TestFile_Valid(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "ring.json", ringScenario)

	result := File(path)
	if !result.Valid {
		t.Fatalf("Expected valid scenario, got errors: %v", result.Errors)
	}
	if result.File != "ring.json" {
		t.Errorf("Expected file ring.json, got %s", result.File)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}
	if len(result.Info) == 0 {
		t.Error("Expected informational lines")
	}
	if result.Analysis == nil {
		t.Fatal("Expected analysis to be attached")
	}
}

func TestFile_Warnings(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "island.yaml", islandScenario)

	result := File(path)
	if !result.Valid {
		t.Fatalf("Warnings must not invalidate a scenario: %v", result.Errors)
	}

	joined := strings.Join(result.Warnings, "\n")
	for _, expected := range []string{
		"1/2 floor cells unreachable from start",
		"Unreachable: (2,0)",
		"script costs 2 but battery is 1",
	} {
		if !strings.Contains(joined, expected) {
			t.Errorf("Expected warning %q in:\n%s", expected, joined)
		}
	}
}

func TestFile_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		expected string
	}{
		{
			name:     "missing battery",
			file:     "nobattery.json",
			content:  `{"map": [["S"]], "start": {"X": 0, "Y": 0, "facing": "N"}, "commands": []}`,
			expected: "No battery given.",
		},
		{
			name:     "malformed json",
			file:     "broken.json",
			content:  `{"map": invalid}`,
			expected: "Can't parse the input JSON.",
		},
		{
			name:     "start on column",
			file:     "column.yaml",
			content:  "map: [[C, S]]\nstart: {X: 0, Y: 0, facing: N}\ncommands: []\nbattery: 3\n",
			expected: "Starting robot's position should be on 'S'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := File(writeScenario(t, t.TempDir(), tt.file, tt.content))
			if result.Valid {
				t.Fatal("Expected invalid scenario")
			}
			if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], tt.expected) {
				t.Errorf("Expected error starting with %q, got %v", tt.expected, result.Errors)
			}
			if result.Analysis != nil {
				t.Error("Expected no analysis for an invalid scenario")
			}
		})
	}
}

func TestFile_Missing(t *testing.T) {
	result := File(filepath.Join(t.TempDir(), "missing.json"))
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b_ring.json", ringScenario)
	writeScenario(t, dir, "a_island.yml", islandScenario)
	writeScenario(t, dir, "c_broken.json", `{}`)
	writeScenario(t, dir, "notes.txt", "ignored")

	results, err := Dir(dir)
	if err != nil {
		t.Fatalf("Dir failed: %v", err)
	}

	var files []string
	for _, result := range results {
		files = append(files, result.File)
	}
	if diff := cmp.Diff([]string{"a_island.yml", "b_ring.json", "c_broken.json"}, files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if AllValid(results) {
		t.Error("Expected AllValid to be false with a broken scenario")
	}
	if !AllValid(results[:2]) {
		t.Error("Expected the first two scenarios to be valid")
	}

	report := Report(results)
	for _, expected := range []string{"✅ VALID", "❌ INVALID", "❌ Some scenarios have errors"} {
		if !strings.Contains(report, expected) {
			t.Errorf("Expected %q in report:\n%s", expected, report)
		}
	}
}

func TestDir_Errors(t *testing.T) {
	if _, err := Dir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for missing directory")
	}

	file := writeScenario(t, t.TempDir(), "ring.json", ringScenario)
	if _, err := Dir(file); err == nil {
		t.Error("Expected error when the path is a file")
	}
}

func TestReport_Empty(t *testing.T) {
	if report := Report(nil); !strings.Contains(report, "No scenario files found") {
		t.Errorf("Unexpected report for no results:\n%s", report)
	}
}

func TestAnalyze(t *testing.T) {
	a, err := Analyze(decode(t, ringScenario, document.FormatJSON))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	checks := []struct {
		name     string
		got      int
		expected int
	}{
		{"rows", a.Rows, 3},
		{"width", a.Width, 3},
		{"floor", a.FloorCells, 8},
		{"column", a.ColumnCells, 1},
		{"out of room", a.OutOfRoomCells, 0},
		{"reachable", a.Reachable, 8},
		{"commands", a.Commands, 8},
		{"script cost", a.ScriptCost, 23},
		{"battery", a.Battery, 80},
		{"visited", a.Visited, 4},
		{"cleaned", a.Cleaned, 3},
		{"final battery", a.FinalBattery, 57},
		{"backoff steps", a.BackoffSteps, 0},
	}
	for _, c := range checks {
		if c.got != c.expected {
			t.Errorf("%s: expected %d, got %d", c.name, c.expected, c.got)
		}
	}

	if a.Status != engine.Completed {
		t.Errorf("Expected status %s, got %s", engine.Completed, a.Status)
	}
	expectedCounts := map[engine.Command]int{engine.TurnRight: 2, engine.Advance: 3, engine.Clean: 3}
	if diff := cmp.Diff(expectedCounts, a.CommandCounts); diff != "" {
		t.Errorf("command counts mismatch (-want +got):\n%s", diff)
	}
	if got := a.Coverage(); got != 37.5 {
		t.Errorf("Expected coverage 37.5, got %v", got)
	}
}

func TestAnalyze_Stuck(t *testing.T) {
	doc := decode(t, `{
		"map": [["S", "C"]],
		"start": {"X": 0, "Y": 0, "facing": "E"},
		"commands": ["A"],
		"battery": 20
	}`, document.FormatJSON)

	a, err := Analyze(doc)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if a.Status != engine.Stuck {
		t.Errorf("Expected status %s, got %s", engine.Stuck, a.Status)
	}
	if a.BackoffSteps == 0 {
		t.Error("Expected backoff steps in the history")
	}
}

func TestAnalyze_OutOfRoomCells(t *testing.T) {
	doc := decode(t, `{
		"map": [["S", null], [null, "S", "S"]],
		"start": {"X": 0, "Y": 0, "facing": "N"},
		"commands": [],
		"battery": 0
	}`, document.FormatJSON)

	a, err := Analyze(doc)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if a.OutOfRoomCells != 2 {
		t.Errorf("Expected 2 out-of-room cells, got %d", a.OutOfRoomCells)
	}
	if diff := cmp.Diff([]engine.Position{{X: 1, Y: 1}, {X: 2, Y: 1}}, a.Unreachable); diff != "" {
		t.Errorf("unreachable mismatch (-want +got):\n%s", diff)
	}
	if a.Status != engine.Completed {
		t.Errorf("An empty script should complete, got %s", a.Status)
	}
}

func TestAnalysis_Summary(t *testing.T) {
	a, err := Analyze(decode(t, islandScenario, document.FormatYAML))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	summary := a.Summary("island")
	for _, expected := range []string{
		"=== island ===",
		"Commands: 1 [A=1], script cost 2",
		"WARNING: script needs 2 but battery is 1",
		"WARNING: 1 floor cells unreachable from start",
		"Dry run: low_battery",
	} {
		if !strings.Contains(summary, expected) {
			t.Errorf("Expected %q in summary:\n%s", expected, summary)
		}
	}
}
