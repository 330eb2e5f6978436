package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/cleaningrobot/robot/document"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/engine"
)

// RobotService defines all simulation operations
type RobotService interface {
	// Runs
	Simulate(ctx context.Context, doc *document.Document) (*RunResult, error)
	RunScenario(ctx context.Context, name string) (*RunResult, error)
	GetRun(ctx context.Context, runID string) (*RunResult, error)
	ListRuns(ctx context.Context) ([]*RunResult, error)
	DeleteRun(ctx context.Context, runID string) error

	// Scenarios
	ListScenarios(ctx context.Context) ([]*ScenarioInfo, error)
	GetScenario(ctx context.Context, name string) (*document.Document, error)
	SaveScenario(ctx context.Context, name string, doc *document.Document) error
}

// RunStore defines run result storage operations
type RunStore interface {
	Add(run *RunResult) error
	Get(id string) (*RunResult, error)
	List() []*RunResult
	Delete(id string) error
}

// ScenarioManager handles scenario document loading
type ScenarioManager interface {
	LoadScenario(name string) (*document.Document, error)
	ListScenarios() ([]*ScenarioInfo, error)
	SaveScenario(name string, doc *document.Document) error
}

// RunResult is the outcome of one simulation run
type RunResult struct {
	ID        string           `json:"id"`
	Scenario  string           `json:"scenario,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Duration  time.Duration    `json:"duration_ns"`
	Status    engine.Status    `json:"status"`
	Error     string           `json:"error,omitempty"`
	Output    *document.Output `json:"output"`
	Steps     []engine.Step    `json:"steps,omitempty"`
	Commands  int              `json:"commands"`
	Executed  int              `json:"executed"`
}

// ScenarioInfo provides information about a scenario document
type ScenarioInfo struct {
	Filename   string `json:"filename"`
	ScenarioID string `json:"scenario_id"` // The identifier to use for runs
	Rows       int    `json:"rows"`
	FloorCells int    `json:"floor_cells"`
	Commands   int    `json:"commands"`
	ScriptCost int    `json:"script_cost"`
	Battery    int    `json:"battery"`
}
