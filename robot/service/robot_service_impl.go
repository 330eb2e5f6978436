package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/cleaningrobot/logging"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/document"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/engine"
)

var ErrNilDocument = errors.New("no input document given")

// robotServiceImpl implements the RobotService interface
type robotServiceImpl struct {
	runs      RunStore
	scenarios ScenarioManager
	now       func() time.Time
}

// NewRobotService creates a new robot service instance
func NewRobotService(runs RunStore, scenarios ScenarioManager) RobotService {
	return &robotServiceImpl{
		runs:      runs,
		scenarios: scenarios,
		now:       time.Now,
	}
}

// Simulate runs an ad-hoc input document
func (s *robotServiceImpl) Simulate(ctx context.Context, doc *document.Document) (*RunResult, error) {
	return s.run(ctx, "", doc)
}

// RunScenario runs a stored scenario by name
func (s *robotServiceImpl) RunScenario(ctx context.Context, name string) (*RunResult, error) {
	doc, err := s.scenarios.LoadScenario(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario %s: %w", name, err)
	}
	return s.run(ctx, name, doc)
}

// run builds a fresh engine for the document, so no engine state is ever
// shared between requests
func (s *robotServiceImpl) run(ctx context.Context, scenario string, doc *document.Document) (*RunResult, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	eng, err := doc.NewEngine(engine.WithObserver(func(step engine.Step) {
		logging.Debug().Add(logging.Scenario(scenario), logging.Step(step)).Msg("step")
	}))
	if err != nil {
		return nil, err
	}

	started := s.now()
	report := eng.Work()
	elapsed := s.now().Sub(started)

	result := &RunResult{
		Scenario:  scenario,
		CreatedAt: started,
		Duration:  elapsed,
		Status:    report.Status,
		Output:    document.NewOutput(report),
		Steps:     eng.History(),
		Commands:  len(eng.Commands()),
		Executed:  len(eng.History()),
	}
	if report.Err != nil {
		result.Error = report.Err.Error()
	}

	if err := s.runs.Add(result); err != nil {
		return nil, fmt.Errorf("failed to store run: %w", err)
	}

	logging.Info().
		Add(
			logging.RunID(result.ID),
			logging.Scenario(scenario),
			logging.Status(result.Status),
			logging.Position(report.Final),
			logging.Battery(report.Battery),
			logging.Count("visited", len(report.Visited)),
			logging.Count("cleaned", len(report.Cleaned)),
			logging.Count("steps", result.Executed),
			logging.Duration(elapsed),
		).
		Msg("run finished")

	return result, nil
}

// GetRun retrieves a stored run
func (s *robotServiceImpl) GetRun(ctx context.Context, runID string) (*RunResult, error) {
	run, err := s.runs.Get(runID)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns all stored runs
func (s *robotServiceImpl) ListRuns(ctx context.Context) ([]*RunResult, error) {
	return s.runs.List(), nil
}

// DeleteRun removes a stored run
func (s *robotServiceImpl) DeleteRun(ctx context.Context, runID string) error {
	if err := s.runs.Delete(runID); err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}
	return nil
}

// ListScenarios returns all available scenarios
func (s *robotServiceImpl) ListScenarios(ctx context.Context) ([]*ScenarioInfo, error) {
	return s.scenarios.ListScenarios()
}

// GetScenario returns a scenario document
func (s *robotServiceImpl) GetScenario(ctx context.Context, name string) (*document.Document, error) {
	doc, err := s.scenarios.LoadScenario(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario %s: %w", name, err)
	}
	return doc, nil
}

// SaveScenario validates and stores a scenario document
func (s *robotServiceImpl) SaveScenario(ctx context.Context, name string, doc *document.Document) error {
	if doc == nil {
		return ErrNilDocument
	}
	if name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if err := s.scenarios.SaveScenario(name, doc); err != nil {
		return err
	}

	logging.Info().Add(logging.Scenario(name), logging.Component("scenarios")).Msg("scenario saved")
	return nil
}
