package engine

import (
	"errors"
	"fmt"
)

// Engine provides the main interface for a cleaning run
type Engine interface {
	// Execution
	Work() *Report
	RunCommand(cmd Command) (bool, error)

	// State
	State() RobotState
	Status() Status
	Report() *Report
	History() []Step
	Room() *Room
}

// Option configures a NavigationEngine
type Option func(*NavigationEngine)

// WithObserver registers a callback invoked after every executed command
func WithObserver(observer func(Step)) Option {
	return func(e *NavigationEngine) {
		e.observer = observer
	}
}

// NavigationEngine folds a command script over the robot state and room.
// An engine is owned by a single run and is not safe for concurrent use.
type NavigationEngine struct {
	room     *Room
	state    RobotState
	commands []Command
	status   Status
	err      error
	started  bool

	history  []Step
	observer func(Step)
	phase    string
	strategy int
}

// NewEngine creates an engine for one run. The start must be a floor cell
// and the battery must not be negative. The start is marked visited
// before any command runs.
func NewEngine(room *Room, start RobotState, commands []Command, opts ...Option) (*NavigationEngine, error) {
	if room == nil {
		return nil, ErrNilRoom
	}
	if start.Battery < 0 {
		return nil, fmt.Errorf("%w: battery can't be negative, got %d", ErrInvalidStart, start.Battery)
	}
	if !start.Facing.Valid() {
		return nil, fmt.Errorf("%w: unknown facing %s", ErrInvalidStart, start.Facing)
	}
	if room.IsObstacle(start.Position) {
		return nil, fmt.Errorf("%w: robot can't stand on %s (%s)", ErrInvalidStart, start.Position, room.Cell(start.Position))
	}
	room.MarkVisited(start.Position)

	e := &NavigationEngine{
		room:     room,
		state:    start,
		commands: append([]Command(nil), commands...),
		status:   Running,
		phase:    PhaseScript,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Work runs the whole script and returns the final report.
//
// The run stops early on a low battery (LowBatteryHalt) or when no backoff
// strategy frees the robot (Stuck). Calling Work again returns the report
// of the finished run without executing anything.
func (e *NavigationEngine) Work() *Report {
	if e.started {
		return e.Report()
	}
	e.started = true
	e.room.MarkVisited(e.state.Position)

	for _, cmd := range e.commands {
		e.phase, e.strategy = PhaseScript, 0
		moved, err := e.RunCommand(cmd)
		if err != nil {
			e.halt(err)
			return e.Report()
		}
		if moved {
			continue
		}

		freed, err := e.backOff()
		if err != nil {
			e.halt(err)
			return e.Report()
		}
		if !freed {
			e.status = Stuck
			return e.Report()
		}
	}

	e.status = Completed
	return e.Report()
}

// backOff tries every strategy in table order, stopping at the first one
// whose commands all succeed. Failed attempts are not rolled back.
func (e *NavigationEngine) backOff() (bool, error) {
	defer func() { e.phase, e.strategy = PhaseScript, 0 }()

	for i, strategy := range backoffTable {
		e.phase, e.strategy = PhaseBackoff, i+1
		worked := true
		for _, cmd := range strategy {
			ok, err := e.RunCommand(cmd)
			if err != nil {
				return false, err
			}
			if !ok {
				worked = false
				break
			}
		}
		if worked {
			return true, nil
		}
	}
	return false, nil
}

func (e *NavigationEngine) halt(err error) {
	var lowBattery *LowBatteryError
	if errors.As(err, &lowBattery) {
		e.status = LowBatteryHalt
	}
	e.err = err
}

// Report builds a report from the current state. It does not mutate anything.
func (e *NavigationEngine) Report() *Report {
	return &Report{
		Visited: e.room.VisitedPositions(),
		Cleaned: e.room.CleanedPositions(),
		Final:   e.state.Position,
		Facing:  e.state.Facing,
		Battery: e.state.Battery,
		Status:  e.status,
		Err:     e.err,
	}
}

// State returns a copy of the robot state
func (e *NavigationEngine) State() RobotState {
	return e.state
}

// Status returns the state machine's current status
func (e *NavigationEngine) Status() Status {
	return e.status
}

// Err returns the error that halted the run, if any
func (e *NavigationEngine) Err() error {
	return e.err
}

// History returns a copy of every executed command in order
func (e *NavigationEngine) History() []Step {
	return append([]Step(nil), e.history...)
}

// Room returns the room the engine operates on
func (e *NavigationEngine) Room() *Room {
	return e.room
}

// Commands returns a copy of the script
func (e *NavigationEngine) Commands() []Command {
	return append([]Command(nil), e.commands...)
}

var _ Engine = (*NavigationEngine)(nil)
