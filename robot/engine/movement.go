package engine

import "fmt"

const (
	goAhead = 1
	goBack  = -1

	turnRight = 1
	turnLeft  = -1
)

// RunCommand executes a single command against the robot state.
//
// It returns false only when an Advance or Back is blocked by an obstacle;
// the move's energy is spent anyway. A *LowBatteryError is returned, with
// nothing mutated, when the battery cannot pay for the command.
func (e *NavigationEngine) RunCommand(cmd Command) (bool, error) {
	if !cmd.Valid() {
		return false, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	before := e.state
	success, err := e.execute(cmd)
	e.record(cmd, before, success && err == nil)
	return success, err
}

func (e *NavigationEngine) execute(cmd Command) (bool, error) {
	if err := e.consume(cmd); err != nil {
		return false, err
	}

	switch cmd {
	case Clean:
		e.room.MarkCleaned(e.state.Position)
		return true, nil
	case TurnRight:
		e.state.Facing = e.state.Facing.Turn(turnRight)
		return true, nil
	case TurnLeft:
		e.state.Facing = e.state.Facing.Turn(turnLeft)
		return true, nil
	case Advance:
		return e.move(goAhead), nil
	case Back:
		return e.move(goBack), nil
	}
	return false, nil
}

// consume checks the battery before decrementing it so that a command
// that cannot be paid for never partially executes
func (e *NavigationEngine) consume(cmd Command) error {
	cost := cmd.Cost()
	if e.state.Battery < cost {
		return &LowBatteryError{Command: cmd, Required: cost, Remaining: e.state.Battery}
	}
	e.state.Battery -= cost
	return nil
}

// move steps one cell forward (front=1) or backward (front=-1) unless the
// destination is an obstacle
func (e *NavigationEngine) move(front int) bool {
	next := e.NextPosition(front)
	if e.room.IsObstacle(next) {
		return false
	}
	e.room.MarkVisited(next)
	e.state.Position = next
	return true
}

// NextPosition returns the cell in front of (front=1) or behind (front=-1) the robot
func (e *NavigationEngine) NextPosition(front int) Position {
	if front < 0 {
		return e.state.Position.Sub(e.state.Facing.Vector())
	}
	return e.state.Position.Add(e.state.Facing.Vector())
}

func (e *NavigationEngine) record(cmd Command, before RobotState, success bool) {
	step := Step{
		Number:        len(e.history) + 1,
		Phase:         e.phase,
		Strategy:      e.strategy,
		Command:       cmd,
		From:          before.Position,
		To:            e.state.Position,
		Facing:        e.state.Facing,
		BatteryBefore: before.Battery,
		BatteryAfter:  e.state.Battery,
		Success:       success,
	}
	e.history = append(e.history, step)
	if e.observer != nil {
		e.observer(step)
	}
}
