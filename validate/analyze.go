package validate

import (
	"fmt"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/mcp-training/cleaningrobot/robot/document"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/engine"
)

// Analysis holds static and dry-run statistics for one scenario
type Analysis struct {
	Rows           int
	Width          int
	FloorCells     int
	ColumnCells    int
	OutOfRoomCells int

	Start       engine.RobotState
	Reachable   int
	Unreachable []engine.Position

	Commands      int
	CommandCounts map[engine.Command]int
	ScriptCost    int
	Battery       int

	// Dry run
	Status       engine.Status
	Visited      int
	Cleaned      int
	FinalBattery int
	BackoffSteps int
}

// Coverage is the share of floor cells the dry run cleaned, in percent
func (a *Analysis) Coverage() float64 {
	if a.FloorCells == 0 {
		return 0
	}
	return float64(a.Cleaned) * 100 / float64(a.FloorCells)
}

// Analyze computes map statistics, floor reachability from the start and
// the outcome of running the script once
func Analyze(doc *document.Document) (*Analysis, error) {
	room, start, commands, err := doc.Build()
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Rows:          room.Rows(),
		FloorCells:    room.CountCells(engine.Floor),
		ColumnCells:   room.CountCells(engine.Column),
		Start:         start,
		Commands:      len(commands),
		CommandCounts: make(map[engine.Command]int),
		ScriptCost:    engine.ScriptCost(commands),
		Battery:       start.Battery,
	}
	for y := 0; y < room.Rows(); y++ {
		a.Width = max(a.Width, room.Width(y))
	}
	a.OutOfRoomCells = room.CountCells(engine.OutOfRoom)
	for _, cmd := range commands {
		a.CommandCounts[cmd]++
	}

	reachable := reachableFloor(room, start.Position)
	a.Reachable = reachable.Size()
	for y := 0; y < room.Rows(); y++ {
		for x := 0; x < room.Width(y); x++ {
			pos := engine.Position{X: x, Y: y}
			if room.Cell(pos) == engine.Floor && !reachable.Has(pos) {
				a.Unreachable = append(a.Unreachable, pos)
			}
		}
	}

	eng, err := engine.NewEngine(room, start, commands)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	report := eng.Work()
	a.Status = report.Status
	a.Visited = len(report.Visited)
	a.Cleaned = len(report.Cleaned)
	a.FinalBattery = report.Battery
	for _, step := range eng.History() {
		if step.Phase == engine.PhaseBackoff {
			a.BackoffSteps++
		}
	}
	return a, nil
}

// reachableFloor flood fills 4-directionally over floor cells from start
func reachableFloor(room *engine.Room, start engine.Position) mapset.Set[engine.Position] {
	visited := mapset.New[engine.Position]()
	if room.IsObstacle(start) {
		return visited
	}

	queue := []engine.Position{start}
	visited.Put(start)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, facing := range []engine.Facing{engine.North, engine.East, engine.South, engine.West} {
			next := current.Add(facing.Vector())
			if visited.Has(next) || room.IsObstacle(next) {
				continue
			}
			visited.Put(next)
			queue = append(queue, next)
		}
	}
	return visited
}

// Summary renders an analysis the way the analyze subcommand prints it
func (a *Analysis) Summary(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", name)
	fmt.Fprintf(&b, "Grid: %d rows, widest row %d\n", a.Rows, a.Width)
	fmt.Fprintf(&b, "Cells: %d floor, %d column, %d out of room\n", a.FloorCells, a.ColumnCells, a.OutOfRoomCells)
	fmt.Fprintf(&b, "Start: %s facing %s, battery %d\n", a.Start.Position, a.Start.Facing, a.Battery)

	var counts []string
	for cmd := engine.Clean; cmd <= engine.Back; cmd++ {
		if n := a.CommandCounts[cmd]; n > 0 {
			counts = append(counts, fmt.Sprintf("%s=%d", cmd, n))
		}
	}
	fmt.Fprintf(&b, "Commands: %d [%s], script cost %d\n", a.Commands, strings.Join(counts, " "), a.ScriptCost)

	if a.ScriptCost > a.Battery {
		fmt.Fprintf(&b, "⚠️  WARNING: script needs %d but battery is %d\n", a.ScriptCost, a.Battery)
	}
	if len(a.Unreachable) > 0 {
		fmt.Fprintf(&b, "⚠️  WARNING: %d floor cells unreachable from start\n", len(a.Unreachable))
	} else {
		fmt.Fprintf(&b, "✅ All %d floor cells reachable from start\n", a.FloorCells)
	}

	fmt.Fprintf(&b, "Dry run: %s, visited %d, cleaned %d (%.1f%%), battery left %d, backoff steps %d\n",
		a.Status, a.Visited, a.Cleaned, a.Coverage(), a.FinalBattery, a.BackoffSteps)
	return b.String()
}
