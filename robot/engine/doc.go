// Package engine provides the navigation and energy simulation of the
// cleaning robot.
//
// The engine package implements:
//   - The room model: floor, column and out-of-room cells on a possibly
//     jagged grid, plus the visited and cleaned position sets
//   - The battery model: every command has a fixed cost that is checked
//     before it is consumed
//   - The command interpreter for C, TR, TL, A and B
//   - The fixed backoff table tried when a move is blocked
//
// Core Types:
//
// Room holds the map and the bookkeeping sets. NavigationEngine owns a
// RobotState and a Room for the duration of one run and produces a Report.
//
// Usage:
//
//	room := engine.NewRoom([][]engine.CellKind{
//		{engine.Floor, engine.Floor, engine.Floor},
//		{engine.Floor, engine.Column, engine.Floor},
//	})
//	start := engine.RobotState{Position: engine.Position{X: 0, Y: 0}, Facing: engine.East, Battery: 20}
//
//	eng, err := engine.NewEngine(room, start, []engine.Command{engine.Advance, engine.Clean})
//	if err != nil {
//		log.Fatal(err)
//	}
//	report := eng.Work()
//
// Run Rules:
//
// A blocked Advance or Back still spends its energy. When a script move is
// blocked the five backoff strategies are tried in order from whatever state
// the previous attempt left behind. A run ends Completed after the last
// command, Stuck when no strategy works, or LowBatteryHalt when a command
// cannot be paid for. Positions in a Report are ordered by Y, then X.
package engine
