package document

import (
	"errors"
	"fmt"

	"github.com/wricardo/mcp-training/cleaningrobot/robot/engine"
)

var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError describes why an input document was rejected
type InvalidInputError struct {
	Reason string
	Err    error
}

func (e *InvalidInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrInvalidInput) match any InvalidInputError
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(reason string, err error) *InvalidInputError {
	return &InvalidInputError{Reason: reason, Err: err}
}

func invalidf(format string, args ...any) *InvalidInputError {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the preconditions the engine relies on, reporting the
// first problem found
func Validate(doc *Document) error {
	if doc == nil {
		return invalidf("No input given.")
	}
	if doc.Battery == nil {
		return invalidf("No battery given.")
	}
	if *doc.Battery < 0 {
		return invalidf("Robot's battery can't be negative. Now it is %d.", *doc.Battery)
	}
	if doc.Commands == nil {
		return invalidf("No list of commands given.")
	}
	if doc.Map == nil {
		return invalidf("No room map given.")
	}
	if doc.Start == nil {
		return invalidf("No robot's starting position given.")
	}
	if doc.Start.X == nil {
		return invalidf("Robot's starting X position not given.")
	}
	if doc.Start.Y == nil {
		return invalidf("Robot's starting Y position not given.")
	}

	x, y := *doc.Start.X, *doc.Start.Y
	if y < 0 || y >= len(doc.Map) || x < 0 || x >= len(doc.Map[y]) {
		return invalidf("Robot can't stand out of the room; now it's on %d, %d.", x, y)
	}

	for _, row := range doc.Map {
		if row == nil {
			return invalidf("Invalid room map.")
		}
		for _, c := range row {
			if c != nil && *c != FloorMarker && *c != ColumnMarker {
				return invalidf("Invalid character in the map: '%s'.", *c)
			}
		}
	}

	if _, err := engine.ParseFacing(doc.Start.Facing); err != nil {
		return invalidf("Unknown facing string: '%s'.", doc.Start.Facing)
	}
	for _, token := range doc.Commands {
		if _, err := engine.ParseCommand(token); err != nil {
			return invalidf("Unknown command: '%s'.", token)
		}
	}

	if c := doc.Map[y][x]; c == nil || *c != FloorMarker {
		return invalidf("Starting robot's position should be on '%s' but it is standing on '%s' instead.",
			FloorMarker, markerString(c))
	}
	return nil
}

func markerString(c *string) string {
	if c == nil {
		return "null"
	}
	return *c
}
