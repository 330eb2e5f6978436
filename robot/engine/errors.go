package engine

import (
	"errors"
	"fmt"
)

var (
	ErrLowBattery     = errors.New("not enough energy")
	ErrInvalidStart   = errors.New("invalid start")
	ErrNilRoom        = errors.New("room cannot be nil")
	ErrUnknownCommand = errors.New("unknown command")
)

// LowBatteryError is returned when the battery cannot pay for a command.
// It is fatal to the whole run.
type LowBatteryError struct {
	Command   Command
	Required  int
	Remaining int
}

func (e *LowBatteryError) Error() string {
	return fmt.Sprintf("not enough energy for %s: should be consumed %d; remaining %d",
		e.Command, e.Required, e.Remaining)
}

// Is lets errors.Is(err, ErrLowBattery) match any LowBatteryError
func (e *LowBatteryError) Is(target error) bool {
	return target == ErrLowBattery
}
