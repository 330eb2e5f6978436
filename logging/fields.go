package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/wricardo/mcp-training/cleaningrobot/robot/engine"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// RunID adds a run ID field.
func RunID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("run_id", id)
	}
}

// Scenario adds a scenario name field.
func Scenario(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("scenario", name)
	}
}

// Status adds a terminal status field.
func Status(s engine.Status) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("status", string(s))
	}
}

// Battery adds a battery field.
func Battery(units int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("battery", units)
	}
}

// Position adds x and y fields.
func Position(p engine.Position) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("x", p.X).Int("y", p.Y)
	}
}

// Command adds a command token field.
func Command(c engine.Command) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("command", c.String())
	}
}

// Step adds the fields of one step trace entry.
func Step(s engine.Step) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("step", s.Number).
			Str("phase", s.Phase).
			Int("strategy", s.Strategy).
			Str("command", s.Command.String()).
			Int("x", s.To.X).
			Int("y", s.To.Y).
			Str("facing", s.Facing.String()).
			Int("battery", s.BatteryAfter).
			Bool("success", s.Success)
	}
}

// Count adds an integer count field with a custom key.
func Count(key string, n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, n)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
