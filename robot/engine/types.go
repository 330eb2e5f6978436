package engine

import "fmt"

// CellKind represents the contents of a single room cell
type CellKind int

const (
	Floor CellKind = iota
	Column
	OutOfRoom
)

func (k CellKind) String() string {
	switch k {
	case Floor:
		return "floor"
	case Column:
		return "column"
	default:
		return "out_of_room"
	}
}

// Position represents x,y coordinates in the room
type Position struct {
	X int `json:"X" yaml:"X"`
	Y int `json:"Y" yaml:"Y"`
}

// Compare orders positions row-major: by Y first, then by X.
// It returns -1, 0 or +1.
func (p Position) Compare(other Position) int {
	switch {
	case p.Y < other.Y:
		return -1
	case p.Y > other.Y:
		return 1
	case p.X < other.X:
		return -1
	case p.X > other.X:
		return 1
	}
	return 0
}

// Add returns p shifted by the given delta
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Sub returns p shifted by the negated delta
func (p Position) Sub(d Position) Position {
	return Position{X: p.X - d.X, Y: p.Y - d.Y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Facing is the direction the robot is looking at
type Facing int

const (
	North Facing = iota
	East
	South
	West

	facingCount = 4
)

var facingNames = [facingCount]string{"N", "E", "S", "W"}

// facingVectors holds the one-cell step for each facing, indexed by Facing
var facingVectors = [facingCount]Position{
	North: {X: 0, Y: -1},
	East:  {X: 1, Y: 0},
	South: {X: 0, Y: 1},
	West:  {X: -1, Y: 0},
}

// ParseFacing converts a facing token ("N", "E", "S", "W") into a Facing
func ParseFacing(s string) (Facing, error) {
	for i, name := range facingNames {
		if name == s {
			return Facing(i), nil
		}
	}
	return 0, fmt.Errorf("unknown facing %q", s)
}

func (f Facing) String() string {
	if f < 0 || f >= facingCount {
		return fmt.Sprintf("Facing(%d)", int(f))
	}
	return facingNames[f]
}

// Turn rotates the facing by the given number of quarter turns; +1 is clockwise
func (f Facing) Turn(quarters int) Facing {
	return Facing(((int(f)+quarters)%facingCount + facingCount) % facingCount)
}

// Valid reports whether f is one of the four facings
func (f Facing) Valid() bool {
	return f >= 0 && f < facingCount
}

// Vector returns the one-cell step in the facing direction; an unknown
// facing does not move
func (f Facing) Vector() Position {
	if !f.Valid() {
		return Position{}
	}
	return facingVectors[f]
}

// MarshalText encodes the facing as its single letter token
func (f Facing) MarshalText() ([]byte, error) {
	if f < 0 || f >= facingCount {
		return nil, fmt.Errorf("invalid facing %d", int(f))
	}
	return []byte(facingNames[f]), nil
}

// UnmarshalText decodes a single letter facing token
func (f *Facing) UnmarshalText(text []byte) error {
	parsed, err := ParseFacing(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Command is one instruction of the robot's script
type Command int

const (
	Clean Command = iota
	TurnRight
	TurnLeft
	Advance
	Back

	commandCount = 5
)

var commandTokens = [commandCount]string{"C", "TR", "TL", "A", "B"}

// commandCosts is the battery consumed by each command, indexed by Command
var commandCosts = [commandCount]int{
	Clean:     5,
	TurnRight: 1,
	TurnLeft:  1,
	Advance:   2,
	Back:      3,
}

// ParseCommand converts a script token into a Command
func ParseCommand(s string) (Command, error) {
	for i, token := range commandTokens {
		if token == s {
			return Command(i), nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", s)
}

// ParseCommands converts a whole script, failing on the first unknown token
func ParseCommands(tokens []string) ([]Command, error) {
	commands := make([]Command, 0, len(tokens))
	for _, token := range tokens {
		cmd, err := ParseCommand(token)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

func (c Command) String() string {
	if c < 0 || c >= commandCount {
		return fmt.Sprintf("Command(%d)", int(c))
	}
	return commandTokens[c]
}

// Valid reports whether c is one of the known commands
func (c Command) Valid() bool {
	return c >= 0 && c < commandCount
}

// Cost returns the battery the command consumes; unknown commands cost 0
func (c Command) Cost() int {
	if !c.Valid() {
		return 0
	}
	return commandCosts[c]
}

// MarshalText encodes the command as its script token
func (c Command) MarshalText() ([]byte, error) {
	if c < 0 || c >= commandCount {
		return nil, fmt.Errorf("invalid command %d", int(c))
	}
	return []byte(commandTokens[c]), nil
}

// UnmarshalText decodes a script token
func (c *Command) UnmarshalText(text []byte) error {
	parsed, err := ParseCommand(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ScriptCost sums the battery needed to run every command once
func ScriptCost(commands []Command) int {
	total := 0
	for _, cmd := range commands {
		total += cmd.Cost()
	}
	return total
}

// RobotState is the mutable part of the simulation
type RobotState struct {
	Position Position `json:"position"`
	Facing   Facing   `json:"facing"`
	Battery  int      `json:"battery"`
}

// Status is the state of the navigation state machine
type Status string

const (
	Running        Status = "running"
	Completed      Status = "completed"
	Stuck          Status = "stuck"
	LowBatteryHalt Status = "low_battery"
)

// Terminal reports whether no further commands will be executed
func (s Status) Terminal() bool {
	return s != Running
}

// Report is the result of a run, built from whatever state has accumulated
type Report struct {
	Visited []Position `json:"visited"`
	Cleaned []Position `json:"cleaned"`
	Final   Position   `json:"final"`
	Facing  Facing     `json:"facing"`
	Battery int        `json:"battery"`
	Status  Status     `json:"status"`
	Err     error      `json:"-"`
}

// Step records a single executed (or refused) command
type Step struct {
	Number        int      `json:"number"`
	Phase         string   `json:"phase"`              // "script" or "backoff"
	Strategy      int      `json:"strategy,omitempty"` // 1-based backoff strategy, 0 for script commands
	Command       Command  `json:"command"`
	From          Position `json:"from"`
	To            Position `json:"to"`
	Facing        Facing   `json:"facing"`
	BatteryBefore int      `json:"battery_before"`
	BatteryAfter  int      `json:"battery_after"`
	Success       bool     `json:"success"`
}

const (
	PhaseScript  = "script"
	PhaseBackoff = "backoff"
)
