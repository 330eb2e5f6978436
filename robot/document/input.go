package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/cleaningrobot/robot/engine"
)

var errTrailingData = errors.New("unexpected data after the document")

// Format is the encoding of a document on disk or on the wire
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Map markers
const (
	FloorMarker  = "S"
	ColumnMarker = "C"
)

// FormatFromPath picks the format from the file extension; JSON is the default
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is the input of one run. Pointer fields distinguish a missing
// value from a zero value; a nil map cell is out of the room.
type Document struct {
	Map      [][]*string `json:"map" yaml:"map"`
	Start    *Start      `json:"start" yaml:"start"`
	Commands []string    `json:"commands" yaml:"commands"`
	Battery  *int        `json:"battery" yaml:"battery"`
}

// Start is the robot's starting position and facing
type Start struct {
	X      *int   `json:"X" yaml:"X"`
	Y      *int   `json:"Y" yaml:"Y"`
	Facing string `json:"facing" yaml:"facing"`
}

// Decode parses and validates an input document
func Decode(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, invalid("Can't parse the input YAML.", err)
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return nil, invalid("Can't parse the input YAML.", errTrailingData)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, invalid("Can't parse the input JSON.", err)
		}
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			return nil, invalid("Can't parse the input JSON.", errTrailingData)
		}
	}

	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads, parses and validates an input document from a file
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return Decode(data, FormatFromPath(path))
}

// Encode serializes a document in the given format
func (d *Document) Encode(format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(d)
	}
	return json.MarshalIndent(d, "", "  ")
}

// Build converts a validated document into engine inputs
func (d *Document) Build() (*engine.Room, engine.RobotState, []engine.Command, error) {
	if err := Validate(d); err != nil {
		return nil, engine.RobotState{}, nil, err
	}

	cells := make([][]engine.CellKind, len(d.Map))
	for y, row := range d.Map {
		cells[y] = make([]engine.CellKind, len(row))
		for x, c := range row {
			cells[y][x] = cellKind(c)
		}
	}

	// Validate already proved the facing and commands parse
	facing, _ := engine.ParseFacing(d.Start.Facing)
	commands, _ := engine.ParseCommands(d.Commands)

	start := engine.RobotState{
		Position: engine.Position{X: *d.Start.X, Y: *d.Start.Y},
		Facing:   facing,
		Battery:  *d.Battery,
	}
	return engine.NewRoom(cells), start, commands, nil
}

// NewEngine builds an engine for the document
func (d *Document) NewEngine(opts ...engine.Option) (*engine.NavigationEngine, error) {
	room, start, commands, err := d.Build()
	if err != nil {
		return nil, err
	}
	return engine.NewEngine(room, start, commands, opts...)
}

func cellKind(c *string) engine.CellKind {
	switch {
	case c == nil:
		return engine.OutOfRoom
	case *c == FloorMarker:
		return engine.Floor
	case *c == ColumnMarker:
		return engine.Column
	default:
		return engine.OutOfRoom
	}
}
