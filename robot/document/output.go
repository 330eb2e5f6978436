package document

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/cleaningrobot/robot/engine"
)

// Output is the result document of one run
type Output struct {
	Visited []engine.Position `json:"visited" yaml:"visited"`
	Cleaned []engine.Position `json:"cleaned" yaml:"cleaned"`
	Final   Final             `json:"final" yaml:"final"`
	Battery int               `json:"battery" yaml:"battery"`
}

// Final is the robot's last position and facing
type Final struct {
	X      int    `json:"X" yaml:"X"`
	Y      int    `json:"Y" yaml:"Y"`
	Facing string `json:"facing" yaml:"facing"`
}

// NewOutput converts an engine report into an output document
func NewOutput(report *engine.Report) *Output {
	out := &Output{
		Visited: report.Visited,
		Cleaned: report.Cleaned,
		Final: Final{
			X:      report.Final.X,
			Y:      report.Final.Y,
			Facing: report.Facing.String(),
		},
		Battery: report.Battery,
	}
	if out.Visited == nil {
		out.Visited = []engine.Position{}
	}
	if out.Cleaned == nil {
		out.Cleaned = []engine.Position{}
	}
	return out
}

// Encode serializes the output in the given format
func (o *Output) Encode(format Format) ([]byte, error) {
	if format == FormatYAML {
		return yaml.Marshal(o)
	}
	return json.Marshal(o)
}

// WriteOutput writes the output to path, in the format its extension selects
func WriteOutput(path string, out *Output) error {
	data, err := out.Encode(FormatFromPath(path))
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
