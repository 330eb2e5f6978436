// Package validate checks scenario documents and reports statistics about
// them. It backs the validate and analyze subcommands.
package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/cleaningrobot/robot/document"
)

// ValidationResult represents the outcome of validating a single scenario file.
// Errors make the file invalid; Warnings and Info are informational.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
	Analysis *Analysis
}

// File loads and validates a single scenario document. The document is
// rejected only for the reasons the simulator itself rejects input; rooms
// with unreachable floor or scripts that cost more than the battery are
// reported as warnings.
func File(path string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(path),
		Valid: true,
	}

	doc, err := document.Load(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	analysis, err := Analyze(doc)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Analysis = analysis

	if len(analysis.Unreachable) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d/%d floor cells unreachable from start", len(analysis.Unreachable), analysis.FloorCells))
		for i, pos := range analysis.Unreachable {
			if i == 5 {
				result.Warnings = append(result.Warnings, fmt.Sprintf("... and %d more", len(analysis.Unreachable)-5))
				break
			}
			result.Warnings = append(result.Warnings, fmt.Sprintf("Unreachable: %s", pos))
		}
	}
	if analysis.ScriptCost > analysis.Battery {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("script costs %d but battery is %d", analysis.ScriptCost, analysis.Battery))
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Grid: %d rows, widest %d", analysis.Rows, analysis.Width),
		fmt.Sprintf("✓ Cells: %d floor, %d column, %d out of room", analysis.FloorCells, analysis.ColumnCells, analysis.OutOfRoomCells),
		fmt.Sprintf("✓ Start: %s facing %s", analysis.Start.Position, analysis.Start.Facing),
		fmt.Sprintf("✓ Commands: %d (cost %d, battery %d)", analysis.Commands, analysis.ScriptCost, analysis.Battery),
	)
	return result
}

// Dir validates every scenario document in dir, sorted by file name
func Dir(dir string) ([]ValidationResult, error) {
	files, err := scenarioFiles(dir)
	if err != nil {
		return nil, err
	}

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

// AllValid reports whether every result is valid
func AllValid(results []ValidationResult) bool {
	for _, result := range results {
		if !result.Valid {
			return false
		}
	}
	return true
}

func scenarioFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("error finding scenario files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// Report renders results the way the validate subcommand prints them
func Report(results []ValidationResult) string {
	var b strings.Builder
	for _, result := range results {
		fmt.Fprintf(&b, "\n%s %s\n", strings.Repeat("=", 20), result.File)
		if result.Valid {
			b.WriteString("✅ VALID\n")
			for _, info := range result.Info {
				b.WriteString("  " + info + "\n")
			}
		} else {
			b.WriteString("❌ INVALID\n")
			for _, err := range result.Errors {
				b.WriteString("  ❌ " + err + "\n")
			}
		}
		for _, warning := range result.Warnings {
			b.WriteString("  ⚠️  " + warning + "\n")
		}
	}

	fmt.Fprintf(&b, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		b.WriteString("No scenario files found\n")
	case AllValid(results):
		b.WriteString("✅ All scenarios are valid!\n")
	default:
		b.WriteString("❌ Some scenarios have errors\n")
	}
	return b.String()
}
