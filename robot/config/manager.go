package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/cleaningrobot/robot/document"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/engine"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/service"
)

var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrInvalidScenario  = errors.New("invalid scenario")
)

// scenarioExtensions are tried in order when resolving a scenario name
var scenarioExtensions = []string{".json", ".yaml", ".yml"}

// Manager handles scenario document loading and caching
type Manager struct {
	scenarioDir string
	scenarios   map[string]*document.Document
	mu          sync.RWMutex
}

// NewManager creates a new scenario manager over an existing directory
func NewManager(scenarioDir string) (*Manager, error) {
	info, err := os.Stat(scenarioDir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("scenario directory does not exist: %s", scenarioDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scenario path is not a directory: %s", scenarioDir)
	}

	return &Manager{
		scenarioDir: scenarioDir,
		scenarios:   make(map[string]*document.Document),
	}, nil
}

// Dir returns the managed directory
func (m *Manager) Dir() string {
	return m.scenarioDir
}

// LoadScenario loads a scenario by name, with or without its extension
func (m *Manager) LoadScenario(name string) (*document.Document, error) {
	name = scenarioID(name)

	m.mu.RLock()
	// Check cache first
	if doc, exists := m.scenarios[name]; exists {
		m.mu.RUnlock()
		return doc, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if doc, exists := m.scenarios[name]; exists {
		return doc, nil
	}

	path, err := m.resolve(name)
	if err != nil {
		return nil, err
	}

	doc, err := document.Load(path)
	if err != nil {
		if errors.Is(err, document.ErrInvalidInput) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
		}
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}

	m.scenarios[name] = doc
	return doc, nil
}

// ListScenarios returns information about all valid scenarios, sorted by ID
func (m *Manager) ListScenarios() ([]*service.ScenarioInfo, error) {
	entries, err := os.ReadDir(m.scenarioDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var scenarios []*service.ScenarioInfo
	seen := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !isScenarioFile(entry.Name()) {
			continue
		}

		id := scenarioID(entry.Name())
		if seen[id] {
			continue
		}
		seen[id] = true

		doc, err := m.LoadScenario(id)
		if err != nil {
			// Skip invalid scenarios
			continue
		}

		scenarios = append(scenarios, Describe(entry.Name(), doc))
	}

	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].ScenarioID < scenarios[j].ScenarioID
	})
	return scenarios, nil
}

// Describe summarizes a validated scenario document
func Describe(filename string, doc *document.Document) *service.ScenarioInfo {
	info := &service.ScenarioInfo{
		Filename:   filename,
		ScenarioID: scenarioID(filename),
		Rows:       len(doc.Map),
		Commands:   len(doc.Commands),
		Battery:    *doc.Battery,
	}

	if room, _, commands, err := doc.Build(); err == nil {
		info.FloorCells = room.CountCells(engine.Floor)
		info.ScriptCost = engine.ScriptCost(commands)
	}
	return info
}

// SaveScenario validates a document and writes it to disk. A name ending in
// .yaml or .yml is written as YAML, anything else as JSON.
func (m *Manager) SaveScenario(name string, doc *document.Document) error {
	if err := document.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}

	filename := name
	if !isScenarioFile(filename) {
		filename = name + ".json"
	}
	if filepath.Base(filename) != filename {
		return fmt.Errorf("%w: name must not contain a path: %s", ErrInvalidScenario, name)
	}
	if existing, err := m.resolve(scenarioID(filename)); err == nil && filepath.Base(existing) != filename {
		return fmt.Errorf("%w: scenario %s is already stored as %s", ErrInvalidScenario, scenarioID(filename), filepath.Base(existing))
	}

	data, err := doc.Encode(document.FormatFromPath(filename))
	if err != nil {
		return fmt.Errorf("failed to encode scenario: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.scenarioDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write scenario file: %w", err)
	}

	// Update cache
	m.mu.Lock()
	m.scenarios[scenarioID(name)] = doc
	m.mu.Unlock()

	return nil
}

// Invalidate drops a single scenario from the cache
func (m *Manager) Invalidate(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scenarios, scenarioID(name))
}

// RefreshCache drops every cached scenario so the next load reads the disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios = make(map[string]*document.Document)
}

// cached reports whether a scenario is currently cached
func (m *Manager) cached(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.scenarios[scenarioID(name)]
	return ok
}

// resolve finds the file backing a scenario name
func (m *Manager) resolve(name string) (string, error) {
	for _, ext := range scenarioExtensions {
		path := filepath.Join(m.scenarioDir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", ErrScenarioNotFound
}

func isScenarioFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range scenarioExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// scenarioID strips a known extension from a file or scenario name
func scenarioID(name string) string {
	if isScenarioFile(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}
