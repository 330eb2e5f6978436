package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/cleaningrobot/robot/engine"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/service"
)

// documentKeys are the fields of an input document, forwarded as-is
var documentKeys = []string{"map", "start", "commands", "battery"}

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Cleaning Robot Simulator",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Cleaning Robot Simulator - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A robot runs a script of commands over a grid room and reports the cells it
visited and cleaned, where it stopped and how much battery is left.

AVAILABLE TOOLS:
- simulate: Run an ad-hoc input document (map, start, commands, battery)
- run_scenario: Run a stored scenario by name
- list_scenarios: List stored scenarios
- save_scenario: Validate and store a scenario
- get_run: Get one run, optionally with its step trace
- list_runs: List finished runs
- delete_run: Delete a run
- robot_instructions: Full rules of the simulation`),
	)

	c.registerTools()
}

func documentProperties() map[string]interface{} {
	return map[string]interface{}{
		"map": map[string]interface{}{
			"type":        "array",
			"description": `Room rows, top row first. Each cell is "S" (floor), "C" (column) or null (outside the room). Rows may differ in length.`,
			"items": map[string]interface{}{
				"type": "array",
			},
		},
		"start": map[string]interface{}{
			"type":        "object",
			"description": `Starting position and facing, e.g. {"X": 0, "Y": 0, "facing": "N"}. Facing is one of N, E, S, W.`,
		},
		"commands": map[string]interface{}{
			"type":        "array",
			"description": "Script of commands: TL, TR, A, B, C",
			"items": map[string]interface{}{
				"type": "string",
				"enum": []string{"TL", "TR", "A", "B", "C"},
			},
		},
		"battery": map[string]interface{}{
			"type":        "number",
			"description": "Initial battery units (non-negative)",
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Runs
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "simulate",
		Description: "Run an input document and return the final report",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: documentProperties(),
			Required:   documentKeys,
		},
	}, c.handleSimulate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_scenario",
		Description: "Run a stored scenario by name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario": map[string]interface{}{
					"type":        "string",
					"description": "Scenario ID as returned by list_scenarios",
				},
			},
			Required: []string{"scenario"},
		},
	}, c.handleRunScenario)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_run",
		Description: "Get a finished run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID",
				},
				"include_steps": map[string]interface{}{
					"type":        "boolean",
					"description": "Include the step-by-step trace (default false)",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleGetRun)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_runs",
		Description: "List finished runs, most recent first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"scenario": map[string]interface{}{
					"type":        "string",
					"description": "Only runs of this scenario (optional)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of runs to return (optional)",
				},
			},
		},
	}, c.handleListRuns)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_run",
		Description: "Delete a finished run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleDeleteRun)

	// Scenarios
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_scenarios",
		Description: "List stored scenarios",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListScenarios)

	saveProps := documentProperties()
	saveProps["name"] = map[string]interface{}{
		"type":        "string",
		"description": "Scenario name; a .yaml suffix stores it as YAML",
	}
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "save_scenario",
		Description: "Validate and store an input document as a named scenario",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: saveProps,
			Required:   append([]string{"name"}, documentKeys...),
		},
	}, c.handleSaveScenario)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "robot_instructions",
		Description: "Get the rules of the cleaning robot simulation",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleRobotInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// documentFromArgs keeps only the input document fields of the arguments
func documentFromArgs(args map[string]interface{}) map[string]interface{} {
	doc := make(map[string]interface{}, len(documentKeys))
	for _, key := range documentKeys {
		if v, ok := args[key]; ok {
			doc[key] = v
		}
	}
	return doc
}

// Tool handlers

func (c *Client) handleSimulate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var run service.RunResult
	if err := c.apiCall(ctx, "POST", "/api/runs", documentFromArgs(arguments(request)), &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunResult(&run)), nil
}

func (c *Client) handleRunScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scenario, _ := arguments(request)["scenario"].(string)
	if scenario == "" {
		return mcp.NewToolResultError("scenario is required"), nil
	}

	var run service.RunResult
	if err := c.apiCall(ctx, "POST", "/api/scenarios/"+url.PathEscape(scenario)+"/run", nil, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunResult(&run)), nil
}

func (c *Client) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	runID, _ := args["run_id"].(string)
	includeSteps, _ := args["include_steps"].(bool)

	var run service.RunResult
	if err := c.apiCall(ctx, "GET", "/api/runs/"+url.PathEscape(runID), nil, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatRunResult(&run)
	if includeSteps {
		result += "\n" + formatSteps(run.Steps)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	params := url.Values{}
	if scenario, ok := args["scenario"].(string); ok && scenario != "" {
		params.Set("scenario", scenario)
	}
	if limit, ok := args["limit"].(float64); ok && limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", int(limit)))
	}
	path := "/api/runs"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var response struct {
		Count int                  `json:"count"`
		Total int                  `json:"total"`
		Runs  []*service.RunResult `json:"runs"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Runs (%d of %d):\n\n", response.Count, response.Total))
	for _, run := range response.Runs {
		result.WriteString(fmt.Sprintf("- %s %s status=%s battery=%d (%s)\n",
			run.ID, scenarioLabel(run.Scenario), run.Status, runBattery(run), run.CreatedAt.Format("15:04:05")))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleDeleteRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, _ := arguments(request)["run_id"].(string)

	var response struct {
		Message string `json:"message"`
	}
	if err := c.apiCall(ctx, "DELETE", "/api/runs/"+url.PathEscape(runID), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response.Message), nil
}

func (c *Client) handleListScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var scenarios []service.ScenarioInfo
	if err := c.apiCall(ctx, "GET", "/api/scenarios", nil, &scenarios); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(scenarios) == 0 {
		return mcp.NewToolResultText("No scenarios available."), nil
	}

	var result strings.Builder
	result.WriteString("Available Scenarios:\n\n")
	for _, s := range scenarios {
		result.WriteString(fmt.Sprintf("• %s (%s)\n  Rows: %d, Floor cells: %d, Commands: %d, Script cost: %d, Battery: %d\n\n",
			s.ScenarioID, s.Filename, s.Rows, s.FloorCells, s.Commands, s.ScriptCost, s.Battery))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleSaveScenario(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	name, _ := args["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	var response struct {
		Message    string `json:"message"`
		ScenarioID string `json:"scenario_id"`
	}
	if err := c.apiCall(ctx, "POST", "/api/scenarios/"+url.PathEscape(name), documentFromArgs(args), &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", response.Message, response.ScenarioID)), nil
}

func (c *Client) handleRobotInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Cleaning Robot Simulator - Instructions

ROOM:
• The map is a list of rows; row 0 is the top. X grows to the right, Y grows down.
• "S" is a floor cell, "C" is a column, null is outside the room.
• Rows may have different lengths; a cell past the end of its row is outside the room.
• Columns and cells outside the room are obstacles.

ROBOT:
• Starts at start.X, start.Y facing N, E, S or W, on a floor cell.
• The starting cell counts as visited.

COMMANDS AND COSTS:
• TL - turn left 90 degrees (1 battery unit)
• TR - turn right 90 degrees (1 battery unit)
• A  - advance one cell in the facing direction (2 units)
• B  - back one cell, keeping the facing (3 units)
• C  - clean the current cell (5 units)

RULES:
• The battery is checked before every command. When it cannot pay for the next
  command the run halts and nothing changes.
• A move into an obstacle still costs its energy; the robot stays put.
• After a blocked move the robot tries these back-off strategies in order,
  stopping at the first one that completes without another blocked move:
    1. TR, A, TL
    2. TR, A, TR
    3. TR, A, TR
    4. TR, B, TR, A
    5. TL, TL, A
  A failed strategy is not undone. If all five fail the robot is stuck and the
  rest of the script is skipped.

RESULT:
• visited and cleaned are sorted by Y, then X, without duplicates.
• final is the last position and facing; battery is what is left.
• status is completed, stuck or low_battery.`

func scenarioLabel(scenario string) string {
	if scenario == "" {
		return "(ad-hoc)"
	}
	return scenario
}

func runBattery(run *service.RunResult) int {
	if run.Output == nil {
		return 0
	}
	return run.Output.Battery
}

func formatPositions(positions []engine.Position) string {
	if len(positions) == 0 {
		return "none"
	}
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}

func formatRunResult(run *service.RunResult) string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("Run: %s %s\n", run.ID, scenarioLabel(run.Scenario)))
	result.WriteString(fmt.Sprintf("Status: %s\n", run.Status))
	if run.Error != "" {
		result.WriteString(fmt.Sprintf("Halted: %s\n", run.Error))
	}
	result.WriteString(fmt.Sprintf("Commands executed: %d (script length %d)\n", run.Executed, run.Commands))

	if out := run.Output; out != nil {
		result.WriteString(fmt.Sprintf("Final: (%d,%d) facing %s | Battery: %d\n", out.Final.X, out.Final.Y, out.Final.Facing, out.Battery))
		result.WriteString(fmt.Sprintf("Visited (%d): %s\n", len(out.Visited), formatPositions(out.Visited)))
		result.WriteString(fmt.Sprintf("Cleaned (%d): %s\n", len(out.Cleaned), formatPositions(out.Cleaned)))
	}

	return result.String()
}

func formatSteps(steps []engine.Step) string {
	if len(steps) == 0 {
		return "No steps recorded."
	}

	var result strings.Builder
	result.WriteString("Steps:\n")
	for _, s := range steps {
		status := "✓"
		if !s.Success {
			status = "✗"
		}
		phase := s.Phase
		if s.Strategy > 0 {
			phase = fmt.Sprintf("%s#%d", s.Phase, s.Strategy)
		}
		result.WriteString(fmt.Sprintf("%3d. %-9s %-2s %s→%s %s batt %d→%d %s\n",
			s.Number, phase, s.Command, s.From, s.To, s.Facing, s.BatteryBefore, s.BatteryAfter, status))
	}
	return result.String()
}
