package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/mcp-training/cleaningrobot/robot/document"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/engine"
	"github.com/wricardo/mcp-training/cleaningrobot/robot/service"
)

func newTestRun() *service.RunResult {
	return &service.RunResult{
		ID:       "run-123",
		Scenario: "lobby",
		Status:   engine.Stuck,
		Output: &document.Output{
			Visited: []engine.Position{{X: 0, Y: 0}, {X: 1, Y: 0}},
			Cleaned: []engine.Position{{X: 1, Y: 0}},
			Final:   document.Final{X: 1, Y: 0, Facing: "W"},
			Battery: 12,
		},
		Steps: []engine.Step{
			{Number: 1, Phase: engine.PhaseScript, Command: engine.Advance, From: engine.Position{X: 0, Y: 0}, To: engine.Position{X: 1, Y: 0}, Facing: engine.East, BatteryBefore: 20, BatteryAfter: 18, Success: true},
			{Number: 2, Phase: engine.PhaseBackoff, Strategy: 2, Command: engine.TurnRight, From: engine.Position{X: 1, Y: 0}, To: engine.Position{X: 1, Y: 0}, Facing: engine.South, BatteryBefore: 18, BatteryAfter: 17, Success: true},
		},
		Commands: 4,
		Executed: 2,
	}
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content, got none")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
		case "/bad":
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{"error": "No battery given.", "code": 400})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	var response map[string]string
	if err := client.apiCall(ctx, "GET", "/ok", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("Unexpected response: %v", response)
	}

	if err := client.apiCall(ctx, "GET", "/bad", nil, nil); err == nil || err.Error() != "No battery given." {
		t.Errorf("Expected API error message, got %v", err)
	}

	if err := client.apiCall(ctx, "GET", "/boom", nil, nil); err == nil || !strings.Contains(err.Error(), "API error") {
		t.Errorf("Expected 'API error', got %v", err)
	}
}

func TestClient_apiCall_Unreachable(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")
	if err := client.apiCall(context.Background(), "GET", "/api/health", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_handleSimulate(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/runs" {
			t.Errorf("Expected POST /api/runs, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(newTestRun())
	}))
	defer server.Close()

	client := NewClient(server.URL)
	request := callRequest("simulate", map[string]interface{}{
		"map":      []interface{}{[]interface{}{"S", "S"}},
		"start":    map[string]interface{}{"X": 0, "Y": 0, "facing": "E"},
		"commands": []interface{}{"A"},
		"battery":  20,
		"intent":   "extra arguments are not forwarded",
	})

	result, err := client.handleSimulate(context.Background(), request)
	if err != nil {
		t.Fatalf("handleSimulate failed: %v", err)
	}

	if _, ok := body["intent"]; ok {
		t.Error("Only document fields should be forwarded")
	}
	if len(body) != 4 {
		t.Errorf("Expected 4 document fields, got %v", body)
	}

	text := resultText(t, result)
	for _, want := range []string{
		"Run: run-123 lobby",
		"Status: stuck",
		"Final: (1,0) facing W | Battery: 12",
		"Visited (2): (0,0) (1,0)",
		"Cleaned (1): (1,0)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_handleRunScenario(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/scenarios/missing/run" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "scenario not found"})
			return
		}
		if r.Method != "POST" || r.URL.Path != "/api/scenarios/lobby/run" {
			t.Errorf("Expected POST /api/scenarios/lobby/run, got %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(newTestRun())
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	result, err := client.handleRunScenario(ctx, callRequest("run_scenario", map[string]interface{}{"scenario": "lobby"}))
	if err != nil {
		t.Fatalf("handleRunScenario failed: %v", err)
	}
	if !strings.Contains(resultText(t, result), "Status: stuck") {
		t.Errorf("Unexpected result: %s", resultText(t, result))
	}

	result, _ = client.handleRunScenario(ctx, callRequest("run_scenario", map[string]interface{}{"scenario": "missing"}))
	if !result.IsError || !strings.Contains(resultText(t, result), "scenario not found") {
		t.Errorf("Expected tool error, got %+v", result)
	}

	result, _ = client.handleRunScenario(ctx, callRequest("run_scenario", map[string]interface{}{}))
	if !result.IsError {
		t.Error("Expected tool error without scenario")
	}
}

func TestClient_handleGetRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/runs/run-123" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(newTestRun())
	}))
	defer server.Close()

	client := NewClient(server.URL)

	result, err := client.handleGetRun(context.Background(), callRequest("get_run", map[string]interface{}{
		"run_id":        "run-123",
		"include_steps": true,
	}))
	if err != nil {
		t.Fatalf("handleGetRun failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"Steps:", "script", "backoff#2", "batt 20→18", "TR"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}
}

func TestClient_handleListRuns(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 1,
			"total": 3,
			"runs":  []*service.RunResult{newTestRun()},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleListRuns(context.Background(), callRequest("list_runs", map[string]interface{}{
		"scenario": "lobby",
		"limit":    float64(1),
	}))
	if err != nil {
		t.Fatalf("handleListRuns failed: %v", err)
	}

	if query != "limit=1&scenario=lobby" {
		t.Errorf("Unexpected query %q", query)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Runs (1 of 3)") || !strings.Contains(text, "run-123 lobby status=stuck battery=12") {
		t.Errorf("Unexpected result: %s", text)
	}
}

func TestClient_handleListScenarios(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]service.ScenarioInfo{
			{Filename: "lobby.yaml", ScenarioID: "lobby", Rows: 4, FloorCells: 14, Commands: 9, ScriptCost: 25, Battery: 80},
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleListScenarios(context.Background(), callRequest("list_scenarios", nil))
	if err != nil {
		t.Fatalf("handleListScenarios failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "• lobby (lobby.yaml)") || !strings.Contains(text, "Script cost: 25, Battery: 80") {
		t.Errorf("Unexpected result: %s", text)
	}
}

func TestClient_handleSaveScenario(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"message": "Scenario saved successfully", "scenario_id": "hall"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleSaveScenario(context.Background(), callRequest("save_scenario", map[string]interface{}{
		"name":     "hall",
		"map":      []interface{}{[]interface{}{"S"}},
		"start":    map[string]interface{}{"X": 0, "Y": 0, "facing": "N"},
		"commands": []interface{}{},
		"battery":  1,
	}))
	if err != nil {
		t.Fatalf("handleSaveScenario failed: %v", err)
	}
	if path != "/api/scenarios/hall" {
		t.Errorf("Unexpected path %s", path)
	}
	if !strings.Contains(resultText(t, result), "hall") {
		t.Errorf("Unexpected result: %s", resultText(t, result))
	}

	result, _ = client.handleSaveScenario(context.Background(), callRequest("save_scenario", map[string]interface{}{}))
	if !result.IsError {
		t.Error("Expected tool error without name")
	}
}

func TestClient_handleRobotInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleRobotInstructions(context.Background(), callRequest("robot_instructions", nil))
	if err != nil {
		t.Fatalf("handleRobotInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"COMMANDS AND COSTS:", "C  - clean the current cell (5 units)", "4. TR, B, TR, A", "sorted by Y, then X"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in instructions", want)
		}
	}
}

func TestFormatRunResult_NoOutput(t *testing.T) {
	text := formatRunResult(&service.RunResult{ID: "x", Status: engine.LowBatteryHalt, Error: "low battery"})
	if !strings.Contains(text, "(ad-hoc)") || !strings.Contains(text, "Halted: low battery") {
		t.Errorf("Unexpected result: %s", text)
	}
}
