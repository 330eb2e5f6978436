// Package mcp exposes the cleaning robot simulator as Model Context Protocol
// tools.
//
// The Client is a thin proxy: every tool call becomes a request to the REST
// API, so the MCP server and the HTTP server always share one run store and
// one scenario directory.
//
// MCP Tools:
//   - simulate: run an ad-hoc input document
//   - run_scenario: run a stored scenario
//   - list_scenarios, save_scenario: browse and extend the scenario directory
//   - get_run, list_runs, delete_run: inspect finished runs
//   - robot_instructions: the rules of the simulation
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST JSON-RPC messages to /mcp on the main server
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
