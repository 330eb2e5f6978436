// Package api provides the HTTP REST API of the cleaning robot server.
//
// Endpoints:
//
// Runs:
//   - POST /api/runs - Run an input document (JSON, or YAML with a YAML Content-Type)
//   - GET /api/runs - List runs, most recent first (?scenario=, ?limit=)
//   - GET /api/runs/{id} - Get one run with its step trace (?steps=false omits it)
//   - DELETE /api/runs/{id} - Delete a run
//
// Scenarios:
//   - GET /api/scenarios - List the scenario directory
//   - GET /api/scenarios/{name} - Get a scenario document
//   - POST /api/scenarios/{name} - Validate and save a scenario document
//   - POST /api/scenarios/{name}/run - Run a stored scenario
//
// Other:
//   - GET /api/health - Health check
//   - GET /ws?scenario={name} - Live feed of finished runs
//
// Every finished run is also broadcast to WebSocket subscribers.
//
// Usage:
//
//	server := api.NewServer(robotService, hub)
//	http.ListenAndServe(":8080", server)
//
// Error Handling:
//
// Errors are returned as JSON with an HTTP status code. Invalid input
// documents map to 400, unknown runs and scenarios to 404:
//
//	{
//	  "error": "invalid scenario: No battery given.",
//	  "code": 400
//	}
package api
