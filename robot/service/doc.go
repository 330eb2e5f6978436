// Package service provides the business logic layer of the cleaning robot
// simulator.
//
// Core Interfaces:
//
// RobotService is the main service interface used by the REST server and
// the MCP tools. RunStore keeps finished runs and ScenarioManager loads the
// named input documents of the scenario directory.
//
// Architecture:
//
// Every run builds a fresh engine from its input document, executes the
// whole script and stores a RunResult. Engines are never shared between
// requests, so concurrent runs of the same scenario are independent and
// produce identical outputs.
//
// Usage:
//
//	store := runs.NewStore()
//	scenarios, _ := config.NewManager("scenarios")
//	svc := service.NewRobotService(store, scenarios)
//
//	result, err := svc.RunScenario(ctx, "lobby")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Status, result.Output.Battery)
package service
