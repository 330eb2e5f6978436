// Package config manages the scenario directory of the cleaning robot.
//
// A scenario is an input document stored as a .json, .yaml or .yml file.
// Its scenario ID is the file name without the extension, so "lobby.yaml"
// is loaded as "lobby".
//
// The config package handles:
//   - Loading and caching validated scenario documents
//   - Listing scenarios with a short summary of each
//   - Saving new scenarios after validation
//   - Dropping cache entries when files change on disk
//
// Usage:
//
//	manager, err := config.NewManager("scenarios")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	doc, err := manager.LoadScenario("lobby")
//	scenarios, err := manager.ListScenarios()
//
//	// Keep the cache in sync with the directory
//	go manager.Watch(ctx, nil)
//
// Files that fail validation are skipped by ListScenarios and reported as
// ErrInvalidScenario by LoadScenario.
package config
