// Package runs provides the in-memory registry of finished simulation runs.
//
// Every run gets a UUID when it is added without one. Lookups are
// case-insensitive and the store is safe for concurrent use. Nothing is
// persisted; CleanupExpired drops runs older than a given age and is meant
// to be called periodically by the server.
//
// Usage:
//
//	store := runs.NewStore()
//	_ = store.Add(result)
//	run, err := store.Get(result.ID)
package runs
