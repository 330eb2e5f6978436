// Package websocket provides the live run feed of the cleaning robot server.
//
// A central Hub owns every connection. Clients subscribe to one topic when
// they connect: a scenario name (?scenario=lobby) or, without the parameter,
// AllTopics. Each finished run is broadcast as
//
//	{"topic": "lobby", "event": "run_completed", "run": {...}}
//
// to the subscribers of its scenario and to the AllTopics subscribers. Ad-hoc
// runs have no scenario and reach only AllTopics subscribers.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("scenario"))
//	})
//
// Clients whose send buffer fills up are disconnected rather than slowing
// the hub down.
package websocket
