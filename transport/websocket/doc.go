// Package websocket streams game changes to spectators.
//
// The websocket package implements:
//   - Per-game subscriptions over WebSocket connections
//   - Fan-out of service events to every client watching a game
//   - Connection lifecycle management with ping/pong keepalive
//
// Architecture:
//
// A central Hub owns every client. Registration, removal and broadcasts
// are all handled on the goroutine running Hub.Run, so the client map is
// never shared. Each connection gets a read pump and a write pump.
//
// The Hub implements service.Notifier. Wire it into the session service and
// every stored change, whichever transport caused it, reaches spectators.
// Notify never blocks the caller; when the broadcast queue is full the
// event is dropped and logged.
//
// Message Protocol:
//
// Clients subscribe with ?game=<id>. They first receive a snapshot of the
// game, then one JSON Message per event:
//
//	{"game_id":"G1","event":"move","player":"alice","move":"e2e4","game":{...}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	svc := service.NewSessionService(store, presets, oracle,
//		service.WithNotifier(hub))
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("game"), nil)
//	})
package websocket
