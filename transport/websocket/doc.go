// Package websocket pushes solve events to browser clients.
//
// A central Hub owns every connection. Clients subscribe to one scene with
// ?scene=<id> on the /ws endpoint, or to every scene by leaving it empty.
// Nothing is read from clients beyond control frames.
//
// Message Protocol:
//
// Outgoing messages are JSON:
//   - solve_complete: {scene_id, run_id, event, run: RunInfo}
//   - run_deleted:    {scene_id, run_id, event}
//   - scene_saved:    {scene_id, event, data: SceneInfo}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("scene"))
//	})
//
//	hub.BroadcastSolve(info)
package websocket
