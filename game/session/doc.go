// Package session keeps the live Snake sessions of a server process.
//
// A Manager maps short IDs to service.Session values. Every session owns its
// own engine and tick scheduler: Create builds both and starts the first run
// right away, Delete stops the scheduler before forgetting the session.
//
// IDs are four lowercase hex characters drawn from crypto/rand. A collision
// with a live session triggers a fresh draw; after a bounded number of tries
// Create gives up with ErrSessionAlreadyExists.
//
// Renderers installed with NewManagerWithRenderer receive every snapshot the
// sessions produce, which is how the websocket hub learns about ticks.
//
//	sessions := session.NewManagerWithRenderer(hub)
//	sess, err := sessions.Create("", cfg)
//	if err != nil {
//		return err
//	}
//	defer sessions.StopAll()
//
// CleanupExpiredSessions drops sessions nobody has touched within maxAge.
// Nothing survives a restart of the process.
package session
