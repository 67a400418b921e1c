// Package shutdown provides graceful shutdown for minikv.
//
// Process level:
//
//   - Handler waits for SIGINT/SIGTERM and runs registered hooks in
//     reverse order under a timeout.
//
// Server level:
//
//   - Broadcast fans a single termination signal out to all connection
//     handlers.
//   - Shutdown is a handler's private view of that signal with a sticky
//     local flag.
//   - Tracker hands out completion tokens; its Wait returns once the last
//     token is released.
//
// Usage:
//
//	b := shutdown.NewBroadcast()
//	var t shutdown.Tracker
//	tok := t.Acquire()
//	go func(sd *shutdown.Shutdown) {
//		defer tok.Release()
//		sd.Recv()
//	}(b.Subscribe())
//	b.Fire()
//	_ = t.Wait(ctx)
package shutdown
