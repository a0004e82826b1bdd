// Package scheduler drives a game at a fixed, adjustable tick period.
//
// A Scheduler calls its TickFunc once per period until the function returns false
// or Stop is called. The period can be replaced while running; the pending timer is
// cancelled and a new one armed, so at most one timer is ever outstanding.
//
// Usage:
//
//	sched := scheduler.New(func() bool {
//		result := gameEngine.Step()
//		render(result.Snapshot)
//		return !result.Terminal
//	})
//	sched.Start(350 * time.Millisecond)
//	defer sched.Stop()
//
// The TickFunc runs with the scheduler's lock held and must not call back into
// the Scheduler. Tests replace the time source with WithClock.
package scheduler
