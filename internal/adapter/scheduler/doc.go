// Package scheduler keeps a named registry of periodic jobs built with
// periodicd/pkg/periodic and controls them as a group.
//
// Features:
//   - Type-erased Job view of any periodic.Periodic[T] via Adapt
//   - Unique names (duplicates are a Conflict error)
//   - StartAll with an optional start delay, StopAll, StopContext
//   - Snapshot of every job's periodic.Status in registration order
//   - Hooks that log run failures and loop exits and forward to JobHooks
//
// Basic usage:
//
//	s := scheduler.New(scheduler.Config{Logger: logger})
//
//	p, err := periodic.New(work, time.Minute, periodic.WithHooks(s.Hooks()))
//	if err != nil {
//		return err
//	}
//	if err := s.Add("sqlite", scheduler.Adapt(p)); err != nil {
//		return err
//	}
//
//	_ = s.StartAll(5 * time.Second)
//	defer s.StopContext(ctx)
//
// Stopping a job ends its driving loop only. Executions already in flight run
// to completion and may still update the job's result.
package scheduler
