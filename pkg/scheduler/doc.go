// Package scheduler drives completion polls for lifecycle transitions. The
// controller exposes single-shot completion predicates; the poller here calls
// them at a fixed interval until they report done, the context is cancelled,
// or a deadline elapses. Cancellation stops further polling only; remote
// operations already submitted are not retractable.
package scheduler
