// Package notify carries human-readable sync status messages to observers.
// Notifications are purely observational and never required for correctness.
package notify

// Notifier receives status strings emitted at connect, per-table fetch,
// per-table ensure/apply, and pass-complete milestones.
type Notifier interface {
	Notify(msg string)
}

// Nop is a Notifier that discards all messages.
type Nop struct{}

// Notify discards the message.
func (Nop) Notify(string) {}

// Func adapts a plain function to the Notifier interface.
type Func func(msg string)

// Notify calls the wrapped function.
func (f Func) Notify(msg string) { f(msg) }
