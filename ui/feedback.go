package ui

import "time"

// Options tunes Feedback.
type Options struct {
	ToastDisplay time.Duration
	ToastExit    time.Duration
}

// Feedback bundles the presentational helpers bound to one Root.
type Feedback struct {
	Root     Root
	Loader   *Loader
	Notifier *Notifier
	Badge    *Badge
}

// New builds the feedback helpers for root.
func New(root Root, opts Options) *Feedback {
	return &Feedback{
		Root:     root,
		Loader:   NewLoader(root),
		Notifier: NewNotifier(root, opts.ToastDisplay, opts.ToastExit),
		Badge:    NewBadge(root),
	}
}

// Alert raises a blocking alert on the root.
func (f *Feedback) Alert(message string) { f.Root.Alert(message) }

// Notify shows a toast.
func (f *Feedback) Notify(message string, kind Kind) { f.Notifier.Notify(message, kind) }

// Acquire holds the loading overlay until the returned release is called.
func (f *Feedback) Acquire() func() { return f.Loader.Acquire() }
