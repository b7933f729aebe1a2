package ui

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind selects the toast style.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Toast animation classes.
const (
	ClassEnter = "slide-down"
	ClassExit  = "slide-up"
)

const (
	DefaultToastDisplay = 3 * time.Second
	DefaultToastExit    = 300 * time.Millisecond
)

// Notifier shows transient toasts. Each toast stays for the display period,
// switches to its exit animation, and is removed after the exit period.
// Toasts are independent: no queue, no cap, no early dismissal.
type Notifier struct {
	surface Surface
	display time.Duration
	exit    time.Duration

	pending sync.WaitGroup
}

// NewNotifier returns a Notifier drawing on s. Non-positive durations use the
// defaults.
func NewNotifier(s Surface, display, exit time.Duration) *Notifier {
	if display <= 0 {
		display = DefaultToastDisplay
	}
	if exit <= 0 {
		exit = DefaultToastExit
	}
	return &Notifier{surface: s, display: display, exit: exit}
}

// Notify mounts a toast and schedules its removal. It returns the element.
func (n *Notifier) Notify(message string, kind Kind) *Element {
	base := toastClass(kind)
	el := NewElement("toast-"+uuid.NewString(), base+" "+ClassEnter)
	el.SetText(message)
	n.surface.Append(el)

	n.pending.Add(1)
	time.AfterFunc(n.display, func() {
		el.SetClass(base + " " + ClassExit)
		time.AfterFunc(n.exit, func() {
			defer n.pending.Done()
			n.surface.Remove(el)
		})
	})
	return el
}

// Wait blocks until every toast shown so far has been removed.
func (n *Notifier) Wait() {
	n.pending.Wait()
}

func toastClass(kind Kind) string {
	if kind == KindSuccess {
		return "alert alert-success"
	}
	return "alert alert-danger"
}
