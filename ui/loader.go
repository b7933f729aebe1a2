package ui

import "sync"

// LoaderID identifies the overlay element.
const LoaderID = "globalLoader"

const loaderClass = "loader-overlay"

// Loader drives the full-viewport loading overlay. The element is created on
// first show and reused afterwards.
//
// The overlay is visible while at least one Acquire is outstanding or Show
// has pinned it, so overlapping requests never hide it early.
type Loader struct {
	surface Surface

	mu       sync.Mutex
	inflight int
	pinned   bool
}

// NewLoader returns a Loader drawing on s.
func NewLoader(s Surface) *Loader {
	return &Loader{surface: s}
}

// Show pins the overlay visible. Idempotent.
func (l *Loader) Show() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pinned = true
	l.apply()
}

// Hide removes the pin set by Show. Idempotent; outstanding acquisitions keep
// the overlay up.
func (l *Loader) Hide() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pinned = false
	l.apply()
}

// Acquire marks one operation in flight and returns its release. Calling the
// release more than once has no further effect.
func (l *Loader) Acquire() (release func()) {
	l.mu.Lock()
	l.inflight++
	l.apply()
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.inflight--
			l.apply()
		})
	}
}

// InFlight reports the number of outstanding acquisitions.
func (l *Loader) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight
}

// Visible reports whether the overlay is currently shown.
func (l *Loader) Visible() bool {
	el := l.surface.ElementByID(LoaderID)
	return el != nil && el.Visible()
}

// apply must be called with l.mu held.
func (l *Loader) apply() {
	want := l.pinned || l.inflight > 0
	el := l.surface.ElementByID(LoaderID)
	if el == nil {
		if !want {
			return
		}
		el = NewElement(LoaderID, loaderClass)
		l.surface.Append(el)
		return
	}
	el.SetVisible(want)
}
