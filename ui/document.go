// Package ui renders user feedback: the loading overlay, toast notifications
// and the cart badge. Rendering targets a Surface, which is an in-memory
// Document in tests and a Console in the terminal client.
package ui

import (
	"slices"
	"sync"
)

// Surface is the element tree feedback is drawn on.
type Surface interface {
	// ElementByID returns the mounted element with id, or nil.
	ElementByID(id string) *Element
	Append(el *Element)
	Remove(el *Element)
}

// Root is a Surface that can also raise blocking alerts and change page.
type Root interface {
	Surface
	Alert(message string)
	Navigate(page string)
}

// Op is the kind of a Change.
type Op int

const (
	OpAppend Op = iota + 1
	OpUpdate
	OpRemove
	OpAlert
	OpNavigate
)

// Change describes one mutation of a Document.
type Change struct {
	Op      Op
	Element ElementState
	Message string
}

// Element is a node on a Surface. Setters are safe for concurrent use.
type Element struct {
	id string

	mu      sync.Mutex
	class   string
	text    string
	visible bool
	doc     *Document
}

// ElementState is an immutable copy of an element.
type ElementState struct {
	ID      string
	Class   string
	Text    string
	Visible bool
}

// NewElement returns a visible, unmounted element.
func NewElement(id, class string) *Element {
	return &Element{id: id, class: class, visible: true}
}

func (e *Element) ID() string { return e.id }

func (e *Element) Class() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.class
}

func (e *Element) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

func (e *Element) Visible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible
}

func (e *Element) SetClass(class string) {
	e.update(func() bool {
		if e.class == class {
			return false
		}
		e.class = class
		return true
	})
}

func (e *Element) SetText(text string) {
	e.update(func() bool {
		if e.text == text {
			return false
		}
		e.text = text
		return true
	})
}

func (e *Element) SetVisible(v bool) {
	e.update(func() bool {
		if e.visible == v {
			return false
		}
		e.visible = v
		return true
	})
}

// State returns a snapshot of the element.
func (e *Element) State() ElementState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Element) stateLocked() ElementState {
	return ElementState{ID: e.id, Class: e.class, Text: e.text, Visible: e.visible}
}

func (e *Element) update(mutate func() bool) {
	e.mu.Lock()
	changed := mutate()
	doc := e.doc
	st := e.stateLocked()
	e.mu.Unlock()
	if changed && doc != nil {
		doc.emit(Change{Op: OpUpdate, Element: st})
	}
}

func (e *Element) attach(d *Document) {
	e.mu.Lock()
	e.doc = d
	e.mu.Unlock()
}

// Document is an in-memory Root. Subscribers see every change in order of
// emission.
type Document struct {
	mu       sync.Mutex
	elems    []*Element
	alerts   []string
	location string
	subs     []func(Change)
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Subscribe registers fn to receive changes. fn must not block.
func (d *Document) Subscribe(fn func(Change)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs, fn)
}

func (d *Document) ElementByID(id string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, el := range d.elems {
		if el.id == id {
			return el
		}
	}
	return nil
}

func (d *Document) Append(el *Element) {
	d.mu.Lock()
	d.elems = append(d.elems, el)
	d.mu.Unlock()
	el.attach(d)
	d.emit(Change{Op: OpAppend, Element: el.State()})
}

func (d *Document) Remove(el *Element) {
	d.mu.Lock()
	i := slices.Index(d.elems, el)
	if i < 0 {
		d.mu.Unlock()
		return
	}
	d.elems = slices.Delete(d.elems, i, i+1)
	d.mu.Unlock()
	el.attach(nil)
	d.emit(Change{Op: OpRemove, Element: el.State()})
}

// Elements returns snapshots of the mounted elements in mount order.
func (d *Document) Elements() []ElementState {
	d.mu.Lock()
	elems := slices.Clone(d.elems)
	d.mu.Unlock()
	out := make([]ElementState, 0, len(elems))
	for _, el := range elems {
		out = append(out, el.State())
	}
	return out
}

func (d *Document) Alert(message string) {
	d.mu.Lock()
	d.alerts = append(d.alerts, message)
	d.mu.Unlock()
	d.emit(Change{Op: OpAlert, Message: message})
}

// Alerts returns every alert raised so far.
func (d *Document) Alerts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.alerts)
}

func (d *Document) Navigate(page string) {
	d.mu.Lock()
	d.location = page
	d.mu.Unlock()
	d.emit(Change{Op: OpNavigate, Message: page})
}

// Location is the last page navigated to.
func (d *Document) Location() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.location
}

func (d *Document) emit(ch Change) {
	d.mu.Lock()
	subs := slices.Clone(d.subs)
	d.mu.Unlock()
	for _, fn := range subs {
		fn(ch)
	}
}
