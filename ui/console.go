package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Console is a Document that renders its changes as lines on a writer.
// It mounts its own cart badge, since a terminal has no page markup.
type Console struct {
	*Document

	mu sync.Mutex
	w  io.Writer
}

// NewConsole returns a console writing to w.
func NewConsole(w io.Writer) *Console {
	c := &Console{Document: NewDocument(), w: w}
	MountBadge(c.Document)
	c.Subscribe(c.render)
	return c
}

func (c *Console) render(ch Change) {
	line := renderLine(ch)
	if line == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, line)
}

func renderLine(ch Change) string {
	el := ch.Element
	switch ch.Op {
	case OpAlert:
		return "! " + ch.Message
	case OpNavigate:
		return "-> " + ch.Message
	case OpAppend:
		switch {
		case el.ID == LoaderID && el.Visible:
			return "... loading"
		case strings.Contains(el.Class, "alert-success"):
			return "[ok] " + el.Text
		case strings.Contains(el.Class, "alert"):
			return "[error] " + el.Text
		}
	case OpUpdate:
		switch el.ID {
		case LoaderID:
			if el.Visible {
				return "... loading"
			}
		case BadgeID:
			if el.Visible {
				return "cart: " + el.Text
			}
			return "cart: empty"
		}
	}
	return ""
}
