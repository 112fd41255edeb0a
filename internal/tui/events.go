package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/foremanhq/foreman/internal/bus"
)

// Events tails the assistant's event stream: completed turns, failures,
// briefs and reminders going out.
type Events struct {
	viewport viewport.Model
	events   []bus.Event
}

func NewEvents() *Events {
	vp := viewport.New(0, 0)
	vp.SetContent("Event stream\n")
	return &Events{
		viewport: vp,
		events:   []bus.Event{},
	}
}

func (e *Events) Update(msg tea.Msg) (*Events, tea.Cmd) {
	var cmd tea.Cmd
	e.viewport, cmd = e.viewport.Update(msg)
	return e, cmd
}

func (e *Events) View(width, height int) string {
	e.viewport.Width = width - 2
	e.viewport.Height = height - 2
	return panelStyle.Width(width).Height(height).Render(e.viewport.View())
}

func (e *Events) Add(ev bus.Event) {
	e.events = append(e.events, ev)
	e.updateContent()
	e.viewport.GotoBottom()
}

func (e *Events) updateContent() {
	var sb strings.Builder
	for _, ev := range e.events {
		style := eventStyle
		if ev.Type == bus.EventTurnFailed {
			style = style.Foreground(flagRed)
		}
		line := fmt.Sprintf("[%s] %s", ev.Type, ev.Outcome)
		if ev.Detail != "" {
			line += " " + ev.Detail
		}
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}
	e.viewport.SetContent(sb.String())
}
