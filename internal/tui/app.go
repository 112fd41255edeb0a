// Package tui is a local chat console for talking to the assistant
// without a messaging channel. Useful for development and for driving
// the assistant from a terminal on the same box.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/foremanhq/foreman/internal/bus"
)

type Panel int

const (
	ChatPanel Panel = iota
	StatusPanel
	EventsPanel
)

// Handler processes one user message and returns the assistant's reply.
type Handler interface {
	HandleMessage(ctx context.Context, text string) string
}

type replyMsg string

type eventMsg bus.Event

type App struct {
	width, height int
	currentPanel  Panel
	transcript    *transcript
	status        *Status
	events        *Events
	input         textinput.Model
	keys          KeyMap
	handler       Handler
	eventCh       <-chan bus.Event
	started       time.Time
}

// NewApp builds the console. eventCh may be nil when no event bus is
// configured; the events panel then stays empty.
func NewApp(handler Handler, status *Status, eventCh <-chan bus.Event) *App {
	input := textinput.New()
	input.Placeholder = "Tell me what's happening..."
	input.Focus()

	return &App{
		currentPanel: ChatPanel,
		transcript:   newTranscript(),
		status:       status,
		events:       NewEvents(),
		input:        input,
		keys:         DefaultKeyMap,
		handler:      handler,
		eventCh:      eventCh,
		started:      time.Now(),
	}
}

func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if a.eventCh != nil {
		cmds = append(cmds, a.waitForEvent())
	}
	return tea.Batch(cmds...)
}

func (a *App) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-a.eventCh
		if !ok {
			return nil
		}
		return eventMsg(e)
	}
}

func (a *App) sendToAssistant(text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		return replyMsg(a.handler.HandleMessage(ctx, text))
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Tab):
			a.currentPanel = (a.currentPanel + 1) % 3
		case msg.String() == "enter":
			text := a.input.Value()
			if text != "" {
				a.transcript.say("you", text)
				a.input.Reset()
				cmds = append(cmds, a.sendToAssistant(text))
			}
		}
	case replyMsg:
		a.transcript.say("foreman", string(msg))
	case eventMsg:
		a.events.Add(bus.Event(msg))
		cmds = append(cmds, a.waitForEvent())
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	}

	cmds = append(cmds, a.transcript.update(msg))
	var cmd tea.Cmd
	a.events, cmd = a.events.Update(msg)
	cmds = append(cmds, cmd)
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Starting..."
	}

	statusBar := a.statusBarView()
	inputBar := inputStyle.Render(a.input.View())

	contentHeight := a.height - lipgloss.Height(statusBar) - lipgloss.Height(inputBar)

	leftWidth := int(float64(a.width) * 0.7)
	rightWidth := a.width - leftWidth

	chatView := a.transcript.render(leftWidth, contentHeight)
	var rightView string
	switch a.currentPanel {
	case EventsPanel:
		rightView = a.events.View(rightWidth, contentHeight)
	default:
		rightView = a.status.View(rightWidth, contentHeight)
	}

	layout := lipgloss.JoinHorizontal(lipgloss.Top, chatView, rightView)

	return lipgloss.JoinVertical(lipgloss.Left, statusBar, layout, inputBar)
}

func (a *App) statusBarView() string {
	uptime := time.Since(a.started).Round(time.Second)
	return statusBarStyle.Width(a.width).Render(fmt.Sprintf("Foreman | Uptime: %s | tab: panels, q: quit", uptime))
}
