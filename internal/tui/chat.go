package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// transcriptCap bounds how many lines the chat panel keeps. Long
// sessions scroll; they don't grow without bound.
const transcriptCap = 500

// transcript is the scrolling chat history, pinned to the newest line.
type transcript struct {
	view  viewport.Model
	lines []string
}

func newTranscript() *transcript {
	v := viewport.New(0, 0)
	v.SetContent("Talk to your foreman. What's on today?\n")
	return &transcript{view: v}
}

func (t *transcript) say(speaker, text string) {
	t.lines = append(t.lines, speakerStyle(speaker).Render(speaker+":")+" "+text)
	if len(t.lines) > transcriptCap {
		t.lines = t.lines[len(t.lines)-transcriptCap:]
	}
	t.view.SetContent(strings.Join(t.lines, "\n") + "\n")
	t.view.GotoBottom()
}

func speakerStyle(speaker string) lipgloss.Style {
	if speaker == "you" {
		return youStyle
	}
	return foremanStyle
}

func (t *transcript) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	t.view, cmd = t.view.Update(msg)
	return cmd
}

func (t *transcript) render(width, height int) string {
	t.view.Width = width - 2
	t.view.Height = height - 2
	return panelStyle.Width(width).Height(height).Render(t.view.View())
}
