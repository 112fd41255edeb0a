package tui

import (
	"fmt"
	"strings"
)

// Status shows what the assistant is wired up to.
type Status struct {
	model        string
	databasePath string
	channels     map[string]bool
	busConnected bool
}

func NewStatus(model, databasePath string, channels map[string]bool, busConnected bool) *Status {
	return &Status{
		model:        model,
		databasePath: databasePath,
		channels:     channels,
		busConnected: busConnected,
	}
}

func (s *Status) View(width, height int) string {
	var channels []string
	for name, up := range s.channels {
		state := "off"
		if up {
			state = "up"
		}
		channels = append(channels, fmt.Sprintf("%s: %s", name, state))
	}
	if len(channels) == 0 {
		channels = append(channels, "none")
	}

	busState := "off"
	if s.busConnected {
		busState = "connected"
	}

	content := fmt.Sprintf(
		"Model: %s\nDatabase: %s\nChannels:\n  %s\nEvent bus: %s",
		s.model,
		s.databasePath,
		strings.Join(channels, "\n  "),
		busState,
	)
	return panelStyle.Width(width).Height(height).Render(content)
}
