// Package ui is the interactive candidate picker: a scrollable list of
// everything discovery found, with origin badges and size labels.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"vidgrab/internal/media"
)

var (
	badgeDirect    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badgeEmbed     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	badgeEphemeral = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	badgeHunted    = lipgloss.NewStyle().Foreground(lipgloss.Color("133"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// IsInteractive reports whether stdout is a terminal the picker can use.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// item adapts a candidate to the list component.
type item struct {
	cand media.Candidate
}

func (i item) Title() string {
	return fmt.Sprintf("%s %s", originBadge(i.cand), i.cand.Title)
}

func (i item) Description() string {
	parts := []string{i.cand.Extension}
	if i.cand.SizeLabel != "" && i.cand.SizeLabel != media.SizeUnknown {
		parts = append(parts, i.cand.SizeLabel)
	}
	if i.cand.DurationSeconds > 0 {
		parts = append(parts, media.FormatDuration(i.cand.DurationSeconds))
	}
	if i.cand.Width > 0 && i.cand.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", i.cand.Width, i.cand.Height))
	}
	return dimStyle.Render(strings.Join(parts, "  "))
}

func (i item) FilterValue() string { return i.cand.Title }

func originBadge(c media.Candidate) string {
	switch {
	case c.Hunted:
		return badgeHunted.Render("[hunted]")
	case c.Origin == media.PlatformEmbed:
		return badgeEmbed.Render("[" + c.Platform + "]")
	case c.Origin == media.Ephemeral:
		return badgeEphemeral.Render("[ephemeral]")
	default:
		return badgeDirect.Render("[file]")
	}
}

type pickerModel struct {
	list   list.Model
	picked *media.Candidate
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if it, ok := m.list.SelectedItem().(item); ok {
				m.picked = &it.cand
			}
			return m, tea.Quit
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string { return m.list.View() }

// Pick shows the candidate list and returns the chosen one. A nil result
// with a nil error means the user backed out.
func Pick(candidates []media.Candidate) (*media.Candidate, error) {
	items := make([]list.Item, len(candidates))
	for i, c := range candidates {
		items[i] = item{cand: c}
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("%d media candidates", len(candidates))
	l.SetShowStatusBar(false)

	final, err := tea.NewProgram(pickerModel{list: l}, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, fmt.Errorf("running picker: %w", err)
	}
	return final.(pickerModel).picked, nil
}
