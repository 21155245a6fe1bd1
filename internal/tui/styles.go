package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/better-hash/ai-video-generator/internal/controller"
)

var (
	accent      = lipgloss.Color("#8BC34A")
	muted       = lipgloss.Color("#6b7280")
	destructive = lipgloss.Color("#e53935")
	warning     = lipgloss.Color("#FFC107")
	info        = lipgloss.Color("#2196F3")
)

// Styles groups the lipgloss styles used by the studio.
type Styles struct {
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Selected  lipgloss.Style
	Cursor    lipgloss.Style
	Box       lipgloss.Style
	Help      lipgloss.Style
	notice    map[controller.Level]lipgloss.Style
}

// DefaultStyles returns the studio palette.
func DefaultStyles() Styles {
	return Styles{
		Tab:       lipgloss.NewStyle().Padding(0, 2).Foreground(muted),
		ActiveTab: lipgloss.NewStyle().Padding(0, 2).Bold(true).Foreground(accent).Underline(true),
		Title:     lipgloss.NewStyle().Bold(true),
		Muted:     lipgloss.NewStyle().Foreground(muted),
		Selected:  lipgloss.NewStyle().Foreground(accent),
		Cursor:    lipgloss.NewStyle().Bold(true),
		Box:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1),
		Help:      lipgloss.NewStyle().Foreground(muted).Italic(true),
		notice: map[controller.Level]lipgloss.Style{
			controller.LevelInfo:    lipgloss.NewStyle().Foreground(info),
			controller.LevelSuccess: lipgloss.NewStyle().Foreground(accent),
			controller.LevelWarning: lipgloss.NewStyle().Foreground(warning),
			controller.LevelError:   lipgloss.NewStyle().Foreground(destructive).Bold(true),
		},
	}
}

// Notice renders a notice in its level colour.
func (s Styles) Notice(n controller.Notice) string {
	style, ok := s.notice[n.Level]
	if !ok {
		style = s.Muted
	}
	return style.Render(n.Text)
}
