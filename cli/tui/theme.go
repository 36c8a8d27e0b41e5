package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds every style used by the views.
type Theme struct {
	TitleStyle         lipgloss.Style
	BorderStyle        lipgloss.Style
	PreviewBorderStyle lipgloss.Style
	NormalItemStyle    lipgloss.Style
	SelectedItemStyle  lipgloss.Style
	MarkedItemStyle    lipgloss.Style
	DirectoryStyle     lipgloss.Style
	FileStyle          lipgloss.Style
	PreviewStyle       lipgloss.Style
	StatusBarStyle     lipgloss.Style
	ErrorStyle         lipgloss.Style
	WarningStyle       lipgloss.Style
	CommandStyle       lipgloss.Style
	HelpStyle          lipgloss.Style
}

func DefaultTheme() *Theme {
	accent := lipgloss.Color("39")
	muted := lipgloss.Color("241")

	return &Theme{
		TitleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1),
		BorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		PreviewBorderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted),
		NormalItemStyle:   lipgloss.NewStyle(),
		SelectedItemStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(accent),
		MarkedItemStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		DirectoryStyle:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		FileStyle:         lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		PreviewStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		StatusBarStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236")),
		ErrorStyle:        lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		WarningStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		CommandStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
		HelpStyle:         lipgloss.NewStyle().Foreground(muted),
	}
}
