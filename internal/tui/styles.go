package tui

import "github.com/charmbracelet/lipgloss"

// Flowtime palette. Each color has a light and a dark terminal variant.
var (
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FB923C"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	colorMuted     = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	colorSuccess   = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	colorWarning   = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	colorError     = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	colorFg        = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#F3F4F6"}
	colorSubtle    = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"}
	colorHighlight = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#93C5FD"}
)

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func bordered(border lipgloss.Border, c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Border(border).BorderForeground(c)
}

var (
	// Header tabs: Timer / History / Settings.
	activeTabStyle = fg(colorPrimary).Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)
	inactiveTabStyle = fg(colorMuted).Padding(0, 2)

	// Mode switch, presets and history filters.
	activeChipStyle = fg(colorFg).Bold(true).Background(colorPrimary).Padding(0, 1)
	chipStyle       = fg(colorMuted).Padding(0, 1)

	panelStyle       = bordered(lipgloss.RoundedBorder(), colorSubtle).Padding(1, 2)
	activePanelStyle = bordered(lipgloss.RoundedBorder(), colorPrimary).Padding(1, 2)
	bannerStyle      = bordered(lipgloss.ThickBorder(), colorWarning).Padding(0, 2)

	// The clock face changes color with the run state.
	timerStyle        = fg(colorPrimary).Bold(true).Align(lipgloss.Center)
	timerRunningStyle = timerStyle.Foreground(colorSuccess)
	timerPausedStyle  = timerStyle.Foreground(colorWarning)
	segmentStyle      = fg(colorHighlight).Underline(true)

	titleStyle     = fg(colorFg).Bold(true)
	subtitleStyle  = fg(colorMuted).Italic(true)
	successStyle   = fg(colorSuccess)
	warningStyle   = fg(colorWarning)
	errorStyle     = fg(colorError).Bold(true)
	mutedStyle     = fg(colorMuted)
	highlightStyle = fg(colorHighlight)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = mutedStyle.Padding(0, 1)

	selectedItemStyle = fg(colorPrimary).Bold(true)
	normalItemStyle   = fg(colorFg)

	chartBarStyle = fg(colorSecondary)
)
