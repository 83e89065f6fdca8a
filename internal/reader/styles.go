package reader

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#00AFAF")
	colorDim    = lipgloss.Color("#6C6C6C")
	colorFaint  = lipgloss.Color("#444444")
	colorWarn   = lipgloss.Color("#FFAF00")
	colorError  = lipgloss.Color("#FF5F5F")
	colorLive   = lipgloss.Color("#5FD75F")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	statusStyle = lipgloss.NewStyle().Foreground(colorDim)

	speakingStyle = lipgloss.NewStyle().Foreground(colorLive).Bold(true)

	chunkStyle = lipgloss.NewStyle().Foreground(colorDim).Italic(true)

	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)

	questionStyle = lipgloss.NewStyle().Foreground(colorWarn)

	dividerStyle = lipgloss.NewStyle().Foreground(colorFaint)

	errorStyle = lipgloss.NewStyle().Foreground(colorError)

	keyStyle = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)

	keyDescStyle = lipgloss.NewStyle().Foreground(colorDim)
)
