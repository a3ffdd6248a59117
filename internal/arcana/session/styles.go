package session

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("39")
	colorSuccess = lipgloss.Color("42")
	colorWarning = lipgloss.Color("220")
	colorError   = lipgloss.Color("196")
	colorDim     = lipgloss.Color("241")

	inputEntryStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	outputEntryStyle = lipgloss.NewStyle()

	successEntryStyle = lipgloss.NewStyle().
				Foreground(colorSuccess)

	errorEntryStyle = lipgloss.NewStyle().
			Foreground(colorError)

	infoEntryStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	confirmEntryStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorWarning)

	logTimeStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	promptBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("237")).
			Padding(0, 1)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)
)

func entryStyle(kind EntryKind) lipgloss.Style {
	switch kind {
	case KindInput:
		return inputEntryStyle
	case KindSuccess:
		return successEntryStyle
	case KindError:
		return errorEntryStyle
	case KindInfo:
		return infoEntryStyle
	case KindConfirm:
		return confirmEntryStyle
	default:
		return outputEntryStyle
	}
}
