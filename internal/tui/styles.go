package tui

import (
	"collablist/pkg/listsync"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")).MarginBottom(1)
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	labelStyle   = lipgloss.NewStyle().Width(14).Foreground(lipgloss.Color("252"))
	buttonStyle  = lipgloss.NewStyle().Padding(0, 2).Background(lipgloss.Color("57")).Foreground(lipgloss.Color("230"))
	disabledBtn  = buttonStyle.Background(lipgloss.Color("240")).Foreground(lipgloss.Color("250"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	authorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	emptyStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("245")).Padding(1, 2)
	rowStyle     = lipgloss.NewStyle().PaddingLeft(2).MarginBottom(1)
	selectedRow  = rowStyle.Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("220")).PaddingLeft(1)

	statusStyles = map[listsync.StatusKind]lipgloss.Style{
		listsync.StatusInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		listsync.StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		listsync.StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		listsync.StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		listsync.StatusPlaying: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("48")),
	}
)

func statusStyle(kind listsync.StatusKind) lipgloss.Style {
	if s, ok := statusStyles[kind]; ok {
		return s
	}
	return statusStyles[listsync.StatusInfo]
}
