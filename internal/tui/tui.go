package tui

import (
	"context"

	"collablist/pkg/listsync"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the list screen until the user quits or ctx is done. Controller
// callbacks arrive on other goroutines; they are forwarded into the event
// loop with Program.Send so the model is only touched from one goroutine.
func Run(ctx context.Context, ctrl *listsync.Controller) error {
	p := tea.NewProgram(New(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	ctrl.OnChange(func(s listsync.State) { p.Send(StateMsg(s)) })
	defer ctrl.Close()

	_, err := p.Run()
	return err
}
