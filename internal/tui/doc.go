// Package tui provides the terminal dashboard for the metrics watch command.
//
// The dashboard is read-only: it polls the metrics store on a fixed refresh
// rate and renders a per-template summary table plus the most recent
// validation records. Users can only quit with 'q' or Ctrl+C.
//
// Usage:
//
//	dash := tui.NewDashboard(store, 2*time.Second)
//	program := tea.NewProgram(dash, tea.WithAltScreen())
//	_, err := program.Run()
package tui
