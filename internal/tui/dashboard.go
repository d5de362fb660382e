package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/personacraft/personad/internal/metrics"
)

// MetricsSource is the slice of the metrics store the dashboard reads.
type MetricsSource interface {
	GetMetricsSummary(q metrics.Query) ([]*metrics.SummaryRow, error)
	GetMetrics(q metrics.Query) ([]*metrics.Record, error)
}

const recentLimit = 8

// tickMsg fires on the refresh interval.
type tickMsg time.Time

// refreshMsg carries a fresh snapshot from the store.
type refreshMsg struct {
	summary []*metrics.SummaryRow
	recent  []*metrics.Record
	err     error
}

// Dashboard is the bubbletea model for the metrics watch view.
type Dashboard struct {
	source      MetricsSource
	refreshRate time.Duration

	table       table.Model
	recent      []*metrics.Record
	lastErr     error
	lastRefresh time.Time

	width    int
	height   int
	quitting bool

	titleStyle  lipgloss.Style
	statusStyle lipgloss.Style
	errorStyle  lipgloss.Style
	passStyle   lipgloss.Style
	failStyle   lipgloss.Style
}

// NewDashboard creates a dashboard over the given metrics source.
func NewDashboard(source MetricsSource, refreshRate time.Duration) *Dashboard {
	if refreshRate <= 0 {
		refreshRate = 2 * time.Second
	}

	columns := []table.Column{
		{Title: "Template", Width: 18},
		{Title: "Type", Width: 6},
		{Title: "Runs", Width: 6},
		{Title: "Success", Width: 8},
		{Title: "Avg Score", Width: 9},
		{Title: "Fallback", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return &Dashboard{
		source:      source,
		refreshRate: refreshRate,
		table:       t,
		width:       80,

		titleStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true),
		statusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		passStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")),
		failStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
	}
}

// Init implements tea.Model.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(d.refresh, d.tick())
}

// Update implements tea.Model.
func (d *Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			d.quitting = true
			return d, tea.Quit
		case "r":
			return d, d.refresh
		}

	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height

	case tickMsg:
		return d, tea.Batch(d.refresh, d.tick())

	case refreshMsg:
		d.apply(msg)
		return d, nil
	}

	var cmd tea.Cmd
	d.table, cmd = d.table.Update(msg)
	return d, cmd
}

// tick schedules the next refresh.
func (d *Dashboard) tick() tea.Cmd {
	return tea.Tick(d.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh reads a snapshot from the store.
func (d *Dashboard) refresh() tea.Msg {
	summary, err := d.source.GetMetricsSummary(metrics.Query{})
	if err != nil {
		return refreshMsg{err: err}
	}
	recent, err := d.source.GetMetrics(metrics.Query{Limit: recentLimit})
	if err != nil {
		return refreshMsg{err: err}
	}
	return refreshMsg{summary: summary, recent: recent}
}

// apply folds a snapshot into the model.
func (d *Dashboard) apply(msg refreshMsg) {
	d.lastErr = msg.err
	if msg.err != nil {
		return
	}

	rows := make([]table.Row, 0, len(msg.summary))
	for _, row := range msg.summary {
		rows = append(rows, table.Row{
			row.TemplateID,
			string(row.PersonaType),
			fmt.Sprintf("%d", row.TotalValidations),
			fmt.Sprintf("%.0f%%", row.SuccessRate*100),
			fmt.Sprintf("%.1f", row.AverageScore),
			fmt.Sprintf("%.0f%%", row.FallbackUsageRate*100),
		})
	}
	d.table.SetRows(rows)
	d.recent = msg.recent
	d.lastRefresh = time.Now()
}

// View implements tea.Model.
func (d *Dashboard) View() string {
	if d.quitting {
		return ""
	}

	title := d.titleStyle.Render("personad validation metrics")

	var status string
	if d.lastErr != nil {
		status = d.errorStyle.Render("error: " + d.lastErr.Error())
	} else if d.lastRefresh.IsZero() {
		status = d.statusStyle.Render("loading...")
	} else {
		status = d.statusStyle.Render(fmt.Sprintf("refreshed %s, every %s, q to quit",
			d.lastRefresh.Format("15:04:05"), d.refreshRate))
	}

	sections := []string{title, "", d.table.View(), "", d.recentView(), "", status}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// recentView renders the latest validation records as one line each.
func (d *Dashboard) recentView() string {
	if len(d.recent) == 0 {
		return d.statusStyle.Render("no validations recorded yet")
	}

	lines := make([]string, 0, len(d.recent)+1)
	lines = append(lines, d.titleStyle.Render("Recent validations"))
	for _, rec := range d.recent {
		verdict := d.passStyle.Render("pass")
		if !rec.IsValid {
			verdict = d.failStyle.Render("fail")
		}
		line := fmt.Sprintf("%s  %-18s %s  score %3d  errors %d",
			rec.ValidatedAt.Local().Format("15:04:05"),
			rec.TemplateID, verdict, rec.Score, rec.ErrorCount)
		if rec.UsedFallback {
			line += "  (fallback)"
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
