package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"yt-batch-archiver/internal/config"
	"yt-batch-archiver/internal/ledger"
)

const watchRefreshInterval = 2 * time.Second

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	watchMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	watchErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	watchOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	watchPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type watchTickMsg time.Time

type watchLoadedMsg struct {
	sum statusSummary
	err error
}

type watchModel struct {
	led    *ledger.Ledger
	path   string
	group  string
	sum    statusSummary
	loaded bool
	err    error

	spin   spinner.Model
	prog   progress.Model
	width  int
	height int
}

func newWatchModel(cfg *config.Config, group string) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = watchTitleStyle
	return watchModel{
		led:   ledger.New(cfg.LedgerPath, nil),
		path:  cfg.LedgerPath,
		group: group,
		spin:  sp,
		prog:  progress.New(progress.WithDefaultGradient()),
	}
}

func runStatusWatch(ctx context.Context, cfg *config.Config, group string) error {
	p := tea.NewProgram(newWatchModel(cfg, group), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, loadSummaryCmd(m.led, m.group))
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.prog.Width = msg.Width - 8
		if m.prog.Width > 60 {
			m.prog.Width = 60
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	case watchLoadedMsg:
		m.sum = msg.sum
		m.err = msg.err
		m.loaded = true
		return m, tea.Tick(watchRefreshInterval, func(t time.Time) tea.Msg {
			return watchTickMsg(t)
		})
	case watchTickMsg:
		return m, loadSummaryCmd(m.led, m.group)
	default:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
}

func (m watchModel) View() string {
	title := watchTitleStyle.Render("yt-batch-archiver") + " " + watchMutedStyle.Render(m.path)
	if m.group != "" {
		title += watchMutedStyle.Render(" (channel " + m.group + ")")
	}

	var body string
	switch {
	case m.err != nil:
		body = watchErrorStyle.Render("ledger read failed: " + m.err.Error())
	case !m.loaded:
		body = m.spin.View() + " loading ledger..."
	default:
		percent := 0.0
		if m.sum.Total > 0 {
			percent = float64(m.sum.Done) / float64(m.sum.Total)
		}
		lines := []string{
			fmt.Sprintf("%s %s", m.prog.ViewAs(percent),
				watchOKStyle.Render(fmt.Sprintf("%d/%d done", m.sum.Done, m.sum.Total))),
			"",
			fmt.Sprintf("eligible for next run: %d", m.sum.Eligible),
		}
		for _, line := range statusLines(m.sum.Counts) {
			lines = append(lines, watchMutedStyle.Render(line))
		}
		body = lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	hint := watchMutedStyle.Render(fmt.Sprintf("refreshes every %s, q to quit", watchRefreshInterval))
	panel := watchPanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", hint))
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
	}
	return panel
}

func loadSummaryCmd(led *ledger.Ledger, group string) tea.Cmd {
	return func() tea.Msg {
		items, err := led.ReadAll()
		if err != nil {
			return watchLoadedMsg{err: err}
		}
		return watchLoadedMsg{sum: summarize(items, group)}
	}
}
