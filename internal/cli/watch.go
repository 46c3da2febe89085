package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/drmercer/prompt-pad/internal/client"
	"github.com/drmercer/prompt-pad/pkg/models"
)

const watchInterval = 2 * time.Second

var (
	watchTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	watchPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	watchHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	watchErrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type watchModel struct {
	api    *client.HTTPClient
	status *client.Status
	err    error
	width  int
}

// statusLoadedMsg carries a polled snapshot back to the model.
type statusLoadedMsg struct {
	status *client.Status
	err    error
}

type watchTickMsg struct{}

func newWatchModel(api *client.HTTPClient) watchModel {
	return watchModel{api: api}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.load, watchTick())
}

func (m watchModel) load() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), watchInterval)
	defer cancel()
	status, err := m.api.Status(ctx)
	return statusLoadedMsg{status: status, err: err}
}

func watchTick() tea.Cmd {
	return tea.Tick(watchInterval, func(time.Time) tea.Msg {
		return watchTickMsg{}
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.load
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case watchTickMsg:
		return m, tea.Batch(m.load, watchTick())

	case statusLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = msg.status
		return m, nil
	}

	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	name := "prompt-pad"
	if m.status != nil {
		name = m.status.ServerName
	}
	b.WriteString(watchTitleStyle.Render(name + " tasks"))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(watchPanelStyle.Render(watchErrStyle.Render(fmt.Sprintf("error: %v", m.err))))
	case m.status == nil:
		b.WriteString(watchPanelStyle.Render("loading..."))
	case len(m.status.Tasks) == 0:
		b.WriteString(watchPanelStyle.Render("no tasks"))
	default:
		var rows []string
		rows = append(rows, fmt.Sprintf("%-20s %-12s %s", "ID", "STATUS", "RESULT"))
		for _, t := range m.status.Tasks {
			rows = append(rows, fmt.Sprintf("%-20s %s %s",
				truncate(t.ID, 20), renderStatus(t.Status), watchResult(t)))
		}
		b.WriteString(watchPanelStyle.Render(strings.Join(rows, "\n")))
	}

	b.WriteString("\n")
	b.WriteString(watchHelpStyle.Render("r: refresh  q: quit"))
	b.WriteString("\n")
	return b.String()
}

func watchResult(t models.Task) string {
	switch t.Status {
	case models.StatusCompleted:
		return truncate(t.Commit, 12)
	case models.StatusError:
		return truncate(strings.ReplaceAll(t.Error, "\n", " "), 40)
	}
	return ""
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live view of the task queue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newAPIClient()
		if err != nil {
			return err
		}
		p := tea.NewProgram(newWatchModel(api))
		_, err = p.Run()
		return err
	},
}

func init() {
	watchCmd.Flags().StringVar(&clientAddr, "addr", "", "Server address (default from config)")
	rootCmd.AddCommand(watchCmd)
}
