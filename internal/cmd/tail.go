package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pipework/log2file/logview"
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Interactively view the latest run log",
	Long: `Open the latest run log of a pipeline in a scrollable viewer.

With --follow, the viewer reloads whenever the plugin writes to the file,
so a running pipeline can be watched live.`,
	RunE: runTail,
}

var tailFollow bool

func init() {
	rootCmd.AddCommand(tailCmd)

	tailCmd.Flags().BoolVarP(&tailFollow, "follow", "f", false, "Reload when the log file changes")
	tailCmd.Flags().StringVar(&logsFile, "file", "", "Read this log file instead of resolving run-latest.log")
}

func runTail(cmd *cobra.Command, args []string) error {
	path, err := resolveLogFile()
	if err != nil {
		return err
	}

	var watcher *fsnotify.Watcher
	if tailFollow {
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	m := newTailModel(path, watcher)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// fileChangedMsg signals that the watched log file was written to.
type fileChangedMsg struct{}

// watcherClosedMsg signals that the watcher shut down.
type watcherClosedMsg struct{}

var tailTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
var tailHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

// tailModel is the bubbletea model for the log viewer.
type tailModel struct {
	path     string
	watcher  *fsnotify.Watcher
	viewport viewport.Model
	ready    bool
	follow   bool
}

func newTailModel(path string, watcher *fsnotify.Watcher) tailModel {
	return tailModel{
		path:    path,
		watcher: watcher,
		follow:  watcher != nil,
	}
}

// waitForChange blocks on the next write event.
func (m tailModel) waitForChange() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-m.watcher.Events:
				if !ok {
					return watcherClosedMsg{}
				}
				if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
					return fileChangedMsg{}
				}
			case _, ok := <-m.watcher.Errors:
				if !ok {
					return watcherClosedMsg{}
				}
			}
		}
	}
}

func (m tailModel) Init() tea.Cmd {
	return m.waitForChange()
}

func (m tailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.viewport.GotoTop()
		case "G":
			m.viewport.GotoBottom()
		}

	case tea.WindowSizeMsg:
		headerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight)
			m.ready = true
			m.reload()
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight
		}

	case fileChangedMsg:
		m.reload()
		return m, m.waitForChange()

	case watcherClosedMsg:
		m.follow = false
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// reload re-reads the log file into the viewport, keeping the view pinned to
// the bottom so new lines stay visible while following.
func (m *tailModel) reload() {
	atBottom := m.viewport.AtBottom()

	entries, err := logview.ReadFile(m.path)
	if err != nil {
		m.viewport.SetContent(fmt.Sprintf("cannot read %s: %v", m.path, err))
		return
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		if style, ok := levelStyles[e.Level]; ok {
			lines[i] = style.Render(e.Raw)
		} else {
			lines[i] = e.Raw
		}
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))

	if atBottom || m.follow {
		m.viewport.GotoBottom()
	}
}

func (m tailModel) View() string {
	if !m.ready {
		return "loading..."
	}

	title := tailTitleStyle.Render(m.path)
	if m.follow {
		title += tailHelpStyle.Render("  (following)")
	}
	help := tailHelpStyle.Render("q quit · g/G top/bottom · arrows scroll")
	return fmt.Sprintf("%s\n%s\n%s", title, m.viewport.View(), help)
}
