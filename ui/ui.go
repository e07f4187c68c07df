// Package ui provides the live cache dashboard behind `chime stats --watch`.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/dgnsrekt/chime/internal/cache"
)

const (
	defaultRefresh = 2 * time.Second

	// lines taken by the title, status, help and error rows around the table.
	chromeHeight = 6
)

// NewProgram returns a new Tea program rendering the given cache.
func NewProgram(c *cache.Manager) *tea.Program {
	log.Debug("starting dashboard", "dir", c.Dir())
	return tea.NewProgram(newModel(c), tea.WithAltScreen())
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// refreshMsg carries a fresh cache snapshot into the model.
type refreshMsg struct {
	stats cache.Statistics
	arts  []cache.Artifact
}

type model struct {
	cache   *cache.Manager
	refresh time.Duration

	spin  spinner.Model
	table table.Model

	stats cache.Statistics
	err   error

	width  int
	height int
	ready  bool
}

func newModel(c *cache.Manager) model {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle))

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = headerStyle
	s.Selected = selectedStyle
	t.SetStyles(s)

	return model{
		cache:   c,
		refresh: defaultRefresh,
		spin:    sp,
		table:   t,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.readCache())
}

// readCache snapshots the cache right away; tick does the same after the
// refresh interval. Both run on the Tea goroutine pool, the manager's own
// locking makes that safe.
func (m model) readCache() tea.Cmd {
	c := m.cache
	return func() tea.Msg {
		return refreshMsg{stats: c.Statistics(), arts: c.Entries()}
	}
}

func (m model) tick() tea.Cmd {
	c := m.cache
	return tea.Tick(m.refresh, func(time.Time) tea.Msg {
		return refreshMsg{stats: c.Statistics(), arts: c.Entries()}
	})
}

func (m model) maintain() tea.Cmd {
	c := m.cache
	return func() tea.Msg {
		if err := c.Maintain(); err != nil {
			return errMsg{err}
		}
		return refreshMsg{stats: c.Statistics(), arts: c.Entries()}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.readCache()
		case "m":
			return m, m.maintain()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(m.width))
		m.table.SetHeight(max(m.height-chromeHeight, 3))
		m.ready = true

	case refreshMsg:
		m.stats = msg.stats
		m.err = nil
		m.table.SetRows(rows(msg.arts))
		cmds = append(cmds, m.tick())

	case errMsg:
		m.err = msg.err
		cmds = append(cmds, m.tick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if !m.ready {
		return m.spin.View() + " reading cache"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("chime cache") + "\n")
	b.WriteString(m.statusLine() + "\n\n")
	b.WriteString(m.table.View() + "\n")
	b.WriteString(helpStyle.Render("r refresh • m maintain • q quit"))
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}
	return b.String()
}

func (m model) statusLine() string {
	s := m.stats
	line := fmt.Sprintf("%s %d artifacts, %s of %s", m.spin.View(), s.Items,
		humanize.Bytes(uint64(s.TotalSize)), humanize.Bytes(uint64(s.MaxSize)))
	if s.Expired > 0 {
		line += fmt.Sprintf(", %d expired", s.Expired)
	}
	if !s.LastMaintenance.IsZero() {
		line += statusNoteStyle.Render(" maintained " + humanize.Time(s.LastMaintenance))
	}
	return line
}

func rows(arts []cache.Artifact) []table.Row {
	out := make([]table.Row, len(arts))
	for i, a := range arts {
		out[i] = table.Row{
			a.Key,
			a.Voice,
			a.Duration.Round(100 * time.Millisecond).String(),
			humanize.Bytes(uint64(a.Size)),
			humanize.Time(a.CreatedAt),
		}
	}
	return out
}

func columns(width int) []table.Column {
	const fixed = 10 + 8 + 10 + 18 + 10
	key := width - fixed
	if key < 12 {
		key = 12
	}
	if key > 44 {
		key = 44
	}
	return []table.Column{
		{Title: "key", Width: key},
		{Title: "voice", Width: 10},
		{Title: "length", Width: 8},
		{Title: "size", Width: 10},
		{Title: "age", Width: 18},
	}
}
