package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"tessera/internal/buildpipeline"
)

type rowState uint8

const (
	rowQueued rowState = iota
	rowWorking
	rowDone
	rowCached
	rowFailed
)

func (s rowState) finished() bool { return s >= rowDone }

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	faintStyle = lipgloss.NewStyle().Faint(true)
	rowStyles  = map[rowState]lipgloss.Style{
		rowQueued:  lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		rowWorking: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		rowDone:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		rowCached:  lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		rowFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

// scriptRow is one script's line in the view.
type scriptRow struct {
	path    string
	state   rowState
	stage   buildpipeline.Stage
	elapsed time.Duration
	cached  bool
	err     string
}

func (r scriptRow) label() string {
	switch r.state {
	case rowWorking:
		return r.stage.Label()
	case rowDone:
		return "done"
	case rowCached:
		return "cached"
	case rowFailed:
		return "error"
	}
	return "queued"
}

type progressModel struct {
	title    string
	final    buildpipeline.Stage
	events   <-chan buildpipeline.Event
	spinner  spinner.Model
	bar      progress.Model
	rows     []scriptRow
	byPath   map[string]int
	width    int
	done     bool
	canceled bool
}

type eventMsg buildpipeline.Event
type closedMsg struct{}

// NewProgressModel renders the progress of files as their events arrive.
// A script finishes when final reports done or cached, or any stage
// fails. The model quits when events is closed or the user presses
// ctrl+c; Canceled tells the two apart.
func NewProgressModel(title string, final buildpipeline.Stage, files []string, events <-chan buildpipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = rowStyles[rowWorking]

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	m := &progressModel{
		title:   title,
		final:   final,
		events:  events,
		spinner: sp,
		bar:     bar,
		rows:    make([]scriptRow, len(files)),
		byPath:  make(map[string]int, len(files)),
		width:   80,
	}
	for i, file := range files {
		m.rows[i] = scriptRow{path: file}
		m.byPath[file] = i
	}
	return m
}

// Canceled reports whether the user quit before the batch finished.
func Canceled(m tea.Model) bool {
	pm, ok := m.(*progressModel)
	return ok && pm.canceled
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return m, tea.Batch(m.apply(buildpipeline.Event(msg)), m.next())
	case closedMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.canceled = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.bar.Width = max(msg.Width-4, 10)
		}
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.rows) == 0 {
		return ""
	}
	var b strings.Builder
	if m.done {
		b.WriteString(titleStyle.Render("done: " + m.title))
	} else {
		b.WriteString(titleStyle.Render(m.spinner.View() + " " + m.title))
	}
	b.WriteString("\n\n")

	nameWidth := max(m.width-28, 20)
	for _, row := range m.rows {
		fmt.Fprintf(&b, "  %s %s", rowStyles[row.state].Render(fmt.Sprintf("%10s", row.label())), truncate(row.path, nameWidth))
		switch row.state {
		case rowDone, rowCached:
			b.WriteString(faintStyle.Render("  " + row.elapsed.Round(time.Microsecond).String()))
		case rowFailed:
			b.WriteString(faintStyle.Render("  " + truncate(row.err, max(m.width-nameWidth-16, 10))))
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if m.done {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

func (m *progressModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) apply(ev buildpipeline.Event) tea.Cmd {
	idx, ok := m.byPath[ev.File]
	if !ok {
		return nil
	}
	row := &m.rows[idx]
	if row.state.finished() {
		return nil
	}
	row.stage = ev.Stage
	row.elapsed += ev.Elapsed
	switch ev.Status {
	case buildpipeline.StatusWorking:
		row.state = rowWorking
	case buildpipeline.StatusCached:
		row.cached = true
		if ev.Stage == m.final {
			row.state = rowCached
		}
	case buildpipeline.StatusDone:
		if ev.Stage == m.final {
			row.state = rowDone
			if row.cached {
				row.state = rowCached
			}
		}
	case buildpipeline.StatusError:
		row.state = rowFailed
		if ev.Err != nil {
			row.err = firstLine(ev.Err.Error())
		}
	}
	return m.bar.SetPercent(m.percent())
}

// percent counts a finished script as one and an unfinished one by how
// far its current stage is toward final.
func (m *progressModel) percent() float64 {
	if len(m.rows) == 0 {
		return 0
	}
	last := stageIndex(m.final)
	total := 0.0
	for _, row := range m.rows {
		switch {
		case row.state.finished():
			total++
		case row.state == rowWorking && last >= 0:
			total += (float64(stageIndex(row.stage)) + 0.5) / float64(last+1)
		}
	}
	return total / float64(len(m.rows))
}

func stageIndex(stage buildpipeline.Stage) int {
	for i, s := range buildpipeline.Stages {
		if s == stage {
			return i
		}
	}
	return -1
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(value string, width int) string {
	switch {
	case width <= 0 || runewidth.StringWidth(value) <= width:
		return value
	case width <= 3:
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
