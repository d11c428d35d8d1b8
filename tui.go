package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"whisperwave/audio"
	"whisperwave/capture"
	"whisperwave/notify"
	"whisperwave/transcript"
)

// TUI message types
type frameMsg []byte
type entriesChangedMsg struct{}
type toggleMsg struct{}
type toastMsg struct {
	Level notify.Level
	Text  string
}
type recordingStartedMsg struct{ err error }
type recordingStoppedMsg struct{ err error }
type ModeLineMsg struct{ Text string }
type DeviceLineMsg struct{ Text string }
type tickMsg time.Time

const (
	toastTTL     = 4 * time.Second
	waveRows     = 6
	minBarHeight = 3
)

type toast struct {
	level notify.Level
	text  string
	until time.Time
}

type modelStatus int

const (
	modelLoading modelStatus = iota
	modelReady
	modelFailed
)

type tuiModel struct {
	app  *app
	bars int

	recording   bool
	busy        bool // start or stop in flight
	recordStart time.Time
	frame       []byte
	model       modelStatus

	entries []transcript.Entry
	cursor  int
	toast   *toast

	now           time.Time
	width, height int
	modeLine      string
	deviceLine    string
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

// tuiSend delivers msg to the running program, if any.
func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// tuiNotifier shows notifications as toasts. Delivery never blocks the caller.
var tuiNotifier = notify.Func(func(level notify.Level, message string) {
	go tuiSend(toastMsg{Level: level, Text: message})
})

var (
	waveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	waveRecStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldHelp     = helpStyle.Bold(true)
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	okToast      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errToast     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func newTUIModel(a *app, bars int) tuiModel {
	if bars <= 0 {
		bars = 40
	}
	return tuiModel{
		app:      a,
		bars:     bars,
		now:      time.Now(),
		entries:  a.list.All(),
		modeLine: a.modeLine(),
	}
}

func NewTUIProgram(a *app, bars int) *tea.Program {
	a.list.OnChange(func() { go tuiSend(entriesChangedMsg{}) })
	return tea.NewProgram(newTUIModel(a, bars), tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case " ", "r":
			return m.toggle()
		case "j", "down":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "d", "x":
			if e, ok := m.selected(); ok {
				m.app.remove(e.ID)
				m.setEntries(m.app.list.All())
			}
		case "c", "y":
			if e, ok := m.selected(); ok && e.Status == transcript.Ready {
				a, id := m.app, e.ID
				return m, func() tea.Msg {
					a.copyEntry(id)
					return nil
				}
			}
		}

	case toggleMsg:
		return m.toggle()

	case tickMsg:
		m.now = time.Time(msg)
		m.model = m.modelStatus()
		if m.toast != nil && m.now.After(m.toast.until) {
			m.toast = nil
		}
		return m, tuiTick()

	case frameMsg:
		if m.recording {
			m.frame = msg
		}

	case entriesChangedMsg:
		m.setEntries(m.app.list.All())

	case toastMsg:
		m.toast = &toast{level: msg.Level, text: msg.Text, until: time.Now().Add(toastTTL)}

	case recordingStartedMsg:
		m.busy = false
		m.frame = nil
		m.recording = msg.err == nil
		if m.recording {
			m.recordStart = time.Now()
		}

	case recordingStoppedMsg:
		m.busy = false
		m.recording = m.app.session.State() == capture.Active
		m.frame = nil

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) modelStatus() modelStatus {
	switch {
	case m.app.loader.Ready():
		return modelReady
	case m.app.loader.Err() != nil && !m.app.loader.Loading():
		return modelFailed
	}
	return modelLoading
}

// toggle starts or stops recording off the UI goroutine. Starting is refused
// until the engine has loaded.
func (m tuiModel) toggle() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	a := m.app
	switch a.session.State() {
	case capture.Idle:
		if !a.loader.Ready() {
			text := "Speech model is still loading"
			if m.modelStatus() == modelFailed {
				text = notify.MsgModelLoad
			}
			m.toast = &toast{level: notify.Error, text: text, until: time.Now().Add(toastTTL)}
			return m, nil
		}
		m.busy = true
		return m, func() tea.Msg {
			err := a.start(func(frame []byte) {
				tuiSend(frameMsg(append([]byte(nil), frame...)))
			})
			return recordingStartedMsg{err: err}
		}
	case capture.Active:
		m.busy = true
		return m, func() tea.Msg {
			_, err := a.stop(context.Background())
			return recordingStoppedMsg{err: err}
		}
	}
	return m, nil
}

func (m *tuiModel) setEntries(entries []transcript.Entry) {
	m.entries = entries
	if m.cursor >= len(entries) {
		m.cursor = max(0, len(entries)-1)
	}
}

func (m tuiModel) selected() (transcript.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.entries) {
		return transcript.Entry{}, false
	}
	return m.entries[m.cursor], true
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	style := waveStyle
	if m.recording {
		style = waveRecStyle
	}
	var frame []byte
	if m.recording {
		frame = m.frame
	}
	for _, line := range renderWaveform(waveformHeights(frame, m.bars, waveRows*8), waveRows) {
		b.WriteString(style.Render(line) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.statusLine() + "\n")
	if m.modeLine != "" {
		b.WriteString(dimStyle.Render(m.modeLine) + "\n")
	}
	if m.deviceLine != "" {
		b.WriteString(dimStyle.Render(m.deviceLine) + "\n")
	}
	if m.toast != nil {
		ts := okToast
		if m.toast.level == notify.Error {
			ts = errToast
		}
		b.WriteString(ts.Render(m.toast.text) + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString("\n")

	header := 6 + waveRows + 4
	room := m.height - header
	b.WriteString(m.renderEntries(room))

	help := boldHelp.Render("space") + helpStyle.Render(" record  ") +
		boldHelp.Render("j/k") + helpStyle.Render(" move  ") +
		boldHelp.Render("c") + helpStyle.Render(" copy  ") +
		boldHelp.Render("d") + helpStyle.Render(" delete  ") +
		boldHelp.Render("q") + helpStyle.Render(" quit  ") +
		boldHelp.Render("Ctrl+Shift+Space") + helpStyle.Render(" global toggle")
	b.WriteString("\n" + help + "\n" + helpStyle.Render("whisperwave "+version))

	return lipgloss.NewStyle().Width(m.width).MaxHeight(m.height).Render(b.String())
}

func (m tuiModel) statusLine() string {
	switch {
	case m.recording && (m.busy || m.app.session.State() == capture.Stopping):
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("◌ finishing recording")
	case m.recording:
		d := m.now.Sub(m.recordStart).Seconds()
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).
			Render(fmt.Sprintf("● REC %.1fs", max(d, 0)))
	case m.model == modelLoading:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("◌ loading speech model")
	case m.model == modelFailed:
		return failStyle.Render("✗ speech model unavailable")
	}
	return dimStyle.Render("○ STANDBY")
}

func (m tuiModel) renderEntries(room int) string {
	if len(m.entries) == 0 {
		return dimStyle.Render("No transcriptions yet") + "\n"
	}
	wrapWidth := max(m.width-6, 10)
	var lines []string
	cursorLine := 0
	for i, e := range m.entries {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("▶ ")
			cursorLine = len(lines)
		}
		age := dimStyle.Render(relativeTime(m.now, e.CreatedAt))
		lines = append(lines, marker+statusGlyph(e.Status)+" "+age)

		var body []string
		var st lipgloss.Style
		switch e.Status {
		case transcript.Pending:
			body, st = []string{"transcribing..."}, pendingStyle
		case transcript.Failed:
			body, st = wrapText(e.Text, wrapWidth), failStyle
		default:
			body, st = wrapText(e.Text, wrapWidth), textStyle
		}
		for _, line := range body {
			lines = append(lines, "    "+st.Render(line))
		}
	}

	// keep the selected entry on screen
	if room > 0 && len(lines) > room {
		start := 0
		if cursorLine >= room {
			start = cursorLine - room + 1
		}
		lines = lines[start:min(start+room, len(lines))]
	}
	return strings.Join(lines, "\n") + "\n"
}

func statusGlyph(s transcript.Status) string {
	switch s {
	case transcript.Pending:
		return pendingStyle.Render("…")
	case transcript.Failed:
		return failStyle.Render("✗")
	}
	return okToast.Render("✓")
}

// waveformHeights samples frame into count bars: bar i reads
// frame[floor(i*len/count)] and scales it to maxHeight, never below
// minBarHeight. An empty frame gives flat bars.
func waveformHeights(frame []byte, count, maxHeight int) []int {
	heights := make([]int, count)
	for i := range heights {
		heights[i] = minBarHeight
		if len(frame) == 0 {
			continue
		}
		v := frame[i*len(frame)/count]
		heights[i] = max(minBarHeight, int(float64(v)/255*float64(maxHeight)))
	}
	return heights
}

var eighths = []rune(" ▁▂▃▄▅▆▇█")

// renderWaveform draws bars bottom-up in rows of eight steps each.
func renderWaveform(heights []int, rows int) []string {
	out := make([]string, rows)
	for r := 0; r < rows; r++ {
		level := (rows - 1 - r) * 8
		var line strings.Builder
		for i, h := range heights {
			if i > 0 {
				line.WriteByte(' ')
			}
			fill := min(max(h-level, 0), 8)
			line.WriteRune(eighths[fill])
		}
		out[r] = line.String()
	}
	return out
}

func relativeTime(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < 10*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return t.Format("Jan 2 15:04")
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

// wrapText breaks text into lines of at most width terminal cells, on spaces
// where possible. Multi-byte and double-width runes are never split.
func wrapText(text string, width int) []string {
	if text == "" {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}
	var lines []string
	for _, l := range strings.Split(ansi.Wrap(text, width, ""), "\n") {
		lines = append(lines, strings.TrimSpace(l))
	}
	return lines
}
