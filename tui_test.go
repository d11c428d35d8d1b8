package main

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"whisperwave/capture"
	"whisperwave/transcriber"
	"whisperwave/transcript"
)

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m tuiModel, msg tea.Msg) (tuiModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	tm, ok := next.(tuiModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return tm, cmd
}

func TestWaveformHeights(t *testing.T) {
	flat := waveformHeights(nil, 40, 48)
	if len(flat) != 40 {
		t.Fatalf("len = %d, want 40", len(flat))
	}
	for i, h := range flat {
		if h != minBarHeight {
			t.Fatalf("idle bar %d = %d, want %d", i, h, minBarHeight)
		}
	}

	frame := make([]byte, 128)
	for i := range frame {
		frame[i] = byte(i * 2)
	}
	h := waveformHeights(frame, 40, 48)
	// bar 39 reads frame[39*128/40] = frame[124] = 248
	v := 248.0
	if want := int(v / 255 * 48); h[39] != want {
		t.Errorf("bar 39 = %d, want %d", h[39], want)
	}
	if h[0] != minBarHeight {
		t.Errorf("bar 0 = %d, want %d", h[0], minBarHeight)
	}

	full := make([]byte, 128)
	for i := range full {
		full[i] = 255
	}
	for i, v := range waveformHeights(full, 40, 48) {
		if v != 48 {
			t.Fatalf("full bar %d = %d, want 48", i, v)
		}
	}
}

func TestRenderWaveform(t *testing.T) {
	got := renderWaveform([]int{8, 0, 16}, 2)
	want := []string{"    █", "█   █"}
	if len(got) != len(want) {
		t.Fatalf("rows = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %q, want %q", i, got[i], want[i])
		}
	}
	if got := renderWaveform([]int{4}, 1); got[0] != "▄" {
		t.Errorf("half bar = %q", got[0])
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "just now"},
		{-time.Second, "just now"},
		{30 * time.Second, "30s ago"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{48 * time.Hour, "Mar 2 12:00"},
	}
	for _, tt := range tests {
		if got := relativeTime(now, now.Add(-tt.ago)); got != tt.want {
			t.Errorf("relativeTime(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("the quick brown fox", 10)
	want := []string{"the quick", "brown fox"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("wrapText = %q, want %q", got, want)
	}
	if got := wrapText("", 10); len(got) != 1 || got[0] != "" {
		t.Errorf("wrapText empty = %q", got)
	}
}

func TestWrapTextMultiByte(t *testing.T) {
	for _, tc := range []struct {
		text  string
		width int
	}{
		{"héllo wörld ñandú café", 6},
		{"日本語のテキストです", 4},
		{"añadir ü", 1},
	} {
		lines := wrapText(tc.text, tc.width)
		for _, l := range lines {
			if !utf8.ValidString(l) {
				t.Errorf("wrapText(%q, %d) split a rune: %q", tc.text, tc.width, l)
			}
			if w := lipgloss.Width(l); w > tc.width {
				t.Errorf("wrapText(%q, %d) line %q is %d cells wide", tc.text, tc.width, l, w)
			}
		}
		joined := strings.ReplaceAll(strings.Join(lines, ""), " ", "")
		if want := strings.ReplaceAll(tc.text, " ", ""); joined != want {
			t.Errorf("wrapText(%q, %d) lost text: %q", tc.text, tc.width, lines)
		}
	}
}

func TestTUIRefusesRecordingWhileModelLoads(t *testing.T) {
	a, fake, _ := newTestApp(t, transcriber.NewFake("hi", nil))
	m := newTUIModel(a, 40)

	m, cmd := update(t, m, key(" "))
	if cmd != nil {
		t.Fatal("toggle returned a command before the model was ready")
	}
	if m.toast == nil || !strings.Contains(m.toast.text, "loading") {
		t.Fatalf("toast = %+v, want loading message", m.toast)
	}
	if fake.Opened() != 0 {
		t.Fatal("microphone acquired while model loading")
	}
}

func TestTUIRecordAndDelete(t *testing.T) {
	a, _, _ := newTestApp(t, transcriber.NewFake("hello world", nil))
	if err := a.loadModel(context.Background()); err != nil {
		t.Fatal(err)
	}
	m := newTUIModel(a, 40)

	m, cmd := update(t, m, key(" "))
	if cmd == nil || !m.busy {
		t.Fatal("expected start command")
	}
	// a second toggle while the start is in flight is ignored
	if _, again := update(t, m, toggleMsg{}); again != nil {
		t.Fatal("toggle while busy returned a command")
	}
	m, _ = update(t, m, cmd())
	if !m.recording || m.busy {
		t.Fatalf("recording=%v busy=%v after start", m.recording, m.busy)
	}
	if a.session.State() != capture.Active {
		t.Fatalf("session %v, want active", a.session.State())
	}

	m, _ = update(t, m, frameMsg{10, 20, 30})
	if len(m.frame) != 3 {
		t.Errorf("frame not kept while recording")
	}

	m, cmd = update(t, m, toggleMsg{})
	if cmd == nil {
		t.Fatal("expected stop command")
	}
	m, _ = update(t, m, cmd())
	if m.recording || m.frame != nil {
		t.Fatalf("recording=%v frame=%v after stop", m.recording, m.frame)
	}

	a.orch.Wait()
	m, _ = update(t, m, entriesChangedMsg{})
	if len(m.entries) != 1 || m.entries[0].Status != transcript.Ready || m.entries[0].Text != "hello world" {
		t.Fatalf("entries = %+v", m.entries)
	}

	m, _ = update(t, m, key("d"))
	if len(m.entries) != 0 || a.list.Len() != 0 {
		t.Fatalf("entry not deleted: ui=%d list=%d", len(m.entries), a.list.Len())
	}
}

func TestTUICursor(t *testing.T) {
	a, _, _ := newTestApp(t, transcriber.NewFake("", nil))
	for _, id := range []string{"a", "b", "c"} {
		a.list.Append(transcript.Entry{ID: id, Text: id, Status: transcript.Ready})
	}
	m := newTUIModel(a, 40)

	for range 5 {
		m, _ = update(t, m, key("j"))
	}
	if m.cursor != 2 {
		t.Fatalf("cursor = %d, want 2", m.cursor)
	}
	m, _ = update(t, m, key("k"))
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor)
	}

	// newest first: c, b, a
	m, _ = update(t, m, key("d"))
	if _, ok := a.list.Get("b"); ok {
		t.Fatal("deleted the wrong entry")
	}
	m, _ = update(t, m, key("d"))
	if m.cursor != 0 || len(m.entries) != 1 || m.entries[0].ID != "c" {
		t.Fatalf("cursor=%d entries=%+v", m.cursor, m.entries)
	}
}

func TestTUIToastExpires(t *testing.T) {
	a, _, _ := newTestApp(t, transcriber.NewFake("", nil))
	m := newTUIModel(a, 40)
	m, _ = update(t, m, toastMsg{Text: "Copied to clipboard"})
	if m.toast == nil {
		t.Fatal("toast not shown")
	}
	m, _ = update(t, m, tickMsg(time.Now().Add(toastTTL+time.Second)))
	if m.toast != nil {
		t.Fatal("toast did not expire")
	}
}

func TestTUIView(t *testing.T) {
	a, _, _ := newTestApp(t, transcriber.NewFake("", nil))
	m := newTUIModel(a, 40)
	if got := m.View(); got != "Loading..." {
		t.Fatalf("view before size = %q", got)
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	for _, want := range []string{"No transcriptions yet", "loading speech model", "fake"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	a.list.Append(transcript.Entry{ID: "x", Status: transcript.Pending, CreatedAt: time.Now()})
	m, _ = update(t, m, entriesChangedMsg{})
	if view := m.View(); !strings.Contains(view, "transcribing...") {
		t.Errorf("pending entry not rendered")
	}
}
