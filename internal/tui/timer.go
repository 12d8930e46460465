package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/flowtime/internal/duration"
	"github.com/sadopc/flowtime/internal/history"
	"github.com/sadopc/flowtime/internal/i18n"
	"github.com/sadopc/flowtime/internal/store"
	"github.com/sadopc/flowtime/internal/timer"
)

// presetMinutes are the quick countdown lengths cycled with the preset key.
var presetMinutes = []int{15, 25, 50}

// timerView is the focus screen: clock, mode switch, duration editing and
// the task name that a finished session is saved under.
type timerView struct {
	ctl     *timer.Controller
	journal *history.Journal
	tr      *i18n.Translator
	width   int
	height  int

	segment int
	preset  int
	editing bool
	saving  bool

	durationInput textinput.Model
	taskInput     textinput.Model
}

func newTimerView(ctl *timer.Controller, journal *history.Journal, tr *i18n.Translator) timerView {
	di := textinput.New()
	di.Placeholder = "00:25:00"
	di.CharLimit = 12
	di.Width = 12

	ti := textinput.New()
	ti.Placeholder = tr.T("task.placeholder")
	ti.CharLimit = 200
	ti.Width = 48

	return timerView{
		ctl:           ctl,
		journal:       journal,
		tr:            tr,
		segment:       duration.DefaultSegment,
		preset:        -1,
		durationInput: di,
		taskInput:     ti,
	}
}

func (t *timerView) setSize(w, h int) {
	t.width = w
	t.height = h
	if w > 20 {
		t.taskInput.Width = min(w-20, 60)
	}
}

// inputActive reports whether keystrokes belong to a text field.
func (t timerView) inputActive() bool {
	return t.editing || t.taskInput.Focused()
}

func (t timerView) update(msg tea.Msg) (timerView, tea.Cmd) {
	switch msg := msg.(type) {
	case entrySavedMsg:
		t.saving = false
		t.ctl.Reset()
		t.taskInput.SetValue("")
		t.taskInput.Blur()
		return t, statusCmd(t.tr.T("task.saved", msg.entry.TaskName), false)

	case saveFailedMsg:
		// Timer and task name stay as they are so the user can retry.
		t.saving = false
		if isStorageError(msg.err) {
			return t, statusCmd(t.tr.T("alerts.storageUnavailable"), true)
		}
		return t, statusCmd(t.tr.T("alerts.saveFailed", msg.err), true)

	case tea.KeyMsg:
		if t.editing {
			return t.updateDurationInput(msg)
		}
		if t.taskInput.Focused() {
			return t.updateTaskInput(msg)
		}
		return t.handleKey(msg)
	}
	return t, nil
}

func (t timerView) handleKey(msg tea.KeyMsg) (timerView, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Toggle):
		t.ctl.Toggle()
	case key.Matches(msg, keys.Reset):
		t.ctl.Reset()
	case key.Matches(msg, keys.Mode):
		next := timer.ModeStopwatch
		if t.ctl.Mode() == timer.ModeStopwatch {
			next = timer.ModeCountdown
		}
		t.ctl.SetMode(next)
	case key.Matches(msg, keys.Preset):
		if t.ctl.Mode() != timer.ModeCountdown {
			return t, nil
		}
		t.preset = (t.preset + 1) % len(presetMinutes)
		t.ctl.SetDurationFromPreset(float64(presetMinutes[t.preset]))
	case key.Matches(msg, keys.Edit):
		if t.ctl.Mode() != timer.ModeCountdown {
			return t, nil
		}
		t.editing = true
		t.durationInput.SetValue(duration.Format(t.ctl.Snapshot().DisplayMs()))
		t.durationInput.CursorEnd()
		cmd := t.durationInput.Focus()
		return t, cmd
	case key.Matches(msg, keys.Left):
		if t.segment > 0 {
			t.segment--
		}
	case key.Matches(msg, keys.Right):
		if t.segment < len(duration.Segments)-1 {
			t.segment++
		}
	case key.Matches(msg, keys.Increase):
		t.adjust(1)
	case key.Matches(msg, keys.Decrease):
		t.adjust(-1)
	case key.Matches(msg, keys.Task):
		cmd := t.taskInput.Focus()
		return t, cmd
	case key.Matches(msg, keys.Save):
		return t.save()
	}
	return t, nil
}

func (t *timerView) adjust(direction int64) {
	if t.ctl.Mode() != timer.ModeCountdown {
		return
	}
	t.preset = -1
	t.ctl.AdjustDurationBy(duration.Segments[t.segment].StepMs * direction)
}

func (t timerView) updateDurationInput(msg tea.KeyMsg) (timerView, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Enter):
		t.editing = false
		t.durationInput.Blur()
		if err := t.ctl.SetDurationFromInput(t.durationInput.Value()); err != nil {
			t.durationInput.SetValue(duration.Format(t.ctl.Snapshot().DisplayMs()))
			return t, statusCmd(t.tr.T("alerts.invalidTime"), true)
		}
		t.preset = -1
		return t, nil
	case key.Matches(msg, keys.Back):
		t.editing = false
		t.durationInput.Blur()
		return t, nil
	}
	var cmd tea.Cmd
	t.durationInput, cmd = t.durationInput.Update(msg)
	return t, cmd
}

func (t timerView) updateTaskInput(msg tea.KeyMsg) (timerView, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Enter):
		return t.save()
	case key.Matches(msg, keys.Back):
		t.taskInput.Blur()
		return t, nil
	}
	var cmd tea.Cmd
	t.taskInput, cmd = t.taskInput.Update(msg)
	return t, cmd
}

// save hands the tracked time to the journal. Nothing is reset until the
// store has confirmed the write.
func (t timerView) save() (timerView, tea.Cmd) {
	if t.saving {
		return t, nil
	}
	name := strings.TrimSpace(t.taskInput.Value())
	if name == "" {
		return t, statusCmd(t.tr.T("alerts.noTaskName"), true)
	}
	snap := t.ctl.Snapshot()
	tracked := snap.TrackedMs()
	if tracked <= 0 {
		return t, statusCmd(t.tr.T("alerts.noTrackedTime"), true)
	}

	entry := store.NewEntry{
		TaskName:  name,
		Mode:      string(snap.Mode),
		TrackedMs: float64(tracked),
	}
	if snap.Mode == timer.ModeCountdown {
		planned := float64(snap.DurationMs)
		entry.PlannedMs = &planned
	}

	t.saving = true
	journal := t.journal
	return t, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		saved, err := journal.Add(ctx, entry)
		if err != nil {
			return saveFailedMsg{err: err}
		}
		return entrySavedMsg{entry: saved}
	}
}

func (t timerView) primaryLabel() string {
	switch {
	case t.ctl.IsRunning():
		return t.tr.T("timer.pause")
	case t.ctl.HasProgress():
		return t.tr.T("timer.resume")
	}
	return t.tr.T("timer.start")
}

func (t timerView) view() string {
	w := t.width - 4
	snap := t.ctl.Snapshot()

	modes := lipgloss.JoinHorizontal(lipgloss.Bottom,
		chip(t.tr.T("timer.mode.countdown"), snap.Mode == timer.ModeCountdown),
		" ",
		chip(t.tr.T("timer.mode.stopwatch"), snap.Mode == timer.ModeStopwatch),
	)

	var presets []string
	for i, m := range presetMinutes {
		presets = append(presets, chip(t.tr.T("timer.preset", m), i == t.preset), " ")
	}

	var clock string
	switch {
	case t.editing:
		clock = mutedStyle.Render(t.tr.T("timer.input.label")+": ") + t.durationInput.View()
	case snap.Running:
		clock = timerRunningStyle.Render(duration.Format(snap.DisplayMs()))
	case snap.TrackedMs() > 0:
		clock = timerPausedStyle.Render(duration.Format(snap.DisplayMs()))
	case snap.Mode == timer.ModeCountdown:
		clock = t.renderSegments(duration.Format(snap.DisplayMs()))
	default:
		clock = timerStyle.Render(duration.Format(snap.DisplayMs()))
	}

	primary := highlightStyle.Render("[space] " + t.primaryLabel())
	reset := mutedStyle.Render("[r] " + t.tr.T("timer.reset"))

	task := lipgloss.JoinVertical(lipgloss.Left,
		subtitleStyle.Render(t.tr.T("task.prompt")),
		t.taskInput.View(),
		mutedStyle.Render("[s] "+t.tr.T("task.save")),
	)

	total := history.TotalTracked(t.journal.Entries())
	footer := mutedStyle.Render(fmt.Sprintf("%s: %s", t.tr.T("app.totalFocus"), duration.Format(total)))

	rows := []string{
		titleStyle.Render(t.tr.T("app.title")) + "  " + subtitleStyle.Render(t.tr.T("app.subtitle")),
		"",
		modes,
	}
	if snap.Mode == timer.ModeCountdown {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Bottom, presets...))
	}
	rows = append(rows,
		"",
		clock,
		"",
		lipgloss.JoinHorizontal(lipgloss.Bottom, primary, "   ", reset),
		"",
		task,
		"",
		footer,
	)

	style := panelStyle
	if t.inputActive() {
		style = activePanelStyle
	}
	return style.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// renderSegments underlines the hour, minute or second field that +/- acts on.
func (t timerView) renderSegments(clock string) string {
	parts := strings.Split(clock, ":")
	if len(parts) != len(duration.Segments) {
		return timerStyle.Render(clock)
	}
	for i, p := range parts {
		if i == t.segment {
			parts[i] = segmentStyle.Render(p)
		} else {
			parts[i] = timerStyle.Render(p)
		}
	}
	return strings.Join(parts, timerStyle.Render(":"))
}

func chip(label string, active bool) string {
	if active {
		return activeChipStyle.Render(label)
	}
	return chipStyle.Render(label)
}

// describeTimerEvent maps controller events to a status line. Only the
// events that end a run without user input are worth announcing.
func describeTimerEvent(tr *i18n.Translator, ev timer.Event) (string, bool) {
	switch ev.Kind {
	case timer.EventCompleted:
		return tr.T("timer.completed"), true
	case timer.EventLimit:
		return tr.T("timer.limit"), true
	}
	return "", false
}

func isStorageError(err error) bool {
	return store.IsUnavailable(err) || errors.Is(err, store.ErrClosed)
}
