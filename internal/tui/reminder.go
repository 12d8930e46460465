package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/flowtime/internal/reminder"
)

// reminderBanner is the in-window notification surface for break
// reminders. It shows the latest notification until snoozed or dismissed.
type reminderBanner struct {
	monitor *reminder.Monitor
	active  *reminder.Notification
}

func newReminderBanner(m *reminder.Monitor) reminderBanner {
	return reminderBanner{monitor: m}
}

func (b reminderBanner) visible() bool {
	return b.active != nil
}

func (b reminderBanner) update(msg tea.Msg) (reminderBanner, bool) {
	switch msg := msg.(type) {
	case ReminderMsg:
		n := reminder.Notification(msg)
		b.active = &n
		return b, true
	case tea.KeyMsg:
		if b.active == nil {
			return b, false
		}
		switch {
		case key.Matches(msg, keys.Snooze):
			if b.monitor != nil {
				b.monitor.Snooze()
			}
			b.active = nil
			return b, true
		case key.Matches(msg, keys.Dismiss):
			b.active = nil
			return b, true
		}
	}
	return b, false
}

func (b reminderBanner) view(width int) string {
	if b.active == nil {
		return ""
	}
	var actions []string
	for _, a := range b.active.Actions {
		k := keys.Dismiss.Help().Key
		if a.Kind == reminder.ActionSnooze {
			k = keys.Snooze.Help().Key
		}
		actions = append(actions, highlightStyle.Render("["+k+"] ")+a.Label)
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		warningStyle.Bold(true).Render(b.active.Title),
		b.active.Message,
		strings.Join(actions, "   "),
	)
	return bannerStyle.Width(max(width-4, 20)).Render(body)
}
