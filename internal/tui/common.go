package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/flowtime/internal/reminder"
	"github.com/sadopc/flowtime/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewHistory
	viewSettings
)

var viewKeys = []string{"nav.timer", "nav.history", "settings.title"}

// storeTimeout bounds every store round trip started from the UI.
const storeTimeout = 5 * time.Second

// --- Messages ---

type tickMsg time.Time

type statusMsg struct {
	text    string
	isError bool
}

// ReminderMsg carries a break reminder into the program. The monitor's
// notifier sends it with tea.Program.Send.
type ReminderMsg reminder.Notification

type historyReadyMsg struct {
	err error
}

type entrySavedMsg struct {
	entry *store.Entry
}

type saveFailedMsg struct {
	err error
}

type entryDeletedMsg struct {
	id string
	ok bool
}

type historyClearedMsg struct{}

type exportDoneMsg struct {
	path string
}

type settingsLoadedMsg struct {
	settings reminder.Settings
	language string
}

type settingsSavedMsg struct {
	settings reminder.Settings
	language string
}

// --- Helpers ---

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isError: isError}
	}
}
