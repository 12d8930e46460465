package tui

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/flowtime/internal/duration"
	"github.com/sadopc/flowtime/internal/history"
	"github.com/sadopc/flowtime/internal/i18n"
	"github.com/sadopc/flowtime/internal/reminder"
	"github.com/sadopc/flowtime/internal/timer"
)

// Options wires the App to the domain components built by main.
type Options struct {
	Journal    *history.Journal
	Settings   reminder.SettingsStore
	Timer      *timer.Controller
	Sampler    *timer.ManualSampler
	Monitor    *reminder.Monitor
	Translator *i18n.Translator
	Reminder   reminder.Settings
	Now        func() time.Time
	ExportDir  string
	Bell       func()
	Logger     *slog.Logger

	// TickInterval is how often the clock face and timer sampler refresh.
	TickInterval time.Duration
}

// App is the root Bubble Tea model.
type App struct {
	ctl     *timer.Controller
	sampler *timer.ManualSampler
	monitor *reminder.Monitor
	tr      *i18n.Translator
	logger  *slog.Logger
	bell    func()
	tick    time.Duration
	width   int
	height  int

	events      <-chan timer.Event
	unsubscribe func()

	activeView viewState
	showHelp   bool

	timer    timerView
	history  historyView
	settings settingsView
	banner   reminderBanner

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(opts Options) App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Translator == nil {
		opts.Translator = i18n.New(i18n.DefaultLanguage)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Bell == nil {
		opts.Bell = func() { fmt.Fprint(os.Stderr, "\a") }
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.ExportDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			opts.ExportDir = home
		}
	}

	h := help.New()
	h.ShowAll = false

	events, unsubscribe := opts.Timer.Subscribe()

	return App{
		ctl:         opts.Timer,
		sampler:     opts.Sampler,
		monitor:     opts.Monitor,
		tr:          opts.Translator,
		logger:      opts.Logger,
		bell:        opts.Bell,
		tick:        opts.TickInterval,
		events:      events,
		unsubscribe: unsubscribe,
		activeView:  viewTimer,
		timer:       newTimerView(opts.Timer, opts.Journal, opts.Translator),
		history:     newHistoryView(opts.Journal, opts.Translator, opts.Now, opts.ExportDir),
		settings:    newSettingsView(opts.Settings, opts.Translator, opts.Reminder),
		banner:      newReminderBanner(opts.Monitor),
		help:        h,
	}
}

// Close detaches the App from the timer's event stream.
func (a App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.history.load(),
		a.settings.refresh(),
		tickCmd(a.tick),
	)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timer.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tickMsg:
		if a.sampler != nil {
			a.sampler.Fire()
		}
		cmd := a.drainTimerEvents()
		return a, tea.Batch(tickCmd(a.tick), cmd)

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case ReminderMsg:
		a.banner, _ = a.banner.update(msg)
		return a, a.ring()

	case entrySavedMsg, saveFailedMsg:
		var cmd, hcmd tea.Cmd
		a.timer, cmd = a.timer.update(msg)
		a.history, hcmd = a.history.update(msg)
		ecmd := a.drainTimerEvents()
		return a, tea.Batch(cmd, hcmd, ecmd)

	case historyReadyMsg, entryDeletedMsg, historyClearedMsg, exportDoneMsg:
		var cmd tea.Cmd
		a.history, cmd = a.history.update(msg)
		return a, cmd

	case settingsLoadedMsg:
		a.applySettings(msg.settings, msg.language)
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case settingsSavedMsg:
		a.applySettings(msg.settings, msg.language)
		a.status = a.tr.T("settings.saved")
		a.statusErr = false
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A child view capturing input (form, text field, picker) sees every key.
	if a.isFormActive() {
		return a.updateActiveView(msg)
	}

	var handled bool
	if a.banner, handled = a.banner.update(msg); handled {
		return a, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Help):
		a.showHelp = !a.showHelp
		a.help.ShowAll = a.showHelp
		return a, nil
	case key.Matches(msg, keys.Tab1):
		a.activeView = viewTimer
		return a, nil
	case key.Matches(msg, keys.Tab2):
		a.activeView = viewHistory
		a.history.rebuild()
		return a, nil
	case key.Matches(msg, keys.Tab3):
		a.activeView = viewSettings
		return a, a.settings.refresh()
	case key.Matches(msg, keys.Tab):
		a.activeView = (a.activeView + 1) % viewState(len(viewKeys))
		if a.activeView == viewHistory {
			a.history.rebuild()
		}
		return a, nil
	}
	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.timer, cmd = a.timer.update(msg)
		ecmd := a.drainTimerEvents()
		return a, tea.Batch(cmd, ecmd)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimer:
		return a.timer.inputActive()
	case viewHistory:
		return a.history.exportPicking || a.history.confirmClear
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

// drainTimerEvents consumes whatever the controller published since the
// last call. Completion and the stopwatch limit ring the bell.
func (a *App) drainTimerEvents() tea.Cmd {
	var cmds []tea.Cmd
	for {
		select {
		case ev := <-a.events:
			if a.monitor != nil {
				a.monitor.Wake()
			}
			if text, ok := describeTimerEvent(a.tr, ev); ok {
				a.logger.Info("timer finished", "mode", ev.Mode, "trackedMs", ev.TrackedMs)
				a.status = text
				a.statusErr = false
				cmds = append(cmds, a.ring())
			}
		default:
			return tea.Batch(cmds...)
		}
	}
}

func (a App) ring() tea.Cmd {
	bell := a.bell
	return func() tea.Msg {
		bell()
		return nil
	}
}

func (a *App) applySettings(s reminder.Settings, lang string) {
	if lang != "" {
		a.tr.SetLanguage(lang)
	}
	if a.monitor != nil {
		a.monitor.Apply(s)
	}
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.timer.view()
	case viewHistory:
		content = a.history.view()
	case viewSettings:
		content = a.settings.view()
	}
	if a.banner.visible() {
		content = lipgloss.JoinVertical(lipgloss.Left, a.banner.view(a.width), content)
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, k := range viewKeys {
		name := a.tr.T(k)
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("flowtime")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	snap := a.ctl.Snapshot()
	if snap.Running {
		timerInfo = successStyle.Render(" ● " + duration.Format(snap.DisplayMs()))
	} else if snap.TrackedMs() > 0 {
		timerInfo = warningStyle.Render(" ⏸ " + duration.Format(snap.DisplayMs()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}
