package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/flowtime/internal/i18n"
	"github.com/sadopc/flowtime/internal/reminder"
	"github.com/sadopc/flowtime/internal/store"
)

// LanguageKey is the settings key holding the chosen UI language.
const LanguageKey = "flowtime-language"

// LoadLanguage returns the stored UI language, or fallback when none has
// been saved yet.
func LoadLanguage(ctx context.Context, st reminder.SettingsStore, fallback string) (string, error) {
	v, err := st.GetSetting(ctx, LanguageKey)
	if errors.Is(err, store.ErrNotFound) {
		return i18n.Normalize(fallback), nil
	}
	if err != nil {
		return i18n.Normalize(fallback), fmt.Errorf("load language: %w", err)
	}
	return i18n.Normalize(v), nil
}

type settingsView struct {
	store  reminder.SettingsStore
	tr     *i18n.Translator
	width  int
	height int

	current    reminder.Settings
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	enabled  *bool
	interval *string
	language *string
}

func newSettingsView(st reminder.SettingsStore, tr *i18n.Translator, current reminder.Settings) settingsView {
	enabled, interval, language := false, "", ""
	return settingsView{
		store:    st,
		tr:       tr,
		current:  current.Normalized(),
		enabled:  &enabled,
		interval: &interval,
		language: &language,
	}
}

func (s *settingsView) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsView) refresh() tea.Cmd {
	st := s.store
	fallback := s.tr.Language()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		settings, _ := reminder.LoadSettings(ctx, st)
		lang, _ := LoadLanguage(ctx, st, fallback)
		return settingsLoadedMsg{settings: settings, language: lang}
	}
}

func (s settingsView) update(msg tea.Msg) (settingsView, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsLoadedMsg:
		s.current = msg.settings
		return s, nil

	case settingsSavedMsg:
		s.current = msg.settings
		return s, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Enter) {
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsView) showForm() (settingsView, tea.Cmd) {
	*s.enabled = s.current.Enabled
	*s.interval = strconv.Itoa(s.current.IntervalMinutes)
	*s.language = s.tr.Language()

	tr := s.tr
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(tr.T("settings.breakReminder.enableLabel")).
				Description(tr.T("settings.breakReminder.description")).
				Value(s.enabled),
			huh.NewInput().
				Title(tr.T("settings.breakReminder.intervalLabel")+" ("+tr.T("settings.breakReminder.intervalSuffix")+")").
				Description(tr.T("settings.breakReminder.intervalHint")).
				Validate(func(v string) error {
					if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
						return errors.New(tr.T("settings.intervalInvalid"))
					}
					return nil
				}).
				Value(s.interval),
		).Title(tr.T("settings.breakReminder.heading")),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(tr.T("settings.language.heading")).
				Description(tr.T("settings.language.description")).
				Options(
					huh.NewOption(tr.T("settings.language.de"), "de"),
					huh.NewOption(tr.T("settings.language.en"), "en"),
				).
				Value(s.language),
		).Title(tr.T("settings.language.heading")),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsView) updateForm(msg tea.Msg) (settingsView, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.save()
	}

	return s, cmd
}

// save persists the form values; the app applies them to the running
// monitor and translator once the store confirms.
func (s settingsView) save() tea.Cmd {
	minutes, err := strconv.ParseFloat(strings.TrimSpace(*s.interval), 64)
	if err != nil {
		minutes = float64(s.current.IntervalMinutes)
	}
	next := reminder.Settings{
		Enabled:         *s.enabled,
		IntervalMinutes: reminder.ClampInterval(minutes),
	}
	lang := i18n.Normalize(*s.language)
	st := s.store
	tr := s.tr

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		saved, err := reminder.SaveSettings(ctx, st, next)
		if err != nil {
			return statusMsg{text: tr.T("alerts.storageUnavailable"), isError: true}
		}
		if err := st.SetSetting(ctx, LanguageKey, lang); err != nil {
			return statusMsg{text: tr.T("alerts.storageUnavailable"), isError: true}
		}
		return settingsSavedMsg{settings: saved, language: lang}
	}
}

func (s settingsView) view() string {
	w := s.width - 4
	title := titleStyle.Render(s.tr.T("settings.title"))

	if s.formActive && s.form != nil {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	enabled := mutedStyle.Render("off")
	if s.current.Enabled {
		enabled = successStyle.Render("on")
	}

	row := func(label, value string) string {
		return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(36).Render(label), value)
	}

	rows := []string{
		title,
		"",
		subtitleStyle.Render(s.tr.T("settings.breakReminder.heading")),
		row(s.tr.T("settings.breakReminder.enableLabel"), enabled),
		row(s.tr.T("settings.breakReminder.intervalLabel"),
			highlightStyle.Render(fmt.Sprintf("%d %s", s.current.IntervalMinutes, s.tr.T("settings.breakReminder.intervalSuffix")))),
		"",
		subtitleStyle.Render(s.tr.T("settings.language.heading")),
		row(s.tr.T("settings.language.heading"), highlightStyle.Render(s.tr.T("settings.language."+s.tr.Language()))),
		"",
		mutedStyle.Render(s.tr.T("settings.hint")),
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
