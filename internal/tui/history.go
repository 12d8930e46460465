package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/flowtime/internal/duration"
	"github.com/sadopc/flowtime/internal/export"
	"github.com/sadopc/flowtime/internal/history"
	"github.com/sadopc/flowtime/internal/i18n"
	"github.com/sadopc/flowtime/internal/store"
)

var exportFormats = []string{"csv", "json"}

type historyView struct {
	journal   *history.Journal
	tr        *i18n.Translator
	now       func() time.Time
	exportDir string
	width     int
	height    int

	filter  history.Filter
	cursor  int
	loadErr error

	confirmClear  bool
	exportPicking bool
	exportCursor  int

	chart weekChart
}

func newHistoryView(journal *history.Journal, tr *i18n.Translator, now func() time.Time, exportDir string) historyView {
	return historyView{
		journal:   journal,
		tr:        tr,
		now:       now,
		exportDir: exportDir,
		filter:    history.FilterToday,
		chart:     newWeekChart(),
	}
}

func (h *historyView) setSize(w, hgt int) {
	h.width = w
	h.height = hgt
	h.rebuild()
}

// load waits for the journal's first read from the store.
func (h historyView) load() tea.Cmd {
	journal := h.journal
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return historyReadyMsg{err: journal.Ready(ctx)}
	}
}

func (h *historyView) rebuild() {
	h.chart.build(h.journal.Entries(), h.now(), h.width, h.height)
	if n := len(h.visible()); h.cursor >= n {
		h.cursor = max(n-1, 0)
	}
}

// visible is the journal narrowed to the active filter, newest first.
func (h historyView) visible() []store.Entry {
	weekStart := history.WeekStart(h.tr.Locale())
	return history.Apply(h.journal.Entries(), h.filter, h.now(), weekStart)
}

func (h historyView) update(msg tea.Msg) (historyView, tea.Cmd) {
	switch msg := msg.(type) {
	case historyReadyMsg:
		h.loadErr = msg.err
		h.rebuild()
		if msg.err != nil {
			return h, statusCmd(h.tr.T("alerts.storageUnavailable"), true)
		}
		return h, nil

	case entrySavedMsg:
		h.rebuild()
		return h, nil

	case entryDeletedMsg:
		h.rebuild()
		if msg.ok {
			return h, statusCmd(h.tr.T("history.deleted"), false)
		}
		return h, nil

	case historyClearedMsg:
		h.cursor = 0
		h.rebuild()
		return h, statusCmd(h.tr.T("history.cleared"), false)

	case exportDoneMsg:
		return h, statusCmd(h.tr.T("history.exported", msg.path), false)

	case tea.KeyMsg:
		if h.exportPicking {
			return h.updateExportPicker(msg)
		}
		if h.confirmClear {
			h.confirmClear = false
			if key.Matches(msg, keys.Confirm) {
				return h, h.clear()
			}
			return h, nil
		}
		return h.handleKey(msg)
	}
	return h, nil
}

func (h historyView) handleKey(msg tea.KeyMsg) (historyView, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Filter), key.Matches(msg, keys.Right):
		h.filter = h.shiftFilter(1)
		h.cursor = 0
	case key.Matches(msg, keys.Left):
		h.filter = h.shiftFilter(-1)
		h.cursor = 0
	case key.Matches(msg, keys.Up):
		if h.cursor > 0 {
			h.cursor--
		}
	case key.Matches(msg, keys.Down):
		if h.cursor < len(h.visible())-1 {
			h.cursor++
		}
	case key.Matches(msg, keys.Delete):
		entries := h.visible()
		if h.cursor < len(entries) {
			return h, h.delete(entries[h.cursor].ID)
		}
	case key.Matches(msg, keys.Clear):
		if len(h.journal.Entries()) > 0 {
			h.confirmClear = true
		}
	case key.Matches(msg, keys.Export):
		h.exportPicking = true
		h.exportCursor = 0
	}
	return h, nil
}

func (h historyView) shiftFilter(step int) history.Filter {
	i := 0
	for j, f := range history.Filters {
		if f == h.filter {
			i = j
		}
	}
	n := len(history.Filters)
	return history.Filters[((i+step)%n+n)%n]
}

func (h historyView) delete(id string) tea.Cmd {
	journal := h.journal
	tr := h.tr
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		ok, err := journal.Delete(ctx, id)
		if err != nil {
			return statusMsg{text: tr.T("alerts.storageUnavailable"), isError: true}
		}
		return entryDeletedMsg{id: id, ok: ok}
	}
}

func (h historyView) clear() tea.Cmd {
	journal := h.journal
	tr := h.tr
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := journal.Clear(ctx); err != nil {
			return statusMsg{text: tr.T("alerts.storageUnavailable"), isError: true}
		}
		return historyClearedMsg{}
	}
}

func (h historyView) updateExportPicker(msg tea.KeyMsg) (historyView, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if h.exportCursor > 0 {
			h.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if h.exportCursor < len(exportFormats)-1 {
			h.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		h.exportPicking = false
		return h, h.doExport(exportFormats[h.exportCursor])
	case key.Matches(msg, keys.Back):
		h.exportPicking = false
	}
	return h, nil
}

// doExport writes the entries under the active filter.
func (h historyView) doExport(format string) tea.Cmd {
	entries := h.visible()
	path := export.DefaultPath(h.exportDir, format, h.now())
	tr := h.tr
	return func() tea.Msg {
		var err error
		if format == "json" {
			err = export.ToJSON(entries, path)
		} else {
			err = export.ToCSV(entries, path)
		}
		if err != nil {
			return statusMsg{text: tr.T("alerts.exportFailed", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}

func (h historyView) view() string {
	w := h.width - 4

	if h.exportPicking {
		return h.renderExportPicker(w)
	}

	var chips []string
	for _, f := range history.Filters {
		chips = append(chips, chip(h.tr.T("history.filter."+string(f)), f == h.filter), " ")
	}

	entries := h.visible()
	total := history.TotalTracked(entries)
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render(h.tr.T("history.title")), "  ",
		highlightStyle.Render(duration.Format(total)), "  ",
		mutedStyle.Render(h.tr.T("history.sessionsCount", len(entries))),
	)

	rows := []string{header, "", lipgloss.JoinHorizontal(lipgloss.Bottom, chips...), ""}

	switch {
	case !h.journal.IsReady() && h.loadErr == nil:
		rows = append(rows, mutedStyle.Render("  "+h.tr.T("history.loading")))
	case h.loadErr != nil:
		rows = append(rows, errorStyle.Render("  "+h.tr.T("alerts.storageUnavailable")))
	case len(entries) == 0:
		rows = append(rows, mutedStyle.Render("  "+h.tr.T("history.empty")))
	default:
		rows = append(rows, h.renderEntries(entries, w))
	}

	if h.confirmClear {
		rows = append(rows, "", warningStyle.Render("  "+h.tr.T("history.confirmClear")))
	}

	rows = append(rows,
		"",
		subtitleStyle.Render(h.tr.T("history.chart")),
		h.chart.view(),
		"",
		mutedStyle.Render("  f/←/→: filter  ↑/↓: select  d: delete  C: clear  o: export"),
	)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (h historyView) renderEntries(entries []store.Entry, w int) string {
	limit := len(entries)
	if h.height > 0 {
		limit = min(limit, max(h.height-24, 5))
	}
	start := 0
	if h.cursor >= limit {
		start = h.cursor - limit + 1
	}

	nameWidth := max(min(w-40, 48), 12)
	var rows []string
	for i := start; i < len(entries) && i < start+limit; i++ {
		e := entries[i]
		cursor := "  "
		style := normalItemStyle
		if i == h.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		when := time.UnixMilli(e.CompletedAtMs).In(h.now().Location()).Format("02.01. 15:04")
		name := lipgloss.NewStyle().Width(nameWidth).MaxWidth(nameWidth).Render(e.TaskName)
		mode := h.tr.T("timer.mode." + e.Mode)
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s %s", cursor, when, name, duration.Format(e.TrackedMs)))+
			"  "+mutedStyle.Render(mode))
	}
	return strings.Join(rows, "\n")
}

func (h historyView) renderExportPicker(w int) string {
	rows := []string{titleStyle.Render(h.tr.T("history.exportFormat")), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == h.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+strings.ToUpper(f)))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: export  esc: cancel"))
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
