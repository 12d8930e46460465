package i18n

type entry struct {
	de, en string
}

var messages = map[string]entry{
	"app.title":      {"Flowtime", "Flowtime"},
	"app.subtitle":   {"Dein smarter Fokus-Timer", "Your smart focus timer"},
	"app.totalFocus": {"Gesamte Fokuszeit", "Total focus time"},

	"alerts.invalidTime": {
		"Bitte gib eine gültige Zeit ein. Beispiele: 25 (Minuten), 15:00, 01:30:00",
		"Please enter a valid time. Examples: 25 (minutes), 15:00, 01:30:00",
	},
	"alerts.noTrackedTime": {
		"Starte den Timer und arbeite mindestens ein paar Sekunden, bevor du die Aufgabe speicherst.",
		"Start the timer and work for at least a few seconds before saving the task.",
	},
	"alerts.noTaskName": {
		"Bitte gib zuerst an, woran du gearbeitet hast.",
		"Please enter what you worked on first.",
	},
	"alerts.saveFailed": {
		"Die Session konnte nicht gespeichert werden: %v",
		"The session could not be saved: %v",
	},
	"alerts.exportFailed": {
		"Export fehlgeschlagen: %v",
		"Export failed: %v",
	},
	"alerts.storageUnavailable": {
		"Der Verlauf ist gerade nicht erreichbar.",
		"The journal is currently unavailable.",
	},

	"nav.timer":   {"Timer", "Timer"},
	"nav.history": {"Verlauf", "History"},

	"history.title":         {"Produktivitätsjournal", "Productivity journal"},
	"history.empty":         {"Sobald du eine Session speicherst, taucht sie hier auf.", "Once you save a session it will appear here."},
	"history.filter.today":  {"Heute", "Today"},
	"history.filter.week":   {"Woche", "Week"},
	"history.filter.all":    {"Alles", "Everything"},
	"history.chart":         {"Letzte 7 Tage", "Last 7 days"},
	"history.deleted":       {"Eintrag gelöscht", "Entry deleted"},
	"history.cleared":       {"Verlauf geleert", "Journal cleared"},
	"history.exported":      {"Exportiert nach %s", "Exported to %s"},
	"history.confirmClear":  {"Ganzen Verlauf löschen? (y/n)", "Clear the whole journal? (y/n)"},
	"history.loading":       {"Lade Verlauf...", "Loading journal..."},
	"history.sessionsCount": {"%d Sessions", "%d sessions"},
	"history.exportFormat":  {"Exportformat", "Export format"},

	"settings.title":                        {"Einstellungen", "Settings"},
	"settings.saved":                        {"Einstellungen gespeichert", "Settings saved"},
	"settings.hint":                         {"Enter zum Bearbeiten", "Press enter to edit"},
	"settings.intervalInvalid":              {"Bitte eine Zahl eingeben", "Please enter a number"},
	"settings.language.heading":             {"Sprache", "Language"},
	"settings.language.description":         {"Wähle die Sprache der App.", "Choose the language of the app."},
	"settings.language.de":                  {"Deutsch", "German"},
	"settings.language.en":                  {"Englisch", "English"},
	"settings.breakReminder.heading":        {"Pausenerinnerung", "Break reminder"},
	"settings.breakReminder.description":    {"Lass dich in regelmäßigen Abständen an eine kurze Pause erinnern.", "Get a gentle nudge to take a short break in regular intervals."},
	"settings.breakReminder.enableLabel":    {"Pausenerinnerung aktivieren", "Enable break reminder"},
	"settings.breakReminder.intervalLabel":  {"Abstand zwischen Erinnerungen", "Interval between reminders"},
	"settings.breakReminder.intervalSuffix": {"Minuten", "minutes"},
	"settings.breakReminder.intervalHint":   {"Mindestens 5 Minuten, maximal 240 Minuten.", "Minimum 5 minutes, maximum 240 minutes."},

	"task.prompt":      {"Was möchtest du fokussiert erledigen?", "What do you want to focus on?"},
	"task.placeholder": {"z. B. Marktanalyse präsentieren", "e.g. Present market analysis"},
	"task.save":        {"Task speichern", "Save task"},
	"task.saved":       {"Gespeichert: %s", "Saved: %s"},

	"timer.start":           {"Start", "Start"},
	"timer.pause":           {"Pause", "Pause"},
	"timer.resume":          {"Weiter", "Resume"},
	"timer.reset":           {"Reset", "Reset"},
	"timer.preset":          {"%d Min", "%d min"},
	"timer.mode.countdown":  {"Countdown", "Countdown"},
	"timer.mode.stopwatch":  {"Stoppuhr", "Stopwatch"},
	"timer.input.label":     {"Timer bearbeiten", "Edit timer"},
	"timer.adjust.increase": {"Zeit erhöhen", "Increase time"},
	"timer.adjust.decrease": {"Zeit verringern", "Decrease time"},
	"timer.completed":       {"Zeit ist um!", "Time is up!"},
	"timer.limit":           {"Die Stoppuhr hat ihr Maximum erreicht.", "The stopwatch reached its maximum."},

	"breakReminder.notification.title": {"Zeit für eine Pause", "Time for a break"},
	"breakReminder.notification.message": {
		"Du bist seit %d Minuten fokussiert. Steh kurz auf, streck dich oder hol dir etwas zu trinken.",
		"You have been focused for %d minutes. Take a short break to stretch or grab some water.",
	},
	"breakReminder.notification.snooze":  {"Später erinnern", "Remind me later"},
	"breakReminder.notification.dismiss": {"Schließen", "Dismiss"},
}
