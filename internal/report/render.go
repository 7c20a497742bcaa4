package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/loykin/timelog/internal/period"
	"github.com/loykin/timelog/internal/record"
	"github.com/mattn/go-runewidth"
)

const (
	dateColWidth = 10 // YYYY-MM-DD
	durColWidth  = 10
)

// Render writes the aligned report table. emph decorates the title and may
// be nil for plain output.
func Render(w io.Writer, rep Report, emph func(string) string) {
	if emph == nil {
		emph = func(s string) string { return s }
	}
	suffix := ""
	if rep.Project != "" {
		suffix = fmt.Sprintf(" for project %s", emph(rep.Project))
	}
	fmt.Fprintf(w, "%s%s (%s..%s)\n",
		emph(rep.Range.Label+" report"), suffix,
		rep.Range.Start.Format(record.DateLayout), rep.Range.End.Format(record.DateLayout))

	taskW := runewidth.StringWidth("TASK")
	projectW := runewidth.StringWidth("PROJECT")
	for _, rec := range rep.Records {
		taskW = max(taskW, runewidth.StringWidth(rec.Task))
		projectW = max(projectW, runewidth.StringWidth(rec.Project))
	}

	rule := fmt.Sprintf("%s  %s  %s  %s",
		strings.Repeat("-", taskW), strings.Repeat("-", projectW),
		strings.Repeat("-", dateColWidth), strings.Repeat("-", durColWidth))

	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		padRight("TASK", taskW), padRight("PROJECT", projectW),
		padRight("DATE", dateColWidth), padLeft("DURATION", durColWidth))
	fmt.Fprintln(w, rule)
	for _, rec := range rep.Records {
		project := rec.Project
		if project == "" {
			project = "-"
		}
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			padRight(rec.Task, taskW), padRight(project, projectW),
			rec.Date.Format(record.DateLayout), padLeft(record.FormatDuration(rec.DurationMS), durColWidth))
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		padRight("TOTAL", taskW), padRight("", projectW),
		padRight("", dateColWidth), padLeft(record.FormatDuration(rep.TotalMS), durColWidth))
}

// RecordLine renders one record as a bullet line with a date label tailored
// to the period: weekday+day inside week ranges, month-day inside month
// ranges, full ISO for year ranges.
func RecordLine(rec record.TimeRecord, p period.Period) string {
	var label string
	switch p {
	case period.Today, period.Yesterday:
		label = p.Label()
	case period.ThisWeek, period.LastWeek:
		label = rec.Date.Format("Mon 01-02")
	case period.ThisMonth, period.LastMonth:
		label = rec.Date.Format("01-02")
	default:
		label = rec.Date.Format(record.DateLayout)
	}
	return fmt.Sprintf("• %s %s  (%s)",
		padRight(rec.Task, 18), record.FormatDuration(rec.DurationMS), label)
}

func padRight(s string, w int) string { return runewidth.FillRight(s, w) }

func padLeft(s string, w int) string { return runewidth.FillLeft(s, w) }
