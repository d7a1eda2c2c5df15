package render

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tOgg1/explode/internal/archive"
	"github.com/tOgg1/explode/internal/thread"
)

const dayIDFormat = "2006-01-02"

// Day is one day's rendered output, consumed by the page assembler to build
// the table of contents.
type Day struct {
	HTML        string
	Attachments []*archive.FileRef
	DayID       string
	DayLabel    string
	Date        time.Time
}

// SkipFunc is notified when a record fails with a recoverable error and is
// skipped. Fatal errors are not routed here; they abort the day.
type SkipFunc func(record *archive.MessageRecord, err error)

// RenderDay reconciles one day's raw records and folds them into a single
// HTML block. Records failing with ErrUnknownLogKind or ErrUnknownLogSubtype
// are skipped via onSkip; any other render failure aborts the day.
func (r *Renderer) RenderDay(records []*archive.MessageRecord, date time.Time, onSkip SkipFunc) (*Day, error) {
	day := &Day{
		DayID:    date.Format(dayIDFormat),
		DayLabel: FormatDayLabel(date),
		Date:     date,
	}

	var b strings.Builder
	b.WriteString(`<div class="logs-for-day">`)
	b.WriteString(dayHeader(day.DayID, day.DayLabel))

	for _, record := range thread.Reconcile(records) {
		fragment, err := r.Render(record)
		if err != nil {
			if IsRecoverable(err) {
				if onSkip != nil {
					onSkip(record, err)
				}
				continue
			}
			return nil, err
		}
		b.WriteString(fragment.HTML)
		day.Attachments = append(day.Attachments, fragment.Attachments...)
	}

	b.WriteString(`</div>`)
	day.HTML = b.String()
	return day, nil
}

// IsRecoverable reports whether a render failure is confined to one record.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrUnknownLogKind) || errors.Is(err, ErrUnknownLogSubtype)
}

func dayHeader(dayID, dayLabel string) string {
	return `<h2><div class="left"><a class="day-link" href="#` + dayID + `" name="` + dayID + `">§</a>` +
		`<span class="day-text">` + dayLabel + `</span></div>` +
		`<div class="right"><a href="#toc">Back to top</a></div></h2>`
}

// FormatDayLabel renders a calendar day as "Monday, January 2nd 2006".
func FormatDayLabel(t time.Time) string {
	return fmt.Sprintf("%s, %s %s %d", t.Weekday(), t.Month(), ordinal(t.Day()), t.Year())
}

func ordinal(day int) string {
	suffix := "th"
	switch {
	case day%100 >= 11 && day%100 <= 13:
	case day%10 == 1:
		suffix = "st"
	case day%10 == 2:
		suffix = "nd"
	case day%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", day, suffix)
}
