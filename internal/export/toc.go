package export

import (
	"strings"
	"time"
)

// tocBuilder folds day headers into a year → month → day-link index. The
// fold is left-to-right in day-processing order, so grouping follows the
// order days were streamed into the page.
type tocBuilder struct {
	years []*tocYear
}

type tocYear struct {
	label  string
	months []*tocMonth
}

type tocMonth struct {
	label string
	days  []string
}

// Add appends a day link under its year and month groups, creating the
// groups on first sight.
func (b *tocBuilder) Add(date time.Time, dayID, dayLabel string) {
	yearLabel := date.Format("2006")
	monthLabel := date.Month().String()

	year := b.year(yearLabel)
	month := year.month(monthLabel)
	month.days = append(month.days,
		`<a class="toc-day" href="#`+dayID+`" title="`+dayLabel+`">`+date.Format("02")+`</a>`)
}

func (b *tocBuilder) year(label string) *tocYear {
	for _, year := range b.years {
		if year.label == label {
			return year
		}
	}
	year := &tocYear{label: label}
	b.years = append(b.years, year)
	return year
}

func (y *tocYear) month(label string) *tocMonth {
	for _, month := range y.months {
		if month.label == label {
			return month
		}
	}
	month := &tocMonth{label: label}
	y.months = append(y.months, month)
	return month
}

// HTML renders the index section.
func (b *tocBuilder) HTML() string {
	var sb strings.Builder
	sb.WriteString(`<div class="years">`)
	for _, year := range b.years {
		sb.WriteString(`<div class="year"><span class="year-header">` + year.label + `</span><div class="months">`)
		for _, month := range year.months {
			sb.WriteString(`<div class="month"><span class="month-header">` + month.label + `</span><div class="days">`)
			for _, day := range month.days {
				sb.WriteString(day)
			}
			sb.WriteString(`</div></div>`)
		}
		sb.WriteString(`</div></div>`)
	}
	sb.WriteString(`</div>`)
	return sb.String()
}
