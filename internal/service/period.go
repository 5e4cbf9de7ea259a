package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/invpulse/internal/domain"
	"github.com/andresuchdata/invpulse/internal/inventory"
)

// Export names carry their report date as d-m-yyyy or d.m.yy.
var fileDatePattern = regexp.MustCompile(`(\d{1,2})[-.](\d{1,2})[-.](\d{2,4})`)

// PeriodFromFileName reads the report date embedded in a file name.
func PeriodFromFileName(name string) (domain.Period, bool) {
	m := fileDatePattern.FindStringSubmatch(name)
	if m == nil {
		return domain.Period{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 {
		return domain.Period{}, false
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day {
		log.Debug().Str("file", name).Time("date", date).Msg("file name date rolled over into the next month")
	}
	// Fields come from the normalized date so they agree with Label.
	return domain.Period{
		Day:   date.Day(),
		Month: int(date.Month()),
		Year:  date.Year(),
		Label: date.Format("January 2006"),
	}, true
}

// PeriodFromRows uses the month, reportMonth or period column of the first
// row as a free-text label.
func PeriodFromRows(rows []inventory.RawRow) (domain.Period, bool) {
	if len(rows) == 0 {
		return domain.Period{}, false
	}
	v := inventory.NewResolver(rows[0]).Resolve("month", "reportMonth", "period")
	if !inventory.Exists(v) {
		return domain.Period{}, false
	}
	label := strings.TrimSpace(inventory.ToText(v, ""))
	if label == "" {
		return domain.Period{}, false
	}

	p := domain.Period{Label: label}
	for _, layout := range []string{"January 2006", "Jan 2006", "2006-01", "01/2006", "January"} {
		if t, err := time.Parse(layout, label); err == nil {
			p.Month = int(t.Month())
			if t.Year() > 0 {
				p.Year = t.Year()
			}
			break
		}
	}
	return p, true
}

func detectPeriod(name string, rows []inventory.RawRow) domain.Period {
	if p, ok := PeriodFromFileName(name); ok {
		return p
	}
	p, _ := PeriodFromRows(rows)
	return p
}
