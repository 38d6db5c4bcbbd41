package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

var (
	isoDatePattern   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	slashDatePattern = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	monthDayPattern  = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.? (\d{1,2})\b`)
	estimatePattern  = regexp.MustCompile(`(?i)\b(\d+)\s*(hours?|hrs?|minutes?|mins?)\b`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseExtended runs Parse and then recognises "next month", absolute dates
// (2026-01-15, 1/15/2026, Jan 15) and duration estimates ("2 hours", "45 min").
// Relative keywords handled by Parse take precedence over absolute dates.
func ParseExtended(text string, now time.Time) model.TaskDraft {
	draft, stripped := parse(text, now)
	lower := strings.ToLower(text)

	if draft.DueDate == nil {
		if strings.Contains(lower, "next month") {
			due := midnight(now).AddDate(0, 0, 30)
			draft.DueDate = &due
			stripped = append(stripped, "next month")
		} else if due, match, ok := absoluteDate(text, now); ok {
			draft.DueDate = &due
			stripped = append(stripped, match)
		}
	}

	if m := estimatePattern.FindStringSubmatch(text); m != nil {
		value, err := strconv.Atoi(m[1])
		if err == nil && value > 0 {
			if strings.HasPrefix(strings.ToLower(m[2]), "h") {
				value *= 60
			}
			draft.EstimatedTime = &value
			stripped = append(stripped, m[0])
		}
	}

	draft.Title = cleanTitle(text, stripped)
	return draft
}

func absoluteDate(text string, now time.Time) (time.Time, string, bool) {
	loc := now.Location()

	if match := isoDatePattern.FindString(text); match != "" {
		if t, err := time.ParseInLocation("2006-01-02", match, loc); err == nil {
			return t, match, true
		}
	}

	if match := slashDatePattern.FindString(text); match != "" {
		for _, layout := range []string{"1/2/2006", "1/2/06"} {
			if t, err := time.ParseInLocation(layout, match, loc); err == nil {
				return t, match, true
			}
		}
	}

	if m := monthDayPattern.FindStringSubmatch(text); m != nil {
		month := months[strings.ToLower(m[1])]
		day, err := strconv.Atoi(m[2])
		if err == nil && day >= 1 && day <= 31 {
			t := time.Date(now.Year(), month, day, 0, 0, 0, 0, loc)
			// time.Date normalises Feb 30 into March; reject that.
			if t.Month() != month {
				return time.Time{}, "", false
			}
			if t.Before(midnight(now)) {
				t = t.AddDate(1, 0, 0)
			}
			return t, m[0], true
		}
	}

	return time.Time{}, "", false
}
