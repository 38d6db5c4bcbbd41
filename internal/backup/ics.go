package backup

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

// DefaultEventMinutes is the event length for tasks without an estimate.
const DefaultEventMinutes = 60

const icsTime = "20060102T150405Z"

// icsLineOctets is the longest content line before folding.
const icsLineOctets = 75

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

// ExportICS writes a VCALENDAR with one VEVENT per task that has a due date.
func ExportICS(w io.Writer, tasks []model.Task, stamp time.Time) error {
	bw := bufio.NewWriter(w)
	line := func(format string, args ...any) {
		bw.WriteString(foldICS(fmt.Sprintf(format, args...)) + "\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:-//smarttodo//Task Export//EN")
	line("CALSCALE:GREGORIAN")
	line("METHOD:PUBLISH")

	for _, task := range tasks {
		if task.DueDate == nil {
			continue
		}
		start := task.DueDate.UTC()
		end := start.Add(time.Duration(task.Estimate(DefaultEventMinutes)) * time.Minute)

		line("BEGIN:VEVENT")
		line("UID:%s@smarttodo", task.ID)
		line("DTSTAMP:%s", stamp.UTC().Format(icsTime))
		line("DTSTART:%s", start.Format(icsTime))
		line("DTEND:%s", end.Format(icsTime))
		line("SUMMARY:%s", icsEscaper.Replace(task.Title))
		if task.Description != "" {
			line("DESCRIPTION:%s", icsEscaper.Replace(task.Description))
		}
		line("PRIORITY:%d", icsPriority(task.Priority))
		line("STATUS:%s", icsStatus(task.Status))
		if len(task.Tags) > 0 {
			escaped := make([]string, 0, len(task.Tags))
			for _, tag := range task.Tags {
				escaped = append(escaped, icsEscaper.Replace(tag))
			}
			line("CATEGORIES:%s", strings.Join(escaped, ","))
		}
		line("END:VEVENT")
	}

	line("END:VCALENDAR")
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write ics: %w", err)
	}
	return nil
}

// foldICS breaks s into lines of at most 75 octets, each continuation
// starting with a space. Runes are never split.
func foldICS(s string) string {
	if len(s) <= icsLineOctets {
		return s
	}
	var b strings.Builder
	limit := icsLineOctets
	for len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		b.WriteString(s[:cut])
		b.WriteString("\r\n ")
		s = s[cut:]
		limit = icsLineOctets - 1
	}
	b.WriteString(s)
	return b.String()
}

func icsPriority(p model.Priority) int {
	switch p {
	case model.PriorityUrgent:
		return 1
	case model.PriorityHigh:
		return 3
	case model.PriorityLow:
		return 9
	default:
		return 5
	}
}

func icsStatus(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return "COMPLETED"
	case model.StatusInProgress:
		return "IN-PROCESS"
	default:
		return "TODO"
	}
}
