// Package parser turns free-text task input into task drafts.
package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

type keywordGroup struct {
	keywords []string
	priority model.Priority
	tag      string
}

// Checked in order; the first matching group decides the priority. Keywords
// of every group are removed from the title.
var priorityGroups = []keywordGroup{
	{keywords: []string{"urgent", "asap", "critical"}, priority: model.PriorityUrgent},
	{keywords: []string{"high priority", "important"}, priority: model.PriorityHigh},
	{keywords: []string{"low priority", "minor"}, priority: model.PriorityLow},
}

var tagGroups = []keywordGroup{
	{keywords: []string{"study", "exam", "homework", "assignment"}, tag: "study"},
	{keywords: []string{"work", "meeting", "project", "presentation"}, tag: "work"},
	{keywords: []string{"personal", "home", "family"}, tag: "personal"},
	{keywords: []string{"health", "exercise", "gym", "workout"}, tag: "health"},
}

type dateKeyword struct {
	keyword string
	days    int
}

var dateKeywords = []dateKeyword{
	{keyword: "today", days: 0},
	{keyword: "tomorrow", days: 1},
	{keyword: "next week", days: 7},
}

var spaces = regexp.MustCompile(`\s+`)

// Parse extracts priority, tags and a relative due date from text. The
// result depends only on text and the calendar day of now.
func Parse(text string, now time.Time) model.TaskDraft {
	draft, stripped := parse(text, now)
	draft.Title = cleanTitle(text, stripped)
	return draft
}

func parse(text string, now time.Time) (model.TaskDraft, []string) {
	lower := strings.ToLower(text)
	var stripped []string

	priority := model.PriorityMedium
	resolved := false
	for _, group := range priorityGroups {
		matched := matchAny(lower, group.keywords)
		if len(matched) == 0 {
			continue
		}
		if !resolved {
			priority, resolved = group.priority, true
		}
		stripped = append(stripped, matched...)
	}

	tags := []string{}
	for _, group := range tagGroups {
		if len(matchAny(lower, group.keywords)) > 0 {
			tags = append(tags, group.tag)
		}
	}

	var dueDate *time.Time
	for _, date := range dateKeywords {
		if !strings.Contains(lower, date.keyword) {
			continue
		}
		if dueDate == nil {
			due := midnight(now).AddDate(0, 0, date.days)
			dueDate = &due
		}
		stripped = append(stripped, date.keyword)
	}

	return model.TaskDraft{
		Status:      model.StatusPending,
		Priority:    priority,
		DueDate:     dueDate,
		Tags:        tags,
		Subtasks:    []string{},
		AISuggested: true,
	}, stripped
}

func matchAny(lower string, keywords []string) []string {
	var matched []string
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			matched = append(matched, keyword)
		}
	}
	return matched
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// cleanTitle removes every keyword from text case-insensitively and falls
// back to the raw text when nothing is left.
func cleanTitle(text string, keywords []string) string {
	title := text
	for _, keyword := range keywords {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(keyword))
		title = re.ReplaceAllString(title, " ")
	}
	title = spaces.ReplaceAllString(title, " ")
	title = strings.Trim(title, " -,;:")
	if title == "" {
		return strings.TrimSpace(text)
	}
	return title
}
