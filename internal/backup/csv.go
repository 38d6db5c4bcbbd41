package backup

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

var csvHeader = []string{"ID", "Title", "Description", "Status", "Priority", "Due Date", "Tags", "Category", "Completed"}

// minCSVFields is the shortest row ImportCSV accepts (id, title, description).
const minCSVFields = 3

// ExportCSV writes one row per task. The ID and text columns are always
// double-quoted with internal quotes doubled; tags are joined by ", ".
func ExportCSV(w io.Writer, tasks []model.Task) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(csvHeader, ",") + "\n")

	for _, task := range tasks {
		due := ""
		if task.DueDate != nil {
			due = task.DueDate.Format(time.RFC3339)
		}
		completed := "No"
		if task.IsCompleted() {
			completed = "Yes"
		}
		row := []string{
			quote(task.ID),
			quote(task.Title),
			quote(task.Description),
			string(task.Status),
			string(task.Priority),
			due,
			quote(strings.Join(task.Tags, ", ")),
			quote(task.Category),
			completed,
		}
		bw.WriteString(strings.Join(row, ",") + "\n")
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ImportCSV reads rows positionally after the header. Rows with fewer than
// three fields are skipped; missing status and priority default to pending
// and medium.
func ImportCSV(r io.Reader, now time.Time) ([]model.Task, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	tasks := []model.Task{}
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		if header {
			header = false
			if len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), csvHeader[0]) {
				continue
			}
		}
		if len(record) < minCSVFields {
			continue
		}

		task := model.Task{
			ID:          strings.TrimSpace(record[0]),
			Title:       record[1],
			Description: record[2],
			Status:      model.Status(field(record, 3)),
			Priority:    model.Priority(field(record, 4)),
			Tags:        splitTags(field(record, 6)),
			Category:    field(record, 7),
		}
		if due := field(record, 5); due != "" {
			if parsed, ok := parseDate(due); ok {
				task.DueDate = &parsed
			}
		}
		if !task.Status.Valid() && strings.EqualFold(field(record, 8), "yes") {
			task.Status = model.StatusCompleted
		}
		normalize(&task, now)
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func splitTags(s string) []string {
	tags := []string{}
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02", "1/2/2006"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
