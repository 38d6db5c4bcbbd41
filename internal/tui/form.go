package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/store"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldTitle = iota
	fieldDescription
	fieldStatus
	fieldPriority
	fieldTags
	fieldDue
	fieldCategory
	fieldEstimate
)

var (
	statusOrder   = []string{string(model.StatusPending), string(model.StatusInProgress), string(model.StatusCompleted)}
	priorityOrder = []string{string(model.PriorityLow), string(model.PriorityMedium), string(model.PriorityHigh), string(model.PriorityUrgent)}
)

// formValues is the validated content of the task form.
type formValues struct {
	Title       string
	Description string
	Status      model.Status
	Priority    model.Priority
	Tags        []string
	DueDate     *time.Time
	Category    string
	Estimate    *int
}

func buildFormFields(task *model.Task, defaultPriority model.Priority) []formField {
	fields := []formField{
		{Label: "Title"},
		{Label: "Description"},
		{Label: "Status (space/←→)"},
		{Label: "Priority (space/←→)"},
		{Label: "Tags (space/←→ pick)"},
		{Label: "Due (YYYY-MM-DD [HH:MM])"},
		{Label: "Category"},
		{Label: "Estimate (min)"},
	}

	if task == nil {
		if !defaultPriority.Valid() {
			defaultPriority = model.PriorityMedium
		}
		fields[fieldStatus].Value = string(model.StatusPending)
		fields[fieldPriority].Value = string(defaultPriority)
		return fields
	}

	fields[fieldTitle].Value = task.Title
	fields[fieldDescription].Value = task.Description
	fields[fieldStatus].Value = string(task.Status)
	fields[fieldPriority].Value = string(task.Priority)
	fields[fieldTags].Value = joinTags(task.Tags)
	if task.DueDate != nil {
		fields[fieldDue].Value = formatDue(task.DueDate)
	}
	fields[fieldCategory].Value = task.Category
	if task.EstimatedTime != nil {
		fields[fieldEstimate].Value = strconv.Itoa(*task.EstimatedTime)
	}

	return fields
}

func parseFormFields(fields []formField, loc *time.Location) (formValues, error) {
	title := strings.TrimSpace(fields[fieldTitle].Value)
	if title == "" {
		return formValues{}, fmt.Errorf("title is required")
	}

	status := model.Status(strings.TrimSpace(fields[fieldStatus].Value))
	if !status.Valid() {
		return formValues{}, fmt.Errorf("invalid status %q", status)
	}

	priority := model.Priority(strings.TrimSpace(fields[fieldPriority].Value))
	if !priority.Valid() {
		return formValues{}, fmt.Errorf("invalid priority %q", priority)
	}

	due, err := parseDue(fields[fieldDue].Value, loc)
	if err != nil {
		return formValues{}, err
	}

	estimate, err := parseEstimate(fields[fieldEstimate].Value)
	if err != nil {
		return formValues{}, err
	}

	return formValues{
		Title:       title,
		Description: strings.TrimSpace(fields[fieldDescription].Value),
		Status:      status,
		Priority:    priority,
		Tags:        parseTags(fields[fieldTags].Value),
		DueDate:     due,
		Category:    strings.TrimSpace(fields[fieldCategory].Value),
		Estimate:    estimate,
	}, nil
}

func (v formValues) draft() model.TaskDraft {
	return model.TaskDraft{
		Title:         v.Title,
		Description:   v.Description,
		Status:        v.Status,
		Priority:      v.Priority,
		DueDate:       v.DueDate,
		Tags:          v.Tags,
		Category:      v.Category,
		EstimatedTime: v.Estimate,
	}
}

// patch sets every form field, clearing the due date when it was emptied.
func (v formValues) patch() store.TaskPatch {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	return store.TaskPatch{
		Title:         &v.Title,
		Description:   &v.Description,
		Status:        &v.Status,
		Priority:      &v.Priority,
		DueDate:       v.DueDate,
		ClearDueDate:  v.DueDate == nil,
		Tags:          tags,
		Category:      &v.Category,
		EstimatedTime: v.Estimate,
	}
}

func parseDue(value string, loc *time.Location) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if parsed, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("invalid due date")
}

func parseEstimate(value string) (*int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	minutes, err := strconv.Atoi(trimmed)
	if err != nil || minutes < 0 {
		return nil, fmt.Errorf("invalid estimate")
	}
	return &minutes, nil
}

func parseTags(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// toggleTag adds name to a comma separated tag list, or removes it when
// present. The result is sorted.
func toggleTag(value, name string) string {
	selected := make(map[string]struct{})
	for _, tag := range parseTags(value) {
		selected[tag] = struct{}{}
	}
	if _, ok := selected[name]; ok {
		delete(selected, name)
	} else {
		selected[name] = struct{}{}
	}

	ordered := make([]string, 0, len(selected))
	for tag := range selected {
		ordered = append(ordered, tag)
	}
	sort.Strings(ordered)
	return strings.Join(ordered, ", ")
}

func cycle(order []string, current string, delta int) string {
	value := strings.TrimSpace(strings.ToLower(current))
	index := 0
	for i, option := range order {
		if option == value {
			index = i
			break
		}
	}
	index = (index + delta + len(order)) % len(order)
	return order[index]
}
