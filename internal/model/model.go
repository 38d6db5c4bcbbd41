package model

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities from most to least pressing: urgent=0 ... low=3.
// Unknown values sort after low.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

type Task struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Status        Status            `json:"status"`
	Priority      Priority          `json:"priority"`
	DueDate       *time.Time        `json:"dueDate,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	CompletedAt   *time.Time        `json:"completedAt,omitempty"`
	Tags          []string          `json:"tags"`
	Category      string            `json:"category,omitempty"`
	Subtasks      []SubTask         `json:"subtasks"`
	Recurring     *RecurringPattern `json:"recurring,omitempty"`
	EstimatedTime *int              `json:"estimatedTime,omitempty"`
	ActualTime    *int              `json:"actualTime,omitempty"`
	ReminderTime  *int              `json:"reminderTime,omitempty"`
	Color         string            `json:"color,omitempty"`
	AISuggested   bool              `json:"aiSuggested,omitempty"`
	Dependencies  []string          `json:"dependencies,omitempty"`
}

// Estimate returns the estimated duration in minutes, or def when unset.
func (t Task) Estimate(def int) int {
	if t.EstimatedTime == nil || *t.EstimatedTime <= 0 {
		return def
	}
	return *t.EstimatedTime
}

func (t Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// Clone returns a copy of t that shares no memory with it.
func (t Task) Clone() Task {
	out := t
	out.DueDate = cloneTime(t.DueDate)
	out.CompletedAt = cloneTime(t.CompletedAt)
	out.EstimatedTime = cloneInt(t.EstimatedTime)
	out.ActualTime = cloneInt(t.ActualTime)
	out.ReminderTime = cloneInt(t.ReminderTime)
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	if t.Dependencies != nil {
		out.Dependencies = append([]string(nil), t.Dependencies...)
	}
	if t.Subtasks != nil {
		out.Subtasks = append([]SubTask(nil), t.Subtasks...)
	}
	if t.Recurring != nil {
		rec := *t.Recurring
		if rec.DaysOfWeek != nil {
			rec.DaysOfWeek = append([]int(nil), rec.DaysOfWeek...)
		}
		rec.EndDate = cloneTime(rec.EndDate)
		out.Recurring = &rec
	}
	return out
}

type SubTask struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// RecurringPattern describes how a task repeats. DaysOfWeek (0 = Sunday)
// narrows a weekly pattern to the listed weekdays. SpawnedID is the follow-up
// created when the task was completed; a task spawns at most one.
type RecurringPattern struct {
	Frequency  Frequency  `json:"frequency"`
	Interval   int        `json:"interval"`
	DaysOfWeek []int      `json:"daysOfWeek,omitempty"`
	EndDate    *time.Time `json:"endDate,omitempty"`
	SpawnedID  string     `json:"spawnedId,omitempty"`
}

// Next advances from by one recurrence step.
func (r RecurringPattern) Next(from time.Time) time.Time {
	interval := r.Interval
	if interval <= 0 {
		interval = 1
	}
	switch r.Frequency {
	case FrequencyWeekly:
		if days := r.weekdays(); len(days) > 0 {
			return nextWeekday(from, days, interval)
		}
		return from.AddDate(0, 0, 7*interval)
	case FrequencyMonthly:
		return from.AddDate(0, interval, 0)
	case FrequencyYearly:
		return from.AddDate(interval, 0, 0)
	default:
		return from.AddDate(0, 0, interval)
	}
}

// weekdays returns the valid entries of DaysOfWeek, sorted and unique.
func (r RecurringPattern) weekdays() []int {
	var seen [7]bool
	for _, d := range r.DaysOfWeek {
		if d >= 0 && d < 7 {
			seen[d] = true
		}
	}
	days := []int{}
	for d, ok := range seen {
		if ok {
			days = append(days, d)
		}
	}
	return days
}

// nextWeekday returns the next listed weekday later in from's week, or the
// first listed weekday interval weeks on. Weeks start on Sunday.
func nextWeekday(from time.Time, days []int, interval int) time.Time {
	current := int(from.Weekday())
	for _, d := range days {
		if d > current {
			return from.AddDate(0, 0, d-current)
		}
	}
	weekStart := from.AddDate(0, 0, -current)
	return weekStart.AddDate(0, 0, 7*interval+days[0])
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon,omitempty"`
}

// TaskDraft is a task-shaped value without identity or timestamps.
type TaskDraft struct {
	Title         string            `json:"title" yaml:"title"`
	Description   string            `json:"description,omitempty" yaml:"description,omitempty"`
	Status        Status            `json:"status" yaml:"status,omitempty"`
	Priority      Priority          `json:"priority" yaml:"priority,omitempty"`
	DueDate       *time.Time        `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	Tags          []string          `json:"tags" yaml:"tags,omitempty"`
	Category      string            `json:"category,omitempty" yaml:"category,omitempty"`
	Subtasks      []string          `json:"subtasks" yaml:"subtasks,omitempty"`
	EstimatedTime *int              `json:"estimatedTime,omitempty" yaml:"estimatedTime,omitempty"`
	ReminderTime  *int              `json:"reminderTime,omitempty" yaml:"reminderTime,omitempty"`
	Recurring     *RecurringPattern `json:"recurring,omitempty" yaml:"-"`
	Color         string            `json:"color,omitempty" yaml:"color,omitempty"`
	AISuggested   bool              `json:"aiSuggested,omitempty" yaml:"-"`
	Dependencies  []string          `json:"dependencies,omitempty" yaml:"-"`
}

type TaskTemplate struct {
	ID          string      `json:"id" yaml:"id,omitempty"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description,omitempty"`
	Tasks       []TaskDraft `json:"tasks" yaml:"tasks"`
}

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

type DeliveryMode string

const (
	DeliveryImmediate DeliveryMode = "immediate"
	DeliveryBatch     DeliveryMode = "batch"
)

type WorkingHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type NotificationSettings struct {
	Enabled               bool               `json:"enabled"`
	Sound                 bool               `json:"sound"`
	Browser               bool               `json:"browserNotifications"`
	Email                 bool               `json:"emailNotifications"`
	EmailAddress          string             `json:"emailAddress,omitempty"`
	DefaultReminderTimes  []int              `json:"defaultReminderTimes"`
	SmartReminders        bool               `json:"smartReminders"`
	PriorityReminderTimes map[Priority][]int `json:"priorityBasedReminders"`
	DeliveryMode          DeliveryMode       `json:"deliveryMode"`
}

type UserPreferences struct {
	Theme           Theme                `json:"theme"`
	DateFormat      string               `json:"dateFormat"`
	TimeFormat      string               `json:"timeFormat"`
	WorkingHours    WorkingHours         `json:"workingHours"`
	DefaultPriority Priority             `json:"defaultPriority"`
	WeekStartsOn    int                  `json:"weekStartsOn"`
	Notifications   NotificationSettings `json:"notifications"`
}

func DefaultPreferences() UserPreferences {
	return UserPreferences{
		Theme:           ThemeSystem,
		DateFormat:      "MM/dd/yyyy",
		TimeFormat:      "12h",
		WorkingHours:    WorkingHours{Start: "09:00", End: "17:00"},
		DefaultPriority: PriorityMedium,
		WeekStartsOn:    1,
		Notifications: NotificationSettings{
			Enabled:              true,
			Sound:                true,
			Browser:              true,
			DefaultReminderTimes: []int{15, 60},
			SmartReminders:       true,
			PriorityReminderTimes: map[Priority][]int{
				PriorityUrgent: {15, 60, 1440},
				PriorityHigh:   {30, 120},
				PriorityMedium: {60},
				PriorityLow:    {1440},
			},
			DeliveryMode: DeliveryImmediate,
		},
	}
}

type Channel string

const (
	ChannelBrowser  Channel = "browser"
	ChannelEmail    Channel = "email"
	ChannelTelegram Channel = "telegram"
	ChannelDiscord  Channel = "discord"
)

type Reminder struct {
	ID           string     `json:"id"`
	TaskID       string     `json:"taskId"`
	ReminderTime time.Time  `json:"reminderTime"`
	Type         Channel    `json:"type"`
	Sent         bool       `json:"sent"`
	SentAt       *time.Time `json:"sentAt,omitempty"`
}

type NotificationType string

const (
	NotificationReminder   NotificationType = "reminder"
	NotificationOverdue    NotificationType = "overdue"
	NotificationUpcoming   NotificationType = "upcoming"
	NotificationCompletion NotificationType = "completion"
	NotificationCustom     NotificationType = "custom"
)

type Notification struct {
	ID         string           `json:"id"`
	TaskID     string           `json:"taskId,omitempty"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Type       NotificationType `json:"type"`
	Read       bool             `json:"read"`
	Priority   Priority         `json:"priority,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	ActionLink string           `json:"actionUrl,omitempty"`
}

type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionComplete Action = "complete"
)

type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

type HistoryEntry struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	Action        Action            `json:"action"`
	TaskID        string            `json:"taskId"`
	TaskTitle     string            `json:"taskTitle"`
	Changes       map[string]Change `json:"changes,omitempty"`
	PreviousState *Task             `json:"previousState,omitempty"`
}

type Backup struct {
	Tasks      []Task     `json:"tasks"`
	Categories []Category `json:"categories"`
	ExportDate time.Time  `json:"exportDate"`
	Version    string     `json:"version"`
}

type BackupMeta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	TaskCount int       `json:"taskCount"`
	Size      int       `json:"size"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// IntPtr is a small helper for optional minute fields.
func IntPtr(v int) *int {
	return &v
}

// TimePtr returns a pointer to a copy of t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
