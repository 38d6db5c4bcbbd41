package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Joseda-hg/smarttodo/internal/assist"
	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/parser"
	"github.com/Joseda-hg/smarttodo/internal/schedule"
	"github.com/Joseda-hg/smarttodo/internal/store"
)

const shortIDLen = 8

var (
	errNoTask        = errors.New("no task matches")
	errAmbiguousTask = errors.New("more than one task matches")
)

// resolveTask finds a task by full id or by a unique id prefix.
func resolveTask(repo *store.Repository, ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Task{}, fmt.Errorf("%w: empty id", errNoTask)
	}
	if task, ok := repo.Task(ref); ok {
		return task, nil
	}

	var matches []model.Task
	for _, task := range repo.Tasks() {
		if strings.HasPrefix(task.ID, ref) {
			matches = append(matches, task)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, fmt.Errorf("%w %q", errNoTask, ref)
	case 1:
		return matches[0], nil
	default:
		return model.Task{}, fmt.Errorf("%w %q", errAmbiguousTask, ref)
	}
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func priorityColor(p model.Priority) *color.Color {
	switch p {
	case model.PriorityUrgent:
		return color.New(color.FgRed, color.Bold)
	case model.PriorityHigh:
		return color.New(color.FgYellow)
	case model.PriorityLow:
		return color.New(color.Faint)
	default:
		return color.New(color.Reset)
	}
}

func printTask(w io.Writer, task model.Task, now time.Time) {
	idColor := color.New(color.FgCyan)
	mark := "[ ]"
	switch {
	case task.IsCompleted():
		mark = color.GreenString("[x]")
	case task.Status == model.StatusInProgress:
		mark = color.BlueString("[~]")
	}

	line := fmt.Sprintf("%s %s %s %s", idColor.Sprint(shortID(task.ID)), mark, priorityColor(task.Priority).Sprintf("%-6s", task.Priority), task.Title)
	if task.DueDate != nil {
		due := "due " + task.DueDate.Format("2006-01-02 15:04")
		if !task.IsCompleted() && task.DueDate.Before(now) {
			due = color.RedString("overdue " + task.DueDate.Format("2006-01-02 15:04"))
		}
		line += "  " + due
	}
	if task.Category != "" {
		line += "  @" + task.Category
	}
	if len(task.Tags) > 0 {
		line += "  " + color.MagentaString("#"+strings.Join(task.Tags, " #"))
	}
	fmt.Fprintln(w, line)
	for _, sub := range task.Subtasks {
		subMark := "[ ]"
		if sub.Completed {
			subMark = "[x]"
		}
		fmt.Fprintf(w, "         %s %s\n", subMark, sub.Title)
	}
}

// sortTasks puts open tasks first, then orders by priority and due date.
func sortTasks(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.IsCompleted() != b.IsCompleted() {
			return !a.IsCompleted()
		}
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		switch {
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

func newAddCmd(opts *options) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a task from natural language",
		Example: `  smarttodo add urgent finish report tomorrow 2 hours
  smarttodo add --raw "buy milk today"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			text := strings.Join(args, " ")
			now := time.Now()
			draft := model.TaskDraft{Title: text}
			if !raw {
				draft = parser.ParseExtended(text, now)
			}
			if strings.TrimSpace(draft.Title) == "" {
				return fmt.Errorf("task title is empty")
			}

			task := a.repo.CreateTask(ctx, draft)
			a.log.Logf("[INFO] added task %s", task.ID)
			printTask(cmd.OutOrStdout(), task, now)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "use the text as the title without parsing")
	return cmd
}

type listFilter struct {
	all      bool
	overdue  bool
	upcoming int
	tag      string
	category string
	status   string
}

func (f listFilter) apply(repo *store.Repository, now time.Time) ([]model.Task, error) {
	var tasks []model.Task
	switch {
	case f.overdue:
		tasks = repo.OverdueTasks(now)
	case f.upcoming > 0:
		tasks = repo.UpcomingTasks(now, f.upcoming)
	case f.tag != "":
		tasks = repo.TasksByTag(f.tag)
	case f.category != "":
		tasks = repo.TasksByCategory(f.category)
	default:
		tasks = repo.Tasks()
	}

	var status model.Status
	if f.status != "" {
		status = model.Status(f.status)
		if !status.Valid() {
			return nil, fmt.Errorf("invalid status %q", f.status)
		}
	}

	result := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if f.tag != "" && !task.HasTag(f.tag) {
			continue
		}
		if f.category != "" && !strings.EqualFold(task.Category, f.category) {
			continue
		}
		if status != "" && task.Status != status {
			continue
		}
		if status == "" && !f.all && task.IsCompleted() {
			continue
		}
		result = append(result, task)
	}
	sortTasks(result)
	return result, nil
}

func newListCmd(opts *options) *cobra.Command {
	var filter listFilter
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			now := time.Now()
			tasks, err := filter.apply(a.repo, now)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "no tasks")
				return nil
			}
			for _, task := range tasks {
				printTask(out, task, now)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.BoolVarP(&filter.all, "all", "a", false, "include completed tasks")
	flags.BoolVar(&filter.overdue, "overdue", false, "only overdue tasks")
	flags.IntVar(&filter.upcoming, "upcoming", 0, "only tasks due within this many days")
	flags.StringVar(&filter.tag, "tag", "", "only tasks with this tag")
	flags.StringVar(&filter.category, "category", "", "only tasks in this category")
	flags.StringVar(&filter.status, "status", "", "only tasks with this status (pending, in-progress, completed)")
	cmd.MarkFlagsMutuallyExclusive("overdue", "upcoming")
	return cmd
}

func newDoneCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := resolveTask(a.repo, args[0])
			if err != nil {
				return err
			}
			updated, ok := a.repo.ToggleTaskStatus(ctx, task.ID)
			if !ok {
				return fmt.Errorf("%w %q", errNoTask, args[0])
			}
			printTask(cmd.OutOrStdout(), updated, time.Now())
			return nil
		},
	}
}

func newRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := resolveTask(a.repo, args[0])
			if err != nil {
				return err
			}
			if !a.repo.DeleteTask(ctx, task.ID) {
				return fmt.Errorf("%w %q", errNoTask, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %s\n", shortID(task.ID), task.Title)
			return nil
		},
	}
}

func newPlanCmd(opts *options) *cobra.Command {
	var date string
	var week bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show time blocks, conflicts and workload for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			day := time.Now()
			if date != "" {
				if day, err = time.ParseInLocation("2006-01-02", date, time.Local); err != nil {
					return fmt.Errorf("invalid date %q: %w", date, err)
				}
			}
			out := cmd.OutOrStdout()
			tasks := a.repo.Tasks()
			if week {
				printWeek(out, tasks, schedule.StartOfDay(day))
				return nil
			}
			printPlan(out, tasks, day)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to plan as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&week, "week", false, "show seven days of workload starting at the date")
	return cmd
}

func printPlan(w io.Writer, tasks []model.Task, day time.Time) {
	open := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if !task.IsCompleted() {
			open = append(open, task)
		}
	}

	bold := color.New(color.Bold)
	bold.Fprintf(w, "Plan for %s\n", day.Format("Mon Jan 2 2006"))
	blocks := schedule.TimeBlocks(open, day)
	if len(blocks) == 0 {
		fmt.Fprintln(w, "  nothing due")
	}
	for _, block := range blocks {
		fmt.Fprintf(w, "  %s-%s  %s %s\n",
			block.Start.Format("15:04"), block.End.Format("15:04"),
			priorityColor(block.Priority).Sprintf("%-6s", block.Priority), block.Title)
	}
	fmt.Fprintf(w, "Workload: %d min\n", schedule.Workload(open, day))

	titles := make(map[string]string, len(open))
	for _, task := range open {
		titles[task.ID] = task.Title
	}
	conflicts := schedule.FindTimeConflicts(schedule.DueOn(open, day))
	if len(conflicts) == 0 {
		return
	}
	bold.Fprintln(w, "Conflicts")
	for _, c := range conflicts {
		fmt.Fprintf(w, "  %s overlaps %s by %s\n", color.YellowString(titles[c.First]), color.YellowString(titles[c.Second]), c.Overlap)
	}
}

func printWeek(w io.Writer, tasks []model.Task, start time.Time) {
	week := schedule.WeeklyWorkload(tasks, start)
	bold := color.New(color.Bold)
	bold.Fprintf(w, "Week of %s\n", start.Format("Jan 2 2006"))
	for _, day := range week {
		load := string(day.Load)
		switch day.Load {
		case schedule.LoadHigh:
			load = color.RedString(load)
		case schedule.LoadMedium:
			load = color.YellowString(load)
		}
		fmt.Fprintf(w, "  %-9s %2d tasks %4d min  %s\n", day.Day, day.Tasks, day.Minutes, load)
	}
	for _, s := range schedule.Balance(week) {
		fmt.Fprintf(w, "  - %s\n", s.Message)
	}
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show completion statistics and insights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			now := time.Now()
			tasks := a.repo.Tasks()
			stats := assist.ComputeStats(tasks, now)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total:        %d\n", stats.Total)
			fmt.Fprintf(out, "Completed:    %d (%d%%)\n", stats.Completed, stats.CompletionRate)
			fmt.Fprintf(out, "Pending:      %d\n", stats.Pending)
			fmt.Fprintf(out, "In progress:  %d\n", stats.InProgress)
			fmt.Fprintf(out, "Overdue:      %d\n", stats.Overdue)
			fmt.Fprintf(out, "Avg. time:    %d min\n", stats.AverageCompletionTime)
			fmt.Fprintf(out, "Productivity: %d\n", stats.ProductivityScore)
			for _, insight := range assist.Insights(tasks, now) {
				fmt.Fprintf(out, "%s %s\n", color.CyanString("["+insight.Type+"]"), insight.Message)
			}
			return nil
		},
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Show the change history, optionally for one task",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			entries := a.repo.History().All()
			if len(args) == 1 {
				taskID := args[0]
				if task, err := resolveTask(a.repo, taskID); err == nil {
					taskID = task.ID
				}
				entries = a.repo.History().ForTask(taskID)
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "no history")
				return nil
			}
			for _, entry := range entries {
				fmt.Fprintf(out, "%s %-8s %s %s\n",
					entry.Timestamp.Local().Format("2006-01-02 15:04:05"),
					entry.Action, color.CyanString(shortID(entry.TaskID)), entry.TaskTitle)
				for _, line := range changeLines(entry.Changes) {
					fmt.Fprintf(out, "    %s\n", line)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many recent entries (0 for all)")
	return cmd
}

func changeLines(changes map[string]model.Change) []string {
	fields := make([]string, 0, len(changes))
	for field := range changes {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		change := changes[field]
		lines = append(lines, fmt.Sprintf("%s: %v -> %v", field, change.From, change.To))
	}
	return lines
}
