package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/smarttodo/internal/model"
	"github.com/Joseda-hg/smarttodo/internal/notify"
	"github.com/Joseda-hg/smarttodo/internal/parser"
	"github.com/Joseda-hg/smarttodo/internal/schedule"
	"github.com/Joseda-hg/smarttodo/internal/store"
)

const (
	viewHeader      = "header"
	viewFooter      = "footer"
	viewPending     = "pending"
	viewDone        = "done"
	viewTags        = "tags"
	viewHighlighted = "highlighted"
	viewUpcoming    = "upcoming"
	viewHistory     = "history"
	viewSearch      = "search"
	viewForm        = "form"
	viewHelp        = "help"
	viewInput       = "input"
)

const (
	recentDoneLimit = 10
	upcomingDays    = 7
)

type UI struct {
	ctx    context.Context
	repo   *store.Repository
	center *notify.Center
	now    func() time.Time

	query      string
	activeTags map[string]struct{}

	pending  []listRow
	done     []listRow
	upcoming []listRow
	tags     []tagCountEntry
	doing    []model.Task
	overdue  int
	history  []model.HistoryEntry
	expanded map[string]bool

	selectedPending  int
	selectedDone     int
	selectedUpcoming int
	selectedTags     int
	selectedHistory  int
	focus            string
	listFocus        string

	form         *formState
	formEditor   *formEditor
	formTagIndex int
	input        *inputState
	searchActive bool
	helpActive   bool
	status       string
}

type formState struct {
	taskID string
	fields []formField
	index  int
}

type formEditor struct {
	ui *UI
}

type inputKind int

const (
	inputQuickAdd inputKind = iota
	inputSubtask
)

// inputState backs the single line popup used for quick add and subtasks.
type inputState struct {
	kind   inputKind
	taskID string
}

type Option func(*UI)

func WithClock(now func() time.Time) Option {
	return func(u *UI) { u.now = now }
}

// WithNotifications shows the unread count of center in the header.
func WithNotifications(center *notify.Center) Option {
	return func(u *UI) { u.center = center }
}

func newUI(repo *store.Repository, opts ...Option) *UI {
	u := &UI{
		ctx:        context.Background(),
		repo:       repo,
		now:        time.Now,
		focus:      viewPending,
		listFocus:  viewPending,
		activeTags: make(map[string]struct{}),
		expanded:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(u)
	}
	u.formEditor = &formEditor{ui: u}
	return u
}

// Run blocks in the terminal UI until the user quits. Changes committed by
// other front ends, such as the web server, are picked up as they happen.
func Run(ctx context.Context, repo *store.Repository, opts ...Option) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(repo, opts...)
	ui.ctx = ctx
	gui.Mouse = true

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	if err := ui.loadTasks(); err != nil {
		return err
	}

	var closed atomic.Bool
	defer closed.Store(true)
	repo.Subscribe(func(store.Event) {
		if closed.Load() {
			return
		}
		gui.Update(func(*gocui.Gui) error {
			if ui.inputActive() {
				return nil
			}
			return ui.loadTasks()
		})
	})

	go func() {
		<-ctx.Done()
		if !closed.Load() {
			gui.Update(func(*gocui.Gui) error { return gocui.ErrQuit })
		}
	}()

	if err := gui.MainLoop(); err != nil && !goerrors.Is(err, gocui.ErrQuit) {
		return err
	}

	return nil
}

type binding struct {
	view    string
	key     any
	handler func(*gocui.Gui, *gocui.View) error
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	bindings := []binding{
		{"", gocui.KeyCtrlC, u.quit},
		{"", 'q', u.quit},
		{"", 'r', u.reload},
		{"", 'g', u.clearFilters},
		{"", 'a', u.addTask},
		{"", 'n', u.openQuickAdd},
		{"", 's', u.openSubtask},
		{"", 'e', u.editTask},
		{"", 'd', u.deleteTask},
		{"", 'c', u.toggleDoing},
		{"", 'x', u.toggleDone},
		{"", 'u', u.undo},
		{"", 'U', u.redo},
		{"", 'h', u.refreshHistory},
		{"", '/', u.startSearch},
		{"", '?', u.toggleHelp},
		{"", gocui.KeyTab, u.switchFocus},
		{"", '1', u.focusPending},
		{"", '2', u.focusDone},
		{"", '3', u.focusTags},
		{"", '4', u.focusHighlighted},
		{"", '5', u.focusUpcoming},
		{"", '6', u.focusHistory},
		{viewTags, gocui.KeySpace, u.toggleTagFilter},
		{viewTags, gocui.KeyEnter, u.toggleTagFilter},
		{viewTags, 'd', u.deleteTag},
		{viewSearch, gocui.KeyEnter, u.submitSearch},
		{viewSearch, gocui.KeyEsc, u.cancelSearch},
		{viewInput, gocui.KeyEnter, u.submitInput},
		{viewInput, gocui.KeyEsc, u.cancelInput},
		{viewForm, gocui.KeyEnter, u.submitFormNow},
		{viewForm, gocui.KeyCtrlJ, u.submitFormNow},
		{viewForm, gocui.KeyTab, u.nextFormField},
		{viewForm, gocui.KeyBacktab, u.prevFormField},
		{viewForm, gocui.KeyArrowDown, u.nextFormField},
		{viewForm, gocui.KeyArrowUp, u.prevFormField},
		{viewForm, gocui.KeyEsc, u.cancelForm},
		{viewHelp, gocui.KeyEsc, u.closeHelp},
		{viewHelp, 'q', u.closeHelp},
		{viewHelp, '?', u.closeHelp},
	}
	for _, name := range []string{viewPending, viewDone, viewUpcoming} {
		bindings = append(bindings, binding{name, gocui.KeyEnter, u.toggleCollapse})
	}
	for _, name := range []string{viewPending, viewDone, viewUpcoming, viewTags, viewHistory} {
		bindings = append(bindings,
			binding{name, gocui.KeyArrowDown, u.moveDown},
			binding{name, 'j', u.moveDown},
			binding{name, gocui.KeyArrowUp, u.moveUp},
			binding{name, 'k', u.moveUp},
		)
	}

	for _, b := range bindings {
		if err := gui.SetKeybinding(b.view, b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}

	for _, name := range []string{viewPending, viewDone, viewTags, viewUpcoming, viewHistory} {
		viewName := name
		if err := gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewName, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
			return u.onListClick(gui, viewName, opts)
		}}); err != nil {
			return err
		}
	}
	return u.bindMouseScroll(gui)
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 0, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	headerView.FgColor = gocui.ColorDefault
	u.renderHeader(headerView)

	footerY1 := max(maxY-2, 1)
	footerY0 := max(footerY1-2, 1)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	footerView.BgColor = gocui.ColorDefault
	u.renderFooter(footerView)

	bodyTop := 1
	bodyBottom := footerY0 - 1
	if bodyBottom < bodyTop {
		return nil
	}

	l := computeLayout(maxX, bodyBottom-bodyTop+1)
	leftX0 := 0
	leftX1 := leftX0 + l.leftWidth - 1
	rightX0 := leftX1 + 1
	if rightX0 >= maxX {
		rightX0 = leftX1
	}
	rightX1 := maxX - 1

	pendingY1 := bodyTop + l.pendingHeight - 1
	doneY1 := pendingY1 + l.doneHeight
	highlightedY1 := bodyTop + l.highlighted - 1
	upcomingY1 := highlightedY1 + l.upcomingHeight

	panes := []struct {
		name      string
		title     string
		color     gocui.Attribute
		x0, y0    int
		x1, y1    int
		highlight bool
		render    func(*gocui.View)
	}{
		{viewPending, "1 Pending", gocui.ColorRed, leftX0, bodyTop, leftX1, pendingY1, true, func(v *gocui.View) {
			u.renderRows(v, u.pending, u.selectedPending, u.focus == viewPending)
		}},
		{viewDone, "2 Recently Done", gocui.ColorGreen, leftX0, pendingY1 + 1, leftX1, doneY1, true, func(v *gocui.View) {
			u.renderRows(v, u.done, u.selectedDone, u.focus == viewDone)
		}},
		{viewTags, "3 Tags", gocui.ColorCyan, leftX0, doneY1 + 1, leftX1, bodyBottom, false, u.renderTags},
		{viewHighlighted, "4 Highlighted", gocui.ColorDefault, rightX0, bodyTop, rightX1, highlightedY1, false, u.renderHighlighted},
		{viewUpcoming, fmt.Sprintf("5 Upcoming (%dd)", upcomingDays), gocui.ColorYellow, rightX0, highlightedY1 + 1, rightX1, upcomingY1, true, func(v *gocui.View) {
			u.renderRows(v, u.upcoming, u.selectedUpcoming, u.focus == viewUpcoming)
		}},
		{viewHistory, "6 History", gocui.ColorDefault, rightX0, upcomingY1 + 1, rightX1, bodyBottom, true, u.renderHistory},
	}
	for _, pane := range panes {
		view, err := gui.SetView(pane.name, pane.x0, pane.y0, pane.x1, pane.y1, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		if goerrors.Is(err, gocui.ErrUnknownView) {
			view.Title = pane.title
			view.TitleColor = pane.color
		}
		applyViewStyle(view, u.focus == pane.name, pane.highlight)
		pane.render(view)
	}

	_, _ = gui.SetViewOnTop(viewHeader)
	_, _ = gui.SetViewOnTop(viewFooter)

	overlays := []struct {
		name   string
		active bool
		show   func(*gocui.Gui) error
	}{
		{viewSearch, u.searchActive, u.showSearch},
		{viewForm, u.form != nil, u.showForm},
		{viewInput, u.input != nil, u.showInput},
		{viewHelp, u.helpActive, u.showHelp},
	}
	for _, overlay := range overlays {
		if !overlay.active {
			_ = gui.DeleteView(overlay.name)
			continue
		}
		if err := overlay.show(gui); err != nil {
			return err
		}
	}

	if gui.CurrentView() == nil {
		_, _ = gui.SetCurrentView(u.focus)
	}

	gui.Cursor = u.searchActive || u.form != nil || u.input != nil

	return nil
}

type layout struct {
	leftWidth      int
	pendingHeight  int
	doneHeight     int
	tagsHeight     int
	highlighted    int
	upcomingHeight int
	historyHeight  int
}

func computeLayout(width, height int) layout {
	safeWidth := max(width-2, 20)
	safeHeight := max(height, 8)

	leftWidth := max(safeWidth*2/5, 30)
	if leftWidth > safeWidth-18 {
		leftWidth = safeWidth / 2
	}

	pendingHeight := max(int(float64(safeHeight)*0.5), 4)
	doneHeight := max(int(float64(safeHeight)*0.3), 4)
	tagsHeight := safeHeight - pendingHeight - doneHeight
	if tagsHeight < 3 {
		tagsHeight = 3
		doneHeight = max(safeHeight-pendingHeight-tagsHeight, 3)
	}

	highlighted := max(int(float64(safeHeight)*0.45), 4)
	upcomingHeight := max(int(float64(safeHeight)*0.25), 3)
	historyHeight := safeHeight - highlighted - upcomingHeight
	if historyHeight < 3 {
		historyHeight = 3
		upcomingHeight = max(safeHeight-highlighted-historyHeight, 3)
	}

	return layout{
		leftWidth:      leftWidth,
		pendingHeight:  pendingHeight,
		doneHeight:     doneHeight,
		tagsHeight:     tagsHeight,
		highlighted:    highlighted,
		upcomingHeight: upcomingHeight,
		historyHeight:  historyHeight,
	}
}

func (u *UI) loadTasks() error {
	now := u.now()
	tasks := u.repo.Tasks()
	activeTags := u.activeTagList()

	keep := func(task model.Task) bool {
		return matchesQuery(task, u.query) && hasAllTags(task, activeTags)
	}

	open := make([]model.Task, 0, len(tasks))
	done := make([]model.Task, 0, len(tasks))
	doing := make([]model.Task, 0)
	overdue := 0
	for _, task := range tasks {
		if !keep(task) {
			continue
		}
		switch task.Status {
		case model.StatusCompleted:
			done = append(done, task)
		case model.StatusInProgress:
			doing = append(doing, task)
			open = append(open, task)
		default:
			open = append(open, task)
		}
		if !task.IsCompleted() && task.DueDate != nil && task.DueDate.Before(now) {
			overdue++
		}
	}
	sortOpen(open)

	sort.SliceStable(done, func(i, j int) bool {
		return completedAt(done[i]).After(completedAt(done[j]))
	})
	if len(done) > recentDoneLimit {
		done = done[:recentDoneLimit]
	}

	upcoming := make([]model.Task, 0)
	for _, task := range u.repo.UpcomingTasks(now, upcomingDays) {
		if keep(task) {
			upcoming = append(upcoming, task)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DueDate.Before(*upcoming[j].DueDate)
	})

	u.pending = buildRows(open, u.expanded)
	u.done = buildRows(done, u.expanded)
	u.upcoming = buildRows(upcoming, u.expanded)
	u.tags = countTags(tasks)
	u.doing = doing
	u.overdue = overdue

	u.selectedPending = clamp(u.selectedPending, len(u.pending))
	u.selectedDone = clamp(u.selectedDone, len(u.done))
	u.selectedUpcoming = clamp(u.selectedUpcoming, len(u.upcoming))
	u.selectedTags = clamp(u.selectedTags, len(u.tags))
	u.formTagIndex = clamp(u.formTagIndex, len(u.tags))

	return u.loadHistory()
}

func completedAt(task model.Task) time.Time {
	if task.CompletedAt != nil {
		return *task.CompletedAt
	}
	return task.UpdatedAt
}

func (u *UI) loadHistory() error {
	selected := u.selectedTask()
	if selected == nil {
		u.history = nil
		return nil
	}
	u.history = u.repo.History().ForTask(selected.ID)
	u.selectedHistory = clamp(u.selectedHistory, len(u.history))
	return nil
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	query := strings.TrimSpace(u.query)
	if query == "" {
		query = "type / to search"
	}

	tagsLabel := "none"
	if tags := u.activeTagList(); len(tags) > 0 {
		tagsLabel = strings.Join(tags, ",")
	}

	undoLabel := "-"
	switch {
	case u.repo.CanUndo() && u.repo.CanRedo():
		undoLabel = "undo/redo"
	case u.repo.CanUndo():
		undoLabel = "undo"
	case u.repo.CanRedo():
		undoLabel = "redo"
	}

	fmt.Fprintf(view, "Search: %s | Tags: %s | Overdue: %d | History: %s", query, tagsLabel, u.overdue, undoLabel)
	if u.center != nil {
		fmt.Fprintf(view, " | Unread: %d", len(u.center.Unread()))
	}
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	fmt.Fprintln(view, "a add | n quick add | s subtask | e edit | d delete | enter expand/toggle | c in progress | x done")
	fmt.Fprintln(view, "u undo | U redo | / search | space tag | h history | r reload | g clear | tab cycle | 1-6 panes | q quit")
	if u.status != "" {
		fmt.Fprint(view, u.status)
	}
}

func (u *UI) renderRows(view *gocui.View, rows []listRow, selected int, focused bool) {
	view.Clear()
	now := u.now()
	for i, row := range rows {
		prefix := " "
		if i == selected {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}

		if row.Subtask != nil {
			fmt.Fprintf(view, "%s     %s\n", prefix, formatSubtask(*row.Subtask))
			continue
		}

		marker := " "
		if len(row.Task.Subtasks) > 0 {
			if u.expanded[row.Task.ID] {
				marker = "-"
			} else {
				marker = "+"
			}
		}
		fmt.Fprintf(view, "%s %s %s\n", prefix, marker, formatTaskSummary(row.Task, now))
	}
	if focused {
		view.SetCursor(0, min(selected, len(rows)-1))
	}
}

func (u *UI) renderTags(view *gocui.View) {
	view.Clear()
	for index, entry := range u.tags {
		prefix := " "
		if index == u.selectedTags {
			prefix = ">"
		}
		marker := " "
		if u.isTagActive(entry.Name) {
			marker = "x"
		}
		fmt.Fprintf(view, "%s [%s] %s (%d)\n", prefix, marker, entry.Name, entry.Count)
	}
	if u.focus == viewTags {
		view.SetCursor(0, min(u.selectedTags, len(u.tags)-1))
	}
}

func (u *UI) onListClick(gui *gocui.Gui, viewName string, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	view, err := gui.View(viewName)
	if err != nil {
		return nil
	}

	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	row := max(opts.Y-y0-1+oy, 0)

	switch viewName {
	case viewPending:
		u.selectedPending = min(row, len(u.pending)-1)
	case viewDone:
		u.selectedDone = min(row, len(u.done)-1)
	case viewUpcoming:
		u.selectedUpcoming = min(row, len(u.upcoming)-1)
	case viewTags:
		u.selectedTags = min(row, len(u.tags)-1)
	case viewHistory:
		u.selectedHistory = min(row, len(u.history)-1)
	default:
		return nil
	}
	return u.setFocus(gui, viewName)
}

func (u *UI) bindMouseScroll(gui *gocui.Gui) error {
	views := []string{viewPending, viewDone, viewTags, viewUpcoming, viewHistory, viewHighlighted}
	for _, name := range views {
		if err := gui.SetKeybinding(name, gocui.MouseWheelUp, gocui.ModNone, u.scrollUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.MouseWheelDown, gocui.ModNone, u.scrollDown); err != nil {
			return err
		}
	}
	return nil
}

func (u *UI) scrollUp(gui *gocui.Gui, view *gocui.View) error {
	if view = u.scrollTarget(gui, view); view != nil {
		view.ScrollUp(1)
	}
	return nil
}

func (u *UI) scrollDown(gui *gocui.Gui, view *gocui.View) error {
	if view = u.scrollTarget(gui, view); view != nil {
		view.ScrollDown(1)
	}
	return nil
}

func (u *UI) scrollTarget(gui *gocui.Gui, view *gocui.View) *gocui.View {
	if u.inputActive() {
		return nil
	}
	if view == nil {
		view = gui.CurrentView()
	}
	return view
}

func (u *UI) renderHighlighted(view *gocui.View) {
	view.Clear()
	fmt.Fprint(view, strings.Join(u.highlightedLines(), "\n"))
}

func (u *UI) highlightedLines() []string {
	selected := u.selectedTask()
	if selected == nil {
		return []string{"No task selected"}
	}

	lines := []string{}
	if u.focus == viewHistory {
		if entry := u.selectedHistoryEntry(); entry != nil {
			lines = append(lines,
				"History Detail",
				fmt.Sprintf("When: %s", entry.Timestamp.Format("2006-01-02 15:04:05")),
				fmt.Sprintf("Action: %s", entry.Action),
				fmt.Sprintf("Changes: %s", formatChanges(entry.Changes)),
				"",
				"Task",
			)
		} else {
			lines = append(lines, "No history selected", "", "Task")
		}
	}

	task := *selected
	lines = append(lines,
		task.Title,
		fmt.Sprintf("Status: %s", task.Status),
		fmt.Sprintf("Priority: %s", task.Priority),
		fmt.Sprintf("Due: %s", formatDue(task.DueDate)),
		fmt.Sprintf("Tags: %s", formatTags(task.Tags)),
	)
	if task.Category != "" {
		lines = append(lines, fmt.Sprintf("Category: %s", task.Category))
	}
	if task.EstimatedTime != nil {
		lines = append(lines, fmt.Sprintf("Estimate: %d min", *task.EstimatedTime))
	}
	if task.Recurring != nil {
		lines = append(lines, fmt.Sprintf("Repeats: every %d %s", max(task.Recurring.Interval, 1), task.Recurring.Frequency))
	}
	if !task.IsCompleted() {
		day := u.now()
		if task.DueDate != nil {
			day = *task.DueDate
		}
		slot := schedule.SuggestOptimalTime(task, u.repo.Tasks(), day)
		lines = append(lines, fmt.Sprintf("Best slot: %s", slot.Format("Mon 15:04")))
	}
	if len(task.Subtasks) > 0 {
		lines = append(lines, "", "Subtasks:")
		for _, sub := range task.Subtasks {
			lines = append(lines, "  "+formatSubtask(sub))
		}
	}
	if desc := strings.TrimSpace(task.Description); desc != "" {
		lines = append(lines, "", desc)
	}

	others := u.otherDoingTasks(task.ID)
	if len(others) > 0 {
		lines = append(lines, "", "Also in progress:")
		for _, other := range others {
			lines = append(lines,
				fmt.Sprintf("- %s", other.Title),
				fmt.Sprintf("  Due: %s", formatDue(other.DueDate)),
				fmt.Sprintf("  Tags: %s", formatTags(other.Tags)),
			)
		}
	}
	return lines
}

func (u *UI) renderHistory(view *gocui.View) {
	view.Clear()
	focused := u.focus == viewHistory
	for index, entry := range u.history {
		prefix := " "
		if index == u.selectedHistory {
			if focused {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		fmt.Fprintf(view, "%s %s | %s | %s\n", prefix, entry.Timestamp.Format("2006-01-02 15:04"), entry.Action, formatChanges(entry.Changes))
	}
	if focused {
		view.SetCursor(0, min(u.selectedHistory, len(u.history)-1))
	}
}

func (u *UI) selectedHistoryEntry() *model.HistoryEntry {
	if u.selectedHistory >= 0 && u.selectedHistory < len(u.history) {
		return &u.history[u.selectedHistory]
	}
	return nil
}

func (u *UI) otherDoingTasks(selectedID string) []model.Task {
	others := make([]model.Task, 0, len(u.doing))
	for _, task := range u.doing {
		if task.ID != selectedID {
			others = append(others, task)
		}
	}
	return others
}

func isTaskPane(name string) bool {
	return name == viewPending || name == viewDone || name == viewUpcoming
}

// selectedRow is the current row of the focused task pane. The other panes
// describe the task pane focused last.
func (u *UI) selectedRow() *listRow {
	pane := u.focus
	if !isTaskPane(pane) {
		pane = u.listFocus
	}
	rows, index := u.pending, u.selectedPending
	switch pane {
	case viewDone:
		rows, index = u.done, u.selectedDone
	case viewUpcoming:
		rows, index = u.upcoming, u.selectedUpcoming
	}
	if index >= 0 && index < len(rows) {
		return &rows[index]
	}
	return nil
}

func (u *UI) selectedTask() *model.Task {
	if row := u.selectedRow(); row != nil {
		return &row.Task
	}
	return nil
}

func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	order := []string{viewPending, viewDone, viewTags, viewUpcoming, viewHistory}
	next := viewPending
	for i, name := range order {
		if name == u.focus {
			next = order[(i+1)%len(order)]
			break
		}
	}
	return u.setFocus(gui, next)
}

func (u *UI) focusPending(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewPending)
}

func (u *UI) focusDone(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewDone)
}

func (u *UI) focusTags(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewTags)
}

func (u *UI) focusHighlighted(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewHighlighted)
}

func (u *UI) focusUpcoming(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewUpcoming)
}

func (u *UI) focusHistory(gui *gocui.Gui, _ *gocui.View) error {
	return u.setFocus(gui, viewHistory)
}

func (u *UI) setFocus(gui *gocui.Gui, name string) error {
	if u.inputActive() {
		return nil
	}
	u.focus = name
	if isTaskPane(name) {
		u.listFocus = name
	}
	if gui != nil {
		_, _ = gui.SetCurrentView(name)
	}
	return u.reload(gui, nil)
}

func (u *UI) moveDown(gui *gocui.Gui, _ *gocui.View) error {
	return u.move(1)
}

func (u *UI) moveUp(gui *gocui.Gui, _ *gocui.View) error {
	return u.move(-1)
}

func (u *UI) move(delta int) error {
	if u.inputActive() {
		return nil
	}
	step := func(index *int, size int) bool {
		next := *index + delta
		if next < 0 || next >= size {
			return false
		}
		*index = next
		return true
	}
	switch u.focus {
	case viewPending:
		if step(&u.selectedPending, len(u.pending)) {
			return u.loadHistory()
		}
	case viewDone:
		if step(&u.selectedDone, len(u.done)) {
			return u.loadHistory()
		}
	case viewUpcoming:
		if step(&u.selectedUpcoming, len(u.upcoming)) {
			return u.loadHistory()
		}
	case viewHistory:
		step(&u.selectedHistory, len(u.history))
	case viewTags:
		step(&u.selectedTags, len(u.tags))
	}
	return nil
}

func (u *UI) reload(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.status = ""
	return u.loadTasks()
}

func (u *UI) clearFilters(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.query = ""
	u.activeTags = make(map[string]struct{})
	return u.reload(gui, nil)
}

func (u *UI) refreshHistory(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	return u.loadHistory()
}

func (u *UI) startSearch(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.searchActive = true
	return nil
}

func (u *UI) toggleHelp(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	u.restoreFocus(gui, viewHelp)
	return nil
}

// restoreFocus drops an overlay view and returns the keyboard to the
// focused pane.
func (u *UI) restoreFocus(gui *gocui.Gui, overlay string) {
	if gui == nil {
		return
	}
	_ = gui.DeleteView(overlay)
	_, _ = gui.SetCurrentView(u.focus)
}

func (u *UI) showPopup(gui *gocui.Gui, name, title string, width, height int) (*gocui.View, bool, error) {
	maxX, maxY := gui.Size()
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(name, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return nil, false, err
	}
	created := goerrors.Is(err, gocui.ErrUnknownView)
	if created {
		view.Wrap = true
	}
	view.Title = title
	_, _ = gui.SetCurrentView(name)
	return view, created, nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, _ := gui.Size()
	view, _, err := u.showPopup(gui, viewHelp, "Help", max(64, maxX/2), 26)
	if err != nil {
		return err
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	return nil
}

func (u *UI) showSearch(gui *gocui.Gui) error {
	maxX, _ := gui.Size()
	view, created, err := u.showPopup(gui, viewSearch, "Search", max(30, maxX/2), 3)
	if err != nil {
		return err
	}
	if created {
		view.Clear()
		fmt.Fprint(view, u.query)
	}
	view.Editable = true
	view.Editor = gocui.DefaultEditor
	return nil
}

func (u *UI) submitSearch(gui *gocui.Gui, view *gocui.View) error {
	u.query = strings.TrimSpace(view.Buffer())
	u.searchActive = false
	u.status = ""
	u.restoreFocus(gui, viewSearch)
	return u.loadTasks()
}

func (u *UI) cancelSearch(gui *gocui.Gui, _ *gocui.View) error {
	u.searchActive = false
	u.restoreFocus(gui, viewSearch)
	return nil
}

func (u *UI) openQuickAdd(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.input = &inputState{kind: inputQuickAdd}
	return nil
}

func (u *UI) openSubtask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.input = &inputState{kind: inputSubtask, taskID: selected.ID}
	return nil
}

func (u *UI) showInput(gui *gocui.Gui) error {
	title := "Quick Add (e.g. urgent project review tomorrow 2 hours)"
	if u.input.kind == inputSubtask {
		title = "New Subtask"
	}
	maxX, _ := gui.Size()
	view, created, err := u.showPopup(gui, viewInput, title, max(50, maxX/2), 3)
	if err != nil {
		return err
	}
	if created {
		view.Clear()
	}
	view.Editable = true
	view.Editor = gocui.DefaultEditor
	return nil
}

func (u *UI) submitInput(gui *gocui.Gui, view *gocui.View) error {
	if u.input == nil {
		return nil
	}
	text := strings.TrimSpace(view.Buffer())
	state := *u.input
	u.input = nil
	u.restoreFocus(gui, viewInput)
	if text == "" {
		return nil
	}

	switch state.kind {
	case inputSubtask:
		u.addSubtask(state.taskID, text)
	default:
		u.quickAdd(text)
	}
	return u.loadTasks()
}

func (u *UI) cancelInput(gui *gocui.Gui, _ *gocui.View) error {
	u.input = nil
	u.restoreFocus(gui, viewInput)
	return nil
}

// quickAdd creates a task from a natural language line.
func (u *UI) quickAdd(text string) model.Task {
	draft := parser.ParseExtended(text, u.now())
	task := u.repo.CreateTask(u.ctx, draft)
	u.status = fmt.Sprintf("added %q", task.Title)
	return task
}

func (u *UI) addSubtask(taskID, title string) {
	task, ok := u.repo.AddSubtask(u.ctx, taskID, title)
	if !ok {
		u.status = "task not found"
		return
	}
	u.expanded[task.ID] = true
	u.status = ""
}

func (u *UI) addTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.form = &formState{fields: buildFormFields(nil, u.repo.Preferences().DefaultPriority)}
	u.formTagIndex = 0
	return nil
}

func (u *UI) editTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.form = &formState{taskID: selected.ID, fields: buildFormFields(selected, "")}
	u.formTagIndex = 0
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	if u.form == nil {
		return nil
	}
	title := "New Task"
	if u.form.taskID != "" {
		title = "Edit Task"
	}

	maxX, maxY := gui.Size()
	view, _, err := u.showPopup(gui, viewForm, title, max(64, maxX/2), min(14, max(10, maxY/2)))
	if err != nil {
		return err
	}
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	return nil
}

func (u *UI) submitFormNow(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if err := u.saveForm(); err != nil {
		u.status = err.Error()
		return nil
	}

	u.form = nil
	u.status = ""
	u.restoreFocus(gui, viewForm)
	return u.loadTasks()
}

// saveForm creates or updates the task described by the open form.
func (u *UI) saveForm() error {
	values, err := parseFormFields(u.form.fields, u.now().Location())
	if err != nil {
		return err
	}
	if u.form.taskID == "" {
		u.repo.CreateTask(u.ctx, values.draft())
		return nil
	}
	if _, ok := u.repo.UpdateTask(u.ctx, u.form.taskID, values.patch()); !ok {
		return fmt.Errorf("task not found")
	}
	return nil
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	u.restoreFocus(gui, viewForm)
	return nil
}

func (u *UI) nextFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(gui *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(view)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		value := field.Value
		if index == fieldTags {
			if candidate := u.currentTagOption(); candidate != "" {
				value = fmt.Sprintf("%s [pick: %s]", value, candidate)
			}
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, value)
	}
	if u.status != "" {
		fmt.Fprintf(view, "\n%s", u.status)
	}
	current := u.form.fields[u.form.index]
	cursorX := len([]rune(current.Label)) + len([]rune(current.Value)) + 4
	view.SetCursor(cursorX, u.form.index)
}

// Edit cycles the status and priority fields, picks tags from the known
// set and types into the rest.
func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil || view == nil {
		return false
	}
	ui.editField(key, ch, mod)
	ui.renderForm(view)
	return true
}

func (u *UI) editField(key gocui.Key, ch rune, mod gocui.Modifier) {
	field := &u.form.fields[u.form.index]

	switch u.form.index {
	case fieldStatus, fieldPriority:
		order := statusOrder
		if u.form.index == fieldPriority {
			order = priorityOrder
		}
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = cycle(order, field.Value, 1)
		case gocui.KeyArrowLeft:
			field.Value = cycle(order, field.Value, -1)
		}
		return
	case fieldTags:
		switch key {
		case gocui.KeyArrowRight:
			u.formTagIndex = min(u.formTagIndex+1, len(u.tags)-1)
			return
		case gocui.KeyArrowLeft:
			u.formTagIndex = max(u.formTagIndex-1, 0)
			return
		case gocui.KeySpace:
			if candidate := u.currentTagOption(); candidate != "" {
				field.Value = toggleTag(field.Value, candidate)
			}
			return
		}
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}
}

func (u *UI) currentTagOption() string {
	if len(u.tags) == 0 {
		return ""
	}
	u.formTagIndex = clamp(u.formTagIndex, len(u.tags))
	return u.tags[u.formTagIndex].Name
}

// deleteTask removes the selected task, or the selected subtask when a
// subtask row is highlighted.
func (u *UI) deleteTask(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.focus == viewTags {
		return nil
	}
	row := u.selectedRow()
	if row == nil {
		return nil
	}
	if row.Subtask != nil {
		u.repo.DeleteSubtask(u.ctx, row.Task.ID, row.Subtask.ID)
	} else {
		u.repo.DeleteTask(u.ctx, row.Task.ID)
	}
	u.status = ""
	return u.loadTasks()
}

// deleteTag strips the selected tag from every task that carries it.
func (u *UI) deleteTag(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.focus != viewTags {
		return nil
	}
	if u.selectedTags < 0 || u.selectedTags >= len(u.tags) {
		return nil
	}
	name := u.tags[u.selectedTags].Name
	for _, task := range u.repo.TasksByTag(name) {
		kept := make([]string, 0, len(task.Tags))
		for _, tag := range task.Tags {
			if tag != name {
				kept = append(kept, tag)
			}
		}
		u.repo.UpdateTask(u.ctx, task.ID, store.TaskPatch{Tags: kept})
	}
	delete(u.activeTags, name)
	u.status = fmt.Sprintf("removed tag %q", name)
	return u.loadTasks()
}

// toggleCollapse expands a task to show its subtasks. On a subtask row it
// toggles the subtask instead.
func (u *UI) toggleCollapse(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if !isTaskPane(u.focus) {
		return nil
	}
	row := u.selectedRow()
	if row == nil {
		return nil
	}
	if row.Subtask != nil {
		u.repo.ToggleSubtask(u.ctx, row.Task.ID, row.Subtask.ID)
		return u.loadTasks()
	}
	if len(row.Task.Subtasks) == 0 {
		return nil
	}
	u.expanded[row.Task.ID] = !u.expanded[row.Task.ID]
	return u.loadTasks()
}

func (u *UI) toggleDoing(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	status := model.StatusInProgress
	if selected.Status == model.StatusInProgress {
		status = model.StatusPending
	}
	u.repo.SetTaskStatus(u.ctx, selected.ID, status)
	u.status = ""
	return u.loadTasks()
}

func (u *UI) toggleDone(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	row := u.selectedRow()
	if row == nil {
		return nil
	}
	if row.Subtask != nil {
		u.repo.ToggleSubtask(u.ctx, row.Task.ID, row.Subtask.ID)
	} else {
		u.repo.ToggleTaskStatus(u.ctx, row.Task.ID)
	}
	u.status = ""
	return u.loadTasks()
}

func (u *UI) undo(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if !u.repo.Undo(u.ctx) {
		u.status = "nothing to undo"
		return nil
	}
	u.status = "undone"
	return u.loadTasks()
}

func (u *UI) redo(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if !u.repo.Redo(u.ctx) {
		u.status = "nothing to redo"
		return nil
	}
	u.status = "redone"
	return u.loadTasks()
}

func (u *UI) toggleTagFilter(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.focus != viewTags {
		return nil
	}
	if u.selectedTags < 0 || u.selectedTags >= len(u.tags) {
		return nil
	}
	name := u.tags[u.selectedTags].Name
	if u.isTagActive(name) {
		delete(u.activeTags, name)
	} else {
		u.activeTags[name] = struct{}{}
	}
	return u.reload(gui, nil)
}

func (u *UI) activeTagList() []string {
	result := make([]string, 0, len(u.activeTags))
	for name := range u.activeTags {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

func (u *UI) isTagActive(name string) bool {
	_, ok := u.activeTags[name]
	return ok
}

func (u *UI) inputActive() bool {
	return u.searchActive || u.form != nil || u.helpActive || u.input != nil
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  Tab cycle panes | 1 Pending | 2 Done | 3 Tags | 4 Highlighted | 5 Upcoming | 6 History",
		"  j/k or arrows move selection | mouse click selects | wheel scrolls",
		"",
		"Tasks:",
		"  a add task (form) | n quick add (natural language) | e edit | d delete",
		"  s add subtask | enter expand task or toggle subtask",
		"  c toggle in progress | x toggle done",
		"  u undo | U redo",
		"",
		"Quick add understands priorities (urgent, important, minor),",
		"dates (today, tomorrow, next week, next month, 2026-01-15, Jan 15),",
		"topic words (meeting, exam, gym) and durations (45 min, 2 hours).",
		"",
		"Search/Filter:",
		"  / search | g clear filters | space toggle tag filter (Tags pane)",
		"  d remove tag from all tasks (Tags pane)",
		"",
		"Form:",
		"  tab/arrows next field | space/left/right cycle status, priority, tags",
		"  enter save | esc cancel",
		"",
		"Other:",
		"  h refresh history | r reload | ? help | esc/q close help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool, highlight bool) {
	view.Frame = true
	view.Highlight = focused && highlight
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
	}
}

// clamp keeps index within [0, size).
func clamp(index, size int) int {
	if index >= size {
		index = size - 1
	}
	return max(index, 0)
}
