package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Joseda-hg/smarttodo/internal/model"
)

var templates = template.Must(template.New("email").Parse(`
{{define "reminder"}}<html>
  <body style="font-family: Arial, sans-serif;">
    <h2>Task Reminder</h2>
    <p>You have a task coming up:</p>
    <div style="background-color: #f0f0f0; padding: 15px; border-radius: 5px;">
      <h3>{{.Title}}</h3>
      <p><strong>Due Date:</strong> {{.Due}}</p>
      <p><strong>Priority:</strong> <span style="color: {{.Color}};">{{.Priority}}</span></p>
    </div>
    <p style="margin-top: 20px; color: #666;">Don't forget to complete this task!</p>
  </body>
</html>{{end}}
{{define "completed"}}<html>
  <body style="font-family: Arial, sans-serif;">
    <h2>Congratulations!</h2>
    <p>You have successfully completed a task:</p>
    <div style="background-color: #e8f5e9; padding: 15px; border-radius: 5px; border-left: 4px solid #4caf50;">
      <h3 style="color: #4caf50;">{{.Title}}</h3>
      <p>Completed on: {{.At}}</p>
    </div>
    <p style="margin-top: 20px; color: #666;">Great job! Keep up the productivity!</p>
  </body>
</html>{{end}}
{{define "summary"}}<html>
  <body style="font-family: Arial, sans-serif;">
    <h2>Your Daily Summary</h2>
    <p>Here's your productivity report for today:</p>
    <div style="background-color: #f0f0f0; padding: 15px; border-radius: 5px;">
      <p><strong>Total Tasks:</strong> {{.Total}}</p>
      <p><strong>Completed:</strong> {{.Completed}}</p>
      <p><strong>Progress:</strong> {{.Progress}}%</p>
    </div>
    <p style="margin-top: 20px; color: #666;">Keep pushing to achieve your goals!</p>
  </body>
</html>{{end}}
`))

var upper = cases.Upper(language.English)

// TaskReminder renders the reminder mail for a task.
func TaskReminder(task model.Task) (Message, error) {
	due := "no due date"
	if task.DueDate != nil {
		due = task.DueDate.Format("January 2, 2006 at 3:04 PM")
	}
	data := struct {
		Title, Due, Priority string
		Color                template.CSS
	}{
		Title:    task.Title,
		Due:      due,
		Priority: upper.String(string(task.Priority)),
		Color:    template.CSS(priorityColor(task.Priority)),
	}
	return render("reminder", "Task Reminder: "+task.Title, data)
}

func TaskCompleted(title string, at time.Time) (Message, error) {
	data := struct{ Title, At string }{title, at.Format("January 02, 2006 at 03:04 PM")}
	return render("completed", "Task Completed: "+title, data)
}

// DailySummary reports progress as a whole percentage, 0 when there are no tasks.
func DailySummary(total, completed int, day time.Time) (Message, error) {
	progress := 0
	if total > 0 {
		progress = completed * 100 / total
	}
	data := struct{ Total, Completed, Progress int }{total, completed, progress}
	return render("summary", "Daily Summary - "+day.Format("January 02, 2006"), data)
}

func render(name, subject string, data any) (Message, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return Message{}, fmt.Errorf("render %s mail: %w", name, err)
	}
	return Message{Subject: subject, HTML: buf.String()}, nil
}

func priorityColor(p model.Priority) string {
	switch p {
	case model.PriorityUrgent:
		return "#ff0000"
	case model.PriorityHigh:
		return "#ff9900"
	default:
		return "#0099ff"
	}
}
