package tasks

import (
	"fmt"
	"strings"

	"github.com/gosuda/taskline/internal/domain"
)

// Notification texts mirror the fields a human cares about: title,
// description, deadline, priority. Empty optional fields render as "—".

func taskAddedMessage(projectTitle string, t *domain.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New task added to project %q:\n", projectTitle)
	writeTaskFields(&b, t)
	return b.String()
}

func statusChangedMessage(projectTitle string, t *domain.Task) string {
	var b strings.Builder
	b.WriteString("Task status updated:\n")
	writeProjectLine(&b, projectTitle)
	writeTaskFields(&b, t)
	fmt.Fprintf(&b, "\nStatus: %s", t.Status.Label())
	return b.String()
}

func taskDeletedMessage(projectTitle string, snapshot *domain.Task) string {
	var b strings.Builder
	b.WriteString("Task deleted:\n")
	writeProjectLine(&b, projectTitle)
	writeTaskFields(&b, snapshot)
	return b.String()
}

func taskTransferredMessage(projectTitle string, t *domain.Task) string {
	var b strings.Builder
	b.WriteString("Task transferred to you:\n")
	writeProjectLine(&b, projectTitle)
	writeTaskFields(&b, t)
	return b.String()
}

func writeProjectLine(b *strings.Builder, projectTitle string) {
	if projectTitle != "" {
		fmt.Fprintf(b, "Project: %s\n", projectTitle)
	}
}

func writeTaskFields(b *strings.Builder, t *domain.Task) {
	fmt.Fprintf(b, "Title: %s\n", t.Title)
	fmt.Fprintf(b, "Description: %s\n", orDash(t.Description))
	term := "—"
	if t.Term != nil {
		term = t.Term.Format("2006-01-02 15:04")
	}
	fmt.Fprintf(b, "Due: %s\n", term)
	fmt.Fprintf(b, "Priority: %s", string(t.Priority))
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
