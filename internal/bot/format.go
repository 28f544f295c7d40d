package bot

import (
	"fmt"
	"strings"

	"github.com/example/studybot/internal/clock"
	"github.com/example/studybot/internal/textutil"
	"github.com/example/studybot/pkg/models"
)

const separator = "━━━━━━━━━━━━━━━━━━━━━━"

// progressBar renders pct as ten blocks
func progressBar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct / 10
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

func formatNotes(notes []models.Note, clk *clock.Clock) string {
	if len(notes) == 0 {
		return "Henüz not bulunmuyor."
	}

	items := make([]string, 0, len(notes))
	for i, n := range notes {
		items = append(items, fmt.Sprintf("%d. 📚 *%s*\n   %s\n   📅 %s\n   🆔 ID: %d",
			i+1, n.Category, textutil.Truncate(n.Content, 80), clk.FormatDate(n.CreatedAt), n.ID))
	}
	return strings.Join(items, "\n\n")
}

func formatTasks(tasks []models.Task, clk *clock.Clock) string {
	if len(tasks) == 0 {
		return "Henüz görev bulunmuyor."
	}

	items := make([]string, 0, len(tasks))
	for i, t := range tasks {
		status := "⏳"
		if t.IsCompleted {
			status = "✅"
		}
		due := "Tarih yok"
		if t.DueDate != nil {
			due = clk.Format(*t.DueDate)
		}
		items = append(items, fmt.Sprintf("%d. %s *%s*\n   %s %s\n   📅 %s\n   🆔 ID: %d",
			i+1, status, t.Title, t.Priority.Emoji(), t.Priority.Label(), due, t.ID))
	}
	return strings.Join(items, "\n\n")
}

func formatReminders(rems []models.Reminder, clk *clock.Clock) string {
	items := make([]string, 0, len(rems))
	for i, r := range rems {
		line := fmt.Sprintf("%d. ⏰ %s\n   📅 %s", i+1, r.Message, clk.Format(r.RemindAt))
		if label := recurrenceLabel(r.RecurrencePattern); label != "" {
			line += " (" + label + ")"
		}
		items = append(items, line+fmt.Sprintf("\n   🆔 ID: %d", r.ID))
	}
	return strings.Join(items, "\n\n")
}

func recurrenceLabel(r models.Recurrence) string {
	switch r {
	case models.RecurrenceDaily:
		return "her gün"
	case models.RecurrenceWeekly:
		return "her hafta"
	case models.RecurrenceMonthly:
		return "her ay"
	}
	return ""
}

// argName turns command arguments into a course or topic name
func argName(args []string) string {
	return textutil.ArgsToName(args)
}

// argToken is the inverse of argName for a single suggested argument
func argToken(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

// limitMessage keeps a reply under Telegram's message size
func limitMessage(text string, max int) string {
	return textutil.Truncate(text, max)
}

// formatReviews lists due reviews with the grade of the last attempt
func formatReviews(due []models.DueRepetition) string {
	var sb strings.Builder
	for i, r := range due {
		fmt.Fprintf(&sb, "%d. %s: %s (son: %s)\n", i+1, r.CourseName, r.TopicTitle, qualityLabel(r.LastQuality))
	}
	return sb.String()
}

func qualityLabel(q int) string {
	switch {
	case q >= 5:
		return "mükemmel"
	case q >= 4:
		return "iyi"
	case q >= 3:
		return "orta"
	default:
		return "zayıf"
	}
}
