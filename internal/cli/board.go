package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

// Style definitions for board and status rendering.
var (
	columnStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(28)

	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62")).
				MarginBottom(1)

	statusTodoStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusInProgressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusBlockedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusDoneStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
)

// renderStatus colours a status value for terminal output.
func renderStatus(status models.TaskStatus) string {
	switch status {
	case models.StatusTodo:
		return statusTodoStyle.Render(string(status))
	case models.StatusInProgress:
		return statusInProgressStyle.Render(string(status))
	case models.StatusBlocked:
		return statusBlockedStyle.Render(string(status))
	case models.StatusDone:
		return statusDoneStyle.Render(string(status))
	default:
		return string(status)
	}
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Render the kanban board (todo / in-progress / blocked / done)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		tasks, err := TaskSvc.ListTasks()
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}

		fmt.Println(renderBoard(tasks))
		return nil
	},
}

// renderBoard lays the active tasks out in one column per status.
func renderBoard(tasks []models.Task) string {
	columns := []models.TaskStatus{
		models.StatusTodo, models.StatusInProgress, models.StatusBlocked, models.StatusDone,
	}

	rendered := make([]string, 0, len(columns))
	for _, status := range columns {
		var b strings.Builder
		b.WriteString(columnHeaderStyle.Render(strings.ToUpper(string(status))))
		b.WriteString("\n")

		count := 0
		for _, t := range tasks {
			if t.Status != status {
				continue
			}
			count++
			title := t.Title
			if runes := []rune(title); len(runes) > 24 {
				title = string(runes[:23]) + "…"
			}
			b.WriteString(fmt.Sprintf("%s\n  %s\n", t.ID, title))
		}
		if count == 0 {
			b.WriteString("(empty)\n")
		}
		rendered = append(rendered, columnStyle.Render(b.String()))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
