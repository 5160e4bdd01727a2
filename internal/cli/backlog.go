package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

var backlogCmd = &cobra.Command{
	Use:   "backlog",
	Short: "Manage the backlog area (list, add, promote, demote, delete)",
	Long: `Backlog management commands.

Backlog tasks use the same record format as active tasks but live in a
separate storage area excluded from board listings. Promotion and
demotion move the file between areas.`,
}

var backlogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backlog tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		tasks, err := TaskSvc.ListBacklog()
		if err != nil {
			return fmt.Errorf("listing backlog: %w", err)
		}
		if len(tasks) == 0 {
			fmt.Println("Backlog is empty.")
			return nil
		}
		for _, t := range tasks {
			fmt.Printf("%s  %s  %s\n", t.ID, t.Priority, t.Title)
		}
		return nil
	},
}

var (
	backlogAddType     string
	backlogAddPriority string
	backlogAddProject  string
)

var backlogAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task directly to the backlog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		task, err := TaskSvc.CreateBacklogTask(models.CreateTaskInput{
			Title:    args[0],
			Type:     backlogAddType,
			Priority: models.Priority(backlogAddPriority),
			Project:  backlogAddProject,
		})
		if err != nil {
			return fmt.Errorf("adding backlog task: %w", err)
		}
		fmt.Printf("Added backlog task %s\n", task.ID)
		return nil
	},
}

var backlogPromoteCmd = &cobra.Command{
	Use:   "promote <task-id>",
	Short: "Move a backlog task into the active area",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		if err := TaskSvc.PromoteTask(args[0]); err != nil {
			return err
		}
		fmt.Printf("Promoted task %s to active\n", args[0])
		return nil
	},
}

var backlogDemoteCmd = &cobra.Command{
	Use:   "demote <task-id>",
	Short: "Move an active task back to the backlog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		if err := TaskSvc.DemoteTask(args[0]); err != nil {
			return err
		}
		fmt.Printf("Demoted task %s to backlog\n", args[0])
		return nil
	},
}

func init() {
	backlogAddCmd.Flags().StringVar(&backlogAddType, "type", "", "task type")
	backlogAddCmd.Flags().StringVar(&backlogAddPriority, "priority", "", "priority (default medium)")
	backlogAddCmd.Flags().StringVar(&backlogAddProject, "project", "", "project id")

	backlogCmd.AddCommand(backlogListCmd, backlogAddCmd, backlogPromoteCmd, backlogDemoteCmd)
	rootCmd.AddCommand(backlogCmd)
}
