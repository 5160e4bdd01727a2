package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var subtaskCmd = &cobra.Command{
	Use:   "subtask",
	Short: "Manage subtask checklists on a task",
}

var subtaskAddCmd = &cobra.Command{
	Use:   "add <task-id> <title>",
	Short: "Add a subtask to a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		task, err := TaskSvc.AddSubtask(args[0], args[1])
		if err != nil {
			return fmt.Errorf("adding subtask: %w", err)
		}
		if task == nil {
			return fmt.Errorf("task %s not found", args[0])
		}

		st := task.Subtasks[len(task.Subtasks)-1]
		fmt.Printf("Added subtask %s to %s\n", st.ID, task.ID)
		return nil
	},
}

var subtaskToggleCmd = &cobra.Command{
	Use:   "toggle <task-id> <subtask-id>",
	Short: "Toggle a subtask's completed flag",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		task, err := TaskSvc.ToggleSubtask(args[0], args[1])
		if err != nil {
			return fmt.Errorf("toggling subtask: %w", err)
		}
		if task == nil {
			return fmt.Errorf("task %s not found", args[0])
		}

		for _, st := range task.Subtasks {
			if st.ID == args[1] {
				state := "open"
				if st.Completed {
					state = "done"
				}
				fmt.Printf("Subtask %s is now %s\n", st.ID, state)
			}
		}
		return nil
	},
}

func init() {
	subtaskCmd.AddCommand(subtaskAddCmd, subtaskToggleCmd)
	taskCmd.AddCommand(subtaskCmd)
}
