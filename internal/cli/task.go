package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks (create, list, show, update, status, archive, delete)",
	Long: `Unified task management commands.

Create new tasks, inspect and update existing ones, gate status
transitions on the dependency graph, archive finished work, and manage
blocking relationships.`,
}

var taskListArchived bool

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in the active area",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		tasks, err := TaskSvc.ListTasks()
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}
		if taskListArchived {
			archived, err := TaskSvc.ListArchive()
			if err != nil {
				return fmt.Errorf("listing archive: %w", err)
			}
			tasks = append(tasks, archived...)
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}
		for _, t := range tasks {
			fmt.Printf("%s  %s  %s  %s\n", t.ID, renderStatus(t.Status), t.Priority, t.Title)
		}
		return nil
	},
}

var (
	taskCreateType        string
	taskCreatePriority    string
	taskCreateProject     string
	taskCreateSprint      string
	taskCreateDescription string
	taskCreateBlockedBy   []string
)

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new task",
	Long: `Create a new task with the given title.

The task starts in the active area with status todo and priority medium
unless overridden. Use --blocked-by to declare dependencies at creation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		task, err := TaskSvc.CreateTask(models.CreateTaskInput{
			Title:       args[0],
			Description: taskCreateDescription,
			Type:        taskCreateType,
			Priority:    models.Priority(taskCreatePriority),
			Project:     taskCreateProject,
			Sprint:      taskCreateSprint,
			BlockedBy:   taskCreateBlockedBy,
		})
		if err != nil {
			return fmt.Errorf("creating task: %w", err)
		}

		fmt.Printf("Created task %s\n", task.ID)
		fmt.Printf("  Title:    %s\n", task.Title)
		fmt.Printf("  Type:     %s\n", task.Type)
		fmt.Printf("  Priority: %s\n", task.Priority)
		if task.Project != "" {
			fmt.Printf("  Project:  %s\n", task.Project)
		}
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show one task including its blocking status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		task, err := TaskSvc.GetTask(args[0])
		if err != nil {
			return fmt.Errorf("getting task: %w", err)
		}
		if task == nil {
			return fmt.Errorf("task %s not found", args[0])
		}

		fmt.Printf("%s  %s\n", task.ID, task.Title)
		fmt.Printf("  Status:   %s\n", renderStatus(task.Status))
		fmt.Printf("  Priority: %s\n", task.Priority)
		if task.Type != "" {
			fmt.Printf("  Type:     %s\n", task.Type)
		}
		if task.Project != "" {
			fmt.Printf("  Project:  %s\n", task.Project)
		}
		if task.Sprint != "" {
			fmt.Printf("  Sprint:   %s\n", task.Sprint)
		}
		if len(task.BlockedBy) > 0 {
			fmt.Printf("  Blocked by: %s\n", strings.Join(task.BlockedBy, ", "))
			status, err := TaskSvc.BlockingStatus(task.ID)
			if err == nil {
				for _, b := range status.Blockers {
					fmt.Printf("    waiting on %s (%s)\n", b.ID, b.Status)
				}
				for _, b := range status.CompletedBlockers {
					fmt.Printf("    done: %s\n", b.ID)
				}
			}
		}
		if len(task.Subtasks) > 0 {
			fmt.Println("  Subtasks:")
			for _, st := range task.Subtasks {
				mark := " "
				if st.Completed {
					mark = "x"
				}
				fmt.Printf("    [%s] %s\n", mark, st.Title)
			}
		}
		if task.Description != "" {
			fmt.Printf("\n%s\n", task.Description)
		}
		return nil
	},
}

var (
	taskUpdateTitle       string
	taskUpdateDescription string
	taskUpdatePriority    string
	taskUpdateProject     string
	taskUpdateSprint      string
)

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Update task fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		var patch models.TaskPatch
		if cmd.Flags().Changed("title") {
			patch.Title = &taskUpdateTitle
		}
		if cmd.Flags().Changed("description") {
			patch.Description = &taskUpdateDescription
		}
		if cmd.Flags().Changed("priority") {
			p := models.Priority(taskUpdatePriority)
			patch.Priority = &p
		}
		if cmd.Flags().Changed("project") {
			patch.Project = &taskUpdateProject
		}
		if cmd.Flags().Changed("sprint") {
			patch.Sprint = &taskUpdateSprint
		}

		task, err := TaskSvc.UpdateTask(args[0], patch)
		if err != nil {
			return fmt.Errorf("updating task: %w", err)
		}
		if task == nil {
			return fmt.Errorf("task %s not found", args[0])
		}
		fmt.Printf("Updated task %s\n", task.ID)
		return nil
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Change a task's status (todo, in-progress, blocked, done)",
	Long: `Change a task's lifecycle status.

A move to in-progress is gated on the dependency graph: the command is
refused while any blocker is not yet done, and lists the blockers.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		status := models.TaskStatus(args[1])
		if !status.IsValid() {
			return fmt.Errorf("invalid status %q: must be one of todo, in-progress, blocked, done", args[1])
		}

		result, err := TaskSvc.SetStatus(args[0], status)
		if err != nil {
			return fmt.Errorf("updating status: %w", err)
		}
		if result.Task == nil {
			return fmt.Errorf("task %s not found", args[0])
		}
		if !result.Allowed {
			fmt.Printf("Refused: %s is still blocked by:\n", args[0])
			for _, b := range result.Blockers {
				fmt.Printf("  %s  %s (%s)\n", b.ID, b.Title, b.Status)
			}
			return nil
		}
		fmt.Printf("Task %s is now %s\n", args[0], renderStatus(status))
		return nil
	},
}

var taskBlockCmd = &cobra.Command{
	Use:   "block <task-id> <blocker-id>",
	Short: "Add a blocking dependency",
	Long: `Declare that a task is blocked by another task.

The edge is refused when it would close a cycle in the dependency graph,
including a self-reference.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		result, err := TaskSvc.AddDependency(args[0], args[1])
		if err != nil {
			return fmt.Errorf("adding dependency: %w", err)
		}
		if !result.Added {
			fmt.Printf("Refused: %s\n", result.Reason)
			return nil
		}
		fmt.Printf("Task %s is now blocked by %s\n", args[0], args[1])
		return nil
	},
}

var taskUnblockCmd = &cobra.Command{
	Use:   "unblock <task-id> <blocker-id>",
	Short: "Remove a blocking dependency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}

		task, err := TaskSvc.RemoveDependency(args[0], args[1])
		if err != nil {
			return fmt.Errorf("removing dependency: %w", err)
		}
		if task == nil {
			return fmt.Errorf("task %s not found", args[0])
		}
		fmt.Printf("Removed dependency %s from %s\n", args[1], args[0])
		return nil
	},
}

var taskArchiveCmd = &cobra.Command{
	Use:   "archive <task-id>",
	Short: "Move a task to the archive area",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		if err := TaskSvc.ArchiveTask(args[0]); err != nil {
			return fmt.Errorf("archiving task: %w", err)
		}
		fmt.Printf("Archived task %s\n", args[0])
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task outright from any area",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		deleted, err := TaskSvc.DeleteTask(args[0])
		if err != nil {
			return fmt.Errorf("deleting task: %w", err)
		}
		if !deleted {
			return fmt.Errorf("task %s not found", args[0])
		}
		fmt.Printf("Deleted task %s\n", args[0])
		return nil
	},
}

var taskReorderCmd = &cobra.Command{
	Use:   "reorder <task-id>...",
	Short: "Reorder tasks; the listed IDs take positions 0..n-1",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskSvc == nil {
			return fmt.Errorf("task service not initialized")
		}
		if err := TaskSvc.ReorderTasks(args); err != nil {
			return fmt.Errorf("reordering tasks: %w", err)
		}
		fmt.Println("Reordered.")
		return nil
	},
}

func init() {
	taskListCmd.Flags().BoolVar(&taskListArchived, "archived", false, "include archived tasks")

	taskCreateCmd.Flags().StringVar(&taskCreateType, "type", "", "task type (from the task-types catalog)")
	taskCreateCmd.Flags().StringVar(&taskCreatePriority, "priority", "", "priority (default medium)")
	taskCreateCmd.Flags().StringVar(&taskCreateProject, "project", "", "project id")
	taskCreateCmd.Flags().StringVar(&taskCreateSprint, "sprint", "", "sprint id")
	taskCreateCmd.Flags().StringVar(&taskCreateDescription, "description", "", "free-text description body")
	taskCreateCmd.Flags().StringSliceVar(&taskCreateBlockedBy, "blocked-by", nil, "task IDs this task depends on")

	taskUpdateCmd.Flags().StringVar(&taskUpdateTitle, "title", "", "new title (renames the task file)")
	taskUpdateCmd.Flags().StringVar(&taskUpdateDescription, "description", "", "new description body")
	taskUpdateCmd.Flags().StringVar(&taskUpdatePriority, "priority", "", "new priority")
	taskUpdateCmd.Flags().StringVar(&taskUpdateProject, "project", "", "new project id")
	taskUpdateCmd.Flags().StringVar(&taskUpdateSprint, "sprint", "", "new sprint id")

	taskCmd.AddCommand(taskListCmd, taskCreateCmd, taskShowCmd, taskUpdateCmd,
		taskStatusCmd, taskBlockCmd, taskUnblockCmd, taskArchiveCmd,
		taskDeleteCmd, taskReorderCmd)
	rootCmd.AddCommand(taskCmd)
}
