package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "vk",
	Short: "Veritas Kanban - file-backed kanban task tracker",
	Long: `Veritas Kanban (vk) is a kanban-style task tracker for coordinating
human and AI-agent work, backed entirely by plain files.

Tasks live as markdown files with YAML front-matter under tasks/active,
tasks/archive, and tasks/backlog. Reference catalogs (projects, sprints,
priorities, task types) live as JSON files under .veritas-kanban/.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vk %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
