package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/veritas-kanban/veritas-kanban/internal/observability"
)

var (
	eventsType  string
	eventsLevel string
	eventsSince string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Read the structured event log",
	Long: `Read the append-only event log (.vk_events.jsonl in the data dir).

Events record task lifecycle changes and storage-layer warnings such as
parse failures. Filter by type, level, or a time window.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not enabled")
		}

		filter := observability.EventFilter{
			Type:  eventsType,
			Level: observability.Level(eventsLevel),
		}
		if eventsSince != "" {
			since, err := time.Parse(time.RFC3339, eventsSince)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			filter.Since = &since
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading event log: %w", err)
		}
		if len(events) == 0 {
			fmt.Println("No events.")
			return nil
		}
		for _, e := range events {
			fmt.Printf("%s  %-5s %-24s %v\n", e.Time.Format(time.RFC3339), e.Level, e.Type, e.Data)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "filter by event type (e.g. task.created)")
	eventsCmd.Flags().StringVar(&eventsLevel, "level", "", "filter by level (INFO, WARN, ERROR)")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "only events at or after this RFC3339 time")
	rootCmd.AddCommand(eventsCmd)
}
