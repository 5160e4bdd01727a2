package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veritas-kanban/veritas-kanban/internal/storage"
	"github.com/veritas-kanban/veritas-kanban/pkg/models"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage reference catalogs (projects, sprints, priorities, task-types)",
	Long: `Managed-list catalog commands.

Each catalog is an ordered, reference-counted list stored as a JSON file
under .veritas-kanban/. Deleting an item that tasks still reference is
refused unless forced; seeded default items cannot be deleted.`,
}

func catalogByName(name string) (*storage.ManagedListStore, error) {
	store, ok := Catalogs[name]
	if !ok {
		names := make([]string, 0, len(Catalogs))
		for n := range Catalogs {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown catalog %q: must be one of %s", name, strings.Join(names, ", "))
	}
	return store, nil
}

var catalogListHidden bool

var catalogListCmd = &cobra.Command{
	Use:   "list <catalog>",
	Short: "List catalog items in display order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := catalogByName(args[0])
		if err != nil {
			return err
		}
		items, err := store.List(catalogListHidden)
		if err != nil {
			return fmt.Errorf("listing catalog: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("Catalog is empty.")
			return nil
		}
		for _, item := range items {
			flags := ""
			if item.IsDefault {
				flags += " [default]"
			}
			if item.IsHidden {
				flags += " [hidden]"
			}
			fmt.Printf("%2d  %-20s %s%s\n", item.Order, item.ID, item.Label, flags)
		}
		return nil
	},
}

var catalogAddColor string

var catalogAddCmd = &cobra.Command{
	Use:   "add <catalog> <label>",
	Short: "Add a catalog item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := catalogByName(args[0])
		if err != nil {
			return err
		}
		item, err := store.Create(models.CreateItemInput{
			ID:    storage.Slugify(args[1], 0),
			Label: args[1],
			Color: catalogAddColor,
		})
		if err != nil {
			return fmt.Errorf("adding catalog item: %w", err)
		}
		fmt.Printf("Added %s (order %d)\n", item.ID, item.Order)
		return nil
	},
}

var catalogDeleteForce bool

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete <catalog> <id>",
	Short: "Delete a catalog item unless it is still referenced",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := catalogByName(args[0])
		if err != nil {
			return err
		}
		result, err := store.Delete(args[1], catalogDeleteForce)
		if err != nil {
			return fmt.Errorf("deleting catalog item: %w", err)
		}
		if !result.Deleted {
			if result.ReferenceCount > 0 {
				fmt.Printf("Refused: %s is referenced by %d task(s). Use --force to delete anyway.\n",
					args[1], result.ReferenceCount)
			} else {
				fmt.Printf("Refused: %s\n", result.Reason)
			}
			return nil
		}
		fmt.Printf("Deleted %s\n", args[1])
		return nil
	},
}

var catalogReorderCmd = &cobra.Command{
	Use:   "reorder <catalog> <id>...",
	Short: "Reorder a catalog; listed IDs come first, the rest keep their relative order",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := catalogByName(args[0])
		if err != nil {
			return err
		}
		if err := store.Reorder(args[1:]); err != nil {
			return fmt.Errorf("reordering catalog: %w", err)
		}
		fmt.Println("Reordered.")
		return nil
	},
}

func init() {
	catalogListCmd.Flags().BoolVar(&catalogListHidden, "hidden", false, "include hidden items")
	catalogAddCmd.Flags().StringVar(&catalogAddColor, "color", "", "display color (hex)")
	catalogDeleteCmd.Flags().BoolVar(&catalogDeleteForce, "force", false, "delete even when referenced")

	catalogCmd.AddCommand(catalogListCmd, catalogAddCmd, catalogDeleteCmd, catalogReorderCmd)
	rootCmd.AddCommand(catalogCmd)
}
