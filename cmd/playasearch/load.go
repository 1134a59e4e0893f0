package playasearch

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackrocklabs/playasearch/pkg/types"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create database schemas and graph constraints",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close(ctx)

		if err := client.Initialize(ctx); err != nil {
			return err
		}
		cmd.Println("Schemas initialized")
		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load <items.json>",
	Short: "Load items from a JSON file, embedding as they are stored",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		var items []*types.Item
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}

		ctx := cmd.Context()
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close(ctx)

		loaded := 0
		for _, item := range items {
			if err := client.UpsertItem(ctx, item); err != nil {
				cmd.PrintErrf("skipping %s: %v\n", item.ID, err)
				continue
			}
			loaded++
		}
		cmd.Printf("Loaded %d of %d items\n", loaded, len(items))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(loadCmd)
}
