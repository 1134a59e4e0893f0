package playasearch

import (
	"github.com/spf13/cobra"

	"github.com/blackrocklabs/playasearch/pkg/extract"
	"github.com/blackrocklabs/playasearch/pkg/itemstore"
	"github.com/blackrocklabs/playasearch/pkg/types"
)

var (
	extractKind  string
	extractYear  int
	extractPools bool
	extractReset bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract entities from stored items into the index and graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close(ctx)

		if extractReset {
			if err := client.ResetGraph(ctx); err != nil {
				return err
			}
			cmd.Println("Graph reset")
		}

		items, err := client.Items().Filter(ctx, itemstore.FilterOptions{
			Kind: types.ItemKind(extractKind),
			Year: extractYear,
		})
		if err != nil {
			return err
		}

		strategies := []extract.Strategy{extract.BasicEntities{}}
		if extractPools {
			strategies = append(strategies, extract.PoolTags{})
		}
		for _, strategy := range strategies {
			stats, err := client.ExtractEntities(ctx, items, strategy)
			if err != nil {
				return err
			}
			cmd.Printf("%s: %d items processed, %d failed, %d entities\n",
				strategy.Name(), stats.Processed, stats.Failed, stats.Entities)
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractKind, "kind", "", "only extract items of this kind")
	extractCmd.Flags().IntVar(&extractYear, "year", 0, "only extract items from this year")
	extractCmd.Flags().BoolVar(&extractPools, "pools", false, "also assign thematic pool tags")
	extractCmd.Flags().BoolVar(&extractReset, "reset", false, "reset the graph before extracting")
	rootCmd.AddCommand(extractCmd)
}
