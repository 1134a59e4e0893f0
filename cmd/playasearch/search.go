package playasearch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackrocklabs/playasearch/pkg/search"
	"github.com/blackrocklabs/playasearch/pkg/types"
)

var (
	searchK          int
	searchKind       string
	searchYear       int
	searchDepth      int
	searchNoExpand   bool
	searchVectorOnly bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run a hybrid search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close(ctx)

		if searchVectorOnly {
			results, err := client.VectorSearch(ctx, args[0], searchK, search.Options{
				Kind: types.ItemKind(searchKind),
				Year: searchYear,
			})
			if err != nil {
				return err
			}
			printResults(cmd, results)
			return nil
		}

		resp, err := client.Search(ctx, args[0], searchK, search.UnifiedOptions{
			Kind:          types.ItemKind(searchKind),
			Year:          searchYear,
			GraphDepth:    searchDepth,
			SkipExpansion: searchNoExpand,
		})
		if err != nil {
			return err
		}

		printResults(cmd, resp.Results)
		if len(resp.QueryEntities) > 0 {
			cmd.Println()
			cmd.Print("Query entities:")
			for _, e := range resp.QueryEntities {
				cmd.Printf(" %s", e.Key())
			}
			cmd.Println()
		}
		for _, diag := range resp.Diagnostics {
			cmd.Printf("Note: %s\n", diag)
		}
		cmd.Printf("%d results (%d via graph expansion) in %s\n",
			len(resp.Results), resp.GraphExpansionCount, resp.ExecutionTime)
		return nil
	},
}

func printResults(cmd *cobra.Command, results []*types.SearchResult) {
	for i, r := range results {
		line := fmt.Sprintf("%2d. [%s] %s  score=%.3f", i+1, r.Item.Kind, r.Item.Name, r.CombinedScore)
		if r.Similarity != nil {
			line += fmt.Sprintf(" sim=%.3f", *r.Similarity)
		}
		if r.ExpansionReason != "" {
			line += fmt.Sprintf("  (%s)", r.ExpansionReason)
		}
		cmd.Println(line)
	}
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "limit", "k", 10, "maximum number of results")
	searchCmd.Flags().StringVar(&searchKind, "kind", "", "filter by item kind (camp, art, event, ...)")
	searchCmd.Flags().IntVar(&searchYear, "year", 0, "filter by event year")
	searchCmd.Flags().IntVar(&searchDepth, "depth", 0, "graph traversal depth (default 1)")
	searchCmd.Flags().BoolVar(&searchNoExpand, "no-expand", false, "disable graph expansion")
	searchCmd.Flags().BoolVar(&searchVectorOnly, "vector-only", false, "similarity ranking only, no graph signals")
	rootCmd.AddCommand(searchCmd)
}
