package playasearch

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackrocklabs/playasearch/pkg/types"
)

var bridgesK int

var poolsByName = map[string]types.EntityType{
	"idea":         types.PoolIdea,
	"manifest":     types.PoolManifest,
	"experience":   types.PoolExperience,
	"relational":   types.PoolRelational,
	"evolutionary": types.PoolEvolutionary,
	"practical":    types.PoolPractical,
	"emanation":    types.PoolEmanation,
}

func parsePool(name string) (types.EntityType, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "pool_"))
	pool, ok := poolsByName[key]
	if !ok {
		known := make([]string, 0, len(poolsByName))
		for k := range poolsByName {
			known = append(known, k)
		}
		return "", fmt.Errorf("unknown pool %q (one of: %s)", name, strings.Join(known, ", "))
	}
	return pool, nil
}

var bridgesCmd = &cobra.Command{
	Use:   "bridges <pool-a> <pool-b>",
	Short: "Find entities bridging two thematic pools",
	Long: `Bridges ranks the entities whose items span both of the given pools,
ordered by how strongly each one connects them. Pool names: idea, manifest,
experience, relational, evolutionary, practical, emanation.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		poolA, err := parsePool(args[0])
		if err != nil {
			return err
		}
		poolB, err := parsePool(args[1])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close(ctx)

		bridges, err := client.BridgeEntities(ctx, poolA, poolB, bridgesK)
		if err != nil {
			return err
		}
		for i, b := range bridges {
			cmd.Printf("%2d. %s  power=%.2f  pools=%d occurrences=%d cross=%d\n",
				i+1, b.Entity.Key(), b.Power, b.PoolCount, b.TotalOccurrences, b.CrossPoolRelationships)
		}
		return nil
	},
}

func init() {
	bridgesCmd.Flags().IntVarP(&bridgesK, "limit", "k", 10, "maximum number of bridge entities")
	rootCmd.AddCommand(bridgesCmd)
}
