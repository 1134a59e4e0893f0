package graph

import "github.com/blackrocklabs/playasearch/pkg/types"

// bridgeCandidate is a non-pool entity with the statistics the bridge
// ranking needs: how many items carry it, and which pools those items
// belong to.
type bridgeCandidate struct {
	Entity      types.Entity
	Occurrences int
	Pools       map[types.EntityType]struct{}
}

// rankBridges scores candidates spanning both pools and returns the top k
// by bridge power. adjacency holds appears-with neighbors among non-pool
// entities, keyed by entity key. Both store implementations feed this so
// they rank identically.
func rankBridges(candidates map[string]bridgeCandidate, adjacency map[string][]string, poolA, poolB types.EntityType, k int) []BridgeEntity {
	var bridges []BridgeEntity
	for key, cand := range candidates {
		if _, inA := cand.Pools[poolA]; !inA {
			continue
		}
		if _, inB := cand.Pools[poolB]; !inB {
			continue
		}

		// A cross-pool relationship is a neighbor reaching at least one
		// pool this entity does not itself appear in.
		cross := 0
		for _, other := range adjacency[key] {
			neighbor, ok := candidates[other]
			if !ok {
				continue
			}
			for pool := range neighbor.Pools {
				if _, own := cand.Pools[pool]; !own {
					cross++
					break
				}
			}
		}

		b := BridgeEntity{
			Entity:                 cand.Entity,
			PoolCount:              len(cand.Pools),
			TotalOccurrences:       cand.Occurrences,
			CrossPoolRelationships: cross,
		}
		b.Power = BridgePower(b.PoolCount, b.TotalOccurrences, b.CrossPoolRelationships)
		bridges = append(bridges, b)
	}

	SortBridgeEntities(bridges)
	if k > 0 && len(bridges) > k {
		bridges = bridges[:k]
	}
	return bridges
}
