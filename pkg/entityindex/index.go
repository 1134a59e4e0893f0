package entityindex

import (
	"context"

	"github.com/blackrocklabs/playasearch/pkg/types"
)

// Index maps extracted entities to the items that carry them. All values
// passed in and out are canonical; writes normalize through Normalize
// before storage so lookups are deterministic.
type Index interface {
	// EntitiesFor returns the entities attached to an item.
	EntitiesFor(ctx context.Context, itemID string) ([]types.Entity, error)

	// ItemsFor returns the IDs of items carrying the given entity.
	ItemsFor(ctx context.Context, entityType types.EntityType, value string) ([]string, error)

	// LookupLike returns entities whose canonical value starts with the
	// given prefix, optionally restricted to one entity type. Used for
	// fuzzy/autocomplete matching.
	LookupLike(ctx context.Context, entityType types.EntityType, valuePrefix string) ([]types.Entity, error)

	// All returns every distinct entity in the index.
	All(ctx context.Context) ([]types.Entity, error)

	// Add attaches entities to an item, normalizing values first.
	Add(ctx context.Context, itemID string, entities []types.Entity) error

	// Close releases index resources.
	Close() error
}
