package types

// EntityType classifies an extracted entity. Alongside the structural
// types there are seven "pool" types, a cross-cutting thematic taxonomy.
type EntityType string

const (
	EntityLocation       EntityType = "location"
	EntityActivity       EntityType = "activity"
	EntityTheme          EntityType = "theme"
	EntityTime           EntityType = "time"
	EntityPerson         EntityType = "person"
	EntityContact        EntityType = "contact"
	EntityOrganizational EntityType = "organizational"
	EntityService        EntityType = "service"
	EntitySchedule       EntityType = "schedule"
	EntityRequirement    EntityType = "requirement"

	PoolIdea         EntityType = "pool_idea"
	PoolManifest     EntityType = "pool_manifest"
	PoolExperience   EntityType = "pool_experience"
	PoolRelational   EntityType = "pool_relational"
	PoolEvolutionary EntityType = "pool_evolutionary"
	PoolPractical    EntityType = "pool_practical"
	PoolEmanation    EntityType = "pool_emanation"
)

// Pools lists the seven pool entity types.
func Pools() []EntityType {
	return []EntityType{
		PoolIdea, PoolManifest, PoolExperience, PoolRelational,
		PoolEvolutionary, PoolPractical, PoolEmanation,
	}
}

// IsPool reports whether t is one of the seven pool types.
func (t EntityType) IsPool() bool {
	switch t {
	case PoolIdea, PoolManifest, PoolExperience, PoolRelational,
		PoolEvolutionary, PoolPractical, PoolEmanation:
		return true
	}
	return false
}

// Entity is a (type, canonical value) pair extracted from item text.
// Values are always stored in canonical form; see entityindex.Normalize.
type Entity struct {
	Type  EntityType `json:"type"`
	Value string     `json:"value"`
}

// Key returns a stable map key for the entity.
func (e Entity) Key() string {
	return string(e.Type) + ":" + e.Value
}
