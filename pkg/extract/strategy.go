package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/blackrocklabs/playasearch/pkg/nlp"
	"github.com/blackrocklabs/playasearch/pkg/types"
)

// Strategy defines one extraction behavior: how to prompt the model for an
// item and how to turn its reply into entities. The pipeline is the same
// for every strategy; only prompt and schema differ.
type Strategy interface {
	// Name identifies the strategy in logs and checkpoints.
	Name() string

	// Messages builds the chat prompt for one item.
	Messages(item *types.Item) []nlp.Message

	// Parse converts the model's JSON reply into entities.
	Parse(raw string) ([]types.Entity, error)
}

// BasicEntities extracts typed entities (locations, activities, themes and
// the rest of the structural taxonomy) from item text.
type BasicEntities struct{}

// Name implements Strategy.
func (BasicEntities) Name() string { return "basic_entities" }

// Messages implements Strategy.
func (BasicEntities) Messages(item *types.Item) []nlp.Message {
	system := `You are an entity extractor for a Burning Man event guide.
Extract entities from the item text. Allowed entity types:
location, activity, theme, time, person, contact, organizational, service, schedule, requirement.
Respond with a JSON object: {"entities": [{"type": "...", "value": "..."}]}.
Values must be short lowercase phrases taken from the text. Do not invent entities.`

	user := fmt.Sprintf("Item kind: %s\nName: %s\nText: %s", item.Kind, item.Name, item.Searchable())

	return []nlp.Message{
		nlp.NewSystemMessage(system),
		nlp.NewUserMessage(user),
	}
}

// Parse implements Strategy.
func (BasicEntities) Parse(raw string) ([]types.Entity, error) {
	payload, err := decodeEntityPayload(raw)
	if err != nil {
		return nil, err
	}

	var entities []types.Entity
	for _, e := range payload.Entities {
		t := types.EntityType(strings.ToLower(strings.TrimSpace(e.Type)))
		if !isStructuralType(t) || strings.TrimSpace(e.Value) == "" {
			continue
		}
		entities = append(entities, types.Entity{Type: t, Value: e.Value})
	}
	return entities, nil
}

// PoolTags assigns items to the seven thematic pools.
type PoolTags struct{}

// Name implements Strategy.
func (PoolTags) Name() string { return "pool_tags" }

// Messages implements Strategy.
func (PoolTags) Messages(item *types.Item) []nlp.Message {
	system := `You are a classifier for a Burning Man event guide.
Assign the item to one or more thematic pools:
pool_idea, pool_manifest, pool_experience, pool_relational, pool_evolutionary, pool_practical, pool_emanation.
Respond with a JSON object: {"entities": [{"type": "pool_...", "value": "member"}]}.
Only include pools the item clearly belongs to.`

	user := fmt.Sprintf("Item kind: %s\nName: %s\nText: %s", item.Kind, item.Name, item.Searchable())

	return []nlp.Message{
		nlp.NewSystemMessage(system),
		nlp.NewUserMessage(user),
	}
}

// Parse implements Strategy.
func (PoolTags) Parse(raw string) ([]types.Entity, error) {
	payload, err := decodeEntityPayload(raw)
	if err != nil {
		return nil, err
	}

	var entities []types.Entity
	for _, e := range payload.Entities {
		t := types.EntityType(strings.ToLower(strings.TrimSpace(e.Type)))
		if !t.IsPool() {
			continue
		}
		entities = append(entities, types.Entity{Type: t, Value: "member"})
	}
	return entities, nil
}

type entityPayload struct {
	Entities []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"entities"`
}

// decodeEntityPayload unmarshals the model reply, running it through JSON
// repair first since models occasionally emit trailing commas or unquoted
// keys.
func decodeEntityPayload(raw string) (*entityPayload, error) {
	repaired, _ := jsonrepair.JSONRepair(raw)
	if repaired == "" {
		repaired = raw
	}

	payload := &entityPayload{}
	if err := json.Unmarshal([]byte(repaired), payload); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}
	return payload, nil
}

func isStructuralType(t types.EntityType) bool {
	switch t {
	case types.EntityLocation, types.EntityActivity, types.EntityTheme,
		types.EntityTime, types.EntityPerson, types.EntityContact,
		types.EntityOrganizational, types.EntityService,
		types.EntitySchedule, types.EntityRequirement:
		return true
	}
	return false
}
