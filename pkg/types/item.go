package types

import (
	"math"
	"strings"
	"time"
)

// ItemKind categorizes searchable content records.
type ItemKind string

const (
	KindCamp              ItemKind = "camp"
	KindArt               ItemKind = "art"
	KindEvent             ItemKind = "event"
	KindPhilosophicalText ItemKind = "philosophical_text"
	KindExperienceStory   ItemKind = "experience_story"
	KindPracticalGuide    ItemKind = "practical_guide"
	KindInfrastructure    ItemKind = "infrastructure"
	KindHistoricalFact    ItemKind = "historical_fact"
)

// AllKinds lists every known item kind.
func AllKinds() []ItemKind {
	return []ItemKind{
		KindCamp, KindArt, KindEvent, KindPhilosophicalText,
		KindExperienceStory, KindPracticalGuide, KindInfrastructure,
		KindHistoricalFact,
	}
}

// Item is a typed content record. The embedding is nil until it has been
// computed by the ingestion collaborator.
type Item struct {
	ID             string    `json:"id"`
	Kind           ItemKind  `json:"kind"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Year           int       `json:"year,omitempty"`
	Location       string    `json:"location,omitempty"`
	Embedding      []float32 `json:"embedding,omitempty"`
	SearchableText string    `json:"searchable_text,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`

	// Kind-specific optional attributes. At most one of these is set,
	// matching the item's Kind.
	Camp  *CampDetails  `json:"camp,omitempty"`
	Event *EventDetails `json:"event,omitempty"`
	Art   *ArtDetails   `json:"art,omitempty"`

	// Extra holds genuinely unpredictable attributes that do not fit the
	// typed detail structs.
	Extra map[string]string `json:"extra,omitempty"`
}

// CampDetails holds camp-specific attributes.
type CampDetails struct {
	Hometown     string `json:"hometown,omitempty"`
	URL          string `json:"url,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
}

// EventDetails holds event-specific attributes.
type EventDetails struct {
	HostedBy  string `json:"hosted_by,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	AllDay    bool   `json:"all_day,omitempty"`
}

// ArtDetails holds art-installation attributes.
type ArtDetails struct {
	Artist   string `json:"artist,omitempty"`
	Category string `json:"category,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Validate checks required item fields.
func (i *Item) Validate() error {
	if i.ID == "" {
		return ErrEmptyID
	}
	if i.Name == "" {
		return ErrEmptyName
	}
	return nil
}

// Searchable returns the denormalized text blob used for keyword matching,
// deriving it from name, description and location when unset.
func (i *Item) Searchable() string {
	if i.SearchableText != "" {
		return i.SearchableText
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{i.Name, i.Description, i.Location} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// NormalizeEmbedding scales the item's embedding to unit length so that
// the cosine-distance operator and dot products agree. A nil or zero
// vector is left untouched.
func (i *Item) NormalizeEmbedding() {
	if len(i.Embedding) == 0 {
		return
	}
	var sum float64
	for _, v := range i.Embedding {
		sum += float64(v) * float64(v)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	for j, v := range i.Embedding {
		i.Embedding[j] = float32(float64(v) / norm)
	}
}
