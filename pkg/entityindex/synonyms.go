package entityindex

import "github.com/blackrocklabs/playasearch/pkg/types"

// SynonymTableVersion identifies the synonym data shipped with this build.
// Bump it whenever the table changes so downstream stores can detect stale
// canonical values.
const SynonymTableVersion = 3

// synonymTable maps already-singularized, collapsed values to their
// canonical form, scoped by entity type. Canonical values must be fixed
// points of Normalize. The table is static data, not computed at query
// time, so normalization stays deterministic.
var synonymTable = map[types.EntityType]map[string]string{
	types.EntityActivity: {
		"class":       "workshop",
		"clinic":      "workshop",
		"seminar":     "workshop",
		"lesson":      "workshop",
		"dance party": "party",
		"dj set":      "music",
		"concert":     "music",
		"live band":   "music",
		"yoga class":  "yoga",
		"meditate":    "meditation",
	},
	types.EntityTheme: {
		"burn":            "fire",
		"flame":           "fire",
		"pyrotechnic":     "fire",
		"self reliance":   "radical self reliance",
		"self expression": "radical self expression",
		"gift":            "gifting",
		"decommodify":     "decommodification",
		"leave no trace":  "lnt",
	},
	types.EntityLocation: {
		"center camp":   "center camp plaza",
		"the man":       "man base",
		"deep playa":    "open playa",
		"esplanade ave": "esplanade",
	},
	types.EntityTime: {
		"dawn":      "sunrise",
		"dusk":      "sunset",
		"nighttime": "night",
	},
	types.EntityService: {
		"coffee shop": "coffee",
		"barista":     "coffee",
		"first aid":   "medical",
		"bike fix":    "bike repair",
	},
}
