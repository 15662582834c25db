package plans

// PlanDefinition is an immutable catalog entry. Prices are IDR minor units.
type PlanDefinition struct {
	ID              string
	DisplayName     string
	PriceMinorUnits int64
	DurationDays    int
}

var catalog = map[string]PlanDefinition{
	"1month": {
		ID:              "1month",
		DisplayName:     "1 Month",
		PriceMinorUnits: 25000,
		DurationDays:    30,
	},
	"3month": {
		ID:              "3month",
		DisplayName:     "3 Months",
		PriceMinorUnits: 65000,
		DurationDays:    90,
	},
	"6month": {
		ID:              "6month",
		DisplayName:     "6 Months",
		PriceMinorUnits: 120000,
		DurationDays:    180,
	},
	"12month": {
		ID:              "12month",
		DisplayName:     "12 Months",
		PriceMinorUnits: 220000,
		DurationDays:    365,
	},
}

var ordered = []string{"1month", "3month", "6month", "12month"}

// Lookup returns the definition for the given plan id. An unknown id is a
// normal miss, not an error; callers map it to a client-side failure.
func Lookup(planID string) (PlanDefinition, bool) {
	def, ok := catalog[planID]
	return def, ok
}

// List returns every plan definition in display order.
func List() []PlanDefinition {
	out := make([]PlanDefinition, 0, len(ordered))
	for _, id := range ordered {
		out = append(out, catalog[id])
	}
	return out
}
