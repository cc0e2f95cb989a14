package voice

import (
	"fmt"
	"math/rand"
	"time"
)

// FilterBy is the dimension a selection filters on.
type FilterBy string

// Filter dimensions. These double as the persisted preference values.
const (
	ByLocale   FilterBy = "Locale"
	ByLanguage FilterBy = "Language"
)

// Filter narrows the catalog to one locale or one language.
type Filter struct {
	By    FilterBy
	Value string
}

func (f Filter) String() string {
	return fmt.Sprintf("%s=%s", f.By, f.Value)
}

// Selector draws a random voice from a catalog. The random source is
// injectable so selection is deterministic under test.
type Selector struct {
	catalog *Catalog
	min     int
	rng     *rand.Rand
}

// NewSelector creates a selector over catalog. Selections with fewer than min
// voices are rejected. A nil rng gets a time-seeded source.
func NewSelector(catalog *Catalog, min int, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{catalog: catalog, min: min, rng: rng}
}

// Select returns one voice chosen uniformly at random from the voices
// matching the filter. It fails with a configuration error when the filter
// matches nothing or matches fewer voices than the configured minimum.
func (s *Selector) Select(f Filter) (Voice, error) {
	var candidates []Voice
	switch f.By {
	case ByLocale:
		candidates = s.catalog.ByLocale(f.Value)
	case ByLanguage:
		candidates = s.catalog.ByLanguage(f.Value)
	default:
		return Voice{}, fmt.Errorf("unknown filter dimension %q", f.By)
	}

	if len(candidates) == 0 {
		return Voice{}, fmt.Errorf("%w: %s", ErrUnknownSelection, f)
	}
	if len(candidates) < s.min {
		return Voice{}, fmt.Errorf("%w: %s has %d voices, minimum is %d",
			ErrBelowMinimumVoices, f, len(candidates), s.min)
	}

	return candidates[s.rng.Intn(len(candidates))], nil
}
