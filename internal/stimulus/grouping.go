package stimulus

import "fmt"

// Attribute names a single derivable attribute of a stimulus. It is used
// as the subject of grouping and of consecutive-run constraints.
type Attribute string

const (
	// AttrName is the speaker / name-sequence attribute.
	AttrName Attribute = "name_stim"
	// AttrCondition is the experimental condition attribute.
	AttrCondition Attribute = "condition"
	// AttrManip is the manipulation attribute.
	AttrManip Attribute = "manip"
)

// Valid reports whether the attribute is one of the known attributes.
func (a Attribute) Valid() bool {
	switch a {
	case AttrName, AttrCondition, AttrManip:
		return true
	}
	return false
}

// Value returns the attribute's value on the given stimulus.
func (a Attribute) Value(s Attributes) string {
	switch a {
	case AttrName:
		return s.Name
	case AttrCondition:
		return s.Condition
	case AttrManip:
		return s.Manip
	default:
		panic(fmt.Sprintf("unknown stimulus attribute %q", string(a)))
	}
}

// GroupBy partitions stimuli into groups keyed by the given attribute's
// value. Order within each group follows input order; callers shuffle
// before sequencing, so pre-shuffle order is irrelevant.
func GroupBy(stimuli []Attributes, attr Attribute) map[string][]Attributes {
	groups := make(map[string][]Attributes)
	for _, s := range stimuli {
		key := attr.Value(s)
		groups[key] = append(groups[key], s)
	}
	return groups
}

// GroupByPrefix partitions stimuli by a fixed-width prefix of their id.
// This matches the corpus revisions that block stimuli by name coordination
// encoded in the first n characters of the filename. IDs shorter than n
// form their own group keyed by the whole id.
func GroupByPrefix(stimuli []Attributes, n int) map[string][]Attributes {
	groups := make(map[string][]Attributes)
	for _, s := range stimuli {
		key := s.ID
		if len(key) > n {
			key = key[:n]
		}
		groups[key] = append(groups[key], s)
	}
	return groups
}

// GroupKeys returns the group keys in unspecified order. Callers that need
// a reproducible group order must sort or shuffle the result explicitly.
func GroupKeys(groups map[string][]Attributes) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	return keys
}
