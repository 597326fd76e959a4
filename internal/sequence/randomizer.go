package sequence

import (
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"time"

	"github.com/zjrosen/stimseq/internal/log"
	"github.com/zjrosen/stimseq/internal/stimulus"
)

// SeedMode selects the randomness source for a sequencing run.
type SeedMode string

const (
	// SeedFixed uses the configured seed; identical input and seed yield
	// an identical order across runs.
	SeedFixed SeedMode = "fixed"
	// SeedEntropy seeds from the clock for per-participant variability.
	// The drawn seed is recorded on the Result so runs stay auditable.
	SeedEntropy SeedMode = "entropy"
)

// Randomness is the explicit randomness configuration for a plan.
type Randomness struct {
	Mode SeedMode
	Seed int64 // used when Mode == SeedFixed
}

// Validate rejects unknown seed modes.
func (r Randomness) Validate() error {
	switch r.Mode {
	case SeedFixed, SeedEntropy:
		return nil
	default:
		return fmt.Errorf("unknown seed mode %q", string(r.Mode))
	}
}

// effectiveSeed resolves the seed to use for this run.
func (r Randomness) effectiveSeed() int64 {
	if r.Mode == SeedFixed {
		return r.Seed
	}
	return time.Now().UnixNano()
}

// Plan describes one sequencing run: which runs to bound, how to block the
// set into groups, and where randomness comes from.
type Plan struct {
	// Constraints apply conjunctively to every generated order.
	Constraints []Constraint

	// GroupBy partitions the set by attribute value before sequencing.
	// Empty means single-stage sequencing over the flattened set.
	GroupBy stimulus.Attribute

	// GroupPrefixLen partitions by fixed-width id prefix instead of an
	// attribute when > 0. Mutually exclusive with GroupBy.
	GroupPrefixLen int

	Randomness Randomness
}

// Validate checks the plan's constraints, grouping, and randomness mode.
func (p Plan) Validate() error {
	for _, c := range p.Constraints {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if p.GroupBy != "" && !p.GroupBy.Valid() {
		return fmt.Errorf("unknown grouping attribute %q", string(p.GroupBy))
	}
	if p.GroupBy != "" && p.GroupPrefixLen > 0 {
		return fmt.Errorf("group_by and group_prefix_len are mutually exclusive")
	}
	return p.Randomness.Validate()
}

// Result is an immutable sequencing outcome. Order is a permutation of the
// input; Relaxed reports that at least one group exhausted its candidates
// and fell back to appending the remainder unconstrained.
type Result struct {
	Order    []stimulus.Attributes
	Seed     int64
	Relaxed  bool
	Warnings []string
}

// IDs returns the ordered stimulus ids, the only part of the result the
// trial-presentation driver consumes.
func (r Result) IDs() []string {
	ids := make([]string, len(r.Order))
	for i, s := range r.Order {
		ids[i] = s.ID
	}
	return ids
}

// Generate produces a constrained permutation of stimuli according to the
// plan. Group order and within-group order are shuffled from independent
// streams derived from the same seed, so either stage can be reasoned
// about separately under a fixed seed.
//
// The set-preservation postcondition is checked before returning; a
// violated postcondition is a bug, not an input problem, and fails hard.
func Generate(stimuli []stimulus.Attributes, plan Plan) (Result, error) {
	if err := plan.Validate(); err != nil {
		return Result{}, err
	}

	seed := plan.Randomness.effectiveSeed()
	base := rand.New(rand.NewSource(seed))
	groupRNG := rand.New(rand.NewSource(base.Int63()))
	itemRNG := rand.New(rand.NewSource(base.Int63()))

	res := Result{Seed: seed}

	switch {
	case plan.GroupBy != "" || plan.GroupPrefixLen > 0:
		var groups map[string][]stimulus.Attributes
		if plan.GroupBy != "" {
			groups = stimulus.GroupBy(stimuli, plan.GroupBy)
		} else {
			groups = stimulus.GroupByPrefix(stimuli, plan.GroupPrefixLen)
		}

		// Map iteration order is not reproducible; sort before shuffling
		// so a fixed seed yields a fixed group order.
		keys := stimulus.GroupKeys(groups)
		sort.Strings(keys)
		groupRNG.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

		// Constraints are checked against the global tail, so a run
		// cannot leak across a group boundary.
		res.Order = make([]stimulus.Attributes, 0, len(stimuli))
		for _, key := range keys {
			var relaxed bool
			res.Order, relaxed = fill(res.Order, groups[key], plan.Constraints, itemRNG)
			if relaxed {
				res.Relaxed = true
				warning := fmt.Sprintf("constraints not satisfiable for remainder of group %q; appended unconstrained", key)
				res.Warnings = append(res.Warnings, warning)
				log.Warn(log.CatSequence, "constraint relaxation", "group", key)
			}
		}

	default:
		ordered, relaxed := fill(nil, stimuli, plan.Constraints, itemRNG)
		res.Order = ordered
		if relaxed {
			res.Relaxed = true
			res.Warnings = append(res.Warnings, "constraints not satisfiable for remainder; appended unconstrained")
			log.Warn(log.CatSequence, "constraint relaxation")
		}
	}

	if err := VerifySetPreserved(stimuli, res.Order); err != nil {
		return Result{}, err
	}

	log.Debug(log.CatSequence, "order generated",
		"items", len(res.Order), "seed", seed, "relaxed", res.Relaxed)
	return res, nil
}

// fill implements randomize-with-retry-by-swap for a single pool: shuffle,
// then repeatedly place the first pool item that keeps every constraint
// satisfied against the tail of the already placed sequence. When no item
// qualifies the remaining pool is appended in its shuffled order and the
// relaxed flag is returned. This fallback is deliberate: the constraints
// are best-effort, and an unplaceable remainder must not abort the run.
//
// placed may carry the output of earlier groups; the extended slice is
// returned.
func fill(placed, pool []stimulus.Attributes, constraints []Constraint, rng *rand.Rand) ([]stimulus.Attributes, bool) {
	pool = slices.Clone(pool)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	for len(pool) > 0 {
		found := -1
		for i, candidate := range pool {
			if allowsAll(constraints, placed, candidate) {
				found = i
				break
			}
		}
		if found < 0 {
			placed = append(placed, pool...)
			return placed, true
		}
		placed = append(placed, pool[found])
		pool = append(pool[:found], pool[found+1:]...)
	}
	return placed, false
}

func allowsAll(constraints []Constraint, placed []stimulus.Attributes, candidate stimulus.Attributes) bool {
	for _, c := range constraints {
		if !c.allows(placed, candidate) {
			return false
		}
	}
	return true
}
