package sequence

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/zjrosen/stimseq/internal/stimulus"
)

// ============================================================================
// Property-Based Tests for Sequencing Invariants
// ============================================================================

// drawStimuli generates a stimulus set with attribute values drawn from
// small alphabets, which makes both satisfiable and adversarial
// distributions likely.
func drawStimuli(t *rapid.T) []stimulus.Attributes {
	n := rapid.IntRange(0, 40).Draw(t, "n")
	names := rapid.SampledFrom([]string{"anna", "berta", "carla"})
	manipValues := rapid.SampledFrom([]string{"m1", "m2", "m3"})
	conditions := rapid.SampledFrom([]string{"br", "nobr"})

	attrs := make([]stimulus.Attributes, n)
	for i := range attrs {
		name := names.Draw(t, fmt.Sprintf("name-%d", i))
		cond := conditions.Draw(t, fmt.Sprintf("cond-%d", i))
		manip := manipValues.Draw(t, fmt.Sprintf("manip-%d", i))
		attrs[i] = stimulus.Attributes{
			ID:        fmt.Sprintf("%s_%s_%d_%s.wav", name, cond, i, manip),
			Name:      name,
			Condition: cond,
			Manip:     manip,
		}
	}
	return attrs
}

func drawPlan(t *rapid.T) Plan {
	plan := Plan{
		Randomness: Randomness{
			Mode: SeedFixed,
			Seed: rapid.Int64().Draw(t, "seed"),
		},
	}
	if rapid.Bool().Draw(t, "constrainManip") {
		plan.Constraints = append(plan.Constraints, Constraint{
			Attr:   stimulus.AttrManip,
			MaxRun: rapid.IntRange(1, 4).Draw(t, "manipLimit"),
		})
	}
	if rapid.Bool().Draw(t, "constrainName") {
		plan.Constraints = append(plan.Constraints, Constraint{
			Attr:   stimulus.AttrName,
			MaxRun: rapid.IntRange(1, 4).Draw(t, "nameLimit"),
		})
	}
	if rapid.Bool().Draw(t, "grouped") {
		plan.GroupBy = stimulus.AttrName
	}
	return plan
}

// TestProperty_SetPreservation verifies the output is always a permutation
// of the input, for any constraints, grouping, and seed.
func TestProperty_SetPreservation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		attrs := drawStimuli(t)
		plan := drawPlan(t)

		res, err := Generate(attrs, plan)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if len(res.Order) != len(attrs) {
			t.Fatalf("length changed: got %d want %d", len(res.Order), len(attrs))
		}
		if err := VerifySetPreserved(attrs, res.Order); err != nil {
			t.Fatalf("set not preserved: %v", err)
		}
	})
}

// TestProperty_Termination verifies the generator terminates even on
// adversarial single-value inputs, flagging relaxation instead of looping.
func TestProperty_Termination(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(3, 30).Draw(t, "n")
		attrs := make([]stimulus.Attributes, n)
		for i := range attrs {
			attrs[i] = stimulus.Attributes{
				ID:    fmt.Sprintf("s%d", i),
				Manip: "same",
			}
		}
		plan := Plan{
			Constraints: []Constraint{{Attr: stimulus.AttrManip, MaxRun: 2}},
			Randomness:  Randomness{Mode: SeedFixed, Seed: rapid.Int64().Draw(t, "seed")},
		}

		res, err := Generate(attrs, plan)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !res.Relaxed {
			t.Fatalf("expected relaxation for %d identical items under limit 2", n)
		}
		if err := VerifySetPreserved(attrs, res.Order); err != nil {
			t.Fatalf("set not preserved: %v", err)
		}
	})
}

// TestProperty_Determinism verifies a fixed seed reproduces the identical
// order across repeated runs.
func TestProperty_Determinism(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		attrs := drawStimuli(t)
		plan := drawPlan(t)

		first, err := Generate(attrs, plan)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		second, err := Generate(attrs, plan)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}

		firstIDs, secondIDs := first.IDs(), second.IDs()
		for i := range firstIDs {
			if firstIDs[i] != secondIDs[i] {
				t.Fatalf("orders diverge at %d: %q vs %q", i, firstIDs[i], secondIDs[i])
			}
		}
	})
}

// TestProperty_RearrangePreservesSet verifies the targeted-swap pass never
// loses or duplicates stimuli, violations or not.
func TestProperty_RearrangePreservesSet(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		attrs := drawStimuli(t)
		constraints := []Constraint{
			{Attr: stimulus.AttrCondition, MaxRun: rapid.IntRange(1, 3).Draw(t, "condLimit")},
			{Attr: stimulus.AttrName, MaxRun: rapid.IntRange(1, 3).Draw(t, "nameLimit")},
			{Attr: stimulus.AttrManip, MaxRun: rapid.IntRange(1, 3).Draw(t, "manipLimit")},
		}

		out := Rearrange(attrs, constraints)
		if err := VerifySetPreserved(attrs, out); err != nil {
			t.Fatalf("set not preserved: %v", err)
		}
	})
}
