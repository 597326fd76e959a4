package sequence

import (
	"slices"

	"github.com/zjrosen/stimseq/internal/stimulus"
)

// Rearrange is the targeted-swap correction pass: it scans an already
// ordered sequence left to right and, wherever a run would exceed its
// constraint, swaps in the nearest later stimulus with a different value.
// Constraints are applied sequentially in the order given, so a later
// pass can reintroduce a violation in an earlier attribute; callers that
// care should order constraints by priority and accept the trade-off.
//
// When no different-valued stimulus remains ahead of a violation the pass
// stops correcting that constraint and the residual violation stands.
// The input slice is not modified.
func Rearrange(order []stimulus.Attributes, constraints []Constraint) []stimulus.Attributes {
	out := slices.Clone(order)
	for _, c := range constraints {
		rearrangeOne(out, c)
	}
	return out
}

func rearrangeOne(order []stimulus.Attributes, c Constraint) {
	run := 1
	for j := 1; j < len(order); j++ {
		if c.Attr.Value(order[j]) == c.Attr.Value(order[j-1]) {
			run++
		} else {
			run = 1
		}
		if run <= c.MaxRun {
			continue
		}

		swapped := false
		for k := j + 1; k < len(order); k++ {
			if c.Attr.Value(order[k]) != c.Attr.Value(order[j]) {
				order[j], order[k] = order[k], order[j]
				swapped = true
				break
			}
		}
		if !swapped {
			// Everything ahead shares the value; nothing left to fix.
			return
		}
		run = 1
	}
}
