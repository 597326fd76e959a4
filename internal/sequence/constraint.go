// Package sequence produces constrained presentation orders for stimulus
// sets. The central operation is a best-effort randomization that bounds
// the length of consecutive runs sharing an attribute value (speaker,
// condition, manipulation). Constraints are soft: when no remaining
// stimulus can be placed without a violation the remainder is appended
// as-is and the result is flagged as relaxed.
package sequence

import (
	"fmt"

	"github.com/zjrosen/stimseq/internal/stimulus"
)

// Constraint bounds consecutive runs of a single attribute: no MaxRun+1
// consecutive stimuli may share the same value for Attr.
type Constraint struct {
	Attr   stimulus.Attribute
	MaxRun int
}

// String returns a compact representation like "manip<=2".
func (c Constraint) String() string {
	return fmt.Sprintf("%s<=%d", c.Attr, c.MaxRun)
}

// Validate rejects unknown attributes and non-positive run limits.
func (c Constraint) Validate() error {
	if !c.Attr.Valid() {
		return fmt.Errorf("constraint on unknown attribute %q", string(c.Attr))
	}
	if c.MaxRun < 1 {
		return fmt.Errorf("constraint %s: max run must be at least 1", c.Attr)
	}
	return nil
}

// allows reports whether appending candidate to placed keeps the constraint
// satisfied: among the last MaxRun placed stimuli, fewer than MaxRun may
// already share the candidate's attribute value.
func (c Constraint) allows(placed []stimulus.Attributes, candidate stimulus.Attributes) bool {
	value := c.Attr.Value(candidate)
	matching := 0
	for i := len(placed) - 1; i >= 0 && i >= len(placed)-c.MaxRun; i-- {
		if c.Attr.Value(placed[i]) == value {
			matching++
		}
	}
	return matching < c.MaxRun
}

// Violation describes a run that exceeds a constraint in a finished order.
type Violation struct {
	Constraint Constraint
	Value      string
	Start      int // index of the first stimulus in the run
	Length     int
}

// String returns a human-readable description of the violation.
func (v Violation) String() string {
	return fmt.Sprintf("run of %d %s=%q starting at index %d exceeds limit %d",
		v.Length, v.Constraint.Attr, v.Value, v.Start, v.Constraint.MaxRun)
}

// ScanViolations reports every maximal run in order that exceeds one of the
// constraints. An empty result means all constraints hold.
func ScanViolations(order []stimulus.Attributes, constraints []Constraint) []Violation {
	var violations []Violation
	for _, c := range constraints {
		for start := 0; start < len(order); {
			value := c.Attr.Value(order[start])
			end := start + 1
			for end < len(order) && c.Attr.Value(order[end]) == value {
				end++
			}
			if end-start > c.MaxRun {
				violations = append(violations, Violation{
					Constraint: c,
					Value:      value,
					Start:      start,
					Length:     end - start,
				})
			}
			start = end
		}
	}
	return violations
}
