package sequence

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zjrosen/stimseq/internal/stimulus"
)

// MismatchError reports a violated set-preservation postcondition: the
// generated order lost or duplicated stimuli relative to the input. This
// is fatal for experiment setup; a corrupted order must never be persisted
// or presented.
type MismatchError struct {
	Missing []string // ids present in the input but absent from the order
	Extra   []string // ids in the order that exceed their input count
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	var b strings.Builder
	b.WriteString("generated order does not preserve the stimulus set")
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing: %s", strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		fmt.Fprintf(&b, "; unexpected: %s", strings.Join(e.Extra, ", "))
	}
	return b.String()
}

// VerifySetPreserved checks that output is a permutation of input,
// comparing ids as multisets so an accidental duplicate is caught even
// when the set view would match.
func VerifySetPreserved(input, output []stimulus.Attributes) error {
	counts := make(map[string]int, len(input))
	for _, s := range input {
		counts[s.ID]++
	}
	for _, s := range output {
		counts[s.ID]--
	}

	var missing, extra []string
	for id, n := range counts {
		switch {
		case n > 0:
			missing = append(missing, id)
		case n < 0:
			extra = append(extra, id)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return &MismatchError{Missing: missing, Extra: extra}
}

// VerifyIDsPreserved is VerifySetPreserved over raw id lists; used when
// re-checking a persisted order against a corpus listing.
func VerifyIDsPreserved(input, output []string) error {
	toAttrs := func(ids []string) []stimulus.Attributes {
		attrs := make([]stimulus.Attributes, len(ids))
		for i, id := range ids {
			attrs[i] = stimulus.Attributes{ID: id}
		}
		return attrs
	}
	return VerifySetPreserved(toAttrs(input), toAttrs(output))
}
