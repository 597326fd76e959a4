// Package stimulus models audio stimulus identifiers and the attribute
// extraction rules encoded in their filenames. A stimulus id is an
// underscore-delimited filename such as "anna_br_0_flat.wav"; the speaker
// name, experimental condition, and manipulation label are recovered from
// fixed positions or fixed marker substrings depending on the corpus
// naming scheme.
package stimulus

import (
	"fmt"
	"strings"
)

// Attributes is the derived, read-only record for a single stimulus.
// Extraction is a pure function of the id; Attributes are never mutated
// after construction.
type Attributes struct {
	// ID is the original stimulus identifier (filename).
	ID string

	// Name is the speaker / name-sequence label (name_stim).
	Name string

	// Condition is the experimental condition label.
	Condition string

	// Manip is the manipulation label.
	Manip string
}

// Extractor derives Attributes from a stimulus id. Implementations must be
// deterministic and must return MalformedIDError rather than guessing when
// an id does not fit the scheme.
type Extractor interface {
	Extract(id string) (Attributes, error)
}

// MalformedIDError indicates a stimulus id that does not decompose under
// the active extraction scheme.
type MalformedIDError struct {
	ID     string
	Reason string
}

// Error implements the error interface.
func (e *MalformedIDError) Error() string {
	return fmt.Sprintf("malformed stimulus id %q: %s", e.ID, e.Reason)
}

// Tokens splits an id on underscores and discards empty tokens. A trailing
// file extension on the last token is kept; positional schemes account for
// it via their indices.
func Tokens(id string) []string {
	parts := strings.Split(id, "_")
	tokens := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// PositionalExtractor selects attribute tokens by fixed index.
// The corpus revisions observed place name_stim at token 0, condition at
// token 1, and manip at token 3.
type PositionalExtractor struct {
	NameIndex      int
	ConditionIndex int
	ManipIndex     int
}

// DefaultPositional returns the positional scheme used by the imitation
// stimulus corpus.
func DefaultPositional() PositionalExtractor {
	return PositionalExtractor{NameIndex: 0, ConditionIndex: 1, ManipIndex: 3}
}

// Extract implements Extractor.
func (p PositionalExtractor) Extract(id string) (Attributes, error) {
	tokens := Tokens(id)

	need := max(p.NameIndex, p.ConditionIndex, p.ManipIndex) + 1
	if len(tokens) < need {
		return Attributes{}, &MalformedIDError{
			ID:     id,
			Reason: fmt.Sprintf("expected at least %d underscore-delimited tokens, got %d", need, len(tokens)),
		}
	}

	return Attributes{
		ID:        id,
		Name:      tokens[p.NameIndex],
		Condition: tokens[p.ConditionIndex],
		Manip:     stripExtension(tokens[p.ManipIndex]),
	}, nil
}

// MarkerExtractor recovers attributes from marker substrings instead of
// token positions: name_stim is everything before Marker, manip is the last
// token once Suffix is trimmed, and condition is the token immediately
// after the marker.
type MarkerExtractor struct {
	// Marker separates the name part from the rest of the id, e.g. "_seq".
	Marker string

	// Suffix is trimmed from the end of the id before the manip token is
	// taken, e.g. ".wav".
	Suffix string
}

// Extract implements Extractor.
func (m MarkerExtractor) Extract(id string) (Attributes, error) {
	idx := strings.Index(id, m.Marker)
	if idx <= 0 {
		return Attributes{}, &MalformedIDError{
			ID:     id,
			Reason: fmt.Sprintf("marker %q not found", m.Marker),
		}
	}
	name := id[:idx]

	rest := strings.TrimSuffix(id, m.Suffix)
	tokens := Tokens(rest)
	if len(tokens) < 2 {
		return Attributes{}, &MalformedIDError{
			ID:     id,
			Reason: "no manip token before suffix",
		}
	}
	manip := tokens[len(tokens)-1]

	// Condition is the first token after the name part, when present.
	after := Tokens(rest[idx:])
	condition := ""
	if len(after) > 0 {
		condition = after[0]
	}

	return Attributes{ID: id, Name: name, Condition: condition, Manip: manip}, nil
}

// ExtractAll applies the extractor to every id, failing on the first
// malformed one.
func ExtractAll(ex Extractor, ids []string) ([]Attributes, error) {
	attrs := make([]Attributes, 0, len(ids))
	for _, id := range ids {
		a, err := ex.Extract(id)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

func stripExtension(token string) string {
	if i := strings.LastIndexByte(token, '.'); i > 0 {
		return token[:i]
	}
	return token
}
