// Package results holds the search result data model, the store of the most
// recently accepted result set, and the row renderer for the display template.
package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SearchResult is a single entry produced by the external search command.
// Fields other than identifier, title and confidence are kept in Extra and
// exposed to the display template under their own names.
type SearchResult struct {
	Identifier string
	Title      string
	Confidence float64
	Extra      map[string]any
}

// Built-in result keys. Extras with these names never override them.
const (
	KeyIdentifier = "identifier"
	KeyTitle      = "title"
	KeyConfidence = "confidence"
)

// UnmarshalJSON decodes a result object, requiring identifier, title and
// confidence and collecting every other key into Extra.
func (r *SearchResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errors.New("result entry is null")
	}

	if err := decodeRequired(raw, KeyIdentifier, &r.Identifier); err != nil {
		return err
	}
	if err := decodeRequired(raw, KeyTitle, &r.Title); err != nil {
		return err
	}
	if err := decodeRequired(raw, KeyConfidence, &r.Confidence); err != nil {
		return err
	}

	r.Extra = nil
	for key, value := range raw {
		if key == KeyIdentifier || key == KeyTitle || key == KeyConfidence {
			continue
		}
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[key] = v
	}
	return nil
}

func decodeRequired(raw map[string]json.RawMessage, key string, dst any) error {
	value, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return fmt.Errorf("missing required field %q", key)
	}
	if err := json.Unmarshal(value, dst); err != nil {
		return fmt.Errorf("field %q: %w", key, err)
	}
	return nil
}

type response struct {
	Results *[]SearchResult `json:"results"`
}

// Parse decodes the command output `{"results": [...]}`. Order is preserved
// exactly as received.
func Parse(data []byte) ([]SearchResult, error) {
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("invalid result JSON: %w", err)
	}
	if resp.Results == nil {
		return nil, errors.New(`invalid result JSON: missing "results" array`)
	}
	return *resp.Results, nil
}

// Token identifies one debounced query attempt. Tokens increase
// monotonically; an outcome is applied only when its token is the latest.
type Token uint64

// OutcomeKind classifies a query execution.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	Failed
	TimedOut
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Outcome is the result of one query execution.
type Outcome struct {
	Kind    OutcomeKind
	Results []SearchResult
	Err     error
	Elapsed time.Duration
}
