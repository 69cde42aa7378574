package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/synthkit/internal/ir"
)

// marshalRemoved converts removed state names to canonical JSON TEXT.
// A nil slice is stored as [].
func marshalRemoved(states []string) (string, error) {
	if states == nil {
		states = []string{}
	}
	data, err := ir.MarshalCanonical(states)
	if err != nil {
		return "", fmt.Errorf("marshal removed states: %w", err)
	}
	return string(data), nil
}

// marshalResult converts a canonical result to JSON TEXT.
// A nil result (failed dispatch) is stored as the empty string.
func marshalResult(result ir.Object) (string, error) {
	if result == nil {
		return "", nil
	}
	data, err := ir.MarshalCanonical(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}

func unmarshalRemoved(data string) ([]string, error) {
	if data == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal removed states: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// unmarshalResult parses canonical JSON TEXT to an Object.
// Uses ir.Object.UnmarshalJSON, which keeps large integers exact.
func unmarshalResult(data string) (ir.Object, error) {
	if data == "" {
		return nil, nil
	}
	var obj ir.Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return obj, nil
}
