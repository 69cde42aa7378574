package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseProblemYAML decodes a YAML (or JSON) problem document.
// Unknown fields are rejected so typos in section names surface as errors
// instead of silently dropped formulas.
func ParseProblemYAML(data []byte) (*Problem, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Problem
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse problem: empty document")
		}
		return nil, fmt.Errorf("parse problem: %w", err)
	}
	return &p, nil
}
