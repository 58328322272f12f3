// Package script loads evolution scripts from YAML files.
//
// A script is the domain expert's batch input: a named sequence of change
// descriptors, optionally paired with resolutions for steps the expert
// already knows will come out ambiguous.
package script

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/metamorph-dev/metamorph/internal/meta"
)

// Script defines one evolution batch.
type Script struct {
	// Name uniquely identifies this script.
	Name string `yaml:"name"`

	// Description explains what this evolution accomplishes.
	Description string `yaml:"description,omitempty"`

	// Schema is an optional path to the CUE schema directory the script
	// evolves. Relative to the script file location; resolved by the CLI.
	Schema string `yaml:"schema,omitempty"`

	// Steps contains the change descriptors, in application order.
	Steps []Step `yaml:"steps"`

	// Resolutions pre-answers ambiguities by step number. Applied after
	// interpretation, before the batch apply.
	Resolutions []Resolution `yaml:"resolutions,omitempty"`
}

// Step is one change descriptor in YAML form.
type Step struct {
	// Change is the change type: add, remove or modify.
	Change string `yaml:"change"`

	// Element is the element kind: class, attribute or reference.
	Element string `yaml:"element"`

	// With contains the loosely specified details of the change.
	With map[string]any `yaml:"with,omitempty"`
}

// Resolution supplies resolution data for an ambiguous step.
type Resolution struct {
	// Step is the 1-based index of the step this resolution answers.
	Step int `yaml:"step"`

	// With contains the resolution data, using the same detail keys as
	// the step's With map.
	With map[string]any `yaml:"with"`
}

// Descriptor converts a step to the interpreter's input form.
func (s Step) Descriptor() meta.ChangeDescriptor {
	return meta.ChangeDescriptor{
		Change:  meta.ChangeType(s.Change),
		Element: meta.ElementKind(s.Element),
		Details: s.With,
	}
}

// Load reads and parses a script YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	return Parse(data)
}

// Parse parses script YAML with strict field validation (catches typos
// like "resolution:" vs "resolutions:").
func Parse(data []byte) (*Script, error) {
	var s Script
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScript(&s); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &s, nil
}

// validateScript checks structural requirements. Change and element
// values are validated against the known kinds here, in the same spirit
// as KnownFields: a typo'd kind is a load error, not an operation that
// sits permanently stuck in the ambiguity set.
func validateScript(s *Script) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}

	for i, step := range s.Steps {
		if step.Change == "" {
			return fmt.Errorf("step %d: change is required", i+1)
		}
		if err := meta.ValidateChangeType(meta.ChangeType(step.Change)); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.Element == "" {
			return fmt.Errorf("step %d: element is required", i+1)
		}
		if err := meta.ValidateElementKind(meta.ElementKind(step.Element)); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	seen := make(map[int]bool, len(s.Resolutions))
	for i, r := range s.Resolutions {
		if r.Step < 1 || r.Step > len(s.Steps) {
			return fmt.Errorf("resolution %d: step %d is out of range (script has %d steps)", i+1, r.Step, len(s.Steps))
		}
		if seen[r.Step] {
			return fmt.Errorf("resolution %d: step %d already has a resolution", i+1, r.Step)
		}
		seen[r.Step] = true
		if len(r.With) == 0 {
			return fmt.Errorf("resolution %d: with is required", i+1)
		}
	}
	return nil
}
