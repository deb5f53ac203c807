package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a filter conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is the YAML or CUE metadata catalog. Relative paths are
	// resolved against the scenario file.
	Catalog string `yaml:"catalog"`

	// RootType is the entity type var paths start from.
	RootType string `yaml:"root_type"`

	// EntityAlias overrides the query-text alias.
	EntityAlias string `yaml:"entity_alias,omitempty"`

	// Aliases map var names to property paths.
	Aliases map[string]string `yaml:"aliases,omitempty"`

	// Records are evaluated with each compiled predicate.
	Records []map[string]any `yaml:"records,omitempty"`

	// Cases are compiled in order.
	Cases []Case `yaml:"cases"`
}

// Case is one compile with its expectations.
type Case struct {
	Name string `yaml:"name"`

	// Filter is a JsonLogic document, as a YAML mapping or a JSON string.
	// Exactly one of Filter and QuickSearch is set.
	Filter any `yaml:"filter,omitempty"`

	// QuickSearch builds a free-text search instead of a filter.
	QuickSearch *QuickSearch `yaml:"quicksearch,omitempty"`

	Expect Expect `yaml:"expect"`
}

// QuickSearch is the input of a quick-search case.
type QuickSearch struct {
	Text  string   `yaml:"text"`
	Paths []string `yaml:"paths"`
}

// Expect lists what a case must produce. Empty fields are not checked.
type Expect struct {
	// Tree is the queryir.Format rendering of the compiled tree.
	Tree string `yaml:"tree,omitempty"`

	// Query is the query text.
	Query string `yaml:"query,omitempty"`

	// Params are the parameter values rendered as SQL literals, in
	// placeholder order.
	Params []string `yaml:"params,omitempty"`

	// Inline is the query text with literals substituted.
	Inline string `yaml:"inline,omitempty"`

	// Matches are the indices of the records the predicate accepts.
	Matches []int `yaml:"matches,omitempty"`

	// Error is the expected error code, e.g. TYPE_MISMATCH.
	Error string `yaml:"error,omitempty"`

	// Warnings is the expected number of fallback warnings.
	Warnings *int `yaml:"warnings,omitempty"`
}

// FilterJSON returns the case filter as JSON bytes. A nil filter is an
// empty document.
func (c Case) FilterJSON() ([]byte, error) {
	switch f := c.Filter.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(f), nil
	default:
		data, err := json.Marshal(f)
		if err != nil {
			return nil, fmt.Errorf("case %q: filter is not JSON-compatible: %w", c.Name, err)
		}
		return data, nil
	}
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected and the catalog path is made relative to the
// scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}
	if _, err := os.Stat(scenario.Catalog); err != nil {
		return nil, fmt.Errorf("invalid scenario: catalog: %w", err)
	}
	return scenario, nil
}

// ParseScenario parses and validates a scenario document. The catalog path
// is left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if s.RootType == "" {
		return fmt.Errorf("root_type is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
		}
		names[c.Name] = true

		if c.QuickSearch != nil && c.Filter != nil {
			return fmt.Errorf("cases[%d]: filter and quicksearch are mutually exclusive", i)
		}
		for _, m := range c.Expect.Matches {
			if m < 0 || m >= len(s.Records) {
				return fmt.Errorf("cases[%d]: match index %d out of range for %d record(s)", i, m, len(s.Records))
			}
		}
	}
	return nil
}
