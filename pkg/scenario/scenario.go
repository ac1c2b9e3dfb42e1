// Package scenario runs scripted operation sequences against a red-black tree
// and verifies the tree after every single operation.
package scenario

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Op names a tree operation.
type Op string

// Supported operations.
const (
	OpInsert Op = "insert"
	OpDelete Op = "delete"
	OpSearch Op = "search"
	OpClear  Op = "clear"
)

// ErrInvalidScenario is returned when a document does not describe a runnable scenario.
var ErrInvalidScenario = errors.New("invalid scenario")

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Scenario is a named sequence of steps.
type Scenario struct {
	Name        string `yaml:"name"                  json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Seed        int64  `yaml:"seed,omitempty"        json:"seed,omitempty"`
	Steps       []Step `yaml:"steps"                 json:"steps"`
}

// Step applies Op to every key in order, then checks the optional expectations.
type Step struct {
	Op   Op      `yaml:"op"             json:"op"`
	Keys []int64 `yaml:"keys,omitempty" json:"keys,omitempty"`
	// Shuffle applies the keys in an order drawn from the scenario seed.
	Shuffle bool `yaml:"shuffle,omitempty" json:"shuffle,omitempty"`
	// Expect is the result every delete or search of the step must report.
	Expect   *bool    `yaml:"expect,omitempty"   json:"expect,omitempty"`
	Root     *int64   `yaml:"root,omitempty"     json:"root,omitempty"`
	Empty    *bool    `yaml:"empty,omitempty"    json:"empty,omitempty"`
	Contents []int64  `yaml:"contents,omitempty" json:"contents,omitempty"`
	Dump     []string `yaml:"dump,omitempty"     json:"dump,omitempty"`
}

// Load reads a YAML or JSON scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return sc, nil
}

// Parse decodes and validates a YAML or JSON scenario document.
func Parse(data []byte) (*Scenario, error) {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	err = validateDocument(doc)
	if err != nil {
		return nil, err
	}

	var sc Scenario

	err = yaml.Unmarshal(data, &sc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	err = sc.Validate()
	if err != nil {
		return nil, err
	}

	return &sc, nil
}

// Validate checks the rules the schema cannot express.
func (sc *Scenario) Validate() error {
	var problems []string

	if sc.Name == "" {
		problems = append(problems, "name is empty")
	}

	if len(sc.Steps) == 0 {
		problems = append(problems, "no steps")
	}

	for idx, step := range sc.Steps {
		switch step.Op {
		case OpInsert, OpDelete, OpSearch:
			if len(step.Keys) == 0 {
				problems = append(problems, fmt.Sprintf("steps.%d: %s needs keys", idx, step.Op))
			}
		case OpClear:
			if len(step.Keys) > 0 {
				problems = append(problems, fmt.Sprintf("steps.%d: clear takes no keys", idx))
			}
		default:
			problems = append(problems, fmt.Sprintf("steps.%d: unknown op %q", idx, step.Op))
		}

		if step.Expect != nil && step.Op != OpDelete && step.Op != OpSearch {
			problems = append(problems, fmt.Sprintf("steps.%d: expect applies to delete and search only", idx))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidScenario, strings.Join(problems, "; "))
	}

	return nil
}

func validateDocument(doc any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidScenario, err)
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}

	return fmt.Errorf("%w: %s", ErrInvalidScenario, strings.Join(problems, "; "))
}
