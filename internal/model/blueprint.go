package model

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Blueprint is opaque to the core beyond the handful of attributes it
// reads for time-splitting and resource sizing. Content
// validation of the rest of the document is out of scope and left to the
// simulation tooling that owns the blueprint format.
type Blueprint struct {
	Application   string        `yaml:"application"`
	CPUsNeeded    int           `yaml:"cpus_needed,omitempty"`
	RuntimeParams RuntimeParams `yaml:"runtime_params"`
}

// RuntimeParams holds the fields the time-splitter and override transform
// touch. Unknown fields in the real document are preserved by round-
// tripping through the raw YAML node in the override transform rather than
// through this struct.
type RuntimeParams struct {
	StartDate         Timestamp         `yaml:"start_date"`
	EndDate           Timestamp         `yaml:"end_date"`
	OutputDir         string            `yaml:"output_dir"`
	InitialConditions InitialConditions `yaml:"initial_conditions"`
}

type InitialConditions struct {
	Location string `yaml:"location"`
}

// timestampLayouts are tried in order; the blueprint format favors a plain
// "YYYY-MM-DD HH:MM:SS" second-precision timestamp (no zone), matching
// cstar/orchestration/models.py's pydantic datetime fields.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// Timestamp is an absolute, second-precision timestamp.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("timestamp: unrecognized format %q: %w", s, lastErr)
}

func (t Timestamp) MarshalYAML() (any, error) {
	return t.Format("2006-01-02 15:04:05"), nil
}
