package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cworthy-ocean/cstarorc/internal/filelock"
)

// NewTemplateCommand builds the "template generate" command, grounded on
// original_source/cli/template/create.py's model_json_schema()
// call: no struct-to-JSON-Schema reflector is wired in, so the schema
// descriptor is hand-written rather than generated, a documented
// stdlib boundary (see DESIGN.md).
func NewTemplateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Generate starter workplan and blueprint documents",
	}
	cmd.AddCommand(newTemplateGenerateCommand())
	return cmd
}

const workplanTemplate = `name: example-workplan
description: a starter workplan generated by cstarorc
steps:
  - name: spinup
    application: sleep
    blueprint: spinup-blueprint.yaml
  - name: forecast
    application: sleep
    blueprint: forecast-blueprint.yaml
    depends_on:
      - spinup
`

const workplanSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Workplan",
  "type": "object",
  "required": ["name", "description", "steps"],
  "properties": {
    "name": {"type": "string"},
    "description": {"type": "string"},
    "state": {"type": "string", "enum": ["Draft", "Validated"]},
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "application", "blueprint"],
        "properties": {
          "name": {"type": "string"},
          "application": {"type": "string"},
          "blueprint": {"type": "string"},
          "depends_on": {"type": "array", "items": {"type": "string"}},
          "blueprint_overrides": {"type": "object"},
          "compute_overrides": {"type": "object"},
          "workflow_overrides": {"type": "object"}
        }
      }
    },
    "compute_environment": {"type": "object"},
    "runtime_vars": {"type": "array", "items": {"type": "string"}}
  }
}
`

const blueprintTemplate = `application: sleep
cpus_needed: 1
runtime_params:
  start_date: "2012-01-01 00:00:00"
  end_date: "2012-02-01 00:00:00"
  output_dir: output
  initial_conditions:
    location: ""
`

const blueprintSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Blueprint",
  "type": "object",
  "required": ["application", "runtime_params"],
  "properties": {
    "application": {"type": "string"},
    "cpus_needed": {"type": "integer", "minimum": 0},
    "runtime_params": {
      "type": "object",
      "required": ["start_date", "end_date", "output_dir"],
      "properties": {
        "start_date": {"type": "string"},
        "end_date": {"type": "string"},
        "output_dir": {"type": "string"},
        "initial_conditions": {
          "type": "object",
          "properties": {"location": {"type": "string"}}
        }
      }
    }
  }
}
`

func newTemplateGenerateCommand() *cobra.Command {
	var templateType string

	c := &cobra.Command{
		Use:   "generate [out]",
		Short: "Write a starter document and JSON Schema next to it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc, schema, defaultOut string
			switch templateType {
			case "workplan":
				doc, schema, defaultOut = workplanTemplate, workplanSchema, "workplan.yaml"
			case "blueprint":
				doc, schema, defaultOut = blueprintTemplate, blueprintSchema, "blueprint.yaml"
			default:
				return fmt.Errorf("template generate: --template-type must be %q or %q, got %q", "workplan", "blueprint", templateType)
			}

			out := defaultOut
			if len(args) == 1 {
				out = args[0]
			}
			schemaPath := strings.TrimSuffix(out, ".yaml") + ".schema.json"

			if err := filelock.AtomicWrite(out, []byte(doc)); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			if err := filelock.AtomicWrite(schemaPath, []byte(schema)); err != nil {
				return fmt.Errorf("write schema: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s and %s\n", out, schemaPath)
			return nil
		},
	}

	c.Flags().StringVar(&templateType, "template-type", "workplan", "document type to generate: workplan or blueprint")
	return c
}
