// Copyright 2025 Andrew Khoury
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// generate-docs generates documentation from config structs using reflection
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mysticatea/npm-run-all-sub000/internal/cli"
	"github.com/mysticatea/npm-run-all-sub000/internal/config"
)

// FieldDoc represents documentation for a single field
type FieldDoc struct {
	Name        string
	Type        string
	Default     string
	Description string
	ValidValues []string
}

// SectionDoc represents documentation for a config section
type SectionDoc struct {
	Name        string
	Description string
	Fields      []FieldDoc
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--help" {
		fmt.Println("Usage: generate-docs [output-dir]")
		fmt.Println("Generates documentation from config structs:")
		fmt.Println("  - run-all.example.toml")
		fmt.Println("  - run-all.schema.json")
		fmt.Println("  - docs/configuration.md")
		fmt.Println("  - docs/cli-reference.md")
		return
	}

	outDir := "."
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}

	docs := buildDocumentation()

	steps := []struct {
		file string
		gen  func() (string, error)
	}{
		{"run-all.example.toml", func() (string, error) { return generateExampleTOML(docs), nil }},
		{"run-all.schema.json", func() (string, error) { return generateJSONSchema(docs) }},
		{"docs/configuration.md", func() (string, error) { return generateMarkdownDocs(docs), nil }},
		{"docs/cli-reference.md", func() (string, error) { return generateCLIDocs(), nil }},
	}
	for _, step := range steps {
		if err := writeOutput(outDir, step.file, step.gen); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", step.file, err)
			os.Exit(1)
		}
		fmt.Printf("✓ Generated %s\n", step.file)
	}
}

func writeOutput(outDir, file string, gen func() (string, error)) error {
	content, err := gen()
	if err != nil {
		return err
	}
	path := filepath.Join(outDir, file)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func buildDocumentation() []SectionDoc {
	defaults := config.GetDefaults()

	return []SectionDoc{
		extractSection("defaults", "Defaults for command-line options. Options given on the command line win.", defaults.Defaults),
	}
}

// extractSection uses reflection to extract field documentation from struct tags
func extractSection(name, description string, value interface{}) SectionDoc {
	section := SectionDoc{
		Name:        name,
		Description: description,
		Fields:      []FieldDoc{},
	}

	t := reflect.TypeOf(value)
	v := reflect.ValueOf(value)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		// Skip unexported fields
		if !field.IsExported() {
			continue
		}

		docTag := field.Tag.Get("doc")
		tomlTag := field.Tag.Get("toml")
		if docTag == "" || tomlTag == "" {
			continue
		}

		fieldDoc := FieldDoc{
			Name:        tomlTag,
			Type:        getFieldType(field.Type),
			Description: docTag,
			Default:     getDefaultValue(v.Field(i)),
		}

		if enumTag := field.Tag.Get("enum"); enumTag != "" {
			fieldDoc.ValidValues = strings.Split(enumTag, ",")
		}

		section.Fields = append(section.Fields, fieldDoc)
	}

	return section
}

// getFieldType returns a string representation of the field type
func getFieldType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Bool:
		return "bool"
	case reflect.Ptr:
		return getFieldType(t.Elem())
	default:
		return t.String()
	}
}

// getDefaultValue returns a string representation of the default value
func getDefaultValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Bool:
		if v.Bool() {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func generateExampleTOML(docs []SectionDoc) string {
	var sb strings.Builder

	sb.WriteString(`# =============================================================================
# run-all Configuration Reference
# =============================================================================
# Place this file next to package.json as run-all.toml, or pass --config FILE.
# Every key is optional. Command-line options override these values.
# =============================================================================

`)

	for _, section := range docs {
		sb.WriteString("# -----------------------------------------------------------------------------\n")
		sb.WriteString(fmt.Sprintf("# [%s] - %s\n", section.Name, section.Description))
		sb.WriteString("# -----------------------------------------------------------------------------\n\n")
		sb.WriteString(fmt.Sprintf("[%s]\n", section.Name))

		for _, field := range section.Fields {
			sb.WriteString(fmt.Sprintf("# %s\n", field.Description))
			sb.WriteString(fmt.Sprintf("# Default: %s\n", field.Default))
			if len(field.ValidValues) > 0 {
				sb.WriteString(fmt.Sprintf("# Valid values: %s\n", strings.Join(field.ValidValues, ", ")))
			}

			value := field.Default
			if field.Type == "string" && value != "" {
				value = fmt.Sprintf(`"%s"`, value)
			}
			if value == "" {
				sb.WriteString(fmt.Sprintf("# %s = \n", field.Name))
			} else {
				sb.WriteString(fmt.Sprintf("%s = %s\n", field.Name, value))
			}
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
	}

	sb.WriteString(`# -----------------------------------------------------------------------------
# [packageConfig.<package>] - Package config overrides
# -----------------------------------------------------------------------------
# Each key is passed to the script runner as --<package>:<key>=<value>,
# the same as giving it on the command line.

[packageConfig.my-package]
port = "8080"
`)

	return sb.String()
}

func generateJSONSchema(docs []SectionDoc) (string, error) {
	properties := map[string]interface{}{}
	schema := map[string]interface{}{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                "run-all Configuration",
		"description":          "Configuration schema for run-all.toml",
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
	}

	for _, section := range docs {
		sectionFields := map[string]interface{}{}

		for _, field := range section.Fields {
			fieldSchema := map[string]interface{}{
				"description": field.Description,
			}

			switch field.Type {
			case "string":
				fieldSchema["type"] = "string"
				if field.Default != "" {
					fieldSchema["default"] = field.Default
				}
			case "int":
				fieldSchema["type"] = "integer"
				fieldSchema["minimum"] = 0
				var intVal int
				_, _ = fmt.Sscanf(field.Default, "%d", &intVal) // Best effort parsing
				fieldSchema["default"] = intVal
			case "bool":
				fieldSchema["type"] = "boolean"
				fieldSchema["default"] = field.Default == "true"
			}

			if len(field.ValidValues) > 0 {
				fieldSchema["enum"] = field.ValidValues
			}

			sectionFields[field.Name] = fieldSchema
		}

		properties[section.Name] = map[string]interface{}{
			"type":                 "object",
			"description":          section.Description,
			"additionalProperties": false,
			"properties":           sectionFields,
		}
	}

	properties["packageConfig"] = map[string]interface{}{
		"type":        "object",
		"description": "Package config overrides, passed as --<package>:<key>=<value>",
		"additionalProperties": map[string]interface{}{
			"type":                 "object",
			"additionalProperties": map[string]interface{}{"type": "string"},
		},
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func generateMarkdownDocs(docs []SectionDoc) string {
	var sb strings.Builder

	sb.WriteString("# Configuration\n\n")
	sb.WriteString("run-all reads `run-all.toml` from the working directory when it exists, or the file given with `--config`.\n")
	sb.WriteString("Unknown keys are rejected. Options given on the command line override the file.\n\n")

	for _, section := range docs {
		sb.WriteString("### `[" + section.Name + "]`\n\n")
		sb.WriteString(section.Description + "\n\n")

		sb.WriteString("| Field | Type | Default | Description |\n")
		sb.WriteString("|-------|------|---------|-------------|\n")

		for _, field := range section.Fields {
			defaultVal := field.Default
			if defaultVal == "" {
				defaultVal = "-"
			}
			desc := field.Description
			if len(field.ValidValues) > 0 {
				desc += fmt.Sprintf(" (valid: `%s`)", strings.Join(field.ValidValues, "`, `"))
			}
			sb.WriteString(fmt.Sprintf("| `%s` | %s | `%s` | %s |\n",
				field.Name, field.Type, defaultVal, desc))
		}

		sb.WriteString("\n")
	}

	sb.WriteString("### `[packageConfig.<package>]`\n\n")
	sb.WriteString("String values passed to the script runner as `--<package>:<key>=<value>`.\n")
	sb.WriteString("Values given on the command line replace values from the file.\n")

	return sb.String()
}

func generateCLIDocs() string {
	var sb strings.Builder

	sb.WriteString("# CLI Reference\n\n")
	for _, command := range []string{cli.CommandRunAll, cli.CommandRunP, cli.CommandRunS} {
		sb.WriteString(fmt.Sprintf("## `%s`\n\n", command))
		sb.WriteString("```\n")
		sb.WriteString(cli.FlagUsages(command))
		sb.WriteString("```\n\n")
	}

	sb.WriteString("## Exit codes\n\n")
	sb.WriteString("| Code | Meaning |\n")
	sb.WriteString("|------|---------|\n")
	sb.WriteString("| `0` | All tasks succeeded |\n")
	sb.WriteString("| `1` | A task failed, a task was not found, or the run was interrupted |\n")
	sb.WriteString("| `2` | Invalid options or config file |\n")
	sb.WriteString("| `3` | No usable package.json |\n")

	return sb.String()
}
