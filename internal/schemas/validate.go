// Package schemas validates structured responses from the external text-understanding
// service against embedded JSON Schemas before they are decoded into pipeline types.
package schemas

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names
const (
	RequirementSet     = "requirement_set"
	CandidateProfile   = "candidate_profile"
	SkillMatch         = "skill_match"
	RoleAssessment     = "role_assessment"
	Ranking            = "ranking"
	DedupDecision      = "dedup_decision"
	InterviewQuestions = "interview_questions"
)

//go:embed *.schema.json
var schemaFiles embed.FS

// compiled holds every embedded schema, compiled once at init and read-only afterward
var compiled = mustCompile(schemaFiles)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	if ve.Schema != "" {
		sb.WriteString(fmt.Sprintf("%s validation failed:", ve.Schema))
	} else {
		sb.WriteString("validation failed:")
	}
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf(" %d. %s: %s;", i+1, err.Field, err.Message))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func mustCompile(fsys fs.FS) map[string]*gojsonschema.Schema {
	out, err := Compile(fsys)
	if err != nil {
		panic(err)
	}
	return out
}

// Compile compiles every *.schema.json file in fsys, keyed by name without the suffix
func Compile(fsys fs.FS) (map[string]*gojsonschema.Schema, error) {
	names, err := fs.Glob(fsys, "*.schema.json")
	if err != nil {
		return nil, &SchemaLoadError{Path: "*.schema.json", Message: "glob failed", Cause: err}
	}

	out := make(map[string]*gojsonschema.Schema, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, &SchemaLoadError{Path: name, Message: "read failed", Cause: err}
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, &SchemaLoadError{Path: name, Message: "invalid schema", Cause: err}
		}
		out[strings.TrimSuffix(name, ".schema.json")] = schema
	}
	return out, nil
}

// Names returns the embedded schema names, sorted
func Names() []string {
	names := make([]string, 0, len(compiled))
	for name := range compiled {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate validates JSON content against the named embedded schema
func Validate(name, jsonContent string) error {
	schema, ok := compiled[name]
	if !ok {
		return &SchemaLoadError{Path: name, Message: "unknown schema"}
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(jsonContent))
	if err != nil {
		// The document itself could not be parsed as JSON
		return &ValidationError{Schema: name, Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	return toValidationError(name, result)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaContent),
		gojsonschema.NewStringLoader(jsonContent),
	)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}
	return toValidationError("", result)
}

func toValidationError(name string, result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Schema: name,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
