package validation

import (
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names a request body shape.
type Schema string

const (
	SchemaSubmitCase Schema = "submit_case"
	SchemaVote       Schema = "vote"
	SchemaDonation   Schema = "donation"
	SchemaRelease    Schema = "release"
	SchemaVerifier   Schema = "verifier"
)

// Error lists every schema violation found in a payload.
type Error struct {
	Schema Schema
	Issues []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("payload failed %s validation: %s", e.Schema, strings.Join(e.Issues, "; "))
}

// Validator holds the compiled request schemas.
type Validator struct {
	schemas map[Schema]*gojsonschema.Schema
	logger  *slog.Logger
}

func NewValidator(logger *slog.Logger) (*Validator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Validator{schemas: map[Schema]*gojsonschema.Schema{}, logger: logger.With("module", "validation")}
	for _, name := range []Schema{SchemaSubmitCase, SchemaVote, SchemaDonation, SchemaRelease, SchemaVerifier} {
		raw, err := schemaFS.ReadFile("schemas/" + string(name) + ".json")
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = s
	}
	return v, nil
}

// Validate checks payload against the named schema.
func (v *Validator) Validate(name Schema, payload []byte) error {
	s, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		v.auditValidationError(name, "malformed JSON")
		return &Error{Schema: name, Issues: []string{"invalid JSON: " + err.Error()}}
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, e.String())
	}
	v.auditValidationError(name, strings.Join(issues, "; "))
	return &Error{Schema: name, Issues: issues}
}
