package ai

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/thomas-vilte/triagemate/internal/models"
)

// VerdictSchemaName is the schema name sent to providers with structured output.
const VerdictSchemaName = "triage_verdict"

// GenerateSchema reflects T into an inline JSON schema that forbids extra properties.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var verdictSchema = GenerateSchema[models.Verdict]()

// VerdictSchema returns the JSON schema of the five-field verdict.
func VerdictSchema() *jsonschema.Schema {
	return verdictSchema
}

// VerdictSchemaJSON returns the verdict schema serialized for embedding in prompts.
func VerdictSchemaJSON() string {
	b, err := json.MarshalIndent(verdictSchema, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
