package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/bnema/themesync/internal/domain/entity"
)

// GetPreferenceSchemaUseCase describes the stored record format as JSON Schema.
type GetPreferenceSchemaUseCase struct {
	reflector *jsonschema.Reflector
}

// NewGetPreferenceSchemaUseCase creates a new GetPreferenceSchemaUseCase.
func NewGetPreferenceSchemaUseCase() *GetPreferenceSchemaUseCase {
	return &GetPreferenceSchemaUseCase{
		reflector: &jsonschema.Reflector{
			RequiredFromJSONSchemaTags: false,
			DoNotReference:             true,
		},
	}
}

// GetPreferenceSchemaInput contains input parameters for schema retrieval.
type GetPreferenceSchemaInput struct {
	// Indent pretty-prints the document when set.
	Indent bool
}

// GetPreferenceSchemaOutput contains the schema and its encoded form.
type GetPreferenceSchemaOutput struct {
	Schema   *jsonschema.Schema
	Document []byte
}

// Execute reflects entity.Preference into a schema pinned to the current
// schema version.
func (uc *GetPreferenceSchemaUseCase) Execute(_ context.Context, input GetPreferenceSchemaInput) (*GetPreferenceSchemaOutput, error) {
	schema := uc.reflector.Reflect(&entity.Preference{})
	schema.ID = "https://github.com/bnema/themesync/preference.schema.json"
	schema.Title = "themesync preference record"
	schema.Description = "The single durable appearance record shared by every instance"
	schema.AdditionalProperties = jsonschema.FalseSchema

	if prop, ok := schema.Properties.Get("schema_version"); ok {
		prop.Const = entity.SchemaVersion
	}

	var (
		doc []byte
		err error
	)
	if input.Indent {
		doc, err = json.MarshalIndent(schema, "", "  ")
	} else {
		doc, err = json.Marshal(schema)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preference schema: %w", err)
	}

	return &GetPreferenceSchemaOutput{Schema: schema, Document: doc}, nil
}
