package interactive

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchema_DeclarationOrderPreserved(t *testing.T) {
	raw := json.RawMessage(`{
		"type": "object",
		"properties": {
			"zebra": {"type": "string"},
			"alpha": {"type": "integer"},
			"mango": {"type": "boolean"}
		},
		"required": ["alpha"]
	}`)

	schema, err := ParseSchema(raw)
	require.NoError(t, err)
	require.Len(t, schema.Properties, 3)

	assert.Equal(t, "zebra", schema.Properties[0].Name)
	assert.Equal(t, "alpha", schema.Properties[1].Name)
	assert.Equal(t, "mango", schema.Properties[2].Name)

	assert.False(t, schema.Properties[0].Required)
	assert.True(t, schema.Properties[1].Required)
	assert.False(t, schema.Properties[2].Required)
}

func TestParseSchema_TypesAndDescriptions(t *testing.T) {
	raw := json.RawMessage(`{
		"properties": {
			"city": {"type": "string", "description": "City name"},
			"days": {"type": "integer"},
			"tags": {"type": "array"}
		}
	}`)

	schema, err := ParseSchema(raw)
	require.NoError(t, err)
	require.Len(t, schema.Properties, 3)

	assert.Equal(t, "string", schema.Properties[0].Type)
	assert.Equal(t, "City name", schema.Properties[0].Description)
	assert.Equal(t, "integer", schema.Properties[1].Type)
	assert.Equal(t, "array", schema.Properties[2].Type)
}

func TestParseSchema_MissingTypeDefaultsToString(t *testing.T) {
	raw := json.RawMessage(`{"properties": {"name": {"description": "no type given"}}}`)

	schema, err := ParseSchema(raw)
	require.NoError(t, err)
	require.Len(t, schema.Properties, 1)
	assert.Equal(t, "string", schema.Properties[0].Type)
}

func TestParseSchema_EmptyVariants(t *testing.T) {
	for _, raw := range []json.RawMessage{
		nil,
		json.RawMessage(`null`),
		json.RawMessage(`{}`),
		json.RawMessage(`{"type": "object"}`),
		json.RawMessage(`{"properties": null}`),
		json.RawMessage(`{"properties": {}}`),
	} {
		schema, err := ParseSchema(raw)
		require.NoError(t, err, "input: %s", raw)
		assert.Empty(t, schema.Properties, "input: %s", raw)
	}
}

func TestParseSchema_Malformed(t *testing.T) {
	_, err := ParseSchema(json.RawMessage(`{"properties": "not an object"}`))
	assert.Error(t, err)

	_, err = ParseSchema(json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestPropertyLabel(t *testing.T) {
	tests := []struct {
		name string
		prop Property
		want string
	}{
		{
			name: "required with description",
			prop: Property{Name: "city", Type: "string", Description: "City name", Required: true},
			want: "city (string) - City name [required]",
		},
		{
			name: "optional without description",
			prop: Property{Name: "days", Type: "integer"},
			want: "days (integer) [optional]",
		},
		{
			name: "composite gets JSON hint",
			prop: Property{Name: "tags", Type: "array", Required: true},
			want: "tags (array) [required] (enter JSON value)",
		},
		{
			name: "object gets JSON hint",
			prop: Property{Name: "filters", Type: "object"},
			want: "filters (object) [optional] (enter JSON value)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.prop.Label())
		})
	}
}
