// Package interactive implements the operator-facing control flow: tool
// selection, schema-driven argument prompting, result rendering, and the
// interactive loop.
package interactive

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Property is one declared argument of a tool.
type Property struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Schema is the argument schema of a tool: its properties in the order the
// server declared them, with the required set folded in.
type Schema struct {
	Properties []Property
}

// propertyDef is the wire shape of a single property definition. Only the
// type discrimination the prompter needs is modeled; anything else in the
// schema is ignored.
type propertyDef struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ParseSchema extracts the prompting-relevant parts of a tool's inputSchema.
// A missing, null, or property-less schema parses to an empty Schema.
// Property order follows the JSON declaration order, matching how the server
// authored the schema.
func ParseSchema(raw json.RawMessage) (Schema, error) {
	var schema Schema
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return schema, nil
	}

	var doc struct {
		Properties json.RawMessage `json:"properties"`
		Required   []string        `json:"required"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return schema, fmt.Errorf("parse input schema: %w", err)
	}
	if len(doc.Properties) == 0 || bytes.Equal(bytes.TrimSpace(doc.Properties), []byte("null")) {
		return schema, nil
	}

	required := make(map[string]bool, len(doc.Required))
	for _, name := range doc.Required {
		required[name] = true
	}

	// A plain map would lose declaration order, so walk the properties
	// object token by token.
	dec := json.NewDecoder(bytes.NewReader(doc.Properties))
	tok, err := dec.Token()
	if err != nil {
		return schema, fmt.Errorf("parse schema properties: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return schema, fmt.Errorf("schema properties is not an object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return schema, fmt.Errorf("parse schema properties: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return schema, fmt.Errorf("unexpected token %v in schema properties", keyTok)
		}

		var def propertyDef
		if err := dec.Decode(&def); err != nil {
			return schema, fmt.Errorf("parse schema property %q: %w", name, err)
		}
		if def.Type == "" {
			def.Type = "string"
		}

		schema.Properties = append(schema.Properties, Property{
			Name:        name,
			Type:        def.Type,
			Description: def.Description,
			Required:    required[name],
		})
	}

	return schema, nil
}

// Label renders the human-readable prompt label for a property.
func (p Property) Label() string {
	label := fmt.Sprintf("%s (%s)", p.Name, p.Type)
	if p.Description != "" {
		label += " - " + p.Description
	}
	if p.Required {
		label += " [required]"
	} else {
		label += " [optional]"
	}
	if p.Type == "array" || p.Type == "object" {
		label += " (enter JSON value)"
	}
	return label
}
