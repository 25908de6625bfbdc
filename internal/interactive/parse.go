package interactive

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// valueParser turns raw operator input into a typed argument value.
type valueParser func(raw string) (any, error)

// valueParsers is the closed dispatch over the declared schema types the
// prompter understands. Types not listed here (including "string") fall
// through to the verbatim-string case.
var valueParsers = map[string]valueParser{
	"integer": parseIntegerValue,
	"number":  parseNumberValue,
	"boolean": parseBooleanValue,
	"array":   jsonLiteralParser("array"),
	"object":  jsonLiteralParser("object"),
}

// parseValue parses raw input according to the declared property type.
// Unknown types are passed through as opaque strings.
func parseValue(propType, raw string) (any, error) {
	if parse, ok := valueParsers[propType]; ok {
		return parse(raw)
	}
	return raw, nil
}

func parseIntegerValue(raw string) (any, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("please enter a base-10 integer")
	}
	return n, nil
}

func parseNumberValue(raw string) (any, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("please enter a number")
	}
	return f, nil
}

// parseBooleanValue accepts the usual truthy and falsy spellings,
// case-insensitively. Anything else is rejected with an explicit hint.
func parseBooleanValue(raw string) (any, error) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	default:
		return nil, fmt.Errorf("please enter true/false")
	}
}

// jsonLiteralParser returns a parser that expects a JSON literal for the
// given composite type. The underlying decode error is surfaced so the
// operator sees why the input was rejected.
func jsonLiteralParser(propType string) valueParser {
	return func(raw string) (any, error) {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("please enter valid JSON for %s: %v", propType, err)
		}
		return v, nil
	}
}
