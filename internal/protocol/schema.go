package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const reorderSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "protocol_version", "sync_id", "slot_mappings"],
  "properties": {
    "type": {"const": "REORDER"},
    "protocol_version": {"type": "string"},
    "sync_id": {"type": "integer", "minimum": 0},
    "slot_mappings": {
      "type": "array",
      "items": {"type": "integer", "minimum": -2147483648, "maximum": 2147483647}
    }
  }
}`

const clickSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "protocol_version", "sync_id", "slot", "button", "action"],
  "properties": {
    "type": {"const": "CLICK"},
    "protocol_version": {"type": "string"},
    "sync_id": {"type": "integer", "minimum": 0},
    "slot": {"type": "integer"},
    "button": {"type": "integer", "minimum": 0, "maximum": 8},
    "action": {"type": "string", "minLength": 1}
  }
}`

const openSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type", "protocol_version", "container"],
  "properties": {
    "type": {"const": "OPEN"},
    "protocol_version": {"type": "string"},
    "container": {"type": "string", "minLength": 1, "maxLength": 64}
  }
}`

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() {
	c := jsonschema.NewCompiler()
	sources := map[string]string{
		TypeReorder: reorderSchema,
		TypeClick:   clickSchema,
		TypeOpen:    openSchema,
	}
	out := make(map[string]*jsonschema.Schema, len(sources))
	for typ, src := range sources {
		name := "https://slotsort.ai/schemas/" + strings.ToLower(typ) + ".schema.json"
		if err := c.AddResource(name, strings.NewReader(src)); err != nil {
			schemasErr = fmt.Errorf("schema %s: %w", name, err)
			return
		}
		s, err := c.Compile(name)
		if err != nil {
			schemasErr = fmt.Errorf("schema %s: %w", name, err)
			return
		}
		out[typ] = s
	}
	schemas = out
}

// ValidateMessage checks a raw client message against the schema for its type.
// Types without a schema pass.
func ValidateMessage(typ string, raw []byte) error {
	schemasOnce.Do(compileSchemas)
	if schemasErr != nil {
		return schemasErr
	}
	s, ok := schemas[typ]
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
