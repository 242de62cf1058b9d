package config

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/matzehuels/traitmix/pkg/errors"
)

const projectSchemaURL = "traitmix://schemas/project.schema.json"

const projectSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "path", "layers"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "display_name": {"type": "string"},
    "policy_id": {"type": "string"},
    "amount": {"type": "integer", "minimum": 0},
    "tolerance": {"type": "integer", "minimum": 0},
    "path": {"type": "string", "minLength": 1},
    "off_traits": {"type": "array", "items": {"type": "string"}},
    "layers": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "display_name": {"type": "string"},
          "none": {"type": "integer", "minimum": 0, "maximum": 4294967295},
          "exclude_if_traits": {
            "type": "array",
            "items": {
              "type": "object",
              "properties": {
                "layer": {"type": "string"},
                "traits": {"type": "array", "items": {"type": "string"}}
              }
            }
          }
        }
      }
    },
    "sets": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "amount"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "amount": {"type": "integer", "minimum": 1}
        }
      }
    },
    "extra": {"type": "object"}
  }
}`

const blacklistSchemaURL = "traitmix://schemas/blacklist.schema.json"

const blacklistSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["list"],
  "properties": {
    "case_sensitive": {"type": "boolean"},
    "list": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["trait_name", "excludes"],
        "properties": {
          "trait_name": {"type": "string", "minLength": 1},
          "excludes": {"type": "array", "items": {"type": "string", "minLength": 1}}
        }
      }
    }
  }
}`

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compiledSchema(url string) (*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		schemas = make(map[string]*jsonschema.Schema, 2)
		for u, src := range map[string]string{
			projectSchemaURL:   projectSchema,
			blacklistSchemaURL: blacklistSchema,
		} {
			s, err := jsonschema.CompileString(u, src)
			if err != nil {
				schemasErr = err
				return
			}
			schemas[u] = s
		}
	})
	if schemasErr != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, schemasErr, "compile schema")
	}
	return schemas[url], nil
}

// validateJSON checks normalized JSON bytes against the schema at url.
func validateJSON(url string, data []byte) error {
	s, err := compiledSchema(url)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
