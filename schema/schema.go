// Package schema provides JSON Schema generation for the generated
// OpenCode config.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/i2y/plugport/opencode"
)

// Reflector inlines all definitions to avoid $ref, so the schema can be
// read without resolving references.
var Reflector = &jsonschema.Reflector{
	DoNotReference: true,
}

// Generate creates a JSON Schema from a Go type.
// The type should be a struct with json and jsonschema tags.
func Generate[T any]() (json.RawMessage, error) {
	var zero T
	return json.Marshal(Reflector.Reflect(&zero))
}

// Config returns the JSON Schema of opencode.json as written by
// opencode.Write.
//
// Example:
//
//	raw, err := schema.Config()
//	if err != nil {
//	    return err
//	}
//	os.Stdout.Write(raw)
func Config() (json.RawMessage, error) {
	s := Reflector.Reflect(&opencode.Config{})
	s.Title = "OpenCode config"
	s.Description = "Configuration generated from a Claude Code plugin"
	return json.MarshalIndent(s, "", "  ")
}
