package server

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Request bodies are validated against JSON Schemas before any handler
// logic runs, so handlers never see structurally invalid input.

const databaseQuerySchema = `{
	"type": "object",
	"properties": {
		"query": {"type": "string", "minLength": 1},
		"migration_name": {"type": "string"}
	},
	"required": ["query"],
	"additionalProperties": false
}`

const confirmSchema = `{
	"type": "object",
	"properties": {
		"confirmation_id": {"type": "string", "minLength": 1}
	},
	"required": ["confirmation_id"],
	"additionalProperties": false
}`

const apiRequestSchema = `{
	"type": "object",
	"properties": {
		"method": {"type": "string", "enum": ["GET", "POST", "PUT", "PATCH", "DELETE"]},
		"path": {"type": "string", "pattern": "^/"},
		"query": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		},
		"body": {"type": "object"}
	},
	"required": ["method", "path"],
	"additionalProperties": false
}`

const modeUpdateSchema = `{
	"type": "object",
	"properties": {
		"surface": {"type": "string", "enum": ["database", "api"]},
		"mode": {"type": "string", "enum": ["safe", "unsafe"]}
	},
	"required": ["surface", "mode"],
	"additionalProperties": false
}`

var (
	databaseQueryValidator = mustCompileSchema("database_query.json", databaseQuerySchema)
	confirmValidator       = mustCompileSchema("confirm.json", confirmSchema)
	apiRequestValidator    = mustCompileSchema("api_request.json", apiRequestSchema)
	modeUpdateValidator    = mustCompileSchema("mode_update.json", modeUpdateSchema)
)

func mustCompileSchema(name, raw string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	sch, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return sch
}

// decodeBody reads a JSON request body, validates it against sch, and then
// unmarshals it into dst.
func decodeBody(raw []byte, sch *jsonschema.Schema, dst any) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("request body is not valid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("request body rejected: %w", err)
	}
	return json.Unmarshal(raw, dst)
}
