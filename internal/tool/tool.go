// Package tool defines the Tool contract and a name-indexed registry, per
// spec §4.2.
package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func bytesReader(raw json.RawMessage) io.Reader {
	return bytes.NewReader(raw)
}

// ErrAlreadyRegistered is returned by Registry.Register when a tool with
// the same name is already present. This diverges deliberately from the
// silently-replacing registration the teacher codebase used.
var ErrAlreadyRegistered = errors.New("tool: already registered")

// Definition describes a tool's name, purpose, and input schema for the
// LLM, plus the advisory "dangerous" hint from spec §4.2.
type Definition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
	Dangerous   bool            `json:"dangerous,omitempty"`
	Category    string          `json:"category,omitempty"`
	Version     string          `json:"version,omitempty"`
}

// Artifact is a file or media object produced by a tool execution.
type Artifact struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename,omitempty"`
	Data     []byte `json:"data,omitempty"`
	URL      string `json:"url,omitempty"`
}

// Output is what a successful (possibly business-failed) tool execution
// returns. IsError=true marks a business failure that is still rendered
// back to the model as text, distinct from a transport/validation Error.
type Output struct {
	Content   string         `json:"content"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IsError   bool           `json:"is_error,omitempty"`
}

// Tool is the contract every callable tool implements.
type Tool interface {
	Definition() Definition
	Execute(ctx context.Context, input json.RawMessage) (Output, error)
}

// schemaCache compiles and caches jsonschema validators by a tool's
// Parameters payload, mirroring the pattern used for plugin config
// validation elsewhere in the pack (sync.Map keyed by schema text).
var schemaCache sync.Map // map[string]*jsonschema.Schema

func compileSchema(name string, raw json.RawMessage) (*jsonschema.Schema, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	key := name + ":" + string(raw)
	if cached, ok := schemaCache.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}
	compiler := jsonschema.NewCompiler()
	resourceName := "tool-" + name + ".json"
	if err := compiler.AddResource(resourceName, bytesReader(raw)); err != nil {
		return nil, fmt.Errorf("tool: compiling schema for %q: %w", name, err)
	}
	schema, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("tool: compiling schema for %q: %w", name, err)
	}
	schemaCache.Store(key, schema)
	return schema, nil
}

// ValidateInput validates input against the tool's declared JSON-Schema
// parameters. A tool with no Parameters accepts any input (spec §4.2
// step 3 default).
func ValidateInput(def Definition, input json.RawMessage) error {
	schema, err := compileSchema(def.Name, def.Parameters)
	if err != nil {
		return err
	}
	if schema == nil {
		return nil
	}
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	var decoded any
	if err := json.Unmarshal(input, &decoded); err != nil {
		return fmt.Errorf("tool: invalid input JSON for %q: %w", def.Name, err)
	}
	if err := schema.Validate(decoded); err != nil {
		return fmt.Errorf("tool: input for %q failed validation: %w", def.Name, err)
	}
	return nil
}
