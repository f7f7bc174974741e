package tools

import (
	"context"
	"fmt"
	"sort"
)

// Handler performs the actual side effect of a tool call. It receives
// parameters that already passed schema validation and returns a
// human-readable output plus optional structured data.
type Handler func(ctx context.Context, params map[string]any) (output string, data any, err error)

// Descriptor describes one registered capability.
type Descriptor struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema for the tool's inputs
	Handler     Handler
}

// Result is the outcome of a dispatch. Every failure mode is encoded
// here as data; Execute never panics or returns an error to the caller.
type Result struct {
	Success bool   `json:"success"`
	Output  string `json:"output,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Registry manages the set of available tools. Tools are registered
// once at startup and immutable afterwards.
type Registry struct {
	tools map[string]*Descriptor
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Descriptor),
	}
}

func (r *Registry) Register(d *Descriptor) {
	r.tools[d.Name] = d
}

func (r *Registry) Get(name string) *Descriptor {
	return r.tools[name]
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns all registered descriptors, sorted by name.
func (r *Registry) Descriptors() []*Descriptor {
	ds := make([]*Descriptor, 0, len(r.tools))
	for _, name := range r.Names() {
		ds = append(ds, r.tools[name])
	}
	return ds
}

// Execute validates params against the tool's schema and dispatches to
// its handler. It blocks until the underlying operation completes.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{Success: false, Error: fmt.Sprintf("tool %s panicked: %v", name, rec)}
		}
	}()

	d := r.Get(name)
	if d == nil {
		return Result{Success: false, Error: fmt.Sprintf("unknown tool: %s", name)}
	}

	if err := validateParams(d.Parameters, params); err != nil {
		return Result{Success: false, Error: fmt.Sprintf("invalid parameters for %s: %v", name, err)}
	}

	output, data, err := d.Handler(ctx, params)
	if err != nil {
		return Result{Success: false, Output: output, Error: err.Error()}
	}
	return Result{Success: true, Output: output, Data: data}
}

// validateParams checks required keys and primitive type kinds against a
// JSON Schema fragment of the shape held by Descriptor.Parameters.
func validateParams(schema map[string]any, params map[string]any) error {
	if schema == nil {
		return nil
	}

	props, _ := schema["properties"].(map[string]any)

	for _, key := range requiredKeys(schema) {
		if _, ok := params[key]; !ok {
			return fmt.Errorf("missing required parameter %q", key)
		}
	}

	for key, val := range params {
		spec, ok := props[key].(map[string]any)
		if !ok {
			continue
		}
		want, _ := spec["type"].(string)
		if want == "" || val == nil {
			continue
		}
		if !kindMatches(want, val) {
			return fmt.Errorf("parameter %q must be of type %s", key, want)
		}
	}
	return nil
}

func requiredKeys(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		keys := make([]string, 0, len(req))
		for _, k := range req {
			if s, ok := k.(string); ok {
				keys = append(keys, s)
			}
		}
		return keys
	}
	return nil
}

func kindMatches(want string, val any) bool {
	switch want {
	case "string":
		_, ok := val.(string)
		return ok
	case "integer", "number":
		switch val.(type) {
		case int, int64, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "object":
		_, ok := val.(map[string]any)
		return ok
	case "array":
		_, ok := val.([]any)
		return ok
	}
	return true
}

// stringParam reads an optional string parameter.
func stringParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

// intParam reads an integer parameter, tolerating the float64 that
// encoding/json produces for numbers.
func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
