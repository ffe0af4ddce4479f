package tool_registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/serisow/ailab/lab_type"
	"github.com/serisow/ailab/services/llm_service"
)

var validParamTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"array":   true,
	"object":  true,
}

// ParamSpec describes one tool parameter.
type ParamSpec struct {
	Type        string
	Description string
	Required    bool
	Enum        []string
}

// ToolDescriptor binds a tool name to its parameter schema and handler.
// Descriptors are validated once at registration and arguments are
// validated again on every call.
type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  map[string]ParamSpec
	Handler     func(ctx context.Context, args json.RawMessage) (string, error)
}

type Registry struct {
	tools       map[string]ToolDescriptor
	llmServices map[string]llm_service.LLMService
}

func NewRegistry() *Registry {
	return &Registry{
		tools:       make(map[string]ToolDescriptor),
		llmServices: make(map[string]llm_service.LLMService),
	}
}

// RegisterTool validates and stores a tool descriptor.
func (r *Registry) RegisterTool(d ToolDescriptor) error {
	if d.Name == "" {
		return &lab_type.ValidationError{Field: "name", Message: "tool name is required"}
	}
	if d.Handler == nil {
		return &lab_type.ValidationError{Field: d.Name, Message: "tool handler is required"}
	}
	if _, exists := r.tools[d.Name]; exists {
		return &lab_type.ValidationError{Field: d.Name, Message: "tool already registered"}
	}
	for param, spec := range d.Parameters {
		if !validParamTypes[spec.Type] {
			return &lab_type.ValidationError{
				Field:   fmt.Sprintf("%s.%s", d.Name, param),
				Message: fmt.Sprintf("unknown parameter type: %s", spec.Type),
			}
		}
	}

	r.tools[d.Name] = d
	return nil
}

// GetTool returns a registered tool descriptor by name.
func (r *Registry) GetTool(name string) (ToolDescriptor, bool) {
	d, ok := r.tools[name]
	return d, ok
}

// ToolDefinitions returns the registered tools in the shape the LLM
// service advertises to the model.
func (r *Registry) ToolDefinitions() []llm_service.ToolDefinition {
	defs := make([]llm_service.ToolDefinition, 0, len(r.tools))
	for _, d := range r.tools {
		properties := make(map[string]interface{}, len(d.Parameters))
		required := make([]string, 0)
		for param, spec := range d.Parameters {
			prop := map[string]interface{}{
				"type":        spec.Type,
				"description": spec.Description,
			}
			if len(spec.Enum) > 0 {
				prop["enum"] = spec.Enum
			}
			properties[param] = prop
			if spec.Required {
				required = append(required, param)
			}
		}

		defs = append(defs, llm_service.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		})
	}
	return defs
}

// Invoke validates the arguments against the tool's schema and runs the
// handler. Schema failures come back as typed validation errors, not
// untyped throws from inside the handler.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (string, error) {
	d, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	if err := validateArgs(d, args); err != nil {
		return "", err
	}

	return d.Handler(ctx, args)
}

func validateArgs(d ToolDescriptor, args json.RawMessage) error {
	parsed := make(map[string]interface{})
	if len(args) > 0 {
		if err := json.Unmarshal(args, &parsed); err != nil {
			return &lab_type.ValidationError{
				Field:   d.Name,
				Message: fmt.Sprintf("arguments are not valid JSON: %v", err),
			}
		}
	}

	for param, spec := range d.Parameters {
		value, present := parsed[param]
		if !present {
			if spec.Required {
				return &lab_type.ValidationError{
					Field:   fmt.Sprintf("%s.%s", d.Name, param),
					Message: "required parameter missing",
				}
			}
			continue
		}

		if err := checkType(value, spec); err != nil {
			return &lab_type.ValidationError{
				Field:   fmt.Sprintf("%s.%s", d.Name, param),
				Message: err.Error(),
			}
		}
	}

	return nil
}

func checkType(value interface{}, spec ParamSpec) error {
	switch spec.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		if len(spec.Enum) > 0 {
			for _, allowed := range spec.Enum {
				if s == allowed {
					return nil
				}
			}
			return fmt.Errorf("value %q not in enum", s)
		}
	case "number", "integer":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("expected %s, got %T", spec.Type, value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	}
	return nil
}

// RegisterLLMService registers a model provider under a name.
func (r *Registry) RegisterLLMService(name string, service llm_service.LLMService) {
	r.llmServices[name] = service
}

// GetLLMService returns a model provider by name.
func (r *Registry) GetLLMService(name string) (llm_service.LLMService, bool) {
	service, ok := r.llmServices[name]
	return service, ok
}
