package registry

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	apperrors "aide/pkg/errors"
	"aide/pkg/logger"
)

// Status of a tool invocation
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// ParameterSpec describes one named tool parameter
type ParameterSpec struct {
	Type        string   `json:"type"` // string, number, integer, boolean, array, object
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"-"`
	Enum        []string `json:"enum,omitempty"`
}

// HandlerFunc executes a tool. The returned payload is tool-specific
// structured output; an error or panic becomes a failure Result.
type HandlerFunc func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Descriptor declares a callable capability: a unique name, a parameter
// schema and an invocation handle. Immutable after registration.
type Descriptor struct {
	Name        string
	Description string
	Parameters  map[string]ParameterSpec
	Handler     HandlerFunc
}

// InvocationRequest is one tool call requested by the model
type InvocationRequest struct {
	CallID    string                 `json:"call_id"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// Result correlates back to a request by call id
type Result struct {
	CallID  string      `json:"call_id"`
	Status  Status      `json:"status"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Registry maps tool names to descriptors. It is built once at startup and
// read-only afterwards, so lookups need no locking.
type Registry struct {
	tools   map[string]Descriptor
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a registry with the given per-invocation timeout
func New(timeout time.Duration) *Registry {
	return &Registry{
		tools:   make(map[string]Descriptor),
		timeout: timeout,
		logger:  logger.Get(),
	}
}

// Register adds a descriptor, rejecting duplicate names
func (r *Registry) Register(d Descriptor) error {
	if _, exists := r.tools[d.Name]; exists {
		return apperrors.NewDuplicateTool(d.Name)
	}
	r.tools[d.Name] = d
	r.logger.Debug("Tool registered", zap.String("tool", d.Name))
	return nil
}

// MustRegister panics on registration failure; for startup wiring only
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Resolve looks up a descriptor by name
func (r *Registry) Resolve(name string) (Descriptor, error) {
	d, ok := r.tools[name]
	if !ok {
		return Descriptor{}, apperrors.NewUnknownTool(name)
	}
	return d, nil
}

// Descriptors returns all registered descriptors in name order
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.tools))
	for _, d := range r.tools {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke validates the request against the descriptor's schema, then runs
// the handler under the registry timeout with panic isolation. It always
// returns a Result; handler failures never propagate as errors or crashes.
func (r *Registry) Invoke(ctx context.Context, req InvocationRequest) *Result {
	d, err := r.Resolve(req.Name)
	if err != nil {
		r.logger.Warn("Unknown tool requested", zap.String("tool", req.Name))
		return &Result{CallID: req.CallID, Status: StatusFailure, Error: fmt.Sprintf("unknown tool: %s", req.Name)}
	}

	if fields := validateArguments(d, req.Arguments); len(fields) > 0 {
		verr := apperrors.NewInvalidArguments(req.Name, fields)
		r.logger.Warn("Tool arguments rejected",
			zap.String("tool", req.Name),
			zap.Strings("fields", fields),
		)
		return &Result{CallID: req.CallID, Status: StatusFailure, Error: verr.Message}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type outcome struct {
		payload interface{}
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("tool panicked: %v", rec)}
			}
		}()
		payload, err := d.Handler(callCtx, req.Arguments)
		done <- outcome{payload: payload, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			r.logger.Warn("Tool execution failed",
				zap.String("tool", req.Name),
				zap.String("call_id", req.CallID),
				zap.Error(out.err),
			)
			return &Result{CallID: req.CallID, Status: StatusFailure, Error: out.err.Error()}
		}
		return &Result{CallID: req.CallID, Status: StatusSuccess, Payload: out.payload}
	case <-callCtx.Done():
		// A late handler result is discarded; it must never reach the
		// conversation history after the round has moved on
		r.logger.Warn("Tool invocation timed out",
			zap.String("tool", req.Name),
			zap.String("call_id", req.CallID),
			zap.Duration("timeout", r.timeout),
		)
		return &Result{CallID: req.CallID, Status: StatusFailure, Error: "timeout"}
	}
}

// validateArguments returns the list of missing or mistyped fields
func validateArguments(d Descriptor, args map[string]interface{}) []string {
	var bad []string
	for name, spec := range d.Parameters {
		val, present := args[name]
		if !present {
			if spec.Required {
				bad = append(bad, fmt.Sprintf("%s (missing)", name))
			}
			continue
		}
		if !typeMatches(spec.Type, val) {
			bad = append(bad, fmt.Sprintf("%s (expected %s)", name, spec.Type))
		}
	}
	sort.Strings(bad)
	return bad
}

// typeMatches checks a JSON-decoded value against a schema type name
func typeMatches(schemaType string, val interface{}) bool {
	if val == nil {
		return false
	}
	switch schemaType {
	case "string":
		_, ok := val.(string)
		return ok
	case "number":
		switch val.(type) {
		case float64, float32, int, int64:
			return true
		}
		return false
	case "integer":
		switch v := val.(type) {
		case int, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "array":
		_, ok := val.([]interface{})
		return ok
	case "object":
		_, ok := val.(map[string]interface{})
		return ok
	default:
		// Unknown schema types are not validated
		return true
	}
}
