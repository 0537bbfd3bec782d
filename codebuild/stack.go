package codebuild

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-codebuild-go"
	"github.com/lex00/wetwire-codebuild-go/internal/template"
	"github.com/lex00/wetwire-codebuild-go/intrinsics"
)

// Stack owns the resources, parameters, and outputs of one template.
type Stack struct {
	name        string
	description string
	logger      *zap.Logger

	order      []string
	resources  map[string]*stackResource
	parameters map[string]wetwire.Parameter
	outputs    map[string]wetwire.Output
	validators []func() []error
}

type stackResource struct {
	value     wetwire.Resource
	dependsOn []string
	condition string
}

// StackOption configures a Stack.
type StackOption func(*Stack)

// WithDescription sets the template description.
func WithDescription(description string) StackOption {
	return func(s *Stack) {
		s.description = description
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) StackOption {
	return func(s *Stack) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStack creates an empty stack.
func NewStack(name string, opts ...StackOption) *Stack {
	s := &Stack{
		name:       name,
		logger:     zap.NewNop(),
		resources:  make(map[string]*stackResource),
		parameters: make(map[string]wetwire.Parameter),
		outputs:    make(map[string]wetwire.Output),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the stack name.
func (s *Stack) Name() string {
	return s.name
}

// Logger returns the stack logger.
func (s *Stack) Logger() *zap.Logger {
	return s.logger
}

// ResourceOption configures a resource added to a stack.
type ResourceOption func(*stackResource)

// DependsOn adds explicit DependsOn entries (logical ids).
func DependsOn(logicalIDs ...string) ResourceOption {
	return func(r *stackResource) {
		r.dependsOn = append(r.dependsOn, logicalIDs...)
	}
}

// WithCondition attaches a template condition to the resource.
func WithCondition(name string) ResourceOption {
	return func(r *stackResource) {
		r.condition = name
	}
}

// LogicalID converts a construct path such as "api-build/Role" into a
// CloudFormation logical id ("ApiBuildRole").
func LogicalID(path string) string {
	var sb strings.Builder
	for _, segment := range strings.Split(path, "/") {
		sb.WriteString(strcase.ToCamel(segment))
	}
	return sb.String()
}

// AddResource registers a resource under the logical id derived from id.
// Pointer values may be mutated until Synth is called.
func (s *Stack) AddResource(id string, resource wetwire.Resource, opts ...ResourceOption) (string, error) {
	logicalID := LogicalID(id)
	if logicalID == "" {
		return "", fmt.Errorf("invalid construct id %q", id)
	}
	if _, exists := s.resources[logicalID]; exists {
		return "", fmt.Errorf("%w: %s (logical id %s)", ErrDuplicateID, id, logicalID)
	}

	r := &stackResource{value: resource}
	for _, opt := range opts {
		opt(r)
	}
	s.resources[logicalID] = r
	s.order = append(s.order, logicalID)

	s.logger.Debug("resource added",
		zap.String("id", id),
		zap.String("logical_id", logicalID),
		zap.String("type", resource.ResourceType()))
	return logicalID, nil
}

// AddDependency makes the resource logicalID depend on the given logical ids.
func (s *Stack) AddDependency(logicalID string, dependsOn ...string) error {
	r, ok := s.resources[logicalID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownResource, logicalID)
	}
	for _, dep := range dependsOn {
		if !contains(r.dependsOn, dep) {
			r.dependsOn = append(r.dependsOn, dep)
		}
	}
	return nil
}

// Resource returns the resource registered under logicalID.
func (s *Stack) Resource(logicalID string) (wetwire.Resource, bool) {
	r, ok := s.resources[logicalID]
	if !ok {
		return nil, false
	}
	return r.value, true
}

// Resources returns the logical ids in insertion order.
func (s *Stack) Resources() []string {
	return append([]string(nil), s.order...)
}

// AddParameter registers a template parameter and returns a Ref to it.
func (s *Stack) AddParameter(name string, param wetwire.Parameter) intrinsics.Ref {
	s.parameters[name] = param
	return intrinsics.Ref{LogicalName: name}
}

// AddOutput registers a template output.
func (s *Stack) AddOutput(name string, output wetwire.Output) {
	s.outputs[name] = output
}

func (s *Stack) addValidation(fn func() []error) {
	s.validators = append(s.validators, fn)
}

// stackSnapshot marks how many resources and validations a stack held.
type stackSnapshot struct {
	resources  int
	validators int
}

func (s *Stack) snapshot() stackSnapshot {
	return stackSnapshot{resources: len(s.order), validators: len(s.validators)}
}

// restore drops every resource and validation added after snap was taken.
func (s *Stack) restore(snap stackSnapshot) {
	for _, logicalID := range s.order[snap.resources:] {
		delete(s.resources, logicalID)
	}
	s.order = s.order[:snap.resources]
	s.validators = s.validators[:snap.validators]
}

// Validate runs every construct validation and joins the failures.
func (s *Stack) Validate() error {
	var errs []error
	for _, validate := range s.validators {
		errs = append(errs, validate()...)
	}
	return errors.Join(errs...)
}

// Synth validates the stack and renders it into a template.
func (s *Stack) Synth() (*wetwire.Template, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	builder := template.NewBuilder(s.logger)
	builder.SetDescription(s.description)
	for name, param := range s.parameters {
		builder.AddParameter(name, param)
	}
	for _, logicalID := range s.order {
		r := s.resources[logicalID]
		if err := builder.AddResource(logicalID, r.value, r.dependsOn...); err != nil {
			return nil, err
		}
		if r.condition != "" {
			builder.SetCondition(logicalID, r.condition)
		}
	}
	for name, output := range s.outputs {
		builder.AddOutput(name, output)
	}

	t, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("synthesizing stack %s: %w", s.name, err)
	}
	s.logger.Debug("stack synthesized", zap.String("stack", s.name), zap.Int("resources", len(t.Resources)))
	return t, nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
