// Package template builds CloudFormation templates from resource mirrors.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	wetwire "github.com/lex00/wetwire-codebuild-go"
	"github.com/lex00/wetwire-codebuild-go/internal/serialize"
)

var (
	// ErrDuplicateResource is returned when a logical name is registered twice.
	ErrDuplicateResource = errors.New("duplicate logical id")
	// ErrUnknownResource is returned when a reference or DependsOn names
	// neither a resource nor a parameter.
	ErrUnknownResource = errors.New("undefined reference")
)

// entry is a registered resource awaiting serialization.
type entry struct {
	value     wetwire.Resource
	dependsOn []string
	condition string
}

// Builder constructs CloudFormation templates from resource values.
type Builder struct {
	description string
	resources   map[string]entry
	parameters  map[string]wetwire.Parameter
	outputs     map[string]wetwire.Output
	logger      *zap.Logger
}

// NewBuilder creates an empty template builder.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		resources:  make(map[string]entry),
		parameters: make(map[string]wetwire.Parameter),
		outputs:    make(map[string]wetwire.Output),
		logger:     logger,
	}
}

// SetDescription sets the template description.
func (b *Builder) SetDescription(description string) {
	b.description = description
}

// AddResource registers a resource under a logical name.
// Explicit dependencies are merged with the ones found in the properties.
func (b *Builder) AddResource(name string, value wetwire.Resource, dependsOn ...string) error {
	if _, exists := b.resources[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateResource, name)
	}
	b.resources[name] = entry{value: value, dependsOn: dependsOn}
	return nil
}

// SetCondition attaches a template condition name to a resource.
func (b *Builder) SetCondition(name, condition string) {
	if e, ok := b.resources[name]; ok {
		e.condition = condition
		b.resources[name] = e
	}
}

// AddParameter registers a template parameter.
func (b *Builder) AddParameter(name string, param wetwire.Parameter) {
	b.parameters[name] = param
}

// AddOutput registers a template output.
func (b *Builder) AddOutput(name string, output wetwire.Output) {
	b.outputs[name] = output
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*wetwire.Template, error) {
	template := &wetwire.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              b.description,
		Resources:                make(map[string]wetwire.ResourceDef),
	}

	if len(b.parameters) > 0 {
		template.Parameters = make(map[string]wetwire.Parameter, len(b.parameters))
		for name, param := range b.parameters {
			template.Parameters[name] = param
		}
	}

	props := make(map[string]map[string]any, len(b.resources))
	deps := make(map[string][]string, len(b.resources))

	for name, e := range b.resources {
		p, err := serialize.Resource(e.value)
		if err != nil {
			return nil, fmt.Errorf("serializing %s: %w", name, err)
		}
		props[name] = p

		implicit, err := b.resolveReferences(name, serialize.References(p))
		if err != nil {
			return nil, err
		}
		for _, dep := range e.dependsOn {
			if _, ok := b.resources[dep]; !ok {
				return nil, fmt.Errorf("%w: %s depends on %s", ErrUnknownResource, name, dep)
			}
		}
		deps[name] = mergeSorted(implicit, e.dependsOn)
	}

	order, err := topologicalSort(deps)
	if err != nil {
		return nil, err
	}

	for _, name := range order {
		e := b.resources[name]
		template.Resources[name] = wetwire.ResourceDef{
			Type:       e.value.ResourceType(),
			Properties: props[name],
			DependsOn:  sortedCopy(e.dependsOn),
			Condition:  e.condition,
		}
	}

	if len(b.outputs) > 0 {
		template.Outputs = make(map[string]wetwire.Output, len(b.outputs))
		for name, out := range b.outputs {
			value, err := serialize.Value(out.Value)
			if err != nil {
				return nil, fmt.Errorf("serializing output %s: %w", name, err)
			}
			if _, err := b.resolveReferences("output "+name, serialize.References(value)); err != nil {
				return nil, err
			}
			out.Value = value
			template.Outputs[name] = out
		}
	}

	b.logger.Debug("template built",
		zap.Int("resources", len(template.Resources)),
		zap.Int("parameters", len(template.Parameters)),
		zap.Int("outputs", len(template.Outputs)))

	return template, nil
}

// resolveReferences keeps the referenced names that are resources and fails
// on names that are neither resources nor parameters.
func (b *Builder) resolveReferences(from string, refs []string) ([]string, error) {
	var resources []string
	for _, ref := range refs {
		if _, ok := b.resources[ref]; ok {
			if ref != from {
				resources = append(resources, ref)
			}
			continue
		}
		if _, ok := b.parameters[ref]; ok {
			continue
		}
		return nil, fmt.Errorf("%w: %s references %s", ErrUnknownResource, from, ref)
	}
	return resources, nil
}

// topologicalSort returns resources in dependency order.
func topologicalSort(deps map[string][]string) ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range deps {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name, resourceDeps := range deps {
		for _, dep := range resourceDeps {
			if _, exists := deps[dep]; exists {
				graph[dep] = append(graph[dep], name)
				inDegree[name]++
			}
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(deps) {
		return nil, detectCycle(deps)
	}

	return result, nil
}

// detectCycle finds and reports a cycle in the dependency graph.
func detectCycle(deps map[string][]string) error {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []string

	var cycle []string
	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		onStack[node] = true
		stack = append(stack, node)

		for _, dep := range deps[node] {
			if _, exists := deps[dep]; !exists {
				continue
			}
			if !visited[dep] {
				if findCycle(dep) {
					return true
				}
			} else if onStack[dep] {
				for i, name := range stack {
					if name == dep {
						cycle = append(append([]string{}, stack[i:]...), dep)
						break
					}
				}
				return true
			}
		}

		onStack[node] = false
		stack = stack[:len(stack)-1]
		return false
	}

	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) > 0 {
		return fmt.Errorf("circular dependency detected: %s", strings.Join(cycle, " → "))
	}
	return errors.New("circular dependency detected")
}

func mergeSorted(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// Dependencies returns the resources each resource of a built template
// depends on, through references or DependsOn.
func Dependencies(t *wetwire.Template) map[string][]string {
	deps := make(map[string][]string, len(t.Resources))
	for name, def := range t.Resources {
		var refs []string
		for _, ref := range serialize.References(map[string]any(def.Properties)) {
			if _, ok := t.Resources[ref]; ok && ref != name {
				refs = append(refs, ref)
			}
		}
		deps[name] = mergeSorted(refs, def.DependsOn)
	}
	return deps
}

// ToJSON serializes the template to JSON.
func ToJSON(t *wetwire.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *wetwire.Template) ([]byte, error) {
	return yaml.Marshal(t)
}

// Encode serializes the template in the named format ("json" or "yaml").
func Encode(t *wetwire.Template, format string) ([]byte, error) {
	switch format {
	case "json", "":
		return ToJSON(t)
	case "yaml", "yml":
		return ToYAML(t)
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}
