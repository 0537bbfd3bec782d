package codebuild

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// BuildSpec is the build specification of a project: either a file in the
// source or an inline document.
type BuildSpec struct {
	filename string
	object   map[string]any
	yaml     bool
}

// BuildSpecFromObject renders obj as an inline JSON build spec.
func BuildSpecFromObject(obj map[string]any) BuildSpec {
	return BuildSpec{object: obj}
}

// BuildSpecFromObjectToYAML renders obj as an inline YAML build spec.
func BuildSpecFromObjectToYAML(obj map[string]any) BuildSpec {
	return BuildSpec{object: obj, yaml: true}
}

// BuildSpecFromSourceFilename uses a build spec file from the source.
func BuildSpecFromSourceFilename(filename string) BuildSpec {
	return BuildSpec{filename: filename}
}

// IsZero reports whether no build spec was given.
func (b BuildSpec) IsZero() bool {
	return b.filename == "" && b.object == nil
}

// IsImmediate reports whether the build spec is inline rather than read
// from the source.
func (b BuildSpec) IsImmediate() bool {
	return b.object != nil
}

// Object returns the inline document, or nil for file build specs.
func (b BuildSpec) Object() map[string]any {
	return b.object
}

// ToBuildSpec renders the value of the Source.BuildSpec property.
func (b BuildSpec) ToBuildSpec() (string, error) {
	if !b.IsImmediate() {
		return b.filename, nil
	}
	if b.yaml {
		data, err := yaml.Marshal(b.object)
		if err != nil {
			return "", fmt.Errorf("rendering build spec: %w", err)
		}
		return string(data), nil
	}
	data, err := json.MarshalIndent(b.object, "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering build spec: %w", err)
	}
	return string(data), nil
}

// MergeBuildSpecs merges two inline build specs. Command lists are
// concatenated, nested maps are merged, and any other key present in both
// must hold the same value.
func MergeBuildSpecs(lhs, rhs BuildSpec) (BuildSpec, error) {
	if !lhs.IsImmediate() || !rhs.IsImmediate() {
		return BuildSpec{}, fmt.Errorf("can only merge build specs created from objects")
	}
	merged, err := mergeValues("", normalizeSpec(lhs.object), normalizeSpec(rhs.object))
	if err != nil {
		return BuildSpec{}, err
	}
	return BuildSpec{object: merged.(map[string]any), yaml: lhs.yaml && rhs.yaml}, nil
}

// normalizeSpec deep copies obj into map[string]any and []any values,
// turning single "commands" strings into lists.
func normalizeSpec(obj map[string]any) map[string]any {
	return normalizeValue("", obj).(map[string]any)
}

func normalizeValue(key string, v any) any {
	if s, ok := v.(string); ok && key == "commands" {
		return []any{s}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			out[k] = normalizeValue(k, iter.Value().Interface())
		}
		return out
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return v
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalizeValue("", rv.Index(i).Interface())
		}
		return out
	}
	return v
}

func mergeValues(path string, lhs, rhs any) (any, error) {
	switch l := lhs.(type) {
	case map[string]any:
		r, ok := rhs.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("build spec key %q has conflicting types", path)
		}
		out := make(map[string]any, len(l)+len(r))
		for k, v := range l {
			out[k] = v
		}
		for k, rv := range r {
			lv, exists := out[k]
			if !exists {
				out[k] = rv
				continue
			}
			merged, err := mergeValues(joinKey(path, k), lv, rv)
			if err != nil {
				return nil, err
			}
			out[k] = merged
		}
		return out, nil
	case []any:
		r, ok := rhs.([]any)
		if !ok {
			return nil, fmt.Errorf("build spec key %q has conflicting types", path)
		}
		return append(append([]any{}, l...), r...), nil
	default:
		if !reflect.DeepEqual(lhs, rhs) {
			return nil, fmt.Errorf("build spec key %q has conflicting values %v and %v", path, lhs, rhs)
		}
		return lhs, nil
	}
}

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return strings.Join([]string{path, key}, ".")
}
