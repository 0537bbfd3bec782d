// Package serialize turns resource mirrors into CloudFormation property maps.
package serialize

import (
	"encoding/json"
	"reflect"
	"regexp"
	"sort"
	"strings"
)

// Resource serializes a Go struct to CloudFormation resource properties.
// It handles:
// - json tag names (falling back to the Go field name)
// - omitting nil/zero values
// - nested structs, slices, and maps
// - json.Marshaler values such as intrinsics and AttrRef
func Resource(v any) (map[string]any, error) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, nil
	}

	result := make(map[string]any)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)

		if !field.IsExported() {
			continue
		}

		name := fieldName(field)
		if name == "-" {
			continue
		}

		if isZeroValue(fieldVal) {
			continue
		}

		serialized, err := serializeValue(fieldVal)
		if err != nil {
			return nil, err
		}

		if serialized != nil {
			result[name] = serialized
		}
	}

	return result, nil
}

// Value serializes any value the way Resource serializes a field.
func Value(v any) (any, error) {
	return serializeValue(reflect.ValueOf(v))
}

// fieldName returns the JSON field name for a struct field.
func fieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}

// isZeroValue returns true if the value is the zero value for its type.
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.String:
		return v.String() == ""
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		if v.CanInterface() {
			if zeroer, ok := v.Interface().(interface{ IsZero() bool }); ok {
				return zeroer.IsZero()
			}
		}
		return false
	default:
		return false
	}
}

// serializeValue converts a reflect.Value to a JSON-compatible value.
func serializeValue(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		// Pointer receivers may implement json.Marshaler, check before unwrapping.
		if v.Kind() == reflect.Ptr {
			if out, ok, err := marshalJSON(v); ok {
				return out, err
			}
		}
		return serializeValue(v.Elem())
	}

	if out, ok, err := marshalJSON(v); ok {
		return out, err
	}

	switch v.Kind() {
	case reflect.Struct:
		return Resource(v.Interface())

	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := serializeValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			result[i] = elem
		}
		return result, nil

	case reflect.Map:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make(map[string]any)
		iter := v.MapRange()
		for iter.Next() {
			val, err := serializeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			result[iter.Key().String()] = val
		}
		return result, nil

	case reflect.String:
		return v.String(), nil

	case reflect.Bool:
		return v.Bool(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil

	case reflect.Float32, reflect.Float64:
		return v.Float(), nil

	default:
		return roundTrip(v.Interface())
	}
}

func marshalJSON(v reflect.Value) (any, bool, error) {
	if !v.CanInterface() {
		return nil, false, nil
	}
	marshaler, ok := v.Interface().(json.Marshaler)
	if !ok {
		return nil, false, nil
	}
	data, err := marshaler.MarshalJSON()
	if err != nil {
		return nil, true, err
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, true, err
	}
	return result, true, nil
}

func roundTrip(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return result, nil
}

var subVariable = regexp.MustCompile(`\$\{([^}!][^}]*)\}`)

// References returns the logical names referenced by Ref, Fn::GetAtt, and
// Fn::Sub expressions inside a serialized value, sorted and de-duplicated.
// Pseudo parameters (AWS::*) are skipped.
func References(v any) []string {
	seen := make(map[string]bool)
	collectReferences(v, seen)

	refs := make([]string, 0, len(seen))
	for name := range seen {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	return refs
}

func collectReferences(v any, seen map[string]bool) {
	switch val := v.(type) {
	case map[string]any:
		if ref, ok := val["Ref"].(string); ok && len(val) == 1 {
			addReference(ref, seen)
			return
		}
		if getAtt, ok := val["Fn::GetAtt"]; ok && len(val) == 1 {
			switch parts := getAtt.(type) {
			case []any:
				if len(parts) > 0 {
					if name, ok := parts[0].(string); ok {
						addReference(name, seen)
					}
				}
			case []string:
				if len(parts) > 0 {
					addReference(parts[0], seen)
				}
			case string:
				name, _, _ := strings.Cut(parts, ".")
				addReference(name, seen)
			}
			return
		}
		if sub, ok := val["Fn::Sub"]; ok && len(val) == 1 {
			collectSubReferences(sub, seen)
			return
		}
		for _, nested := range val {
			collectReferences(nested, seen)
		}
	case []any:
		for _, nested := range val {
			collectReferences(nested, seen)
		}
	}
}

func collectSubReferences(sub any, seen map[string]bool) {
	var (
		str       string
		variables map[string]any
	)
	switch s := sub.(type) {
	case string:
		str = s
	case []any:
		if len(s) > 0 {
			str, _ = s[0].(string)
		}
		if len(s) > 1 {
			variables, _ = s[1].(map[string]any)
			for _, value := range variables {
				collectReferences(value, seen)
			}
		}
	}
	for _, match := range subVariable.FindAllStringSubmatch(str, -1) {
		name, _, _ := strings.Cut(match[1], ".")
		if _, local := variables[name]; local {
			continue
		}
		addReference(name, seen)
	}
}

func addReference(name string, seen map[string]bool) {
	if name == "" || strings.HasPrefix(name, "AWS::") {
		return
	}
	seen[name] = true
}
